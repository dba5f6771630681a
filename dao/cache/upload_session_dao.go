package cache

import (
	"context"
	"time"

	"github.com/emustore/gsup/cacheapi"
	cachewrap "github.com/emustore/gsup/cacheapi/adaptor"
	"github.com/emustore/gsup/dao"
	"github.com/emustore/gsup/entity"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultMaxSessionCacheSize    = 1024
	defaultSessionCacheExpireTime = 24 * time.Hour
)

type uploadSessionDao struct {
	dao.IUploadSessionDao
	cache cacheapi.ICache[string, *entity.UploadSessionItem]
}

// NewUploadSessionDao wraps impl with a fingerprint-keyed read cache, any
// write path invalidates the affected entry.
func NewUploadSessionDao(impl dao.IUploadSessionDao) dao.IUploadSessionDao {
	cc := lru.NewLRU[string, *entity.UploadSessionItem](defaultMaxSessionCacheSize, nil, defaultSessionCacheExpireTime)
	return &uploadSessionDao{
		IUploadSessionDao: impl,
		cache:             cachewrap.WrapExpirableLruCache(cc),
	}
}

func (d *uploadSessionDao) GetSession(ctx context.Context, req *entity.GetSessionRequest) (*entity.GetSessionResponse, error) {
	item, ok, err := cacheapi.Load(ctx, d.cache, req.Fingerprint, func(ctx context.Context, k string) (*entity.UploadSessionItem, bool, error) {
		rsp, err := d.IUploadSessionDao.GetSession(ctx, &entity.GetSessionRequest{Fingerprint: k})
		if err != nil {
			return nil, false, err
		}
		return rsp.Item, rsp.Item != nil, nil
	})
	if err != nil {
		return nil, err
	}
	rsp := &entity.GetSessionResponse{}
	if ok {
		rsp.Item = item
	}
	return rsp, nil
}

func (d *uploadSessionDao) SaveSessionProgress(ctx context.Context, req *entity.SaveSessionProgressRequest) (*entity.SaveSessionProgressResponse, error) {
	defer d.cache.Del(ctx, req.Fingerprint)
	return d.IUploadSessionDao.SaveSessionProgress(ctx, req)
}

func (d *uploadSessionDao) DeleteSession(ctx context.Context, req *entity.DeleteSessionRequest) (*entity.DeleteSessionResponse, error) {
	defer func() {
		for _, fp := range req.Fingerprint {
			_ = d.cache.Del(ctx, fp)
		}
	}()
	return d.IUploadSessionDao.DeleteSession(ctx, req)
}
