package cached

import (
	"context"
	"fmt"
	"io"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/emustore/gsup/cacheapi"
	cachewrap "github.com/emustore/gsup/cacheapi/adaptor"
	"github.com/emustore/gsup/client"
	"github.com/emustore/gsup/client/model"
)

const (
	defaultMaxCachedMeta = 4096
)

// cachedClient keeps recent object metadata in memory so repeated stat
// lookups (bulk upload preflight, ls + stat sequences) stay off the wire.
// Every write path through this client invalidates the touched object.
type cachedClient struct {
	client.IClient
	cache cacheapi.ICache[string, *model.ObjectMeta]
}

func New(impl client.IClient) (client.IClient, error) {
	cc, err := ristretto.NewCache(&ristretto.Config[string, *model.ObjectMeta]{
		NumCounters: defaultMaxCachedMeta * 10,
		MaxCost:     defaultMaxCachedMeta,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &cachedClient{
		IClient: impl,
		cache:   cachewrap.WrapRistrettoCache(cc),
	}, nil
}

func metaKey(bucket, object string, generation int64) string {
	return fmt.Sprintf("%s/%s#%d", bucket, object, generation)
}

func (c *cachedClient) invalidate(ctx context.Context, bucket, object string) {
	// generation 0 is the "latest" alias, versioned entries stay valid
	_ = c.cache.Del(ctx, metaKey(bucket, object, 0))
}

func (c *cachedClient) StatObject(ctx context.Context, bucket, object string, generation int64) (*model.ObjectMeta, error) {
	meta, ok, err := cacheapi.Load(ctx, c.cache, metaKey(bucket, object, generation), func(ctx context.Context, k string) (*model.ObjectMeta, bool, error) {
		m, err := c.IClient.StatObject(ctx, bucket, object, generation)
		if err != nil {
			return nil, false, err
		}
		return m, true, nil
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", client.ErrNotFound, bucket, object)
	}
	return meta, nil
}

func (c *cachedClient) UploadChunk(ctx context.Context, location string, offset, length, total int64, r io.Reader) (*client.ChunkResult, error) {
	rs, err := c.IClient.UploadChunk(ctx, location, offset, length, total, r)
	if err != nil {
		return nil, err
	}
	if rs.Complete && rs.Object != nil {
		c.invalidate(ctx, rs.Object.Bucket, rs.Object.Name)
	}
	return rs, nil
}

func (c *cachedClient) MediaUpload(ctx context.Context, bucket, object, contentType string, r io.Reader) (*model.ObjectMeta, error) {
	defer c.invalidate(ctx, bucket, object)
	return c.IClient.MediaUpload(ctx, bucket, object, contentType, r)
}

func (c *cachedClient) MultipartUpload(ctx context.Context, bucket, object, contentType string, metadata map[string]string, r io.Reader) (*model.ObjectMeta, error) {
	defer c.invalidate(ctx, bucket, object)
	return c.IClient.MultipartUpload(ctx, bucket, object, contentType, metadata, r)
}

func (c *cachedClient) DeleteObject(ctx context.Context, bucket, object string, generation int64) error {
	defer func() {
		c.invalidate(ctx, bucket, object)
		if generation > 0 {
			_ = c.cache.Del(ctx, metaKey(bucket, object, generation))
		}
	}()
	return c.IClient.DeleteObject(ctx, bucket, object, generation)
}
