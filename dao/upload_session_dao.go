package dao

import (
	"context"
	"time"

	"github.com/emustore/gsup/constant"
	"github.com/emustore/gsup/entity"

	"github.com/didi/gendry/builder"
	"github.com/xxxsen/common/database"
	"github.com/xxxsen/common/database/dbkit"
)

type ScanSessionCallbackFunc func(ctx context.Context, res []*entity.UploadSessionItem) (bool, error)

type IUploadSessionDao interface {
	CreateSession(ctx context.Context, req *entity.CreateSessionRequest) (*entity.CreateSessionResponse, error)
	GetSession(ctx context.Context, req *entity.GetSessionRequest) (*entity.GetSessionResponse, error)
	SaveSessionProgress(ctx context.Context, req *entity.SaveSessionProgressRequest) (*entity.SaveSessionProgressResponse, error)
	DeleteSession(ctx context.Context, req *entity.DeleteSessionRequest) (*entity.DeleteSessionResponse, error)
	ScanSession(ctx context.Context, batch int64, cb ScanSessionCallbackFunc) error
}

type uploadSessionDaoImpl struct {
	dbc database.IDatabase
}

func NewUploadSessionDao(dbc database.IDatabase) IUploadSessionDao {
	return &uploadSessionDaoImpl{
		dbc: dbc,
	}
}

func (d *uploadSessionDaoImpl) table() string {
	return "upload_session_tab"
}

func (d *uploadSessionDaoImpl) CreateSession(ctx context.Context, req *entity.CreateSessionRequest) (*entity.CreateSessionResponse, error) {
	now := time.Now().UnixMilli()
	data := []map[string]interface{}{
		{
			"fingerprint":   req.Fingerprint,
			"task_id":       req.TaskId,
			"bucket":        req.Bucket,
			"object_name":   req.ObjectName,
			"session_id":    req.SessionId,
			"location":      req.Location,
			"total_size":    req.TotalSize,
			"chunk_size":    req.ChunkSize,
			"content_type":  req.ContentType,
			"bytes_sent":    0,
			"session_state": constant.SessionStateInit,
			"ctime":         now,
			"mtime":         now,
		},
	}
	sql, args, err := builder.BuildInsert(d.table(), data)
	if err != nil {
		return nil, err
	}
	rs, err := d.dbc.ExecContext(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	id, err := rs.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &entity.CreateSessionResponse{
		Id: uint64(id),
	}, nil
}

func (d *uploadSessionDaoImpl) GetSession(ctx context.Context, req *entity.GetSessionRequest) (*entity.GetSessionResponse, error) {
	where := map[string]interface{}{
		"fingerprint": req.Fingerprint,
	}
	rs := make([]*entity.UploadSessionItem, 0, 1)
	if err := dbkit.SimpleQuery(ctx, d.dbc, d.table(), where, &rs, dbkit.ScanWithTagName("json")); err != nil {
		return nil, err
	}
	rsp := &entity.GetSessionResponse{}
	if len(rs) > 0 {
		rsp.Item = rs[0]
	}
	return rsp, nil
}

func (d *uploadSessionDaoImpl) SaveSessionProgress(ctx context.Context, req *entity.SaveSessionProgressRequest) (*entity.SaveSessionProgressResponse, error) {
	where := map[string]interface{}{
		"fingerprint": req.Fingerprint,
	}
	update := map[string]interface{}{
		"bytes_sent":    req.BytesSent,
		"session_state": req.SessionState,
		"mtime":         time.Now().UnixMilli(),
	}
	sql, args, err := builder.BuildUpdate(d.table(), where, update)
	if err != nil {
		return nil, err
	}
	if _, err := d.dbc.ExecContext(ctx, sql, args...); err != nil {
		return nil, err
	}
	return &entity.SaveSessionProgressResponse{}, nil
}

func (d *uploadSessionDaoImpl) DeleteSession(ctx context.Context, req *entity.DeleteSessionRequest) (*entity.DeleteSessionResponse, error) {
	if len(req.Fingerprint) == 0 {
		return &entity.DeleteSessionResponse{}, nil
	}
	where := map[string]interface{}{
		"fingerprint in": req.Fingerprint,
	}
	sql, args, err := builder.BuildDelete(d.table(), where)
	if err != nil {
		return nil, err
	}
	if _, err := d.dbc.ExecContext(ctx, sql, args...); err != nil {
		return nil, err
	}
	return &entity.DeleteSessionResponse{}, nil
}

func (d *uploadSessionDaoImpl) ScanSession(ctx context.Context, batch int64, cb ScanSessionCallbackFunc) error {
	var lastid uint64
	for {
		res, nextid, err := d.innerScan(ctx, lastid, batch)
		if err != nil {
			return err
		}
		next, err := cb(ctx, res)
		if err != nil {
			return err
		}
		if !next {
			break
		}
		lastid = nextid
		if len(res) < int(batch) {
			break
		}
	}
	return nil
}

func (d *uploadSessionDaoImpl) innerScan(ctx context.Context, lastid uint64, limit int64) ([]*entity.UploadSessionItem, uint64, error) {
	where := map[string]interface{}{
		"id >":     lastid,
		"_orderby": "id asc",
		"_limit":   []uint{0, uint(limit)},
	}
	rs := make([]*entity.UploadSessionItem, 0, limit)
	if err := dbkit.SimpleQuery(ctx, d.dbc, d.table(), where, &rs, dbkit.ScanWithTagName("json")); err != nil {
		return nil, 0, err
	}
	var nextid uint64
	if len(rs) > 0 {
		nextid = rs[len(rs)-1].Id
	}
	return rs, nextid, nil
}
