package uploader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/emustore/gsup/client"
	"github.com/emustore/gsup/client/model"
	"github.com/emustore/gsup/constant"
	"github.com/emustore/gsup/entity"
	"github.com/emustore/gsup/utils"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/retry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Uploader moves local files into the storage emulator. Small files go
// through the one-shot media/multipart path, everything above the threshold
// through a resumable session with strictly sequential chunk dispatch.
type Uploader struct {
	c *config
}

func New(opts ...Option) (*Uploader, error) {
	c := &config{
		ChunkSize:          DefaultChunkSize,
		ResumableThreshold: DefaultResumableThreshold,
		Thread:             4,
		RetryCount:         3,
		RetryInterval:      2 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.Client == nil {
		return nil, fmt.Errorf("no api client found")
	}
	if c.ChunkSize <= 0 {
		return nil, fmt.Errorf("invalid chunk size:%d", c.ChunkSize)
	}
	if c.Thread <= 0 {
		c.Thread = 1
	}
	return &Uploader{c: c}, nil
}

// UploadFile transfers src to bucket/object. An empty object name falls back
// to the source file's base name. onProgress fires synchronously after every
// acknowledged chunk, before the next one is sent.
func (u *Uploader) UploadFile(ctx context.Context, src, bucket, object string, onProgress ProgressFunc) (*model.ObjectMeta, error) {
	if len(object) == 0 {
		object = filepath.Base(src)
	}
	if err := utils.ValidateBucketName(bucket); err != nil {
		return nil, fmt.Errorf("%w: %v", client.ErrValidation, err)
	}
	if err := utils.ValidateObjectName(object); err != nil {
		return nil, fmt.Errorf("%w: %v", client.ErrValidation, err)
	}
	fi, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("stat source file failed, err:%w", err)
	}
	if u.c.SkipExisting {
		if meta, err := u.c.Client.StatObject(ctx, bucket, object, 0); err == nil && meta.Size == fi.Size() {
			logutil.GetLogger(ctx).Debug("object already exists, skip upload",
				zap.String("bucket", bucket), zap.String("object", object), zap.Int64("size", meta.Size))
			return meta, nil
		}
	}
	contentType := utils.DetermineMimeType(src)
	if fi.Size() <= u.c.ResumableThreshold {
		return u.uploadSimple(ctx, src, bucket, object, contentType, fi.Size(), onProgress)
	}
	return u.uploadResumable(ctx, src, bucket, object, contentType, fi, onProgress)
}

// UploadMany uploads files concurrently, at most Thread at a time. Objects
// are named after the source base names. Chunks within one file stay strictly
// sequential, the files share no upload state.
func (u *Uploader) UploadMany(ctx context.Context, srcs []string, bucket string, onProgress func(src string, p UploadProgress)) (map[string]*model.ObjectMeta, error) {
	var lck sync.Mutex
	rs := make(map[string]*model.ObjectMeta, len(srcs))
	eg, subctx := errgroup.WithContext(ctx)
	eg.SetLimit(u.c.Thread)
	for _, src := range srcs {
		src := src
		eg.Go(func() error {
			var fn ProgressFunc
			if onProgress != nil {
				fn = func(p UploadProgress) {
					onProgress(src, p)
				}
			}
			meta, err := u.UploadFile(subctx, src, bucket, "", fn)
			if err != nil {
				return fmt.Errorf("upload %s failed, err:%w", src, err)
			}
			lck.Lock()
			rs[src] = meta
			lck.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return rs, err
	}
	return rs, nil
}

func (u *Uploader) uploadSimple(ctx context.Context, src, bucket, object, contentType string, size int64, onProgress ProgressFunc) (*model.ObjectMeta, error) {
	f, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("open source file failed, err:%w", err)
	}
	defer f.Close()
	var meta *model.ObjectMeta
	if len(u.c.Metadata) > 0 {
		meta, err = u.c.Client.MultipartUpload(ctx, bucket, object, contentType, u.c.Metadata, f)
	} else {
		meta, err = u.c.Client.MediaUpload(ctx, bucket, object, contentType, f)
	}
	if err != nil {
		return nil, err
	}
	tracker := newProgressTracker(size, 0, onProgress)
	tracker.advance(size)
	return meta, nil
}

// resumeState carries the session to drive plus the offset the server has
// already acknowledged. done is set when the session turned out to be
// finished before any chunk was sent.
type resumeState struct {
	sess   *model.UploadSession
	offset int64
	done   *model.ObjectMeta
}

func (u *Uploader) uploadResumable(ctx context.Context, src, bucket, object, contentType string, fi os.FileInfo, onProgress ProgressFunc) (*model.ObjectMeta, error) {
	total := fi.Size()
	fp := utils.FileFingerprint(src, bucket, object, total, fi.ModTime().UnixMilli())
	rs, err := u.prepareSession(ctx, fp, bucket, object, contentType, total)
	if err != nil {
		return nil, err
	}
	if rs.done != nil {
		logutil.GetLogger(ctx).Info("session already completed on server",
			zap.String("bucket", bucket), zap.String("object", object))
		return rs.done, nil
	}
	meta, err := u.runChunks(ctx, src, fp, rs, total, onProgress)
	if err != nil {
		return nil, err
	}
	return meta, nil
}

func (u *Uploader) prepareSession(ctx context.Context, fp, bucket, object, contentType string, total int64) (*resumeState, error) {
	if rs := u.tryRestoreSession(ctx, fp, total); rs != nil {
		return rs, nil
	}
	sess, err := u.c.Client.InitiateResumable(ctx, bucket, object, contentType, total)
	if err != nil {
		return nil, err
	}
	if u.c.SessionDao != nil {
		if _, err := u.c.SessionDao.CreateSession(ctx, &entity.CreateSessionRequest{
			Fingerprint: fp,
			TaskId:      uuid.NewString(),
			Bucket:      bucket,
			ObjectName:  object,
			SessionId:   sess.SessionId,
			Location:    sess.Location,
			TotalSize:   total,
			ChunkSize:   u.c.ChunkSize,
			ContentType: contentType,
		}); err != nil {
			logutil.GetLogger(ctx).Error("persist session failed, continue without resume support", zap.Error(err))
		}
	}
	return &resumeState{sess: sess}, nil
}

// tryRestoreSession looks for a durable record of an earlier run against the
// same source file and asks the server how far it got. Any mismatch or query
// failure drops the record and falls back to a fresh session.
func (u *Uploader) tryRestoreSession(ctx context.Context, fp string, total int64) *resumeState {
	if u.c.SessionDao == nil {
		return nil
	}
	rsp, err := u.c.SessionDao.GetSession(ctx, &entity.GetSessionRequest{Fingerprint: fp})
	if err != nil {
		logutil.GetLogger(ctx).Error("load persisted session failed", zap.Error(err), zap.String("fingerprint", fp))
		return nil
	}
	item := rsp.Item
	if item == nil {
		return nil
	}
	if item.TotalSize != total {
		u.dropSession(ctx, fp)
		return nil
	}
	st, err := u.c.Client.QueryUploadStatus(ctx, item.Location, total)
	if err != nil {
		logutil.GetLogger(ctx).Info("query session status failed, drop stale session",
			zap.Error(err), zap.String("session_id", item.SessionId))
		u.dropSession(ctx, fp)
		return nil
	}
	if st.Complete {
		u.dropSession(ctx, fp)
		return &resumeState{done: st.Object}
	}
	logutil.GetLogger(ctx).Info("resume persisted session",
		zap.String("session_id", item.SessionId),
		zap.String("received", humanize.IBytes(uint64(st.BytesReceived))),
		zap.String("total", humanize.IBytes(uint64(total))))
	return &resumeState{
		sess: &model.UploadSession{
			SessionId:   item.SessionId,
			Location:    item.Location,
			TotalSize:   item.TotalSize,
			ContentType: item.ContentType,
		},
		offset: st.BytesReceived,
	}
}

func (u *Uploader) dropSession(ctx context.Context, fp string) {
	if u.c.SessionDao == nil {
		return
	}
	if _, err := u.c.SessionDao.DeleteSession(ctx, &entity.DeleteSessionRequest{Fingerprint: []string{fp}}); err != nil {
		logutil.GetLogger(ctx).Error("delete persisted session failed", zap.Error(err), zap.String("fingerprint", fp))
	}
}

func (u *Uploader) runChunks(ctx context.Context, src, fp string, rs *resumeState, total int64, onProgress ProgressFunc) (*model.ObjectMeta, error) {
	f, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("open source file failed, err:%w", err)
	}
	defer f.Close()
	state := TaskStateSessionInitiated
	tracker := newProgressTracker(total, rs.offset, onProgress)
	offset := rs.offset
	for {
		state = TaskStateUploading
		ck := nextChunk(offset, total, u.c.ChunkSize)
		res, err := u.sendChunk(ctx, f, rs.sess, ck, total)
		if err != nil {
			state = TaskStateFailed
			u.saveProgress(ctx, fp, offset)
			logutil.GetLogger(ctx).Error("upload aborted",
				zap.Error(err), zap.String("state", state.String()), zap.Int64("offset", offset))
			return nil, err
		}
		offset = ck.Offset + ck.Length
		u.saveProgress(ctx, fp, offset)
		tracker.advance(ck.Length)
		if res.Complete {
			state = TaskStateCompleted
			u.dropSession(ctx, fp)
			logutil.GetLogger(ctx).Debug("upload finished",
				zap.String("state", state.String()), zap.String("size", humanize.IBytes(uint64(total))))
			return res.Object, nil
		}
		if ck.IsFinal {
			return nil, fmt.Errorf("%w: server still incomplete after final chunk", client.ErrChunkUpload)
		}
	}
}

func (u *Uploader) saveProgress(ctx context.Context, fp string, bytesSent int64) {
	if u.c.SessionDao == nil {
		return
	}
	if _, err := u.c.SessionDao.SaveSessionProgress(ctx, &entity.SaveSessionProgressRequest{
		Fingerprint:  fp,
		BytesSent:    bytesSent,
		SessionState: constant.SessionStateUploading,
	}); err != nil {
		logutil.GetLogger(ctx).Error("save session progress failed", zap.Error(err), zap.String("fingerprint", fp))
	}
}

func (u *Uploader) sendChunk(ctx context.Context, f *os.File, sess *model.UploadSession, ck ChunkDescriptor, total int64) (*client.ChunkResult, error) {
	var res *client.ChunkResult
	start := time.Now()
	if err := retry.RetryDo(ctx, uint32(u.c.RetryCount), u.c.RetryInterval, func(ctx context.Context) error {
		if _, err := f.Seek(ck.Offset, io.SeekStart); err != nil {
			return err
		}
		rs, err := u.c.Client.UploadChunk(ctx, sess.Location, ck.Offset, ck.Length, total, io.LimitReader(f, ck.Length))
		if err != nil {
			logutil.GetLogger(ctx).Error("upload chunk failed, wait retry", zap.Error(err), zap.Int64("offset", ck.Offset))
			return err
		}
		res = rs
		return nil
	}); err != nil {
		return nil, err
	}
	cost := time.Since(start)
	speed := "-"
	if cost > time.Millisecond {
		speed = humanize.IBytes(uint64(float64(ck.Length)*1000/float64(int64(cost/time.Millisecond)))) + "/s"
	}
	logutil.GetLogger(ctx).Debug("chunk acked", zap.Int64("offset", ck.Offset), zap.Int64("length", ck.Length),
		zap.Duration("cost", cost), zap.String("speed", speed))
	return res, nil
}

// Abort cancels the persisted session for src (if any) on the server and
// drops the local record.
func (u *Uploader) Abort(ctx context.Context, src, bucket, object string) error {
	if u.c.SessionDao == nil {
		return fmt.Errorf("no session store configured")
	}
	if len(object) == 0 {
		object = filepath.Base(src)
	}
	fi, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source file failed, err:%w", err)
	}
	fp := utils.FileFingerprint(src, bucket, object, fi.Size(), fi.ModTime().UnixMilli())
	rsp, err := u.c.SessionDao.GetSession(ctx, &entity.GetSessionRequest{Fingerprint: fp})
	if err != nil {
		return err
	}
	if rsp.Item == nil {
		return fmt.Errorf("%w: no session for %s", client.ErrNotFound, src)
	}
	if err := u.c.Client.AbortUpload(ctx, rsp.Item.Location); err != nil {
		return err
	}
	u.dropSession(ctx, fp)
	return nil
}

// CleanSessions aborts every persisted session on the server and clears the
// local store. Returns the number of sessions removed.
func (u *Uploader) CleanSessions(ctx context.Context) (int, error) {
	if u.c.SessionDao == nil {
		return 0, fmt.Errorf("no session store configured")
	}
	fps := make([]string, 0, 16)
	err := u.c.SessionDao.ScanSession(ctx, 100, func(ctx context.Context, res []*entity.UploadSessionItem) (bool, error) {
		for _, item := range res {
			if err := u.c.Client.AbortUpload(ctx, item.Location); err != nil && !errors.Is(err, client.ErrNetwork) {
				return false, err
			}
			fps = append(fps, item.Fingerprint)
		}
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	if len(fps) > 0 {
		if _, err := u.c.SessionDao.DeleteSession(ctx, &entity.DeleteSessionRequest{Fingerprint: fps}); err != nil {
			return 0, err
		}
	}
	return len(fps), nil
}
