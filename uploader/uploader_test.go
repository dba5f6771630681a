package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emustore/gsup/client"
	"github.com/emustore/gsup/constant"
	"github.com/emustore/gsup/dao"
	"github.com/emustore/gsup/entity"
	"github.com/emustore/gsup/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmulator implements just enough of the resumable upload surface to
// drive the orchestrator: session init, status query, chunk PUT.
type fakeEmulator struct {
	lck         sync.Mutex
	total       int64
	received    int64
	chunkLens   []int64
	dataPuts    int
	failAtChunk int // 1-based data chunk index that always fails, 0 disables
	meta        map[string]interface{}
}

func newFakeEmulator(meta map[string]interface{}) *fakeEmulator {
	return &fakeEmulator{meta: meta}
}

func (f *fakeEmulator) writeMeta(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(f.meta)
}

func (f *fakeEmulator) writeIncomplete(w http.ResponseWriter) {
	if f.received > 0 {
		w.Header().Set("Range", fmt.Sprintf("bytes=0-%d", f.received-1))
	}
	w.WriteHeader(http.StatusPermanentRedirect)
}

func (f *fakeEmulator) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload/storage/v1/b/{bucket}/o", func(w http.ResponseWriter, r *http.Request) {
		f.lck.Lock()
		defer f.lck.Unlock()
		f.total, _ = strconv.ParseInt(r.Header.Get("X-Upload-Content-Length"), 10, 64)
		w.Header().Set("Location", "/upload/resumable/sess-1")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"sessionId": "sess-1",
			"location":  "/upload/resumable/sess-1",
		})
	})
	mux.HandleFunc("PUT /upload/resumable/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.lck.Lock()
		defer f.lck.Unlock()
		cr := r.Header.Get("Content-Range")
		if strings.HasPrefix(cr, "bytes */") {
			total, _ := strconv.ParseInt(strings.TrimPrefix(cr, "bytes */"), 10, 64)
			if total == 0 || f.received == total {
				f.received = total
				f.writeMeta(w)
				return
			}
			f.writeIncomplete(w)
			return
		}
		var first, last, total int64
		if _, err := fmt.Sscanf(cr, "bytes %d-%d/%d", &first, &last, &total); err != nil {
			http.Error(w, "bad content range", http.StatusBadRequest)
			return
		}
		f.dataPuts++
		if f.failAtChunk > 0 && f.dataPuts >= f.failAtChunk {
			http.Error(w, `{"error":{"code":500,"message":"backend exploded"}}`, http.StatusInternalServerError)
			return
		}
		if first != f.received {
			http.Error(w, "non contiguous range", http.StatusBadRequest)
			return
		}
		raw, _ := io.ReadAll(r.Body)
		if int64(len(raw)) != last-first+1 {
			http.Error(w, "body size mismatch", http.StatusBadRequest)
			return
		}
		f.received = last + 1
		f.chunkLens = append(f.chunkLens, last-first+1)
		if f.received == total {
			f.writeMeta(w)
			return
		}
		f.writeIncomplete(w)
	})
	return mux
}

// memSessionDao is an in-memory stand-in for the sqlite-backed store.
type memSessionDao struct {
	lck   sync.Mutex
	items map[string]*entity.UploadSessionItem
}

func newMemSessionDao() *memSessionDao {
	return &memSessionDao{items: map[string]*entity.UploadSessionItem{}}
}

func (d *memSessionDao) CreateSession(ctx context.Context, req *entity.CreateSessionRequest) (*entity.CreateSessionResponse, error) {
	d.lck.Lock()
	defer d.lck.Unlock()
	d.items[req.Fingerprint] = &entity.UploadSessionItem{
		Id:           uint64(len(d.items) + 1),
		Fingerprint:  req.Fingerprint,
		TaskId:       req.TaskId,
		Bucket:       req.Bucket,
		ObjectName:   req.ObjectName,
		SessionId:    req.SessionId,
		Location:     req.Location,
		TotalSize:    req.TotalSize,
		ChunkSize:    req.ChunkSize,
		ContentType:  req.ContentType,
		SessionState: constant.SessionStateInit,
	}
	return &entity.CreateSessionResponse{Id: 1}, nil
}

func (d *memSessionDao) GetSession(ctx context.Context, req *entity.GetSessionRequest) (*entity.GetSessionResponse, error) {
	d.lck.Lock()
	defer d.lck.Unlock()
	return &entity.GetSessionResponse{Item: d.items[req.Fingerprint]}, nil
}

func (d *memSessionDao) SaveSessionProgress(ctx context.Context, req *entity.SaveSessionProgressRequest) (*entity.SaveSessionProgressResponse, error) {
	d.lck.Lock()
	defer d.lck.Unlock()
	if item, ok := d.items[req.Fingerprint]; ok {
		item.BytesSent = req.BytesSent
		item.SessionState = req.SessionState
	}
	return &entity.SaveSessionProgressResponse{}, nil
}

func (d *memSessionDao) DeleteSession(ctx context.Context, req *entity.DeleteSessionRequest) (*entity.DeleteSessionResponse, error) {
	d.lck.Lock()
	defer d.lck.Unlock()
	for _, fp := range req.Fingerprint {
		delete(d.items, fp)
	}
	return &entity.DeleteSessionResponse{}, nil
}

func (d *memSessionDao) ScanSession(ctx context.Context, batch int64, cb dao.ScanSessionCallbackFunc) error {
	d.lck.Lock()
	rs := make([]*entity.UploadSessionItem, 0, len(d.items))
	for _, item := range d.items {
		rs = append(rs, item)
	}
	d.lck.Unlock()
	_, err := cb(ctx, rs)
	return err
}

func newTestClient(t *testing.T, srv *httptest.Server) client.IClient {
	host := strings.TrimPrefix(srv.URL, "http://")
	cli, err := client.New(client.WithSchema("http"), client.WithHost(host))
	require.NoError(t, err)
	return cli
}

func writeTestFile(t *testing.T, size int) string {
	src := filepath.Join(t.TempDir(), "payload.bin")
	require.NoError(t, os.WriteFile(src, bytes.Repeat([]byte{0xa5}, size), 0644))
	return src
}

func defaultMeta(size int64) map[string]interface{} {
	return map[string]interface{}{
		"name":           "x",
		"bucket":         "demo",
		"size":           size,
		"generation":     3,
		"metageneration": 1,
	}
}

func TestUploadChunkSequence(t *testing.T) {
	ctx := context.Background()
	size := 300 * 1024
	emu := newFakeEmulator(defaultMeta(int64(size)))
	srv := httptest.NewServer(emu.handler())
	defer srv.Close()

	u, err := New(
		WithClient(newTestClient(t, srv)),
		WithResumableThreshold(1024),
		WithRetry(1, time.Millisecond),
	)
	require.NoError(t, err)

	var progress []UploadProgress
	meta, err := u.UploadFile(ctx, writeTestFile(t, size), "demo", "x", func(p UploadProgress) {
		progress = append(progress, p)
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{262144, 45056}, emu.chunkLens)
	assert.Equal(t, "x", meta.Name)
	assert.Equal(t, int64(size), meta.Size)
	assert.Equal(t, int64(3), meta.Generation)

	require.Len(t, progress, 2)
	last := -1
	for _, p := range progress {
		assert.GreaterOrEqual(t, p.Percentage, last)
		assert.LessOrEqual(t, p.BytesSent, p.TotalBytes)
		last = p.Percentage
	}
	assert.Equal(t, 100, progress[len(progress)-1].Percentage)
	assert.Equal(t, int64(size), progress[len(progress)-1].BytesSent)
}

func TestUploadZeroSize(t *testing.T) {
	ctx := context.Background()
	emu := newFakeEmulator(defaultMeta(0))
	srv := httptest.NewServer(emu.handler())
	defer srv.Close()

	u, err := New(
		WithClient(newTestClient(t, srv)),
		WithResumableThreshold(-1), // force every file through the resumable path
		WithRetry(1, time.Millisecond),
	)
	require.NoError(t, err)

	var progress []UploadProgress
	meta, err := u.UploadFile(ctx, writeTestFile(t, 0), "demo", "x", func(p UploadProgress) {
		progress = append(progress, p)
	})
	require.NoError(t, err)
	assert.Empty(t, emu.chunkLens) // no data-bearing chunk, only the finalize request
	assert.Equal(t, int64(0), meta.Size)
	require.Len(t, progress, 1)
	assert.Equal(t, 100, progress[0].Percentage)
	assert.Equal(t, int64(0), progress[0].BytesSent)
}

func TestUploadFailureStopsRun(t *testing.T) {
	ctx := context.Background()
	size := 600 * 1024 // three chunks
	emu := newFakeEmulator(defaultMeta(int64(size)))
	emu.failAtChunk = 2
	srv := httptest.NewServer(emu.handler())
	defer srv.Close()

	u, err := New(
		WithClient(newTestClient(t, srv)),
		WithResumableThreshold(1024),
		WithRetry(2, time.Millisecond),
	)
	require.NoError(t, err)

	var progress []UploadProgress
	_, err = u.UploadFile(ctx, writeTestFile(t, size), "demo", "x", func(p UploadProgress) {
		progress = append(progress, p)
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, client.ErrChunkUpload)
	// chunk 1 stays acknowledged server side, nothing after the failed chunk was sent
	assert.Equal(t, []int64{262144}, emu.chunkLens)
	assert.Equal(t, int64(262144), emu.received)
	assert.GreaterOrEqual(t, emu.dataPuts, 2) // first chunk plus the failed attempts
	require.Len(t, progress, 1)
	assert.Equal(t, int64(262144), progress[0].BytesSent)
}

func TestUploadResumeFromPersistedSession(t *testing.T) {
	ctx := context.Background()
	size := 300 * 1024
	emu := newFakeEmulator(defaultMeta(int64(size)))
	emu.total = int64(size)
	emu.received = 262144 // first chunk already acknowledged by the server
	srv := httptest.NewServer(emu.handler())
	defer srv.Close()

	src := writeTestFile(t, size)
	fi, err := os.Stat(src)
	require.NoError(t, err)
	fp := utils.FileFingerprint(src, "demo", "x", fi.Size(), fi.ModTime().UnixMilli())

	sdao := newMemSessionDao()
	_, err = sdao.CreateSession(ctx, &entity.CreateSessionRequest{
		Fingerprint: fp,
		TaskId:      "task-1",
		Bucket:      "demo",
		ObjectName:  "x",
		SessionId:   "sess-1",
		Location:    "/upload/resumable/sess-1",
		TotalSize:   int64(size),
		ChunkSize:   DefaultChunkSize,
	})
	require.NoError(t, err)

	u, err := New(
		WithClient(newTestClient(t, srv)),
		WithResumableThreshold(1024),
		WithSessionDao(sdao),
		WithRetry(1, time.Millisecond),
	)
	require.NoError(t, err)

	var progress []UploadProgress
	meta, err := u.UploadFile(ctx, src, "demo", "x", func(p UploadProgress) {
		progress = append(progress, p)
	})
	require.NoError(t, err)
	// only the tail chunk went over the wire
	assert.Equal(t, []int64{45056}, emu.chunkLens)
	assert.Equal(t, int64(size), meta.Size)
	require.Len(t, progress, 1)
	assert.Equal(t, 100, progress[0].Percentage)
	assert.Equal(t, int64(size), progress[0].BytesSent)
	// the record is gone once the transfer completed
	rsp, err := sdao.GetSession(ctx, &entity.GetSessionRequest{Fingerprint: fp})
	require.NoError(t, err)
	assert.Nil(t, rsp.Item)
}

func TestUploadSessionPersistedOnFailure(t *testing.T) {
	ctx := context.Background()
	size := 600 * 1024
	emu := newFakeEmulator(defaultMeta(int64(size)))
	emu.failAtChunk = 2
	srv := httptest.NewServer(emu.handler())
	defer srv.Close()

	src := writeTestFile(t, size)
	sdao := newMemSessionDao()
	u, err := New(
		WithClient(newTestClient(t, srv)),
		WithResumableThreshold(1024),
		WithSessionDao(sdao),
		WithRetry(1, time.Millisecond),
	)
	require.NoError(t, err)

	_, err = u.UploadFile(ctx, src, "demo", "x", nil)
	require.Error(t, err)

	fi, err := os.Stat(src)
	require.NoError(t, err)
	fp := utils.FileFingerprint(src, "demo", "x", fi.Size(), fi.ModTime().UnixMilli())
	rsp, err := sdao.GetSession(ctx, &entity.GetSessionRequest{Fingerprint: fp})
	require.NoError(t, err)
	require.NotNil(t, rsp.Item)
	assert.Equal(t, int64(262144), rsp.Item.BytesSent)
	assert.Equal(t, constant.SessionStateUploading, rsp.Item.SessionState)
}

func TestUploadSimplePath(t *testing.T) {
	ctx := context.Background()
	size := 4 * 1024
	var mediaPosts int
	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload/storage/v1/b/{bucket}/o", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "media", r.URL.Query().Get("uploadType"))
		raw, _ := io.ReadAll(r.Body)
		require.Len(t, raw, size)
		mediaPosts++
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(defaultMeta(int64(size)))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	u, err := New(WithClient(newTestClient(t, srv)))
	require.NoError(t, err)
	var progress []UploadProgress
	meta, err := u.UploadFile(ctx, writeTestFile(t, size), "demo", "x", func(p UploadProgress) {
		progress = append(progress, p)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, mediaPosts)
	assert.Equal(t, int64(size), meta.Size)
	require.Len(t, progress, 1)
	assert.Equal(t, 100, progress[0].Percentage)
}

func TestUploadRejectsBadNames(t *testing.T) {
	u, err := New(WithClient(fakeNeverCalledClient{}))
	require.NoError(t, err)
	_, err = u.UploadFile(context.Background(), "/tmp/whatever", "UPPER", "x", nil)
	assert.ErrorIs(t, err, client.ErrValidation)
	_, err = u.UploadFile(context.Background(), "/tmp/whatever", "demo", "..", nil)
	assert.ErrorIs(t, err, client.ErrValidation)
}

// fakeNeverCalledClient panics on any use, validation must reject first.
type fakeNeverCalledClient struct {
	client.IClient
}

func TestChunkPlanContiguous(t *testing.T) {
	chunkSize := int64(256 * 1024)
	for _, total := range []int64{0, 1, 1024, 262144, 262145, 300 * 1024, 1 << 20} {
		var offset int64
		var lens []int64
		for {
			ck := nextChunk(offset, total, chunkSize)
			assert.Equal(t, offset, ck.Offset)
			assert.LessOrEqual(t, ck.Length, chunkSize)
			lens = append(lens, ck.Length)
			offset = ck.Offset + ck.Length
			if ck.IsFinal {
				break
			}
		}
		assert.Equal(t, total, offset, "total:%d lens:%v", total, lens)
	}
}
