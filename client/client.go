package client

import (
	"context"
	"io"

	"github.com/emustore/gsup/client/model"
)

// ChunkResult is the server's verdict on a single chunk PUT. Incomplete
// (http 308) means more chunks are expected; complete carries the final
// object metadata.
type ChunkResult struct {
	Complete      bool
	BytesReceived int64
	Object        *model.ObjectMeta
}

// UploadStatus is the answer to a session status query.
type UploadStatus struct {
	Complete      bool
	BytesReceived int64
	Object        *model.ObjectMeta
}

type IClient interface {
	// InitiateResumable opens a resumable upload session for the given
	// object. The returned session is immutable.
	InitiateResumable(ctx context.Context, bucket, object, contentType string, totalSize int64) (*model.UploadSession, error)
	// UploadChunk transmits the byte window [offset, offset+length) of a
	// total-byte upload. A zero total finalizes an empty object.
	UploadChunk(ctx context.Context, location string, offset, length, total int64, r io.Reader) (*ChunkResult, error)
	// QueryUploadStatus asks the server how many bytes of the session it has
	// already acknowledged.
	QueryUploadStatus(ctx context.Context, location string, total int64) (*UploadStatus, error)
	// AbortUpload discards a server-side session. Aborting an unknown or
	// already finished session is not an error.
	AbortUpload(ctx context.Context, location string) error

	MediaUpload(ctx context.Context, bucket, object, contentType string, r io.Reader) (*model.ObjectMeta, error)
	MultipartUpload(ctx context.Context, bucket, object, contentType string, metadata map[string]string, r io.Reader) (*model.ObjectMeta, error)

	StatObject(ctx context.Context, bucket, object string, generation int64) (*model.ObjectMeta, error)
	ListObjects(ctx context.Context, bucket, prefix string, versions bool) ([]*model.ObjectMeta, error)
	DeleteObject(ctx context.Context, bucket, object string, generation int64) error
	DownloadObject(ctx context.Context, bucket, object string, generation int64) (io.ReadCloser, error)
}
