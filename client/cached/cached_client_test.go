package cached

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/emustore/gsup/client"
	"github.com/emustore/gsup/client/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingClient struct {
	client.IClient
	statCalls int
}

func (c *countingClient) StatObject(ctx context.Context, bucket, object string, generation int64) (*model.ObjectMeta, error) {
	c.statCalls++
	return &model.ObjectMeta{
		Name:       object,
		Bucket:     bucket,
		Size:       128,
		Generation: 7,
	}, nil
}

func (c *countingClient) MediaUpload(ctx context.Context, bucket, object, contentType string, r io.Reader) (*model.ObjectMeta, error) {
	return &model.ObjectMeta{Name: object, Bucket: bucket}, nil
}

func (c *countingClient) DeleteObject(ctx context.Context, bucket, object string, generation int64) error {
	return nil
}

func TestStatObjectCached(t *testing.T) {
	ctx := context.Background()
	inner := &countingClient{}
	c, err := New(inner)
	require.NoError(t, err)

	meta, err := c.StatObject(ctx, "demo", "a.txt", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(128), meta.Size)
	assert.Equal(t, 1, inner.statCalls)

	_, err = c.StatObject(ctx, "demo", "a.txt", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.statCalls)

	// a different generation is a distinct cache entry
	_, err = c.StatObject(ctx, "demo", "a.txt", 7)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.statCalls)
}

func TestWriteInvalidatesLatest(t *testing.T) {
	ctx := context.Background()
	inner := &countingClient{}
	c, err := New(inner)
	require.NoError(t, err)

	_, err = c.StatObject(ctx, "demo", "a.txt", 0)
	require.NoError(t, err)
	_, err = c.MediaUpload(ctx, "demo", "a.txt", "text/plain", strings.NewReader("hello"))
	require.NoError(t, err)

	_, err = c.StatObject(ctx, "demo", "a.txt", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.statCalls)
}

func TestDeleteInvalidatesGeneration(t *testing.T) {
	ctx := context.Background()
	inner := &countingClient{}
	c, err := New(inner)
	require.NoError(t, err)

	_, err = c.StatObject(ctx, "demo", "a.txt", 7)
	require.NoError(t, err)
	require.NoError(t, c.DeleteObject(ctx, "demo", "a.txt", 7))

	_, err = c.StatObject(ctx, "demo", "a.txt", 7)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.statCalls)
}
