package uploader

import (
	"time"

	"github.com/emustore/gsup/client"
	"github.com/emustore/gsup/dao"
)

const (
	DefaultChunkSize          = 256 * 1024
	DefaultResumableThreshold = 8 * 1024 * 1024
)

type config struct {
	Client             client.IClient
	ChunkSize          int64
	ResumableThreshold int64
	Thread             int
	SessionDao         dao.IUploadSessionDao
	Metadata           map[string]string
	SkipExisting       bool
	RetryCount         int
	RetryInterval      time.Duration
}

type Option func(*config)

func WithClient(cli client.IClient) Option {
	return func(c *config) {
		c.Client = cli
	}
}

func WithChunkSize(sz int64) Option {
	return func(c *config) {
		c.ChunkSize = sz
	}
}

func WithResumableThreshold(sz int64) Option {
	return func(c *config) {
		c.ResumableThreshold = sz
	}
}

func WithThread(t int) Option {
	return func(c *config) {
		c.Thread = t
	}
}

// WithSessionDao enables durable session records so a restarted process can
// resume from the last acknowledged offset.
func WithSessionDao(d dao.IUploadSessionDao) Option {
	return func(c *config) {
		c.SessionDao = d
	}
}

func WithMetadata(m map[string]string) Option {
	return func(c *config) {
		c.Metadata = m
	}
}

func WithSkipExisting(v bool) Option {
	return func(c *config) {
		c.SkipExisting = v
	}
}

func WithRetry(count int, interval time.Duration) Option {
	return func(c *config) {
		c.RetryCount = count
		c.RetryInterval = interval
	}
}
