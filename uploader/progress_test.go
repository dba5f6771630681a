package uploader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0, percentage(0, 100))
	assert.Equal(t, 85, percentage(262144, 300*1024))
	assert.Equal(t, 100, percentage(300*1024, 300*1024))
	assert.Equal(t, 99, percentage(1023, 1024))
	assert.Equal(t, 100, percentage(0, 0))
}

func TestProgressTrackerMonotonic(t *testing.T) {
	var got []UploadProgress
	tr := newProgressTracker(1000, 0, func(p UploadProgress) {
		got = append(got, p)
	})
	for i := 0; i < 10; i++ {
		tr.advance(100)
	}
	assert.Len(t, got, 10)
	last := -1
	for _, p := range got {
		assert.GreaterOrEqual(t, p.Percentage, last)
		assert.LessOrEqual(t, p.BytesSent, p.TotalBytes)
		last = p.Percentage
	}
	assert.Equal(t, 100, got[len(got)-1].Percentage)
}

func TestProgressTrackerResumeOffset(t *testing.T) {
	var got []UploadProgress
	tr := newProgressTracker(1000, 600, func(p UploadProgress) {
		got = append(got, p)
	})
	tr.advance(400)
	assert.Len(t, got, 1)
	assert.Equal(t, int64(1000), got[0].BytesSent)
	assert.Equal(t, 100, got[0].Percentage)
}

func TestProgressTrackerNilCallback(t *testing.T) {
	tr := newProgressTracker(10, 0, nil)
	tr.advance(10) // must not panic
	assert.Equal(t, int64(10), tr.sent)
}
