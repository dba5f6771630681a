package uploader

// UploadProgress is the observable state handed to the caller after each
// acknowledged chunk. BytesSent never decreases and never exceeds TotalBytes.
type UploadProgress struct {
	BytesSent  int64
	TotalBytes int64
	Percentage int
}

type ProgressFunc func(p UploadProgress)

func percentage(sent, total int64) int {
	if total == 0 {
		return 100
	}
	return int(100 * sent / total)
}

type progressTracker struct {
	total int64
	sent  int64
	fn    ProgressFunc
}

func newProgressTracker(total, sent int64, fn ProgressFunc) *progressTracker {
	return &progressTracker{
		total: total,
		sent:  sent,
		fn:    fn,
	}
}

// advance records n more acknowledged bytes and fires the callback
// synchronously, before the caller dispatches the next chunk.
func (p *progressTracker) advance(n int64) {
	p.sent += n
	if p.fn == nil {
		return
	}
	p.fn(UploadProgress{
		BytesSent:  p.sent,
		TotalBytes: p.total,
		Percentage: percentage(p.sent, p.total),
	})
}
