package delivery

import (
	"io"
	"sync"
)

// ProgressFunc receives upload progress as a percentage. Calls are
// serialized and strictly increasing; 100 is only reported once the remote
// API has accepted the file.
type ProgressFunc func(percent int)

// progress tracks bytes handed to the transport.
type progress struct {
	mu    sync.Mutex
	fn    ProgressFunc
	total int64
	sent  int64
	last  int
	done  bool
}

func newProgress(fn ProgressFunc, total int64) *progress {
	return &progress{fn: fn, total: total, last: -1}
}

func (p *progress) start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.emitLocked(0)
}

func (p *progress) advance(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.sent += int64(n)
	if p.total <= 0 {
		return
	}
	// 100 is reserved for a confirmed upload.
	p.emitLocked(int(min(p.sent*100/p.total, 99)))
}

// finish stops reporting. On success it emits 100.
func (p *progress) finish(ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if ok {
		p.emitLocked(100)
	}
	p.done = true
}

func (p *progress) emitLocked(percent int) {
	if p.fn == nil || p.done || percent <= p.last {
		return
	}
	p.last = percent
	p.fn(percent)
}

// progressReader reports every read to a progress tracker.
type progressReader struct {
	r io.Reader
	p *progress
}

func (r *progressReader) Read(b []byte) (int, error) {
	n, err := r.r.Read(b)
	if n > 0 {
		r.p.advance(n)
	}
	return n, err
}
