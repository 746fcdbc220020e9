package download

import (
	"sync/atomic"
	"time"
)

// Part is one contiguous byte range of the blob. Its progress fields are written only by the fetcher that owns it and
// are read atomically by the coordinator.
type Part struct {
	Index  int
	Offset int64
	Size   int64

	written      atomic.Int64
	lastProgress atomic.Int64 // unix nanoseconds
}

func newPart(index int, offset, size int64) *Part {
	return &Part{Index: index, Offset: offset, Size: size}
}

// End is the inclusive offset of the last byte of the part.
func (p *Part) End() int64 {
	return p.Offset + p.Size - 1
}

func (p *Part) BytesWritten() int64 {
	return p.written.Load()
}

func (p *Part) Remaining() int64 {
	return p.Size - p.written.Load()
}

func (p *Part) Done() bool {
	return p.Remaining() == 0
}

// LastProgress is the time of the most recent successful write, or of the first attempt if nothing has been written
// yet. It is the zero time before the part has started.
func (p *Part) LastProgress() time.Time {
	ns := p.lastProgress.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

func (p *Part) touch(now time.Time) {
	p.lastProgress.Store(now.UnixNano())
}

func (p *Part) advance(n int64, now time.Time) {
	p.written.Add(n)
	p.touch(now)
}
