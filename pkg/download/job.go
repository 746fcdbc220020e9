package download

import (
	"sync"
	"sync/atomic"
	"time"
)

// Job is one transfer of a blob into a local file.
type Job struct {
	SourceURL  string
	OutputPath string
	TotalSize  int64
	Parts      []*Part

	completed atomic.Int64

	failureMu sync.Mutex
	failure   error
}

func newJob(sourceURL, outputPath string, totalSize int64, parts []*Part) *Job {
	return &Job{
		SourceURL:  sourceURL,
		OutputPath: outputPath,
		TotalSize:  totalSize,
		Parts:      parts,
	}
}

// CompletedBytes is the number of bytes written across all parts.
func (j *Job) CompletedBytes() int64 {
	return j.completed.Load()
}

// Failure returns the first failure recorded on the job, if any.
func (j *Job) Failure() error {
	j.failureMu.Lock()
	defer j.failureMu.Unlock()
	return j.failure
}

func (j *Job) Failed() bool {
	return j.Failure() != nil
}

// recordFailure stores err if no failure has been recorded yet and reports whether it did. Later failures are
// dropped.
func (j *Job) recordFailure(err error) bool {
	j.failureMu.Lock()
	defer j.failureMu.Unlock()
	if j.failure != nil {
		return false
	}
	j.failure = err
	return true
}

func (j *Job) advance(part *Part, n int64, now time.Time) {
	part.advance(n, now)
	j.completed.Add(n)
}
