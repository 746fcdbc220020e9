package download

import "time"

// Reporter receives progress for a job. Progress is called on every poll tick and Finish exactly once when the job
// ends; rendering is left entirely to the implementation.
type Reporter interface {
	Progress(completed, total int64)
	Finish(success bool, err error)
}

type nopReporter struct{}

func (nopReporter) Progress(int64, int64) {}
func (nopReporter) Finish(bool, error)    {}

// Snapshot is a point-in-time view of a job.
type Snapshot struct {
	Completed int64
	Total     int64
	Failed    bool
}

// ProgressAggregator is a read-only view over a job's shared counters.
type ProgressAggregator struct {
	job  *Job
	last int64
}

func NewProgressAggregator(job *Job) *ProgressAggregator {
	return &ProgressAggregator{job: job}
}

// Snapshot samples the job. Completed never decreases between successive calls.
func (a *ProgressAggregator) Snapshot() Snapshot {
	completed := a.job.CompletedBytes()
	if completed < a.last {
		completed = a.last
	}
	a.last = completed
	return Snapshot{
		Completed: completed,
		Total:     a.job.TotalSize,
		Failed:    a.job.Failed(),
	}
}

// Report samples the job and hands the sample to r.
func (a *ProgressAggregator) Report(r Reporter) Snapshot {
	snapshot := a.Snapshot()
	r.Progress(snapshot.Completed, snapshot.Total)
	return snapshot
}

// StaleParts returns the unfinished, started parts that have not written anything for longer than idle.
func (a *ProgressAggregator) StaleParts(now time.Time, idle time.Duration) []*Part {
	var stale []*Part
	for _, part := range a.job.Parts {
		last := part.LastProgress()
		if part.Done() || last.IsZero() {
			continue
		}
		if now.Sub(last) > idle {
			stale = append(stale, part)
		}
	}
	return stale
}
