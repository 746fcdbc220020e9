package download

import (
	"bytes"
	"context"
	"math/rand"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func randomContent(size int) []byte {
	content := make([]byte, size)
	rnd := rand.New(rand.NewSource(99))
	_, _ = rnd.Read(content)
	return content
}

func serveContent(content []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "", time.Time{}, bytes.NewReader(content))
	}
}

// rangeLog records the Range header of every GET an origin receives.
type rangeLog struct {
	mu     sync.Mutex
	ranges []string
}

func (l *rangeLog) record(r *http.Request) {
	if r.Method != http.MethodGet {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ranges = append(l.ranges, r.Header.Get("Range"))
}

func (l *rangeLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.ranges...)
}

func (l *rangeLog) startingAt(prefix string) int {
	count := 0
	for _, r := range l.all() {
		if strings.HasPrefix(r, prefix) {
			count++
		}
	}
	return count
}

// sleepRecorder replaces the backoff sleep so tests observe the schedule without waiting for it.
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

type finish struct {
	success bool
	err     error
}

type recordingReporter struct {
	mu       sync.Mutex
	progress []int64
	totals   []int64
	finishes []finish
}

func (r *recordingReporter) Progress(completed, total int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, completed)
	r.totals = append(r.totals, total)
}

func (r *recordingReporter) Finish(success bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finishes = append(r.finishes, finish{success: success, err: err})
}

func (r *recordingReporter) snapshot() ([]int64, []finish) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.progress...), append([]finish(nil), r.finishes...)
}

func tempDest(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "model.gguf")
}

func newAllocatedJob(t *testing.T, url string, size int64, cfg Config) *Job {
	t.Helper()
	dest := tempDest(t)
	require.NoError(t, AllocateFile(dest, size))
	parts, err := PlanParts(size, cfg)
	require.NoError(t, err)
	return newJob(url, dest, size, parts)
}
