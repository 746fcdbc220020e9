package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// partFetcher downloads a single part into the pre-allocated output file, resuming from the part's written bytes on
// every retry.
type partFetcher struct {
	job    *Job
	part   *Part
	client *http.Client
	cfg    Config
	sleep  func(context.Context, time.Duration) error
	now    func() time.Time
	logger zerolog.Logger
}

// run fetches the part until it is complete, the retries are exhausted, or ctx is cancelled. Exhaustion is recorded on
// the job and returned as a *PartDownloadError; completion and cancellation return nil.
func (f *partFetcher) run(ctx context.Context) error {
	f.part.touch(f.now())
	attempts := f.cfg.MaxRetries + 1

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if f.part.Done() {
			return nil
		}
		err := f.fetch(ctx)
		if err == nil {
			f.logger.Debug().Msg("Part complete")
			return nil
		}
		if ctx.Err() != nil {
			// the coordinator is aborting, it records the reason itself
			return nil
		}
		lastErr = err
		if attempt == attempts-1 {
			break
		}

		delay := f.cfg.backoff(attempt)
		f.logger.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Int("max_attempts", attempts).
			Int64("bytes_written", f.part.BytesWritten()).
			Dur("backoff", delay).
			Msg("Retrying part")
		if err := f.sleep(ctx, delay); err != nil {
			return nil
		}
	}

	partErr := &PartDownloadError{Index: f.part.Index, Attempts: attempts, Err: lastErr}
	if f.job.recordFailure(partErr) {
		f.logger.Error().Err(partErr).Msg("Part failed")
	} else {
		f.logger.Debug().Err(partErr).Msg("Part failed after job already failed")
	}
	return partErr
}

// fetch makes one ranged request for the part's remaining bytes and streams the body to the file.
func (f *partFetcher) fetch(ctx context.Context) error {
	start := f.part.Offset + f.part.BytesWritten()
	end := f.part.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.job.SourceURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", f.job.SourceURL, err)
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", start, end))

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("error executing request for %s: %w", f.job.SourceURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusPartialContent {
		return ErrUnexpectedHTTPStatus(resp.StatusCode)
	}
	rangeStart, _, _, err := parseContentRange(resp.Header.Get("Content-Range"))
	if err != nil {
		return err
	}
	if rangeStart != start {
		return fmt.Errorf("%w: requested offset %d, got %d", errUnexpectedRange, start, rangeStart)
	}

	// each fetcher writes through its own handle, at absolute offsets
	file, err := os.OpenFile(f.job.OutputPath, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("error opening %s: %w", f.job.OutputPath, err)
	}
	defer file.Close()

	remaining := end - start + 1
	body := io.LimitReader(resp.Body, remaining)
	buffer := make([]byte, f.cfg.BufferSize)
	offset := start
	for remaining > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, readErr := body.Read(buffer)
		if n > 0 {
			if _, err := file.WriteAt(buffer[:n], offset); err != nil {
				return fmt.Errorf("error writing to %s: %w", f.job.OutputPath, err)
			}
			offset += int64(n)
			remaining -= int64(n)
			f.job.advance(f.part, int64(n), f.now())
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("error reading response for %s: %w", f.job.SourceURL, readErr)
		}
	}
	if remaining > 0 {
		return fmt.Errorf("%w: %d bytes missing", errPartTruncated, remaining)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
