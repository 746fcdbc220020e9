package download

import (
	"context"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/orca-models/orca/pkg/client"
	"github.com/orca-models/orca/pkg/logging"
)

// staleAfter is how long a part may go without writing before it is logged as stale. It is a diagnostic only.
const staleAfter = 30 * time.Second

// Request describes one blob to download.
type Request struct {
	URL  string
	Dest string

	// ExpectedSize, when positive, is cross-checked against the probed size. The probe wins on mismatch.
	ExpectedSize int64
}

// Coordinator runs a download through probing, planning, allocating and fetching, and removes the output file if
// the fetch fails.
type Coordinator struct {
	Config   Config
	Probe    *SizeProbe
	Client   *http.Client
	Reporter Reporter

	sleep func(context.Context, time.Duration) error
	now   func() time.Time
}

// NewCoordinator builds a coordinator whose size probe retries at the transport level according to clientOpts, and
// whose range requests do not, since the part fetchers run their own resuming retry loop.
func NewCoordinator(cfg Config, clientOpts client.Options, reporter Reporter) *Coordinator {
	fetchOpts := clientOpts
	fetchOpts.MaxRetries = 0
	return &Coordinator{
		Config:   cfg,
		Probe:    &SizeProbe{Client: client.NewHTTPClient(clientOpts)},
		Client:   client.NewHTTPClient(fetchOpts),
		Reporter: reporter,
	}
}

// Download transfers req.URL into req.Dest. The returned job is nil if the size could not be determined.
func (c *Coordinator) Download(ctx context.Context, req Request) (*Job, error) {
	logger := logging.Component("coordinator").With().Str("url", req.URL).Str("dest", req.Dest).Logger()
	reporter := c.reporter()
	cfg := c.Config.withDefaults()

	logger.Debug().Msg("Probing")
	trueURL, totalSize, err := c.probe().Probe(ctx, req.URL)
	if err != nil {
		reporter.Finish(false, err)
		return nil, err
	}
	if req.ExpectedSize > 0 && req.ExpectedSize != totalSize {
		logger.Warn().
			Int64("expected_size", req.ExpectedSize).
			Int64("size", totalSize).
			Msg("Remote size differs from expected size, using remote size")
	}

	parts, err := PlanParts(totalSize, cfg)
	if err != nil {
		reporter.Finish(false, err)
		return nil, err
	}
	job := newJob(trueURL, req.Dest, totalSize, parts)
	logger.Info().
		Str("size", humanize.IBytes(uint64(totalSize))).
		Int("parts", len(parts)).
		Str("part_size", humanize.IBytes(uint64(parts[0].Size))).
		Msg("Downloading")

	if err := AllocateFile(req.Dest, totalSize); err != nil {
		reporter.Finish(false, err)
		return job, err
	}

	if err := c.fetch(ctx, job, cfg); err != nil {
		logger.Error().Err(err).Msg("Aborting")
		if removeErr := removeFile(job.OutputPath); removeErr != nil {
			logger.Warn().Err(removeErr).Msg("Failed to remove partial download")
		}
		reporter.Finish(false, err)
		return job, err
	}

	reporter.Finish(true, nil)
	return job, nil
}

// fetch starts one fetcher per part and polls progress until they all finish or the job fails. It only returns once
// every fetcher has stopped.
func (c *Coordinator) fetch(ctx context.Context, job *Job, cfg Config) error {
	logger := logging.Component("coordinator").With().Str("dest", job.OutputPath).Logger()
	reporter := c.reporter()

	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// the group context is cancelled by the first part to exhaust its retries
	g, groupCtx := errgroup.WithContext(fetchCtx)
	for _, part := range job.Parts {
		fetcher := c.newFetcher(job, part, cfg)
		g.Go(func() error {
			return fetcher.run(groupCtx)
		})
	}
	var waitErr error
	done := make(chan struct{})
	go func() {
		waitErr = g.Wait()
		close(done)
	}()

	aggregator := NewProgressAggregator(job)
	abort := func() error {
		cancel()
		<-done
		return &AggregateFailure{URL: job.SourceURL, Dest: job.OutputPath, Err: job.Failure()}
	}

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()
	stale := make(map[int]bool)
	for {
		select {
		case <-done:
			if err := ctx.Err(); err != nil {
				job.recordFailure(err)
			}
			snapshot := aggregator.Report(reporter)
			if waitErr != nil || snapshot.Failed {
				return &AggregateFailure{URL: job.SourceURL, Dest: job.OutputPath, Err: job.Failure()}
			}
			if snapshot.Completed != snapshot.Total {
				job.recordFailure(errIncompleteParts)
				return &AggregateFailure{URL: job.SourceURL, Dest: job.OutputPath, Err: job.Failure()}
			}
			return nil
		case <-ctx.Done():
			job.recordFailure(ctx.Err())
			return abort()
		case <-ticker.C:
			snapshot := aggregator.Report(reporter)
			if snapshot.Failed {
				return abort()
			}
			c.logStaleParts(logger, aggregator, stale)
		}
	}
}

func (c *Coordinator) logStaleParts(logger zerolog.Logger, aggregator *ProgressAggregator, reported map[int]bool) {
	current := make(map[int]bool)
	for _, part := range aggregator.StaleParts(c.clock()(), staleAfter) {
		current[part.Index] = true
		if !reported[part.Index] {
			logger.Debug().
				Int("part", part.Index).
				Int64("bytes_written", part.BytesWritten()).
				Int64("size", part.Size).
				Time("last_progress", part.LastProgress()).
				Msg("Part is stale")
		}
	}
	clear(reported)
	for index := range current {
		reported[index] = true
	}
}

func (c *Coordinator) newFetcher(job *Job, part *Part, cfg Config) *partFetcher {
	sleep := c.sleep
	if sleep == nil {
		sleep = sleepContext
	}
	return &partFetcher{
		job:    job,
		part:   part,
		client: c.httpClient(),
		cfg:    cfg,
		sleep:  sleep,
		now:    c.clock(),
		logger: logging.Component("fetcher").With().
			Int("part", part.Index).
			Int64("offset", part.Offset).
			Int64("size", part.Size).
			Logger(),
	}
}

func (c *Coordinator) probe() *SizeProbe {
	if c.Probe == nil {
		return &SizeProbe{Client: c.httpClient()}
	}
	return c.Probe
}

func (c *Coordinator) httpClient() *http.Client {
	if c.Client == nil {
		return http.DefaultClient
	}
	return c.Client
}

func (c *Coordinator) clock() func() time.Time {
	if c.now == nil {
		return time.Now
	}
	return c.now
}

func (c *Coordinator) reporter() Reporter {
	if c.Reporter == nil {
		return nopReporter{}
	}
	return c.Reporter
}
