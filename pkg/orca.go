package orca

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/orca-models/orca/pkg/download"
	"github.com/orca-models/orca/pkg/logging"
	"github.com/orca-models/orca/pkg/registry"
)

var errNoResolver = errors.New("no registry resolver configured")

type Getter struct {
	Downloader *download.Coordinator
	Resolver   *registry.Resolver
}

// DownloadFile downloads url into dest and returns the size of the file and the time it took.
func (g *Getter) DownloadFile(ctx context.Context, url string, dest string) (int64, time.Duration, error) {
	return g.download(ctx, download.Request{URL: url, Dest: dest})
}

// ExportModel resolves ref on the registry and downloads its weights into dest.
func (g *Getter) ExportModel(ctx context.Context, ref registry.Reference, dest string) (int64, time.Duration, error) {
	if g.Resolver == nil {
		return 0, 0, errNoResolver
	}
	blob, err := g.Resolver.Resolve(ctx, ref)
	if err != nil {
		return 0, 0, err
	}
	logger := logging.GetLogger()
	logger.Info().
		Str("model", ref.String()).
		Str("size", humanize.IBytes(uint64(blob.Size))).
		Msg("Exporting")
	return g.download(ctx, download.Request{URL: blob.URL, Dest: dest, ExpectedSize: blob.Size})
}

func (g *Getter) download(ctx context.Context, req download.Request) (int64, time.Duration, error) {
	logger := logging.GetLogger()
	startTime := time.Now()
	job, err := g.Downloader.Download(ctx, req)
	if err != nil {
		return 0, 0, err
	}
	elapsed := time.Since(startTime)

	throughput := humanize.IBytes(uint64(float64(job.TotalSize) / elapsed.Seconds()))
	logger.Info().
		Str("dest", req.Dest).
		Str("size", humanize.IBytes(uint64(job.TotalSize))).
		Int("parts", len(job.Parts)).
		Str("throughput", fmt.Sprintf("%s/s", throughput)).
		Str("elapsed", fmt.Sprintf("%.3fs", elapsed.Seconds())).
		Msg("Complete")
	return job.TotalSize, elapsed, nil
}
