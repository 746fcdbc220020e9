package download

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"

	"github.com/orca-models/orca/pkg/logging"
)

var contentRangeRegexp = regexp.MustCompile(`^bytes ([0-9]+)-([0-9]+)/([0-9]+|\*)$`)

// SizeProbe resolves the length of a remote resource with a HEAD request. When HEAD fails or reports no length, the
// origin is asked for its first byte instead and the length is taken from the Content-Range total.
type SizeProbe struct {
	Client *http.Client
}

// Probe returns the URL the request finally landed on after redirects, and the size of the resource. Any failure is
// a *SizeUnknownError.
func (p *SizeProbe) Probe(ctx context.Context, url string) (string, int64, error) {
	logger := logging.Component("probe")

	trueURL, size, err := p.head(ctx, url)
	if (err != nil || size <= 0) && ctx.Err() == nil {
		// some origins, e.g. presigned object store URLs, reject HEAD
		logger.Debug().Err(err).Str("url", url).Msg("HEAD did not report a size, requesting first byte")
		trueURL, size, err = p.firstByte(ctx, url)
	}
	if err != nil {
		return "", -1, &SizeUnknownError{URL: url, Err: err}
	}
	if size <= 0 {
		return "", -1, &SizeUnknownError{URL: url}
	}
	if trueURL != url {
		logger.Info().Str("url", url).Str("redirect_url", trueURL).Msg("Redirect")
	}
	return trueURL, size, nil
}

func (p *SizeProbe) head(ctx context.Context, url string) (string, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return "", -1, fmt.Errorf("failed to create request for %s: %w", url, err)
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return "", -1, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", -1, ErrUnexpectedHTTPStatus(resp.StatusCode)
	}
	return resp.Request.URL.String(), resp.ContentLength, nil
}

func (p *SizeProbe) firstByte(ctx context.Context, url string) (string, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", -1, fmt.Errorf("failed to create request for %s: %w", url, err)
	}
	req.Header.Set("Range", "bytes=0-0")
	resp, err := p.Client.Do(req)
	if err != nil {
		return "", -1, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusPartialContent {
		return "", -1, ErrUnexpectedHTTPStatus(resp.StatusCode)
	}
	_, _, total, err := parseContentRange(resp.Header.Get("Content-Range"))
	if err != nil {
		return "", -1, err
	}
	return resp.Request.URL.String(), total, nil
}

// parseContentRange parses a Content-Range header of the form "bytes start-end/total". total is -1 when the origin
// reports it as unknown.
func parseContentRange(header string) (start, end, total int64, err error) {
	if header == "" {
		return 0, 0, 0, errMissingRange
	}
	matches := contentRangeRegexp.FindStringSubmatch(header)
	if matches == nil {
		return 0, 0, 0, fmt.Errorf("%w: %s", errUnexpectedRange, header)
	}
	start, _ = strconv.ParseInt(matches[1], 10, 64)
	end, _ = strconv.ParseInt(matches[2], 10, 64)
	total = -1
	if matches[3] != "*" {
		total, _ = strconv.ParseInt(matches[3], 10, 64)
	}
	if end < start {
		return 0, 0, 0, fmt.Errorf("%w: %s", errUnexpectedRange, header)
	}
	return start, end, total, nil
}
