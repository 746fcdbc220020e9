package download

import (
	"errors"
	"fmt"
)

var (
	errPartTruncated    = errors.New("response ended before the part was complete")
	errMissingRange     = errors.New("missing Content-Range header")
	errUnexpectedRange  = errors.New("unexpected Content-Range")
	errIncompleteParts  = errors.New("parts finished without writing every byte")
	errInvalidTotalSize = errors.New("total size must be positive")
)

type HTTPStatusError struct {
	StatusCode int
}

func ErrUnexpectedHTTPStatus(statusCode int) error {
	return HTTPStatusError{StatusCode: statusCode}
}

var _ error = HTTPStatusError{}

func (c HTTPStatusError) Error() string {
	return fmt.Sprintf("status code %d", c.StatusCode)
}

// SizeUnknownError is returned when the origin does not report a usable content length. No parts are planned and no
// file is created.
type SizeUnknownError struct {
	URL string
	Err error
}

func (e *SizeUnknownError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unable to determine size of %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("unable to determine size of %s", e.URL)
}

func (e *SizeUnknownError) Unwrap() error { return e.Err }

// AllocationError is returned when the output file cannot be created at its final size.
type AllocationError struct {
	Path string
	Size int64
	Err  error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("unable to allocate %d bytes at %s: %v", e.Size, e.Path, e.Err)
}

func (e *AllocationError) Unwrap() error { return e.Err }

// PartDownloadError is recorded by a part fetcher once it has exhausted its retries.
type PartDownloadError struct {
	Index    int
	Attempts int
	Err      error
}

func (e *PartDownloadError) Error() string {
	return fmt.Sprintf("failed to download part %d after %d attempt(s): %v", e.Index, e.Attempts, e.Err)
}

func (e *PartDownloadError) Unwrap() error { return e.Err }

// AggregateFailure is the terminal error of a job that failed during the fetch phase. Err is the first failure
// recorded on the job.
type AggregateFailure struct {
	URL  string
	Dest string
	Err  error
}

func (e *AggregateFailure) Error() string {
	return fmt.Sprintf("download of %s to %s failed: %v", e.URL, e.Dest, e.Err)
}

func (e *AggregateFailure) Unwrap() error { return e.Err }
