package download

import (
	"time"

	"github.com/dustin/go-humanize"
)

const (
	defaultNumPartsTarget = 8
	defaultMinPartSize    = 100 * humanize.MiByte
	defaultMaxPartSize    = 1000 * humanize.MiByte
	defaultMaxRetries     = 6
	defaultBackoffBase    = 1 * time.Second
	defaultPollInterval   = 100 * time.Millisecond
	defaultBufferSize     = 32 * humanize.KiByte

	// maxBackoff caps the delay between attempts however many retries are configured.
	maxBackoff = 10 * time.Minute
)

// Config holds the tunables for a single download. Zero or negative fields are replaced by their defaults,
// except MaxRetries where zero means a part gets a single attempt.
type Config struct {
	// NumPartsTarget is the number of parts the planner aims for before clamping the part size.
	NumPartsTarget int

	// MinPartSize and MaxPartSize bound the size of every part except the last.
	MinPartSize int64
	MaxPartSize int64

	// MaxRetries is the number of retries a part gets after its first attempt fails.
	MaxRetries int

	// BackoffBase is the delay after the first failed attempt; it doubles after every further failure.
	BackoffBase time.Duration

	// PollInterval is how often the coordinator samples progress and checks for failure.
	PollInterval time.Duration

	// BufferSize is the size of the read buffer used when streaming a part body to disk.
	BufferSize int
}

func DefaultConfig() Config {
	return Config{
		NumPartsTarget: defaultNumPartsTarget,
		MinPartSize:    defaultMinPartSize,
		MaxPartSize:    defaultMaxPartSize,
		MaxRetries:     defaultMaxRetries,
		BackoffBase:    defaultBackoffBase,
		PollInterval:   defaultPollInterval,
		BufferSize:     defaultBufferSize,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.NumPartsTarget <= 0 {
		c.NumPartsTarget = defaults.NumPartsTarget
	}
	if c.MinPartSize <= 0 {
		c.MinPartSize = defaults.MinPartSize
	}
	if c.MaxPartSize <= 0 {
		c.MaxPartSize = defaults.MaxPartSize
	}
	if c.MaxPartSize < c.MinPartSize {
		c.MaxPartSize = c.MinPartSize
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = defaults.BackoffBase
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaults.PollInterval
	}
	if c.BufferSize <= 0 {
		c.BufferSize = defaults.BufferSize
	}
	return c
}

// backoff returns the delay after failed attempt i (0-indexed): BackoffBase * 2^i, capped at maxBackoff.
func (c Config) backoff(attempt int) time.Duration {
	delay := c.BackoffBase
	for i := 0; i < attempt; i++ {
		if delay >= maxBackoff {
			break
		}
		delay *= 2
	}
	return min(delay, maxBackoff)
}
