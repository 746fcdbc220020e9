package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/orca-models/orca/pkg/client"
	"github.com/orca-models/orca/pkg/config"
	"github.com/orca-models/orca/pkg/download"
	"github.com/orca-models/orca/pkg/logging"
	"github.com/orca-models/orca/pkg/optname"
)

// DownloadConfig reads the part planning and retry settings from the command line/environment.
func DownloadConfig() (download.Config, error) {
	minPartSize, err := humanize.ParseBytes(viper.GetString(optname.MinPartSize))
	if err != nil {
		return download.Config{}, fmt.Errorf("unable to parse %s: %w", optname.MinPartSize, err)
	}
	maxPartSize, err := humanize.ParseBytes(viper.GetString(optname.MaxPartSize))
	if err != nil {
		return download.Config{}, fmt.Errorf("unable to parse %s: %w", optname.MaxPartSize, err)
	}
	if maxPartSize < minPartSize {
		return download.Config{}, fmt.Errorf("%s (%s) is smaller than %s (%s)", optname.MaxPartSize,
			humanize.IBytes(maxPartSize), optname.MinPartSize, humanize.IBytes(minPartSize))
	}
	retries := viper.GetInt(optname.Retries)
	if retries < 0 {
		return download.Config{}, fmt.Errorf("%s must not be negative", optname.Retries)
	}

	cfg := download.DefaultConfig()
	cfg.NumPartsTarget = viper.GetInt(optname.Parts)
	cfg.MinPartSize = int64(minPartSize)
	cfg.MaxPartSize = int64(maxPartSize)
	cfg.MaxRetries = retries
	cfg.PollInterval = viper.GetDuration(optname.PollInterval)
	return cfg, nil
}

// ClientOptions reads the HTTP client settings from the command line/environment.
func ClientOptions() (client.Options, error) {
	resolveOverrides, err := config.ResolveOverridesToMap(viper.GetStringSlice(optname.Resolve))
	if err != nil {
		return client.Options{}, err
	}
	return client.Options{
		ForceHTTP2:       viper.GetBool(optname.ForceHTTP2),
		MaxRetries:       viper.GetInt(optname.ProbeRetries),
		ConnectTimeout:   viper.GetDuration(optname.ConnTimeout),
		ResolveOverrides: resolveOverrides,
	}, nil
}

// NewCoordinator builds a download coordinator from the command line/environment.
func NewCoordinator() (*download.Coordinator, error) {
	cfg, err := DownloadConfig()
	if err != nil {
		return nil, err
	}
	clientOpts, err := ClientOptions()
	if err != nil {
		return nil, err
	}
	reporter, err := NewReporter(viper.GetString(optname.Progress), 0)
	if err != nil {
		return nil, err
	}
	logger := logging.GetLogger()
	logger.Debug().
		Int("parts", cfg.NumPartsTarget).
		Str("min_part_size", humanize.IBytes(uint64(cfg.MinPartSize))).
		Str("max_part_size", humanize.IBytes(uint64(cfg.MaxPartSize))).
		Int("retries", cfg.MaxRetries).
		Msg("Config")
	return download.NewCoordinator(cfg, clientOpts, reporter), nil
}

// WithPIDFile runs fn while holding the --pid-file lock, if one is configured.
func WithPIDFile(fn func() error) error {
	path := viper.GetString(optname.PIDFile)
	if path == "" {
		return fn()
	}
	pidFile, err := NewPIDFile(path)
	if err != nil {
		return fmt.Errorf("error opening pid file %s: %w", path, err)
	}
	if err := pidFile.Acquire(); err != nil {
		return fmt.Errorf("error acquiring pid file %s: %w", path, err)
	}
	defer func() {
		if err := pidFile.Release(); err != nil {
			logger := logging.GetLogger()
			logger.Warn().Err(err).Str("path", path).Msg("Error releasing pid file")
		}
	}()
	return fn()
}
