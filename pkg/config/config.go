package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/orca-models/orca/pkg/logging"
	"github.com/orca-models/orca/pkg/optname"
)

const envPrefix = "ORCA"

func AddRootPersistentFlags(cmd *cobra.Command) error {
	// Persistent Flags (applies to all commands/subcommands)
	cmd.PersistentFlags().IntP(optname.Parts, "p", 8, "Target number of parts to split a download into")
	cmd.PersistentFlags().String(optname.MinPartSize, "100MiB", "Minimum size of a part (e.g. 100MiB)")
	cmd.PersistentFlags().String(optname.MaxPartSize, "1000MiB", "Maximum size of a part (e.g. 1000MiB)")
	cmd.PersistentFlags().IntP(optname.Retries, "r", 6, "Number of retries for a failing part, with exponential backoff starting at 1s")
	cmd.PersistentFlags().Int(optname.ProbeRetries, 3, "Number of retries for the initial size request")
	cmd.PersistentFlags().Duration(optname.ConnTimeout, 5*time.Second, "Timeout for establishing a connection, format is <number><unit>, e.g. 10s")
	cmd.PersistentFlags().Duration(optname.PollInterval, 100*time.Millisecond, "How often download progress is reported")
	cmd.PersistentFlags().BoolP(optname.Force, "f", false, "Force download, overwriting existing file")
	cmd.PersistentFlags().StringSlice(optname.Resolve, []string{}, "Resolve hostnames to specific IPs, format is <hostname>:<port>:<ip>")
	cmd.PersistentFlags().String(optname.Progress, "bar", "Progress output (bar, log, none)")
	cmd.PersistentFlags().String(optname.PIDFile, "", "Hold an exclusive lock on this file for the duration of the download")
	cmd.PersistentFlags().BoolP(optname.Verbose, "v", false, "Verbose mode (equivalent to --log-level debug)")
	cmd.PersistentFlags().String(optname.LoggingLevel, "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().Bool(optname.ForceHTTP2, false, "Force HTTP/2")

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.BindPFlags(cmd.PersistentFlags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	// Hidden flags are intended for testing/benchmarking only
	if err := cmd.PersistentFlags().MarkHidden(optname.ForceHTTP2); err != nil {
		return fmt.Errorf("failed to hide flag %s: %w", optname.ForceHTTP2, err)
	}
	return nil
}

func PersistentStartupProcessFlags() error {
	if viper.GetBool(optname.Verbose) {
		viper.Set(optname.LoggingLevel, "debug")
	}
	setLogLevel(viper.GetString(optname.LoggingLevel))
	return nil
}

func setLogLevel(logLevel string) {
	switch logLevel {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// ResolveOverridesToMap converts `--resolve` values of the form <hostname>:<port>:<ip> into a map of
// host:port -> ip:port suitable for overriding DNS in the dialer.
func ResolveOverridesToMap(resolveHosts []string) (map[string]string, error) {
	logger := logging.GetLogger()
	var resolveOverrides map[string]string

	for _, resolveHost := range resolveHosts {
		split := strings.SplitN(resolveHost, ":", 3)
		if len(split) != 3 {
			return nil, fmt.Errorf("invalid resolve host format, expected <hostname>:port:<ip>, got: %s", resolveHost)
		}
		host, port, addr := split[0], split[1], split[2]
		if net.ParseIP(host) != nil {
			return nil, fmt.Errorf("invalid hostname specified, looks like an IP address: %s", host)
		}
		if net.ParseIP(addr) == nil {
			return nil, fmt.Errorf("invalid IP address: %s", addr)
		}
		if resolveOverrides == nil {
			resolveOverrides = make(map[string]string)
		}
		hostPort := net.JoinHostPort(host, port)
		target := net.JoinHostPort(addr, port)
		if existing, ok := resolveOverrides[hostPort]; ok {
			if existing != target {
				return nil, fmt.Errorf("duplicate host:port specified: %s", hostPort)
			}
			continue
		}
		resolveOverrides[hostPort] = target
	}
	if logger.GetLevel() <= zerolog.DebugLevel {
		for key, elem := range resolveOverrides {
			logger.Debug().Str("host_port", key).Str("resolve_target", elem).Msg("Config")
		}
	}
	return resolveOverrides, nil
}
