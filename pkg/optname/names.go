package optname

const (
	ConnTimeout  = "connect-timeout"
	Force        = "force"
	ForceHTTP2   = "force-http2"
	LoggingLevel = "log-level"
	MaxPartSize  = "max-part-size"
	MinPartSize  = "min-part-size"
	Parts        = "parts"
	PIDFile      = "pid-file"
	PollInterval = "poll-interval"
	ProbeRetries = "probe-retries"
	Progress     = "progress"
	Registry     = "registry"
	Resolve      = "resolve"
	Retries      = "retries"
	Verbose      = "verbose"
)
