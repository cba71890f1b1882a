package cmd

// Options holds the shared command-line options for the broombot CLI.
type Options struct {
	ConfigPath string
	Output     string
	LogFormat  string
	Verbosity  int
	DryRun     bool

	// Interval overrides watch_interval for the watch command.
	Interval string

	// Profiling options
	CPUProfile string // Write CPU profile to file
	MemProfile string // Write memory profile to file
	Trace      string // Write execution trace to file
}

// Option is a functional option for configuring Options.
type Option func(*Options)

// NewOptions creates a new Options with defaults and applies any provided options.
func NewOptions(opts ...Option) *Options {
	o := &Options{
		Output:    "table",
		LogFormat: "text",
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithConfigPath reads configuration from a single file.
func WithConfigPath(path string) Option {
	return func(o *Options) {
		o.ConfigPath = path
	}
}

// WithOutput sets the report format (table, json).
func WithOutput(format string) Option {
	return func(o *Options) {
		o.Output = format
	}
}

// WithVerbosity sets the verbosity level.
func WithVerbosity(v int) Option {
	return func(o *Options) {
		o.Verbosity = v
	}
}

// WithDryRun reads real data but performs no writes.
func WithDryRun(dryRun bool) Option {
	return func(o *Options) {
		o.DryRun = dryRun
	}
}

// WithInterval sets the time between watch passes (e.g., "30m", "1h").
func WithInterval(interval string) Option {
	return func(o *Options) {
		o.Interval = interval
	}
}
