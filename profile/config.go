package profile

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// DefaultMemProfileRate is the heap sampling interval in bytes used when
// --mem-profile-rate is not given. It matches [runtime.MemProfileRate].
const DefaultMemProfileRate = 512 * 1024

// Flags names the command-line flags bound by [Config.RegisterFlags].
type Flags struct {
	CPUProfile     string
	HeapProfile    string
	Trace          string
	MemProfileRate string
}

// NewConfig returns a [Config] that registers flags under these names.
func (f Flags) NewConfig() *Config {
	return &Config{Flags: f}
}

// Config selects which profiles a conversion run records. Each output is
// written only when its path is non-empty, so the zero value records
// nothing.
type Config struct {
	Flags Flags

	CPUProfile  string
	HeapProfile string
	Trace       string

	MemProfileRate int
}

// NewConfig returns a [Config] using the --cpu-profile, --heap-profile,
// --trace and --mem-profile-rate flags.
func NewConfig() *Config {
	return Flags{
		CPUProfile:     "cpu-profile",
		HeapProfile:    "heap-profile",
		Trace:          "trace",
		MemProfileRate: "mem-profile-rate",
	}.NewConfig()
}

// RegisterFlags binds the profiling flags on flags.
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.StringVar(&c.CPUProfile, c.Flags.CPUProfile, "",
		"record a CPU profile of the conversion to this file")
	flags.StringVar(&c.HeapProfile, c.Flags.HeapProfile, "",
		"write a heap profile to this file when the run ends")
	flags.StringVar(&c.Trace, c.Flags.Trace, "",
		"record an execution trace, useful for inspecting frame pacing")
	flags.IntVar(&c.MemProfileRate, c.Flags.MemProfileRate, DefaultMemProfileRate,
		"bytes allocated between heap profile samples")
}

// RegisterCompletions disables file completion for the sampling rate. The
// path flags keep cobra's default file completion.
func (c *Config) RegisterCompletions(cmd *cobra.Command) error {
	err := cmd.RegisterFlagCompletionFunc(c.Flags.MemProfileRate, cobra.NoFileCompletions)
	if err != nil {
		return fmt.Errorf("registering %s completion: %w", c.Flags.MemProfileRate, err)
	}

	return nil
}

// Enabled reports whether any profile output is requested.
func (c *Config) Enabled() bool {
	return c.CPUProfile != "" || c.HeapProfile != "" || c.Trace != ""
}

// NewProfiler returns a [Profiler] for a copy of c.
func (c *Config) NewProfiler() *Profiler {
	return &Profiler{Config: *c}
}
