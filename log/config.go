package log

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Flags names the command-line flags bound by [Config.RegisterFlags].
type Flags struct {
	Level  string
	Format string
}

// NewConfig returns a [Config] that registers flags under these names.
func (f Flags) NewConfig() *Config {
	return &Config{Flags: f}
}

// Config is the logging section of the command line.
//
// Create instances with [NewConfig], bind them with [Config.RegisterFlags],
// and build the logger with [Config.NewLogger] once flags are parsed.
type Config struct {
	Flags  Flags
	Level  string
	Format string
}

// NewConfig returns a [Config] using the --log-level and --log-format flags.
func NewConfig() *Config {
	return Flags{Level: "log-level", Format: "log-format"}.NewConfig()
}

// RegisterFlags binds the level and format flags on flags. The defaults are
// info and text.
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.StringVar(&c.Level, c.Flags.Level, string(LevelInfo),
		fmt.Sprintf("minimum severity to log (%s); debug adds per-frame diagnostics", GetAllLevelStrings()))
	flags.StringVar(&c.Format, c.Flags.Format, string(FormatText),
		fmt.Sprintf("log output format (%s)", GetAllFormatStrings()))
}

// RegisterCompletions offers the fixed level and format names as shell
// completions on cmd.
func (c *Config) RegisterCompletions(cmd *cobra.Command) error {
	completions := map[string][]string{
		c.Flags.Level:  GetAllLevelStrings(),
		c.Flags.Format: GetAllFormatStrings(),
	}

	for flag, values := range completions {
		err := cmd.RegisterFlagCompletionFunc(flag,
			cobra.FixedCompletions(values, cobra.ShellCompDirectiveNoFileComp))
		if err != nil {
			return fmt.Errorf("registering %s completion: %w", flag, err)
		}
	}

	return nil
}

// NewHandler builds a [slog.Handler] writing to w from the parsed flag
// values. See [NewHandlerFromStrings].
func (c *Config) NewHandler(w io.Writer) (slog.Handler, error) {
	return NewHandlerFromStrings(w, c.Level, c.Format)
}

// NewLogger is [Config.NewHandler] wrapped in a [slog.Logger].
func (c *Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	h, err := c.NewHandler(w)
	if err != nil {
		return nil, err
	}

	return slog.New(h), nil
}
