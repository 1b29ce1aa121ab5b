// Package log builds [log/slog] handlers from command-line flags.
//
// Three output formats are available: [FormatJSON] and [FormatLogfmt] use
// the standard library handlers, and [FormatText] uses the colored
// [charm.land/log/v2] handler meant for people reading a terminal. Levels
// are named by [Level] and converted with [Level.Slog].
//
// [Config] binds --log-level and --log-format on a [github.com/spf13/pflag]
// flag set and offers their values as [github.com/spf13/cobra] completions:
//
//	cfg := log.NewConfig()
//	cfg.RegisterFlags(rootCmd.PersistentFlags())
//	cfg.RegisterCompletions(rootCmd)
//
//	// After parsing:
//	logger, err := cfg.NewLogger(os.Stderr)
//
// While frames are drawn the terminal belongs to the renderer, and anything
// written to stderr would tear the picture. A [Backlog] keeps log entries in
// memory for that period and writes them out once the screen is released:
//
//	backlog := log.NewBacklog()
//	logger, err := cfg.NewLogger(backlog)
//
//	// ... play ...
//
//	backlog.WriteTo(os.Stderr)
package log
