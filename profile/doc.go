// Package profile adds runtime profiling to the command line.
//
// It writes a CPU profile, a heap profile, and a runtime execution trace.
// The trace is the most useful of the three for playback: it shows how each
// frame's budget splits between decoding, rendering, writing, and sleeping.
//
// Typical usage creates a [Config], registers flags, then wraps command
// execution with a [Profiler]:
//
//	cfg := profile.NewConfig()
//	cfg.RegisterFlags(rootCmd.PersistentFlags())
//	cfg.RegisterCompletions(rootCmd)
//
//	p := cfg.NewProfiler()
//	err := p.Start()
//	defer p.Stop()
//
// Users then enable profiling with flags like --cpu-profile=cpu.prof or
// --trace=play.trace.
package profile
