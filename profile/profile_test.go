package profile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArbuzKaktus/ascii-converter/profile"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()

	c := profile.NewConfig()

	assert.Empty(t, c.CPUProfile)
	assert.Empty(t, c.HeapProfile)
	assert.Empty(t, c.Trace)
	assert.Zero(t, c.MemProfileRate)
	assert.False(t, c.Enabled())
}

func TestRegisterFlags(t *testing.T) {
	t.Parallel()

	c := profile.NewConfig()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)

	c.RegisterFlags(flags)

	err := flags.Parse([]string{
		"--cpu-profile=cpu.prof",
		"--heap-profile=heap.prof",
		"--trace=play.trace",
		"--mem-profile-rate=1024",
	})
	require.NoError(t, err)

	assert.Equal(t, "cpu.prof", c.CPUProfile)
	assert.Equal(t, "heap.prof", c.HeapProfile)
	assert.Equal(t, "play.trace", c.Trace)
	assert.Equal(t, 1024, c.MemProfileRate)
	assert.True(t, c.Enabled())
}

func TestRegisterFlagsDefaults(t *testing.T) {
	t.Parallel()

	c := profile.NewConfig()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)

	c.RegisterFlags(flags)
	require.NoError(t, flags.Parse(nil))

	assert.Equal(t, 524288, c.MemProfileRate)
	assert.False(t, c.Enabled())
}

func TestRegisterCompletions(t *testing.T) {
	t.Parallel()

	c := profile.NewConfig()

	cmd := &cobra.Command{Use: "test"}
	c.RegisterFlags(cmd.Flags())
	require.NoError(t, c.RegisterCompletions(cmd))

	completionFn, ok := cmd.GetFlagCompletionFunc("mem-profile-rate")
	require.True(t, ok)

	values, directive := completionFn(cmd, nil, "")
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)
	assert.Empty(t, values)
}

// Not parallel: the runtime allows one CPU profile and one trace at a time.
func TestProfiler(t *testing.T) {
	dir := t.TempDir()

	c := profile.NewConfig()
	c.CPUProfile = filepath.Join(dir, "cpu.prof")
	c.HeapProfile = filepath.Join(dir, "heap.prof")
	c.Trace = filepath.Join(dir, "play.trace")

	p := c.NewProfiler()
	require.NoError(t, p.Start())
	require.NoError(t, p.Stop())

	for _, path := range []string{c.CPUProfile, c.HeapProfile, c.Trace} {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size(), path)
	}

	// A second Stop has nothing left to close but rewrites the heap profile.
	require.NoError(t, p.Stop())
}

func TestProfilerDisabled(t *testing.T) {
	t.Parallel()

	p := profile.NewConfig().NewProfiler()
	require.NoError(t, p.Start())
	require.NoError(t, p.Stop())
}

func TestProfilerBadPath(t *testing.T) {
	t.Parallel()

	c := profile.NewConfig()
	c.HeapProfile = filepath.Join(t.TempDir(), "missing", "heap.prof")

	p := c.NewProfiler()
	require.NoError(t, p.Start())
	require.Error(t, p.Stop())
}
