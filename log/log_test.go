package log_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArbuzKaktus/ascii-converter/arttest"
	"github.com/ArbuzKaktus/ascii-converter/log"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		in   string
		want log.Level
		err  error
	}{
		"debug":         {in: "debug", want: log.LevelDebug},
		"upper case":    {in: "ERROR", want: log.LevelError},
		"warning alias": {in: "Warning", want: log.LevelWarn},
		"empty":         {in: "", err: log.ErrUnknownLogLevel},
		"trace":         {in: "trace", err: log.ErrUnknownLogLevel},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := log.ParseLevel(tc.in)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for _, name := range log.GetAllFormatStrings() {
		got, err := log.ParseFormat(strings.ToUpper(name))
		require.NoError(t, err)
		assert.Equal(t, log.Format(name), got)
	}

	_, err := log.ParseFormat("xml")
	require.ErrorIs(t, err, log.ErrUnknownLogFormat)
}

func TestLevelSlog(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.LevelError, log.LevelError.Slog())
	assert.Equal(t, slog.LevelWarn, log.LevelWarn.Slog())
	assert.Equal(t, slog.LevelInfo, log.LevelInfo.Slog())
	assert.Equal(t, slog.LevelDebug, log.LevelDebug.Slog())
	assert.Equal(t, slog.LevelInfo, log.Level("loud").Slog())
}

func TestNewHandlerFormats(t *testing.T) {
	t.Parallel()

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer

		logger := slog.New(log.NewHandler(&buf, log.LevelInfo, log.FormatJSON))
		logger.Info("frame skipped", slog.Int("frame", 7))

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "frame skipped", entry["msg"])
		assert.InDelta(t, 7, entry["frame"], 0)
		assert.Contains(t, entry, "source")
	})

	t.Run("logfmt", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer

		logger := slog.New(log.NewHandler(&buf, log.LevelInfo, log.FormatLogfmt))
		logger.Warn("decoder stalled", slog.String("path", "clip.mp4"))

		assert.Contains(t, buf.String(), "level=WARN")
		assert.Contains(t, buf.String(), `msg="decoder stalled"`)
		assert.Contains(t, buf.String(), "path=clip.mp4")
	})

	t.Run("text", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer

		logger := slog.New(log.NewHandler(&buf, log.LevelInfo, log.FormatText))
		logger.Info("playback ended", slog.Int("rendered", 12))

		out := arttest.StripANSI(buf.String())
		assert.Contains(t, out, "playback ended")
		assert.Contains(t, out, "rendered=12")
	})

	t.Run("unknown falls back to text", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer

		logger := slog.New(log.NewHandler(&buf, log.LevelInfo, log.Format("yaml")))
		logger.Info("hello")

		out := arttest.StripANSI(buf.String())
		assert.Contains(t, out, "hello")
		assert.NotContains(t, out, "msg=")
	})
}

func TestNewHandlerLevelFilter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(log.NewHandler(&buf, log.LevelWarn, log.FormatLogfmt))
	logger.Debug("per-frame detail")
	logger.Info("converting")
	logger.Warn("corrupt frame")

	assert.NotContains(t, buf.String(), "per-frame detail")
	assert.NotContains(t, buf.String(), "converting")
	assert.Contains(t, buf.String(), "corrupt frame")
}

func TestNewHandlerFromStrings(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		level, format string
		err           error
	}{
		"valid":         {level: "debug", format: "json"},
		"bad level":     {level: "chatty", format: "json", err: log.ErrUnknownLogLevel},
		"bad format":    {level: "info", format: "csv", err: log.ErrUnknownLogFormat},
		"warning alias": {level: "warning", format: "text"},
		"mixed case":    {level: "Info", format: "LogFmt"},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			h, err := log.NewHandlerFromStrings(&bytes.Buffer{}, tc.level, tc.format)
			if tc.err != nil {
				require.ErrorIs(t, err, log.ErrInvalidArgument)
				require.ErrorIs(t, err, tc.err)
				assert.Nil(t, h)

				return
			}

			require.NoError(t, err)
			assert.NotNil(t, h)
		})
	}
}

func TestConfigFlags(t *testing.T) {
	t.Parallel()

	cfg := log.NewConfig()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.RegisterFlags(flags)

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "text", cfg.Format)

	require.NoError(t, flags.Parse([]string{"--log-level=error", "--log-format=json"}))

	var buf bytes.Buffer

	logger, err := cfg.NewLogger(&buf)
	require.NoError(t, err)

	logger.Warn("dropped")
	logger.Error("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `"msg":"kept"`)
}

func TestConfigCustomFlagNames(t *testing.T) {
	t.Parallel()

	cfg := log.Flags{Level: "verbosity", Format: "style"}.NewConfig()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.RegisterFlags(flags)

	require.NoError(t, flags.Parse([]string{"--verbosity=bogus"}))

	_, err := cfg.NewLogger(&bytes.Buffer{})
	require.ErrorIs(t, err, log.ErrUnknownLogLevel)
}

func TestConfigRegisterCompletions(t *testing.T) {
	t.Parallel()

	cmd := &cobra.Command{Use: "test"}
	cfg := log.NewConfig()
	cfg.RegisterFlags(cmd.Flags())

	require.NoError(t, cfg.RegisterCompletions(cmd))

	fn, ok := cmd.GetFlagCompletionFunc("log-level")
	require.True(t, ok)

	got, directive := fn(cmd, nil, "")
	assert.Equal(t, log.GetAllLevelStrings(), got)
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)

	_, ok = cmd.GetFlagCompletionFunc("log-format")
	assert.True(t, ok)
}
