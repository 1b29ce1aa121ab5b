package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/ArbuzKaktus/ascii-converter/glyph"
	"github.com/ArbuzKaktus/ascii-converter/log"
	"github.com/ArbuzKaktus/ascii-converter/media"
	"github.com/ArbuzKaktus/ascii-converter/playback"
	"github.com/ArbuzKaktus/ascii-converter/preset"
	"github.com/ArbuzKaktus/ascii-converter/prompt"
	"github.com/ArbuzKaktus/ascii-converter/render"
	"github.com/ArbuzKaktus/ascii-converter/terminal"
)

// Prompt keys.
const (
	keyPath       = "path"
	keyColored    = "colored"
	keyHeight     = "height"
	keyReverse    = "reverse"
	keyBrightness = "brightness"
	keySaturation = "saturation"
	keyFPS        = "fps"
	keyPlay       = "play"
)

const maxHeight = 1000

type app struct {
	opts   *options
	logger *slog.Logger
	stdin  *os.File
	stdout *os.File
	stderr io.Writer
}

func (a *app) run(ctx context.Context, args []string) (err error) {
	// Logs are held back while the prompt or the player owns the terminal.
	backlog := log.NewBacklog()

	a.logger, err = a.opts.log.NewLogger(backlog)
	if err != nil {
		return err
	}

	defer func() {
		_, flushErr := backlog.WriteTo(a.stderr)
		err = errors.Join(err, flushErr)
	}()

	prof := a.opts.profile.NewProfiler()

	err = prof.Start()
	if err != nil {
		return err
	}

	defer func() {
		err = errors.Join(err, prof.Stop())
	}()

	p := &preset.Preset{}
	if a.opts.presetPath != "" {
		p, err = preset.Load(a.opts.presetPath)
		if err != nil {
			return err
		}
	}

	ramp, err := p.Ramp()
	if err != nil {
		return err
	}

	initialPath := ""
	if len(args) > 0 {
		initialPath = args[0]
	}

	answers, err := prompt.Run(ctx, a.stdin, a.stdout, questions(p, initialPath, a.opts.video))
	if err != nil {
		return err
	}

	return a.convert(ctx, answers, ramp)
}

// convert renders the file named in answers with the collected settings.
func (a *app) convert(ctx context.Context, answers prompt.Answers, ramp glyph.Ramp) (err error) {
	path := answers[keyPath]
	kind := media.Detect(path, a.opts.video)

	cfg := render.Config{
		Height:     answers.Int(keyHeight),
		Colored:    answers.Bool(keyColored),
		Brightness: answers.Int(keyBrightness),
		Saturation: answers.Float(keySaturation),
		Reverse:    answers.Bool(keyReverse),
	}

	if !cfg.Colored {
		cfg.Saturation = 1
	}

	renderer, err := render.New(cfg, render.WithRamp(ramp))
	if err != nil {
		return err
	}

	a.logger.Debug("converting",
		slog.String("path", path),
		slog.String("kind", kind.String()),
		slog.Int("height", cfg.Height),
		slog.Bool("colored", cfg.Colored),
	)

	if kind == media.KindImage {
		return a.convertImage(path, renderer)
	}

	if !answers.Bool(keyPlay) {
		a.logger.Info("playback declined")

		return nil
	}

	var src interface {
		playback.Source
		io.Closer
	}

	switch kind {
	case media.KindAnimation:
		anim, err := media.OpenAnimation(path)
		if err != nil {
			return err
		}

		src = nopCloser{anim}

	default:
		video, err := media.OpenVideo(ctx, path, media.WithLogger(a.logger))
		if err != nil {
			return err
		}

		src = video
	}

	// A decoder that failed after the last frame is reported here.
	defer func() {
		err = errors.Join(err, src.Close())
	}()

	return a.play(ctx, src, renderer, answers.Float(keyFPS))
}

func (a *app) play(ctx context.Context, src playback.Source, renderer *render.Renderer, fps float64) error {
	term := terminal.Detect(a.stdout, a.stdin)

	err := term.Start()
	if err != nil {
		return err
	}

	defer func() {
		err := term.Close()
		if err != nil {
			a.logger.Warn("restoring terminal", slog.Any("error", err))
		}
	}()

	engine := playback.NewEngine(term, renderer,
		playback.WithLogger(a.logger),
		playback.WithTargetFPS(fps),
	)

	state, err := engine.Play(ctx, src)
	if err != nil {
		return fmt.Errorf("playing: %w", err)
	}

	stats := engine.Stats()
	a.logger.Info("playback ended",
		slog.String("state", state.String()),
		slog.Int("rendered", stats.Rendered),
		slog.Int("skipped", stats.Skipped),
		slog.Int("warned", stats.Warned),
	)

	return nil
}

// convertImage renders a still image to --output or stdout.
func (a *app) convertImage(path string, renderer *render.Renderer) (err error) {
	img, err := media.OpenImage(path, renderer.Config().Colored)
	if err != nil {
		return err
	}

	art, err := renderer.Render(img)
	if err != nil {
		return err
	}

	var w io.Writer = a.stdout

	if a.opts.output != "" && a.opts.output != "-" {
		f, err := os.Create(a.opts.output) //nolint:gosec // Output path from CLI flag is expected.
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}

		defer func() {
			err = errors.Join(err, f.Close())
		}()

		w = f
	}

	_, err = io.WriteString(w, art)
	if err != nil {
		return fmt.Errorf("writing art: %w", err)
	}

	a.logger.Debug("image written",
		slog.String("path", path),
		slog.Int("bytes", len(art)),
	)

	return nil
}

// nopCloser adapts sources that hold no resources.
type nopCloser struct {
	playback.Source
}

func (nopCloser) Close() error { return nil }

// questions builds the prompt sequence. Preset values replace the built-in
// defaults, and initialPath pre-fills the file path.
func questions(p *preset.Preset, initialPath string, video bool) []prompt.Question {
	playable := func(a prompt.Answers) bool {
		return media.Detect(a[keyPath], video) != media.KindImage
	}
	colored := func(a prompt.Answers) bool {
		return a.Bool(keyColored)
	}

	return []prompt.Question{
		{
			Key:      keyPath,
			Label:    "File path:",
			Default:  initialPath,
			Validate: prompt.ExistingFile,
		},
		{
			Key:      keyColored,
			Label:    "Colored? (y/n)",
			Default:  yesNo(p.Colored, true),
			Validate: prompt.YesNo,
		},
		{
			Key:      keyHeight,
			Label:    "Height in rows:",
			Default:  intOr(p.Height, 40),
			Validate: prompt.IntRange(1, maxHeight),
		},
		{
			Key:      keyReverse,
			Label:    "Reverse the glyph ramp? (y/n)",
			Default:  yesNo(p.Reverse, false),
			Validate: prompt.YesNo,
		},
		{
			Key:      keyBrightness,
			Label:    "Brightness offset:",
			Default:  intOr(p.Brightness, 0),
			Validate: prompt.IntRange(-glyph.MaxBrightness, glyph.MaxBrightness),
			When:     colored,
		},
		{
			Key:      keySaturation,
			Label:    "Saturation factor:",
			Default:  floatOr(p.Saturation, 1),
			Validate: prompt.FloatMin(0),
			When:     colored,
		},
		{
			Key:      keyFPS,
			Label:    "Target FPS (0 keeps the source rate):",
			Default:  floatOr(p.FPS, 0),
			Validate: prompt.FloatMin(0),
			When:     playable,
		},
		{
			Key:      keyPlay,
			Label:    "Play? (y/n)",
			Default:  "y",
			Validate: prompt.YesNo,
			When:     playable,
		},
	}
}

func yesNo(v *bool, fallback bool) string {
	if v != nil {
		fallback = *v
	}

	if fallback {
		return "y"
	}

	return "n"
}

func intOr(v *int, fallback int) string {
	if v != nil {
		fallback = *v
	}

	return strconv.Itoa(fallback)
}

func floatOr(v *float64, fallback float64) string {
	if v != nil {
		fallback = *v
	}

	return strconv.FormatFloat(fallback, 'g', -1, 64)
}
