package playback

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"strings"
	"time"
)

// DefaultPreroll is how long the start notice stays up before playback.
const DefaultPreroll = time.Second

// Terminal is the output sink plus the cursor and keypress capabilities the
// engine needs.
type Terminal interface {
	io.Writer
	ClearScreen() error
	MoveCursorHome() error
	HideCursor() error
	ShowCursor() error
	// PollKeypress must not block.
	PollKeypress() bool
}

// Source yields frames. Next returns [io.EOF] when a one-shot source is
// exhausted; looping sources wrap around on their own and never do.
type Source interface {
	Next(ctx context.Context) (image.Image, error)
	FPS() float64
	Looping() bool
}

// FrameRenderer turns a frame into terminal text.
type FrameRenderer interface {
	Render(img image.Image) (string, error)
}

// Clock abstracts time for pacing.
type Clock interface {
	Now() time.Time
	// Sleep waits for d or until ctx is done, whichever comes first.
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Stats counts what happened to the frames of one playback.
type Stats struct {
	Rendered int
	Skipped  int
	Warned   int
}

// Engine plays a [Source] onto a [Terminal].
//
// Create instances with [NewEngine].
type Engine struct {
	term      Terminal
	renderer  FrameRenderer
	logger    *slog.Logger
	clock     Clock
	preroll   time.Duration
	targetFPS float64
	stats     Stats
}

// Option configures an [Engine].
type Option func(*Engine)

// WithLogger sets the logger for frame warnings and statistics.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithPreroll sets the pause after the start notice.
func WithPreroll(d time.Duration) Option {
	return func(e *Engine) {
		e.preroll = d
	}
}

// WithTargetFPS overrides the playback rate. Values that are not positive
// keep the source rate.
func WithTargetFPS(fps float64) Option {
	return func(e *Engine) {
		e.targetFPS = fps
	}
}

// NewEngine creates a new [Engine].
func NewEngine(term Terminal, renderer FrameRenderer, opts ...Option) *Engine {
	e := &Engine{
		term:     term,
		renderer: renderer,
		logger:   slog.Default(),
		clock:    realClock{},
		preroll:  DefaultPreroll,
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Stats returns the counters of the most recent [Engine.Play].
func (e *Engine) Stats() Stats {
	return e.stats
}

// Play runs src until it is exhausted or interrupted and returns the final
// state. Interruption by keypress or context cancellation is not an error.
// Errors are returned only when the terminal cannot be written to.
func (e *Engine) Play(ctx context.Context, src Source) (State, error) {
	e.stats = Stats{}

	sess := NewSession(src.FPS(), e.targetFPS)
	name := noun(src)

	e.logger.Debug("starting playback",
		slog.String("source", name),
		slog.Float64("source_fps", sess.SourceFPS),
		slog.Float64("target_fps", sess.TargetFPS),
		slog.Duration("frame_delay", sess.FrameDelay),
		slog.Float64("skip_ratio", sess.SkipRatio),
	)

	sess.state = StatePriming

	_, err := fmt.Fprintf(e.term, "Press any key to stop %s...\n", name)
	if err != nil {
		return sess.state, fmt.Errorf("writing notice: %w", err)
	}

	err = e.clock.Sleep(ctx, e.preroll)
	if err != nil {
		sess.state = StateInterrupted

		return sess.state, e.notice("%s stopped by user.\n", name)
	}

	err = e.term.HideCursor()
	if err != nil {
		return sess.state, fmt.Errorf("hiding cursor: %w", err)
	}

	hidden := true
	restore := func() error {
		if !hidden {
			return nil
		}

		hidden = false

		return e.term.ShowCursor()
	}

	defer func() {
		err := restore()
		if err != nil {
			e.logger.Warn("restoring cursor", slog.Any("error", err))
		}
	}()

	err = e.term.ClearScreen()
	if err != nil {
		return sess.state, fmt.Errorf("clearing screen: %w", err)
	}

	sess.state = StatePlaying

	err = e.loop(ctx, sess, src)
	if err != nil {
		return sess.state, err
	}

	err = restore()
	if err != nil {
		return sess.state, fmt.Errorf("showing cursor: %w", err)
	}

	e.logger.Debug("playback ended",
		slog.String("state", sess.state.String()),
		slog.Uint64("frames", sess.Counter()),
		slog.Int("rendered", e.stats.Rendered),
		slog.Int("skipped", e.stats.Skipped),
		slog.Int("warned", e.stats.Warned),
	)

	if sess.state == StateInterrupted {
		return sess.state, e.notice("%s stopped by user.\n", name)
	}

	return sess.state, e.notice("%s playback finished.\n", name)
}

// loop plays frames until the session leaves [StatePlaying].
func (e *Engine) loop(ctx context.Context, sess *Session, src Source) error {
	for {
		frame, err := src.Next(ctx)
		switch {
		case errors.Is(err, io.EOF):
			sess.state = StateFinished

			return nil

		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			sess.state = StateInterrupted

			return nil
		}

		if !sess.Advance() {
			e.stats.Skipped++

			continue
		}

		if ctx.Err() != nil || e.term.PollKeypress() {
			sess.state = StateInterrupted

			return nil
		}

		if err != nil {
			e.warn(sess, err)

			continue
		}

		start := e.clock.Now()

		art, err := e.renderer.Render(frame)
		if err != nil {
			e.warn(sess, err)

			continue
		}

		err = e.term.MoveCursorHome()
		if err != nil {
			return fmt.Errorf("moving cursor: %w", err)
		}

		_, err = io.WriteString(e.term, art)
		if err != nil {
			return fmt.Errorf("writing frame: %w", err)
		}

		e.stats.Rendered++

		wait := sess.FrameDelay - e.clock.Now().Sub(start)
		if wait > 0 {
			// Cancellation is picked up by the next Next call.
			//nolint:errcheck // Only ever a context error.
			e.clock.Sleep(ctx, wait)
		}
	}
}

func (e *Engine) warn(sess *Session, err error) {
	e.stats.Warned++
	e.logger.Warn("skipping frame",
		slog.Uint64("frame", sess.Counter()),
		slog.Any("error", err),
	)
}

func (e *Engine) notice(format, name string) error {
	_, err := fmt.Fprintf(e.term, format, capitalize(name))
	if err != nil {
		return fmt.Errorf("writing notice: %w", err)
	}

	return nil
}

func noun(src Source) string {
	if src.Looping() {
		return "animation"
	}

	return "video"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}
