package playback_test

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArbuzKaktus/ascii-converter/playback"
)

var (
	errEmpty   = errors.New("empty frame")
	errCorrupt = errors.New("corrupt frame")
	errBroken  = errors.New("broken pipe")
)

// fakeTerminal records every call as an event.
type fakeTerminal struct {
	events []string
	// pollAt is the 1-based poll that reports a keypress, or 0 for never.
	pollAt     int
	polls      int
	failFrames bool
}

func (f *fakeTerminal) Write(p []byte) (int, error) {
	if f.failFrames && strings.HasPrefix(string(p), "frame") {
		return 0, errBroken
	}

	f.events = append(f.events, "write:"+string(p))

	return len(p), nil
}

func (f *fakeTerminal) ClearScreen() error { return f.record("clear") }
func (f *fakeTerminal) MoveCursorHome() error { return f.record("home") }
func (f *fakeTerminal) HideCursor() error { return f.record("hide") }
func (f *fakeTerminal) ShowCursor() error { return f.record("show") }

func (f *fakeTerminal) PollKeypress() bool {
	f.polls++

	return f.polls == f.pollAt
}

func (f *fakeTerminal) record(ev string) error {
	f.events = append(f.events, ev)

	return nil
}

func (f *fakeTerminal) count(ev string) int {
	n := 0

	for _, e := range f.events {
		if e == ev {
			n++
		}
	}

	return n
}

// fakeClock advances only when slept on or when a render charges time.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	err := ctx.Err()
	if err != nil {
		return err
	}

	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)

	return nil
}

// fakeSource yields frames whose width is their id. Id 0 is a decode error.
type fakeSource struct {
	ids     []int
	fps     float64
	looping bool
	pos     int
}

func (s *fakeSource) Next(ctx context.Context) (image.Image, error) {
	err := ctx.Err()
	if err != nil {
		return nil, err
	}

	if s.pos >= len(s.ids) {
		if !s.looping {
			return nil, io.EOF
		}

		s.pos = 0
	}

	id := s.ids[s.pos]
	s.pos++

	if id == 0 {
		return nil, errCorrupt
	}

	return image.NewGray(image.Rect(0, 0, id, 1)), nil
}

func (s *fakeSource) FPS() float64 { return s.fps }
func (s *fakeSource) Looping() bool { return s.looping }

type fakeRenderer struct {
	clock    *fakeClock
	cost     time.Duration
	empty    map[int]bool
	onRender func(id int)
	rendered []int
}

func (r *fakeRenderer) Render(img image.Image) (string, error) {
	id := img.Bounds().Dx()
	r.rendered = append(r.rendered, id)
	r.clock.now = r.clock.now.Add(r.cost)

	if r.onRender != nil {
		r.onRender(id)
	}

	if r.empty[id] {
		return "", errEmpty
	}

	return fmt.Sprintf("frame %d\n", id), nil
}

func seq(n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i + 1
	}

	return ids
}

func newEngine(term *fakeTerminal, r *fakeRenderer, opts ...playback.Option) *playback.Engine {
	opts = append([]playback.Option{
		playback.WithLogger(slog.New(slog.DiscardHandler)),
		playback.WithClock(r.clock),
	}, opts...)

	return playback.NewEngine(term, r, opts...)
}

func TestPlayFinishes(t *testing.T) {
	t.Parallel()

	term := &fakeTerminal{}
	clock := &fakeClock{}
	r := &fakeRenderer{clock: clock}
	src := &fakeSource{ids: seq(3), fps: 25}

	state, err := newEngine(term, r).Play(t.Context(), src)
	require.NoError(t, err)
	assert.Equal(t, playback.StateFinished, state)

	assert.Equal(t, []string{
		"write:Press any key to stop video...\n",
		"hide",
		"clear",
		"home",
		"write:frame 1\n",
		"home",
		"write:frame 2\n",
		"home",
		"write:frame 3\n",
		"show",
		"write:Video playback finished.\n",
	}, term.events)

	assert.Equal(t, []time.Duration{
		time.Second,
		40 * time.Millisecond,
		40 * time.Millisecond,
		40 * time.Millisecond,
	}, clock.sleeps)
}

func TestPlaySkipsFrames(t *testing.T) {
	t.Parallel()

	term := &fakeTerminal{}
	clock := &fakeClock{}
	r := &fakeRenderer{clock: clock}
	src := &fakeSource{ids: seq(9), fps: 30}

	e := newEngine(term, r, playback.WithTargetFPS(10))

	state, err := e.Play(t.Context(), src)
	require.NoError(t, err)
	assert.Equal(t, playback.StateFinished, state)
	assert.Equal(t, []int{3, 6, 9}, r.rendered)
	assert.Equal(t, playback.Stats{Rendered: 3, Skipped: 6}, e.Stats())

	// Only rendered frames are checked for interruption.
	assert.Equal(t, 3, term.polls)
}

func TestPlayPacing(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		cost time.Duration
		want []time.Duration
	}{
		"render time is subtracted": {
			cost: 30 * time.Millisecond,
			want: []time.Duration{time.Second, 70 * time.Millisecond, 70 * time.Millisecond},
		},
		"slow render does not sleep": {
			cost: 150 * time.Millisecond,
			want: []time.Duration{time.Second},
		},
		"exact budget does not sleep": {
			cost: 100 * time.Millisecond,
			want: []time.Duration{time.Second},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			term := &fakeTerminal{}
			clock := &fakeClock{}
			r := &fakeRenderer{clock: clock, cost: tc.cost}
			src := &fakeSource{ids: seq(2), fps: 10}

			_, err := newEngine(term, r).Play(t.Context(), src)
			require.NoError(t, err)
			assert.Equal(t, tc.want, clock.sleeps)
		})
	}
}

func TestPlayInterrupt(t *testing.T) {
	t.Parallel()

	term := &fakeTerminal{pollAt: 3}
	clock := &fakeClock{}
	r := &fakeRenderer{clock: clock}
	src := &fakeSource{ids: seq(5), fps: 25}

	state, err := newEngine(term, r).Play(t.Context(), src)
	require.NoError(t, err)
	assert.Equal(t, playback.StateInterrupted, state)
	assert.Equal(t, []int{1, 2}, r.rendered)
	assert.Equal(t, 1, term.count("show"))

	last := term.events[len(term.events)-2:]
	assert.Equal(t, []string{"show", "write:Video stopped by user.\n"}, last)
}

func TestPlayLoops(t *testing.T) {
	t.Parallel()

	term := &fakeTerminal{pollAt: 6}
	clock := &fakeClock{}
	r := &fakeRenderer{clock: clock}
	src := &fakeSource{ids: seq(2), looping: true}

	state, err := newEngine(term, r).Play(t.Context(), src)
	require.NoError(t, err)
	assert.Equal(t, playback.StateInterrupted, state)
	assert.Equal(t, []int{1, 2, 1, 2, 1}, r.rendered)

	assert.Equal(t, "write:Press any key to stop animation...\n", term.events[0])
	assert.Equal(t, "write:Animation stopped by user.\n", term.events[len(term.events)-1])

	// Priming happens once, not per loop.
	assert.Equal(t, 1, term.count("hide"))
	assert.Equal(t, 1, term.count("clear"))
	assert.Equal(t, 1, term.count("show"))
}

func TestPlaySkipsBadFrames(t *testing.T) {
	t.Parallel()

	term := &fakeTerminal{}
	clock := &fakeClock{}
	r := &fakeRenderer{clock: clock, empty: map[int]bool{2: true}}
	src := &fakeSource{ids: []int{1, 0, 2, 3}, fps: 25}

	e := newEngine(term, r)

	state, err := e.Play(t.Context(), src)
	require.NoError(t, err)
	assert.Equal(t, playback.StateFinished, state)
	assert.Equal(t, []int{1, 2, 3}, r.rendered)
	assert.Equal(t, playback.Stats{Rendered: 2, Warned: 2}, e.Stats())

	assert.Contains(t, term.events, "write:frame 1\n")
	assert.Contains(t, term.events, "write:frame 3\n")
	assert.NotContains(t, term.events, "write:frame 2\n")
	assert.Equal(t, 1, term.count("show"))
}

func TestPlayBadFramesAdvanceCounter(t *testing.T) {
	t.Parallel()

	term := &fakeTerminal{}
	clock := &fakeClock{}
	r := &fakeRenderer{clock: clock}

	// With a skip ratio of 2 the corrupt frame still takes slot 1, so frame
	// 2 lands on an even count and is rendered.
	src := &fakeSource{ids: []int{0, 2, 3, 4}, fps: 20}

	_, err := newEngine(term, r, playback.WithTargetFPS(10)).Play(t.Context(), src)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4}, r.rendered)
}

func TestPlayContextCanceled(t *testing.T) {
	t.Parallel()

	t.Run("during preroll", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		term := &fakeTerminal{}
		clock := &fakeClock{}
		r := &fakeRenderer{clock: clock}
		src := &fakeSource{ids: seq(3), fps: 25}

		state, err := newEngine(term, r).Play(ctx, src)
		require.NoError(t, err)
		assert.Equal(t, playback.StateInterrupted, state)
		assert.Empty(t, r.rendered)
		assert.Equal(t, []string{
			"write:Press any key to stop video...\n",
			"write:Video stopped by user.\n",
		}, term.events)
	})

	t.Run("while playing", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(t.Context())
		t.Cleanup(cancel)

		term := &fakeTerminal{}
		clock := &fakeClock{}
		r := &fakeRenderer{
			clock: clock,
			onRender: func(id int) {
				if id == 2 {
					cancel()
				}
			},
		}
		src := &fakeSource{ids: seq(5), fps: 25}

		state, err := newEngine(term, r).Play(ctx, src)
		require.NoError(t, err)
		assert.Equal(t, playback.StateInterrupted, state)
		assert.Equal(t, []int{1, 2}, r.rendered)
		assert.Equal(t, 1, term.count("show"))
	})
}

func TestPlayWriteError(t *testing.T) {
	t.Parallel()

	term := &fakeTerminal{failFrames: true}
	clock := &fakeClock{}
	r := &fakeRenderer{clock: clock}
	src := &fakeSource{ids: seq(3), fps: 25}

	_, err := newEngine(term, r).Play(t.Context(), src)
	require.ErrorIs(t, err, errBroken)
	assert.Equal(t, 1, term.count("show"))
}
