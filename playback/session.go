package playback

import (
	"fmt"
	"math"
	"time"
)

// FallbackFPS is used when a source cannot report its own frame rate.
const FallbackFPS = 25.0

// State is a playback lifecycle state.
type State int

const (
	// StateIdle is the state before [Engine.Play] starts.
	StateIdle State = iota
	// StatePriming is the one-time notice and pre-roll pause.
	StatePriming
	// StatePlaying renders frames.
	StatePlaying
	// StateFinished means a one-shot source was exhausted.
	StateFinished
	// StateInterrupted means the user or the context stopped playback.
	StateInterrupted
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePriming:
		return "priming"
	case StatePlaying:
		return "playing"
	case StateFinished:
		return "finished"
	case StateInterrupted:
		return "interrupted"
	}

	return fmt.Sprintf("State(%d)", int(s))
}

// Session holds the pacing parameters and counters for one playback.
//
// Create instances with [NewSession].
type Session struct {
	// SourceFPS is the effective source frame rate.
	SourceFPS float64
	// TargetFPS is the rate frames are written at.
	TargetFPS float64
	// FrameDelay is the wall-clock budget per rendered frame.
	FrameDelay time.Duration
	// SkipRatio is SourceFPS / TargetFPS.
	SkipRatio float64

	counter uint64
	every   uint64
	state   State
}

// NewSession computes the pacing for a source running at sourceFPS played
// back at targetFPS. A non-positive or non-finite sourceFPS falls back to
// [FallbackFPS]; a non-positive or non-finite targetFPS uses the source rate.
func NewSession(sourceFPS, targetFPS float64) *Session {
	if !validFPS(sourceFPS) {
		sourceFPS = FallbackFPS
	}

	if !validFPS(targetFPS) {
		targetFPS = sourceFPS
	}

	s := &Session{
		SourceFPS:  sourceFPS,
		TargetFPS:  targetFPS,
		FrameDelay: time.Duration(float64(time.Second) / targetFPS),
		SkipRatio:  sourceFPS / targetFPS,
	}

	if s.SkipRatio > 1 {
		s.every = uint64(math.Floor(s.SkipRatio))
	}

	return s
}

// Advance increments the frame counter and reports whether the frame it
// counts should be rendered.
func (s *Session) Advance() bool {
	s.counter++

	if s.every <= 1 {
		return true
	}

	return s.counter%s.every == 0
}

// Counter returns the number of frames counted so far, rendered or not.
func (s *Session) Counter() uint64 {
	return s.counter
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return s.state
}

func validFPS(fps float64) bool {
	return fps > 0 && !math.IsInf(fps, 0) && !math.IsNaN(fps)
}
