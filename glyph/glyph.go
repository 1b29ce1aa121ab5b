// Package glyph maps brightness values onto an ordered set of characters.
//
// A [Ramp] lists characters from the visually lightest to the heaviest. The
// same ramp serves every rendering path; traversal direction is a field of
// the ramp rather than a second table:
//
//	r := glyph.Default()
//	r.At(0)   // ' '
//	r.At(255) // '$'
//
//	r.Reverse = true
//	r.At(0)   // '$'
package glyph

import (
	"errors"
	"fmt"
)

// DefaultChars is the default ramp, darkest first.
const DefaultChars = " .'`^\",:;Il!i><~+_-?][}{1)(|\\/tfjrxnuvczXYUJCLQ0OZmwqpdbkhao*#MW&8%B@$"

// MaxBrightness is the largest brightness value accepted by [Ramp.At].
const MaxBrightness = 255

var defaultGlyphs = []rune(DefaultChars)

// ErrShortRamp indicates a ramp with fewer than two characters.
var ErrShortRamp = errors.New("ramp needs at least 2 characters")

// Ramp is an ordered sequence of glyphs indexed 0 (darkest) to N-1
// (brightest).
//
// Create instances with [New] or [Default].
type Ramp struct {
	glyphs []rune
	// Reverse traverses the ramp from brightest to darkest.
	Reverse bool
}

// New creates a [Ramp] from chars. It returns [ErrShortRamp] when chars holds
// fewer than two runes.
func New(chars string) (Ramp, error) {
	glyphs := []rune(chars)
	if len(glyphs) < 2 {
		return Ramp{}, fmt.Errorf("%w: got %d", ErrShortRamp, len(glyphs))
	}

	return Ramp{glyphs: glyphs}, nil
}

// Default returns the ramp built from [DefaultChars].
func Default() Ramp {
	return Ramp{glyphs: defaultGlyphs}
}

// Len returns the number of glyphs in the ramp.
func (r Ramp) Len() int {
	return len(r.chars())
}

// Index returns the ramp position for brightness using integer floor
// division: brightness*(N-1)/255. The result is always within [0, N-1].
// A zero Ramp indexes the default glyphs.
func (r Ramp) Index(brightness uint8) int {
	last := len(r.chars()) - 1
	idx := int(brightness) * last / MaxBrightness

	if r.Reverse {
		return last - idx
	}

	return idx
}

// At returns the glyph for brightness.
func (r Ramp) At(brightness uint8) rune {
	return r.chars()[r.Index(brightness)]
}

func (r Ramp) chars() []rune {
	if len(r.glyphs) < 2 {
		return defaultGlyphs
	}

	return r.glyphs
}

// String returns the glyphs in storage order.
func (r Ramp) String() string {
	return string(r.chars())
}
