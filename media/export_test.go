package media

import (
	"io"
	"log/slog"
)

var (
	ParseProbe    = parseProbe
	ParseFraction = parseFraction
	DelayFPS      = delayFPS
)

// NewVideoFromReader builds a [Video] that reads raw frames from r instead of
// an ffmpeg pipe.
func NewVideoFromReader(r io.Reader, p Probe) *Video {
	return &Video{
		frames: r,
		probe:  p,
		logger: slog.New(slog.DiscardHandler),
	}
}
