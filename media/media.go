// Package media opens still images, animated GIFs, and video files and
// exposes their frames as [image.Image] values.
//
// Still images are decoded once with [OpenImage]. Animated GIFs are decoded
// up front by [OpenAnimation] into fully composited frames that repeat
// forever. Videos are streamed from an ffmpeg subprocess by [OpenVideo].
// [Detect] picks the right opener for a path.
package media

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel errors returned by the openers and sources.
var (
	// ErrOpen indicates the file could not be opened or the decoder could not
	// be started.
	ErrOpen = errors.New("open media")
	// ErrDecode indicates the file was readable but is not a supported image.
	ErrDecode = errors.New("decode media")
	// ErrNoFrames indicates an animation or video without any frames.
	ErrNoFrames = errors.New("no frames")
	// ErrCorruptFrame indicates a single unusable frame inside a stream.
	ErrCorruptFrame = errors.New("corrupt frame")
)

// Kind identifies which opener handles a path.
type Kind int

const (
	// KindImage is a single still image.
	KindImage Kind = iota
	// KindAnimation is a looping animated GIF.
	KindAnimation
	// KindVideo is a one-shot video stream.
	KindVideo
)

// String returns a human-readable name for k.
func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindAnimation:
		return "animation"
	case KindVideo:
		return "video"
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// Detect returns the [Kind] for path. A case-insensitive ".gif" suffix always
// selects [KindAnimation]; otherwise video selects [KindVideo] and anything
// else is a still image.
func Detect(path string, video bool) Kind {
	switch {
	case strings.EqualFold(filepath.Ext(path), ".gif"):
		return KindAnimation
	case video:
		return KindVideo
	}

	return KindImage
}

// openFile opens path for reading, wrapping failures in [ErrOpen].
func openFile(path string) (*os.File, error) {
	f, err := os.Open(path) //nolint:gosec // Path is user input by design.
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}

	info, err := f.Stat()
	if err != nil {
		closeQuietly(f)

		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}

	if info.IsDir() {
		closeQuietly(f)

		return nil, fmt.Errorf("%w: %s is a directory", ErrOpen, path)
	}

	if info.Size() == 0 {
		closeQuietly(f)

		return nil, fmt.Errorf("%w: %s is empty", ErrDecode, path)
	}

	return f, nil
}

func closeQuietly(f *os.File) {
	//nolint:errcheck // Read-only file, nothing to flush.
	f.Close()
}
