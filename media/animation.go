package media

import (
	"context"
	"fmt"
	"image"
	"image/gif"
	"io"

	"golang.org/x/image/draw"
)

// Animation is a looping sequence of fully composited GIF frames.
//
// Create instances with [OpenAnimation] or [DecodeAnimation].
type Animation struct {
	frames []image.Image
	fps    float64
	next   int
}

// OpenAnimation decodes every frame of the GIF at path.
func OpenAnimation(path string) (*Animation, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}

	defer closeQuietly(f)

	a, err := DecodeAnimation(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return a, nil
}

// DecodeAnimation decodes a GIF stream. Each frame is drawn onto a shared
// canvas honouring the frame's disposal method, so every returned frame is a
// complete picture. Frames with empty bounds are kept as empty images so the
// playback loop can report and skip them.
func DecodeAnimation(r io.Reader) (*Animation, error) {
	g, err := gif.DecodeAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	if len(g.Image) == 0 {
		return nil, ErrNoFrames
	}

	if g.Image[0] == nil || g.Image[0].Bounds().Empty() {
		return nil, fmt.Errorf("%w: first frame is empty", ErrDecode)
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		for _, fr := range g.Image {
			if fr != nil {
				bounds = bounds.Union(fr.Bounds())
			}
		}
	}

	canvas := image.NewRGBA(bounds)
	frames := make([]image.Image, 0, len(g.Image))

	for i, fr := range g.Image {
		if fr == nil || fr.Bounds().Empty() {
			frames = append(frames, image.NewRGBA(image.Rectangle{}))

			continue
		}

		disposal := byte(0)
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}

		var previous *image.RGBA
		if disposal == gif.DisposalPrevious {
			previous = cloneRGBA(canvas)
		}

		draw.Draw(canvas, fr.Bounds(), fr, fr.Bounds().Min, draw.Over)
		frames = append(frames, cloneRGBA(canvas))

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, fr.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			canvas = previous
		}
	}

	return &Animation{
		frames: frames,
		fps:    delayFPS(g.Delay),
	}, nil
}

// Next returns the next frame, wrapping back to the first one after the
// last. It never returns [io.EOF].
func (a *Animation) Next(ctx context.Context) (image.Image, error) {
	err := ctx.Err()
	if err != nil {
		return nil, err
	}

	fr := a.frames[a.next]
	a.next = (a.next + 1) % len(a.frames)

	return fr, nil
}

// FPS returns the frame rate implied by the GIF frame delays, or 0 when the
// file carries no usable delays.
func (a *Animation) FPS() float64 {
	return a.fps
}

// Looping reports true; animations repeat until interrupted.
func (a *Animation) Looping() bool {
	return true
}

// Len returns the number of frames in one loop.
func (a *Animation) Len() int {
	return len(a.frames)
}

// Frame returns frame i of the loop.
func (a *Animation) Frame(i int) image.Image {
	return a.frames[i]
}

// delayFPS converts GIF delays (hundredths of a second) into frames per
// second, averaging over frames that specify a delay.
func delayFPS(delays []int) float64 {
	total, n := 0, 0

	for _, d := range delays {
		if d > 0 {
			total += d
			n++
		}
	}

	if total == 0 {
		return 0
	}

	return 100 * float64(n) / float64(total)
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)

	return dst
}
