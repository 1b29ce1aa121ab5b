// Package pixel holds the per-pixel math shared by the renderers: weighted
// luminance, the brightness lift and saturation boost applied to colored
// frames, and 24-bit foreground escape generation.
package pixel

import (
	"image"
	"image/color"
	"math"
	"strconv"

	"github.com/charmbracelet/x/ansi"
	"github.com/lucasb-eyer/go-colorful"
)

// ITU-R BT.601 weights in fixed point.
const (
	weightRed   = 299
	weightGreen = 587
	weightBlue  = 114
	weightTotal = 1000
)

// LiftGain is the fixed channel multiplier applied by [Lift].
const LiftGain = 1.3

// Reset clears all SGR attributes: ESC [ 0 m.
var Reset = ansi.SGR(ansi.ResetAttr)

// Luminance returns (299*r + 587*g + 114*b) / 1000 with truncating division.
func Luminance(r, g, b uint8) uint8 {
	sum := weightRed*int(r) + weightGreen*int(g) + weightBlue*int(b)

	return uint8(sum / weightTotal)
}

// Lift scales v by [LiftGain], adds offset, rounds half to even and clamps
// the result to [0, 255].
func Lift(v uint8, offset int) uint8 {
	return clamp(math.RoundToEven(float64(v)*LiftGain + float64(offset)))
}

// Saturate converts r, g, b to HSV, multiplies saturation by factor, clamps it
// to [0, 1] and converts back.
func Saturate(r, g, b uint8, factor float64) (uint8, uint8, uint8) {
	c := colorful.Color{
		R: float64(r) / 255,
		G: float64(g) / 255,
		B: float64(b) / 255,
	}

	h, s, v := c.Hsv()

	s *= factor
	switch {
	case s > 1:
		s = 1
	case s < 0 || math.IsNaN(s):
		s = 0
	}

	return colorful.Hsv(h, s, v).RGB255()
}

// Enhancer boosts colored frames before they are mapped to glyphs.
type Enhancer struct {
	// Brightness is added to every channel after the fixed gain.
	Brightness int
	// Saturation multiplies the HSV saturation channel.
	Saturation float64
}

// Apply lifts and saturates every pixel of img in place.
func (e Enhancer) Apply(img *image.RGBA) {
	b := img.Bounds()

	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]

		for i := 0; i+3 < len(row); i += 4 {
			r := Lift(row[i], e.Brightness)
			g := Lift(row[i+1], e.Brightness)
			bl := Lift(row[i+2], e.Brightness)

			row[i], row[i+1], row[i+2] = Saturate(r, g, bl, e.Saturation)
		}
	}
}

// AppendForeground appends the truecolor foreground selector for r, g, b to
// dst and returns the extended slice.
func AppendForeground(dst []byte, r, g, b uint8) []byte {
	dst = append(dst, "\x1b[38;2;"...)
	dst = strconv.AppendUint(dst, uint64(r), 10)
	dst = append(dst, ';')
	dst = strconv.AppendUint(dst, uint64(g), 10)
	dst = append(dst, ';')
	dst = strconv.AppendUint(dst, uint64(b), 10)

	return append(dst, 'm')
}

// Foreground returns the truecolor foreground selector for r, g, b.
func Foreground(r, g, b uint8) string {
	return string(AppendForeground(make([]byte, 0, 19), r, g, b))
}

// Gray converts img to single-channel luminance using [Luminance]. A
// [*image.Gray] input is returned unchanged.
func Gray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}

	b := img.Bounds()
	dst := image.NewGray(b)

	if src, ok := img.(*image.RGBA); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := src.RGBAAt(x, y)
				dst.SetGray(x, y, color.Gray{Y: Luminance(c.R, c.G, c.B)})
			}
		}

		return dst
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			dst.SetGray(x, y, color.Gray{Y: Luminance(uint8(r>>8), uint8(g>>8), uint8(bl>>8))})
		}
	}

	return dst
}

func clamp(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}

	return uint8(v)
}
