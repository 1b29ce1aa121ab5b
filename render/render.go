package render

import (
	"errors"
	"fmt"
	"image"
	"unicode/utf8"

	"golang.org/x/image/draw"

	"github.com/ArbuzKaktus/ascii-converter/glyph"
	"github.com/ArbuzKaktus/ascii-converter/pixel"
)

// AspectCorrection widens the output to compensate for terminal cells being
// roughly twice as tall as they are wide.
const AspectCorrection = 2.0

// Sentinel errors returned by the renderer.
var (
	ErrEmptyFrame    = errors.New("empty frame")
	ErrInvalidConfig = errors.New("invalid render config")
)

// Config holds the parameters for one conversion. It is immutable once
// passed to [New].
type Config struct {
	// Height is the number of output rows.
	Height int
	// Colored enables truecolor output with brightness and saturation boost.
	Colored bool
	// Brightness is added to every channel in colored mode.
	Brightness int
	// Saturation multiplies HSV saturation in colored mode.
	Saturation float64
	// Reverse traverses the glyph ramp from brightest to darkest.
	Reverse bool
}

// Renderer converts frames into text art.
//
// A Renderer reuses its output buffer between calls and is not safe for
// concurrent use. Create instances with [New].
type Renderer struct {
	scaler draw.Scaler
	ramp   glyph.Ramp
	buf    []byte
	cfg    Config
}

// Option configures a [Renderer].
type Option func(*Renderer)

// WithRamp replaces the default glyph ramp. The ramp direction is still
// taken from [Config.Reverse].
func WithRamp(r glyph.Ramp) Option {
	return func(rd *Renderer) {
		rd.ramp = r
	}
}

// WithScaler replaces the resize interpolator. The default is
// [draw.BiLinear].
func WithScaler(s draw.Scaler) Option {
	return func(rd *Renderer) {
		rd.scaler = s
	}
}

// New creates a [Renderer] for cfg.
func New(cfg Config, opts ...Option) (*Renderer, error) {
	if cfg.Height < 1 {
		return nil, fmt.Errorf("%w: height must be positive, got %d", ErrInvalidConfig, cfg.Height)
	}

	r := &Renderer{
		cfg:    cfg,
		ramp:   glyph.Default(),
		scaler: draw.BiLinear,
	}

	for _, opt := range opts {
		opt(r)
	}

	r.ramp.Reverse = cfg.Reverse

	return r, nil
}

// Config returns the configuration the renderer was created with.
func (r *Renderer) Config() Config {
	return r.cfg
}

// TargetWidth returns the output width for a cols x rows source rendered at
// height rows: cols * (height/rows) * [AspectCorrection], truncated and never
// less than 1.
func TargetWidth(cols, rows, height int) int {
	if rows <= 0 {
		return 1
	}

	w := int(float64(cols) * (float64(height) / float64(rows)) * AspectCorrection)
	if w < 1 {
		return 1
	}

	return w
}

// Render converts img into text art. An empty frame yields "" and
// [ErrEmptyFrame]; callers are expected to log it and move on.
func (r *Renderer) Render(img image.Image) (string, error) {
	if img == nil || img.Bounds().Empty() {
		return "", ErrEmptyFrame
	}

	b := img.Bounds()
	w := TargetWidth(b.Dx(), b.Dy(), r.cfg.Height)
	h := r.cfg.Height

	r.buf = r.buf[:0]

	if r.cfg.Colored {
		r.renderColor(img, w, h)
	} else {
		r.renderMono(img, w, h)
	}

	return string(r.buf), nil
}

// renderMono converts to luminance first, then resizes.
func (r *Renderer) renderMono(img image.Image, w, h int) {
	gray := pixel.Gray(img)

	dst := image.NewGray(image.Rect(0, 0, w, h))
	r.scaler.Scale(dst, dst.Bounds(), gray, gray.Bounds(), draw.Src, nil)

	for y := range h {
		row := dst.Pix[y*dst.Stride : y*dst.Stride+w]
		for _, v := range row {
			r.buf = utf8.AppendRune(r.buf, r.ramp.At(v))
		}

		r.buf = append(r.buf, '\n')
	}
}

// renderColor resizes, boosts, then emits one truecolor glyph per pixel.
func (r *Renderer) renderColor(img image.Image, w, h int) {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	r.scaler.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	pixel.Enhancer{
		Brightness: r.cfg.Brightness,
		Saturation: r.cfg.Saturation,
	}.Apply(dst)

	if cap(r.buf) < w*h*20 {
		r.buf = make([]byte, 0, w*h*20)
	}

	for y := range h {
		for x := range w {
			c := dst.RGBAAt(x, y)

			r.buf = pixel.AppendForeground(r.buf, c.R, c.G, c.B)
			r.buf = utf8.AppendRune(r.buf, r.ramp.At(pixel.Luminance(c.R, c.G, c.B)))
		}

		r.buf = append(r.buf, pixel.Reset...)
		r.buf = append(r.buf, '\n')
	}
}
