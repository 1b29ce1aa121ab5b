// Package render converts decoded frames into terminal text art.
//
// The output width follows the source aspect ratio, doubled to account for
// terminal cells being about twice as tall as wide. Monochrome frames are
// reduced to luminance before resizing; colored frames are resized first and
// then boosted with [pixel.Enhancer]. Every output pixel becomes one glyph
// from a [glyph.Ramp], optionally prefixed with a 24-bit foreground escape.
//
//	r, err := render.New(render.Config{Height: 40, Colored: true, Saturation: 1.2})
//	art, err := r.Render(img)
package render
