package media

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoding for still images.
	_ "image/jpeg" // Register JPEG decoding.
	_ "image/png"  // Register PNG decoding.

	_ "golang.org/x/image/bmp"  // Register BMP decoding.
	_ "golang.org/x/image/tiff" // Register TIFF decoding.
	_ "golang.org/x/image/webp" // Register WebP decoding.

	"github.com/ArbuzKaktus/ascii-converter/pixel"
)

// OpenImage decodes a single still image. When colored is false the result
// is reduced to luminance.
func OpenImage(path string, colored bool) (image.Image, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}

	defer closeQuietly(f)

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}

	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: %s: %s image has no pixels", ErrDecode, path, format)
	}

	if !colored {
		return pixel.Gray(img), nil
	}

	return img, nil
}
