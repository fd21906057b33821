package imageproc

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/nfnt/resize"
)

// Bounding box for stored employee images.
const (
	MaxWidth  = 1080
	MaxHeight = 1920
)

// Normalize decodes an uploaded image, scales it to fit within the
// MaxWidth x MaxHeight box preserving aspect ratio (no cropping, no upscaling),
// and re-encodes it in its original format.
func Normalize(data []byte) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	fitted := resize.Thumbnail(MaxWidth, MaxHeight, img, resize.Lanczos3)

	var buf bytes.Buffer
	switch format {
	case "png":
		err = png.Encode(&buf, fitted)
	case "gif":
		err = gif.Encode(&buf, fitted, nil)
	default:
		err = jpeg.Encode(&buf, fitted, &jpeg.Options{Quality: 90})
	}
	if err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
