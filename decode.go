package imgpdf

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF
	_ "image/jpeg" // register JPEG
	_ "image/png"  // register PNG

	_ "golang.org/x/image/bmp"  // register BMP
	_ "golang.org/x/image/webp" // register WebP
)

// DecodeConfig reads only the image header in data and returns its pixel
// dimensions and format name ("png", "jpeg", "gif", "bmp", "webp").
func DecodeConfig(data []byte) (width, height int, format string, err error) {
	if len(data) == 0 {
		return 0, 0, "", errors.New("imgpdf: empty image data")
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, "", fmt.Errorf("imgpdf: decoding image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, "", fmt.Errorf("imgpdf: invalid image size %dx%d", cfg.Width, cfg.Height)
	}
	return cfg.Width, cfg.Height, format, nil
}
