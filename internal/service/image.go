package service

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

const (
	// MaxImageDimension bounds the longest side sent to the vision model
	MaxImageDimension = 2048
	// imageQuality is the JPEG quality used when recompressing uploads
	imageQuality = 80
)

// PrepareImage decodes an uploaded photo, scales it down so the longest
// side is at most MaxImageDimension, and re-encodes it as JPEG to bound
// the payload sent to the vision model.
func PrepareImage(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if width > MaxImageDimension || height > MaxImageDimension {
		scale := float64(MaxImageDimension) / float64(width)
		if height > width {
			scale = float64(MaxImageDimension) / float64(height)
		}
		newWidth := int(float64(width) * scale)
		newHeight := int(float64(height) * scale)

		dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: imageQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
