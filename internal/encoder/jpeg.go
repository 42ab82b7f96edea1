package encoder

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ErrInvalidImage is returned for images the encoder cannot represent
var ErrInvalidImage = errors.New("image has no pixels")

// Encoder turns an image into a compressed byte stream at a given quality
type Encoder interface {
	Encode(img image.Image, quality int) ([]byte, error)
}

// JPEGEncoder encodes with imaging's JPEG writer
type JPEGEncoder struct{}

// Encode implements Encoder. Quality is clamped to [MinQuality, MaxQuality].
func (JPEGEncoder) Encode(img image.Image, quality int) ([]byte, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrInvalidImage
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(clampQuality(quality))); err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}

	return buf.Bytes(), nil
}

func clampQuality(q int) int {
	if q < MinQuality {
		return MinQuality
	}
	if q > MaxQuality {
		return MaxQuality
	}
	return q
}
