// Package imageops holds the pixel stages of a transcode: resizing,
// circular masking and grayscale conversion. Every stage returns a newly
// allocated image and never writes to its input.
package imageops

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/tendant/simple-image-transcoder/pkg/pipeline"
)

var (
	// ErrInvalidSize is returned when the target side length is not positive
	ErrInvalidSize = errors.New("target size must be positive")

	// ErrEmptySource is returned when the source image has no pixels
	ErrEmptySource = errors.New("source image is empty")
)

// Transform resizes src to cfg.Size x cfg.Size, applying the circular crop
// first and the grayscale conversion second when requested.
// Transparent sources are composited onto Background before resizing.
// The result is *image.NRGBA for colour output and *image.Gray otherwise.
func Transform(src image.Image, cfg pipeline.EncodingConfig, resampler Resampler) (image.Image, error) {
	if cfg.Size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, cfg.Size)
	}
	if src == nil || src.Bounds().Empty() {
		return nil, ErrEmptySource
	}
	if resampler == nil {
		resampler = ImagingResampler{}
	}
	src = flatten(src)

	var resized *image.NRGBA
	if cfg.Circle {
		resized = CropToCircle(src, cfg.Size, resampler)
	} else {
		resized = resampler.Resize(src, cfg.Size, cfg.Size)
	}

	if cfg.Grayscale {
		return ToGray(resized), nil
	}

	return resized, nil
}

// flatten returns src unchanged when it is opaque and otherwise a copy
// composited onto an opaque Background canvas
func flatten(src image.Image) image.Image {
	if o, ok := src.(interface{ Opaque() bool }); ok && o.Opaque() {
		return src
	}
	bounds := src.Bounds()
	canvas := imaging.New(bounds.Dx(), bounds.Dy(), Background)
	return imaging.Overlay(canvas, src, image.Pt(0, 0), 1.0)
}

// ToGray converts img to a single channel luminance image
func ToGray(img image.Image) *image.Gray {
	desaturated := imaging.Grayscale(img)
	bounds := desaturated.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	// imaging writes the same luminance to R, G and B
	for y := 0; y < bounds.Dy(); y++ {
		src := desaturated.Pix[y*desaturated.Stride:]
		dst := gray.Pix[y*gray.Stride:]
		for x := 0; x < bounds.Dx(); x++ {
			dst[x] = src[x*4]
		}
	}

	return gray
}
