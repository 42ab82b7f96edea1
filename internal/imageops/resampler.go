package imageops

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"github.com/tendant/simple-image-transcoder/pkg/pipeline"
)

// Resampler scales an image to an exact width and height
type Resampler interface {
	// Name returns the resampler name used in configuration
	Name() string

	// Resize returns a new width x height image; the source is not modified
	Resize(img image.Image, width, height int) *image.NRGBA
}

// ImagingResampler resizes with imaging's Lanczos filter
type ImagingResampler struct{}

// Name implements Resampler
func (ImagingResampler) Name() string { return pipeline.ResamplerImaging }

// Resize implements Resampler
func (ImagingResampler) Resize(img image.Image, width, height int) *image.NRGBA {
	return imaging.Resize(img, width, height, imaging.Lanczos)
}

// NfntResampler resizes with nfnt/resize's Lanczos3 interpolation
type NfntResampler struct{}

// Name implements Resampler
func (NfntResampler) Name() string { return pipeline.ResamplerNfnt }

// Resize implements Resampler
func (NfntResampler) Resize(img image.Image, width, height int) *image.NRGBA {
	resized := resize.Resize(uint(width), uint(height), img, resize.Lanczos3)
	// nfnt returns RGBA, RGBA64, Gray or YCbCr depending on the input
	return imaging.Clone(resized)
}

// NewResampler returns the resampler registered under name.
// An empty name selects the imaging resampler.
func NewResampler(name string) (Resampler, error) {
	switch name {
	case "", pipeline.ResamplerImaging:
		return ImagingResampler{}, nil
	case pipeline.ResamplerNfnt:
		return NfntResampler{}, nil
	default:
		return nil, fmt.Errorf("unknown resampler: %s", name)
	}
}
