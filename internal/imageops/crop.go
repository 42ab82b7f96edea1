package imageops

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/tendant/simple-image-transcoder/internal/mask"
)

// Background fills every pixel the circular mask discards
var Background = color.NRGBA{R: 0, G: 0, B: 0, A: 255}

// CropToCircle resizes src to side x side and keeps only the blocks that
// fall inside the inscribed circle. Discarded pixels are left at Background
// and kept pixels are made fully opaque, so the result carries no
// transparency.
func CropToCircle(src image.Image, side int, resampler Resampler) *image.NRGBA {
	if side <= 0 {
		return &image.NRGBA{}
	}

	resized := resampler.Resize(src, side, side)
	out := imaging.New(side, side, Background)

	for y := 0; y < side; y++ {
		srcRow := resized.Pix[y*resized.Stride:]
		dstRow := out.Pix[y*out.Stride:]
		for x := 0; x < side; x++ {
			if !mask.BlockInCircle(x, y, side, mask.DefaultBlockSize) {
				continue
			}
			i := x * 4
			dstRow[i+0] = srcRow[i+0]
			dstRow[i+1] = srcRow[i+1]
			dstRow[i+2] = srcRow[i+2]
			dstRow[i+3] = 0xff
		}
	}

	return out
}
