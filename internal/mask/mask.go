// Package mask decides which pixels of a square image fall inside its
// inscribed circle.
package mask

// DefaultBlockSize matches the 8x8 block size of JPEG so the mask edge
// follows compression block boundaries.
const DefaultBlockSize = 8

// InCircle reports whether the point (x, y) lies strictly inside the circle
// inscribed in a square of the given diameter.
func InCircle(x, y, diameter int64) bool {
	radius := diameter / 2
	dx := radius - x
	dy := radius - y
	return dx*dx+dy*dy < radius*radius
}

// BlockInCircle reports whether the pixel (x, y) is retained when the mask
// is evaluated per blockSize x blockSize block. A block is kept if any of
// the four points one pixel outside its corners lies inside the circle, so
// only blocks entirely outside the circle are dropped.
func BlockInCircle(x, y, diameter, blockSize int) bool {
	if blockSize <= 0 {
		blockSize = 1
	}

	d := int64(diameter)
	b := int64(blockSize)
	ox := int64(x) - int64(x)%b
	oy := int64(y) - int64(y)%b

	return InCircle(ox-1, oy-1, d) ||
		InCircle(ox+b, oy-1, d) ||
		InCircle(ox-1, oy+b, d) ||
		InCircle(ox+b, oy+b, d)
}
