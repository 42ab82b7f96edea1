package pipeline

import "errors"

// Error classes of a transcode run. Returned errors wrap one of these;
// test with errors.Is.
var (
	// ErrConfig is returned for invalid options; no image work is done
	ErrConfig = errors.New("invalid configuration")

	// ErrDecode is returned when the input is not a supported image
	ErrDecode = errors.New("image decode failed")

	// ErrIO is returned when the input cannot be read or the output written
	ErrIO = errors.New("io failure")

	// ErrEncode is returned when the encoder rejects the processed image
	ErrEncode = errors.New("image encode failed")
)
