// Package output wraps encoded image bytes in the requested transport.
package output

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/tendant/simple-image-transcoder/pkg/pipeline"
)

// DataURLPrefix precedes the base64 payload of a data URL
const DataURLPrefix = "data:image/jpeg;base64,"

// ErrUnknownTransport is returned for transport names that are not supported
var ErrUnknownTransport = errors.New("unknown transport encoding")

// ParseTransport maps a user supplied encoding name to a Transport.
// "jpeg" is an alias of raw and "data-url" an alias of dataurl.
func ParseTransport(name string) (pipeline.Transport, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "raw", "jpeg":
		return pipeline.TransportRaw, nil
	case "base64":
		return pipeline.TransportBase64, nil
	case "dataurl", "data-url":
		return pipeline.TransportDataURL, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTransport, name)
	}
}

// Format wraps data for the given transport. Raw output is returned as is.
func Format(data []byte, transport pipeline.Transport) ([]byte, error) {
	switch transport {
	case pipeline.TransportRaw:
		return data, nil
	case pipeline.TransportBase64:
		out := make([]byte, base64.StdEncoding.EncodedLen(len(data)))
		base64.StdEncoding.Encode(out, data)
		return out, nil
	case pipeline.TransportDataURL:
		out := make([]byte, len(DataURLPrefix)+base64.StdEncoding.EncodedLen(len(data)))
		copy(out, DataURLPrefix)
		base64.StdEncoding.Encode(out[len(DataURLPrefix):], data)
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, transport)
	}
}

// ContentType returns the MIME type of data formatted for transport
func ContentType(transport pipeline.Transport) string {
	switch transport {
	case pipeline.TransportBase64, pipeline.TransportDataURL:
		return "text/plain"
	default:
		return "image/jpeg"
	}
}
