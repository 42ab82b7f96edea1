package pipeline

// ProcessRequest represents a request to transcode one image
type ProcessRequest struct {
	Job    string         `json:"job"` // transcode
	Input  string         `json:"input"`
	Output string         `json:"output"`
	Config EncodingConfig `json:"config"`
}

// ProcessResponse represents the outcome of a transcode run
type ProcessResponse struct {
	RunID     string `json:"run_id"`
	Quality   int    `json:"quality"`
	Bytes     int    `json:"bytes"`
	Attempts  int    `json:"attempts"`
	BudgetMet bool   `json:"budget_met"`
}

// MaxSize is the largest accepted output side length in pixels
const MaxSize = 16384

// EncodingConfig describes how a source image becomes the output artifact.
//
// Without MaxBytes, Quality is a fixed value (75 when nil). With MaxBytes
// and a nil Quality, the encoder searches downward from 100 for the first
// quality that fits. With both set, the run is in pinned mode
// (encoder.ModePinned): Quality is encoded once and the response reports
// whether it met the budget; no search takes place.
type EncodingConfig struct {
	Size        int       `json:"size"`
	Circle      bool      `json:"circle"`
	Grayscale   bool      `json:"grayscale"`
	Quality     *int      `json:"quality,omitempty"`
	MaxBytes    *int      `json:"max_bytes,omitempty"`
	QualityStep int       `json:"quality_step"`
	Transport   Transport `json:"transport"`
	Resampler   string    `json:"resampler"`
}

// Transport is the wrapping applied to the encoded bytes before they are written
type Transport string

// Transport constants
const (
	TransportRaw     Transport = "raw"
	TransportBase64  Transport = "base64"
	TransportDataURL Transport = "dataurl"
)

// JobType constants
const (
	JobTranscode = "transcode"
)

// Resampler constants
const (
	ResamplerImaging = "imaging"
	ResamplerNfnt    = "nfnt"
)
