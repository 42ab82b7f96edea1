package workflows

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/tendant/simple-image-transcoder/internal/encoder"
	"github.com/tendant/simple-image-transcoder/internal/imageops"
	"github.com/tendant/simple-image-transcoder/internal/metrics"
	"github.com/tendant/simple-image-transcoder/internal/output"
	"github.com/tendant/simple-image-transcoder/internal/storage"
	"github.com/tendant/simple-image-transcoder/pkg/pipeline"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// TranscodeWorkflow reads an image, transforms it, encodes it within the
// requested size budget and writes the formatted result
type TranscodeWorkflow struct {
	reader  storage.Reader
	writer  storage.Writer
	encoder encoder.Encoder
	logger  *zap.Logger
	metrics *metrics.Collector
}

// TranscodeOption configures a TranscodeWorkflow
type TranscodeOption func(*TranscodeWorkflow)

// WithEncoder replaces the JPEG encoder
func WithEncoder(enc encoder.Encoder) TranscodeOption {
	return func(w *TranscodeWorkflow) { w.encoder = enc }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) TranscodeOption {
	return func(w *TranscodeWorkflow) { w.logger = logger }
}

// WithMetrics records attempts and runs in collector
func WithMetrics(collector *metrics.Collector) TranscodeOption {
	return func(w *TranscodeWorkflow) { w.metrics = collector }
}

// NewTranscodeWorkflow creates a new transcode workflow
func NewTranscodeWorkflow(reader storage.Reader, writer storage.Writer, opts ...TranscodeOption) *TranscodeWorkflow {
	w := &TranscodeWorkflow{
		reader:  reader,
		writer:  writer,
		encoder: encoder.JPEGEncoder{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Name returns the workflow name
func (w *TranscodeWorkflow) Name() string {
	return "TranscodeWorkflow"
}

// Execute runs the transcode workflow
func (w *TranscodeWorkflow) Execute(wctx *WorkflowContext) (*WorkflowResult, error) {
	req := wctx.Request
	cfg := req.Config
	logger := w.logger.With(zap.String("run_id", wctx.RunID))

	logger.Info("Starting transcode workflow",
		zap.String("input", req.Input),
		zap.String("output", req.Output),
	)

	// Step 1: Validate request before touching any file
	resampler, err := w.validateRequest(&req)
	if err != nil {
		logger.Error("Validation failed", zap.Error(err))
		return failed(err)
	}

	if err := wctx.Ctx.Err(); err != nil {
		return failed(err)
	}

	// Step 2: Check the source exists and is not empty
	meta, err := w.reader.GetMetadata(wctx.Ctx, req.Input)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			logger.Error("Input not found", zap.String("input", req.Input))
			return failed(fmt.Errorf("%w: input not found: %s", ErrIO, req.Input))
		}
		logger.Error("Failed to stat input", zap.Error(err))
		return failed(fmt.Errorf("%w: %s: %v", ErrIO, req.Input, err))
	}
	if meta.Size == 0 {
		logger.Error("Input is empty", zap.String("input", req.Input))
		return failed(fmt.Errorf("%w: %s: empty file", ErrDecode, req.Input))
	}
	logger.Debug("Input found",
		zap.Int64("bytes", meta.Size),
		zap.String("content_type", meta.ContentType),
	)

	// Step 3: Read and decode the source image
	src, format, err := w.load(wctx, req.Input)
	if err != nil {
		logger.Error("Failed to load input", zap.Error(err))
		return failed(err)
	}
	bounds := src.Bounds()
	logger.Info("Image decoded",
		zap.String("format", format),
		zap.Int("width", bounds.Dx()),
		zap.Int("height", bounds.Dy()),
	)

	// Step 4: Resize, mask and desaturate
	processed, err := imageops.Transform(src, cfg, resampler)
	if err != nil {
		logger.Error("Transform failed", zap.Error(err))
		if errors.Is(err, imageops.ErrEmptySource) {
			return failed(fmt.Errorf("%w: %v", ErrDecode, err))
		}
		return failed(fmt.Errorf("%w: %v", ErrConfig, err))
	}
	logger.Debug("Image transformed",
		zap.Int("size", cfg.Size),
		zap.Bool("circle", cfg.Circle),
		zap.Bool("grayscale", cfg.Grayscale),
		zap.String("resampler", resampler.Name()),
	)

	// Step 5: Encode within the size budget
	budget := encoder.Budget{Quality: cfg.Quality, MaxBytes: cfg.MaxBytes, Step: cfg.QualityStep}
	observer := encoder.ObserverFunc(func(quality, size int) {
		logger.Info("Encoded attempt", zap.Int("quality", quality), zap.Int("bytes", size))
	})
	var collector encoder.Observer
	if w.metrics != nil {
		collector = w.metrics
	}
	artifact, err := encoder.NewBudgetEncoder(w.encoder, encoder.Observers(observer, collector)).Encode(processed, budget)
	if err != nil {
		logger.Error("Encode failed", zap.Error(err))
		return failed(fmt.Errorf("%w: %v", ErrEncode, err))
	}
	if !artifact.BudgetMet {
		logger.Warn("Size budget not met, writing smallest attempt",
			zap.Int("max_bytes", *cfg.MaxBytes),
			zap.Int("bytes", artifact.Size),
			zap.Int("quality", artifact.Quality),
		)
	}
	if w.metrics != nil {
		w.metrics.ObserveArtifact(artifact)
	}

	// Step 6: Wrap in the requested transport
	formatted, err := output.Format(artifact.Data, cfg.Transport)
	if err != nil {
		return failed(fmt.Errorf("%w: %v", ErrConfig, err))
	}

	// Step 7: Write output
	written, err := w.writer.Put(wctx.Ctx, req.Output, bytes.NewReader(formatted))
	if err != nil {
		logger.Error("Failed to write output", zap.Error(err))
		return failed(fmt.Errorf("%w: %s: %v", ErrIO, req.Output, err))
	}

	logger.Info("Transcode workflow completed successfully",
		zap.String("mode", string(artifact.Mode)),
		zap.Int("quality", artifact.Quality),
		zap.Int("attempts", artifact.Attempts),
		zap.Int("bytes", artifact.Size),
		zap.Int64("written", written),
		zap.Bool("budget_met", artifact.BudgetMet),
	)

	return &WorkflowResult{
		Success: true,
		Response: &pipeline.ProcessResponse{
			RunID:     wctx.RunID,
			Quality:   artifact.Quality,
			Bytes:     artifact.Size,
			Attempts:  artifact.Attempts,
			BudgetMet: artifact.BudgetMet,
		},
		Outputs: map[string]interface{}{
			"output":     req.Output,
			"mime_type":  output.ContentType(cfg.Transport),
			"width":      strconv.Itoa(cfg.Size),
			"height":     strconv.Itoa(cfg.Size),
			"quality":    artifact.Quality,
			"bytes":      artifact.Size,
			"written":    written,
			"budget_met": artifact.BudgetMet,
		},
	}, nil
}

// load reads the input fully and decodes it, honouring EXIF orientation
func (w *TranscodeWorkflow) load(wctx *WorkflowContext, key string) (image.Image, string, error) {
	reader, err := w.reader.GetReader(wctx.Ctx, key)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %v", ErrIO, key, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %v", ErrIO, key, err)
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %v", ErrDecode, key, err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %v", ErrDecode, key, err)
	}

	return img, format, nil
}

// validateRequest validates the workflow request and resolves its resampler
func (w *TranscodeWorkflow) validateRequest(req *pipeline.ProcessRequest) (imageops.Resampler, error) {
	if req.Input == "" {
		return nil, fmt.Errorf("%w: input path is required", ErrConfig)
	}
	if req.Output == "" {
		return nil, fmt.Errorf("%w: output path is required", ErrConfig)
	}

	cfg := req.Config
	if cfg.Size <= 0 || cfg.Size > pipeline.MaxSize {
		return nil, fmt.Errorf("%w: size must be between 1 and %d, got %d", ErrConfig, pipeline.MaxSize, cfg.Size)
	}
	if cfg.Quality != nil && (*cfg.Quality < encoder.MinQuality || *cfg.Quality > encoder.MaxQuality) {
		return nil, fmt.Errorf("%w: quality must be between %d and %d, got %d", ErrConfig, encoder.MinQuality, encoder.MaxQuality, *cfg.Quality)
	}
	if cfg.MaxBytes != nil && *cfg.MaxBytes <= 0 {
		return nil, fmt.Errorf("%w: max filesize must be positive, got %d", ErrConfig, *cfg.MaxBytes)
	}
	if cfg.QualityStep < 0 || cfg.QualityStep > encoder.MaxQuality {
		return nil, fmt.Errorf("%w: quality step must be between 1 and %d, got %d", ErrConfig, encoder.MaxQuality, cfg.QualityStep)
	}
	if _, err := output.Format(nil, cfg.Transport); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	resampler, err := imageops.NewResampler(cfg.Resampler)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	return resampler, nil
}

func failed(err error) (*WorkflowResult, error) {
	return &WorkflowResult{
		Success: false,
		Error:   err,
	}, err
}
