package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-image-transcoder/internal/metrics"
	"github.com/tendant/simple-image-transcoder/internal/storage"
	"github.com/tendant/simple-image-transcoder/internal/workflows"
	"github.com/tendant/simple-image-transcoder/pkg/pipeline"
	"go.uber.org/zap"
)

// Config holds the configuration for initializing the transcode runner
type Config struct {
	BaseDir string      // Optional: resolve and confine paths to this directory
	Logger  *zap.Logger // Optional: defaults to a no-op logger
}

// Runner provides a high-level API for running transcode workflows
type Runner struct {
	runner  *workflows.WorkflowRunner
	metrics *metrics.Collector
	logger  *zap.Logger
}

// New creates and initializes a new transcode runner
func New(cfg Config) (*Runner, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// Setup storage adapters
	fs, err := storage.NewFilesystemStorage(cfg.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	collector := metrics.NewCollector()

	// Create workflow runner and register the transcode workflow
	workflowRunner := workflows.NewWorkflowRunner()
	transcodeWorkflow := workflows.NewTranscodeWorkflow(fs, fs,
		workflows.WithLogger(logger),
		workflows.WithMetrics(collector),
	)
	workflowRunner.Register(pipeline.JobTranscode, transcodeWorkflow)
	logger.Debug("Registered workflow",
		zap.String("workflow", transcodeWorkflow.Name()),
		zap.String("job", pipeline.JobTranscode),
	)

	return &Runner{
		runner:  workflowRunner,
		metrics: collector,
		logger:  logger,
	}, nil
}

// Transcode runs one transcode synchronously and returns its outcome.
// A size budget that cannot be met is not an error; check BudgetMet.
func (r *Runner) Transcode(ctx context.Context, input, output string, cfg pipeline.EncodingConfig) (*pipeline.ProcessResponse, error) {
	start := time.Now()

	wctx := &workflows.WorkflowContext{
		Ctx: ctx,
		Request: pipeline.ProcessRequest{
			Job:    pipeline.JobTranscode,
			Input:  input,
			Output: output,
			Config: cfg,
		},
		RunID: uuid.New().String(),
	}

	result, err := r.runner.Run(wctx)
	if err == nil && !result.Success {
		err = result.Error
	}
	if err != nil {
		r.metrics.ObserveRun(metrics.StatusFailure, time.Since(start))
		return nil, err
	}

	r.metrics.ObserveRun(metrics.StatusSuccess, time.Since(start))
	return result.Response, nil
}

// WriteMetrics writes the metrics gathered so far to path in the
// Prometheus text format
func (r *Runner) WriteMetrics(path string) error {
	if err := r.metrics.WriteTextfile(path); err != nil {
		return fmt.Errorf("%w: failed to write metrics to %s: %v", pipeline.ErrIO, path, err)
	}
	return nil
}
