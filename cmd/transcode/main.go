package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/tendant/simple-image-transcoder/internal/config"
	"github.com/tendant/simple-image-transcoder/internal/logging"
	"github.com/tendant/simple-image-transcoder/pkg/pipeline"
	"github.com/tendant/simple-image-transcoder/pkg/runner"
	"go.uber.org/zap"
)

var version = "dev"

// Exit codes
const (
	exitOK      = 0
	exitFailure = 1
	exitConfig  = 2
)

func main() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(exitCode(err))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := config.NewFlagSet("transcode")
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: transcode [flags] <input> <output>\n\nFlags:\n")
		fs.PrintDefaults()
	}

	cfg, err := config.Load(fs, args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return err
	}

	if cfg.ShowVersion {
		fmt.Fprintf(stdout, "transcode version %s\n", version)
		return nil
	}

	logger := logging.New(cfg.Log)
	defer logger.Sync()

	// Configuration errors stop the run before any image work
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", zap.Error(err))
		fs.Usage()
		return err
	}
	encCfg, err := cfg.EncodingConfig()
	if err != nil {
		logger.Error("Invalid configuration", zap.Error(err))
		return err
	}

	transcoder, err := runner.New(runner.Config{Logger: logger})
	if err != nil {
		logger.Error("Failed to initialize transcoder", zap.Error(err))
		return err
	}

	resp, runErr := transcoder.Transcode(ctx, cfg.Input, cfg.Output, encCfg)

	if cfg.MetricsFile != "" {
		if err := transcoder.WriteMetrics(cfg.MetricsFile); err != nil {
			logger.Warn("Failed to write metrics", zap.Error(err))
		}
	}

	if runErr != nil {
		logger.Error("Transcode failed", zap.Error(runErr))
		return runErr
	}

	logger.Debug("Transcode finished",
		zap.String("run_id", resp.RunID),
		zap.Int("quality", resp.Quality),
		zap.Int("bytes", resp.Bytes),
	)
	return nil
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, pipeline.ErrConfig):
		return exitConfig
	default:
		return exitFailure
	}
}
