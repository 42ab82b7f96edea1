// Package config resolves transcoder options from command-line flags,
// TRANSCODE_* environment variables and an optional config file.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/tendant/simple-image-transcoder/internal/encoder"
	"github.com/tendant/simple-image-transcoder/internal/logging"
	"github.com/tendant/simple-image-transcoder/internal/output"
	"github.com/tendant/simple-image-transcoder/pkg/pipeline"
)

// EnvPrefix prefixes every environment variable read by Load
const EnvPrefix = "TRANSCODE"

// Config holds the resolved transcoder options
type Config struct {
	Input  string `mapstructure:"-" validate:"required"`
	Output string `mapstructure:"-" validate:"required"`

	Size        int    `mapstructure:"size" default:"200" validate:"gt=0,lte=16384"`
	Quality     *int   `mapstructure:"-" validate:"omitempty,gte=0,lte=100"`
	MaxFilesize *int   `mapstructure:"-" validate:"omitempty,gt=0"`
	QualityStep int    `mapstructure:"quality-step" default:"10" validate:"gte=1,lte=100"`
	Circle      bool   `mapstructure:"circle"`
	Grayscale   bool   `mapstructure:"grayscale"`
	Encoding    string `mapstructure:"encoding" default:"raw" validate:"oneof=raw jpeg base64 dataurl data-url"`
	Resampler   string `mapstructure:"resampler" default:"imaging" validate:"oneof=imaging nfnt"`
	MetricsFile string `mapstructure:"metrics-file"`
	ConfigFile  string `mapstructure:"config"`
	ShowVersion bool   `mapstructure:"version"`

	Log logging.Config `mapstructure:"log"`
}

// Default returns the configuration used when nothing is overridden
func Default() Config {
	cfg := Config{Log: logging.DefaultConfig()}
	if err := defaults.Set(&cfg); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return cfg
}

// NewFlagSet defines the command-line flags, using Default for their defaults
func NewFlagSet(name string) *pflag.FlagSet {
	def := Default()
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false

	fs.IntP("size", "s", def.Size, "side length of the square output in pixels")
	fs.IntP("quality", "q", encoder.DefaultQuality, "JPEG quality 0-100; with --max-filesize it pins the quality instead of searching")
	fs.BoolP("circle", "c", false, "crop the image to its inscribed circle")
	fs.BoolP("grayscale", "g", false, "convert the image to grayscale")
	fs.IntP("max-filesize", "m", 0, "maximum output size in bytes; searches for the highest quality that fits")
	fs.Int("quality-step", def.QualityStep, "quality decrement per step of the size search")
	fs.StringP("encoding", "e", def.Encoding, "output encoding: raw, jpeg, base64 or dataurl")
	fs.String("resampler", def.Resampler, "resampling implementation: imaging or nfnt")
	fs.String("log-level", def.Log.Level, "log level: debug, info, warn or error")
	fs.String("log-format", def.Log.Format, "log format: console or json")
	fs.String("metrics-file", "", "write Prometheus metrics to this file after the run")
	fs.String("config", "", "optional config file (yaml, json or toml)")
	fs.BoolP("version", "v", false, "print the version and exit")

	return fs
}

// Load parses args with fs and merges flags, environment and the optional
// config file, in that order of precedence. The result is not validated.
func Load(fs *pflag.FlagSet, args []string) (*Config, error) {
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %w", pipeline.ErrConfig, err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if err := bindFlags(v, fs); err != nil {
		return nil, fmt.Errorf("%w: %v", pipeline.ErrConfig, err)
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: failed to read config file %s: %v", pipeline.ErrConfig, path, err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", pipeline.ErrConfig, err)
	}

	// Unset and default are different for these two
	if v.IsSet("quality") {
		q := v.GetInt("quality")
		cfg.Quality = &q
	}
	if v.IsSet("max-filesize") {
		m := v.GetInt("max-filesize")
		cfg.MaxFilesize = &m
	}

	positional := fs.Args()
	if len(positional) > 2 {
		return nil, fmt.Errorf("%w: unexpected arguments: %s", pipeline.ErrConfig, strings.Join(positional[2:], " "))
	}
	if len(positional) > 0 {
		cfg.Input = positional[0]
	}
	if len(positional) > 1 {
		cfg.Output = positional[1]
	}

	return &cfg, nil
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	keys := map[string]string{
		"log-level":  "log.level",
		"log-format": "log.format",
	}

	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		key, ok := keys[f.Name]
		if !ok {
			key = f.Name
		}
		if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
			bindErr = err
		}
	})
	return bindErr
}

var validate = validator.New()

// Validate checks every option; failures wrap pipeline.ErrConfig
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, describe(fe))
			}
			return fmt.Errorf("%w: %s", pipeline.ErrConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", pipeline.ErrConfig, err)
	}

	if _, err := output.ParseTransport(c.Encoding); err != nil {
		return fmt.Errorf("%w: %v", pipeline.ErrConfig, err)
	}

	return nil
}

func describe(fe validator.FieldError) string {
	name := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", name, fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s must satisfy %s=%s, got %v", name, fe.Tag(), fe.Param(), fe.Value())
	}
}

// EncodingConfig converts the options into the pipeline's encoding config.
// Call Validate first.
func (c *Config) EncodingConfig() (pipeline.EncodingConfig, error) {
	transport, err := output.ParseTransport(c.Encoding)
	if err != nil {
		return pipeline.EncodingConfig{}, fmt.Errorf("%w: %v", pipeline.ErrConfig, err)
	}

	return pipeline.EncodingConfig{
		Size:        c.Size,
		Circle:      c.Circle,
		Grayscale:   c.Grayscale,
		Quality:     c.Quality,
		MaxBytes:    c.MaxFilesize,
		QualityStep: c.QualityStep,
		Transport:   transport,
		Resampler:   c.Resampler,
	}, nil
}
