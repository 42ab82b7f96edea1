package config

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-image-transcoder/pkg/pipeline"
)

func load(t *testing.T, args ...string) *Config {
	t.Helper()
	cfg, err := Load(NewFlagSet("transcode"), args)
	require.NoError(t, err)
	return cfg
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 200, cfg.Size)
	assert.Equal(t, 10, cfg.QualityStep)
	assert.Equal(t, "raw", cfg.Encoding)
	assert.Equal(t, pipeline.ResamplerImaging, cfg.Resampler)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Nil(t, cfg.Quality)
	assert.Nil(t, cfg.MaxFilesize)
}

func TestLoad_Flags(t *testing.T) {
	cfg := load(t, "-s", "100", "--circle", "-g", "--encoding", "base64", "in.png", "out.txt")

	assert.Equal(t, "in.png", cfg.Input)
	assert.Equal(t, "out.txt", cfg.Output)
	assert.Equal(t, 100, cfg.Size)
	assert.True(t, cfg.Circle)
	assert.True(t, cfg.Grayscale)
	assert.Equal(t, "base64", cfg.Encoding)
	assert.Nil(t, cfg.Quality, "quality was not given")
	assert.Nil(t, cfg.MaxFilesize, "max filesize was not given")
	require.NoError(t, cfg.Validate())
}

func TestLoad_OptionalNumbers(t *testing.T) {
	cfg := load(t, "-q", "80", "--max-filesize", "5000", "--quality-step", "5", "in.png", "out.jpg")

	require.NotNil(t, cfg.Quality)
	assert.Equal(t, 80, *cfg.Quality)
	require.NotNil(t, cfg.MaxFilesize)
	assert.Equal(t, 5000, *cfg.MaxFilesize)
	assert.Equal(t, 5, cfg.QualityStep)
}

func TestLoad_EnvAndPrecedence(t *testing.T) {
	t.Setenv("TRANSCODE_SIZE", "321")
	t.Setenv("TRANSCODE_QUALITY", "60")
	t.Setenv("TRANSCODE_LOG_LEVEL", "debug")

	cfg := load(t, "in.png", "out.jpg")
	assert.Equal(t, 321, cfg.Size)
	require.NotNil(t, cfg.Quality)
	assert.Equal(t, 60, *cfg.Quality)
	assert.Equal(t, "debug", cfg.Log.Level)

	cfg = load(t, "--size", "64", "in.png", "out.jpg")
	assert.Equal(t, 64, cfg.Size, "flags override the environment")
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcode.yaml")
	content := "size: 128\ncircle: true\nmax-filesize: 4096\nencoding: dataurl\nlog:\n  format: json\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := load(t, "--config", path, "in.png", "out.txt")
	assert.Equal(t, 128, cfg.Size)
	assert.True(t, cfg.Circle)
	require.NotNil(t, cfg.MaxFilesize)
	assert.Equal(t, 4096, *cfg.MaxFilesize)
	assert.Equal(t, "dataurl", cfg.Encoding)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Nil(t, cfg.Quality)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(NewFlagSet("transcode"), []string{"--no-such-flag", "in.png", "out.jpg"})
	assert.ErrorIs(t, err, pipeline.ErrConfig)

	_, err = Load(NewFlagSet("transcode"), []string{"--size", "abc", "in.png", "out.jpg"})
	assert.ErrorIs(t, err, pipeline.ErrConfig)

	_, err = Load(NewFlagSet("transcode"), []string{"a", "b", "c"})
	assert.ErrorIs(t, err, pipeline.ErrConfig)

	_, err = Load(NewFlagSet("transcode"), []string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "a", "b"})
	assert.ErrorIs(t, err, pipeline.ErrConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown encoding", []string{"--encoding", "unknown", "in.png", "out.jpg"}},
		{"zero size", []string{"--size", "0", "in.png", "out.jpg"}},
		{"size above limit", []string{"--size", strconv.Itoa(pipeline.MaxSize + 1), "in.png", "out.jpg"}},
		{"huge size", []string{"--size", "5000000000", "in.png", "out.jpg"}},
		{"quality above range", []string{"-q", "101", "in.png", "out.jpg"}},
		{"negative quality", []string{"-q", "-1", "in.png", "out.jpg"}},
		{"zero max filesize", []string{"-m", "0", "in.png", "out.jpg"}},
		{"zero quality step", []string{"--quality-step", "0", "in.png", "out.jpg"}},
		{"unknown resampler", []string{"--resampler", "bicubic", "in.png", "out.jpg"}},
		{"missing output", []string{"in.png"}},
		{"missing input", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := load(t, tt.args...)
			assert.ErrorIs(t, cfg.Validate(), pipeline.ErrConfig)
		})
	}
}

func TestValidate_SizeLimit(t *testing.T) {
	cfg := load(t, "--size", strconv.Itoa(pipeline.MaxSize), "in.png", "out.jpg")
	assert.NoError(t, cfg.Validate())
}

func TestEncodingConfig(t *testing.T) {
	cfg := load(t, "-s", "50", "-e", "data-url", "-q", "40", "-m", "900", "--resampler", "nfnt", "in.png", "out.txt")
	require.NoError(t, cfg.Validate())

	enc, err := cfg.EncodingConfig()
	require.NoError(t, err)
	assert.Equal(t, 50, enc.Size)
	assert.Equal(t, pipeline.TransportDataURL, enc.Transport)
	assert.Equal(t, 40, *enc.Quality)
	assert.Equal(t, 900, *enc.MaxBytes)
	assert.Equal(t, 10, enc.QualityStep)
	assert.Equal(t, pipeline.ResamplerNfnt, enc.Resampler)

	cfg.Encoding = "jpeg"
	enc, err = cfg.EncodingConfig()
	require.NoError(t, err)
	assert.Equal(t, pipeline.TransportRaw, enc.Transport)
}
