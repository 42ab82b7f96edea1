package workflows

import (
	"errors"

	"github.com/tendant/simple-image-transcoder/pkg/pipeline"
)

var (
	// ErrWorkflowNotFound is returned when a workflow is not registered
	ErrWorkflowNotFound = errors.New("workflow not found")

	// Re-exported so workflow callers need a single import
	ErrConfig = pipeline.ErrConfig
	ErrDecode = pipeline.ErrDecode
	ErrIO     = pipeline.ErrIO
	ErrEncode = pipeline.ErrEncode
)
