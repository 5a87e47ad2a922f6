package gentrun

import (
	"context"
	"errors"
	"fmt"
)

// -----------------------------------------------------------------------------
// Model Errors
// -----------------------------------------------------------------------------

// ModelErrorCode classifies a model-client failure.
type ModelErrorCode string

const (
	ModelErrProvider        ModelErrorCode = "PROVIDER_ERROR"
	ModelErrNetwork         ModelErrorCode = "NETWORK_ERROR"
	ModelErrAuthentication  ModelErrorCode = "AUTHENTICATION_ERROR"
	ModelErrRateLimit       ModelErrorCode = "RATE_LIMIT_ERROR"
	ModelErrContextLength   ModelErrorCode = "CONTEXT_LENGTH_ERROR"
	ModelErrTimeout         ModelErrorCode = "TIMEOUT_ERROR"
	ModelErrInvalidResponse ModelErrorCode = "INVALID_RESPONSE"
	ModelErrUnknown         ModelErrorCode = "UNKNOWN_ERROR"
)

// ModelError is a structured model-client failure. Model-client failures are fatal to a run.
type ModelError struct {
	Code     ModelErrorCode `json:"code" yaml:"code"`
	Message  string         `json:"message" yaml:"message"`
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Cause    error          `json:"-" yaml:"-"`
}

// NewModelError creates a ModelError with the given code and message.
func NewModelError(code ModelErrorCode, message string) *ModelError {
	return &ModelError{Code: code, Message: message}
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ModelError) Unwrap() error {
	return e.Cause
}

// WithMetadata returns a copy of e whose metadata is the union of e.Metadata and md.
// Keys in md win.
func (e *ModelError) WithMetadata(md map[string]any) *ModelError {
	out := *e
	out.Metadata = make(map[string]any, len(e.Metadata)+len(md))
	for k, v := range e.Metadata {
		out.Metadata[k] = v
	}
	for k, v := range md {
		out.Metadata[k] = v
	}
	return &out
}

// AsModelError normalizes err into a *ModelError.
//
// Errors that already are (or wrap) a *ModelError are returned as-is. Context deadline errors map
// to [ModelErrTimeout]; everything else becomes [ModelErrUnknown] carrying the error text.
func AsModelError(err error) *ModelError {
	if err == nil {
		return nil
	}
	var me *ModelError
	if errors.As(err, &me) {
		return me
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ModelError{Code: ModelErrTimeout, Message: err.Error(), Cause: err}
	}
	return &ModelError{Code: ModelErrUnknown, Message: err.Error(), Cause: err}
}

// -----------------------------------------------------------------------------
// Tool Errors
// -----------------------------------------------------------------------------

// ToolErrorCode classifies a tool failure.
type ToolErrorCode string

const (
	ToolErrValidation ToolErrorCode = "VALIDATION_ERROR"
	ToolErrIO         ToolErrorCode = "IO_ERROR"
	ToolErrConfig     ToolErrorCode = "CONFIG_ERROR"
	ToolErrPermission ToolErrorCode = "PERMISSION_ERROR"
	ToolErrRateLimit  ToolErrorCode = "RATE_LIMIT_ERROR"
	ToolErrNotFound   ToolErrorCode = "NOT_FOUND"
	ToolErrTimeout    ToolErrorCode = "TIMEOUT_ERROR"
	ToolErrUnknown    ToolErrorCode = "UNKNOWN"
)

// ToolError is a typed tool failure. Tools may return one from [Tool.Call] to choose the code;
// any other error is reported as [ToolErrUnknown].
type ToolError struct {
	Code    ToolErrorCode `json:"error" yaml:"error"`
	Message string        `json:"message" yaml:"message"`
}

// NewToolError creates a ToolError.
func NewToolError(code ToolErrorCode, format string, args ...any) *ToolError {
	return &ToolError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// AsToolError normalizes err into a *ToolError.
func AsToolError(err error) *ToolError {
	if err == nil {
		return nil
	}
	var te *ToolError
	if errors.As(err, &te) {
		return te
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ToolError{Code: ToolErrTimeout, Message: err.Error()}
	}
	return &ToolError{Code: ToolErrUnknown, Message: err.Error()}
}

// PanicMessage renders a recovered panic value as an error message.
func PanicMessage(r any) string {
	switch v := r.(type) {
	case error:
		return v.Error()
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
