package models

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/rickchristie/gentrun"
)

// classification maps substrings of provider error text to a code. Checked in order.
var classification = []struct {
	code    gentrun.ModelErrorCode
	needles []string
}{
	{gentrun.ModelErrAuthentication, []string{
		"401", "403", "unauthorized", "invalid api key", "invalid_api_key", "authentication", "permission denied",
	}},
	{gentrun.ModelErrRateLimit, []string{"429", "rate limit", "rate_limit", "too many requests", "quota"}},
	{gentrun.ModelErrContextLength, []string{
		"context length", "context_length", "maximum context", "too many tokens", "prompt is too long",
	}},
	{gentrun.ModelErrTimeout, []string{"timeout", "timed out", "deadline exceeded"}},
	{gentrun.ModelErrNetwork, []string{
		"connection refused", "connection reset", "no such host", "network is unreachable", "unexpected eof",
	}},
}

// Classify converts a provider error into a *gentrun.ModelError. Errors that already are
// ModelErrors keep their code.
func Classify(err error) *gentrun.ModelError {
	if err == nil {
		return nil
	}
	var me *gentrun.ModelError
	if errors.As(err, &me) {
		return me
	}

	code := gentrun.ModelErrProvider
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		code = gentrun.ModelErrTimeout
	case errors.Is(err, context.Canceled):
		code = gentrun.ModelErrUnknown
	case errors.As(err, &netErr):
		code = gentrun.ModelErrNetwork
		if netErr.Timeout() {
			code = gentrun.ModelErrTimeout
		}
	default:
		text := strings.ToLower(err.Error())
	search:
		for _, c := range classification {
			for _, needle := range c.needles {
				if strings.Contains(text, needle) {
					code = c.code
					break search
				}
			}
		}
	}

	return &gentrun.ModelError{Code: code, Message: err.Error(), Cause: err}
}

// classify tags the classified error with the client's identity.
func (c *Client) classify(err error) *gentrun.ModelError {
	me := Classify(err)
	return me.WithMetadata(map[string]any{
		"provider": c.provider,
		"model":    c.model,
	})
}
