package tt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// -----------------------------------------------------------------------------
// Event Collection Helpers
// -----------------------------------------------------------------------------

// IsLifecycleEvent returns true for events that belong to the run lifecycle.
// Filters out debug and trace diagnostics, whose count and placement are not part of the
// callback contract.
func IsLifecycleEvent(name string) bool {
	switch name {
	case EventAgentStart,
		EventAgentEnd,
		EventError,
		EventLLMStart,
		EventLLMStream,
		EventLLMEnd,
		EventToolStart,
		EventToolEnd,
		EventSpinnerStart,
		EventSpinnerStop:
		return true
	default:
		return false
	}
}

// CountEventNames counts events by name for tests with non-deterministic interleaving.
func CountEventNames(events []Event) map[string]int {
	counts := make(map[string]int)
	for _, e := range events {
		counts[e.Name]++
	}
	return counts
}

// -----------------------------------------------------------------------------
// Event Assertion Helpers
// -----------------------------------------------------------------------------

// AssertLifecycle asserts the exact sequence of lifecycle events recorded by r.
func AssertLifecycle(t *testing.T, r *Recorder, expected ...string) {
	t.Helper()
	assert.Equal(t, expected, r.Lifecycle(), "lifecycle sequence mismatch")
}

// AssertSingleTrace asserts that every span-carrying event shares one trace ID and returns it.
func AssertSingleTrace(t *testing.T, r *Recorder) string {
	t.Helper()
	var traceID string
	for i, e := range r.Events() {
		if e.Span.TraceID == "" {
			continue
		}
		if traceID == "" {
			traceID = e.Span.TraceID
			continue
		}
		assert.Equal(t, traceID, e.Span.TraceID, "event %d (%s) trace mismatch", i, e.Name)
	}
	assert.NotEmpty(t, traceID, "no span-carrying events recorded")
	return traceID
}
