package compaction

import (
	"context"
	"strings"

	"github.com/rickchristie/gentrun"
)

// SummaryPrefix starts the user message of a summary turn.
const SummaryPrefix = "Summary of the earlier conversation:\n\n"

// SummaryAck is the assistant reply closing a summary turn.
const SummaryAck = "Understood. I will continue from this summary."

// Strategy shrinks a history. Implementations must not modify the input slice.
type Strategy interface {
	Compact(ctx context.Context, history []gentrun.Message) ([]gentrun.Message, error)
}

// Turns splits history at each user message. Messages before the first user message form their
// own leading turn.
func Turns(history []gentrun.Message) [][]gentrun.Message {
	var turns [][]gentrun.Message
	for i, m := range history {
		if m.Role == gentrun.RoleUser || i == 0 {
			turns = append(turns, nil)
		}
		turns[len(turns)-1] = append(turns[len(turns)-1], m)
	}
	return turns
}

// IsSummaryTurn reports whether turn was produced by [Summarization].
func IsSummaryTurn(turn []gentrun.Message) bool {
	return len(turn) > 0 &&
		turn[0].Role == gentrun.RoleUser &&
		strings.HasPrefix(turn[0].Content, SummaryPrefix)
}

func flatten(turns [][]gentrun.Message) []gentrun.Message {
	n := 0
	for _, t := range turns {
		n += len(t)
	}
	out := make([]gentrun.Message, 0, n)
	for _, t := range turns {
		out = append(out, t...)
	}
	return out
}

// -----------------------------------------------------------------------------
// Threshold
// -----------------------------------------------------------------------------

// Threshold fires when any configured limit is reached. A zero Threshold never fires.
//
//	trigger := compaction.NewThreshold().OnMessages(40).OnChars(100_000)
type Threshold struct {
	maxMessages int
	maxChars    int
}

// NewThreshold creates a Threshold with no limits.
func NewThreshold() *Threshold {
	return &Threshold{}
}

// OnMessages fires once the history holds at least n messages. Non-positive n disables it.
func (t *Threshold) OnMessages(n int) *Threshold {
	t.maxMessages = n
	return t
}

// OnChars fires once the total content length reaches n bytes. Non-positive n disables it.
func (t *Threshold) OnChars(n int) *Threshold {
	t.maxChars = n
	return t
}

// Exceeded reports whether history reached a limit.
func (t *Threshold) Exceeded(history []gentrun.Message) bool {
	if t == nil {
		return false
	}
	if t.maxMessages > 0 && len(history) >= t.maxMessages {
		return true
	}
	if t.maxChars > 0 {
		total := 0
		for _, m := range history {
			total += len(m.Content)
		}
		if total >= t.maxChars {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------
// Compactor
// -----------------------------------------------------------------------------

// Compactor applies a Strategy when its Threshold fires. A nil trigger compacts on every call.
type Compactor struct {
	trigger  *Threshold
	strategy Strategy
}

// New creates a Compactor.
func New(trigger *Threshold, strategy Strategy) *Compactor {
	return &Compactor{trigger: trigger, strategy: strategy}
}

// Apply returns the compacted history and whether compaction ran. On error the original history
// is returned unchanged.
func (c *Compactor) Apply(ctx context.Context, history []gentrun.Message) ([]gentrun.Message, bool, error) {
	if c == nil || c.strategy == nil {
		return history, false, nil
	}
	if c.trigger != nil && !c.trigger.Exceeded(history) {
		return history, false, nil
	}
	out, err := c.strategy.Compact(ctx, history)
	if err != nil {
		return history, false, err
	}
	return out, true, nil
}
