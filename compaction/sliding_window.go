package compaction

import (
	"context"

	"github.com/rickchristie/gentrun"
)

// SlidingWindow keeps the last N turns, discarding older ones. A leading summary turn is
// preserved as a bonus slot that does not count toward the window.
//
//	strategy := compaction.NewSlidingWindow(10)
type SlidingWindow struct {
	windowSize int
}

// NewSlidingWindow creates a SlidingWindow keeping windowSize turns.
// Panics if windowSize < 1.
func NewSlidingWindow(windowSize int) *SlidingWindow {
	if windowSize < 1 {
		panic("gentrun: SlidingWindow windowSize must be >= 1")
	}
	return &SlidingWindow{windowSize: windowSize}
}

// Compact implements Strategy.
func (s *SlidingWindow) Compact(_ context.Context, history []gentrun.Message) ([]gentrun.Message, error) {
	turns := Turns(history)

	var summary [][]gentrun.Message
	if len(turns) > 0 && IsSummaryTurn(turns[0]) {
		summary, turns = turns[:1], turns[1:]
	}
	if len(turns) <= s.windowSize {
		return history, nil
	}

	kept := make([][]gentrun.Message, 0, len(summary)+s.windowSize)
	kept = append(kept, summary...)
	kept = append(kept, turns[len(turns)-s.windowSize:]...)
	return flatten(kept), nil
}

var _ Strategy = (*SlidingWindow)(nil)
