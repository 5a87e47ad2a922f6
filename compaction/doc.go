// Package compaction keeps conversation history bounded between runs.
//
// History is treated as a sequence of turns, each starting at a user message. A [Compactor]
// pairs a [Threshold] (when to compact) with a [Strategy] (how):
//
//   - [SlidingWindow]: keeps the last N turns
//   - [Summarization]: replaces older turns with a model-written summary turn
//
// A summary turn produced by [Summarization] is always preserved by [SlidingWindow] and does
// not count toward its window.
package compaction
