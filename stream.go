package gentrun

import (
	"strings"
	"sync"

	"github.com/rickchristie/gentrun/internal/buffer"
)

// -----------------------------------------------------------------------------
// Chunk Stream (model side)
// -----------------------------------------------------------------------------

// ChunkStream is a [ModelStream] backed by an unbounded buffer. Model clients use it to adapt
// callback-based provider streaming: Send never blocks the provider callback, even when the
// consumer is slow or gone.
type ChunkStream struct {
	buf *buffer.Unbounded[StreamChunk]

	mu    sync.Mutex
	accum strings.Builder
}

// NewChunkStream creates an open ChunkStream.
func NewChunkStream() *ChunkStream {
	return &ChunkStream{buf: buffer.NewUnbounded[StreamChunk]()}
}

// Send delivers a text fragment. Empty fragments are ignored.
// Returns false when the consumer closed the stream.
func (s *ChunkStream) Send(text string) bool {
	if text == "" {
		return !s.buf.IsClosed()
	}
	s.mu.Lock()
	s.accum.WriteString(text)
	s.mu.Unlock()
	return s.buf.Send(StreamChunk{Text: text})
}

// Finish ends the stream. A non-nil err is delivered as the final chunk.
func (s *ChunkStream) Finish(err error) {
	if err != nil {
		s.buf.Send(StreamChunk{Err: err})
	}
	s.buf.Close()
}

// Accumulated returns all text sent so far.
func (s *ChunkStream) Accumulated() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accum.String()
}

// Done is closed once the consumer calls Close.
func (s *ChunkStream) Done() <-chan struct{} {
	return s.buf.Done()
}

// Chunks implements ModelStream.
func (s *ChunkStream) Chunks() <-chan StreamChunk {
	return s.buf.Receive()
}

// Close implements ModelStream.
func (s *ChunkStream) Close() {
	s.buf.Abort()
}

var _ ModelStream = (*ChunkStream)(nil)

// -----------------------------------------------------------------------------
// Text Stream (caller side)
// -----------------------------------------------------------------------------

// TextStream is the lazy, finite sequence of text fragments produced by a streaming run.
//
// It is not restartable: once drained or closed it stays exhausted. Errors never surface as Go
// errors; a failed run yields a single "Error: ..." fragment instead.
type TextStream struct {
	buf    *buffer.Unbounded[string]
	cancel func()
}

// NewTextStream creates a TextStream. cancel is called when the consumer closes the stream
// and may be nil.
func NewTextStream(cancel func()) *TextStream {
	if cancel == nil {
		cancel = func() {}
	}
	return &TextStream{buf: buffer.NewUnbounded[string](), cancel: cancel}
}

// Emit delivers a fragment to the consumer. Returns false once the consumer closed the stream.
func (s *TextStream) Emit(fragment string) bool {
	return s.buf.Send(fragment)
}

// End marks the producer side as finished.
func (s *TextStream) End() {
	s.buf.Close()
}

// Fragments returns the channel of fragments. It is closed when the run ends.
func (s *TextStream) Fragments() <-chan string {
	return s.buf.Receive()
}

// Done is closed once the consumer calls Close.
func (s *TextStream) Done() <-chan struct{} {
	return s.buf.Done()
}

// Close stops consumption and cancels the producing run cooperatively.
func (s *TextStream) Close() {
	s.buf.Abort()
	s.cancel()
}

// Collect drains the stream and returns the concatenated text.
func (s *TextStream) Collect() string {
	var b strings.Builder
	for fragment := range s.Fragments() {
		b.WriteString(fragment)
	}
	return b.String()
}
