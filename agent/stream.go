package agent

import (
	"context"
	"strings"

	"github.com/rickchristie/gentrun"
)

// RunStream executes the loop and streams the final answer.
//
// Turns that request tools are buffered calls, exactly as in Run. When the model answers
// without tool calls, the spinner stops and the answer is requested again in streaming mode
// under a fresh child span; each fragment fires OnLLMStream and is delivered on the returned
// stream. Any failure yields one "Error: <message>" fragment, after whatever fragments were
// already delivered. Closing the returned stream cancels the run.
//
// The final answer therefore costs two model calls: the buffered one that decided no tools were
// needed, and the streaming one that produces the text. Both fire OnLLMStart/OnLLMEnd, and the
// streaming call does not count against the iteration cap. The streaming call is made with a
// context marked by [gentrun.WithAnswerOnly], so clients must not let it request tools.
func (a *Agent) RunStream(ctx context.Context, query string, history []gentrun.Message) *gentrun.TextStream {
	ctx, cancel := context.WithCancel(ctx)
	out := gentrun.NewTextStream(cancel)

	go func() {
		defer cancel()
		defer out.End()
		a.runStream(ctx, query, history, out)
	}()
	return out
}

func (a *Agent) runStream(ctx context.Context, query string, history []gentrun.Message, out *gentrun.TextStream) {
	st := a.start(ctx, query, history)

	resp, merr := a.think(ctx, st)
	a.hooks.FireSpinnerStop()

	var final string
	switch {
	case merr != nil:
		final = a.fail(st, merr)
		out.Emit(final)
	case resp == nil:
		final = a.maxIterationsText()
		out.Emit(final)
	default:
		final = a.streamAnswer(ctx, st, resp, out)
	}

	a.finish(st, final)
}

// streamAnswer re-requests the final answer in streaming mode and returns the run's final text.
func (a *Agent) streamAnswer(
	ctx context.Context,
	st *runState,
	buffered *gentrun.Response,
	out *gentrun.TextStream,
) string {
	span := gentrun.ChildSpan(st.span)
	a.hooks.FireLLMStart(span)

	text, err := a.consume(ctx, st, span, out)
	if err != nil {
		final := a.fail(st, a.modelError(err, st.iteration))
		out.Emit(final)
		return final
	}

	a.hooks.FireLLMEnd(span, &gentrun.Response{Text: text, Metadata: buffered.Metadata})
	return text
}

// consume opens the model stream and forwards fragments until it ends, fails, or the run is
// cancelled. It returns the accumulated text.
func (a *Agent) consume(
	ctx context.Context,
	st *runState,
	span gentrun.SpanContext,
	out *gentrun.TextStream,
) (string, error) {
	stream, err := a.openStream(ctx, st)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	var b strings.Builder
	for {
		select {
		case chunk, ok := <-stream.Chunks():
			if !ok {
				return b.String(), nil
			}
			if chunk.Err != nil {
				return b.String(), chunk.Err
			}
			if chunk.Text == "" {
				continue
			}
			b.WriteString(chunk.Text)
			a.hooks.FireLLMStream(span, chunk.Text)
			out.Emit(chunk.Text)
		case <-ctx.Done():
			return b.String(), ctx.Err()
		}
	}
}

// openStream calls the model client's Stream, converting panics and nil streams into errors.
func (a *Agent) openStream(ctx context.Context, st *runState) (stream gentrun.ModelStream, err error) {
	defer func() {
		if r := recover(); r != nil {
			stream = nil
			err = gentrun.NewModelError(gentrun.ModelErrUnknown, gentrun.PanicMessage(r))
		}
	}()

	stream, err = a.client.Stream(gentrun.WithAnswerOnly(ctx), st.messages, st.tools)
	if err == nil && stream == nil {
		err = gentrun.NewModelError(gentrun.ModelErrInvalidResponse, "model client returned no stream")
	}
	return stream, err
}
