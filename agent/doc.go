// Package agent implements the conversation loop that drives a model client and a tool set
// to a final answer.
//
// # State Machine
//
//	START -> THINKING -> (TOOL_DISPATCH -> THINKING)* -> DONE | ERROR | MAX_ITERATIONS
//
// Each THINKING step is one model call under a fresh child span of the agent span. A response
// without tool calls ends the run with its text. A response with tool calls is appended to the
// transcript together with one tool message per dispatched call, then the loop calls the model
// again. Model-client failures end the run with "Error: <message>"; tool failures are written
// into the transcript and the loop continues. Running out of iterations ends the run with
// "Error: Maximum iterations (<N>) reached".
//
// # Buffered and Streaming Runs
//
// [Agent.Run] returns the final text. [Agent.RunStream] drives the same state machine with
// buffered calls and, once the model answers without tool calls, re-requests that final answer
// in streaming mode. Fragments are delivered through a [gentrun.TextStream] and through
// OnLLMStream. Failures surface as a single "Error: <message>" fragment.
//
// Neither entry point panics or returns an error.
//
// # Example
//
//	reg := hooks.NewRegistry().Register(hooks.NewLogger(log))
//	a := agent.New(client,
//	    agent.WithTools(builtin.NewCurrentTime(), builtin.NewReadFile(".")),
//	    agent.WithMaxIterations(5),
//	    agent.WithHookRegistry(reg),
//	)
//
//	answer := a.Run(ctx, "What time is it?", nil)
//
//	for fragment := range a.RunStream(ctx, "Summarize README.md", nil).Fragments() {
//	    fmt.Print(fragment)
//	}
package agent
