// Package toolchain owns the tool side of an agent run: a registry of named tools and the
// dispatcher that turns model tool calls into tool-result messages.
//
// # Overview
//
// A Registry is responsible for:
//  1. Holding tools by name, in registration order
//  2. Compiling each tool's parameter schema once, at registration
//  3. Describing tools to the model client ([Registry.Definitions])
//  4. Optional per-tool rate limits
//
// A Dispatcher is responsible for:
//  1. Looking up the requested tool
//  2. Firing OnToolStart / OnToolEnd around the invocation
//  3. Validating arguments against the compiled schema
//  4. Normalizing every failure (error, panic, timeout, validation, rate limit) into a
//     [gentrun.ToolOutcome]
//  5. Producing the tool message appended to the run transcript
//
// # Dispatch Flow
//
//	ToolCall -> Lookup -> OnToolStart -> RateLimit -> Validate -> Call -> OnToolEnd -> ToolMessage
//
// Unknown tools are skipped: an OnDebug diagnostic is fired, no tool hooks run and no message
// is produced. Every other failure is absorbed into the transcript as the tool message content
// so the model can react to it; tool failures never end a run.
//
// # Example Usage
//
//	reg := toolchain.NewRegistry()
//	reg.MustRegister(builtin.NewReadFile(root))
//	reg.MustRegister(builtin.NewShell(30*time.Second), toolchain.WithRateLimit(rate.Every(time.Second), 1))
//
//	d := toolchain.NewDispatcher(reg, hookRegistry)
//	msgs := d.DispatchAll(ctx, span, response.ToolCalls)
package toolchain
