package gentrun

import (
	clone "github.com/huandu/go-clone"
)

// DroppedToolMessage is the debug message fired for each invalid tool message removed from
// caller-supplied history.
const DroppedToolMessage = "Dropping invalid tool message: missing toolCallId"

// SanitizeHistory returns history without tool messages that lack a ToolCallID.
//
// Each dropped message fires one OnDebug with [DroppedToolMessage] and {"toolName": name}
// (nil when the message has no name). All other messages pass through unchanged and in order.
// Running it on its own output is a no-op. A nil firer is allowed.
func SanitizeHistory(history []Message, firer HookFirer) []Message {
	if firer == nil {
		firer = NopFirer{}
	}
	out := make([]Message, 0, len(history))
	for _, m := range history {
		if m.Role == RoleTool && m.ToolCallID == "" {
			var toolName any
			if m.Name != "" {
				toolName = m.Name
			}
			firer.FireDebug(DroppedToolMessage, map[string]any{"toolName": toolName})
			continue
		}
		out = append(out, m)
	}
	return out
}

// BuildInitialMessages assembles the transcript for the first model call of a run:
// the system prompt (omitted when empty), the sanitized history, then the user query.
//
// History is deep-copied, so later appends or tool-argument maps in the transcript never alias
// the caller's data.
func BuildInitialMessages(systemPrompt string, history []Message, query string, firer HookFirer) []Message {
	if len(history) > 0 {
		history = clone.Clone(history).([]Message)
	}
	sanitized := SanitizeHistory(history, firer)

	messages := make([]Message, 0, len(sanitized)+2)
	if systemPrompt != "" {
		messages = append(messages, SystemMessage(systemPrompt))
	}
	messages = append(messages, sanitized...)
	messages = append(messages, UserMessage(query))
	return messages
}
