package gentrun

import "fmt"

// Role identifies who produced a [Message].
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a request from the model to invoke a tool.
//
// ID is opaque and supplied by the model client. It must be echoed back on the tool message
// that carries the result, see [ToolMessage].
type ToolCall struct {
	ID   string         `json:"id" yaml:"id"`
	Name string         `json:"name" yaml:"name"`
	Args map[string]any `json:"args,omitempty" yaml:"args,omitempty"`
}

// Message is one conversation turn.
//
// Which fields are meaningful depends on Role:
//   - [RoleSystem], [RoleUser]: Content only.
//   - [RoleAssistant]: Content and optionally ToolCalls.
//   - [RoleTool]: Content, Name (the tool name) and ToolCallID (required).
//
// Use the constructors ([SystemMessage], [UserMessage], [AssistantMessage], [ToolMessage]) rather
// than building the struct by hand. Messages appended to a run transcript are never mutated.
type Message struct {
	Role       Role       `json:"role" yaml:"role"`
	Content    string     `json:"content" yaml:"content"`
	Name       string     `json:"name,omitempty" yaml:"name,omitempty"`
	ToolCallID string     `json:"toolCallId,omitempty" yaml:"toolCallId,omitempty"`
	ToolCalls  []ToolCall `json:"toolCalls,omitempty" yaml:"toolCalls,omitempty"`
}

// SystemMessage creates a system turn.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage creates a user turn.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage creates an assistant turn, optionally carrying tool calls.
func AssistantMessage(content string, calls ...ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: calls}
}

// ToolMessage creates a tool-result turn answering the tool call with the given ID.
func ToolMessage(toolCallID, name, content string) Message {
	return Message{Role: RoleTool, Content: content, Name: name, ToolCallID: toolCallID}
}

// HasToolCalls reports whether the message is an assistant turn requesting tools.
func (m Message) HasToolCalls() bool {
	return m.Role == RoleAssistant && len(m.ToolCalls) > 0
}

// Validate checks role-specific invariants.
func (m Message) Validate() error {
	switch m.Role {
	case RoleSystem, RoleUser, RoleAssistant:
		return nil
	case RoleTool:
		if m.ToolCallID == "" {
			return fmt.Errorf("tool message %q: missing toolCallId", m.Name)
		}
		return nil
	default:
		return fmt.Errorf("unknown message role %q", m.Role)
	}
}
