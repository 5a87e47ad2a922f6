package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/titanous/json5"
	"github.com/tmc/langchaingo/llms"

	"github.com/rickchristie/gentrun"
)

// toMessageContent converts the gentrun transcript to langchaingo messages.
func toMessageContent(messages []gentrun.Message) ([]llms.MessageContent, error) {
	out := make([]llms.MessageContent, 0, len(messages))
	for i, m := range messages {
		switch m.Role {
		case gentrun.RoleSystem:
			out = append(out, llms.TextParts(llms.ChatMessageTypeSystem, m.Content))
		case gentrun.RoleUser:
			out = append(out, llms.TextParts(llms.ChatMessageTypeHuman, m.Content))
		case gentrun.RoleAssistant:
			parts := make([]llms.ContentPart, 0, len(m.ToolCalls)+1)
			if m.Content != "" {
				parts = append(parts, llms.TextContent{Text: m.Content})
			}
			for _, call := range m.ToolCalls {
				args, err := json.Marshal(call.Args)
				if err != nil {
					return nil, fmt.Errorf("message %d: encode arguments of %q: %w", i, call.Name, err)
				}
				parts = append(parts, llms.ToolCall{
					ID:   call.ID,
					Type: "function",
					FunctionCall: &llms.FunctionCall{
						Name:      call.Name,
						Arguments: string(args),
					},
				})
			}
			out = append(out, llms.MessageContent{Role: llms.ChatMessageTypeAI, Parts: parts})
		case gentrun.RoleTool:
			out = append(out, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: m.ToolCallID,
					Name:       m.Name,
					Content:    m.Content,
				}},
			})
		default:
			return nil, fmt.Errorf("message %d: unsupported role %q", i, m.Role)
		}
	}
	return out, nil
}

// toLLMTools converts tool definitions to langchaingo function tools.
func toLLMTools(defs []gentrun.ToolDefinition) []llms.Tool {
	tools := make([]llms.Tool, len(defs))
	for i, d := range defs {
		params := d.Parameters
		if params == nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		tools[i] = llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  params,
			},
		}
	}
	return tools
}

// fromContentResponse converts the first choice of a langchaingo response.
func fromContentResponse(resp *llms.ContentResponse) (*gentrun.Response, error) {
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return nil, gentrun.NewModelError(gentrun.ModelErrInvalidResponse, "provider returned no choices")
	}
	choice := resp.Choices[0]

	out := &gentrun.Response{Text: choice.Content}

	for _, tc := range choice.ToolCalls {
		if tc.FunctionCall == nil {
			continue
		}
		args, err := parseArguments(tc.FunctionCall.Arguments)
		if err != nil {
			return nil, &gentrun.ModelError{
				Code:    gentrun.ModelErrInvalidResponse,
				Message: fmt.Sprintf("tool call %q has malformed arguments: %v", tc.FunctionCall.Name, err),
				Cause:   err,
			}
		}
		out.ToolCalls = append(out.ToolCalls, gentrun.ToolCall{
			ID:   tc.ID,
			Name: tc.FunctionCall.Name,
			Args: args,
		})
	}

	md := map[string]any{}
	if choice.StopReason != "" {
		md["stopReason"] = choice.StopReason
	}
	if choice.ReasoningContent != "" {
		md["reasoning"] = choice.ReasoningContent
	}
	if info := choice.GenerationInfo; info != nil {
		out.Usage = usageFrom(info)
		if cached := extractCachedInputTokens(info); cached > 0 {
			md["cachedInputTokens"] = cached
		}
		if reasoning := extractReasoningTokens(info); reasoning > 0 {
			md["reasoningTokens"] = reasoning
		}
	}
	if len(md) > 0 {
		out.Metadata = md
	}
	return out, nil
}

// parseArguments decodes tool-call arguments. Some models emit JSON5 (single quotes, trailing
// commas, unquoted keys); that is accepted too. The strict JSON error is reported when both fail.
func parseArguments(raw string) (map[string]any, error) {
	args := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return args, nil
	}
	err := json.Unmarshal([]byte(raw), &args)
	if err == nil {
		return args, nil
	}
	lenient := map[string]any{}
	if json5.Unmarshal([]byte(raw), &lenient) == nil {
		return lenient, nil
	}
	return nil, err
}
