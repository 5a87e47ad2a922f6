package compaction

import (
	"context"
	"fmt"
	"strings"

	"github.com/rickchristie/gentrun"
)

// Summarization replaces older turns with a single summary turn written by a model. The last
// KeepRecent turns are preserved untouched. An existing summary turn is extended rather than
// summarized again.
//
// The compacted history is ordered as:
//
//	[summary turn] → [recent turns...]
//
// Tool messages in summarized turns are reduced to their text content.
//
//	strategy := compaction.NewSummarization(client).WithKeepRecent(4)
type Summarization struct {
	client     gentrun.ModelClient
	keepRecent int
	prompt     string
}

// NewSummarization creates a Summarization that summarizes every turn.
func NewSummarization(client gentrun.ModelClient) *Summarization {
	return &Summarization{client: client, prompt: DefaultSummarizationPrompt}
}

// WithKeepRecent sets the number of recent turns kept verbatim. Default is 0.
func (s *Summarization) WithKeepRecent(n int) *Summarization {
	s.keepRecent = n
	return s
}

// WithPrompt sets a custom prompt. It receives the existing summary and the turns to summarize
// through two %s placeholders.
func (s *Summarization) WithPrompt(prompt string) *Summarization {
	s.prompt = prompt
	return s
}

// DefaultSummarizationPrompt is the prompt used by [Summarization] unless replaced with
// [Summarization.WithPrompt].
//
//	%s: existing summary block
//	%s: formatted turns to incorporate
const DefaultSummarizationPrompt = `You are writing a continuation checkpoint for an ` +
	`assistant. Another instance will resume this conversation using only your summary and ` +
	`the most recent turns.

%s

## New Activity

%s

## Output Format

### Task & Intent
The user's requests and refinements. Quote the most recent requests verbatim.

### Progress
What has been done. Keep exact names, values, file paths and command outputs that matter.

### Key Decisions & Findings
Decisions made and facts discovered that affect what comes next.

### Current State
What was happening right before this checkpoint, in the most detail.

## Rules
- If an existing summary is provided, extend and update it instead of repeating it
- Do not include large verbatim blocks
- Write only the sections above, with no preamble`

// Compact implements Strategy.
func (s *Summarization) Compact(ctx context.Context, history []gentrun.Message) ([]gentrun.Message, error) {
	turns := Turns(history)

	var existing []gentrun.Message
	if len(turns) > 0 && IsSummaryTurn(turns[0]) {
		existing, turns = turns[0], turns[1:]
	}

	split := len(turns) - s.keepRecent
	if split <= 0 {
		return history, nil
	}
	toSummarize, toKeep := turns[:split], turns[split:]

	existingText := "## Existing Summary\n\nNone (first compaction)."
	if existing != nil {
		existingText = "## Existing Summary\n\n" + strings.TrimPrefix(existing[0].Content, SummaryPrefix)
	}

	prompt := fmt.Sprintf(s.prompt, existingText, formatTurns(toSummarize))
	resp, err := s.client.Invoke(ctx, []gentrun.Message{gentrun.UserMessage(prompt)}, nil)
	if err != nil {
		return nil, fmt.Errorf("summarization model call: %w", err)
	}
	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		return nil, fmt.Errorf("summarization model returned no text")
	}

	summary := []gentrun.Message{
		gentrun.UserMessage(SummaryPrefix + strings.TrimSpace(resp.Text)),
		gentrun.AssistantMessage(SummaryAck),
	}
	return flatten(append([][]gentrun.Message{summary}, toKeep...)), nil
}

func formatTurns(turns [][]gentrun.Message) string {
	var sb strings.Builder
	for i, turn := range turns {
		fmt.Fprintf(&sb, "### Turn %d\n\n", i+1)
		for _, m := range turn {
			switch {
			case m.Role == gentrun.RoleTool:
				fmt.Fprintf(&sb, "tool %s: %s\n", m.Name, m.Content)
			case len(m.ToolCalls) > 0:
				names := make([]string, len(m.ToolCalls))
				for j, c := range m.ToolCalls {
					names[j] = c.Name
				}
				fmt.Fprintf(&sb, "%s (called %s): %s\n", m.Role, strings.Join(names, ", "), m.Content)
			default:
				fmt.Fprintf(&sb, "%s: %s\n", m.Role, m.Content)
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

var _ Strategy = (*Summarization)(nil)
