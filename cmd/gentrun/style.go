package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/rickchristie/gentrun"
)

var (
	stylePrompt  = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	styleTool    = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)
	styleDim     = lipgloss.NewStyle().Faint(true)
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	styleSpinner = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
)

// renderMarkdown styles text for the terminal, falling back to plain text.
func renderMarkdown(text string) string {
	styled, err := glamour.Render(text, "dark")
	if err != nil {
		return text + "\n"
	}
	return styled
}

// -----------------------------------------------------------------------------
// Spinner
// -----------------------------------------------------------------------------

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinner draws an animated label on a terminal between OnSpinnerStart and OnSpinnerStop.
type spinner struct {
	w io.Writer

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func newSpinner(w io.Writer) *spinner {
	return &spinner{w: w}
}

func (s *spinner) OnSpinnerStart(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.animate(label, s.stop, s.done)
}

func (s *spinner) OnSpinnerStop() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (s *spinner) animate(label string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for i := 0; ; i++ {
		fmt.Fprintf(s.w, "\r%s %s", styleSpinner.Render(spinnerFrames[i%len(spinnerFrames)]), styleDim.Render(label))
		select {
		case <-stop:
			fmt.Fprint(s.w, "\r\033[K")
			return
		case <-ticker.C:
		}
	}
}

var (
	_ gentrun.SpinnerStartHook = (*spinner)(nil)
	_ gentrun.SpinnerStopHook  = (*spinner)(nil)
)

// -----------------------------------------------------------------------------
// Tool activity
// -----------------------------------------------------------------------------

// activity prints one line per finished tool call.
type activity struct {
	w io.Writer
}

func newActivity(w io.Writer) *activity {
	return &activity{w: w}
}

func (a *activity) OnToolEnd(_ gentrun.SpanContext, name string, outcome gentrun.ToolOutcome) {
	if outcome.OK() {
		line := "✓ " + name
		if outcome.Title != "" {
			line += ": " + outcome.Title
		}
		fmt.Fprintf(a.w, "\r\033[K%s\n", styleTool.Render(line))
		return
	}
	fmt.Fprintf(a.w, "\r\033[K%s\n", styleError.Render(fmt.Sprintf("✗ %s: %s", name, outcome.Err.Code)))
}

var _ gentrun.ToolEndHook = (*activity)(nil)
