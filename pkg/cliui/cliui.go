// Package cliui provides reusable terminal UI helpers (spinners, step indicators,
// line rendering, markdown rendering) for kataru CLI commands.
package cliui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"

	"github.com/papercomputeco/kataru/pkg/line"
)

var (
	SuccessMark  = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✓")
	FailMark     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")
	StepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))

	KeyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
	ValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	DimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	SpeakerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	ChoiceStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	CommandStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	AttributeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Underline(true)
)

var spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

// Step prints an animated spinner while fn runs, then replaces it with
// a ✓ or ✗ checkmark and elapsed time.
func Step(w io.Writer, msg string, fn func() error) error {
	done := make(chan struct{})
	var mu sync.Mutex

	// Run spinner animation in background
	go func() {
		frame := 0
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for {
			mu.Lock()
			fmt.Fprintf(w, "\r  %s %s",
				spinnerStyle.Render(spinnerFrames[frame%len(spinnerFrames)]),
				msg,
			)
			mu.Unlock()

			select {
			case <-done:
				return
			case <-ticker.C:
				frame++
			}
		}
	}()

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	close(done)

	// Clear the spinner line and print final result
	mu.Lock()
	fmt.Fprintf(w, "\r  %s %s %s\n",
		Mark(err),
		msg,
		StepStyle.Render(fmt.Sprintf("(%s)", FormatDuration(elapsed))),
	)
	mu.Unlock()

	return err
}

// Mark returns a ✓ for nil errors or ✗ for non-nil errors.
func Mark(err error) string {
	if err != nil {
		return FailMark
	}
	return SuccessMark
}

// FormatDuration formats a duration for display (e.g. "12ms" or "3.2s").
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// RenderLine formats a projected line for a terminal. Attributed spans of
// dialogue text are styled; choices are numbered from 1.
func RenderLine(l line.Line) string {
	switch v := l.(type) {
	case line.Dialogue:
		return SpeakerStyle.Render(v.Speaker+":") + " " + styleSpans(v.Text, v.Attributes)

	case line.Choices:
		var b strings.Builder
		for i, c := range v.Captions {
			fmt.Fprintf(&b, "  %s %s\n", ChoiceStyle.Render(fmt.Sprintf("%d)", i+1)), c)
		}
		if v.Timeout > 0 {
			b.WriteString(StepStyle.Render(fmt.Sprintf("  (%gs)", v.Timeout)) + "\n")
		}
		return strings.TrimSuffix(b.String(), "\n")

	case line.Command:
		var params []string
		for _, p := range v.Params {
			params = append(params, p.Name+"="+p.Value.Text())
		}
		return CommandStyle.Render(fmt.Sprintf("[%s %s]", v.Name, strings.Join(params, " ")))

	case line.InvalidChoice:
		return FailMark + " invalid choice"

	case line.End:
		return StepStyle.Render("(end)")

	default:
		return ""
	}
}

func styleSpans(text string, attrs []line.Attribute) string {
	if len(attrs) == 0 {
		return text
	}

	runes := []rune(text)
	styled := make([]bool, len(runes))
	for _, a := range attrs {
		// Positions come in open/close pairs; a lone trailing offset is a marker.
		for k := 0; k+1 < len(a.Positions); k += 2 {
			for i := max(a.Positions[k], 0); i < a.Positions[k+1] && i < len(runes); i++ {
				styled[i] = true
			}
		}
	}

	var b strings.Builder
	for i := 0; i < len(runes); {
		j := i
		for j < len(runes) && styled[j] == styled[i] {
			j++
		}
		chunk := string(runes[i:j])
		if styled[i] {
			chunk = AttributeStyle.Render(chunk)
		}
		b.WriteString(chunk)
		i = j
	}
	return b.String()
}

// RenderMarkdown renders markdown content for terminal display using glamour.
func RenderMarkdown(content string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return content, err
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content, err
	}

	return rendered, nil
}
