package runcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/papercomputeco/kataru/pkg/cliui"
	"github.com/papercomputeco/kataru/pkg/line"
	"github.com/papercomputeco/kataru/pkg/session"
)

// errUsage marks a malformed session command; play reports it and re-prompts.
var errUsage = errors.New("usage")

// play advances the session until the story ends, input runs out, the host
// quits or ctx is cancelled. finished reports whether End was reached.
func (c *runCommander) play(ctx context.Context, s *session.Session) (finished bool, err error) {
	answers := c.readLines(ctx)

	var captions []string
	input := ""
	for {
		lines, err := session.RunUntilChoice(s, input)
		for _, l := range lines {
			lipgloss.Fprintln(c.out, cliui.RenderLine(l))
		}
		if err != nil {
			return false, err
		}

		switch last := lines[len(lines)-1].(type) {
		case line.End:
			return true, nil
		case line.Choices:
			captions = last.Captions
		}

		next, ok, err := c.prompt(ctx, s, answers, captions)
		if err != nil || !ok {
			return false, err
		}
		input = next
	}
}

// prompt reads until it has input to advance with. ok is false when the
// player quits, input ends or ctx is cancelled.
func (c *runCommander) prompt(ctx context.Context, s *session.Session, answers <-chan string, captions []string) (input string, ok bool, err error) {
	for {
		if c.interactive {
			lipgloss.Fprint(c.out, cliui.ChoiceStyle.Render("> "))
		}

		var text string
		select {
		case <-ctx.Done():
			return "", false, nil
		case text, ok = <-answers:
			if !ok {
				return "", false, nil
			}
		}

		text = strings.TrimSpace(text)
		if !strings.HasPrefix(text, ":") {
			return answer(captions, text), true, nil
		}

		advance, quit, err := c.meta(ctx, s, text)
		switch {
		case err != nil:
			lipgloss.Fprintf(c.out, "  %s %v\n", cliui.FailMark, err)
		case quit:
			return "", false, nil
		case advance:
			return "", true, nil
		}
	}
}

// answer maps a 1-based option number to its caption. Anything else is
// passed through as a caption.
func answer(captions []string, text string) string {
	if n, err := strconv.Atoi(text); err == nil && n >= 1 && n <= len(captions) {
		return captions[n-1]
	}
	return text
}

// readLines feeds input lines to a channel so prompts can also wait on ctx.
func (c *runCommander) readLines(ctx context.Context) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case ch <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			c.logger.Error("reading input", "error", err)
		}
	}()
	return ch
}

// meta runs a ":" session command. advance asks play to advance from the
// new position with empty input.
func (c *runCommander) meta(ctx context.Context, s *session.Session, text string) (advance, quit bool, err error) {
	fields := strings.Fields(strings.TrimPrefix(text, ":"))
	if len(fields) == 0 {
		return false, false, fmt.Errorf("%w: :save|:load|:snapshots|:goto|:get|:quit", errUsage)
	}
	arg := func() (string, error) {
		if len(fields) != 2 {
			return "", fmt.Errorf("%w: :%s <name>", errUsage, fields[0])
		}
		return fields[1], nil
	}

	switch fields[0] {
	case "save":
		label, err := arg()
		if err != nil {
			return false, false, err
		}
		if err := s.SaveSnapshot(label); err != nil {
			return false, false, err
		}
		archive, err := c.openArchive()
		if err != nil {
			return false, false, err
		}
		if err := s.ExportSnapshot(ctx, archive, label); err != nil {
			return false, false, err
		}
		lipgloss.Fprintf(c.out, "  %s saved %s\n", cliui.SuccessMark, label)
		return false, false, nil

	case "load":
		label, err := arg()
		if err != nil {
			return false, false, err
		}
		if !slices.Contains(s.Snapshots(), label) {
			archive, err := c.openArchive()
			if err != nil {
				return false, false, err
			}
			if err := s.ImportSnapshot(ctx, archive, label); err != nil {
				return false, false, err
			}
		}
		if err := s.LoadSnapshot(label); err != nil {
			return false, false, err
		}
		lipgloss.Fprintf(c.out, "  %s loaded %s\n", cliui.SuccessMark, label)
		return true, false, nil

	case "snapshots":
		for _, label := range s.Snapshots() {
			lipgloss.Fprintf(c.out, "  %s\n", label)
		}
		return false, false, nil

	case "goto":
		passage, err := arg()
		if err != nil {
			return false, false, err
		}
		if err := s.Goto(passage); err != nil {
			return false, false, err
		}
		return true, false, nil

	case "get":
		name, err := arg()
		if err != nil {
			return false, false, err
		}
		v, err := s.Get(name)
		if err != nil {
			return false, false, err
		}
		lipgloss.Fprintf(c.out, "  %s = %s\n", cliui.KeyStyle.Render(name), v)
		return false, false, nil

	case "quit", "q":
		return false, true, nil

	default:
		return false, false, fmt.Errorf("unknown command :%s", fields[0])
	}
}
