package session

import (
	kerrors "github.com/papercomputeco/kataru/pkg/errors"
	"github.com/papercomputeco/kataru/pkg/interp"
	"github.com/papercomputeco/kataru/pkg/line"
)

// RunUntilChoice advances with the given input and keeps advancing with
// empty input through dialogue and command lines. It stops at the first
// Choices, InvalidChoice or End line and returns every line produced, the
// stopping line last.
func RunUntilChoice(s *Session, input string) ([]line.Line, error) {
	var lines []line.Line
	for len(lines) < interp.DefaultMaxSteps {
		l, err := s.Advance(input)
		if err != nil {
			return lines, err
		}
		lines = append(lines, l)
		switch l.(type) {
		case line.Choices, line.InvalidChoice, line.End:
			return lines, nil
		}
		input = ""
	}
	return lines, kerrors.Newf(kerrors.CodeNavigation, "no choice or end after %d lines", len(lines))
}
