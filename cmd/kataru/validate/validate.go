// Package validatecmder provides the validate command for checking a story
// for broken references before it is played.
package validatecmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/kataru/cmd/kataru/settings"
	"github.com/papercomputeco/kataru/pkg/cliui"
	"github.com/papercomputeco/kataru/pkg/config"
	"github.com/papercomputeco/kataru/pkg/interp"
	"github.com/papercomputeco/kataru/pkg/story"
	"github.com/papercomputeco/kataru/pkg/watch"
)

// ErrInvalid is returned when the story has validation issues.
var ErrInvalid = errors.New("story is invalid")

type validateCommander struct {
	storyPath string
	watch     bool

	out    io.Writer
	logger *slog.Logger
}

const validateLongDesc string = `Check a story for problems without playing it.

Loads the story file or directory and reports every line that sets more or
fewer than one kind, every choice, call, goto and branch target that does not
resolve, every assignment to an undeclared variable and every condition that
does not compile.

With --watch, the story is re-validated whenever one of its files changes
until interrupted.

Examples:
  kataru validate
  kataru validate --story tales/
  kataru validate --watch`

const validateShortDesc string = "Check a story for broken references"

func NewValidateCmd() *cobra.Command {
	cmder := &validateCommander{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: validateShortDesc,
		Long:  validateLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			v, err := settings.Load(cmd, config.FlagStory)
			if err != nil {
				return err
			}
			cmder.storyPath = v.GetString("story.path")
			cmder.logger = settings.Logger(v, cmd.ErrOrStderr())
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.out = cmd.OutOrStdout()
			if !cmder.watch {
				return cmder.check()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return cmder.watchStory(ctx)
		},
	}

	config.AddStringFlag(cmd, config.KataruFlags, config.FlagStory, &cmder.storyPath)
	cmd.Flags().BoolVarP(&cmder.watch, "watch", "w", false, "Re-validate when story files change")

	return cmd
}

func (c *validateCommander) check() error {
	var st *story.Story
	err := cliui.Step(c.out, "Loading "+c.storyPath, func() error {
		var err error
		st, err = story.Load(c.storyPath)
		return err
	})
	if err != nil {
		return fmt.Errorf("loading story: %w", err)
	}

	err = interp.Validate(st)
	var verr *interp.ValidationError
	if errors.As(err, &verr) {
		fmt.Fprintf(c.out, "\n  %s %d issue(s)\n", cliui.FailMark, len(verr.Issues))
		for _, issue := range verr.Issues {
			fmt.Fprintf(c.out, "    %s\n", issue.String())
		}
		fmt.Fprintln(c.out)
		return ErrInvalid
	}
	if err != nil {
		return err
	}

	passages := 0
	for _, ns := range st.NamespaceNames() {
		n, _ := st.Namespace(ns)
		passages += len(n.Passages)
	}
	fmt.Fprintf(c.out, "  %s %d namespace(s), %d passage(s)\n",
		cliui.SuccessMark, len(st.NamespaceNames()), passages)
	return nil
}

func (c *validateCommander) watchStory(ctx context.Context) error {
	// Invalid stories are reported and watched, not fatal.
	report := func() error {
		if err := c.check(); err != nil && !errors.Is(err, ErrInvalid) {
			c.logger.Error("validation failed", "error", err)
		}
		return nil
	}

	_ = report()
	c.logger.Info("watching story", "path", c.storyPath)

	err := watch.Watch(ctx, []string{c.storyPath}, watch.DefaultDebounce, func(changed []string) error {
		c.logger.Debug("story changed", "files", changed)
		return report()
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
