// Package scriptcmder provides the script command, which runs Lua
// playthrough scripts against a story.
package scriptcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/kataru/cmd/kataru/settings"
	"github.com/papercomputeco/kataru/pkg/cliui"
	"github.com/papercomputeco/kataru/pkg/config"
	"github.com/papercomputeco/kataru/pkg/interp"
	"github.com/papercomputeco/kataru/pkg/scenario"
	"github.com/papercomputeco/kataru/pkg/session"
	"github.com/papercomputeco/kataru/pkg/story"
)

// ErrFailed is returned when any script has a failed expectation or error.
var ErrFailed = errors.New("scripts failed")

type scriptCommander struct {
	storyPath string
	validate  bool
	maxSteps  uint
	failFast  bool

	logger *slog.Logger
}

const scriptLongDesc string = `Run Lua playthrough scripts against a story.

Each script gets a fresh session at the story's start and drives it through
the kataru table:

  local l = kataru.next()
  kataru.expect(l.tag == "dialogue" and l.speaker == "Guard", "guard speaks")
  kataru.run("Pay")
  kataru.expect(kataru.get("gold") == 5, "paid")

Available: next, run, go, get, set, snapshot, restore, line, expect, log.
Limits are read from KATARU_SCENARIO_MAX_ADVANCES, KATARU_SCENARIO_SNAPSHOT
and KATARU_SCENARIO_FAIL_FAST.

Examples:
  kataru script tests/intro.lua
  kataru script --story tales/ tests/*.lua`

const scriptShortDesc string = "Run Lua playthrough scripts"

func NewScriptCmd() *cobra.Command {
	cmder := &scriptCommander{}

	cmd := &cobra.Command{
		Use:   "script <file.lua>...",
		Short: scriptShortDesc,
		Long:  scriptLongDesc,
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			v, err := settings.Load(cmd, config.FlagStory, config.FlagValidate, config.FlagMaxSteps)
			if err != nil {
				return err
			}
			cmder.storyPath = v.GetString("story.path")
			cmder.validate = v.GetBool("story.validate")
			cmder.maxSteps = v.GetUint("run.max_steps")
			cmder.logger = settings.Logger(v, cmd.ErrOrStderr())
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := scenario.ConfigFromEnv()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("fail-fast") {
				cfg.FailFast = cmder.failFast
			}
			return cmder.run(cmd.Context(), cmd.OutOrStdout(), cfg, args)
		},
	}

	config.AddStringFlag(cmd, config.KataruFlags, config.FlagStory, &cmder.storyPath)
	config.AddBoolFlag(cmd, config.KataruFlags, config.FlagValidate, &cmder.validate)
	config.AddUintFlag(cmd, config.KataruFlags, config.FlagMaxSteps, &cmder.maxSteps)
	cmd.Flags().BoolVar(&cmder.failFast, "fail-fast", false, "Stop each script at its first failed expectation")

	return cmd
}

func (c *scriptCommander) run(ctx context.Context, w io.Writer, cfg scenario.Config, paths []string) error {
	st, err := story.Load(c.storyPath)
	if err != nil {
		return fmt.Errorf("loading story: %w", err)
	}

	failed := 0
	start := time.Now()
	for _, path := range paths {
		res, err := c.runOne(ctx, st, cfg, path)
		if err != nil || !res.Passed() {
			failed++
		}
		report(w, path, res, err)
	}

	lipgloss.Fprintf(w, "\n%d script(s), %d failed %s\n",
		len(paths), failed, cliui.DimStyle.Render("("+cliui.FormatDuration(time.Since(start))+")"))

	if failed > 0 {
		return ErrFailed
	}
	return nil
}

func (c *scriptCommander) runOne(ctx context.Context, st *story.Story, cfg scenario.Config, path string) (*scenario.Result, error) {
	s, err := session.New(st, nil, c.validate,
		session.WithLogger(c.logger),
		session.WithInterpreter(interp.New(interp.WithMaxSteps(int(c.maxSteps)))),
	)
	if err != nil {
		return nil, err
	}

	return scenario.Run(ctx, s, path, cfg, scenario.WithLogger(c.logger.With("script", filepath.Base(path))))
}

func report(w io.Writer, path string, res *scenario.Result, err error) {
	failed := err != nil || (res != nil && !res.Passed())
	mark := cliui.SuccessMark
	if failed {
		mark = cliui.FailMark
	}

	if res == nil {
		lipgloss.Fprintf(w, "%s %s\n", mark, path)
	} else {
		lipgloss.Fprintf(w, "%s %s %s\n", mark, path,
			cliui.DimStyle.Render(fmt.Sprintf("(%d expectation(s), %d advance(s))", res.Expectations, res.Advances)))
		for _, f := range res.Failures {
			lipgloss.Fprintf(w, "    %s\n", f)
		}
	}
	if err != nil {
		lipgloss.Fprintf(w, "    error: %v\n", err)
	}
}
