// Package runcmder provides the run command for playing a story in the
// terminal.
package runcmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/kataru/cmd/kataru/settings"
	"github.com/papercomputeco/kataru/cmd/kataru/sqlitepath"
	"github.com/papercomputeco/kataru/pkg/bookmark"
	"github.com/papercomputeco/kataru/pkg/config"
	"github.com/papercomputeco/kataru/pkg/dotdir"
	"github.com/papercomputeco/kataru/pkg/interp"
	"github.com/papercomputeco/kataru/pkg/logger"
	"github.com/papercomputeco/kataru/pkg/session"
	"github.com/papercomputeco/kataru/pkg/storage"
	"github.com/papercomputeco/kataru/pkg/storage/sqlite"
	"github.com/papercomputeco/kataru/pkg/story"
)

type runCommander struct {
	storyPath    string
	validate     bool
	bookmarkPath string
	slot         string
	sqlitePath   string
	maxSteps     uint
	fresh        bool
	logFile      string
	configDir    string

	in          io.Reader
	out         io.Writer
	interactive bool

	ddm     *dotdir.Manager
	archive storage.Driver
	logger  *slog.Logger
}

const runLongDesc string = `Play a story in the terminal.

Lines are printed as the story advances. At a choice, answer with the
option number or its caption; an empty answer takes the choice's default.
Play resumes from the save slot (.kataru/saves/<slot>.yml) or from --bookmark
and is saved there on exit. Finishing the story clears the save slot.

At a choice prompt, lines starting with ":" are session commands:
  :save <label>     Save a snapshot and archive it in the SQLite store
  :load <label>     Restore a snapshot, from the archive if not in memory
  :snapshots        List snapshots taken this session
  :goto <passage>   Jump to a passage
  :get <variable>   Print a variable
  :quit             Save and exit

Examples:
  kataru run
  kataru run --story tales/ --slot chapter-two
  kataru run --new
  kataru run --bookmark save.yml < answers.txt`

const runShortDesc string = "Play a story in the terminal"

func NewRunCmd() *cobra.Command {
	cmder := &runCommander{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: runShortDesc,
		Long:  runLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			v, err := settings.Load(cmd,
				config.FlagStory,
				config.FlagValidate,
				config.FlagBookmark,
				config.FlagSlot,
				config.FlagSQLite,
				config.FlagMaxSteps,
			)
			if err != nil {
				return err
			}

			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			cmder.storyPath = v.GetString("story.path")
			cmder.validate = v.GetBool("story.validate")
			cmder.bookmarkPath = v.GetString("bookmark.path")
			cmder.slot = v.GetString("bookmark.slot")
			cmder.sqlitePath = v.GetString("storage.sqlite_path")
			cmder.maxSteps = v.GetUint("run.max_steps")
			cmder.logger = settings.Logger(v, cmd.ErrOrStderr())
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.in = cmd.InOrStdin()
			cmder.out = cmd.OutOrStdout()
			if f, ok := cmder.in.(*os.File); ok {
				cmder.interactive = term.IsTerminal(int(f.Fd()))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return cmder.run(ctx)
		},
	}

	config.AddStringFlag(cmd, config.KataruFlags, config.FlagStory, &cmder.storyPath)
	config.AddBoolFlag(cmd, config.KataruFlags, config.FlagValidate, &cmder.validate)
	config.AddStringFlag(cmd, config.KataruFlags, config.FlagBookmark, &cmder.bookmarkPath)
	config.AddStringFlag(cmd, config.KataruFlags, config.FlagSlot, &cmder.slot)
	config.AddStringFlag(cmd, config.KataruFlags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddUintFlag(cmd, config.KataruFlags, config.FlagMaxSteps, &cmder.maxSteps)
	cmd.Flags().BoolVar(&cmder.fresh, "new", false, "Ignore the saved bookmark and start from the beginning")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write JSON debug logs to this file")

	return cmd
}

func (c *runCommander) run(ctx context.Context) error {
	c.ddm = dotdir.NewManager()

	if c.logFile != "" {
		f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec // user-chosen log path
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		c.logger = logger.Multi(c.logger, logger.New(
			logger.WithJSON(true),
			logger.WithDebug(true),
			logger.WithWriter(f),
		))
	}

	defer func() {
		if c.archive != nil {
			c.archive.Close()
		}
	}()

	st, err := story.Load(c.storyPath)
	if err != nil {
		return fmt.Errorf("loading story: %w", err)
	}

	b, err := c.loadBookmark()
	if err != nil {
		return err
	}

	s, err := session.New(st, b, c.validate,
		session.WithLogger(c.logger),
		session.WithInterpreter(interp.New(interp.WithMaxSteps(int(c.maxSteps)))),
	)
	if err != nil {
		return err
	}
	c.logger.Debug("session started", "story", c.storyPath, "position", s.Position().String())

	finished, playErr := c.play(ctx, s)
	if err := c.saveBookmark(s, finished); err != nil {
		if playErr != nil {
			c.logger.Error("saving bookmark", "error", err)
			return playErr
		}
		return err
	}
	return playErr
}

func (c *runCommander) loadBookmark() (*bookmark.Bookmark, error) {
	switch {
	case c.fresh:
		return nil, nil

	case c.bookmarkPath != "":
		b, err := bookmark.LoadOrNew(c.bookmarkPath)
		if err != nil {
			return nil, fmt.Errorf("loading bookmark: %w", err)
		}
		return b, nil

	default:
		b, err := c.ddm.LoadSlot(c.slot, c.configDir)
		if err != nil {
			return nil, err
		}
		if b != nil {
			c.logger.Info("resuming", "slot", c.slot, "passage", b.Passage)
		}
		return b, nil
	}
}

// saveBookmark persists play state. A finished story clears the save slot
// so the next run starts over; an explicit bookmark file is always written.
func (c *runCommander) saveBookmark(s *session.Session, finished bool) error {
	if c.bookmarkPath != "" {
		return s.SaveBookmark(c.bookmarkPath)
	}

	if finished {
		return c.ddm.ClearSlot(c.slot, c.configDir)
	}

	b, err := s.Bookmark()
	if err != nil {
		return err
	}
	return c.ddm.SaveSlot(b, c.slot, c.configDir)
}

// openArchive lazily opens the SQLite snapshot archive.
func (c *runCommander) openArchive() (storage.Driver, error) {
	if c.archive != nil {
		return c.archive, nil
	}

	path, err := sqlitepath.ResolveOrDefault(c.sqlitePath, c.configDir)
	if err != nil {
		return nil, err
	}

	driver, err := sqlite.NewSQLiteDriver(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot archive: %w", err)
	}
	c.logger.Debug("opened snapshot archive", "path", path)
	c.archive = driver
	return driver, nil
}
