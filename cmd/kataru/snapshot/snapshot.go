// Package snapshotcmder provides the `kataru snapshot` commands for managing
// the SQLite snapshot archive.
package snapshotcmder

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/kataru/cmd/kataru/settings"
	"github.com/papercomputeco/kataru/cmd/kataru/sqlitepath"
	"github.com/papercomputeco/kataru/pkg/config"
	"github.com/papercomputeco/kataru/pkg/storage"
	"github.com/papercomputeco/kataru/pkg/storage/sqlite"
)

// NewSnapshotCmd creates the parent snapshot command.
func NewSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage the SQLite snapshot archive",
		Long: `Inspect and manage snapshots archived with ":save" during play.

Snapshots can also be taken from a save slot and restored into one, so a
checkpoint can be resumed later with "kataru run --slot".

Examples:
  kataru snapshot list
  kataru snapshot show before-duel
  kataru snapshot save before-duel --slot autosave
  kataru snapshot restore before-duel --slot retry
  kataru snapshot delete before-duel`,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newSaveCmd())
	cmd.AddCommand(newRestoreCmd())
	cmd.AddCommand(newDeleteCmd())

	return cmd
}

// archiveOptions are the settings shared by every snapshot subcommand.
type archiveOptions struct {
	sqlitePath string
	slot       string
	configDir  string
	logger     *slog.Logger
}

func (o *archiveOptions) addFlags(cmd *cobra.Command, withSlot bool) {
	config.AddStringFlag(cmd, config.KataruFlags, config.FlagSQLite, &o.sqlitePath)
	if withSlot {
		config.AddStringFlag(cmd, config.KataruFlags, config.FlagSlot, &o.slot)
	}
}

func (o *archiveOptions) load(cmd *cobra.Command) error {
	v, err := settings.Load(cmd, config.FlagSQLite, config.FlagSlot)
	if err != nil {
		return err
	}
	o.configDir, _ = cmd.Flags().GetString("config-dir")
	o.sqlitePath = v.GetString("storage.sqlite_path")
	o.slot = v.GetString("bookmark.slot")
	o.logger = settings.Logger(v, cmd.ErrOrStderr())
	return nil
}

// open opens the archive. The caller closes it.
func (o *archiveOptions) open() (storage.Driver, error) {
	path, err := sqlitepath.ResolveOrDefault(o.sqlitePath, o.configDir)
	if err != nil {
		return nil, err
	}

	driver, err := sqlite.NewSQLiteDriver(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot archive: %w", err)
	}
	o.logger.Debug("opened snapshot archive", "path", path)
	return driver, nil
}
