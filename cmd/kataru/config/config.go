// Package configcmder provides the config command for managing persistent
// kataru configuration stored in the .kataru/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent kataru configuration.

Configuration is stored as config.toml in the .kataru/ directory and provides
default values for command flags. Environment variables (KATARU_STORY_PATH,
KATARU_LOG_DEBUG, ...) override the file, and CLI flags override both.

Keys use dotted notation matching the TOML section structure:
  story.path, story.validate,
  bookmark.path, bookmark.slot,
  storage.sqlite_path,
  run.max_steps,
  log.debug, log.json, log.pretty

Use subcommands to get, set, or list configuration values:
  kataru config set <key> <value>    Set a configuration value
  kataru config get <key>            Get a configuration value
  kataru config list                 List all configuration values

Examples:
  kataru config set story.path tales/
  kataru config set story.validate false
  kataru config get bookmark.slot
  kataru config list`

const configShortDesc string = "Manage persistent kataru configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
