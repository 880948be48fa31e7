// Package katarucmder
package katarucmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/kataru/cmd/kataru/config"
	initcmder "github.com/papercomputeco/kataru/cmd/kataru/init"
	runcmder "github.com/papercomputeco/kataru/cmd/kataru/run"
	scriptcmder "github.com/papercomputeco/kataru/cmd/kataru/script"
	servecmder "github.com/papercomputeco/kataru/cmd/kataru/serve"
	snapshotcmder "github.com/papercomputeco/kataru/cmd/kataru/snapshot"
	statuscmder "github.com/papercomputeco/kataru/cmd/kataru/status"
	validatecmder "github.com/papercomputeco/kataru/cmd/kataru/validate"
	versioncmder "github.com/papercomputeco/kataru/cmd/version"
	"github.com/papercomputeco/kataru/pkg/config"
)

const kataruLongDesc string = `Kataru plays branching dialogue stories written in YAML.

Play and inspect stories using:
  kataru run         Play a story in the terminal, resuming from a save slot
  kataru validate    Check a story for broken references
  kataru script      Run Lua playthrough scripts against a story
  kataru status      Show the saved position and variables
  kataru snapshot    Manage the SQLite snapshot archive
  kataru serve       Host sessions over HTTP and MCP`

const kataruShortDesc string = "Kataru - branching dialogue runtime"

func NewKataruCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "kataru",
		Short:         kataruShortDesc,
		Long:          kataruLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Global flags
	var debug, json bool
	config.AddPersistentBoolFlag(cmd, config.KataruFlags, config.FlagDebug, &debug)
	config.AddPersistentBoolFlag(cmd, config.KataruFlags, config.FlagJSON, &json)
	cmd.PersistentFlags().String("config-dir", "", "Override the .kataru/ directory")

	// Add subcommands
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(validatecmder.NewValidateCmd())
	cmd.AddCommand(runcmder.NewRunCmd())
	cmd.AddCommand(scriptcmder.NewScriptCmd())
	cmd.AddCommand(statuscmder.NewStatusCmd())
	cmd.AddCommand(snapshotcmder.NewSnapshotCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
