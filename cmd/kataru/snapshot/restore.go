package snapshotcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/kataru/pkg/dotdir"
)

type restoreCommander struct {
	archiveOptions
}

func newRestoreCmd() *cobra.Command {
	cmder := &restoreCommander{}

	cmd := &cobra.Command{
		Use:   "restore <label>",
		Short: "Write an archived snapshot into a save slot",
		Long: `Write an archived snapshot into a save slot, replacing its contents.
The next "kataru run --slot <slot>" resumes from the snapshot.`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args[0])
		},
	}

	cmder.addFlags(cmd, true)

	return cmd
}

func (c *restoreCommander) run(cmd *cobra.Command, label string) error {
	driver, err := c.open()
	if err != nil {
		return err
	}
	defer driver.Close()

	rec, err := getRecord(cmd, driver, label)
	if err != nil {
		return err
	}

	if err := dotdir.NewManager().SaveSlot(rec.State, c.slot, c.configDir); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Restored snapshot %s into slot %s\n", label, c.slot)
	return nil
}
