package snapshotcmder

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/kataru/pkg/dotdir"
	"github.com/papercomputeco/kataru/pkg/storage"
)

type saveCommander struct {
	archiveOptions
}

func newSaveCmd() *cobra.Command {
	cmder := &saveCommander{}

	cmd := &cobra.Command{
		Use:   "save <label>",
		Short: "Archive the state of a save slot as a snapshot",
		Args:  cobra.ExactArgs(1),
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

func (c *saveCommander) run(cmd *cobra.Command, label string) error {
	b, err := dotdir.NewManager().LoadSlot(c.slot, c.configDir)
	if err != nil {
		return err
	}
	if b == nil {
		return fmt.Errorf("save slot %q is empty", c.slot)
	}

	driver, err := c.open()
	if err != nil {
		return err
	}
	defer driver.Close()

	created, err := driver.Put(cmd.Context(), &storage.Record{
		Label:   label,
		State:   b,
		TakenAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("archiving snapshot %q: %w", label, err)
	}

	verb := "Archived"
	if !created {
		verb = "Replaced"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s snapshot %s at %s\n", verb, label, b.Position().String())
	return nil
}
