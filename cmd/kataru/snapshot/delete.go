package snapshotcmder

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/kataru/pkg/storage"
)

type deleteCommander struct {
	archiveOptions
}

func newDeleteCmd() *cobra.Command {
	cmder := &deleteCommander{}

	cmd := &cobra.Command{
		Use:     "delete <label>",
		Aliases: []string{"rm"},
		Short:   "Delete an archived snapshot",
		Args:    cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args[0])
		},
	}

	cmder.addFlags(cmd, false)

	return cmd
}

func (c *deleteCommander) run(cmd *cobra.Command, label string) error {
	driver, err := c.open()
	if err != nil {
		return err
	}
	defer driver.Close()

	err = driver.Delete(cmd.Context(), label)
	if errors.As(err, new(storage.NotFoundError)) {
		return fmt.Errorf("no snapshot labelled %q", label)
	}
	if err != nil {
		return fmt.Errorf("deleting snapshot %q: %w", label, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted snapshot %s\n", label)
	return nil
}
