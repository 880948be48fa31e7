package snapshotcmder

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/kataru/pkg/storage"
)

type showCommander struct {
	archiveOptions
}

func newShowCmd() *cobra.Command {
	cmder := &showCommander{}

	cmd := &cobra.Command{
		Use:   "show <label>",
		Short: "Print an archived snapshot as a bookmark",
		Args:  cobra.ExactArgs(1),
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

func (c *showCommander) run(cmd *cobra.Command, label string) error {
	driver, err := c.open()
	if err != nil {
		return err
	}
	defer driver.Close()

	rec, err := getRecord(cmd, driver, label)
	if err != nil {
		return err
	}

	data, err := rec.State.Marshal()
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func getRecord(cmd *cobra.Command, driver storage.Driver, label string) (*storage.Record, error) {
	rec, err := driver.Get(cmd.Context(), label)
	if errors.As(err, new(storage.NotFoundError)) {
		return nil, fmt.Errorf("no snapshot labelled %q", label)
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %q: %w", label, err)
	}
	return rec, nil
}
