package snapshotcmder

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

type listCommander struct {
	archiveOptions
}

func newListCmd() *cobra.Command {
	cmder := &listCommander{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived snapshots",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.load(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmder.addFlags(cmd, false)

	return cmd
}

func (c *listCommander) run(cmd *cobra.Command) error {
	driver, err := c.open()
	if err != nil {
		return err
	}
	defer driver.Close()

	records, err := driver.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing snapshots: %w", err)
	}

	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), `No snapshots archived. Take one with ":save <label>" during "kataru run".`)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LABEL\tPOSITION\tSTACK\tTAKEN")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			rec.Label,
			rec.State.Position().String(),
			len(rec.State.Stack),
			rec.TakenAt.Local().Format(time.DateTime),
		)
	}
	return w.Flush()
}
