// Package statuscmder provides the status command, which shows a saved
// session's position, call stack and variables.
package statuscmder

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/kataru/cmd/kataru/settings"
	"github.com/papercomputeco/kataru/pkg/bookmark"
	"github.com/papercomputeco/kataru/pkg/cliui"
	"github.com/papercomputeco/kataru/pkg/config"
	"github.com/papercomputeco/kataru/pkg/dotdir"
	"github.com/papercomputeco/kataru/pkg/utils"
)

// maxValueLen caps how much of a string variable is shown.
const maxValueLen = 48

type statusCommander struct {
	bookmarkPath string
	slot         string
	configDir    string
	raw          bool
}

const statusLongDesc string = `Show the saved position, call stack and variables of a session.

Reads the save slot (.kataru/saves/<slot>.yml) or the file given with
--bookmark. Output is rendered markdown; use --raw for plain markdown.

Examples:
  kataru status
  kataru status --slot chapter-two
  kataru status --bookmark save.yml --raw`

const statusShortDesc string = "Show the saved session state"

func NewStatusCmd() *cobra.Command {
	cmder := &statusCommander{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: statusShortDesc,
		Long:  statusLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			v, err := settings.Load(cmd, config.FlagBookmark, config.FlagSlot)
			if err != nil {
				return err
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			cmder.bookmarkPath = v.GetString("bookmark.path")
			cmder.slot = v.GetString("bookmark.slot")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.OutOrStdout())
		},
	}

	config.AddStringFlag(cmd, config.KataruFlags, config.FlagBookmark, &cmder.bookmarkPath)
	config.AddStringFlag(cmd, config.KataruFlags, config.FlagSlot, &cmder.slot)
	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print markdown without rendering")

	return cmd
}

func (c *statusCommander) run(w io.Writer) error {
	ddm := dotdir.NewManager()

	var (
		b      *bookmark.Bookmark
		source string
		err    error
	)
	if c.bookmarkPath != "" {
		source = c.bookmarkPath
		b, err = bookmark.Load(c.bookmarkPath)
	} else {
		source = "slot " + c.slot
		b, err = ddm.LoadSlot(c.slot, c.configDir)
	}
	if err != nil {
		return err
	}

	slots, err := ddm.Slots(c.configDir)
	if err != nil {
		return err
	}
	dir, loc, err := ddm.Resolve(c.configDir)
	if err != nil {
		return err
	}
	where := fmt.Sprintf("%s, %s", loc, dir)

	if b == nil {
		fmt.Fprintf(w, "No saved session in %s\n", source)
		if len(slots) > 0 {
			fmt.Fprintf(w, "Saved slots: %s\n", strings.Join(slots, ", "))
		}
		return nil
	}

	md := renderStatus(source, b, slots, where)
	if c.raw {
		_, err := io.WriteString(w, md)
		return err
	}

	out, err := cliui.RenderMarkdown(md)
	if err != nil {
		// Fall back to the plain markdown.
		out = md
	}
	_, err = io.WriteString(w, out)
	return err
}

func renderStatus(source string, b *bookmark.Bookmark, slots []string, where string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Session (%s)\n\n", source)
	fmt.Fprintf(&sb, "**Position:** `%s`\n\n", b.Position().String())

	sb.WriteString("## Call stack\n\n")
	if len(b.Stack) == 0 {
		sb.WriteString("_empty_\n\n")
	} else {
		// Innermost return point first.
		for i := len(b.Stack) - 1; i >= 0; i-- {
			fmt.Fprintf(&sb, "%d. `%s`\n", len(b.Stack)-i, b.Stack[i].String())
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Variables\n\n")
	namespaces := make([]string, 0, len(b.State))
	for ns := range b.State {
		namespaces = append(namespaces, ns)
	}
	slices.Sort(namespaces)

	if len(namespaces) == 0 {
		sb.WriteString("_none_\n\n")
	} else {
		sb.WriteString("| Variable | Kind | Value |\n|---|---|---|\n")
		for _, ns := range namespaces {
			vars := b.State[ns]
			names := make([]string, 0, len(vars))
			for name := range vars {
				names = append(names, name)
			}
			slices.Sort(names)
			for _, name := range names {
				v := vars[name]
				fmt.Fprintf(&sb, "| `%s:%s` | %s | %s |\n", ns, name, v.Kind(), utils.Truncate(v.Text(), maxValueLen))
			}
		}
		sb.WriteString("\n")
	}

	if len(slots) > 0 {
		fmt.Fprintf(&sb, "## Saved slots (%s)\n\n", where)
		for _, s := range slots {
			fmt.Fprintf(&sb, "- %s\n", s)
		}
	}

	return sb.String()
}
