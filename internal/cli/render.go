package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"expenses/internal/core"
)

// RenderTable writes t as aligned columns under its title.
func RenderTable(w io.Writer, t core.Table) error {
	if t.Title != "" {
		if _, err := fmt.Fprintln(w, strings.ToUpper(t.Title)+":"); err != nil {
			return err
		}
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Columns, "\t"))
	rule := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		rule[i] = strings.Repeat("-", len(c))
	}
	fmt.Fprintln(tw, strings.Join(rule, "\t"))
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if len(t.Rows) == 0 {
		fmt.Fprintln(tw, "(no rows)")
	}
	return tw.Flush()
}
