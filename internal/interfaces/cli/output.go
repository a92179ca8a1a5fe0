package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// tableView is implemented by every command result.
type tableView interface {
	TableHeaders() []string
	TableRows() [][]string
}

// printResult writes data as JSON or as a table depending on --output. The
// JSON form is data itself, not its table projection.
func printResult(cmd *cobra.Command, data interface{}, tv tableView) error {
	format := "table"
	if cliCtx, err := GetCLIContext(cmd); err == nil {
		format = cliCtx.OutputFormat
	}
	if format == "json" {
		return printJSON(cmd.OutOrStdout(), data)
	}
	return renderTable(cmd.OutOrStdout(), tv.TableHeaders(), tv.TableRows())
}

func printJSON(w io.Writer, data interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func renderTable(w io.Writer, headers []string, rows [][]string) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(no results)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	t.AppendHeader(header)

	for _, r := range rows {
		row := make(table.Row, len(headers))
		for i := range headers {
			if i < len(r) {
				row[i] = r[i]
			}
		}
		t.AppendRow(row)
	}
	t.Render()
	return nil
}

// printWarnings writes server warnings to stderr.
func printWarnings(cmd *cobra.Command, warnings []string) {
	for _, w := range warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
	}
}

func formatPct(v float64) string { return fmt.Sprintf("%.1f%%", v) }

func formatDate(t *time.Time) string {
	if t == nil {
		return "TBD"
	}
	return t.Format("2006-01-02")
}

func formatBool(b bool) string {
	if b {
		return "yes"
	}
	return ""
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
