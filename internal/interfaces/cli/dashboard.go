package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/launch-radar/pkg/client"
)

// heatmapView renders one row per product. Cells show the percentage or "-"
// when the market has no data; "*" marks blockers and "^" an open escalation.
type heatmapView struct{ h *client.Heatmap }

func (v heatmapView) TableHeaders() []string {
	headers := []string{"PRODUCT"}
	for _, c := range v.h.Columns {
		headers = append(headers, c.Name)
	}
	return append(headers, "TOTAL")
}

func (v heatmapView) TableRows() [][]string {
	rows := make([][]string, len(v.h.Rows))
	for i, r := range v.h.Rows {
		row := []string{r.ProductName}
		for _, c := range r.Cells {
			row = append(row, formatCell(c))
		}
		total := "-"
		if r.Total != nil {
			total = formatPct(*r.Total)
		}
		rows[i] = append(row, total)
	}
	return rows
}

func formatCell(c client.HeatmapCell) string {
	s := "-"
	if c.Value != nil {
		s = strconv.FormatFloat(*c.Value, 'f', 0, 64) + "%"
	}
	if c.Flags.Blocked {
		s += "*"
	}
	if c.Flags.Escalated {
		s += "^"
	}
	return s
}

func newHeatmapCmd() *cobra.Command {
	var q client.HeatmapQuery
	cmd := &cobra.Command{
		Use:   "heatmap",
		Short: "Show launch coverage per product and market",
		Long: "heatmap prints the coverage grid at one drill-down position. Without\n" +
			"--level or --parent it starts at the top of the hierarchy.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cl, ctx, cancel, err := apiCall(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			h, err := cl.Dashboard().Heatmap(ctx, q)
			if err != nil {
				return err
			}
			if h.Breadcrumb != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), h.Breadcrumb)
			}
			return printResult(cmd, h, heatmapView{h})
		},
	}
	f := cmd.Flags()
	f.StringVar(&q.Level, "level", "", "market level to show")
	f.StringVar(&q.ParentID, "parent", "", "drill into this market")
	f.StringSliceVar(&q.ProductIDs, "product", nil, "restrict to these product ids")
	f.StringVar(&q.Metric, "metric", "", "coverage metric (city_pct, gb_weighted_pct, tam_pct)")
	return cmd
}

type radarView struct{ v *client.RadarView }

func (r radarView) TableHeaders() []string {
	return []string{"PRODUCT", "COVERAGE", "BLOCKED", "BLOCKERS"}
}

func (r radarView) TableRows() [][]string {
	rows := make([][]string, len(r.v.Rows))
	for i, row := range r.v.Rows {
		name := ""
		if row.Product != nil {
			name = row.Product.Name
		}
		cats := make([]string, 0, len(row.Blockers))
		for _, b := range row.Blockers {
			cats = append(cats, b.Category)
		}
		rows[i] = []string{
			name,
			formatPct(row.Coverage),
			fmt.Sprintf("%d/%d", row.BlockedCount, row.TotalCount),
			truncate(strings.Join(cats, ", "), 48),
		}
	}
	return rows
}

func newPersonalCmd() *cobra.Command {
	var f client.RadarFilter
	cmd := &cobra.Command{
		Use:   "personal",
		Short: "Show the personal radar for your regions and countries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cl, ctx, cancel, err := apiCall(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			v, err := cl.Dashboard().Personal(ctx, f)
			if err != nil {
				return err
			}
			printWarnings(cmd, v.Warnings)
			return printResult(cmd, v, radarView{v})
		},
	}
	fl := cmd.Flags()
	fl.StringSliceVar(&f.Regions, "regions", nil, "regions to include")
	fl.StringSliceVar(&f.Countries, "countries", nil, "country codes to include")
	fl.BoolVar(&f.PersonalView, "personal-view", true, "restrict to --regions and --countries")
	fl.StringVar(&f.ProductID, "product", "", "focus on one product")
	fl.StringVar(&f.MarketID, "market", "", "focus on one market")
	fl.StringVar(&f.FocusComment, "focus-comment", "", "include one comment thread")
	return cmd
}
