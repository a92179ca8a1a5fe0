package cli

import (
	"github.com/spf13/cobra"

	"github.com/turtacn/launch-radar/pkg/client"
)

type marketList []*client.Market

func (l marketList) TableHeaders() []string { return []string{"ID", "NAME", "TYPE", "PARENT", "CODE"} }

func (l marketList) TableRows() [][]string {
	rows := make([][]string, len(l))
	for i, m := range l {
		rows[i] = []string{m.ID, m.Name, m.Level, m.ParentID, m.Code}
	}
	return rows
}

func newMarketsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "markets",
		Short: "Browse the market hierarchy",
	}
	cmd.AddCommand(newMarketsListCmd(), newMarketsAncestorsCmd(), newMarketsCitiesCmd())
	return cmd
}

func newMarketsListCmd() *cobra.Command {
	var level, parent string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the roots, the children of --parent, or every market of --level",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cl, ctx, cancel, err := apiCall(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			ms, err := cl.Markets().List(ctx, level, parent)
			if err != nil {
				return err
			}
			return printResult(cmd, ms, marketList(ms))
		},
	}
	cmd.Flags().StringVar(&level, "level", "", "market level (mega_region, region, country, city)")
	cmd.Flags().StringVar(&parent, "parent", "", "parent market id")
	return cmd
}

func newMarketsAncestorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ancestors <market-id>",
		Short: "Show a market and its parents up to the root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cl, ctx, cancel, err := apiCall(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			ms, err := cl.Markets().Ancestors(ctx, args[0])
			if err != nil {
				return err
			}
			return printResult(cmd, ms, marketList(ms))
		},
	}
}

func newMarketsCitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cities <market-id>",
		Short: "List the cities under a market",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cl, ctx, cancel, err := apiCall(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			ms, err := cl.Markets().Cities(ctx, args[0])
			if err != nil {
				return err
			}
			return printResult(cmd, ms, marketList(ms))
		},
	}
}
