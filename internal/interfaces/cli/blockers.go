package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/launch-radar/pkg/client"
	"github.com/turtacn/launch-radar/pkg/errors"
)

type blockerList []*client.Blocker

func (l blockerList) TableHeaders() []string {
	return []string{"ID", "PRODUCT", "MARKET", "CATEGORY", "OWNER", "ETA", "RESOLVED", "STALE", "NOTE"}
}

func (l blockerList) TableRows() [][]string {
	rows := make([][]string, len(l))
	for i, b := range l {
		rows[i] = []string{
			b.ID, b.ProductID, b.MarketID, b.Category, b.Owner, formatDate(b.ETA),
			formatBool(b.Resolved), formatBool(b.Stale), truncate(b.Note, 40),
		}
	}
	return rows
}

func newBlockersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blockers",
		Short: "List, create and resolve launch blockers",
	}
	cmd.AddCommand(newBlockersListCmd(), newBlockersCreateCmd(), newBlockersResolveCmd())
	return cmd
}

func newBlockersListCmd() *cobra.Command {
	var opts client.BlockerListOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List blockers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cl, ctx, cancel, err := apiCall(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			list, err := cl.Blockers().List(ctx, opts)
			if err != nil {
				return err
			}
			return printResult(cmd, list, blockerList(list))
		},
	}
	cmd.Flags().StringSliceVar(&opts.ProductIDs, "product", nil, "product ids")
	cmd.Flags().StringSliceVar(&opts.MarketIDs, "market", nil, "market ids")
	cmd.Flags().BoolVar(&opts.UnresolvedOnly, "unresolved", false, "only unresolved blockers")
	return cmd
}

func newBlockersCreateCmd() *cobra.Command {
	var (
		req client.CreateBlockerRequest
		eta string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Record a blocker for a product in a market",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if eta != "" {
				t, err := time.Parse("2006-01-02", eta)
				if err != nil {
					return errors.InvalidParam("--eta must be YYYY-MM-DD").WithDetail(eta)
				}
				req.ETA = &t
			}

			_, cl, ctx, cancel, err := apiCall(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			b, err := cl.Blockers().Create(ctx, req)
			if err != nil {
				return err
			}
			return printResult(cmd, b, blockerList{b})
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.ProductID, "product", "", "product id")
	f.StringVar(&req.MarketID, "market", "", "market id")
	f.StringVar(&req.Category, "category", "", "blocker category")
	f.StringVar(&req.Owner, "owner", "", "owner")
	f.StringVar(&eta, "eta", "", "expected resolution date (YYYY-MM-DD)")
	f.StringVar(&req.Note, "note", "", "description")
	f.StringVar(&req.JiraURL, "jira", "", "tracking ticket url")
	_ = cmd.MarkFlagRequired("product")
	_ = cmd.MarkFlagRequired("market")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func newBlockersResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <blocker-id>...",
		Short: "Mark blockers resolved",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cl, ctx, cancel, err := apiCall(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			if len(args) == 1 {
				b, err := cl.Blockers().Resolve(ctx, args[0])
				if err != nil {
					return err
				}
				return printResult(cmd, b, blockerList{b})
			}

			resolved := true
			updated, err := cl.Blockers().BulkUpdate(ctx, client.BlockerPatch{IDs: args, Resolved: &resolved})
			if len(updated) > 0 {
				if perr := printResult(cmd, updated, blockerList(updated)); perr != nil {
					return perr
				}
			}
			return err
		},
	}
}
