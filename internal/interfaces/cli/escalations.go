package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/launch-radar/pkg/client"
)

type escalationList []*client.Escalation

func (l escalationList) TableHeaders() []string {
	return []string{"ID", "PRODUCT", "SCOPE", "TARGET", "STATUS", "POC", "RAISED"}
}

func (l escalationList) TableRows() [][]string {
	rows := make([][]string, len(l))
	for i, e := range l {
		rows[i] = []string{
			e.ID, e.ProductID, e.ScopeLevel, escalationTarget(e), e.Status, e.POC,
			e.CreatedAt.Format("2006-01-02"),
		}
	}
	return rows
}

func escalationTarget(e *client.Escalation) string {
	switch {
	case e.CityID != "":
		return e.CityID
	case e.CountryCode != "":
		return e.CountryCode
	default:
		return e.Region
	}
}

type historyList []*client.HistoryEntry

func (l historyList) TableHeaders() []string {
	return []string{"WHEN", "FROM", "TO", "ACTOR", "NOTES"}
}

func (l historyList) TableRows() [][]string {
	rows := make([][]string, len(l))
	for i, h := range l {
		rows[i] = []string{h.CreatedAt.Format("2006-01-02 15:04"), h.OldStatus, h.NewStatus, h.Actor, truncate(h.Notes, 40)}
	}
	return rows
}

func newEscalationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "escalations",
		Short: "Raise escalations and follow their status",
	}
	cmd.AddCommand(
		newEscalationsListCmd(),
		newEscalationsRaiseCmd(),
		newEscalationsStatusCmd(),
		newEscalationsHistoryCmd(),
	)
	return cmd
}

func newEscalationsListCmd() *cobra.Command {
	var opts client.EscalationListOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List escalations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cl, ctx, cancel, err := apiCall(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			list, err := cl.Escalations().List(ctx, opts)
			if err != nil {
				return err
			}
			return printResult(cmd, list, escalationList(list))
		},
	}
	cmd.Flags().StringSliceVar(&opts.ProductIDs, "product", nil, "product ids")
	cmd.Flags().StringSliceVar(&opts.Statuses, "status", nil, "statuses, e.g. SUBMITTED,IN_DISCUSSION")
	cmd.Flags().BoolVar(&opts.OpenOnly, "open", false, "only unresolved escalations")
	return cmd
}

// warnHistory tells the user when the server kept the change but lost the
// audit row.
func warnHistory(cmd *cobra.Command, res *client.EscalationResult) {
	if !res.HistoryRecorded {
		printWarnings(cmd, []string{"change saved but its history entry was not recorded"})
	}
}

func newEscalationsRaiseCmd() *cobra.Command {
	var req client.RaiseEscalationRequest
	cmd := &cobra.Command{
		Use:   "raise",
		Short: "Raise an escalation for a product at city, country or region scope",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cl, ctx, cancel, err := apiCall(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			res, err := cl.Escalations().Raise(ctx, req)
			if err != nil {
				return err
			}
			warnHistory(cmd, res)
			return printResult(cmd, res, escalationList{res.Escalation})
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.ProductID, "product", "", "product id")
	f.StringVar(&req.ScopeLevel, "scope", "CITY", "scope level (CITY, COUNTRY, REGION)")
	f.StringVar(&req.CityID, "city", "", "city id for CITY scope")
	f.StringVar(&req.CountryCode, "country", "", "country code for COUNTRY scope")
	f.StringVar(&req.Region, "region", "", "region for REGION scope")
	f.StringVar(&req.POC, "poc", "", "point of contact")
	f.StringVar(&req.Reason, "reason", "", "why the launch should be escalated")
	f.StringVar(&req.ReasonType, "reason-type", "", "reason category")
	f.StringVar(&req.BusinessCaseURL, "business-case", "", "business case url")
	_ = cmd.MarkFlagRequired("product")
	_ = cmd.MarkFlagRequired("poc")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func newEscalationsStatusCmd() *cobra.Command {
	var notes string
	cmd := &cobra.Command{
		Use:   "status <escalation-id> <status>",
		Short: "Move an escalation to a new status (admin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cl, ctx, cancel, err := apiCall(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			res, err := cl.Escalations().ChangeStatus(ctx, args[0], args[1], notes)
			if err != nil {
				return err
			}
			warnHistory(cmd, res)
			return printResult(cmd, res, escalationList{res.Escalation})
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "note stored with the history entry")
	return cmd
}

func newEscalationsHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <escalation-id>",
		Short: "Show the status history of an escalation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cl, ctx, cancel, err := apiCall(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			entries, err := cl.Escalations().History(ctx, args[0])
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "no history recorded for "+args[0])
			}
			return printResult(cmd, entries, historyList(entries))
		},
	}
}
