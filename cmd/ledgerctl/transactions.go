package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vobaolong/shopify-be-sub001/internal/query"
)

func (a *app) transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List an account's wallet transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := accountFromFlags(cmd)
			if err != nil {
				return err
			}
			orderID, _ := cmd.Flags().GetString("order")
			limit, _ := cmd.Flags().GetInt("limit")
			offset, _ := cmd.Flags().GetInt("offset")
			asJSON, _ := cmd.Flags().GetBool("json")

			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			page, err := query.NewHandler(s).ListTransactions(cmd.Context(), ref, query.TransactionFilter{
				OrderID: orderID,
				Limit:   limit,
				Offset:  offset,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(page)
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CREATED\tDIRECTION\tAMOUNT\tORDER\tID")
			for _, tr := range page.Items {
				direction := "debit"
				if tr.IsUp {
					direction = "credit"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					tr.CreatedAt.UTC().Format("2006-01-02 15:04:05"), direction, tr.Amount.StringFixed(2), tr.OrderID, tr.ID)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "%d of %d transactions\n", len(page.Items), page.Total)
			return nil
		},
	}

	accountFlags(cmd)
	cmd.Flags().String("order", "", "Only transactions of this order")
	cmd.Flags().IntP("limit", "n", query.DefaultPageSize, "Maximum results")
	cmd.Flags().Int("offset", 0, "Results to skip")
	cmd.Flags().BoolP("json", "j", false, "Output as JSON")
	return cmd
}
