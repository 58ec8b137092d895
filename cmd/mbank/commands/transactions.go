package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"mbank/internal/domain"
	"mbank/internal/problem"
	"mbank/internal/services/session"
)

func transactionsCmd() *cobra.Command {
	var status, kind string
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List your transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := requireLogin(); err != nil {
				return err
			}
			res, _, err := session.Authorized(ctx, wire.Session, func(token string) problem.Result[[]domain.Transaction] {
				return wire.API.GetTransactions(ctx, token)
			})
			if err != nil {
				return err
			}
			if err := check(ctx, res); err != nil {
				return err
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tTYPE\tSTATUS\tAMOUNT\tTO\tDESCRIPTION")
			for _, t := range res.Data {
				if status != "" && t.Status != domain.TransactionStatus(status) {
					continue
				}
				if kind != "" && t.TransactionType != domain.TransactionType(kind) {
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					t.CreatedAt.Local().Format("2006-01-02 15:04"),
					t.TransactionType, t.Status, t.Amount.StringFixed(2), t.To, t.Description)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only pending, success, cancelled or failed")
	cmd.Flags().StringVar(&kind, "type", "", "only transfer or reload")
	return cmd
}
