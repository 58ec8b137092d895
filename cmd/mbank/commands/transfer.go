package commands

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"mbank/internal/domain"
	"mbank/internal/problem"
	"mbank/internal/services/session"
)

// send fetches the account for fresh limits, then creates the transaction.
func send(ctx context.Context, req domain.TransactionRequest) error {
	if err := requireLogin(); err != nil {
		return err
	}
	acc, err := refreshAccount(ctx)
	if err != nil {
		return err
	}
	req.Account = acc.AccountNumber
	req.TokenID = acc.Token
	if err := req.Validate(); err != nil {
		return err
	}
	if err := req.ValidateLimits(acc.Balance); err != nil {
		return err
	}

	res, _, err := session.Authorized(ctx, wire.Session, func(token string) problem.Result[domain.Transaction] {
		return wire.API.CreateTransaction(ctx, token, req)
	})
	if err != nil {
		return err
	}
	if err := check(ctx, res); err != nil {
		return err
	}
	fmt.Printf("%s %s: %s (%s)\n", res.Data.TransactionType, res.Data.Amount.StringFixed(2), res.Data.Status, res.Data.TransactionID)

	_, err = refreshAccount(ctx)
	return err
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, domain.ErrInvalidAmount
	}
	return d, nil
}

func transferCmd() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "transfer <phone> <amount>",
		Short: "Transfer money to another customer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			to := domain.PhoneNumber(args[0])
			if to == "" {
				return domain.ErrRecipientRequired
			}
			if err := domain.ValidatePhoneNumber(to); err != nil {
				return err
			}
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			return send(cmd.Context(), domain.TransactionRequest{
				To:              to,
				Amount:          amount,
				Description:     description,
				TransactionType: domain.TransactionTransfer,
			})
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "note for the recipient")
	return cmd
}

func reloadCmd() *cobra.Command {
	var to, description string
	cmd := &cobra.Command{
		Use:   "reload <amount>",
		Short: "Reload prepaid credit from your account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			return send(cmd.Context(), domain.TransactionRequest{
				To:              domain.PhoneNumber(to),
				Amount:          amount,
				Description:     description,
				TransactionType: domain.TransactionReload,
			})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "prepaid number to reload")
	cmd.Flags().StringVarP(&description, "description", "d", "", "note")
	return cmd
}
