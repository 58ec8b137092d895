package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"mbank/internal/domain"
	"mbank/internal/problem"
	"mbank/internal/services/session"
)

// refreshAccount fetches the account and feeds it to the session unless the
// session changed while the call was in flight.
func refreshAccount(ctx context.Context) (domain.Account, error) {
	res, gen, err := session.Authorized(ctx, wire.Session, func(token string) problem.Result[domain.Account] {
		return wire.API.GetAccount(ctx, token)
	})
	if err != nil {
		return domain.Account{}, err
	}
	if err := check(ctx, res); err != nil {
		return domain.Account{}, err
	}
	applied, err := wire.Session.ApplyAccount(ctx, gen, res.Data)
	if err != nil {
		return domain.Account{}, err
	}
	if !applied {
		return domain.Account{}, errCancelled
	}
	return res.Data, nil
}

func accountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "account",
		Short: "Fetch and show your account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(); err != nil {
				return err
			}
			acc, err := refreshAccount(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Name:     %s\n", acc.AccountName)
			fmt.Printf("Account:  %s (%s)\n", acc.AccountNumber, acc.AccountType)
			fmt.Printf("Currency: %s\n", acc.Currency)
			if !acc.IsActive {
				fmt.Println("Status:   frozen")
			}
			return nil
		},
	}
}

func balanceCmd() *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show the last confirmed balance",
		Long: "Show the balance stored at the last account fetch. Unlocking secure\n" +
			"storage with the passphrase counts as local authentication.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := requireLogin(); err != nil {
				return err
			}
			if refresh {
				if _, err := refreshAccount(ctx); err != nil {
					return err
				}
			}
			wire.Session.SetLocallyAuthenticated(passphrase != "")
			bal, ok, err := wire.Session.Balance(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no balance recorded yet, run `mbank account`")
			}
			fmt.Printf("Balance: %s\n", bal.StringFixed(2))
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "fetch the account first")
	return cmd
}
