package commands

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"mbank/internal/domain"
)

// login <phone>: two-step login, existence check first.
func loginCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <phone>",
		Short: "Log in with phone number and password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			phone := domain.PhoneNumber(args[0])
			if err := domain.ValidatePhoneNumber(phone); err != nil {
				return err
			}

			lookup := wire.API.CheckPhoneNumber(ctx, phone)
			if err := check(ctx, lookup); err != nil {
				return err
			}
			wire.Session.SetPhoneNumber(phone)
			if lookup.Data.Name != "" {
				fmt.Printf("Welcome back, %s.\n", lookup.Data.Name)
			}

			if password == "" {
				p, err := readPassword()
				if err != nil {
					return err
				}
				password = p
			}
			if err := domain.ValidatePassword(password); err != nil {
				return err
			}

			res, err := wire.Session.Login(ctx, phone, password)
			if err != nil {
				return err
			}
			if res.IsCancelled() {
				return errCancelled
			}
			if p, failed := res.Problem(); failed {
				if n := wire.Session.LoginFailures(); n > 1 {
					return fmt.Errorf("%s (%d failed attempts)", p.Message, n)
				}
				return errors.New(p.Message)
			}
			fmt.Printf("Logged in as %s.\n", wire.Session.Session().FullName)

			_, err = refreshAccount(ctx)
			return err
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	return cmd
}

// readPassword prompts on the terminal without echo. Piped input is read as
// one line.
func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, "Password: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and remove stored tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			wire.Session.Logout(cmd.Context())
			fmt.Println("Logged out.")
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := wire.Session.Session()
			fmt.Printf("State:   %s\n", wire.Session.State())
			if !s.IsAuthenticated() {
				return nil
			}
			if s.FullName != "" {
				fmt.Printf("Name:    %s\n", s.FullName)
			}
			if s.PhoneNumber != "" {
				fmt.Printf("Phone:   %s\n", s.PhoneNumber)
			}
			if s.AccountNumber != "" {
				fmt.Printf("Account: %s\n", s.AccountNumber)
			}
			return nil
		},
	}
}
