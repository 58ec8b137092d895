package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"mbank/internal/app"
)

var (
	configPath string
	home       string
	passphrase string
	debug      bool

	wire *app.Wire
)

func Execute() error {
	root := &cobra.Command{
		Use:           "mbank",
		Short:         "Mobile banking client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("%w\n\nEnvironment:\n%s", err, app.Usage())
			}
			if home != "" {
				cfg.Home = home
				cfg.Storage.Dir = home
			}
			if debug {
				cfg.Env = "dev"
			}
			if passphrase == "" {
				passphrase = os.Getenv("MBANK_PASSPHRASE")
			}
			if cfg.Storage.Driver != app.DriverMemory && passphrase == "" {
				return fmt.Errorf("passphrase required (-p or MBANK_PASSPHRASE)")
			}
			if err := os.MkdirAll(cfg.Storage.Dir, 0o700); err != nil {
				return err
			}

			wire, err = app.NewWire(cmd.Context(), cfg, app.Options{
				Passphrase: passphrase,
				LogOutput:  os.Stderr,
			})
			if err != nil {
				return err
			}
			if err := wire.Session.Hydrate(cmd.Context()); err != nil {
				wire.Logger.Warn("hydrate failed, continuing logged out", "err", err)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("MBANK_CONFIG"), "path to YAML config")
	root.PersistentFlags().StringVar(&home, "home", "", "state dir (default ~/.mbank)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting secure storage")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging")

	root.AddCommand(
		loginCmd(),
		logoutCmd(),
		statusCmd(),
		accountCmd(),
		balanceCmd(),
		transactionsCmd(),
		transferCmd(),
		reloadCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := root.ExecuteContext(ctx)
	if wire != nil {
		if cerr := wire.Close(); cerr != nil {
			fmt.Fprintln(os.Stderr, "close:", cerr)
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}
