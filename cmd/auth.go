package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dstanwick/perch/internal/config"
	"github.com/dstanwick/perch/internal/logging"
	"github.com/dstanwick/perch/internal/oauth"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Obtain access credentials for the bot's account",
	Long: `Starts a local server that drives the OAuth1 authorization handshake.
Visit the root page to open the platform's authorize screen; after you
approve, the access token and secret are printed for you to add to the
config file. Nothing is stored automatically.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		x := oauth.NewExchange(cfg.ConsumerKey, cfg.ConsumerSecret, cfg.Port, logging.New("perch-auth"))
		return x.Serve(ctx, cfg.Port)
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
}
