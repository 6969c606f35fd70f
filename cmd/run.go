package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dstanwick/perch/internal/activity"
	"github.com/dstanwick/perch/internal/bot"
	"github.com/dstanwick/perch/internal/config"
	"github.com/dstanwick/perch/internal/llm"
	"github.com/dstanwick/perch/internal/logging"
	"github.com/dstanwick/perch/internal/platform"
	"github.com/dstanwick/perch/internal/reply"
	"github.com/dstanwick/perch/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the mention-reply loop",
	Long: `Runs the bot until interrupted: fetches mentions newer than the saved
cursor, replies to each, announces new commits, then sleeps for the poll
interval and repeats. Requires access credentials from ` + "`perch auth`" + `.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := cfg.ValidateRun(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		log := logging.New("perch")

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := store.Open(filepath.Join(cfg.DataDir, "state.db"))
		if err != nil {
			return fmt.Errorf("opening state store: %w", err)
		}
		defer st.Close()

		client, err := platform.New(cfg.ConsumerKey, cfg.ConsumerSecret, cfg.AccessToken, cfg.AccessSecret)
		if err != nil {
			return fmt.Errorf("building platform client: %w", err)
		}

		provider, err := llm.NewProvider(cfg.Model)
		if err != nil {
			return fmt.Errorf("building completion provider: %w", err)
		}
		composer := reply.NewComposer(provider, cfg.Model, cfg.Persona)

		var feed activity.Feed
		if cfg.GitHubUser != "" {
			feed = activity.NewGitHubFeed(cfg.GitHubUser)
		}

		b := bot.New(cfg, client, composer, st, feed, log)
		return b.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
