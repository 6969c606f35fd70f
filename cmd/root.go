package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "perch",
	Short: "A social-media bot that replies to mentions and announces commits",
	Long: `Perch watches a social account for new mentions, generates a short
reply for each one with a language model, and posts it. Between batches it
announces new commits from a GitHub account. State is kept in a local
database so restarts do not reprocess old mentions.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".perch.yml", "config file path")
}
