package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "carelinkd",
	Short: "Carelinkd runs campaign-driven conversations for the care desk",
	Long: `Carelinkd compiles campaign transition tables into conversational state
machines and serves them over HTTP. Conversations suspend between messages
as durable records; finished dialogs become canonical care requests.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("campaigns", envOr("CARELINK_CAMPAIGN_DIR", "./campaigns"), "Directory of campaign YAML documents")
	rootCmd.PersistentFlags().String("log-level", envOr("CARELINK_LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
}

// envOr lets every flag default from the environment, container-style.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
