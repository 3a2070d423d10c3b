package main

import (
	"fmt"

	"github.com/carelink/carelink"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of carelinkd",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("carelinkd version %s\n", carelink.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
