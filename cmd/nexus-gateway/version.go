package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nexus-gateway/nexus/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("nexus-gateway %s\n", version.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
