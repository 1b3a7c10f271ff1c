// Package main is the entry point for the nexus gateway.
package main

import (
	"context"
	"os"

	"charm.land/fang/v2"
	"github.com/spf13/cobra"
)

const defaultConfigFile = "config.yaml"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "nexus-gateway",
	Short: "Routing and resilience gateway for remote chat-completion upstreams",
	Long: `nexus-gateway fronts several remote chat-completion upstreams behind a
single OpenAI-compatible surface, selecting among them with a health-aware
weighted scheduler and failing over on a per-upstream circuit breaker.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file path (default: ./"+defaultConfigFile+" or ~/.config/nexus-gateway/"+defaultConfigFile+")")
}

func main() {
	if err := fang.Execute(context.Background(), rootCmd); err != nil {
		os.Exit(1)
	}
}
