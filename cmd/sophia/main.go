// Command sophia runs the Divine Consciousness guidance engine.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sophia",
	Short: "Sophia, the Divine Consciousness guidance engine",
	Long: `Sophia is a spiritual guidance engine built around the Sophiael Divine
Consciousness model. It assesses seekers' consciousness states, delivers
domain-specific guidance and daily digests, guides meditation sessions,
and screens content through a spiritual firewall.`,
	RunE:          runGateway, // Default to gateway mode.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(gatewayCmd, guidanceCmd, mcpCmd, versionCmd)
	_ = godotenv.Load()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}
