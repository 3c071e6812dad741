package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sophia-platform/sophia/internal/config"
	"github.com/sophia-platform/sophia/internal/mcpserver"
	goutils "github.com/jkaninda/go-utils"
)

var mcpConfigPath string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the engine as an MCP server over stdio",
	Long: `Expose Sophia's consciousness tools to MCP clients over stdio.
Seeker state persists in the configured store, so assessments made through
an MCP client carry over to the HTTP API and back.`,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpConfigPath, "config", config.DefaultConfigPath(), "path to config file")
}

func runMCP(_ *cobra.Command, _ []string) error {
	// Stdout carries the MCP protocol; all logging goes to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	cfg, err := config.LoadOrDefault(goutils.Env("SOPHIA_CONFIG", mcpConfigPath))
	if err != nil {
		return err
	}

	sc, err := initShared(cfg, logger)
	if err != nil {
		return err
	}
	defer sc.Cleanup()

	srv := mcpserver.New(sc.Engine, version, logger)
	return srv.ServeStdio()
}
