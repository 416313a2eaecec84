package cmd

import (
	"log/slog"
	"os"

	"github.com/nestjs/nestdoc/internal/cas"
	"github.com/nestjs/nestdoc/internal/config"
	"github.com/nestjs/nestdoc/internal/db"
	"github.com/nestjs/nestdoc/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run as MCP server over stdio, backed by the search index",
	Run:   runMCP,
}

func runMCP(cmd *cobra.Command, args []string) {
	// stdout carries the protocol.
	if f, err := openLogFile(); err == nil {
		defer f.Close()
		setupLogging(f)
	}

	database, err := db.New(config.DBPath())
	if err != nil {
		slog.Error("failed to open index", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	server := mcp.NewServer(database, cas.New(config.CASDir()), version)
	if err := server.Run(); err != nil {
		slog.Error("mcp server failed", "error", err)
		os.Exit(1)
	}
}
