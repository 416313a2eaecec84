package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/nestjs/nestdoc/internal/config"
	"github.com/nestjs/nestdoc/internal/db"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the indexed API reference",
	Example: `  nestdoc search CacheModule
  nestdoc search --limit 5 interceptor`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSearch,
}

var searchLimit int

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 10, "maximum number of results")
}

func runSearch(cmd *cobra.Command, args []string) {
	database, err := db.New(config.DBPath())
	if err != nil {
		slog.Error("failed to open index", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	run, err := database.LastRun()
	if err != nil {
		slog.Error("failed to read index", "error", err)
		os.Exit(1)
	}
	if run == nil {
		fmt.Println("index is empty (run nestdoc generate --index first)")
		return
	}

	query := strings.Join(args, " ")
	results, err := database.Search(query, searchLimit)
	if err != nil {
		slog.Error("search failed", "error", err)
		os.Exit(1)
	}
	if len(results) == 0 {
		fmt.Printf("no results for %q\n", query)
		return
	}

	for i, r := range results {
		fmt.Printf("%d. %s/%s [%s]\n", i+1, r.Package, r.Name, r.DocType)
		fmt.Printf("   %s\n", r.Path)
		if r.ShortDescription != "" {
			fmt.Printf("   %s\n", firstLine(r.ShortDescription))
		}
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
