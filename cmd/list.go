package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nestjs/nestdoc/internal/docs"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the generated api-list.json",
	Example: `  nestdoc list
  nestdoc list --json`,
	Run: runList,
}

var listJSON bool

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print the raw JSON")
}

func runList(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	listPath := filepath.Join(cfg.OutputDir(), "api-list.json")

	if listJSON {
		data, err := os.ReadFile(listPath)
		if os.IsNotExist(err) {
			fmt.Println("no api-list.json found (run nestdoc generate first)")
			return
		}
		if err != nil {
			slog.Error("failed to read api list", "path", listPath, "error", err)
			os.Exit(1)
		}
		os.Stdout.Write(data)
		return
	}

	pkgs, err := readAPIList(listPath)
	if os.IsNotExist(err) {
		fmt.Println("no api-list.json found (run nestdoc generate first)")
		return
	}
	if err != nil {
		slog.Error("failed to read api list", "path", listPath, "error", err)
		os.Exit(1)
	}
	printAPIList(os.Stdout, pkgs)
}

// readAPIList decodes the packages of a generated api-list.json.
func readAPIList(listPath string) ([]docs.APIListPackage, error) {
	data, err := os.ReadFile(listPath)
	if err != nil {
		return nil, err
	}
	var list struct {
		Data []docs.APIListPackage `json:"data"`
	}
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", listPath, err)
	}
	return list.Data, nil
}

func printAPIList(w io.Writer, pkgs []docs.APIListPackage) {
	for _, pkg := range pkgs {
		fmt.Fprintf(w, "%s (%s)\n", pkg.Title, pkg.Path)
		for i, item := range pkg.Items {
			branch := "├──"
			if i == len(pkg.Items)-1 {
				branch = "└──"
			}
			fmt.Fprintf(w, "  %s %-12s %s\n", branch, item.DocType, item.Title)
		}
	}
}
