package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nestjs/nestdoc/internal/cas"
	"github.com/nestjs/nestdoc/internal/config"
	"github.com/nestjs/nestdoc/internal/db"
	"github.com/nestjs/nestdoc/internal/docs"
	"github.com/nestjs/nestdoc/internal/extract"
	"github.com/nestjs/nestdoc/internal/processors"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Extract, process and write the API docs",
	Long: `Parse the configured package entry points, run the document pipeline and
write the rendered pages and api-list.json to the output path.`,
	Example: `  nestdoc generate
  nestdoc generate --index
  nestdoc generate --config docs/nestdoc.toml --debug`,
	Run: runGenerate,
}

var generateIndex bool

func addGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&generateIndex, "index", false, "record the run in the search index")
}

func init() {
	addGenerateFlags(generateCmd)
}

type generateResult struct {
	Docs     int
	Packages int
	Written  int
	Duration time.Duration
}

func runGenerate(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := generate(ctx, cfg, generateIndex || cfg.Index.Enabled)
	if err != nil {
		var linkErr *processors.LinkErrors
		if errors.As(err, &linkErr) {
			slog.Error("module links could not be resolved", "problems", len(linkErr.Problems))
		} else {
			slog.Error("generation failed", "error", err)
		}
		os.Exit(1)
	}

	fmt.Printf("%d packages, %d documents, %d files written to %s in %s\n",
		res.Packages, res.Docs, res.Written, cfg.OutputDir(), res.Duration.Round(time.Millisecond))
}

// generate runs one full extraction and pipeline pass. When index is set the
// result is recorded in the search index.
func generate(ctx context.Context, cfg *config.Config, index bool) (*generateResult, error) {
	started := time.Now()

	var store *cas.Store
	if cfg.Parse.Cache || index {
		store = cas.New(config.CASDir())
	}

	readerOpts := extract.Options{
		Root:        cfg.PackagesDir(),
		ContentFile: cfg.PackageContentFile,
		Concurrency: cfg.Parse.Concurrency,
	}
	if cfg.Parse.Cache {
		readerOpts.Store = store
	}

	initial, err := extract.NewReader(readerOpts).Read(ctx, cfg.Packages)
	if err != nil {
		return nil, fmt.Errorf("reading sources: %w", err)
	}
	slog.Info("sources read", "docs", len(initial), "entries", len(cfg.Packages))

	set := docs.NewSet(initial...)
	outputDir := cfg.OutputDir()
	report, err := processors.New(processors.Options{BasePath: cfg.BasePath, OutputDir: outputDir}).Run(ctx, set)
	if err != nil {
		return nil, err
	}
	for name, d := range report.StageDurations {
		slog.Debug("stage timing", "stage", name, "duration", d)
	}

	res := &generateResult{
		Docs:     set.Len(),
		Packages: len(set.OfType(docs.TypePackage)),
		Written:  len(report.Written),
	}

	if index {
		if err := recordRun(set, store, started, outputDir); err != nil {
			return nil, err
		}
	}

	res.Duration = time.Since(started)
	slog.Info("generation finished", "packages", res.Packages, "written", res.Written, "duration", res.Duration)
	return res, nil
}

func recordRun(set *docs.Set, store *cas.Store, started time.Time, outputDir string) error {
	records, err := db.Records(set, store)
	if err != nil {
		return fmt.Errorf("building index records: %w", err)
	}

	database, err := db.New(config.DBPath())
	if err != nil {
		return fmt.Errorf("opening index: %w", err)
	}
	defer database.Close()

	run := &db.Run{StartedAt: started, FinishedAt: time.Now(), DocCount: set.Len(), OutputDir: outputDir}
	if err := database.RecordRun(run, records); err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	slog.Info("index updated", "run", run.ID, "packages", len(records))
	return nil
}
