package cmd

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/nestjs/nestdoc/internal/config"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate the docs whenever the package sources change",
	Run:   runWatch,
}

var watchDebounce time.Duration

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 300*time.Millisecond, "quiet period before regenerating")
	addGenerateFlags(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) {
	if f, err := openLogFile(); err == nil {
		defer f.Close()
		setupLogging(io.MultiWriter(os.Stderr, f))
	} else {
		slog.Warn("logging to stderr only", "error", err)
	}

	cfg := loadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Error("failed to create watcher", "error", err)
		os.Exit(1)
	}
	defer watcher.Close()

	root := cfg.PackagesDir()
	if err := watchTree(watcher, root); err != nil {
		slog.Error("failed to watch sources", "dir", root, "error", err)
		os.Exit(1)
	}

	regenerate := func() {
		if _, err := generate(ctx, cfg, generateIndex || cfg.Index.Enabled); err != nil && ctx.Err() == nil {
			slog.Error("generation failed", "error", err)
		}
	}
	regenerate()
	slog.Info("watching for changes", "dir", root)

	var timer <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := watchTree(watcher, ev.Name); err != nil {
						slog.Warn("failed to watch new directory", "dir", ev.Name, "error", err)
					}
					continue
				}
			}
			if !relevantChange(ev, cfg) {
				continue
			}
			slog.Debug("source changed", "file", ev.Name, "op", ev.Op.String())
			timer = time.After(watchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("watcher error", "error", err)
		case <-timer:
			timer = nil
			regenerate()
		}
	}
}

// watchTree adds dir and every directory below it, skipping dependency and
// VCS folders.
func watchTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if name := d.Name(); p != dir && (name == "node_modules" || strings.HasPrefix(name, ".")) {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}

func relevantChange(ev fsnotify.Event, cfg *config.Config) bool {
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
		return false
	}
	base := filepath.Base(ev.Name)
	if cfg.PackageContentFile != "" && base == cfg.PackageContentFile {
		return true
	}
	return strings.HasSuffix(base, ".ts") && !strings.HasSuffix(base, ".spec.ts")
}
