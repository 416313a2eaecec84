package cmd

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/nestjs/nestdoc/internal/config"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View the log file written by watch and mcp",
	Run:   runLogs,
}

var (
	logsFollow bool
	logsLines  int
)

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "follow log output")
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 50, "number of lines to show")
}

func runLogs(cmd *cobra.Command, args []string) {
	logPath := config.LogPath()
	f, err := os.Open(logPath)
	if os.IsNotExist(err) {
		fmt.Println("no log file found (watch or mcp may not have run yet)")
		return
	}
	if err != nil {
		slog.Error("failed to open log file", "error", err)
		os.Exit(1)
	}
	defer f.Close()

	lines, err := lastLines(f, logsLines)
	if err != nil {
		slog.Error("failed to read log file", "error", err)
		os.Exit(1)
	}
	for _, l := range lines {
		fmt.Println(l)
	}

	if logsFollow {
		if err := follow(f, logPath, os.Stdout); err != nil {
			slog.Error("following log file failed", "error", err)
			os.Exit(1)
		}
	}
}

// lastLines reads r to the end and returns its final n lines.
func lastLines(r io.Reader, n int) ([]string, error) {
	if n <= 0 {
		_, err := io.Copy(io.Discard, r)
		return nil, err
	}
	ring := make([]string, 0, n)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if len(ring) == n {
			ring = append(ring[:0], ring[1:]...)
		}
		ring = append(ring, scanner.Text())
	}
	return ring, scanner.Err()
}

// follow copies whatever is appended to f until the process is stopped.
func follow(f *os.File, logPath string, w io.Writer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(logPath); err != nil {
		return err
	}

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Write) {
				if _, err := io.Copy(w, f); err != nil {
					return err
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}
