package processors

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nestjs/nestdoc/internal/docs"
)

// writeFiles writes every rendered document below dir.
func writeFiles(dir string, report *Report) func(context.Context, *docs.Set) error {
	return func(ctx context.Context, set *docs.Set) error {
		for _, d := range set.All() {
			if d.OutputPath == "" || d.RenderedContent == "" {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			target := filepath.Join(dir, filepath.FromSlash(d.OutputPath))
			rel, err := filepath.Rel(dir, target)
			if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
				return fmt.Errorf("output path %q of %s escapes the output directory", d.OutputPath, d.ID)
			}

			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("creating directory for %s: %w", d.OutputPath, err)
			}
			if err := os.WriteFile(target, []byte(d.RenderedContent), 0644); err != nil {
				return fmt.Errorf("writing %s: %w", d.OutputPath, err)
			}
			report.Written = append(report.Written, d.OutputPath)
		}
		return nil
	}
}
