package extract

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/nestjs/nestdoc/internal/docs"
	"github.com/nestjs/nestdoc/internal/markdown"
)

// frontMatter is the optional YAML header of a package-content file.
type frontMatter struct {
	ShortDescription string   `yaml:"shortDescription"`
	See              []string `yaml:"see"`
}

// ReadPackageContent reads the package-content file at rel (slash-separated,
// relative to root). A missing file yields a nil document and no error.
func ReadPackageContent(root, rel string) (*docs.Document, error) {
	content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading package content %s: %w", rel, err)
	}

	var meta frontMatter
	body, err := markdown.SplitFrontMatter(string(content), &meta)
	if err != nil {
		return nil, fmt.Errorf("package content %s: %w", rel, err)
	}
	body = strings.TrimSpace(body)

	d := &docs.Document{
		ID:          path.Join(path.Dir(rel), "PACKAGE"),
		DocType:     docs.TypePackageContent,
		Name:        path.Base(path.Dir(rel)),
		Description: body,
		See:         meta.See,
		FileInfo: docs.FileInfo{
			BaseName: baseName(rel),
			FilePath: rel,
			Content:  string(content),
		},
	}
	d.ShortDescription = meta.ShortDescription
	if d.ShortDescription == "" {
		d.ShortDescription = markdown.FirstParagraph(body)
	}
	return d, nil
}
