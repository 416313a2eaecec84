package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/nestjs/nestdoc/internal/cas"
	"github.com/nestjs/nestdoc/internal/config"
	"github.com/nestjs/nestdoc/internal/docs"
)

// cacheVersion is mixed into parse cache keys; bump it whenever fileResult
// changes shape.
const cacheVersion = "extract/v1\n"

// Options configures a Reader.
type Options struct {
	// Root is the directory entry paths are relative to.
	Root string
	// ContentFile is the package-content file name looked up next to every
	// entry point. Empty disables package content.
	ContentFile string
	Concurrency int
	// Store caches parse results when non-nil.
	Store *cas.Store
}

// Reader turns package entry points into the initial document set.
type Reader struct {
	opts Options

	mu    sync.Mutex
	files map[string]*fileResult
	group singleflight.Group
}

func NewReader(opts Options) *Reader {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Reader{opts: opts, files: make(map[string]*fileResult)}
}

// Read parses every entry point and returns one module document per entry,
// one document per exported declaration followed by its members, and the
// package-content documents.
func (r *Reader) Read(ctx context.Context, entries []config.PackageEntry) ([]*docs.Document, error) {
	roots := make([]string, 0, len(entries))
	for _, e := range entries {
		roots = append(roots, path.Clean(filepath.ToSlash(e.Entry)))
	}
	if err := r.crawl(ctx, roots); err != nil {
		return nil, err
	}

	var out []*docs.Document
	for i, e := range entries {
		module := r.module(roots[i], e.Name)
		out = append(out, module)
		for _, d := range module.Exports {
			out = append(out, d)
			out = append(out, d.Members...)
		}
	}

	if r.opts.ContentFile != "" {
		for _, root := range roots {
			d, err := ReadPackageContent(r.opts.Root, path.Join(path.Dir(root), r.opts.ContentFile))
			if err != nil {
				return nil, err
			}
			if d != nil {
				out = append(out, d)
			}
		}
	}
	return out, nil
}

// crawl parses roots and every file reachable through re-exports, one
// breadth-first level at a time.
func (r *Reader) crawl(ctx context.Context, roots []string) error {
	seen := make(map[string]bool)
	level := roots
	for _, f := range roots {
		seen[f] = true
	}

	for len(level) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.opts.Concurrency)
		for _, file := range level {
			g.Go(func() error {
				_, err := r.load(gctx, file)
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		var next []string
		for _, file := range level {
			res := r.cached(file)
			if res == nil {
				continue
			}
			for _, re := range res.Reexports {
				target, ok := r.resolve(file, re.From)
				if !ok || seen[target] {
					continue
				}
				seen[target] = true
				next = append(next, target)
			}
		}
		level = next
	}
	return nil
}

func (r *Reader) cached(file string) *fileResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.files[file]
}

// load parses file once, consulting the store first.
func (r *Reader) load(ctx context.Context, file string) (*fileResult, error) {
	if res := r.cached(file); res != nil {
		return res, nil
	}
	v, err, _ := r.group.Do(file, func() (interface{}, error) {
		content, err := os.ReadFile(filepath.Join(r.opts.Root, filepath.FromSlash(file)))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}

		var key string
		if r.opts.Store != nil {
			key = cas.Hash(append([]byte(cacheVersion+file+"\n"), content...))
			if data, err := r.opts.Store.Read(key); err == nil {
				var res fileResult
				if err := json.Unmarshal(data, &res); err == nil {
					slog.Debug("parse cache hit", "file", file)
					return &res, nil
				}
			}
		}

		res, err := parseFile(ctx, content, file)
		if err != nil {
			return nil, err
		}

		if r.opts.Store != nil {
			data, err := json.Marshal(res)
			if err != nil {
				return nil, fmt.Errorf("encoding parse result of %s: %w", file, err)
			}
			if err := r.opts.Store.Put(key, data); err != nil {
				slog.Warn("failed to cache parse result", "file", file, "error", err)
			}
		}
		return res, nil
	})
	if err != nil {
		return nil, err
	}

	res := v.(*fileResult)
	r.mu.Lock()
	r.files[file] = res
	r.mu.Unlock()
	return res, nil
}

// resolve maps a module specifier found in from to a source file relative
// to the root. Non-relative specifiers never resolve.
func (r *Reader) resolve(from, spec string) (string, bool) {
	if !strings.HasPrefix(spec, "./") && !strings.HasPrefix(spec, "../") {
		return "", false
	}
	base := path.Join(path.Dir(from), spec)
	if strings.HasPrefix(base, "../") {
		return "", false
	}

	var candidates []string
	if strings.HasSuffix(base, ".js") {
		candidates = append(candidates, strings.TrimSuffix(base, ".js")+".ts")
	}
	candidates = append(candidates, base+".ts", base+".d.ts", base+"/index.ts", base+"/index.d.ts", base)

	for _, c := range candidates {
		info, err := os.Stat(filepath.Join(r.opts.Root, filepath.FromSlash(c)))
		if err == nil && !info.IsDir() {
			return c, true
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Debug("stat failed", "path", c, "error", err)
		}
	}
	return "", false
}

// exportsOf returns the declarations reachable as exports of file, in
// source order. visiting guards re-export cycles.
func (r *Reader) exportsOf(file string, visiting map[string]bool) []*docs.Document {
	if visiting[file] {
		return nil
	}
	res := r.cached(file)
	if res == nil {
		return nil
	}
	visiting[file] = true
	defer delete(visiting, file)

	out := res.exported()
	for _, re := range res.Reexports {
		target, ok := r.resolve(file, re.From)
		if !ok {
			if strings.HasPrefix(re.From, ".") {
				slog.Warn("unresolved re-export", "file", file, "from", re.From)
			}
			continue
		}
		sub := r.exportsOf(target, visiting)
		if re.Names == nil {
			for _, d := range sub {
				if d.Name != "default" {
					out = append(out, d)
				}
			}
			continue
		}
		for _, spec := range re.Names {
			for _, d := range sub {
				if d.Name != spec.Name {
					continue
				}
				if spec.Alias != "" && spec.Alias != spec.Name {
					d = cloneDoc(d)
					d.Name = spec.Alias
				}
				out = append(out, d)
				break
			}
		}
	}
	return out
}

// module assembles the module document of one entry point.
func (r *Reader) module(entry, name string) *docs.Document {
	id := strings.TrimSuffix(strings.TrimSuffix(entry, ".ts"), ".d")
	module := &docs.Document{
		ID:      id,
		DocType: docs.TypeModule,
		Name:    name,
		FileInfo: docs.FileInfo{
			BaseName: baseName(entry),
			FilePath: entry,
		},
	}

	seen := make(map[string]bool)
	for _, d := range r.exportsOf(entry, make(map[string]bool)) {
		if d.Name == "" || seen[d.Name] {
			continue
		}
		seen[d.Name] = true

		c := cloneDoc(d)
		c.ID = id + "/" + c.Name
		for _, m := range c.Members {
			m.ID = c.ID + "." + m.Name
		}
		module.Exports = append(module.Exports, c)
	}
	return module
}
