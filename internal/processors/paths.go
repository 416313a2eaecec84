package processors

import (
	"context"
	"path"

	"github.com/nestjs/nestdoc/internal/docs"
)

// computeOutputPath assigns output files and public paths to packages and
// the documents that belong to them. Decorated classes no package exports
// keep the partial location given when they were reclassified.
func computeOutputPath(basePath string) func(context.Context, *docs.Set) error {
	return func(_ context.Context, set *docs.Set) error {
		for _, d := range set.OfType(docs.TypePackage) {
			d.OutputPath = d.Name + ".html"
			d.Path = path.Join(basePath, d.Name)
		}

		for _, d := range set.All() {
			if d.DocType == docs.TypePackage || d.ModuleDoc == "" {
				continue
			}
			module, ok := set.Get(d.ModuleDoc)
			if !ok {
				continue
			}
			d.OutputPath = module.Name + "/" + d.Name + ".html"
			d.Path = path.Join(basePath, module.Name, d.Name)
		}
		return nil
	}
}
