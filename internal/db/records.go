package db

import (
	"fmt"

	"github.com/nestjs/nestdoc/internal/cas"
	"github.com/nestjs/nestdoc/internal/docs"
)

// Records converts the package documents of a processed set into index
// records. Rendered pages are stored in store and referenced by hash; a nil
// store leaves the hashes empty.
func Records(set *docs.Set, store *cas.Store) ([]PackageRecord, error) {
	put := func(d *docs.Document) (string, error) {
		if store == nil || d.RenderedContent == "" {
			return "", nil
		}
		hash, err := store.Write([]byte(d.RenderedContent))
		if err != nil {
			return "", fmt.Errorf("storing %s: %w", d.ID, err)
		}
		return hash, nil
	}

	var out []PackageRecord
	for _, pkg := range set.OfType(docs.TypePackage) {
		hash, err := put(pkg)
		if err != nil {
			return nil, err
		}
		rec := PackageRecord{Package: Package{
			Name:             pkg.Name,
			Title:            pkg.Name,
			Path:             pkg.Path,
			ShortDescription: pkg.ShortDescription,
			ContentHash:      hash,
		}}

		for _, e := range pkg.Exports {
			hash, err := put(e)
			if err != nil {
				return nil, err
			}
			rec.Exports = append(rec.Exports, Export{
				Package:          pkg.Name,
				Name:             e.Name,
				Title:            e.Name,
				DocType:          e.DocType.String(),
				Path:             e.Path,
				ShortDescription: e.ShortDescription,
				ContentHash:      hash,
			})
		}
		rec.ExportCount = len(rec.Exports)
		out = append(out, rec)
	}
	return out, nil
}
