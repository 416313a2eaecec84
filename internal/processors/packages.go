package processors

import (
	"context"
	"path"
	"strings"

	"github.com/nestjs/nestdoc/internal/docs"
)

// processPackages turns module documents into package documents with typed
// export views, enriched by the package-content file of their directory.
func processPackages(_ context.Context, set *docs.Set) error {
	contents := make(map[string]*docs.Document)
	for _, c := range set.Remove(func(d *docs.Document) bool { return d.DocType == docs.TypePackageContent }) {
		contents[path.Dir(c.FileInfo.FilePath)] = c
	}

	for _, d := range set.OfType(docs.TypeModule) {
		d.DocType = docs.TypePackage
		if d.Name == "" {
			d.Name = packageName(d.ID)
		}

		if len(d.Exports) > 0 {
			public := docs.Filter(d.Exports, func(e *docs.Document) bool { return !e.PrivateExport })
			for _, e := range public {
				e.ModuleDoc = d.ID
			}
			d.Exports = public

			pkg := d.PackageView()
			pkg.Exports = public
			pkg.Classes = ofTypes(public, docs.TypeClass)
			pkg.Injectables = ofTypes(public, docs.TypeInjectable)
			pkg.Decorators = ofTypes(public, docs.TypeDecorator)
			pkg.Functions = ofTypes(public, docs.TypeFunction)
			pkg.Structures = ofTypes(public, docs.TypeEnum, docs.TypeInterface)
			pkg.Pipes = ofTypes(public, docs.TypePipe)
			pkg.Types = ofTypes(public, docs.TypeTypeAlias, docs.TypeConst, docs.TypeLet, docs.TypeVar)
			pkg.Modules = ofTypes(public, docs.TypeNestModule)
		}

		if content, ok := contents[path.Dir(d.FileInfo.FilePath)]; ok {
			d.ShortDescription = content.ShortDescription
			d.Description = content.Description
			d.See = content.See
			d.FileInfo = content.FileInfo
		}
	}
	return nil
}

// ofTypes returns the docs of the given types sorted by id.
func ofTypes(in []*docs.Document, types ...docs.DocType) []*docs.Document {
	out := docs.Filter(in, func(d *docs.Document) bool {
		for _, t := range types {
			if d.DocType == t {
				return true
			}
		}
		return false
	})
	docs.SortByID(out)
	return out
}

// packageName derives a package name from a module id: the last directory
// segment that is not lib or src, lower-cased.
func packageName(id string) string {
	dir := path.Dir(id)
	if dir == "." {
		return strings.ToLower(path.Base(id))
	}
	var segments []string
	for _, s := range strings.Split(dir, "/") {
		if s != "lib" && s != "src" && s != "" && s != "." {
			segments = append(segments, s)
		}
	}
	if len(segments) == 0 {
		return strings.ToLower(path.Base(id))
	}
	return strings.ToLower(segments[len(segments)-1])
}
