package processors

import (
	"context"
	"sort"
	"strings"

	"github.com/nestjs/nestdoc/internal/docs"
)

// APIListID is the id of the synthetic api-list document.
const APIListID = "api-list"

// generateApiListDoc appends the api-list-data document summarizing every
// package and its exports. Packages keep their order; items are sorted.
func generateApiListDoc(_ context.Context, set *docs.Set) error {
	var data []docs.APIListPackage
	for _, pkg := range set.OfType(docs.TypePackage) {
		items := make([]docs.APIListItem, 0, len(pkg.Exports))
		for _, e := range pkg.Exports {
			items = append(items, docs.APIListItem{
				Name:    strings.ToLower(e.Name),
				Title:   e.Name,
				Path:    e.Path,
				DocType: listDocType(e.DocType),
			})
		}
		sort.SliceStable(items, func(i, j int) bool { return items[i].Name < items[j].Name })

		data = append(data, docs.APIListPackage{
			Name:  strings.ToLower(pkg.Name),
			Title: pkg.Name,
			Path:  pkg.Path,
			Items: items,
		})
	}

	set.Add(&docs.Document{
		ID:         APIListID,
		DocType:    docs.TypeAPIListData,
		Name:       APIListID,
		Template:   "api-list.template.json",
		OutputPath: "api-list.json",
		Data:       data,
	})
	return nil
}

func listDocType(t docs.DocType) string {
	switch t {
	case docs.TypeLet, docs.TypeVar:
		return docs.TypeConst.String()
	}
	return t.String()
}
