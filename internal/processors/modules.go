package processors

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nestjs/nestdoc/internal/docs"
)

// LinkErrors is returned when injectables cannot be linked to their modules.
// Every problem across the document set is collected before it is returned.
type LinkErrors struct {
	Problems []string
}

func (e *LinkErrors) Error() string {
	return fmt.Sprintf("failed to resolve module relationships (%d problems)", len(e.Problems))
}

// processModuleDocs links public injectables to the nestmodule documents
// named by their @module tags.
func processModuleDocs(_ context.Context, set *docs.Set) error {
	var problems []string

	for _, d := range set.All() {
		if d.PublicAPI == nil || *d.PublicAPI != "" {
			continue
		}
		if d.DocType != docs.TypeInjectable {
			continue
		}
		if len(d.Modules) == 0 {
			problems = append(problems, fmt.Sprintf(
				"%q has no @module tag. Docs of type %q must have this tag.", d.ID, d.DocType))
			continue
		}

		for i, ref := range d.Modules {
			matches := docs.Filter(set.Aliases(ref.Alias), func(m *docs.Document) bool {
				return m.DocType == docs.TypeNestModule && !m.PrivateExport
			})
			switch len(matches) {
			case 0:
				problems = append(problems, fmt.Sprintf(
					"%q has an @module tag that does not match a public Module: \"@module %s\"", d.ID, ref.Alias))
			case 1:
				module := matches[0]
				pkg := module.PackageView()
				pkg.Injectables = append(pkg.Injectables, d)
				d.Modules[i].ID = module.ID
			default:
				ids := make([]string, len(matches))
				for j, m := range matches {
					ids[j] = m.ID
				}
				problems = append(problems, fmt.Sprintf(
					"%q has an ambiguous @module tag: \"@module %s\" matches %s", d.ID, ref.Alias, strings.Join(ids, ", ")))
			}
		}
	}

	for _, module := range set.OfType(docs.TypeNestModule) {
		for key, value := range module.Options {
			if _, isList := value.([]any); isList || !truthy(value) {
				continue
			}
			module.Options[key] = []any{value}
		}
		if module.Package != nil {
			docs.SortByID(module.Package.Injectables)
		}
	}

	if len(problems) > 0 {
		for _, p := range problems {
			slog.Error("module link", "problem", p)
		}
		return &LinkErrors{Problems: problems}
	}
	return nil
}

func truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0
	}
	return true
}
