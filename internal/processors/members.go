package processors

import (
	"context"
	"strings"

	"github.com/nestjs/nestdoc/internal/docs"
	"github.com/nestjs/nestdoc/internal/markdown"
)

// processClassLikeMembers links members to their container and sorts them
// into the constructor, methods, properties and statics.
func processClassLikeMembers(_ context.Context, set *docs.Set) error {
	for _, d := range set.All() {
		if !d.DocType.IsClassLike() {
			continue
		}
		d.Methods, d.Properties, d.Statics = nil, nil, nil
		for _, m := range d.Members {
			m.ContainerDoc = d.ID
			switch {
			case m.Name == "constructor":
				d.ConstructorDoc = m
			case m.Static:
				d.Statics = append(d.Statics, m)
			case m.Method:
				d.Methods = append(d.Methods, m)
			default:
				d.Properties = append(d.Properties, m)
			}
		}
	}
	return nil
}

// removeInjectableConstructors drops undocumented constructors of injectables;
// their parameters are wired by the framework, not called by users.
func removeInjectableConstructors(_ context.Context, set *docs.Set) error {
	for _, d := range set.OfType(docs.TypeInjectable) {
		if d.ConstructorDoc != nil && strings.TrimSpace(d.ConstructorDoc.Description) == "" {
			d.ConstructorDoc = nil
		}
	}
	return nil
}

// markPrivateDocs flags module exports that are not part of the public API.
func markPrivateDocs(_ context.Context, set *docs.Set) error {
	for _, module := range set.OfType(docs.TypeModule) {
		for _, d := range module.Exports {
			d.PrivateExport = d.PublicAPI == nil ||
				d.HasTag("internal") ||
				strings.HasPrefix(d.Name, "ɵ")
		}
	}
	return nil
}

func shortDescription(_ context.Context, set *docs.Set) error {
	for _, d := range set.All() {
		if d.ShortDescription == "" && d.Description != "" {
			d.ShortDescription = markdown.FirstParagraph(d.Description)
		}
	}
	return nil
}

// filterContainedDocs removes documents that are rendered as part of their
// container.
func filterContainedDocs(_ context.Context, set *docs.Set) error {
	set.Remove(func(d *docs.Document) bool {
		return d.DocType == docs.TypeMember ||
			d.DocType == docs.TypeParameter ||
			d.ContainerDoc != ""
	})
	return nil
}
