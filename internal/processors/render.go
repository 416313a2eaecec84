package processors

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"

	"github.com/nestjs/nestdoc/internal/docs"
	"github.com/nestjs/nestdoc/internal/markdown"
)

//go:embed templates
var templateFS embed.FS

// exportSection is the argument of the export-list partial.
type exportSection struct {
	Class string
	Title string
	Docs  []*docs.Document
}

var pageTemplates = template.Must(template.New("pages").Funcs(template.FuncMap{
	"markdown": func(s string) template.HTML { return template.HTML(markdown.ToHTML(s)) },
	"lower":    strings.ToLower,
	"list":     formatValue,
	"section": func(class, title string, d []*docs.Document) exportSection {
		return exportSection{Class: class, Title: title, Docs: d}
	},
}).ParseFS(templateFS, "templates/*.template.html"))

var listTemplates = texttemplate.Must(texttemplate.New("lists").Funcs(texttemplate.FuncMap{
	"json": func(v any) (string, error) {
		b, err := json.MarshalIndent(v, "", "  ")
		return string(b), err
	},
}).ParseFS(templateFS, "templates/*.template.json"))

// page is the data every HTML template receives.
type page struct {
	Doc *docs.Document
	// Package is the package the document is exported from, if any.
	Package *docs.Document
	// Modules are the resolved @module targets of an injectable.
	Modules []*docs.Document
}

// render fills RenderedContent of every document that has an output file.
func render(_ context.Context, set *docs.Set) error {
	for _, d := range set.All() {
		if d.OutputPath == "" {
			continue
		}
		name := templateName(d)

		var b strings.Builder
		if strings.HasSuffix(name, ".json") {
			data := struct {
				Data []docs.APIListPackage `json:"data"`
			}{Data: d.Data}
			if data.Data == nil {
				data.Data = []docs.APIListPackage{}
			}
			if err := listTemplates.ExecuteTemplate(&b, name, data); err != nil {
				return fmt.Errorf("rendering %s: %w", d.ID, err)
			}
		} else {
			p := page{Doc: d}
			if pkg, ok := set.Get(d.ModuleDoc); ok {
				p.Package = pkg
			}
			for _, ref := range d.Modules {
				if m, ok := set.Get(ref.ID); ok {
					p.Modules = append(p.Modules, m)
				}
			}
			if err := pageTemplates.ExecuteTemplate(&b, name, p); err != nil {
				return fmt.Errorf("rendering %s: %w", d.ID, err)
			}
		}
		d.RenderedContent = b.String()
	}
	return nil
}

// templateName picks the template of d. let and var share the const page.
func templateName(d *docs.Document) string {
	if d.Template != "" {
		return d.Template
	}
	switch d.DocType {
	case docs.TypeLet, docs.TypeVar:
		return docs.TypeConst.String() + ".template.html"
	}
	return d.DocType.String() + ".template.html"
}

// formatValue prints a decorator option value for display.
func formatValue(v any) string {
	switch v := v.(type) {
	case []any:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = formatValue(e)
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	case nil:
		return "null"
	}
	return fmt.Sprint(v)
}
