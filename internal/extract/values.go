package extract

import (
	"path"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/nestjs/nestdoc/internal/docs"
)

// maxValueDepth bounds recursion into nested decorator arguments.
const maxValueDepth = 5

// value decodes a decorator argument into plain Go data: objects become
// maps, arrays slices, literals their Go equivalent. Anything else
// (identifiers, calls, arrow functions) is kept as source text.
func (p *fileParser) value(node *sitter.Node, depth int) any {
	if depth > maxValueDepth {
		return p.text(node)
	}

	switch node.Type() {
	case "object":
		obj := make(map[string]any)
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			switch child.Type() {
			case "pair":
				key := unquote(p.text(child.ChildByFieldName("key")))
				obj[key] = p.value(child.ChildByFieldName("value"), depth+1)
			case "shorthand_property_identifier":
				name := p.text(child)
				obj[name] = name
			}
		}
		return obj
	case "array":
		arr := make([]any, 0, node.NamedChildCount())
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if child.Type() == "comment" {
				continue
			}
			arr = append(arr, p.value(child, depth+1))
		}
		return arr
	case "string", "template_string":
		return unquote(p.text(node))
	case "number":
		if f, err := strconv.ParseFloat(p.text(node), 64); err == nil {
			return f
		}
	case "true":
		return true
	case "false":
		return false
	case "null", "undefined":
		return nil
	}
	return p.text(node)
}

func baseName(file string) string {
	base := path.Base(file)
	for _, ext := range []string{".d.ts", ".ts", ".tsx"} {
		if strings.HasSuffix(base, ext) {
			return strings.TrimSuffix(base, ext)
		}
	}
	return base
}

// cloneDoc copies d and its member documents so that one declaration
// exported from two places never shares mutable state.
func cloneDoc(d *docs.Document) *docs.Document {
	c := *d
	c.Decorators = append([]docs.Decorator(nil), d.Decorators...)
	c.Tags = append(docs.Tags(nil), d.Tags...)
	c.Modules = append([]docs.ModuleRef(nil), d.Modules...)
	c.See = append([]string(nil), d.See...)
	if d.Members != nil {
		c.Members = make([]*docs.Document, len(d.Members))
		for i, m := range d.Members {
			c.Members[i] = cloneDoc(m)
		}
	}
	if d.PublicAPI != nil {
		text := *d.PublicAPI
		c.PublicAPI = &text
	}
	return &c
}
