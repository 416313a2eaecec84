package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/nestjs/nestdoc/internal/docs"
)

// reexport is an `export ... from './x'` clause. Names is nil for
// `export * from`.
type reexport struct {
	From  string            `json:"from"`
	Names []exportSpecifier `json:"names,omitempty"`
}

type exportSpecifier struct {
	Name  string `json:"name"`
	Alias string `json:"alias,omitempty"`
}

// fileResult is everything the reader needs from one source file. It is
// cached as JSON, so it holds only plain data.
type fileResult struct {
	Decls     []*docs.Document `json:"decls"`
	Reexports []reexport       `json:"reexports,omitempty"`
	// Local lists names exported through a source-less `export { A }`.
	Local []exportSpecifier `json:"local,omitempty"`
}

// exported returns the declarations visible from outside the file, in
// source order, with local export clauses applied.
func (r *fileResult) exported() []*docs.Document {
	byName := make(map[string]*docs.Document, len(r.Decls))
	var out []*docs.Document
	for _, d := range r.Decls {
		if d.Exported {
			out = append(out, d)
		}
		byName[d.Name] = d
	}
	for _, spec := range r.Local {
		d, ok := byName[spec.Name]
		if !ok || d.Exported {
			continue
		}
		c := cloneDoc(d)
		if spec.Alias != "" {
			c.Name = spec.Alias
		}
		out = append(out, c)
	}
	return out
}

// parseFile extracts declarations and re-exports from TypeScript source.
func parseFile(ctx context.Context, content []byte, filePath string) (*fileResult, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(typescript.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filePath, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("parsing %s: empty syntax tree", filePath)
	}
	if root.HasError() {
		slog.Debug("source contains syntax errors", "file", filePath)
	}

	p := &fileParser{src: content, file: filePath, result: &fileResult{}}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		switch child.Type() {
		case "export_statement":
			p.exportStatement(child)
		default:
			if d := p.declaration(child, nil, false); d != nil {
				p.result.Decls = append(p.result.Decls, d...)
			}
		}
	}
	return p.result, nil
}

type fileParser struct {
	src    []byte
	file   string
	result *fileResult
}

func (p *fileParser) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(p.src)
}

func (p *fileParser) exportStatement(node *sitter.Node) {
	var decorators []docs.Decorator
	var source string
	var clause *sitter.Node
	star := false

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "decorator":
			decorators = append(decorators, p.decorator(child))
		case "*":
			star = true
		case "namespace_export":
			// export * as ns from: documented under the namespace only
			return
		case "export_clause":
			clause = child
		case "string":
			source = unquote(p.text(child))
		}
	}

	if decl := node.ChildByFieldName("declaration"); decl != nil {
		if d := p.declaration(decl, decorators, true); d != nil {
			p.result.Decls = append(p.result.Decls, d...)
		}
		return
	}

	var specs []exportSpecifier
	if clause != nil {
		for i := 0; i < int(clause.NamedChildCount()); i++ {
			spec := clause.NamedChild(i)
			if spec.Type() != "export_specifier" {
				continue
			}
			specs = append(specs, exportSpecifier{
				Name:  p.text(spec.ChildByFieldName("name")),
				Alias: p.text(spec.ChildByFieldName("alias")),
			})
		}
	}

	switch {
	case source != "" && star:
		p.result.Reexports = append(p.result.Reexports, reexport{From: source})
	case source != "":
		p.result.Reexports = append(p.result.Reexports, reexport{From: source, Names: specs})
	default:
		p.result.Local = append(p.result.Local, specs...)
	}
}

// declaration converts one top-level declaration into documents. Lexical
// declarations may yield several.
func (p *fileParser) declaration(node *sitter.Node, decorators []docs.Decorator, exported bool) []*docs.Document {
	comment := p.precedingComment(node)

	switch node.Type() {
	case "class_declaration", "abstract_class_declaration":
		for i := 0; i < int(node.NamedChildCount()); i++ {
			if child := node.NamedChild(i); child.Type() == "decorator" {
				decorators = append(decorators, p.decorator(child))
			}
		}
		d := p.newDoc(node, docs.TypeClass, comment, exported)
		d.Decorators = decorators
		body := node.ChildByFieldName("body")
		d.Signature = p.headerUntil(node, body)
		d.Members = p.classMembers(body)
		return []*docs.Document{d}

	case "interface_declaration":
		d := p.newDoc(node, docs.TypeInterface, comment, exported)
		body := node.ChildByFieldName("body")
		d.Signature = p.headerUntil(node, body)
		d.Members = p.interfaceMembers(body)
		return []*docs.Document{d}

	case "function_declaration", "function_signature":
		d := p.newDoc(node, docs.TypeFunction, comment, exported)
		d.Signature = p.headerUntil(node, node.ChildByFieldName("body"))
		d.ReturnType = p.returnType(node)
		return []*docs.Document{d}

	case "enum_declaration":
		d := p.newDoc(node, docs.TypeEnum, comment, exported)
		d.Signature = p.headerUntil(node, node.ChildByFieldName("body"))
		return []*docs.Document{d}

	case "type_alias_declaration":
		d := p.newDoc(node, docs.TypeTypeAlias, comment, exported)
		d.Signature = strings.TrimSuffix(strings.TrimSpace(p.text(node)), ";")
		return []*docs.Document{d}

	case "lexical_declaration", "variable_declaration":
		docType := docs.TypeVar
		if kind := node.ChildByFieldName("kind"); kind != nil {
			switch p.text(kind) {
			case "const":
				docType = docs.TypeConst
			case "let":
				docType = docs.TypeLet
			}
		} else if node.ChildCount() > 0 {
			switch node.Child(0).Type() {
			case "const":
				docType = docs.TypeConst
			case "let":
				docType = docs.TypeLet
			}
		}
		var out []*docs.Document
		for i := 0; i < int(node.NamedChildCount()); i++ {
			declarator := node.NamedChild(i)
			if declarator.Type() != "variable_declarator" {
				continue
			}
			d := p.newDoc(declarator, docType, comment, exported)
			if d.Name == "" {
				continue
			}
			d.Signature = docType.String() + " " + d.Name
			if t := p.annotation(declarator, "type"); t != "" {
				d.Signature += ": " + t
			}
			out = append(out, d)
		}
		return out
	}
	return nil
}

func (p *fileParser) newDoc(node *sitter.Node, docType docs.DocType, comment string, exported bool) *docs.Document {
	d := &docs.Document{
		DocType: docType,
		Name:    p.text(node.ChildByFieldName("name")),
		FileInfo: docs.FileInfo{
			BaseName: baseName(p.file),
			FilePath: p.file,
		},
	}
	applyComment(d, comment)
	d.Exported = exported
	return d
}

// headerUntil returns the declaration text preceding body, without any
// leading decorators.
func (p *fileParser) headerUntil(node, body *sitter.Node) string {
	start := node.StartByte()
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "decorator" {
			start = child.StartByte()
			break
		}
	}
	end := node.EndByte()
	if body != nil {
		end = body.StartByte()
	}
	if end < start {
		return ""
	}
	header := strings.TrimSpace(string(p.src[start:end]))
	return strings.Join(strings.Fields(strings.TrimSuffix(header, ";")), " ")
}

func (p *fileParser) classMembers(body *sitter.Node) []*docs.Document {
	if body == nil {
		return nil
	}
	var members []*docs.Document
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		switch child.Type() {
		case "method_definition", "method_signature", "abstract_method_signature",
			"public_field_definition", "property_signature":
		default:
			continue
		}
		if isPrivateMember(child, p.src) {
			continue
		}
		m := p.member(child)
		if m.Name != "" {
			members = append(members, m)
		}
	}
	return members
}

func (p *fileParser) interfaceMembers(body *sitter.Node) []*docs.Document {
	if body == nil {
		return nil
	}
	var members []*docs.Document
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		switch child.Type() {
		case "property_signature", "method_signature":
			if m := p.member(child); m.Name != "" {
				members = append(members, m)
			}
		}
	}
	return members
}

func (p *fileParser) member(node *sitter.Node) *docs.Document {
	m := &docs.Document{
		DocType: docs.TypeMember,
		Name:    p.text(node.ChildByFieldName("name")),
		FileInfo: docs.FileInfo{
			BaseName: baseName(p.file),
			FilePath: p.file,
		},
	}
	applyComment(m, p.precedingComment(node))
	switch node.Type() {
	case "method_definition", "method_signature", "abstract_method_signature":
		m.Method = true
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == "static" {
			m.Static = true
		}
	}
	m.Signature = p.headerUntil(node, node.ChildByFieldName("body"))
	m.ReturnType = p.returnType(node)
	return m
}

func isPrivateMember(node *sitter.Node, src []byte) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "accessibility_modifier" {
			mod := child.Content(src)
			return mod == "private" || mod == "protected"
		}
	}
	return false
}

// precedingComment returns the JSDoc block directly above node, looking
// through an enclosing export statement.
func (p *fileParser) precedingComment(node *sitter.Node) string {
	for n := node; n != nil; n = n.Parent() {
		prev := n.PrevSibling()
		if prev != nil && prev.Type() == "comment" {
			if c := p.text(prev); strings.HasPrefix(c, "/**") {
				return c
			}
		}
		parent := n.Parent()
		if parent == nil || (parent.Type() != "export_statement" && parent.Type() != "lexical_declaration" && parent.Type() != "variable_declaration") {
			return ""
		}
	}
	return ""
}

func (p *fileParser) decorator(node *sitter.Node) docs.Decorator {
	var dec docs.Decorator
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "identifier", "member_expression":
			dec.Name = lastSegment(p.text(child))
		case "call_expression":
			dec.Name = lastSegment(p.text(child.ChildByFieldName("function")))
			if args := child.ChildByFieldName("arguments"); args != nil {
				for j := 0; j < int(args.NamedChildCount()); j++ {
					arg := args.NamedChild(j)
					if arg.Type() == "comment" {
						continue
					}
					dec.ArgumentInfo = append(dec.ArgumentInfo, p.value(arg, 0))
				}
			}
		}
	}
	return dec
}

// applyComment fills description and tag-derived fields from a JSDoc block.
func applyComment(d *docs.Document, comment string) {
	if comment == "" {
		return
	}
	d.Description, d.Tags = docs.ParseComment(comment)
	if tag, ok := d.Tags.Find("publicApi"); ok {
		text := tag.Description
		d.PublicAPI = &text
	}
	for _, tag := range d.Tags.All("module") {
		for _, alias := range strings.FieldsFunc(tag.Description, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\n' || r == '\t'
		}) {
			d.Modules = append(d.Modules, docs.ModuleRef{Alias: alias})
		}
	}
	for _, tag := range d.Tags.All("see") {
		if tag.Description != "" {
			d.See = append(d.See, tag.Description)
		}
	}
}

// returnType reads the return type annotation of a function-like node.
func (p *fileParser) returnType(node *sitter.Node) string {
	return p.annotation(node, "return_type")
}

// annotation reads a type annotation by field name, falling back to the
// first direct type_annotation child for grammars that do not name it.
func (p *fileParser) annotation(node *sitter.Node, field string) string {
	if n := node.ChildByFieldName(field); n != nil {
		return typeText(p.text(n))
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if child := node.NamedChild(i); child.Type() == "type_annotation" {
			return typeText(p.text(child))
		}
	}
	return ""
}

func typeText(annotation string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(annotation), ":"))
}

func lastSegment(s string) string {
	if i := strings.LastIndex(s, "."); i >= 0 {
		return s[i+1:]
	}
	return s
}

func unquote(s string) string {
	if len(s) >= 2 {
		switch s[0] {
		case '\'', '"', '`':
			if s[len(s)-1] == s[0] {
				return s[1 : len(s)-1]
			}
		}
	}
	return s
}
