package docs

import (
	"encoding/json"
	"fmt"
)

// DocType is the discriminant of a Document.
type DocType int

const (
	TypeUnknown DocType = iota
	TypeClass
	TypeModule
	TypePackage
	TypeInjectable
	TypeDecorator
	TypeNestModule
	TypePipe
	TypeFunction
	TypeEnum
	TypeInterface
	TypeTypeAlias
	TypeConst
	TypeLet
	TypeVar
	TypeMember
	TypeParameter
	TypePackageContent
	TypeAPIListData
)

var docTypeNames = [...]string{
	TypeUnknown:        "unknown",
	TypeClass:          "class",
	TypeModule:         "module",
	TypePackage:        "package",
	TypeInjectable:     "injectable",
	TypeDecorator:      "decorator",
	TypeNestModule:     "nestmodule",
	TypePipe:           "pipe",
	TypeFunction:       "function",
	TypeEnum:           "enum",
	TypeInterface:      "interface",
	TypeTypeAlias:      "type-alias",
	TypeConst:          "const",
	TypeLet:            "let",
	TypeVar:            "var",
	TypeMember:         "member",
	TypeParameter:      "parameter",
	TypePackageContent: "package-content",
	TypeAPIListData:    "api-list-data",
}

func (t DocType) String() string {
	if int(t) < 0 || int(t) >= len(docTypeNames) {
		return docTypeNames[TypeUnknown]
	}
	return docTypeNames[t]
}

// ParseDocType maps a doc type name back to its DocType.
func ParseDocType(s string) (DocType, error) {
	for i, name := range docTypeNames {
		if name == s {
			return DocType(i), nil
		}
	}
	return TypeUnknown, fmt.Errorf("unknown doc type %q", s)
}

func (t DocType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *DocType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDocType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// IsClassLike reports whether documents of this type carry members.
func (t DocType) IsClassLike() bool {
	switch t {
	case TypeClass, TypeInterface, TypeInjectable, TypePipe, TypeNestModule:
		return true
	}
	return false
}

// Decorator is a decorator application found on a class-like declaration.
// ArgumentInfo holds one entry per call argument; object literals are
// decoded into maps, everything else is kept as source text.
type Decorator struct {
	Name         string `json:"name"`
	ArgumentInfo []any  `json:"argumentInfo,omitempty"`
}

// FileInfo records where a document came from. Stages never modify it.
type FileInfo struct {
	BaseName string `json:"baseName"`
	FilePath string `json:"filePath"`
	Content  string `json:"content,omitempty"`
}

// ModuleRef is an @module reference on an injectable. ID is empty until the
// alias has been resolved to a nestmodule document.
type ModuleRef struct {
	Alias string `json:"alias"`
	ID    string `json:"id,omitempty"`
}

// PackageData holds the typed export views of a package document. Each view
// is materialized once and sorted by id.
type PackageData struct {
	Exports     []*Document `json:"exports,omitempty"`
	Classes     []*Document `json:"classes,omitempty"`
	Injectables []*Document `json:"injectables,omitempty"`
	Decorators  []*Document `json:"decorators,omitempty"`
	Functions   []*Document `json:"functions,omitempty"`
	Structures  []*Document `json:"structures,omitempty"`
	Pipes       []*Document `json:"pipes,omitempty"`
	Types       []*Document `json:"types,omitempty"`
	Modules     []*Document `json:"modules,omitempty"`
}

// APIListItem is one export row of api-list.json.
type APIListItem struct {
	Name    string `json:"name"`
	Title   string `json:"title"`
	Path    string `json:"path"`
	DocType string `json:"docType"`
}

// APIListPackage is one package row of api-list.json.
type APIListPackage struct {
	Name  string        `json:"name"`
	Title string        `json:"title"`
	Path  string        `json:"path"`
	Items []APIListItem `json:"items"`
}

// Document is a single record of the pipeline. A given DocType only
// populates the fields relevant to it.
type Document struct {
	ID               string   `json:"id"`
	DocType          DocType  `json:"docType"`
	Name             string   `json:"name"`
	ShortDescription string   `json:"shortDescription,omitempty"`
	Description      string   `json:"description,omitempty"`
	Path             string   `json:"path,omitempty"`
	OutputPath       string   `json:"outputPath,omitempty"`
	Template         string   `json:"template,omitempty"`
	Signature        string   `json:"signature,omitempty"`
	ReturnType       string   `json:"returnType,omitempty"`
	Static           bool     `json:"static,omitempty"`
	Method           bool     `json:"method,omitempty"`
	Exported         bool     `json:"exported,omitempty"`
	Tags             Tags     `json:"tags,omitempty"`
	FileInfo         FileInfo `json:"fileInfo"`

	Decorators []Decorator `json:"decorators,omitempty"`
	// Options is the first argument of the class decorator that gave the
	// document its type, e.g. the @Module({...}) metadata.
	Options map[string]any `json:"options,omitempty"`
	// Partial marks documents rendered as includable fragments rather than
	// standalone API pages.
	Partial bool `json:"partial,omitempty"`

	ConstructorDoc *Document   `json:"constructorDoc,omitempty"`
	Members        []*Document `json:"members,omitempty"`
	Methods        []*Document `json:"methods,omitempty"`
	Properties     []*Document `json:"properties,omitempty"`
	Statics        []*Document `json:"statics,omitempty"`

	// Exports is set on module documents by the reader.
	Exports []*Document `json:"exports,omitempty"`
	// Package is set once a module has been turned into a package, and on
	// nestmodule documents collecting their linked injectables.
	Package *PackageData `json:"package,omitempty"`

	// ModuleDoc and ContainerDoc are weak links by id.
	ModuleDoc    string `json:"moduleDoc,omitempty"`
	ContainerDoc string `json:"containerDoc,omitempty"`

	// PublicAPI is the text of the @publicApi tag, nil when the tag is absent.
	PublicAPI     *string     `json:"publicApi,omitempty"`
	Modules       []ModuleRef `json:"modules,omitempty"`
	See           []string    `json:"see,omitempty"`
	PrivateExport bool        `json:"privateExport,omitempty"`

	Data            []APIListPackage `json:"data,omitempty"`
	RenderedContent string           `json:"-"`
}

// PackageView returns d.Package, allocating it on first use.
func (d *Document) PackageView() *PackageData {
	if d.Package == nil {
		d.Package = &PackageData{}
	}
	return d.Package
}

// HasTag reports whether the document carries the given tag.
func (d *Document) HasTag(name string) bool {
	_, ok := d.Tags.Find(name)
	return ok
}
