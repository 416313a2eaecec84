package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	gm "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/html"
	gmparser "github.com/gomarkdown/markdown/parser"
	"gopkg.in/yaml.v3"
)

func newParser() *gmparser.Parser {
	return gmparser.NewWithExtensions(
		gmparser.CommonExtensions | gmparser.AutoHeadingIDs | gmparser.Autolink,
	)
}

// ToHTML renders a markdown description to an HTML fragment. Headings get
// ids so in-page `#anchor` links resolve.
func ToHTML(src string) string {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank,
	})
	out := gm.ToHTML([]byte(src), newParser(), renderer)
	return strings.TrimSpace(string(out))
}

// FirstParagraph returns the source text of the first top-level paragraph,
// or "" when the document does not start with prose.
func FirstParagraph(src string) string {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}
	doc := gm.Parse([]byte(src), newParser())

	for _, child := range doc.GetChildren() {
		para, ok := child.(*ast.Paragraph)
		if !ok {
			continue
		}
		return strings.TrimSpace(nodeText(para))
	}
	return ""
}

// nodeText concatenates the literal text below node, keeping inline code
// and link text but dropping markup.
func nodeText(node ast.Node) string {
	var b strings.Builder
	ast.WalkFunc(node, func(n ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		switch v := n.(type) {
		case *ast.Text:
			b.Write(v.Literal)
		case *ast.Code:
			b.WriteString("`")
			b.Write(v.Literal)
			b.WriteString("`")
		case *ast.Softbreak, *ast.Hardbreak:
			b.WriteString(" ")
		}
		return ast.GoToNext
	})
	return b.String()
}

// SplitFrontMatter separates a leading YAML front-matter block from the
// markdown body and decodes it into out. Sources without front matter are
// returned unchanged and out is left untouched.
func SplitFrontMatter(src string, out any) (string, error) {
	if !strings.HasPrefix(src, "---\n") && !strings.HasPrefix(src, "---\r\n") {
		return src, nil
	}
	rest := src[strings.Index(src, "\n")+1:]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return src, nil
	}
	header := rest[:end]
	body := rest[end+len("\n---"):]
	if nl := strings.Index(body, "\n"); nl >= 0 {
		body = body[nl+1:]
	} else {
		body = ""
	}

	dec := yaml.NewDecoder(bytes.NewReader([]byte(header)))
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return src, fmt.Errorf("decoding front matter: %w", err)
	}
	return body, nil
}
