package processors

import (
	"context"
	"regexp"

	"github.com/nestjs/nestdoc/internal/docs"
)

var fragmentHref = regexp.MustCompile(`href="#`)

// fixInternalDocumentLinks prefixes in-page anchors with the document's own
// path. Prefixed links no longer match, so running it twice changes nothing.
func fixInternalDocumentLinks(_ context.Context, set *docs.Set) error {
	for _, d := range set.All() {
		if d.RenderedContent == "" {
			continue
		}
		d.RenderedContent = fixLinks(d.RenderedContent, d.Path)
	}
	return nil
}

func fixLinks(content, docPath string) string {
	return fragmentHref.ReplaceAllLiteralString(content, `href="`+docPath+`#`)
}
