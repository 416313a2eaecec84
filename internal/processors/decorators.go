package processors

import (
	"context"
	"strings"

	"github.com/nestjs/nestdoc/internal/docs"
)

// decoratorTypes maps class decorators to the doc type they confer.
var decoratorTypes = map[string]docs.DocType{
	"Injectable": docs.TypeInjectable,
	"Pipe":       docs.TypePipe,
	"Module":     docs.TypeNestModule,
}

// extractDecoratedClasses reclassifies classes carrying a known decorator.
// When several known decorators are present the last one wins.
func extractDecoratedClasses(_ context.Context, set *docs.Set) error {
	for _, d := range set.All() {
		for _, dec := range d.Decorators {
			docType, ok := decoratorTypes[dec.Name]
			if !ok {
				continue
			}
			d.DocType = docType
			d.Path = "partials/modules/" + d.ID
			d.OutputPath = d.Path + "/index.html"
			d.Template = docType.String() + ".template.html"
			d.Partial = true

			d.Options = nil
			if len(dec.ArgumentInfo) > 0 {
				if opts, ok := dec.ArgumentInfo[0].(map[string]any); ok {
					d.Options = opts
				}
			}
		}
	}
	return nil
}

// processDecoratorFunctions turns decorator factories into decorator docs.
func processDecoratorFunctions(_ context.Context, set *docs.Set) error {
	for _, d := range set.OfType(docs.TypeFunction) {
		if strings.HasSuffix(d.ReturnType, "Decorator") {
			d.DocType = docs.TypeDecorator
		}
	}
	return nil
}
