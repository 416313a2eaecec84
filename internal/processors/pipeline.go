// Package processors holds the document pipeline: the fixed sequence of
// stages that turns parsed modules and declarations into rendered API pages
// and the api-list.json index.
package processors

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nestjs/nestdoc/internal/docs"
)

// Stage is one named step of the pipeline. A stage owns the set for the
// duration of its call.
type Stage struct {
	Name string
	Fn   func(ctx context.Context, set *docs.Set) error
}

// Options are the values stages need beyond the document set.
type Options struct {
	// BasePath prefixes the public path of every package page.
	BasePath string
	// OutputDir is where writeFiles puts rendered documents. Empty skips
	// writing.
	OutputDir string
}

// Report summarizes a pipeline run.
type Report struct {
	StageDurations map[string]time.Duration
	// Written lists the output paths written, relative to OutputDir.
	Written []string
}

// Pipeline runs stages in a fixed order.
type Pipeline struct {
	stages []Stage
	report *Report
}

// New returns the standard pipeline.
func New(opts Options) *Pipeline {
	p := &Pipeline{report: &Report{StageDurations: make(map[string]time.Duration)}}
	p.stages = []Stage{
		{"processClassLikeMembers", processClassLikeMembers},
		{"extractDecoratedClasses", extractDecoratedClasses},
		{"processDecoratorFunctions", processDecoratorFunctions},
		{"removeInjectableConstructors", removeInjectableConstructors},
		{"markPrivateDocs", markPrivateDocs},
		{"shortDescription", shortDescription},
		{"filterContainedDocs", filterContainedDocs},
		{"processPackages", processPackages},
		{"processModuleDocs", processModuleDocs},
		{"computeOutputPath", computeOutputPath(opts.BasePath)},
		{"generateApiListDoc", generateApiListDoc},
		{"render", render},
		{"fixInternalDocumentLinks", fixInternalDocumentLinks},
	}
	if opts.OutputDir != "" {
		p.stages = append(p.stages, Stage{"writeFiles", writeFiles(opts.OutputDir, p.report)})
	}
	return p
}

// Stages returns the stage names in run order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, st := range p.stages {
		names[i] = st.Name
	}
	return names
}

// Run executes every stage in order, stopping at the first error.
func (p *Pipeline) Run(ctx context.Context, set *docs.Set) (*Report, error) {
	for _, st := range p.stages {
		select {
		case <-ctx.Done():
			return p.report, fmt.Errorf("stage %s: %w", st.Name, ctx.Err())
		default:
		}

		t0 := time.Now()
		err := st.Fn(ctx, set)
		dur := time.Since(t0)
		p.report.StageDurations[st.Name] = dur
		slog.Debug("stage complete", "stage", st.Name, "duration", dur, "docs", set.Len())

		if err != nil {
			return p.report, fmt.Errorf("stage %s: %w", st.Name, err)
		}
	}
	return p.report, nil
}
