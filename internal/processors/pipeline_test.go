package processors

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nestjs/nestdoc/internal/docs"
)

// commonPackage builds the documents a reader would produce for a small
// common package.
func commonPackage() *docs.Set {
	ctor := &docs.Document{ID: "common/index/CacheService.constructor", DocType: docs.TypeMember, Name: "constructor", Method: true}
	get := &docs.Document{
		ID: "common/index/CacheService.get", DocType: docs.TypeMember, Name: "get", Method: true,
		Signature: "get(key: string): string", ReturnType: "string",
		Description: "Reads a cached value.",
	}
	service := &docs.Document{
		ID: "common/index/CacheService", DocType: docs.TypeClass, Name: "CacheService",
		Description: "Caches responses.",
		Decorators:  []docs.Decorator{{Name: "Injectable"}},
		PublicAPI:   ptr(""),
		Modules:     []docs.ModuleRef{{Alias: "CacheModule"}},
		Members:     []*docs.Document{ctor, get},
	}
	module := &docs.Document{
		ID: "common/index/CacheModule", DocType: docs.TypeClass, Name: "CacheModule",
		Decorators: []docs.Decorator{{Name: "Module", ArgumentInfo: []any{map[string]any{"providers": "CacheService"}}}},
		PublicAPI:  ptr(""),
	}
	decorator := &docs.Document{
		ID: "common/index/Get", DocType: docs.TypeFunction, Name: "Get",
		Signature: "function Get(path?: string): MethodDecorator", ReturnType: "MethodDecorator",
		Description: "Routes HTTP GET requests.\n\n## Usage\n\nSee [usage](#usage).",
		PublicAPI:   ptr(""),
	}
	enum := &docs.Document{ID: "common/index/HttpStatus", DocType: docs.TypeEnum, Name: "HttpStatus", PublicAPI: ptr("")}
	mutable := &docs.Document{ID: "common/index/mutable", DocType: docs.TypeLet, Name: "mutable", PublicAPI: ptr("")}
	secret := &docs.Document{ID: "common/index/SECRET", DocType: docs.TypeConst, Name: "SECRET"}

	pkg := &docs.Document{
		ID: "common/index", DocType: docs.TypeModule,
		FileInfo: docs.FileInfo{BaseName: "index", FilePath: "common/index.ts"},
		Exports:  []*docs.Document{service, module, decorator, enum, mutable, secret},
	}
	content := &docs.Document{
		ID: "common/PACKAGE", DocType: docs.TypePackageContent,
		Description: "Common building blocks.",
		FileInfo:    docs.FileInfo{FilePath: "common/PACKAGE.md"},
	}
	return docs.NewSet(pkg, service, ctor, get, module, decorator, enum, mutable, secret, content)
}

func TestPipeline_StageOrder(t *testing.T) {
	t.Parallel()
	want := []string{
		"processClassLikeMembers",
		"extractDecoratedClasses",
		"processDecoratorFunctions",
		"removeInjectableConstructors",
		"markPrivateDocs",
		"shortDescription",
		"filterContainedDocs",
		"processPackages",
		"processModuleDocs",
		"computeOutputPath",
		"generateApiListDoc",
		"render",
		"fixInternalDocumentLinks",
		"writeFiles",
	}
	if diff := cmp.Diff(want, New(Options{OutputDir: t.TempDir()}).Stages()); diff != "" {
		t.Errorf("stages (-want +got):\n%s", diff)
	}
	if got := New(Options{}).Stages(); got[len(got)-1] != "fixInternalDocumentLinks" {
		t.Errorf("pipeline without output dir ends with %s", got[len(got)-1])
	}
}

func TestPipeline_Run(t *testing.T) {
	t.Parallel()
	out := t.TempDir()
	set := commonPackage()

	report, err := New(Options{BasePath: "api", OutputDir: out}).Run(context.Background(), set)
	if err != nil {
		t.Fatal(err)
	}

	pkg, _ := set.Get("common/index")
	if pkg.DocType != docs.TypePackage || pkg.Name != "common" {
		t.Errorf("package = %v %q", pkg.DocType, pkg.Name)
	}
	if pkg.ShortDescription != "Common building blocks." {
		t.Errorf("package ShortDescription = %q", pkg.ShortDescription)
	}
	get, _ := set.Get("common/index/Get")
	if get.DocType != docs.TypeDecorator {
		t.Errorf("Get DocType = %v", get.DocType)
	}
	service, _ := set.Get("common/index/CacheService")
	if service.ConstructorDoc != nil {
		t.Error("undocumented injectable constructor kept")
	}
	if service.Modules[0].ID != "common/index/CacheModule" {
		t.Errorf("CacheService module = %q", service.Modules[0].ID)
	}
	for _, d := range set.All() {
		if d.DocType == docs.TypeMember {
			t.Errorf("member %s left in set", d.ID)
		}
	}

	wantWritten := []string{
		"common.html",
		"common/CacheService.html",
		"common/CacheModule.html",
		"common/Get.html",
		"common/HttpStatus.html",
		"common/mutable.html",
		"api-list.json",
	}
	if diff := cmp.Diff(wantWritten, report.Written); diff != "" {
		t.Errorf("written (-want +got):\n%s", diff)
	}
	if len(report.StageDurations) != len(New(Options{OutputDir: out}).Stages()) {
		t.Errorf("durations recorded for %d stages", len(report.StageDurations))
	}

	page, err := os.ReadFile(filepath.Join(out, "common", "Get.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(page), `href="api/common/Get#usage"`) {
		t.Errorf("fragment link not rewritten:\n%s", page)
	}
	if !strings.Contains(string(page), "function Get(path?: string): MethodDecorator") {
		t.Errorf("signature missing:\n%s", page)
	}

	pkgPage, err := os.ReadFile(filepath.Join(out, "common.html"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`href="api/common/Get"`, "Decorators", "Injectables", "Common building blocks."} {
		if !strings.Contains(string(pkgPage), want) {
			t.Errorf("package page missing %q:\n%s", want, pkgPage)
		}
	}
	if strings.Contains(string(pkgPage), "SECRET") {
		t.Error("private export listed on package page")
	}

	modulePage, err := os.ReadFile(filepath.Join(out, "common", "CacheModule.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(modulePage), "CacheService") {
		t.Errorf("module page lacks its injectable:\n%s", modulePage)
	}

	raw, err := os.ReadFile(filepath.Join(out, "api-list.json"))
	if err != nil {
		t.Fatal(err)
	}
	var list struct {
		Data []docs.APIListPackage `json:"data"`
	}
	if err := json.Unmarshal(raw, &list); err != nil {
		t.Fatalf("api-list.json is not valid JSON: %v\n%s", err, raw)
	}
	want := []docs.APIListPackage{{
		Name: "common", Title: "common", Path: "api/common",
		Items: []docs.APIListItem{
			{Name: "cachemodule", Title: "CacheModule", Path: "api/common/CacheModule", DocType: "nestmodule"},
			{Name: "cacheservice", Title: "CacheService", Path: "api/common/CacheService", DocType: "injectable"},
			{Name: "get", Title: "Get", Path: "api/common/Get", DocType: "decorator"},
			{Name: "httpstatus", Title: "HttpStatus", Path: "api/common/HttpStatus", DocType: "enum"},
			{Name: "mutable", Title: "mutable", Path: "api/common/mutable", DocType: "const"},
		},
	}}
	if diff := cmp.Diff(want, list.Data); diff != "" {
		t.Errorf("api list (-want +got):\n%s", diff)
	}
}

func TestPipeline_DecoratedExportsGetPackagePages(t *testing.T) {
	t.Parallel()
	svc := &docs.Document{
		ID: "cats/index/CatsService", DocType: docs.TypeClass, Name: "CatsService",
		Decorators: []docs.Decorator{{Name: "Injectable"}},
		PublicAPI:  ptr("stable"),
	}
	helper := &docs.Document{
		ID: "cats/helper/HelperService", DocType: docs.TypeClass, Name: "HelperService",
		Decorators: []docs.Decorator{{Name: "Injectable"}},
	}
	pkg := &docs.Document{
		ID: "cats/index", DocType: docs.TypeModule,
		FileInfo: docs.FileInfo{BaseName: "index", FilePath: "cats/index.ts"},
		Exports:  []*docs.Document{svc},
	}
	set := docs.NewSet(pkg, svc, helper)

	if _, err := New(Options{BasePath: "api"}).Run(context.Background(), set); err != nil {
		t.Fatal(err)
	}
	if svc.ModuleDoc != "cats/index" || svc.OutputPath != "cats/CatsService.html" || svc.Path != "api/cats/CatsService" {
		t.Errorf("CatsService: ModuleDoc=%q OutputPath=%q Path=%q", svc.ModuleDoc, svc.OutputPath, svc.Path)
	}
	if helper.OutputPath != "partials/modules/cats/helper/HelperService/index.html" {
		t.Errorf("HelperService OutputPath = %q", helper.OutputPath)
	}
}

func TestPipeline_DocTypesStayReclassified(t *testing.T) {
	t.Parallel()
	set := commonPackage()
	p := New(Options{BasePath: "api"})
	if _, err := p.Run(context.Background(), set); err != nil {
		t.Fatal(err)
	}

	again := New(Options{BasePath: "api"})
	for _, st := range again.stages[:4] {
		if err := st.Fn(context.Background(), set); err != nil {
			t.Fatal(err)
		}
	}
	for id, want := range map[string]docs.DocType{
		"common/index":              docs.TypePackage,
		"common/index/Get":          docs.TypeDecorator,
		"common/index/CacheService": docs.TypeInjectable,
		"common/index/CacheModule":  docs.TypeNestModule,
	} {
		d, _ := set.Get(id)
		if d.DocType != want {
			t.Errorf("%s DocType = %v, want %v", id, d.DocType, want)
		}
	}
}

func TestPipeline_LinkErrorsAbort(t *testing.T) {
	t.Parallel()
	out := t.TempDir()
	set := commonPackage()
	svc, _ := set.Get("common/index/CacheService")
	svc.Modules = nil

	report, err := New(Options{BasePath: "api", OutputDir: out}).Run(context.Background(), set)
	var le *LinkErrors
	if !errors.As(err, &le) {
		t.Fatalf("error = %v, want *LinkErrors", err)
	}
	if len(le.Problems) != 1 {
		t.Errorf("problems = %q", le.Problems)
	}
	if len(report.Written) != 0 {
		t.Errorf("files written after link failure: %v", report.Written)
	}
	entries, err := os.ReadDir(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("output dir not empty: %d entries", len(entries))
	}
}

func TestPipeline_Canceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Options{}).Run(ctx, commonPackage())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestWriteFiles_RejectsEscapingPaths(t *testing.T) {
	t.Parallel()
	d := &docs.Document{ID: "evil", OutputPath: "../evil.html", RenderedContent: "x"}
	err := writeFiles(t.TempDir(), &Report{})(context.Background(), docs.NewSet(d))
	if err == nil {
		t.Fatal("expected error for path outside the output directory")
	}
}
