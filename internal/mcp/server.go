package mcp

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/nestjs/nestdoc/internal/cas"
	"github.com/nestjs/nestdoc/internal/db"
)

//go:embed instructions.md
var instructions string

const uriScheme = "nestdoc://"

type Server struct {
	mcpServer *server.MCPServer
	db        *db.DB
	store     *cas.Store
}

// NewServer exposes the generated-docs index over MCP. Page bodies are read
// from store.
func NewServer(database *db.DB, store *cas.Store, version string) *Server {
	s := &Server{db: database, store: store}

	mcpServer := server.NewMCPServer(
		"nestdoc",
		version,
		server.WithInstructions(instructions),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("search_api",
			mcp.WithDescription("Search the generated NestJS API reference by export name or short description. Returns URIs that can be read as resources."),
			mcp.WithString("query",
				mcp.Description("Name or words to look for, e.g. \"CacheModule\" or \"interceptor\""),
				mcp.Required(),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of results (default 20)"),
			),
		),
		s.handleSearch,
	)

	mcpServer.AddTool(
		mcp.NewTool("list_packages",
			mcp.WithDescription("List the documented NestJS packages with their export counts."),
		),
		s.handleListPackages,
	)
}

func (s *Server) registerResources(mcpServer *server.MCPServer) {
	mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			uriScheme+"{package}/{name}",
			"NestJS API page",
			mcp.WithTemplateDescription("Rendered API reference page of one export. Search results return these URIs."),
			mcp.WithTemplateMIMEType("text/html"),
		),
		s.handleReadResource,
	)
}

type searchResult struct {
	URI              string `json:"uri"`
	Package          string `json:"package"`
	Name             string `json:"name"`
	DocType          string `json:"docType"`
	Path             string `json:"path"`
	ShortDescription string `json:"shortDescription,omitempty"`
}

func (s *Server) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}
	limit := 20
	if l, ok := args["limit"].(float64); ok && l > 0 {
		limit = int(l)
	}

	exports, err := s.db.Search(query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	results := make([]searchResult, 0, len(exports))
	for _, e := range exports {
		results = append(results, searchResult{
			URI:              uriScheme + e.Package + "/" + e.Name,
			Package:          e.Package,
			Name:             e.Name,
			DocType:          e.DocType,
			Path:             e.Path,
			ShortDescription: e.ShortDescription,
		})
	}

	resultJSON, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleListPackages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pkgs, err := s.db.ListPackages()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing packages failed: %v", err)), nil
	}

	type pkgResult struct {
		Name             string `json:"name"`
		Path             string `json:"path"`
		Exports          int    `json:"exports"`
		ShortDescription string `json:"shortDescription,omitempty"`
	}
	results := make([]pkgResult, 0, len(pkgs))
	for _, p := range pkgs {
		results = append(results, pkgResult{Name: p.Name, Path: p.Path, Exports: p.ExportCount, ShortDescription: p.ShortDescription})
	}

	resultJSON, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleReadResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	pkg, name, ok := strings.Cut(strings.TrimPrefix(uri, uriScheme), "/")
	if !ok || pkg == "" || name == "" {
		return nil, fmt.Errorf("invalid resource URI: %s", uri)
	}
	name, _, _ = strings.Cut(name, "#")

	e, err := s.db.GetExport(pkg, name)
	if err != nil {
		return nil, fmt.Errorf("looking up %s/%s: %w", pkg, name, err)
	}
	if e == nil {
		return nil, fmt.Errorf("no export %s in package %s", name, pkg)
	}
	if e.ContentHash == "" {
		return nil, fmt.Errorf("%s/%s has no rendered page", pkg, name)
	}

	body, err := s.store.Read(e.ContentHash)
	if err != nil {
		return nil, fmt.Errorf("reading page of %s/%s: %w", pkg, name, err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/html",
			Text:     string(body),
		},
	}, nil
}

func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) Shutdown(_ context.Context) error {
	return nil
}
