// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes knowledge-tree tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/othala/internal/graph"
	"github.com/starford/othala/internal/tree"
	"github.com/starford/othala/internal/uploads"
)

// Server wraps the MCP server with knowledge-tree tools.
type Server struct {
	mcp   *server.MCPServer
	svc   *tree.Service
	blobs *uploads.Store
}

// New creates a new MCP server with all tools registered.
func New(svc *tree.Service, blobs *uploads.Store) *Server {
	s := &Server{svc: svc, blobs: blobs}

	s.mcp = server.NewMCPServer(
		"Othala",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_kb",
		mcp.WithDescription("Search the knowledge tree by name and content (substring match, up to 15 hits)."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithString("start_path", mcp.Description("Optional folder path to scope the search to")),
	), s.searchKB)

	s.mcp.AddTool(mcp.NewTool("read_node",
		mcp.WithDescription("Read a folder or article by its slash-delimited path."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path from root, e.g. Projects/Phoenix/notes.md")),
	), s.readNode)

	s.mcp.AddTool(mcp.NewTool("list_children",
		mcp.WithDescription("List the children of a folder, folders first then name-ascending."),
		mcp.WithString("path", mcp.Description("Folder path (empty for root)")),
	), s.listChildren)

	s.mcp.AddTool(mcp.NewTool("get_context",
		mcp.WithDescription("Assemble the full context document for a path: articles at every "+
			"ancestry level plus attached-folder contents, shallowest context first."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the node to build context for")),
	), s.getContext)

	s.mcp.AddTool(mcp.NewTool("create_article",
		mcp.WithDescription("Create a new Markdown article under an existing folder. "+
			"Content SHOULD follow the article format contract; read it first via the "+
			"get_article_contract tool or the othala://article-format resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path for the new article; all parent folders must exist")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown body")),
	), s.createArticle)

	s.mcp.AddTool(mcp.NewTool("get_article_contract",
		mcp.WithDescription("Returns the canonical article format contract. "+
			"Call this before creating articles to ensure correct structure."),
	), s.getArticleContract)

	s.mcp.AddTool(mcp.NewTool("attach_file",
		mcp.WithDescription("Download a file from an http(s) URL or data URI and attach it to a node."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Source URL or base64 data URI")),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the node to attach the file to")),
		mcp.WithString("filename", mcp.Description("Optional filename override")),
	), s.attachFile)

	// Resource: article format contract.
	s.mcp.AddResource(
		mcp.NewResource("othala://article-format", "Article Format Contract",
			mcp.WithResourceDescription("Canonical Markdown article format for the knowledge tree."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readArticleFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// resolve maps a tool-supplied path to a node id, strictly.
func (s *Server) resolve(ctx context.Context, path string) (string, error) {
	if path == "" {
		return graph.RootID, nil
	}
	return s.svc.Resolve(ctx, path, tree.ResolveStrict)
}

func (s *Server) searchKB(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	startID := ""
	if p, pErr := req.RequireString("start_path"); pErr == nil && p != "" {
		startID, err = s.resolve(ctx, p)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("start_path not found: %s", p)), nil
		}
	}
	hits, err := s.svc.Search(ctx, query, startID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(hits, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := s.resolve(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	node, err := s.svc.GetNode(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if node.IsFolder {
		out, _ := json.MarshalIndent(node.Node, "", "  ")
		return mcp.NewToolResultText(string(out)), nil
	}
	return mcp.NewToolResultText(node.Content), nil
}

func (s *Server) listChildren(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := ""
	if p, err := req.RequireString("path"); err == nil {
		path = p
	}
	id, err := s.resolve(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	children, err := s.svc.ListChildren(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(children, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getContext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := s.resolve(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	doc, err := s.svc.BuildContext(ctx, id, nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(doc), nil
}

func (s *Server) createArticle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	segments := tree.SplitPath(path)
	if len(segments) == 0 {
		return mcp.NewToolResultError("path is required"), nil
	}
	name := segments[len(segments)-1]
	parentPath := tree.JoinPath(segments[:len(segments)-1])

	parentID, err := s.resolve(ctx, parentPath)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("parent folder not found: %s", parentPath)), nil
	}
	node, err := s.svc.CreateNode(ctx, parentID, name, false, false)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.UpdateContent(ctx, node.ID, content, graph.FormatMarkdown); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", path)), nil
}

func (s *Server) getArticleContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ArticleFormatContract), nil
}

func (s *Server) readArticleFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "othala://article-format",
			MIMEType: "text/markdown",
			Text:     ArticleFormatContract,
		},
	}, nil
}
