// Package mcp exposes the search adapter as tools over the Model Context
// Protocol on stdio.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/atlascope/solrbridge/internal/solr"
	"github.com/atlascope/solrbridge/internal/version"
)

// SearchClient is the engine surface the tools consume.
type SearchClient interface {
	Search(ctx context.Context, req solr.Request) (solr.Response, error)
	Suggest(ctx context.Context, query string, count int) map[string][]string
	SchemaFields(ctx context.Context) []string
	CollectionStats(ctx context.Context) (solr.Stats, bool)
	Ping(ctx context.Context) bool
	Collection() string
	BaseURL() string
}

// QueryRewriter turns a free-text question into engine query syntax.
type QueryRewriter interface {
	Rewrite(ctx context.Context, query string) (string, error)
}

// Server registers the search tools on an MCP stdio server.
type Server struct {
	search   SearchClient
	rewriter QueryRewriter
	logger   *zap.Logger
	mcp      *server.MCPServer
}

// NewServer creates a Server. rewriter can be nil; the rewrite tool is then
// not registered.
func NewServer(search SearchClient, rewriter QueryRewriter, logger *zap.Logger) *Server {
	s := &Server{
		search:   search,
		rewriter: rewriter,
		logger:   logger,
	}

	m := server.NewMCPServer("solrbridge", version.Version)
	s.registerTools(m)
	s.mcp = m
	return s
}

// Serve blocks reading protocol frames from stdin until EOF.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
