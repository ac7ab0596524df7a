package mcpserver

import (
	"context"

	"github.com/akolanti/DriveRAG/internal/rag"
	"github.com/akolanti/DriveRAG/pkg/logger_i"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const Version = "1.0.0"

// Server exposes the query and structure operations as MCP tools over stdio,
// so an agent can use an indexed Drive folder as a knowledge source.
type Server struct {
	ragService rag.Service
	server     *mcp.Server
	logger     *logger_i.Logger
}

func NewServer(ragService rag.Service) *Server {
	impl := &mcp.Implementation{
		Name:    "drive-rag",
		Version: Version,
	}

	s := &Server{
		ragService: ragService,
		server:     mcp.NewServer(impl, nil),
		logger:     logger_i.NewLogger("MCP"),
	}
	s.registerTools()
	return s
}

// Run serves over stdio until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("MCP server starting on stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
