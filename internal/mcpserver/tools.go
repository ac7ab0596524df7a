package mcpserver

import (
	"context"

	"github.com/akolanti/DriveRAG/internal/domain/commonModels"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type QueryInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the folder's content"`
	FolderId string `json:"folder_id" jsonschema:"the Drive folder ID or canonical path of an indexed folder"`
}

type QueryOutput struct {
	Answer  string                `json:"answer"`
	Sources []commonModels.Source `json:"sources,omitempty"`
}

type StructureInput struct {
	FolderId string `json:"folder_id" jsonschema:"the Drive folder ID or canonical path of an indexed folder"`
}

type StructureOutput struct {
	Root *commonModels.StructureNode `json:"structure"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query_folder",
		Description: "Answer a question from the content of an indexed Google Drive folder",
	}, s.handleQuery)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "folder_structure",
		Description: "Show the tree of indexed scopes under a Google Drive folder",
	}, s.handleStructure)
}

func (s *Server) handleQuery(ctx context.Context, _ *mcp.CallToolRequest, input QueryInput) (*mcp.CallToolResult, QueryOutput, error) {
	answer, sources, err := s.ragService.Query(ctx, input.Question, input.FolderId)
	if err != nil {
		return nil, QueryOutput{}, err
	}
	return nil, QueryOutput{Answer: answer, Sources: sources}, nil
}

func (s *Server) handleStructure(ctx context.Context, _ *mcp.CallToolRequest, input StructureInput) (*mcp.CallToolResult, StructureOutput, error) {
	root, err := s.ragService.Structure(ctx, input.FolderId)
	if err != nil {
		return nil, StructureOutput{}, err
	}
	return nil, StructureOutput{Root: root}, nil
}
