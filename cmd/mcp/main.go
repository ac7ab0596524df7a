package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/akolanti/DriveRAG/internal/config"
	"github.com/akolanti/DriveRAG/internal/drive"
	"github.com/akolanti/DriveRAG/internal/mcpserver"
	"github.com/akolanti/DriveRAG/internal/rag"
	"github.com/akolanti/DriveRAG/internal/rag/embedding"
	"github.com/akolanti/DriveRAG/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/DriveRAG/internal/rag/embedding/openaiEmbedding"
	"github.com/akolanti/DriveRAG/internal/rag/ingest"
	"github.com/akolanti/DriveRAG/internal/rag/llm"
	"github.com/akolanti/DriveRAG/internal/rag/llm/gemini"
	"github.com/akolanti/DriveRAG/internal/rag/llm/openaiChat"
	"github.com/akolanti/DriveRAG/internal/rag/registry"
	"github.com/akolanti/DriveRAG/internal/rag/vectorDB/qdrantDB"
	"github.com/akolanti/DriveRAG/pkg/logger_i"
)

// Stdio MCP entry point: same service wiring as the HTTP server, minus the
// job queue - tool calls run synchronously.
func main() {
	logger_i.Init()
	logger := logger_i.NewLogger("mcp-main")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	vectorDB := qdrantDB.GetQuadrantClient(ctx)
	driveClient := drive.GetDriveClient(ctx)
	embeddingService, llmProvider := initModelProviders(ctx)

	if vectorDB == nil || driveClient == nil || embeddingService == nil || llmProvider == nil {
		logger.Error("One or more external services failed to initialize. Shutting down.")
		os.Exit(1)
	}

	scopeRegistry, err := registry.New(ctx, vectorDB)
	if err != nil {
		logger.Error("Could not load the scope registry from storage", "error", err)
		os.Exit(1)
	}

	converter := ingest.NewConverter(driveClient)
	builder := ingest.NewIndexBuilder(driveClient, converter, embeddingService, vectorDB, scopeRegistry)
	ragService := rag.NewService(vectorDB, llmProvider, embeddingService, scopeRegistry, builder)

	if err := mcpserver.NewServer(ragService).Run(ctx); err != nil {
		logger.Error("MCP server stopped", "error", err)
		os.Exit(1)
	}
}

func initModelProviders(ctx context.Context) (embedding.Embedder, llm.Provider) {
	if config.LLMProvider == "openai" {
		return openaiEmbedding.GetOpenAIEmbeddingClient(ctx, config.OpenAIEmbeddingModel, config.OpenAIAPIKey),
			openaiChat.GetOpenAIClient(ctx, config.OpenAIChatModel, config.OpenAIAPIKey)
	}
	return googleEmbedding.GetGoogleEmbeddingClient(ctx, config.GoogleEmbeddingModel, config.GoogleAPIKey),
		gemini.GetGeminiClient(ctx, config.GeminiModelName, config.GoogleAPIKey)
}
