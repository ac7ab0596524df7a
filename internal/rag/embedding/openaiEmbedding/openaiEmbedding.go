package openaiEmbedding

import (
	"context"
	"sync"

	"github.com/akolanti/DriveRAG/internal/customHttpClient"
	"github.com/akolanti/DriveRAG/internal/rag/embedding"
	"github.com/akolanti/DriveRAG/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var logger *logger_i.Logger
var once sync.Once
var embeddingClient *client

type client struct {
	openAi openai.Client
	model  string
}

// GetOpenAIEmbeddingClient is the alternate embedding provider, selected with
// LLM_PROVIDER=openai. Same interface as the Google one, no batch job path,
// the plain endpoint takes the whole input slice.
func GetOpenAIEmbeddingClient(ctx context.Context, modelName string, apikey string) embedding.Embedder {
	once.Do(func() {
		logger = logger_i.NewLogger("openai_embedding")
		embeddingClient = &client{
			openAi: openai.NewClient(
				option.WithAPIKey(apikey),
				option.WithHTTPClient(customHttpClient.GetPooledClient()),
			),
			model: modelName,
		}
		logger.Info("OpenAI embedding client created", "model", modelName)
	})

	if embeddingClient == nil {
		return nil
	}
	return embeddingClient
}

func (c *client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	vectors, err := c.embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *client) BatchEmbedding(ctx context.Context, chunks []string, isLargeDataSet bool) ([][]float32, error) {
	return c.embed(ctx, chunks)
}

func (c *client) embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := c.openAi.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(c.model),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
	})
	if err != nil {
		logger.Error("Error getting Embeddings from OpenAI", "error", err)
		return nil, err
	}

	vectors := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		vectors[d.Index] = vec
	}
	return vectors, nil
}
