package openaiChat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/akolanti/DriveRAG/internal/config"
	"github.com/akolanti/DriveRAG/internal/customHttpClient"
	"github.com/akolanti/DriveRAG/internal/rag/llm"
	"github.com/akolanti/DriveRAG/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type llmClient struct {
	client    openai.Client
	modelName string
}

var logger *logger_i.Logger
var chatClient *llmClient
var once sync.Once

func GetOpenAIClient(ctx context.Context, modelName string, apikey string) llm.Provider {
	once.Do(func() {
		logger = logger_i.NewLogger("llm_openai")
		chatClient = &llmClient{
			client: openai.NewClient(
				option.WithAPIKey(apikey),
				option.WithHTTPClient(customHttpClient.GetPooledClient()),
			),
			modelName: modelName,
		}
		logger.Info("OpenAI chat client created", "model", modelName)
	})

	if chatClient == nil {
		return nil
	}
	return chatClient
}

func (c *llmClient) Generate(ctx context.Context, userQuery string, matches []string, messageHistory []string) (string, error) {
	loggr := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	contextText := "This is the context :"
	if len(messageHistory) > 0 {
		contextText = contextText + "\n This is Message History :" +
			" Question stands for the user question and the answer stands for the answer you gave, sources are the source for answer \n"
		contextText = contextText + strings.Join(messageHistory, "\n")
	}
	contextText = contextText + "\n" + strings.Join(matches, "\n")
	userPrompt := fmt.Sprintf("Context:\n%s\n\nUser Question: %s", contextText, userQuery)

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.modelName),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(config.ModelContext),
			openai.UserMessage(userPrompt),
		},
	})
	if err != nil {
		loggr.Error("Error generating answer from OpenAI", "error", err)
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
