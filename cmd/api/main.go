package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/akolanti/DriveRAG/internal/config"
	"github.com/akolanti/DriveRAG/internal/data/store"
	jobmodel "github.com/akolanti/DriveRAG/internal/domain/jobModel"
	"github.com/akolanti/DriveRAG/internal/drive"
	"github.com/akolanti/DriveRAG/internal/handlers"
	"github.com/akolanti/DriveRAG/internal/job"
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
	"github.com/akolanti/DriveRAG/internal/server"
	"github.com/akolanti/DriveRAG/internal/worker"
	"github.com/akolanti/DriveRAG/pkg/logger_i"
)

var (
	listenAddr        string
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {

	logger_i.Init()
	var logger = logger_i.NewLogger("main")

	//config
	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
	flag.Parse()

	//init buffered job channel
	jobChannel := make(chan jobmodel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	//init job service and job store
	serviceConfig := job.ServiceConfig{
		JobChannel:        jobChannel,
		RequestCount:      requestCount,
		DispatcherChannel: dispatcherChannel,
		JobStore:          store.GetRedisJobStore(serviceContext),
		MessageStore:      store.GetRedisMessageStore(serviceContext),
	}
	logger.Info("Starting job service")

	if serviceConfig.JobStore == nil || serviceConfig.MessageStore == nil {
		logger.Error("Redis stores are offline")
		serviceConfig.JobStore = store.InitInMemoryJobStore()
		serviceConfig.MessageStore = store.InitMessageStore()
	}
	service := job.InitJobService(serviceConfig)

	vectorDB := qdrantDB.GetQuadrantClient(serviceContext)
	driveClient := drive.GetDriveClient(serviceContext)
	embeddingService, llmProvider := initModelProviders(serviceContext)

	if vectorDB == nil || driveClient == nil || embeddingService == nil || llmProvider == nil {
		logger.Error("One or more external services failed to initialize. Shutting down.")
		logger.Debug("Available services : ", "VectorDB", vectorDB != nil, "Drive", driveClient != nil, "EmbeddingService", embeddingService != nil, "LLMProvider", llmProvider != nil)
		return
	}

	scopeRegistry, err := registry.New(serviceContext, vectorDB)
	if err != nil {
		logger.Error("Could not load the scope registry from storage", "error", err)
		return
	}

	converter := ingest.NewConverter(driveClient)
	builder := ingest.NewIndexBuilder(driveClient, converter, embeddingService, vectorDB, scopeRegistry)
	ragService := rag.NewService(vectorDB, llmProvider, embeddingService, scopeRegistry, builder)

	handlers.InitJobHandler(service, ragService)

	//init worker pool
	worker.InitServices(service, ragService)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr)

	<-stopExecution
	logger.Info("Server stopped")
}

// initModelProviders picks the embedding and chat backends. Gemini is the
// default, LLM_PROVIDER=openai switches both.
func initModelProviders(ctx context.Context) (embedding.Embedder, llm.Provider) {
	if config.LLMProvider == "openai" {
		return openaiEmbedding.GetOpenAIEmbeddingClient(ctx, config.OpenAIEmbeddingModel, config.OpenAIAPIKey),
			openaiChat.GetOpenAIClient(ctx, config.OpenAIChatModel, config.OpenAIAPIKey)
	}
	return googleEmbedding.GetGoogleEmbeddingClient(ctx, config.GoogleEmbeddingModel, config.GoogleAPIKey),
		gemini.GetGeminiClient(ctx, config.GeminiModelName, config.GoogleAPIKey)
}
