package rag

import (
	"context"
	"time"

	"github.com/akolanti/DriveRAG/internal/adapter/utils"
	"github.com/akolanti/DriveRAG/internal/config"
	"github.com/akolanti/DriveRAG/internal/domain/commonModels"
	"github.com/akolanti/DriveRAG/internal/domain/jobModel"
	"github.com/akolanti/DriveRAG/internal/metrics"
	"github.com/akolanti/DriveRAG/internal/rag/embedding"
	"github.com/akolanti/DriveRAG/internal/rag/ingest"
	"github.com/akolanti/DriveRAG/internal/rag/llm"
	"github.com/akolanti/DriveRAG/internal/rag/queryplan"
	"github.com/akolanti/DriveRAG/internal/rag/registry"
	"github.com/akolanti/DriveRAG/internal/rag/retrieve"
	"github.com/akolanti/DriveRAG/internal/rag/vectorDB"
	"github.com/akolanti/DriveRAG/pkg/logger_i"
)

// Service is the one boundary workers and the MCP server call. Job methods
// wrap the synchronous ones with job state bookkeeping; Structure and
// DeleteIndex are cheap enough to run inline on the request path.
type Service interface {
	ProcessRequest(ctx context.Context, job jobModel.Job, messageHistory []string) jobModel.Job
	IngestFolder(ctx context.Context, job jobModel.Job) jobModel.Job

	Query(ctx context.Context, question string, folderRef string) (string, []commonModels.Source, error)
	Ingest(ctx context.Context, folderID string) (commonModels.IndexSummary, error)
	Structure(ctx context.Context, folderRef string) (*commonModels.StructureNode, error)
	DeleteIndex(ctx context.Context, folderRef string) (commonModels.IndexRecord, error)
}

type service struct {
	vectorDB    vectorDB.DataProcessor
	llmProvider llm.Provider
	embedder    embedding.Embedder
	registry    *registry.Registry
	retriever   *retrieve.Retriever
	builder     *ingest.IndexBuilder
	logger      *logger_i.Logger
}

func NewService(vector vectorDB.DataProcessor, llmProvider llm.Provider, em embedding.Embedder, reg *registry.Registry, builder *ingest.IndexBuilder) Service {
	return &service{
		vectorDB:    vector,
		llmProvider: llmProvider,
		embedder:    em,
		registry:    reg,
		retriever:   retrieve.New(vector, em),
		builder:     builder,
		logger:      logger_i.NewLogger("RAG Service :"),
	}
}

// Query answers one question against one indexed folder scope.
func (s *service) Query(ctx context.Context, question string, folderRef string) (string, []commonModels.Source, error) {
	return s.answer(ctx, question, folderRef, nil)
}

func (s *service) answer(ctx context.Context, question string, folderRef string, messageHistory []string) (string, []commonModels.Source, error) {
	loggr := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	scope, err := s.registry.Resolve(ctx, folderRef)
	if err != nil {
		return "", nil, err
	}

	plan := queryplan.Build(question, time.Now())
	if len(plan.Dropped) > 0 {
		loggr.Warn("dropped unrecognized filters", "dropped", plan.Dropped)
	}

	//metadata-only questions are answered deterministically, no LLM and no
	//cache: relative dates make yesterday's answer wrong today
	if plan.MetadataOnly {
		nodes, err := s.retriever.Retrieve(ctx, scope.Collection, plan)
		if err != nil {
			return "", nil, err
		}
		return listingAnswer(nodes), toSources(nodes), nil
	}

	//a follow-up turn depends on the conversation so far, the cache only
	//serves and stores history-free questions
	var cacheVector []float32
	if len(messageHistory) == 0 {
		vector, found, cachedAnswer := s.checkCache(ctx, scope.CanonicalPath, question)
		if found {
			return cachedAnswer, nil, nil
		}
		cacheVector = vector
	}

	nodes, err := s.retriever.Retrieve(ctx, scope.Collection, plan)
	if err != nil {
		return "", nil, err
	}
	if len(nodes) == 0 {
		return config.NoResultsMessage, nil, nil
	}

	matches := make([]string, len(nodes))
	for i, node := range nodes {
		matches[i] = node.Text
	}

	start := time.Now()
	answer, err := s.llmProvider.Generate(ctx, question, matches, messageHistory)
	metrics.CaptureExecutionMetrics("llm_generation", time.Since(start))
	if err != nil {
		return "", nil, err
	}

	if cacheVector != nil {
		go func() {
			if err := s.vectorDB.SaveToCache(context.WithoutCancel(ctx), utils.GetNewUUID(), cacheVector, answer); err != nil {
				s.logger.Error("Failed to save to cache", "error", err)
			}
		}()
	}

	return answer, toSources(nodes), nil
}

// checkCache keys the semantic cache on scope plus question, an answer from
// one folder must never leak into another.
func (s *service) checkCache(ctx context.Context, canonicalPath string, question string) ([]float32, bool, string) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("cache_lookup", time.Since(start)) }()

	vector, err := s.embedder.GetEmbedding(ctx, canonicalPath+"\n"+question)
	if err != nil {
		s.logger.Error("cache embedding failed", "error", err)
		return nil, false, ""
	}
	answer, found, _ := s.vectorDB.GetCachedAnswer(ctx, vector)
	return vector, found, answer
}

func (s *service) Ingest(ctx context.Context, folderID string) (commonModels.IndexSummary, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("folder_ingestion", time.Since(start)) }()
	return s.builder.Build(ctx, folderID)
}

func (s *service) Structure(ctx context.Context, folderRef string) (*commonModels.StructureNode, error) {
	return s.registry.Structure(ctx, folderRef, config.StructureMaxDepth)
}

func (s *service) DeleteIndex(ctx context.Context, folderRef string) (commonModels.IndexRecord, error) {
	return s.registry.Delete(ctx, folderRef)
}

func (s *service) ProcessRequest(ctx context.Context, jobt jobModel.Job, messageHistory []string) jobModel.Job {
	inMethodLogger := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "JobId", jobt.Id)

	processContext, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	jobt.CurrentStep = jobModel.RAGCall
	inMethodLogger.Debug("ProcessRequest", "folderRef", jobt.JobPayload.FolderId)

	answer, sources, err := s.answer(processContext, jobt.JobPayload.Question, jobt.JobPayload.FolderId, messageHistory)
	if err != nil {
		return s.jobError(jobt, err, "QUERY_FAILURE")
	}

	jobt.JobPayload.Sources = sources
	return returnOutput(jobt, answer)
}

func (s *service) IngestFolder(ctx context.Context, jobt jobModel.Job) jobModel.Job {
	inMethodLogger := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "JobId", jobt.Id)

	jobt.CurrentStep = jobModel.IngestProcessing
	summary, err := s.Ingest(ctx, jobt.JobPayload.FolderId)
	if err != nil {
		return s.jobError(jobt, err, "INGESTION_FAILURE")
	}

	inMethodLogger.Info("folder ingested", "items", summary.ItemsProcessed, "failures", len(summary.Failures))
	jobt.JobPayload.IngestSummary = &summary
	jobt.CurrentStep = jobModel.Complete
	jobt.Status = jobModel.JobStatusComplete
	return jobt
}
