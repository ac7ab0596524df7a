package retrieve

import (
	"context"
	"strings"

	"github.com/akolanti/DriveRAG/internal/config"
	"github.com/akolanti/DriveRAG/internal/domain/commonModels"
	"github.com/akolanti/DriveRAG/internal/rag/embedding"
	"github.com/akolanti/DriveRAG/internal/rag/queryplan"
	"github.com/akolanti/DriveRAG/internal/rag/vectorDB"
	"github.com/akolanti/DriveRAG/pkg/logger_i"
)

// Retriever answers a query plan against one scope collection. Semantic plans
// go through vector search plus relevance gating, metadata-only plans scan
// the scope and filter without ever touching the embedder.
type Retriever struct {
	db       vectorDB.DataProcessor
	embedder embedding.Embedder
	logger   *logger_i.Logger
}

func New(db vectorDB.DataProcessor, embedder embedding.Embedder) *Retriever {
	return &Retriever{
		db:       db,
		embedder: embedder,
		logger:   logger_i.NewLogger("Retriever"),
	}
}

func (r *Retriever) Retrieve(ctx context.Context, collection string, plan queryplan.Plan) ([]commonModels.ScoredNode, error) {
	loggr := r.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	if plan.MetadataOnly {
		nodes, err := r.db.ScrollAll(ctx, collection)
		if err != nil {
			return nil, err
		}
		matched := ApplyFilters(nodes, plan.Filters)
		loggr.Debug("metadata-only retrieval", "scanned", len(nodes), "matched", len(matched))
		return matched, nil
	}

	//extraction can consume (or drop) the whole question; with no filters
	//either, there is nothing left to search for
	if strings.TrimSpace(plan.Cleaned) == "" {
		loggr.Debug("empty residual query, skipping vector search")
		return nil, nil
	}

	vector, err := r.embedder.GetEmbedding(ctx, plan.Cleaned)
	if err != nil {
		return nil, err
	}

	hits, err := r.db.Search(ctx, collection, vector, config.RetrievalTopK)
	if err != nil {
		return nil, err
	}

	threshold := dynamicThreshold(hits)
	var relevant []commonModels.ScoredNode
	for _, hit := range hits {
		if hit.Score >= threshold {
			relevant = append(relevant, hit)
		}
	}
	loggr.Debug("semantic retrieval", "hits", len(hits), "threshold", threshold, "relevant", len(relevant))

	return ApplyFilters(relevant, plan.Filters), nil
}

// dynamicThreshold adapts the relevance cutoff to the result quality: strong
// top hits raise the bar and push out marginal ones, uniformly weak results
// fall back to the static floor so borderline answers still come through.
//
// cutoff = max(floor, ratio * mean(top two scores))
func dynamicThreshold(hits []commonModels.ScoredNode) float32 {
	if len(hits) == 0 {
		return config.RelevanceStaticFloor
	}

	top := hits[0].Score
	if len(hits) > 1 {
		top = (hits[0].Score + hits[1].Score) / 2
	}

	dynamic := config.DynamicThresholdRatio * top
	if dynamic < config.RelevanceStaticFloor {
		return config.RelevanceStaticFloor
	}
	return dynamic
}
