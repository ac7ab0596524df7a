package vectorDB

import (
	"context"

	"github.com/akolanti/DriveRAG/internal/domain/commonModels"
)

type DataProcessor interface {
	//per-scope collections
	EnsureCollection(ctx context.Context, collectionName string) error
	DeleteCollection(ctx context.Context, collectionName string) error
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	UpsertBatch(ctx context.Context, collectionName string, chunks []commonModels.Node, vectors [][]float32) error
	Search(ctx context.Context, collectionName string, vector []float32, limit uint64) ([]commonModels.ScoredNode, error)
	//ScrollAll returns every node in a scope - used by metadata-only queries
	ScrollAll(ctx context.Context, collectionName string) ([]commonModels.ScoredNode, error)

	//scope registry persistence - the folder registry is rebuilt from these
	//records on startup, never from an in-memory cache alone
	SaveIndexRecord(ctx context.Context, record commonModels.IndexRecord) error
	LoadIndexRecords(ctx context.Context) ([]commonModels.IndexRecord, error)
	DeleteIndexRecord(ctx context.Context, canonicalPath string) error

	//semantic answer cache
	GetCachedAnswer(ctx context.Context, queryVector []float32) (string, bool, error)
	SaveToCache(ctx context.Context, id string, vector []float32, answer string) error
}
