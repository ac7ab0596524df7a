package rag_test

import (
	"context"

	"github.com/akolanti/DriveRAG/internal/domain/commonModels"
)

// MockVectorDB implements vectorDB.DataProcessor
type MockVectorDB struct {
	// Control fields to simulate different behaviors
	OnSearch            func(ctx context.Context, collection string, vector []float32, limit uint64) ([]commonModels.ScoredNode, error)
	OnScrollAll         func(ctx context.Context, collection string) ([]commonModels.ScoredNode, error)
	OnGetCachedAnswer   func(ctx context.Context, queryVector []float32) (string, bool, error)
	OnSaveToCache       func(ctx context.Context, id string, vector []float32, answer string) error
	OnEnsureCollection  func(ctx context.Context, collection string) error
	OnUpsertBatch       func(ctx context.Context, collection string, chunks []commonModels.Node, vectors [][]float32) error
	OnLoadIndexRecords  func(ctx context.Context) ([]commonModels.IndexRecord, error)
	OnCollectionExists  func(ctx context.Context, collection string) (bool, error)
	OnSaveIndexRecord   func(ctx context.Context, record commonModels.IndexRecord) error
	OnDeleteCollection  func(ctx context.Context, collection string) error
	OnDeleteIndexRecord func(ctx context.Context, canonicalPath string) error
}

func (m *MockVectorDB) Search(ctx context.Context, collection string, vector []float32, limit uint64) ([]commonModels.ScoredNode, error) {
	if m.OnSearch != nil {
		return m.OnSearch(ctx, collection, vector, limit)
	}
	return []commonModels.ScoredNode{{Text: "default context", Score: 0.9, Payload: map[string]string{}}}, nil
}

func (m *MockVectorDB) ScrollAll(ctx context.Context, collection string) ([]commonModels.ScoredNode, error) {
	if m.OnScrollAll != nil {
		return m.OnScrollAll(ctx, collection)
	}
	return nil, nil
}

func (m *MockVectorDB) GetCachedAnswer(ctx context.Context, v []float32) (string, bool, error) {
	if m.OnGetCachedAnswer != nil {
		return m.OnGetCachedAnswer(ctx, v)
	}
	return "", false, nil
}

func (m *MockVectorDB) SaveToCache(ctx context.Context, id string, v []float32, a string) error {
	if m.OnSaveToCache != nil {
		return m.OnSaveToCache(ctx, id, v, a)
	}
	return nil
}

func (m *MockVectorDB) EnsureCollection(ctx context.Context, collection string) error {
	if m.OnEnsureCollection != nil {
		return m.OnEnsureCollection(ctx, collection)
	}
	return nil
}

func (m *MockVectorDB) DeleteCollection(ctx context.Context, collection string) error {
	if m.OnDeleteCollection != nil {
		return m.OnDeleteCollection(ctx, collection)
	}
	return nil
}

func (m *MockVectorDB) CollectionExists(ctx context.Context, collection string) (bool, error) {
	if m.OnCollectionExists != nil {
		return m.OnCollectionExists(ctx, collection)
	}
	return true, nil
}

func (m *MockVectorDB) UpsertBatch(ctx context.Context, collection string, chunks []commonModels.Node, vectors [][]float32) error {
	if m.OnUpsertBatch != nil {
		return m.OnUpsertBatch(ctx, collection, chunks, vectors)
	}
	return nil
}

func (m *MockVectorDB) SaveIndexRecord(ctx context.Context, record commonModels.IndexRecord) error {
	if m.OnSaveIndexRecord != nil {
		return m.OnSaveIndexRecord(ctx, record)
	}
	return nil
}

func (m *MockVectorDB) LoadIndexRecords(ctx context.Context) ([]commonModels.IndexRecord, error) {
	if m.OnLoadIndexRecords != nil {
		return m.OnLoadIndexRecords(ctx)
	}
	return nil, nil
}

func (m *MockVectorDB) DeleteIndexRecord(ctx context.Context, canonicalPath string) error {
	if m.OnDeleteIndexRecord != nil {
		return m.OnDeleteIndexRecord(ctx, canonicalPath)
	}
	return nil
}

type MockEmbedder struct {
	OnGetEmbedding   func(ctx context.Context, text string) ([]float32, error)
	OnBatchEmbedding func(ctx context.Context, chunks []string, isHuge bool) ([][]float32, error)
}

func (m *MockEmbedder) BatchEmbedding(ctx context.Context, chunks []string, isHuge bool) ([][]float32, error) {
	if m.OnBatchEmbedding != nil {
		return m.OnBatchEmbedding(ctx, chunks, isHuge)
	}
	// Return dummy vectors matching chunk size
	return make([][]float32, len(chunks)), nil
}

func (m *MockEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	if m.OnGetEmbedding != nil {
		return m.OnGetEmbedding(ctx, query)
	}
	return []float32{0.1}, nil
}

// MockLLM implements llm.Provider
type MockLLM struct {
	OnGenerate func(ctx context.Context, query string, matches []string, history []string) (string, error)
}

func (m *MockLLM) Generate(ctx context.Context, q string, mth []string, hist []string) (string, error) {
	if m.OnGenerate != nil {
		return m.OnGenerate(ctx, q, mth, hist)
	}
	return "mocked llm response", nil
}

// MockStorage implements drive.Storage
type MockStorage struct {
	OnListChildren  func(ctx context.Context, folderID string) ([]commonModels.FileRecord, error)
	OnCanonicalPath func(ctx context.Context, folderID string) (string, error)
}

func (m *MockStorage) ListChildren(ctx context.Context, folderID string) ([]commonModels.FileRecord, error) {
	if m.OnListChildren != nil {
		return m.OnListChildren(ctx, folderID)
	}
	return nil, nil
}

func (m *MockStorage) Download(ctx context.Context, fileID string) ([]byte, error) {
	return []byte("file body"), nil
}

func (m *MockStorage) Export(ctx context.Context, fileID string, targetMime string) ([]byte, error) {
	return []byte("exported body"), nil
}

func (m *MockStorage) CanonicalPath(ctx context.Context, folderID string) (string, error) {
	if m.OnCanonicalPath != nil {
		return m.OnCanonicalPath(ctx, folderID)
	}
	return "/" + folderID, nil
}

// MockConverter implements ingest.Converter
type MockConverter struct {
	OnConvert func(ctx context.Context, rec commonModels.FileRecord) ([]commonModels.Document, error)
}

func (m *MockConverter) Convert(ctx context.Context, rec commonModels.FileRecord) ([]commonModels.Document, error) {
	if m.OnConvert != nil {
		return m.OnConvert(ctx, rec)
	}
	return nil, nil
}
