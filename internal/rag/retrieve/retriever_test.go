package retrieve

import (
	"context"
	"testing"

	"github.com/akolanti/DriveRAG/internal/domain/commonModels"
	"github.com/akolanti/DriveRAG/internal/rag/queryplan"
)

type mockVectorDB struct {
	searchFunc func(ctx context.Context, collection string, vector []float32, limit uint64) ([]commonModels.ScoredNode, error)
	scrollFunc func(ctx context.Context, collection string) ([]commonModels.ScoredNode, error)
}

func (m *mockVectorDB) Search(ctx context.Context, collection string, vector []float32, limit uint64) ([]commonModels.ScoredNode, error) {
	return m.searchFunc(ctx, collection, vector, limit)
}
func (m *mockVectorDB) ScrollAll(ctx context.Context, collection string) ([]commonModels.ScoredNode, error) {
	return m.scrollFunc(ctx, collection)
}
func (m *mockVectorDB) EnsureCollection(ctx context.Context, collection string) error { return nil }
func (m *mockVectorDB) DeleteCollection(ctx context.Context, collection string) error { return nil }
func (m *mockVectorDB) CollectionExists(ctx context.Context, collection string) (bool, error) {
	return true, nil
}
func (m *mockVectorDB) UpsertBatch(ctx context.Context, collection string, chunks []commonModels.Node, vectors [][]float32) error {
	return nil
}
func (m *mockVectorDB) SaveIndexRecord(ctx context.Context, record commonModels.IndexRecord) error {
	return nil
}
func (m *mockVectorDB) LoadIndexRecords(ctx context.Context) ([]commonModels.IndexRecord, error) {
	return nil, nil
}
func (m *mockVectorDB) DeleteIndexRecord(ctx context.Context, canonicalPath string) error {
	return nil
}
func (m *mockVectorDB) GetCachedAnswer(ctx context.Context, queryVector []float32) (string, bool, error) {
	return "", false, nil
}
func (m *mockVectorDB) SaveToCache(ctx context.Context, id string, vector []float32, answer string) error {
	return nil
}

type mockEmbedder struct{}

func (m *mockEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	return []float32{0.1}, nil
}
func (m *mockEmbedder) BatchEmbedding(ctx context.Context, chunks []string, isHuge bool) ([][]float32, error) {
	return make([][]float32, len(chunks)), nil
}

func scoredNodes(scores ...float32) []commonModels.ScoredNode {
	nodes := make([]commonModels.ScoredNode, len(scores))
	for i, s := range scores {
		nodes[i] = commonModels.ScoredNode{Text: "chunk", Score: s, Payload: map[string]string{}}
	}
	return nodes
}

func TestRetrieve_DynamicThresholdCutsWeakTail(t *testing.T) {
	db := &mockVectorDB{
		searchFunc: func(ctx context.Context, collection string, vector []float32, limit uint64) ([]commonModels.ScoredNode, error) {
			return scoredNodes(0.9, 0.85, 0.5, 0.3), nil
		},
	}
	r := New(db, &mockEmbedder{})

	nodes, err := r.Retrieve(context.Background(), "scope-x", queryplan.Plan{Cleaned: "question"})
	if err != nil {
		t.Fatal(err)
	}

	//cutoff = 0.7 * avg(0.9, 0.85) = 0.6125, only the two strong hits pass
	if len(nodes) != 2 {
		t.Fatalf("expected 2 relevant nodes, got %d", len(nodes))
	}
	if nodes[0].Score != 0.9 || nodes[1].Score != 0.85 {
		t.Errorf("wrong survivors: %v %v", nodes[0].Score, nodes[1].Score)
	}
}

func TestRetrieve_FloorKeepsUniformlyWeakResults(t *testing.T) {
	db := &mockVectorDB{
		searchFunc: func(ctx context.Context, collection string, vector []float32, limit uint64) ([]commonModels.ScoredNode, error) {
			return scoredNodes(0.4, 0.38), nil
		},
	}
	r := New(db, &mockEmbedder{})

	nodes, err := r.Retrieve(context.Background(), "scope-x", queryplan.Plan{Cleaned: "question"})
	if err != nil {
		t.Fatal(err)
	}

	//0.7 * avg(0.4, 0.38) = 0.273 is below the 0.3 floor, the floor wins
	//and both results clear it
	if len(nodes) != 2 {
		t.Fatalf("expected both weak nodes kept, got %d", len(nodes))
	}
}

func TestRetrieve_MetadataOnlySkipsVectorSearch(t *testing.T) {
	searched := false
	db := &mockVectorDB{
		searchFunc: func(ctx context.Context, collection string, vector []float32, limit uint64) ([]commonModels.ScoredNode, error) {
			searched = true
			return nil, nil
		},
		scrollFunc: func(ctx context.Context, collection string) ([]commonModels.ScoredNode, error) {
			return []commonModels.ScoredNode{
				{Payload: map[string]string{"file_type_category": "image", "file_id": "a"}},
				{Payload: map[string]string{"file_type_category": "document", "file_id": "b"}},
			}, nil
		},
	}
	r := New(db, &mockEmbedder{})

	plan := queryplan.Plan{
		MetadataOnly: true,
		Filters:      []queryplan.Filter{{Key: "file_type_category", Op: queryplan.OpEq, Value: "image"}},
	}
	nodes, err := r.Retrieve(context.Background(), "scope-x", plan)
	if err != nil {
		t.Fatal(err)
	}

	if searched {
		t.Error("metadata-only plan must not hit the vector index")
	}
	if len(nodes) != 1 || nodes[0].Payload["file_id"] != "a" {
		t.Errorf("expected only the image node, got %+v", nodes)
	}
}

func TestRetrieve_EmptyResidualQuerySkipsEmbedding(t *testing.T) {
	//a question like "before 2025-13-40" loses its only content as a
	//dropped fragment: no filters, nothing left to embed
	db := &mockVectorDB{
		searchFunc: func(ctx context.Context, collection string, vector []float32, limit uint64) ([]commonModels.ScoredNode, error) {
			t.Error("empty residual query must not hit the vector index")
			return nil, nil
		},
	}
	r := New(db, &mockEmbedder{})

	plan := queryplan.Plan{Cleaned: "", Dropped: []string{"before 2025-13-40"}}
	nodes, err := r.Retrieve(context.Background(), "scope-x", plan)
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 0 {
		t.Errorf("expected no results, got %d", len(nodes))
	}
}

func TestApplyFilters_Comparisons(t *testing.T) {
	nodes := []commonModels.ScoredNode{
		{Payload: map[string]string{"size": "2048", "modified_time": "2025-06-01T10:00:00Z", "file_name": "Q2 Report.pdf"}},
		{Payload: map[string]string{"size": "100", "modified_time": "2024-01-01T00:00:00Z", "file_name": "old-notes.txt"}},
	}

	tests := []struct {
		name   string
		filter queryplan.Filter
		want   int
	}{
		{"numeric greater", queryplan.Filter{Key: "size", Op: queryplan.OpGt, Value: "1000"}, 1},
		{"numeric lte", queryplan.Filter{Key: "size", Op: queryplan.OpLte, Value: "100"}, 1},
		{"time after", queryplan.Filter{Key: "modified_time", Op: queryplan.OpGte, Value: "2025-01-01T00:00:00Z"}, 1},
		{"time before date-only value", queryplan.Filter{Key: "modified_time", Op: queryplan.OpLt, Value: "2024-06-01"}, 1},
		{"contains is case insensitive", queryplan.Filter{Key: "file_name", Op: queryplan.OpContains, Value: "report"}, 1},
		{"equality", queryplan.Filter{Key: "file_name", Op: queryplan.OpEq, Value: "old-notes.txt"}, 1},
		{"missing key matches nothing", queryplan.Filter{Key: "camera_make", Op: queryplan.OpEq, Value: "Canon"}, 0},
		{"non numeric ordered comparison fails quietly", queryplan.Filter{Key: "file_name", Op: queryplan.OpGt, Value: "100"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyFilters(nodes, []queryplan.Filter{tt.filter})
			if len(got) != tt.want {
				t.Errorf("matched %d nodes, want %d", len(got), tt.want)
			}
		})
	}
}
