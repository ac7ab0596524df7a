package rag_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/akolanti/DriveRAG/internal/config"
	"github.com/akolanti/DriveRAG/internal/domain/commonModels"
	"github.com/akolanti/DriveRAG/internal/domain/jobModel"
	"github.com/akolanti/DriveRAG/internal/rag"
	"github.com/akolanti/DriveRAG/internal/rag/ingest"
	"github.com/akolanti/DriveRAG/internal/rag/registry"
)

// newTestService wires a real registry and builder over the mocks. The
// registry warms with one indexed scope, /folder-1, unless the test installed
// its own OnLoadIndexRecords.
func newTestService(t *testing.T, mVec *MockVectorDB, mEmbed *MockEmbedder, mLLM *MockLLM, storage *MockStorage, converter *MockConverter) rag.Service {
	t.Helper()

	if mVec.OnLoadIndexRecords == nil {
		mVec.OnLoadIndexRecords = func(ctx context.Context) ([]commonModels.IndexRecord, error) {
			return []commonModels.IndexRecord{{
				FolderId:      "folder-1",
				CanonicalPath: "/folder-1",
				Collection:    "scope-folder-1",
				IndexedAt:     time.Now(),
			}}, nil
		}
	}

	reg, err := registry.New(context.Background(), mVec)
	if err != nil {
		t.Fatal(err)
	}
	builder := ingest.NewIndexBuilder(storage, converter, mEmbed, mVec, reg)
	return rag.NewService(mVec, mLLM, mEmbed, reg, builder)
}

func queryJob(folderID string) jobModel.Job {
	return jobModel.Job{
		Id:      "test-job",
		JobType: jobModel.JobTypeQuery,
		JobPayload: jobModel.JobPayload{
			Question: "what are the project deadlines",
			FolderId: folderID,
		},
	}
}

func TestProcessRequest_Scenarios(t *testing.T) {
	tests := []struct {
		name           string
		folderRef      string
		setupMocks     func(e *MockEmbedder, v *MockVectorDB, l *MockLLM)
		expectedStatus jobModel.JobStatus
		expectedAnswer string
		expectedCode   int
		expectedRetry  bool
	}{
		{
			name:      "Success_Full_Flow",
			folderRef: "folder-1",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				l.OnGenerate = func(ctx context.Context, q string, m []string, h []string) (string, error) {
					return "final answer", nil
				}
			},
			expectedStatus: jobModel.JobStatusComplete,
			expectedAnswer: "final answer",
		},
		{
			name:      "Success_Cache_Hit",
			folderRef: "folder-1",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				v.OnGetCachedAnswer = func(ctx context.Context, emb []float32) (string, bool, error) {
					return "cached answer", true, nil
				}
				l.OnGenerate = func(ctx context.Context, q string, m []string, h []string) (string, error) {
					return "", errors.New("cache hit must not reach the llm")
				}
			},
			expectedStatus: jobModel.JobStatusComplete,
			expectedAnswer: "cached answer",
		},
		{
			name:           "Failure_Folder_Not_Indexed",
			folderRef:      "never-ingested",
			setupMocks:     func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {},
			expectedStatus: jobModel.JobStatusError,
			expectedCode:   http.StatusNotFound,
			expectedRetry:  false,
		},
		{
			name:      "Failure_Vector_Search",
			folderRef: "folder-1",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				v.OnSearch = func(ctx context.Context, coll string, vec []float32, limit uint64) ([]commonModels.ScoredNode, error) {
					return nil, errors.New("db timeout")
				}
			},
			expectedStatus: jobModel.JobStatusError,
			expectedCode:   http.StatusInternalServerError,
			expectedRetry:  true,
		},
		{
			name:      "Failure_LLM_Generation",
			folderRef: "folder-1",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				l.OnGenerate = func(ctx context.Context, q string, m []string, h []string) (string, error) {
					return "", errors.New("provider down")
				}
			},
			expectedStatus: jobModel.JobStatusError,
			expectedCode:   http.StatusInternalServerError,
			expectedRetry:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mEmbed := &MockEmbedder{}
			mVec := &MockVectorDB{}
			mLLM := &MockLLM{}

			tt.setupMocks(mEmbed, mVec, mLLM)

			s := newTestService(t, mVec, mEmbed, mLLM, &MockStorage{}, &MockConverter{})

			ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
			result := s.ProcessRequest(ctx, queryJob(tt.folderRef), []string{})

			if result.Status != tt.expectedStatus {
				t.Errorf("Status got %v, want %v", result.Status, tt.expectedStatus)
			}
			if tt.expectedAnswer != "" && result.JobPayload.Answer != tt.expectedAnswer {
				t.Errorf("Answer got %s, want %s", result.JobPayload.Answer, tt.expectedAnswer)
			}
			if tt.expectedCode != 0 {
				if result.Error.Code != tt.expectedCode {
					t.Errorf("Error Code got %d, want %d", result.Error.Code, tt.expectedCode)
				}
				if result.Error.Retry != tt.expectedRetry {
					t.Errorf("Retry got %v, want %v", result.Error.Retry, tt.expectedRetry)
				}
			}
		})
	}
}

func TestProcessRequest_HistoryReachesLLM(t *testing.T) {
	history := []string{"Question: what did we discuss? Answer: the Q3 budget"}

	var seenHistory []string
	cacheChecked := false
	mVec := &MockVectorDB{
		OnGetCachedAnswer: func(ctx context.Context, emb []float32) (string, bool, error) {
			cacheChecked = true
			return "stale cached answer", true, nil
		},
	}
	mLLM := &MockLLM{
		OnGenerate: func(ctx context.Context, q string, m []string, h []string) (string, error) {
			seenHistory = h
			return "fresh answer", nil
		},
	}

	s := newTestService(t, mVec, &MockEmbedder{}, mLLM, &MockStorage{}, &MockConverter{})

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "history-trace")
	result := s.ProcessRequest(ctx, queryJob("folder-1"), history)

	if len(seenHistory) != 1 || seenHistory[0] != history[0] {
		t.Errorf("message history never reached the llm: %v", seenHistory)
	}
	//a follow-up turn must not be served from (or saved to) the cache
	if cacheChecked {
		t.Error("history-bearing turn consulted the semantic cache")
	}
	if result.JobPayload.Answer != "fresh answer" {
		t.Errorf("answer got %q, want the freshly generated one", result.JobPayload.Answer)
	}
}

func TestQuery_NoResultsSkipsLLM(t *testing.T) {
	llmCalled := false
	mVec := &MockVectorDB{
		OnSearch: func(ctx context.Context, coll string, vec []float32, limit uint64) ([]commonModels.ScoredNode, error) {
			return nil, nil
		},
	}
	mLLM := &MockLLM{
		OnGenerate: func(ctx context.Context, q string, m []string, h []string) (string, error) {
			llmCalled = true
			return "should not happen", nil
		},
	}

	s := newTestService(t, mVec, &MockEmbedder{}, mLLM, &MockStorage{}, &MockConverter{})

	answer, sources, err := s.Query(context.Background(), "anything relevant?", "folder-1")
	if err != nil {
		t.Fatal(err)
	}
	if answer != config.NoResultsMessage {
		t.Errorf("answer got %q, want the no-results message", answer)
	}
	if llmCalled {
		t.Error("empty retrieval must not invoke the llm")
	}
	if len(sources) != 0 {
		t.Errorf("expected no sources, got %d", len(sources))
	}
}

func TestQuery_MetadataOnlyListing(t *testing.T) {
	searched, generated := false, false
	mVec := &MockVectorDB{
		OnSearch: func(ctx context.Context, coll string, vec []float32, limit uint64) ([]commonModels.ScoredNode, error) {
			searched = true
			return nil, nil
		},
		OnScrollAll: func(ctx context.Context, coll string) ([]commonModels.ScoredNode, error) {
			return []commonModels.ScoredNode{
				{Payload: map[string]string{
					"file_id": "img-1", "file_name": "beach.jpg",
					"file_type_category": "image", "modified_time": time.Now().Add(-24 * time.Hour).UTC().Format(time.RFC3339),
				}},
				{Payload: map[string]string{
					"file_id": "doc-1", "file_name": "notes.pdf",
					"file_type_category": "document", "modified_time": time.Now().Add(-24 * time.Hour).UTC().Format(time.RFC3339),
				}},
			}, nil
		},
	}
	mLLM := &MockLLM{
		OnGenerate: func(ctx context.Context, q string, m []string, h []string) (string, error) {
			generated = true
			return "", nil
		},
	}

	s := newTestService(t, mVec, &MockEmbedder{}, mLLM, &MockStorage{}, &MockConverter{})

	answer, sources, err := s.Query(context.Background(), "photos from last week", "folder-1")
	if err != nil {
		t.Fatal(err)
	}

	if searched || generated {
		t.Errorf("metadata-only query must use neither vector search nor llm, searched=%v generated=%v", searched, generated)
	}
	if !strings.Contains(answer, "Found 1 matching file(s)") || !strings.Contains(answer, "beach.jpg") {
		t.Errorf("listing answer wrong: %q", answer)
	}
	if len(sources) != 1 {
		t.Errorf("expected the matching file as source, got %d", len(sources))
	}
}

func TestIngestFolder_Scenarios(t *testing.T) {
	textFile := commonModels.FileRecord{
		Id: "f1", Name: "notes.txt", MimeType: "text/plain",
		ModifiedTime: time.Now(),
	}

	tests := []struct {
		name           string
		storage        *MockStorage
		converter      *MockConverter
		expectedStatus jobModel.JobStatus
		expectedItems  int
	}{
		{
			name: "Ingestion_Success",
			storage: &MockStorage{
				OnListChildren: func(ctx context.Context, folderID string) ([]commonModels.FileRecord, error) {
					return []commonModels.FileRecord{textFile}, nil
				},
			},
			converter: &MockConverter{
				OnConvert: func(ctx context.Context, rec commonModels.FileRecord) ([]commonModels.Document, error) {
					return []commonModels.Document{{Text: "note body", Unit: 1, Metadata: ingest.ExtractMetadata(rec)}}, nil
				},
			},
			expectedStatus: jobModel.JobStatusComplete,
			expectedItems:  1,
		},
		{
			name: "Failure_Path_Resolution",
			storage: &MockStorage{
				OnCanonicalPath: func(ctx context.Context, folderID string) (string, error) {
					return "", errors.New("drive unreachable")
				},
			},
			converter:      &MockConverter{},
			expectedStatus: jobModel.JobStatusError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService(t, &MockVectorDB{}, &MockEmbedder{}, &MockLLM{}, tt.storage, tt.converter)

			ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "ingest-trace")
			job := jobModel.Job{
				Id:      "ingest-job-1",
				JobType: jobModel.JobTypeIngest,
				JobPayload: jobModel.JobPayload{
					FolderId: "folder-2",
				},
			}

			result := s.IngestFolder(ctx, job)

			if result.Status != tt.expectedStatus {
				t.Errorf("Status got %v, want %v", result.Status, tt.expectedStatus)
			}
			if tt.expectedStatus == jobModel.JobStatusComplete {
				if result.JobPayload.IngestSummary == nil {
					t.Fatal("summary missing on successful ingestion")
				}
				if result.JobPayload.IngestSummary.ItemsProcessed != tt.expectedItems {
					t.Errorf("items got %d, want %d", result.JobPayload.IngestSummary.ItemsProcessed, tt.expectedItems)
				}
			}
			if tt.expectedStatus == jobModel.JobStatusError && result.Error.Code != http.StatusInternalServerError {
				t.Errorf("Error Code got %d, want 500", result.Error.Code)
			}
		})
	}
}
