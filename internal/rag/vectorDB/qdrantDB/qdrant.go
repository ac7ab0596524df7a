package qdrantDB

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/akolanti/DriveRAG/internal/config"
	"github.com/akolanti/DriveRAG/internal/domain/commonModels"
	"github.com/akolanti/DriveRAG/pkg/logger_i"
	"github.com/qdrant/go-client/qdrant"
)

var logger *logger_i.Logger
var quadrantInstance *qdrant.Client
var once sync.Once
var dimension = uint64(config.EmbeddingOutputDimensionality)

// registry points carry no meaningful vector, only payload
const registryDimension = uint64(1)

// one scroll page is capped by qdrant; a scope collection holding more nodes
// than this gets scanned via repeated calls following the server cursor
const scrollLimit = uint32(4096)

type ClientHolder struct {
	QObj *qdrant.Client
}

func GetQuadrantClient(ctx context.Context) *ClientHolder {

	once.Do(func() {
		logger = logger_i.NewLogger("Qdrant")
		res := newClient()
		if res != nil {
			quadrantInstance = res
			initCacheCollection(ctx, quadrantInstance)
			go closeQdrant(ctx, quadrantInstance)
		}
	})

	if quadrantInstance == nil {
		return nil
	}
	return &ClientHolder{
		QObj: quadrantInstance,
	}
}

func newClient() *qdrant.Client {

	host := os.Getenv("QDRANT_HOST")
	port, er := strconv.Atoi(os.Getenv("QDRANT_PORT"))

	if host == "" || er != nil {
		host = config.QdrantHost
		port = config.QdrantGrpcPort
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     host,
		Port:     port,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		logger.Error("could not instantiate: ", "error:", err)
		return nil
	}

	err = createCollection(context.Background(), client, config.RegistryCollection, registryDimension)
	if err != nil {
		logger.Error("could not create registry collection: ", "collectionName", config.RegistryCollection, "error:", err)
		return nil
	}

	return client
}

func closeQdrant(ctx context.Context, qi *qdrant.Client) {
	<-ctx.Done()
	logger.Info("Shutting down Qdrant")
	err := qi.Close()
	if err != nil {
		logger.Error("could not close Qdrant: ", "error:", err)
	}
	logger.Info("Closed Qdrant")
}

func (db *ClientHolder) EnsureCollection(ctx context.Context, collectionName string) error {
	return createCollection(ctx, db.QObj, collectionName, dimension)
}

func (db *ClientHolder) DeleteCollection(ctx context.Context, collectionName string) error {
	return db.QObj.DeleteCollection(ctx, collectionName)
}

func (db *ClientHolder) CollectionExists(ctx context.Context, collectionName string) (bool, error) {
	return db.QObj.CollectionExists(ctx, collectionName)
}

func (db *ClientHolder) Search(ctx context.Context, collectionName string, vectorFloat []float32, limit uint64) ([]commonModels.ScoredNode, error) {
	loggr := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))
	result, err := db.QObj.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collectionName,
		Query:          qdrant.NewQuery(vectorFloat...),
		Limit:          qdrant.PtrOf(limit),
		WithPayload:    qdrant.NewWithPayload(true),
	})

	if err != nil {
		loggr.Error("Error querying Qdrant: ", "error:", err)
		return nil, err
	}

	nodes := make([]commonModels.ScoredNode, 0, len(result))
	for _, hit := range result {
		nodes = append(nodes, commonModels.ScoredNode{
			Text:    hit.Payload["content"].GetStringValue(),
			Score:   hit.Score,
			Payload: payloadToStrings(hit.Payload),
		})
	}

	loggr.Debug("vector search done", "hits", len(nodes))
	return nodes, nil
}

func (db *ClientHolder) ScrollAll(ctx context.Context, collectionName string) ([]commonModels.ScoredNode, error) {
	points, err := scrollPages(ctx, db.rawScroll, &qdrant.ScrollPoints{
		CollectionName: collectionName,
		Limit:          qdrant.PtrOf(scrollLimit),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, err
	}

	nodes := make([]commonModels.ScoredNode, 0, len(points))
	for _, p := range points {
		nodes = append(nodes, commonModels.ScoredNode{
			Text:    p.Payload["content"].GetStringValue(),
			Score:   0,
			Payload: payloadToStrings(p.Payload),
		})
	}
	return nodes, nil
}

// scrollPages drains a collection page by page following the server's
// next_page_offset cursor. The convenience Scroll wrapper discards that
// cursor, and scroll offsets are inclusive, so resuming from the last-seen
// point id would re-read one point per page boundary.
func scrollPages(ctx context.Context, scroll func(context.Context, *qdrant.ScrollPoints) (*qdrant.ScrollResponse, error), req *qdrant.ScrollPoints) ([]*qdrant.RetrievedPoint, error) {
	var points []*qdrant.RetrievedPoint
	for {
		resp, err := scroll(ctx, req)
		if err != nil {
			return nil, err
		}
		points = append(points, resp.GetResult()...)

		next := resp.GetNextPageOffset()
		if next == nil {
			return points, nil
		}
		req.Offset = next
	}
}

func (db *ClientHolder) rawScroll(ctx context.Context, req *qdrant.ScrollPoints) (*qdrant.ScrollResponse, error) {
	return db.QObj.GetPointsClient().Scroll(ctx, req)
}

func (db *ClientHolder) UpsertBatch(ctx context.Context, collectionName string, chunks []commonModels.Node, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}

	qdrantPoints := make([]*qdrant.PointStruct, len(chunks))

	for i, chunk := range chunks {
		payload := map[string]any{
			"content":     chunk.Text,
			"unit":        strconv.Itoa(chunk.Unit),
			"chunk_order": strconv.Itoa(chunk.Order),
			"chunk_id":    chunk.ChunkId,
		}
		for k, v := range chunk.Metadata.Flatten() {
			payload[k] = v
		}

		qdrantPoints[i] = &qdrant.PointStruct{
			// chunk ids are deterministic per document identity, so a rebuild
			// of the same scope overwrites points instead of appending
			Id:      qdrant.NewID(chunk.ChunkId),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(payload),
		}
	}

	_, err := db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collectionName,
		Points:         qdrantPoints,
		Wait:           qdrant.PtrOf(true),
	})

	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}

	return nil
}

func createCollection(ctx context.Context, client *qdrant.Client, collectionName string, dim uint64) error {
	if collectionName == "" {
		return errors.New("empty collection name")
	}

	exists, err := client.CollectionExists(ctx, collectionName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dim,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	return err
}

func payloadToStrings(payload map[string]*qdrant.Value) map[string]string {
	out := make(map[string]string, len(payload))
	for k, v := range payload {
		out[k] = v.GetStringValue()
	}
	return out
}
