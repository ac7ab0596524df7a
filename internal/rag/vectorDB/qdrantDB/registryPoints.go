package qdrantDB

import (
	"context"
	"time"

	"github.com/akolanti/DriveRAG/internal/adapter/utils"
	"github.com/akolanti/DriveRAG/internal/config"
	"github.com/akolanti/DriveRAG/internal/domain/commonModels"
	"github.com/qdrant/go-client/qdrant"
)

// Scope records live in their own collection so the folder registry can be
// rebuilt from storage after a restart. Point ids derive from the canonical
// path, so publishing a scope twice overwrites one point.

func (db *ClientHolder) SaveIndexRecord(ctx context.Context, record commonModels.IndexRecord) error {
	loggr := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	_, err := db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: config.RegistryCollection,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewID(utils.ScopeUUID(record.CanonicalPath)),
				Vectors: qdrant.NewVectors(0),
				Payload: qdrant.NewValueMap(map[string]any{
					"folder_id":      record.FolderId,
					"canonical_path": record.CanonicalPath,
					"collection":     record.Collection,
					"indexed_at":     record.IndexedAt.Format(time.RFC3339),
				}),
			},
		},
		Wait: qdrant.PtrOf(true),
	})
	if err != nil {
		loggr.Error("Saving index record failed", "canonicalPath", record.CanonicalPath, "error", err)
	}
	return err
}

func (db *ClientHolder) LoadIndexRecords(ctx context.Context) ([]commonModels.IndexRecord, error) {
	points, err := scrollPages(ctx, db.rawScroll, &qdrant.ScrollPoints{
		CollectionName: config.RegistryCollection,
		Limit:          qdrant.PtrOf(scrollLimit),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, err
	}

	records := make([]commonModels.IndexRecord, 0, len(points))
	for _, p := range points {
		records = append(records, recordFromPayload(p.Payload))
	}
	return records, nil
}

func (db *ClientHolder) DeleteIndexRecord(ctx context.Context, canonicalPath string) error {
	_, err := db.QObj.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: config.RegistryCollection,
		Points: qdrant.NewPointsSelector(
			qdrant.NewID(utils.ScopeUUID(canonicalPath)),
		),
		Wait: qdrant.PtrOf(true),
	})
	return err
}

func recordFromPayload(payload map[string]*qdrant.Value) commonModels.IndexRecord {
	indexedAt, _ := time.Parse(time.RFC3339, payload["indexed_at"].GetStringValue())
	return commonModels.IndexRecord{
		FolderId:      payload["folder_id"].GetStringValue(),
		CanonicalPath: payload["canonical_path"].GetStringValue(),
		Collection:    payload["collection"].GetStringValue(),
		IndexedAt:     indexedAt,
	}
}
