package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/akolanti/DriveRAG/internal/adapter/utils"
	"github.com/akolanti/DriveRAG/internal/config"
	"github.com/akolanti/DriveRAG/internal/domain/commonModels"
	"github.com/akolanti/DriveRAG/internal/drive"
	"github.com/akolanti/DriveRAG/internal/rag/embedding"
	"github.com/akolanti/DriveRAG/internal/rag/registry"
	"github.com/akolanti/DriveRAG/internal/rag/vectorDB"
)

// CollectionName maps a canonical folder path to its qdrant collection.
func CollectionName(canonicalPath string) string {
	return "scope-" + utils.ScopeUUID(canonicalPath)
}

// IndexBuilder walks a Drive folder tree and builds one searchable scope per
// folder. Every subfolder becomes its own scope with its own registry record,
// and the parent's summary folds in the subtree results.
type IndexBuilder struct {
	storage   drive.Storage
	converter Converter
	embedder  embedding.Embedder
	db        vectorDB.DataProcessor
	registry  *registry.Registry
}

func NewIndexBuilder(storage drive.Storage, converter Converter, embedder embedding.Embedder, db vectorDB.DataProcessor, reg *registry.Registry) *IndexBuilder {
	return &IndexBuilder{
		storage:   storage,
		converter: converter,
		embedder:  embedder,
		db:        db,
		registry:  reg,
	}
}

// Build indexes the folder subtree rooted at folderID. Per-file problems are
// collected as failures in the summary, only conditions that prevent the
// whole operation (unreachable Drive, storage errors) surface as an error.
func (b *IndexBuilder) Build(ctx context.Context, folderID string) (commonModels.IndexSummary, error) {
	canonicalPath, err := b.storage.CanonicalPath(ctx, folderID)
	if err != nil {
		return commonModels.IndexSummary{}, fmt.Errorf("could not resolve folder %s: %w", folderID, err)
	}

	return b.buildScope(ctx, folderID, canonicalPath)
}

func (b *IndexBuilder) buildScope(ctx context.Context, folderID string, canonicalPath string) (commonModels.IndexSummary, error) {
	loggr := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "canonicalPath", canonicalPath)

	lock := b.registry.Lock(canonicalPath)
	lock.Lock()
	defer lock.Unlock()

	summary := commonModels.IndexSummary{
		FolderId:      folderID,
		CanonicalPath: canonicalPath,
	}

	collection := CollectionName(canonicalPath)
	if err := b.db.EnsureCollection(ctx, collection); err != nil {
		return summary, fmt.Errorf("could not create collection: %w", err)
	}

	children, err := b.storage.ListChildren(ctx, folderID)
	if err != nil {
		return summary, fmt.Errorf("could not list folder: %w", err)
	}

	var files []commonModels.FileRecord
	var subfolders []commonModels.FileRecord
	for _, child := range children {
		if drive.IsFolder(child.MimeType) {
			subfolders = append(subfolders, child)
		} else {
			files = append(files, child)
		}
	}

	var docs []commonModels.Document
	for _, file := range files {
		fileDocs, err := b.converter.Convert(ctx, file)
		if err != nil {
			loggr.Warn("file conversion failed", "fileName", file.Name, "error", err)
			summary.Failures = append(summary.Failures, commonModels.FailureReason{
				FileName: file.Name,
				Message:  err.Error(),
			})
			continue
		}
		if len(fileDocs) == 0 {
			summary.Failures = append(summary.Failures, commonModels.FailureReason{
				FileName: file.Name,
				Message:  "no content extracted",
			})
			continue
		}
		docs = append(docs, fileDocs...)
		summary.ItemsProcessed++
	}

	chunks := PrepareChunks(docs)
	if len(chunks) > 0 {
		if err := BatchIngest(ctx, collection, chunks, b.db, b.embedder); err != nil {
			return summary, err
		}
	}

	//an empty folder still gets a record, querying it is valid and returns
	//no results instead of "not indexed"
	err = b.registry.Publish(ctx, commonModels.IndexRecord{
		FolderId:      folderID,
		CanonicalPath: canonicalPath,
		Collection:    collection,
		IndexedAt:     time.Now().UTC(),
	})
	if err != nil {
		return summary, err
	}

	loggr.Info("scope built", "files", summary.ItemsProcessed, "chunks", len(chunks), "subfolders", len(subfolders))

	for _, sub := range subfolders {
		subSummary, err := b.buildScope(ctx, sub.Id, canonicalPath+"/"+sub.Id)
		if err != nil {
			loggr.Warn("subfolder ingestion failed", "folderName", sub.Name, "error", err)
			summary.Failures = append(summary.Failures, commonModels.FailureReason{
				FileName: sub.Name,
				Message:  err.Error(),
			})
			continue
		}
		summary.Merge(subSummary)
	}

	return summary, nil
}
