package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/akolanti/DriveRAG/internal/adapter/utils"
	"github.com/akolanti/DriveRAG/internal/config"
	"github.com/akolanti/DriveRAG/internal/domain/commonModels"
	"github.com/akolanti/DriveRAG/internal/rag/embedding"
	"github.com/akolanti/DriveRAG/internal/rag/vectorDB"
	"github.com/akolanti/DriveRAG/pkg/logger_i"
)

var logger = logger_i.NewLogger("Ingest")

//splitter

func splitTextIntoChunks(text string, limit int, overlap int) []string {
	var chunks []string

	// If text is already small enough, just return it
	if len(text) <= limit {
		return []string{text}
	}

	// Separators ordered from "best" to "worst" for semantic meaning
	separators := []string{"\n\n", "\n", ". ", " ", ""}

	var splitChar string
	found := false
	for _, s := range separators {
		if strings.Contains(text, s) {
			splitChar = s
			found = true
			break
		}
	}

	if !found {
		// Hard cut if no separator found (rare)
		return []string{text[:limit]}
	}

	parts := strings.Split(text, splitChar)
	var currentChunk strings.Builder

	for _, part := range parts {
		// If adding the part exceeds the limit
		if currentChunk.Len()+len(part)+len(splitChar) > limit {
			if currentChunk.Len() > 0 {
				chunks = append(chunks, currentChunk.String())
			}

			// Handle overlap: start the next chunk with the end of the previous one
			// (Simple version: take last N chars)
			overlapContent := ""
			if currentChunk.Len() > overlap {
				overlapContent = currentChunk.String()[currentChunk.Len()-overlap:]
			}

			currentChunk.Reset()
			currentChunk.WriteString(overlapContent)
		}

		if currentChunk.Len() > 0 && splitChar != "" {
			currentChunk.WriteString(splitChar)
		}
		currentChunk.WriteString(part)
	}

	if currentChunk.Len() > 0 {
		chunks = append(chunks, currentChunk.String())
	}

	return chunks
}

// metadataHeader renders the fields a reader would use to identify the file,
// capped so the header never crowds out the content in the embedding window.
func metadataHeader(meta commonModels.FileMetadata) string {
	flat := meta.Flatten()

	var b strings.Builder
	fmt.Fprintf(&b, "file: %s | type: %s", meta.FileName, meta.Category)
	for _, key := range []string{"mime_type", "created_time", "modified_time", "capture_time", "camera_make", "camera_model"} {
		if v, ok := flat[key]; ok && v != "" {
			fmt.Fprintf(&b, " | %s: %s", key, v)
		}
	}

	header := b.String()
	if len(header) > config.MetadataHeaderLimit {
		header = header[:config.MetadataHeaderLimit]
	}
	return header + "\n---\n"
}

func PrepareChunks(docs []commonModels.Document) []commonModels.Node {
	var allChunks []commonModels.Node

	// Limits for the splitter
	const maxChunkSize = 1000 // characters
	const overlap = 150       // generous overlap helps semantic continuity

	for _, doc := range docs {
		header := metadataHeader(doc.Metadata)
		stringChunks := splitTextIntoChunks(doc.Text, maxChunkSize, overlap)

		for i, text := range stringChunks {
			if strings.TrimSpace(text) == "" {
				continue
			}
			allChunks = append(allChunks, commonModels.Node{
				//deterministic per (file, unit, order): rebuilding the same
				//snapshot overwrites instead of duplicating
				ChunkId:  utils.ChunkUUID(doc.Metadata.FileId, doc.Unit, i),
				Text:     header + text,
				Unit:     doc.Unit,
				Order:    i,
				Metadata: doc.Metadata,
			})
		}
	}

	return allChunks
}

func BatchIngest(ctx context.Context, collection string, chunks []commonModels.Node, vectorDatabase vectorDB.DataProcessor, embedder embedding.Embedder) error {
	loggr := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	batchSize := 100
	isHugeDataSet := len(chunks) > 1000000 //only expected on enormous folder trees

	for i := 0; i < len(chunks); i += batchSize {
		end := i + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		currentBatch := chunks[i:end]

		texts := make([]string, len(currentBatch))
		for j, c := range currentBatch {
			texts[j] = c.Text
		}

		loggr.Debug("Starting embedding call", "current batch length", len(currentBatch))
		vectors, err := embedder.BatchEmbedding(ctx, texts, isHugeDataSet)
		if err != nil {
			return fmt.Errorf("embedding batch failed: %w", err)
		}

		err = vectorDatabase.UpsertBatch(ctx, collection, currentBatch, vectors)
		if err != nil {
			return fmt.Errorf("upserting to qdrant failed: %w", err)
		}
	}

	return nil
}
