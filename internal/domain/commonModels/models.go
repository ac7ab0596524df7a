package commonModels

import (
	"fmt"
	"strconv"
	"time"
)

// FileRecord is an immutable snapshot of one remote Drive file at listing time.
type FileRecord struct {
	Id           string    `json:"file_id"`
	Name         string    `json:"file_name"`
	MimeType     string    `json:"mime_type"`
	CreatedTime  time.Time `json:"created_time"`
	ModifiedTime time.Time `json:"modified_time"`
	Size         int64     `json:"size"`
	WebViewLink  string    `json:"web_view_link"`
	Image        *ImageMeta
	Video        *VideoMeta
}

// ImageMeta carries the camera info Drive reports for image files.
type ImageMeta struct {
	CameraMake  string
	CameraModel string
	CaptureTime string
	Width       int64
	Height      int64
	Latitude    float64
	Longitude   float64
	HasLocation bool
}

type VideoMeta struct {
	Width          int64
	Height         int64
	DurationMillis int64
}

// FileMetadata is the normalized, flattened metadata attached to every
// Document and Node. Fixed core plus an Additional extension map for
// type-dependent fields (camera info, counts, codecs and so on).
type FileMetadata struct {
	FileName      string    `json:"file_name"`
	FileId        string    `json:"file_id"`
	MimeType      string    `json:"mime_type"`
	CreatedTime   time.Time `json:"created_time"`
	ModifiedTime  time.Time `json:"modified_time"`
	Size          int64     `json:"size"`
	WebViewLink   string    `json:"web_view_link"`
	FileExtension string    `json:"file_extension"`
	Category      string    `json:"file_type_category"`
	Error         string    `json:"error,omitempty"`
	Additional    map[string]string
}

// Flatten renders the metadata as a flat string map, the shape stored in the
// vector index payload and matched by structured filters.
func (m FileMetadata) Flatten() map[string]string {
	out := map[string]string{
		"file_name":          m.FileName,
		"file_id":            m.FileId,
		"mime_type":          m.MimeType,
		"file_extension":     m.FileExtension,
		"file_type_category": m.Category,
		"web_view_link":      m.WebViewLink,
		"size":               strconv.FormatInt(m.Size, 10),
	}
	if !m.CreatedTime.IsZero() {
		out["created_time"] = m.CreatedTime.UTC().Format(time.RFC3339)
	}
	if !m.ModifiedTime.IsZero() {
		out["modified_time"] = m.ModifiedTime.UTC().Format(time.RFC3339)
	}
	if m.Error != "" {
		out["error"] = m.Error
	}
	for k, v := range m.Additional {
		out[k] = v
	}
	return out
}

// Document is one logical content unit derived from a file: a page, a slide,
// a sheet, a plain body, or an error placeholder. A single FileRecord may
// yield zero or more Documents.
type Document struct {
	Text     string
	Unit     int // page/slide/sheet number within the file, 1-based
	Metadata FileMetadata
}

// Node is a bounded-length slice of a Document plus its metadata, the unit
// that is embedded and stored.
type Node struct {
	ChunkId  string `json:"chunk_id"`
	Text     string `json:"content"`
	Unit     int    `json:"unit"`
	Order    int    `json:"chunk_order"`
	Metadata FileMetadata
}

// ScoredNode is a retrieval hit: node text, similarity score and the flat
// payload the node was stored with.
type ScoredNode struct {
	Text    string
	Score   float32
	Payload map[string]string
}

// Source is one cited source in a synthesized answer.
type Source struct {
	Excerpt     string  `json:"text"`
	FileName    string  `json:"file_name"`
	MimeType    string  `json:"mime_type"`
	Score       float32 `json:"score"`
	WebViewLink string  `json:"web_view_link"`
}

// IndexRecord is the durable registry entry for one indexed folder scope.
type IndexRecord struct {
	FolderId      string    `json:"folder_id"`
	CanonicalPath string    `json:"canonical_path"`
	Collection    string    `json:"collection"`
	IndexedAt     time.Time `json:"indexed_at"`
}

// FailureReason names one file that could not be ingested and why.
type FailureReason struct {
	FileName string `json:"file_name"`
	Message  string `json:"message"`
}

func (f FailureReason) String() string {
	return fmt.Sprintf("%s (%s)", f.FileName, f.Message)
}

// IndexSummary is the flat result of ingesting a folder subtree. Items counts
// only leaf files actually converted; subfolder entries and failures are
// excluded from the tally.
type IndexSummary struct {
	FolderId       string          `json:"folder_id"`
	CanonicalPath  string          `json:"canonical_path"`
	ItemsProcessed int             `json:"items_processed"`
	Failures       []FailureReason `json:"failed_files,omitempty"`
}

// Merge folds a subfolder summary into this one: counts sum, failures concat.
func (s *IndexSummary) Merge(sub IndexSummary) {
	s.ItemsProcessed += sub.ItemsProcessed
	s.Failures = append(s.Failures, sub.Failures...)
}

// StructureNode is one entry in the index structure preview tree.
type StructureNode struct {
	FolderId      string           `json:"folder_id"`
	CanonicalPath string           `json:"canonical_path"`
	IndexedAt     time.Time        `json:"indexed_at"`
	Children      []*StructureNode `json:"children,omitempty"`
}
