package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/akolanti/DriveRAG/internal/domain/commonModels"
	"github.com/akolanti/DriveRAG/internal/drive"
	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"
)

type rawPage struct {
	Number  int    `json:"number"`
	Content string `json:"content"`
}

// Converter turns one remote file into zero or more content documents.
// A returned error means the file itself could not be fetched or decoded,
// the caller records it as a per-file failure and moves on. An unsupported
// type is not an error: it yields a single placeholder document with the
// error metadata field set.
type Converter interface {
	Convert(ctx context.Context, rec commonModels.FileRecord) ([]commonModels.Document, error)
}

type driveConverter struct {
	storage drive.Storage
}

func NewConverter(storage drive.Storage) Converter {
	return &driveConverter{storage: storage}
}

func (c *driveConverter) Convert(ctx context.Context, rec commonModels.FileRecord) ([]commonModels.Document, error) {
	meta := ExtractMetadata(rec)

	//media files carry no extractable text, a descriptive placeholder keeps
	//them findable through both search paths
	switch meta.Category {
	case CategoryImage, CategoryVideo, CategoryAudio:
		return []commonModels.Document{{
			Text:     describeMedia(meta),
			Unit:     1,
			Metadata: meta,
		}}, nil
	}

	if exportMime := drive.ExportTarget(rec.MimeType); exportMime != "" {
		content, err := c.storage.Export(ctx, rec.Id, exportMime)
		if err != nil {
			return nil, fmt.Errorf("export failed: %w", err)
		}
		return documentsFromText(string(content), meta), nil
	}

	switch {
	case rec.MimeType == "application/pdf" || meta.FileExtension == ".pdf":
		return c.convertPDF(ctx, rec, meta)

	case meta.FileExtension == ".docx" || meta.FileExtension == ".odt" || meta.FileExtension == ".rtf":
		return c.convertWithCat(ctx, rec, meta)

	case meta.Category == CategoryText || meta.Category == CategoryCode || meta.FileExtension == ".csv":
		content, err := c.storage.Download(ctx, rec.Id)
		if err != nil {
			return nil, fmt.Errorf("download failed: %w", err)
		}
		return documentsFromText(string(content), meta), nil

	default:
		//unsupported types never error out of the converter - they become an
		//error placeholder document so the file stays visible in search results
		meta.Error = "unsupported file type: " + rec.MimeType
		return []commonModels.Document{{
			Text:     fmt.Sprintf("%s could not be converted: unsupported file type %s.", meta.FileName, rec.MimeType),
			Unit:     1,
			Metadata: meta,
		}}, nil
	}
}

func (c *driveConverter) convertPDF(ctx context.Context, rec commonModels.FileRecord, meta commonModels.FileMetadata) ([]commonModels.Document, error) {
	path, err := c.downloadToTemp(ctx, rec, ".pdf")
	if err != nil {
		return nil, err
	}
	defer os.Remove(path)

	pages, err := extractPDF(path)
	if err != nil {
		return nil, err
	}

	var combined strings.Builder
	var docs []commonModels.Document
	for _, page := range pages {
		if strings.TrimSpace(page.Content) == "" {
			continue
		}
		combined.WriteString(page.Content)
		docs = append(docs, commonModels.Document{
			Text:     page.Content,
			Unit:     page.Number,
			Metadata: meta,
		})
	}
	if len(docs) == 0 {
		return nil, nil
	}

	addTextStats(&meta, combined.String())
	for i := range docs {
		docs[i].Metadata = meta
	}
	return docs, nil
}

// convertWithCat reads .docx, .odt and .rtf bodies. Page boundaries are not
// recoverable from these formats, the whole body becomes one unit.
func (c *driveConverter) convertWithCat(ctx context.Context, rec commonModels.FileRecord, meta commonModels.FileMetadata) ([]commonModels.Document, error) {
	path, err := c.downloadToTemp(ctx, rec, meta.FileExtension)
	if err != nil {
		return nil, err
	}
	defer os.Remove(path)

	text, err := cat.File(path)
	if err != nil {
		return nil, fmt.Errorf("failed to extract document body: %w", err)
	}
	return documentsFromText(text, meta), nil
}

func (c *driveConverter) downloadToTemp(ctx context.Context, rec commonModels.FileRecord, ext string) (string, error) {
	content, err := c.storage.Download(ctx, rec.Id)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}

	f, err := os.CreateTemp("", "ingest-*"+ext)
	if err != nil {
		return "", err
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func documentsFromText(text string, meta commonModels.FileMetadata) []commonModels.Document {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	addTextStats(&meta, text)
	return []commonModels.Document{{
		Text:     text,
		Unit:     1,
		Metadata: meta,
	}}
}

func describeMedia(meta commonModels.FileMetadata) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s file %s.", meta.Category, meta.FileName)

	if v, ok := meta.Additional["capture_time"]; ok {
		fmt.Fprintf(&b, " Captured %s.", v)
	}
	if cameraMake, ok := meta.Additional["camera_make"]; ok {
		fmt.Fprintf(&b, " Taken with %s %s.", cameraMake, meta.Additional["camera_model"])
	}
	if w, ok := meta.Additional["width"]; ok {
		fmt.Fprintf(&b, " Dimensions %sx%s.", w, meta.Additional["height"])
	}
	if d, ok := meta.Additional["duration_millis"]; ok {
		fmt.Fprintf(&b, " Duration %sms.", d)
	}
	if _, ok := meta.Additional["latitude"]; ok {
		fmt.Fprintf(&b, " Location %s, %s.", meta.Additional["latitude"], meta.Additional["longitude"])
	}
	return b.String()
}

func extractPDF(path string) ([]rawPage, error) {
	logger.Debug("extractPDF", "attempting extraction", path)
	f, err := pdf.Open(path)
	if err != nil {
		logger.Error("failed opening of pdf file")
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	var pages []rawPage
	numPages := f.NumPage()
	logger.Debug("extractPDF", "number of pages", numPages)
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := protectExtract(page)
		if err != nil {
			// Log warning but continue with other pages
			logger.Error("Error parsing page content", "Error", err)
			continue
		}

		pages = append(pages, rawPage{
			Number:  i,
			Content: content,
		})
	}
	return pages, nil
}

func protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(time.Second * 10):
		logger.Error("pageExtract", "timeout")
		return "", errors.New("timeout")
	}
}
