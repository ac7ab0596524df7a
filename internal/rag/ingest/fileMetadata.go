package ingest

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/akolanti/DriveRAG/internal/domain/commonModels"
	"github.com/akolanti/DriveRAG/internal/drive"
)

// file type categories stored under the file_type_category payload key
const (
	CategoryImage    = "image"
	CategoryVideo    = "video"
	CategoryAudio    = "audio"
	CategoryText     = "text"
	CategoryDocument = "document"
	CategoryCode     = "code"
	CategoryOther    = "other"
)

var codeExtensions = map[string]bool{
	".go": true, ".py": true, ".js": true, ".ts": true, ".java": true,
	".c": true, ".cpp": true, ".h": true, ".rs": true, ".rb": true,
	".sh": true, ".sql": true, ".html": true, ".css": true, ".yaml": true,
	".yml": true, ".json": true, ".xml": true, ".toml": true,
}

// ExtractMetadata normalizes one Drive listing entry into the flat metadata
// shape that travels with every document and chunk of that file.
func ExtractMetadata(rec commonModels.FileRecord) commonModels.FileMetadata {
	ext := strings.ToLower(filepath.Ext(rec.Name))

	meta := commonModels.FileMetadata{
		FileName:      rec.Name,
		FileId:        rec.Id,
		MimeType:      rec.MimeType,
		CreatedTime:   rec.CreatedTime,
		ModifiedTime:  rec.ModifiedTime,
		Size:          rec.Size,
		WebViewLink:   rec.WebViewLink,
		FileExtension: ext,
		Category:      categorize(rec.MimeType, ext),
		Additional:    map[string]string{},
	}

	if rec.Image != nil {
		if rec.Image.CameraMake != "" {
			meta.Additional["camera_make"] = rec.Image.CameraMake
		}
		if rec.Image.CameraModel != "" {
			meta.Additional["camera_model"] = rec.Image.CameraModel
		}
		if rec.Image.CaptureTime != "" {
			meta.Additional["capture_time"] = normalizeCaptureTime(rec.Image.CaptureTime)
		}
		if rec.Image.Width > 0 {
			meta.Additional["width"] = strconv.FormatInt(rec.Image.Width, 10)
			meta.Additional["height"] = strconv.FormatInt(rec.Image.Height, 10)
		}
		if rec.Image.HasLocation {
			meta.Additional["latitude"] = strconv.FormatFloat(rec.Image.Latitude, 'f', -1, 64)
			meta.Additional["longitude"] = strconv.FormatFloat(rec.Image.Longitude, 'f', -1, 64)
		}
	}

	if rec.Video != nil {
		if rec.Video.Width > 0 {
			meta.Additional["width"] = strconv.FormatInt(rec.Video.Width, 10)
			meta.Additional["height"] = strconv.FormatInt(rec.Video.Height, 10)
		}
		if rec.Video.DurationMillis > 0 {
			meta.Additional["duration_millis"] = strconv.FormatInt(rec.Video.DurationMillis, 10)
		}
	}

	return meta
}

func categorize(mimeType string, ext string) string {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return CategoryImage
	case strings.HasPrefix(mimeType, "video/"):
		return CategoryVideo
	case strings.HasPrefix(mimeType, "audio/"):
		return CategoryAudio
	}

	switch mimeType {
	case drive.MimeTypeGoogleDoc, drive.MimeTypeGoogleSheet, drive.MimeTypeGoogleSlides,
		"application/pdf",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.oasis.opendocument.text",
		"application/rtf",
		"text/csv":
		return CategoryDocument
	}

	if codeExtensions[ext] {
		return CategoryCode
	}

	if strings.HasPrefix(mimeType, "text/") || ext == ".md" || ext == ".txt" {
		return CategoryText
	}

	return CategoryOther
}

// Drive reports capture times in EXIF form ("2018:05:08 14:55:10"). Stored
// as RFC3339 so time filters can compare them like any other timestamp.
func normalizeCaptureTime(raw string) string {
	if t, err := time.Parse("2006:01:02 15:04:05", raw); err == nil {
		return t.UTC().Format(time.RFC3339)
	}
	return raw
}

// addTextStats records word and line counts for files whose content we have.
func addTextStats(meta *commonModels.FileMetadata, text string) {
	meta.Additional["word_count"] = strconv.Itoa(len(strings.Fields(text)))
	meta.Additional["line_count"] = strconv.Itoa(strings.Count(text, "\n") + 1)
}
