package rag

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/akolanti/DriveRAG/internal/domain/commonModels"
	"github.com/akolanti/DriveRAG/internal/domain/jobModel"
	"github.com/akolanti/DriveRAG/internal/rag/registry"
)

const maxExcerptLen = 200

func returnOutput(job jobModel.Job, ans string) jobModel.Job {
	job.JobPayload.Answer = ans
	job.CurrentStep = jobModel.Complete
	job.Status = jobModel.JobStatusComplete
	return job
}

func (s *service) jobError(job jobModel.Job, err error, message string) jobModel.Job {
	s.logger.Error(message, "error", err)

	//an unindexed folder is a user-facing condition, not a server fault
	if errors.Is(err, registry.ErrScopeNotFound) {
		job.Error = jobModel.JobError{
			Code:    http.StatusNotFound,
			Message: "No index found for this folder. Ingest it first.",
			Retry:   false,
		}
	} else {
		job.Error = jobModel.JobError{
			Code:    http.StatusInternalServerError,
			Message: "Internal Server Error",
			Retry:   true,
		}
	}
	job.Status = jobModel.JobStatusError
	return job
}

func toSources(nodes []commonModels.ScoredNode) []commonModels.Source {
	sources := make([]commonModels.Source, 0, len(nodes))
	for _, node := range nodes {
		sources = append(sources, commonModels.Source{
			Excerpt:     excerpt(node.Text),
			FileName:    node.Payload["file_name"],
			MimeType:    node.Payload["mime_type"],
			Score:       node.Score,
			WebViewLink: node.Payload["web_view_link"],
		})
	}
	return sources
}

// excerpt strips the metadata header a chunk was embedded with and caps the
// remainder at a citation-friendly length.
func excerpt(text string) string {
	if idx := strings.Index(text, "\n---\n"); idx >= 0 {
		text = text[idx+len("\n---\n"):]
	}
	if len(text) > maxExcerptLen {
		text = text[:maxExcerptLen] + "..."
	}
	return text
}

// listingAnswer renders a metadata-only result set as a file listing, one
// line per distinct file.
func listingAnswer(nodes []commonModels.ScoredNode) string {
	if len(nodes) == 0 {
		return "No files in the indexed folder match these criteria."
	}

	seen := map[string]bool{}
	var lines []string
	for _, node := range nodes {
		fileID := node.Payload["file_id"]
		if seen[fileID] {
			continue
		}
		seen[fileID] = true

		line := fmt.Sprintf("- %s (%s", node.Payload["file_name"], node.Payload["file_type_category"])
		if modified := node.Payload["modified_time"]; modified != "" {
			line += ", modified " + modified
		}
		line += ")"
		lines = append(lines, line)
	}

	return fmt.Sprintf("Found %d matching file(s):\n%s", len(lines), strings.Join(lines, "\n"))
}
