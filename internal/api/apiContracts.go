package api

import (
	"time"

	"github.com/akolanti/DriveRAG/internal/domain/commonModels"
)

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id        string            `json:"id" example:"job_cz109"`
	ChatId    string            `json:"chat_id,omitempty" example:"chat_550"`
	Result    Result            `json:"result"`
	Error     *JobOutgoingError `json:"error,omitempty"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"Job not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type QueryResult struct {
	Question string                `json:"question"`
	Answer   string                `json:"answer"`
	Sources  []commonModels.Source `json:"sources"`
}

type IngestResult struct {
	FolderId       string                       `json:"folder_id"`
	CanonicalPath  string                       `json:"canonical_path"`
	ItemsProcessed int                          `json:"items_processed"`
	FailedFiles    []commonModels.FailureReason `json:"failed_files,omitempty"`
}

type Result struct {
	Status       string        `json:"status"`
	QueryOutput  *QueryResult  `json:"query_result,omitempty"`
	IngestOutput *IngestResult `json:"ingest_result,omitempty"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
}

// requests---------------------

type QueryRequest struct {
	Question string `json:"question" validate:"required"`
	FolderId string `json:"folder_id" validate:"required"`
	ChatID   string `json:"chatID,omitempty"`
}

type IngestFolderRequest struct {
	FolderId string `json:"folder_id" validate:"required"`
}

type JobStatusRequest struct {
	JobId string `json:"job_id" validate:"required"`
}

type StructureResponse struct {
	Root *commonModels.StructureNode `json:"structure"`
}

type DeleteIndexResponse struct {
	FolderId string `json:"folder_id"`
	Deleted  bool   `json:"deleted"`
}
