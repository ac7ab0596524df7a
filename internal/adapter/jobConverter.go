package adapter

import (
	"fmt"
	"time"

	"github.com/akolanti/DriveRAG/internal/api"
	"github.com/akolanti/DriveRAG/internal/domain/jobModel"
)

func ToInitJobResponse(id string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		StatusURL: fmt.Sprintf("status/%s", id),
	}
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {

	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	result := api.Result{
		Status:       string(job.Status),
		QueryOutput:  toQueryResult(job.JobPayload),
		IngestOutput: toIngestResult(job.JobPayload),
	}

	return api.JobResponse{
		Id:        job.Id,
		ChatId:    job.ChatId,
		StartTime: job.CreatedTime,
		EndTime:   job.EndTime,
		Error:     errorPtr,
		Result:    result,
	}
}

func toQueryResult(payload jobModel.JobPayload) *api.QueryResult {
	if payload.Answer == "" && len(payload.Sources) == 0 {
		return nil
	}

	return &api.QueryResult{
		Question: payload.Question,
		Answer:   payload.Answer,
		Sources:  payload.Sources,
	}
}

func toIngestResult(payload jobModel.JobPayload) *api.IngestResult {
	if payload.IngestSummary == nil {
		return nil
	}
	return &api.IngestResult{
		FolderId:       payload.IngestSummary.FolderId,
		CanonicalPath:  payload.IngestSummary.CanonicalPath,
		ItemsProcessed: payload.IngestSummary.ItemsProcessed,
		FailedFiles:    payload.IngestSummary.Failures,
	}
}

func BadRequest(id string, error string, code int) api.JobResponse {
	return api.JobResponse{
		Id:        id,
		ChatId:    "",
		StartTime: time.Time{},
		EndTime:   time.Time{},
		Result: api.Result{
			Status: string(api.JobStatusError),
		},
		Error: &api.JobOutgoingError{
			Code:    code,
			Message: error,
			Retry:   false,
		},
	}
}
