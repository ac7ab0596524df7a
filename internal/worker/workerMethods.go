package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/akolanti/DriveRAG/internal/config"
	jobmodel "github.com/akolanti/DriveRAG/internal/domain/jobModel"
	"github.com/akolanti/DriveRAG/internal/metrics"
	"github.com/akolanti/DriveRAG/pkg/logger_i"
)

func executeJob(job jobmodel.Job) {
	start := time.Now()
	defer func() {
		// Record total time at the end
		metrics.CaptureJobMetrics(string(job.Status), time.Since(start))
	}()
	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)

	//folder ingestion walks a whole tree with external calls per file, it
	//gets a far larger budget than a single query
	timeout := 60 * time.Second
	if job.JobType == jobmodel.JobTypeIngest {
		timeout = 30 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctxTrace, timeout)
	defer cancel()
	logger.With("trace Id ", job.TraceId)
	logger.Debug("Processing job:", "job Id:", job.Id)

	saveJobState(ctx, job, jobmodel.JobStatusRunning)

	if job.JobType == jobmodel.JobTypeIngest {
		job.CurrentStep = jobmodel.IngestProcessing
		job = _ragService.IngestFolder(ctx, job)

	} else {
		job = processQuery(job, ctx, logger)
		if job.Status != jobmodel.JobStatusError && job.ChatId != "" {
			if err := _jobService.MessageStore.TrySaveChat(ctx, job.ChatId, job.JobPayload); err != nil {
				logger.Error("Failed to save chat history", "err", err)
			}
		}
	}

	job.EndTime = time.Now()
	saveJobState(ctx, job, job.Status)
}

func removeWorker(reason string) {

	workerWaitGroup.Done()
	atomic.AddInt64(&currentWorkerCount, -1)
	logger.Info("Removed worker ", "reason", reason, "workerCount", currentWorkerCount)
	metrics.DecrementActiveWorkerCount()

}

func processQuery(job jobmodel.Job, ctx context.Context, logger *logger_i.Logger) jobmodel.Job {
	err, messageHistory := _jobService.MessageStore.GetMessageHistory(ctx, job.ChatId)
	if err != nil {
		logger.Error("Failed to get message history", "err", err)
	}
	job = _ragService.ProcessRequest(ctx, job, messageHistory)
	return job
}

func saveJobState(ctx context.Context, job jobmodel.Job, jobStatus jobmodel.JobStatus) {
	job.Status = jobStatus
	if err := _jobService.JobStore.SaveJob(ctx, job); err != nil {
		logger.Error("Failed to update job status", "err", err)
	}
}
