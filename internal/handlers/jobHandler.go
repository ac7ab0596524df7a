package handlers

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akolanti/DriveRAG/internal/api"
	"github.com/akolanti/DriveRAG/internal/config"
	"github.com/akolanti/DriveRAG/internal/domain/jobModel"
	"github.com/akolanti/DriveRAG/internal/job"
	"github.com/akolanti/DriveRAG/internal/metrics"
	"github.com/akolanti/DriveRAG/internal/rag"
	"github.com/akolanti/DriveRAG/pkg/logger_i"
)

var (
	handlerInstance *JobHandler //private singleton
	once            sync.Once
	logJH           *logger_i.Logger
)

type JobHandler struct {
	service    *job.Service
	ragService rag.Service
}

type newJobData struct {
	id        string
	chatId    string
	question  string
	folderId  string
	isNewChat bool
	traceId   string
	jobType   jobModel.JobType
}

// InitJobHandler wires both the async job path and the synchronous rag
// methods the structure and delete handlers call inline.
func InitJobHandler(jobService *job.Service, ragService rag.Service) {
	once.Do(func() {
		handlerInstance = &JobHandler{service: jobService, ragService: ragService}

		logJH = logger_i.NewLogger("JobHandler")
		logRH = logger_i.NewLogger("RequestHandler")
		logJH.Info("Starting job handler")
	})
}

func CreateNewJob(newJob newJobData) {
	logJH.With("traceId", newJob.traceId, "job id", newJob.id)
	logJH.Info("To create new job")
	handlerInstance.pushToJobChannel(newJob)
	if newJob.isNewChat {
		logJH.Info("Create new chat")
		handlerInstance.initNewChat(newJob.chatId, newJob.traceId)
	}
}

func GetJobStatus(id string, traceId string) (result jobModel.Job, isFound bool) {
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, traceId)
	if handlerInstance != nil {
		return handlerInstance.service.JobStore.GetJob(ctxC, id)
	}
	return result, false
}

func ValidateQueryRequest(queryReq api.QueryRequest) bool {
	if handlerInstance == nil {
		return false
	}
	logJH.Debug(" Validating query request ", "chatId :", queryReq.ChatID)
	if queryReq.Question == "" || queryReq.FolderId == "" {
		return false
	}
	if queryReq.ChatID == "" {
		return true
	}
	return handlerInstance.service.MessageStore.ValidateChatId(context.Background(), queryReq.ChatID)
}

// private methods
func (h *JobHandler) pushToJobChannel(newJob newJobData) {

	_job := jobModel.Job{}
	_job.Id = newJob.id
	_job.CreatedTime = time.Now()
	_job.TraceId = newJob.traceId
	_job.Status = jobModel.JobStatusQueued
	_job.JobType = newJob.jobType
	_job.JobPayload.FolderId = newJob.folderId

	if newJob.jobType == jobModel.JobTypeIngest {
		_job.CurrentStep = jobModel.IngestInit
	} else {
		_job.ChatId = newJob.chatId
		_job.JobPayload.Question = newJob.question
		_job.CurrentStep = jobModel.UserQueryInit
	}

	//metrics
	metrics.IncrementJobsInQueue()

	h.service.JobChannel <- _job //this is a blocking send to prevent the system from being overwhelmed
	logJH.Info("Created new job")

	//a new worker is started every N requests, and always for an ingestion
	//job - walking a folder tree involves long external calls and should not
	//queue behind quick queries
	accurateCount := atomic.AddInt64(&h.service.RequestCount, 1)
	if accurateCount%config.RequestsPerNewWorkerCount == 0 || _job.JobType == jobModel.JobTypeIngest {
		metrics.StartDispatcherSignalCount() //metrics
		logJH.Debug("Worker count ", accurateCount)
		h.service.DispatcherChannel <- true
	}
}

func (h *JobHandler) initNewChat(chatId string, traceId string) {
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, traceId)
	err := h.service.MessageStore.InitNewChat(ctxC, chatId)
	if err != nil {
		logJH.Error("Error initiating new chat", chatId, err)
		return
	}
}
