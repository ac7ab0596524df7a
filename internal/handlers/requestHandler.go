package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/akolanti/DriveRAG/internal/adapter"
	"github.com/akolanti/DriveRAG/internal/adapter/utils"
	"github.com/akolanti/DriveRAG/internal/api"
	"github.com/akolanti/DriveRAG/internal/config"
	"github.com/akolanti/DriveRAG/internal/domain/jobModel"
	"github.com/akolanti/DriveRAG/internal/rag/registry"
	"github.com/akolanti/DriveRAG/pkg/logger_i"
)

var logRH *logger_i.Logger

func GetHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// QueryHandler godoc
// @Summary      Ask a question about an indexed folder
// @Description  Accepts a question and a folder reference, queues a background query job, and returns a job ID to track status.
// @Tags         Query
// @Accept       json
// @Produce      json
// @Param        request  body      api.QueryRequest     true  "Question, folder ID and optional chat ID"
// @Success      202      {object}  api.InitJobResponse  "Job successfully created"
// @Failure      400      {object}  api.JobResponse      "Invalid request data or chat ID"
// @Router       /query [post]
func QueryHandler(w http.ResponseWriter, request *http.Request) {
	if !validateContext(request.Context()) {
		logRH.Warn("Invalid Context by request ", request.RemoteAddr)
		return
	}

	var requestData api.QueryRequest
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logRH.Error("Couldn't close the query handler reader :", err)
		}
	}(request.Body)

	if err := json.NewDecoder(request.Body).Decode(&requestData); err != nil || !ValidateQueryRequest(requestData) {
		logRH.Warn("Bad Query Request: ", "error:", err, "request data:", requestData)
		WriteErrorResponse(w, http.StatusBadRequest, requestData.ChatID, "Bad Request")
		return
	}

	chatID := requestData.ChatID
	isNewChat := false
	if chatID == "" {
		chatID = utils.GetNewUUID()
		isNewChat = true
		logRH.Debug(" New Chat request : ", "chatID:", chatID)
	}

	newJob := newJobData{
		id:        utils.GetNewUUID(),
		chatId:    chatID,
		question:  requestData.Question,
		folderId:  requestData.FolderId,
		isNewChat: isNewChat,
		traceId:   request.Context().Value(config.TRACE_ID_KEY).(string),
		jobType:   jobModel.JobTypeQuery,
	}
	CreateNewJob(newJob)
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.id))
}

// IngestFolderHandler godoc
// @Summary      Index a Drive folder tree
// @Description  Queues a background job that recursively indexes the folder and all its subfolders.
// @Tags         Ingestion
// @Accept       json
// @Produce      json
// @Param        request  body      api.IngestFolderRequest  true  "Drive folder ID"
// @Success      202      {object}  api.InitJobResponse      "Job successfully created"
// @Failure      400      {object}  api.JobResponse          "Missing folder ID"
// @Router       /ingest-folder [post]
func IngestFolderHandler(w http.ResponseWriter, request *http.Request) {
	if !validateContext(request.Context()) {
		logRH.Warn("Invalid Context by request ", request.RemoteAddr)
		return
	}

	var requestData api.IngestFolderRequest
	defer request.Body.Close()

	if err := json.NewDecoder(request.Body).Decode(&requestData); err != nil || requestData.FolderId == "" {
		logRH.Warn("Bad Ingest Request: ", "error:", err)
		WriteErrorResponse(w, http.StatusBadRequest, "", "folder_id is required")
		return
	}

	newJob := newJobData{
		id:       utils.GetNewUUID(),
		folderId: requestData.FolderId,
		traceId:  request.Context().Value(config.TRACE_ID_KEY).(string),
		jobType:  jobModel.JobTypeIngest,
	}
	CreateNewJob(newJob)
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.id))
}

// GetStatusHandler godoc
// @Summary      Get job status
// @Description  Retrieves the current status of a specific job using its ID.
// @Tags         Job Status
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.JobResponse  "The current status of the job"
// @Failure      404  {object}  api.JobResponse  "Job not found (returns Error object within JobResponse)"
// @Router       /status/{id} [get]
func GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {
		idString := utils.GetChiURLParam(r, "id")
		result, isFound := validateId(idString, r.Context().Value(config.TRACE_ID_KEY).(string))

		logRH.Debug("Get Status Request:", "URL path", r.URL.Path)
		if !isFound {
			WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
			return
		}

		writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
	}
}

// StructureHandler godoc
// @Summary      Preview an indexed folder structure
// @Description  Returns the tree of indexed scopes under a folder, without file contents.
// @Tags         Structure
// @Produce      json
// @Param        folder_id  path      string  true  "Drive folder ID or canonical path"
// @Success      200        {object}  api.StructureResponse
// @Failure      404        {object}  api.JobResponse  "Folder not indexed"
// @Router       /structure/{folder_id} [get]
func StructureHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}

	folderRef := utils.GetChiURLParam(r, "folder_id")
	root, err := handlerInstance.ragService.Structure(r.Context(), folderRef)
	if err != nil {
		writeScopeError(w, folderRef, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, api.StructureResponse{Root: root})
}

// DeleteIndexHandler godoc
// @Summary      Delete a folder index
// @Description  Removes the index for a folder scope: its collection and its registry record. Drive content is untouched.
// @Tags         Ingestion
// @Produce      json
// @Param        folder_id  path      string  true  "Drive folder ID or canonical path"
// @Success      200        {object}  api.DeleteIndexResponse
// @Failure      404        {object}  api.JobResponse  "Folder not indexed"
// @Router       /index/{folder_id} [delete]
func DeleteIndexHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}

	folderRef := utils.GetChiURLParam(r, "folder_id")
	record, err := handlerInstance.ragService.DeleteIndex(r.Context(), folderRef)
	if err != nil {
		writeScopeError(w, folderRef, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, api.DeleteIndexResponse{FolderId: record.FolderId, Deleted: true})
}

func writeScopeError(w http.ResponseWriter, folderRef string, err error) {
	if errors.Is(err, registry.ErrScopeNotFound) {
		WriteErrorResponse(w, http.StatusNotFound, folderRef, "No index found for this folder")
		return
	}
	logRH.Error("scope operation failed", "folderRef", folderRef, "error", err)
	WriteErrorResponse(w, http.StatusInternalServerError, folderRef, "Internal Server Error")
}
