package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dkurup/agenticrag/internal/adapter"
	"github.com/dkurup/agenticrag/internal/adapter/utils"
	"github.com/dkurup/agenticrag/internal/api"
	"github.com/dkurup/agenticrag/internal/domain/faults"
	"github.com/dkurup/agenticrag/internal/rag/corpus"
	"github.com/dkurup/agenticrag/pkg/logger_i"
)

var logRH *logger_i.Logger

func GetHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// AskHandler answers a question synchronously on the request
// goroutine. The answer loop bounds its own retries, so the only
// unbounded wait here is the model itself, covered by the write
// timeout on the streaming route and context cancellation here.
func AskHandler(w http.ResponseWriter, request *http.Request) {
	if !validateContext(request.Context()) {
		logRH.Warn("Invalid Context by request", "remote", request.RemoteAddr)
		return
	}

	var requestData api.AskRequest
	defer closeBody(request.Body)
	if err := json.NewDecoder(request.Body).Decode(&requestData); err != nil || requestData.Question == "" {
		logRH.Warn("Bad Ask Request", "error", err)
		WriteErrorResponse(w, http.StatusBadRequest, "", "Bad Request")
		return
	}

	answer, err := handlerInstance.ragService.Ask(request.Context(), requestData.Question)
	if err != nil {
		writeAskFailure(w, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAnswerResponse(requestData.Question, answer))
}

// IngestTextHandler stores raw text synchronously and returns the new
// version's identity. Text payloads skip the extraction stage, so the
// only long call is the embedding batch.
func IngestTextHandler(w http.ResponseWriter, request *http.Request) {
	if !validateContext(request.Context()) {
		logRH.Warn("Invalid Context by request", "remote", request.RemoteAddr)
		return
	}

	var requestData api.IngestTextRequest
	defer closeBody(request.Body)
	if err := json.NewDecoder(request.Body).Decode(&requestData); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", "Bad Request")
		return
	}
	if requestData.Source == "" || requestData.Title == "" || requestData.Text == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "", "source, title and text are required")
		return
	}

	result, err := handlerInstance.ragService.IngestText(request.Context(), corpus.IngestParams{
		Source:    requestData.Source,
		Title:     requestData.Title,
		Text:      requestData.Text,
		LogicalId: requestData.LogicalId,
		Upsert:    requestData.Upsert,
	})
	if err != nil {
		writeAskFailure(w, err)
		return
	}
	writeJsonResponse(w, http.StatusCreated, api.IngestTextResponse{
		DocumentId: result.DocumentId,
		LogicalId:  result.LogicalId,
		Version:    result.Version,
	})
}

// IngestFileHandler receives a document via multipart/form-data, saves
// it to a temporary directory and queues an ingestion job.
func IngestFileHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		logRH.Warn("Invalid Context by request", "remote", r.RemoteAddr)
		return
	}

	targetDir, errString := getTargetDirectory()
	if errString != "" {
		logRH.Error("Couldn't get target directory", "err", errString)
		WriteErrorResponse(w, http.StatusInternalServerError, "", errString)
		return
	}

	const maxUploadSize = 32 << 20 //32mb
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", "File too large or bad request")
		return
	}

	docTitle := r.FormValue("title")
	if docTitle == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "", "title is required")
		return
	}

	fileReader, fileMetadata, err := r.FormFile("document")
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, docTitle, "Could not retrieve file")
		return
	}
	defer fileReader.Close()

	filename := fmt.Sprintf("%d-%s", time.Now().UnixNano(), fileMetadata.Filename)
	tempFilePath := filepath.Join(targetDir, filename)
	destinationFileWriter, err := os.Create(tempFilePath)
	if err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, docTitle, "Storage error")
		return
	}
	defer destinationFileWriter.Close()

	if _, err := io.Copy(destinationFileWriter, fileReader); err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, docTitle, "Write error")
		return
	}

	newJob := newJobData{
		id:        utils.GetNewUUID(),
		traceId:   traceFrom(r.Context()),
		source:    fileMetadata.Filename,
		title:     docTitle,
		filePath:  tempFilePath,
		logicalId: r.FormValue("logicalId"),
		upsert:    r.FormValue("upsertBySourceTitle") == "true",
	}
	CreateNewJob(newJob)
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.id))
}

// ReembedHandler re-encodes stored chunks under the active embedding
// model and reports how many were updated.
func ReembedHandler(w http.ResponseWriter, request *http.Request) {
	if !validateContext(request.Context()) {
		return
	}

	var requestData api.ReembedRequest
	defer closeBody(request.Body)
	if err := json.NewDecoder(request.Body).Decode(&requestData); err != nil && err != io.EOF {
		WriteErrorResponse(w, http.StatusBadRequest, "", "Bad Request")
		return
	}

	updated, err := handlerInstance.ragService.Reembed(request.Context(), requestData.Scope, requestData.Model)
	if err != nil {
		writeAskFailure(w, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, api.ReembedResponse{UpdatedChunks: updated})
}

func GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	idString := utils.GetChiURLParam(r, "id")
	result, isFound := validateId(idString, traceFrom(r.Context()))

	logRH.Debug("Get Status Request", "URL path", r.URL.Path)
	if !isFound {
		WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
		return
	}

	writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
}

func writeAskFailure(w http.ResponseWriter, err error) {
	switch {
	case faults.IsConfiguration(err):
		WriteErrorResponse(w, http.StatusBadRequest, "", err.Error())
	case faults.IsExternalCall(err):
		logRH.Error("Upstream service failed", "error", err)
		WriteErrorResponse(w, http.StatusBadGateway, "", "Upstream service failed")
	default:
		logRH.Error("Request failed", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "", "Internal error")
	}
}

func closeBody(body io.ReadCloser) {
	if err := body.Close(); err != nil {
		logRH.Error("Couldn't close the request body", "error", err)
	}
}
