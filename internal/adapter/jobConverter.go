package adapter

import (
	"fmt"
	"time"

	"github.com/dkurup/agenticrag/internal/api"
	"github.com/dkurup/agenticrag/internal/domain/jobModel"
	"github.com/dkurup/agenticrag/internal/domain/ragModel"
)

func ToInitJobResponse(id string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		StatusURL: fmt.Sprintf("status/%s", id),
	}
}

func ToAPIResponse(currentJob jobModel.Job) api.JobResponse {
	var errorPtr *api.JobOutgoingError
	if currentJob.Error.Message != "" || currentJob.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    currentJob.Error.Code,
			Message: currentJob.Error.Message,
			Retry:   currentJob.Error.Retry,
		}
	}

	result := api.Result{
		Status:        string(currentJob.Status),
		IngestOutcome: ToIngestOutcome(currentJob.Payload),
	}

	return api.JobResponse{
		Id:        currentJob.Id,
		StartTime: currentJob.CreatedTime,
		EndTime:   currentJob.EndTime,
		Error:     errorPtr,
		Result:    result,
	}
}

func ToIngestOutcome(payload jobModel.IngestPayload) *api.IngestOutcome {
	if payload.DocumentId == 0 {
		return nil
	}
	return &api.IngestOutcome{
		DocumentId: payload.DocumentId,
		LogicalId:  payload.ResultLogicalId,
		Version:    payload.Version,
	}
}

func ToAnswerResponse(question string, answer ragModel.FinalAnswer) api.AnswerResponse {
	citations := make([]api.CitationResponse, 0, len(answer.Citations))
	for _, c := range answer.Citations {
		citations = append(citations, api.CitationResponse{
			ChunkId:    c.ChunkId,
			Title:      c.Title,
			ChunkIndex: c.ChunkIndex,
			Score:      c.Score,
		})
	}
	return api.AnswerResponse{
		Question:  question,
		Answer:    answer.Answer,
		Citations: citations,
	}
}

func BadRequest(id string, errorMessage string, code int) api.JobResponse {
	return api.JobResponse{
		Id:        id,
		StartTime: time.Time{},
		EndTime:   time.Time{},
		Result: api.Result{
			Status: string(api.JobStatusError),
		},
		Error: &api.JobOutgoingError{
			Code:    code,
			Message: errorMessage,
			Retry:   false,
		},
	}
}
