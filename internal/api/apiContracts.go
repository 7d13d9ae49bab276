package api

import "time"

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id        string            `json:"id" example:"job_cz109"`
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

type Result struct {
	Status        string         `json:"status"`
	IngestOutcome *IngestOutcome `json:"ingest_outcome,omitempty"`
}

type IngestOutcome struct {
	DocumentId int64  `json:"document_id"`
	LogicalId  string `json:"logical_id"`
	Version    int    `json:"version"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
}

type CitationResponse struct {
	ChunkId    int64   `json:"chunk_id"`
	Title      string  `json:"title"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
}

type AnswerResponse struct {
	Question  string             `json:"question"`
	Answer    string             `json:"answer"`
	Citations []CitationResponse `json:"citations"`
}

type ReembedResponse struct {
	UpdatedChunks int `json:"updatedChunks"`
}

type IngestTextResponse struct {
	DocumentId int64  `json:"documentId"`
	LogicalId  string `json:"logicalId"`
	Version    int    `json:"version"`
}

// requests---------------------

type AskRequest struct {
	Question string `json:"question" validate:"required"`
}

type IngestTextRequest struct {
	Source    string `json:"source" validate:"required"`
	Title     string `json:"title" validate:"required"`
	Text      string `json:"text" validate:"required"`
	LogicalId string `json:"logicalId,omitempty"`
	Upsert    bool   `json:"upsertBySourceTitle,omitempty"`
}

type ReembedRequest struct {
	Scope string `json:"scope,omitempty"`
	Model string `json:"model,omitempty"`
}
