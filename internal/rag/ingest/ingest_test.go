package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dkurup/agenticrag/internal/domain/jobModel"
	"github.com/dkurup/agenticrag/internal/domain/ragModel"
	"github.com/dkurup/agenticrag/internal/rag/corpus"
	"github.com/dkurup/agenticrag/internal/rag/pipeline"
)

type mockService struct {
	ingestFunc func(ctx context.Context, params corpus.IngestParams) (ragModel.IngestResult, error)
}

func (m *mockService) Ask(ctx context.Context, question string) (ragModel.FinalAnswer, error) {
	return ragModel.FinalAnswer{}, nil
}

func (m *mockService) AskStream(ctx context.Context, question string, sink pipeline.TraceSink) (ragModel.FinalAnswer, error) {
	return ragModel.FinalAnswer{}, nil
}

func (m *mockService) IngestText(ctx context.Context, params corpus.IngestParams) (ragModel.IngestResult, error) {
	return m.ingestFunc(ctx, params)
}

func (m *mockService) Reembed(ctx context.Context, scope string, modelName string) (int, error) {
	return 0, nil
}

func (m *mockService) Close() error { return nil }

func TestGetDocType(t *testing.T) {
	tests := []struct {
		path string
		want docType
	}{
		{"report.pdf", typePDF},
		{"report.PDF", typePDF},
		{"notes.docx", typeOffice},
		{"notes.odt", typeOffice},
		{"notes.rtf", typeOffice},
		{"readme.md", typePlain},
		{"plain.txt", typePlain},
		{"image.png", typeUnknown},
		{"noextension", typeUnknown},
	}
	for _, tt := range tests {
		if got := getDocType(tt.path); got != tt.want {
			t.Errorf("getDocType(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestExtractText_PlainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	if err := os.WriteFile(path, []byte("hello corpus"), 0o600); err != nil {
		t.Fatal(err)
	}
	text, err := extractText(path)
	if err != nil {
		t.Fatalf("extractText: %v", err)
	}
	if text != "hello corpus" {
		t.Fatalf("got %q", text)
	}
}

func TestExtractText_UnsupportedType(t *testing.T) {
	if _, err := extractText("holiday.png"); err == nil {
		t.Fatal("expected error for unsupported type")
	}
}

func TestProcessDocumentIngestion_TextPayload(t *testing.T) {
	service := &mockService{
		ingestFunc: func(ctx context.Context, params corpus.IngestParams) (ragModel.IngestResult, error) {
			if params.Text != "inline text" {
				t.Errorf("unexpected text %q", params.Text)
			}
			return ragModel.IngestResult{DocumentId: 42, LogicalId: "doc-1", Version: 3}, nil
		},
	}
	var events []jobModel.ProgressEvent
	job := jobModel.Job{
		Id:      "job-1",
		TraceId: "trace-1",
		Payload: jobModel.IngestPayload{Source: "api", Title: "T", Text: "inline text"},
		Status:  jobModel.JobStatusQueued,
	}

	done := ProcessDocumentIngestion(context.Background(), job, service, func(e jobModel.ProgressEvent) {
		events = append(events, e)
	})

	if done.Status != jobModel.JobStatusComplete {
		t.Fatalf("expected COMPLETE, got %s", done.Status)
	}
	if done.Payload.DocumentId != 42 || done.Payload.Version != 3 {
		t.Fatalf("result identity not carried: %+v", done.Payload)
	}
	last := events[len(events)-1]
	if !last.Done || last.Error != "" || last.Stage != "done" {
		t.Fatalf("terminal event wrong: %+v", last)
	}
	// Inline text skips the parse stage.
	for _, e := range events {
		if e.Stage == "parse" {
			t.Fatal("text payload must not report a parse stage")
		}
	}
}

func TestProcessDocumentIngestion_FilePayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	if err := os.WriteFile(path, []byte("file body"), 0o600); err != nil {
		t.Fatal(err)
	}
	service := &mockService{
		ingestFunc: func(ctx context.Context, params corpus.IngestParams) (ragModel.IngestResult, error) {
			if params.Text != "file body" {
				t.Errorf("unexpected text %q", params.Text)
			}
			return ragModel.IngestResult{DocumentId: 7, LogicalId: "doc-2", Version: 1}, nil
		},
	}
	job := jobModel.Job{
		Id:      "job-2",
		Payload: jobModel.IngestPayload{Source: "upload", Title: "T", FilePath: path},
	}

	done := ProcessDocumentIngestion(context.Background(), job, service, func(jobModel.ProgressEvent) {})

	if done.Status != jobModel.JobStatusComplete {
		t.Fatalf("expected COMPLETE, got %s", done.Status)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("uploaded file should be removed after ingestion")
	}
}

func TestProcessDocumentIngestion_ConcurrentJobs(t *testing.T) {
	// Workers run ingest jobs in parallel; nothing in the ingestion path
	// may share per-job state such as the trace id on the logger.
	service := &mockService{
		ingestFunc: func(ctx context.Context, params corpus.IngestParams) (ragModel.IngestResult, error) {
			return ragModel.IngestResult{DocumentId: 1, LogicalId: params.Title, Version: 1}, nil
		},
	}

	var wg sync.WaitGroup
	results := make([]jobModel.Job, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			job := jobModel.Job{
				Id:      fmt.Sprintf("job-%d", i),
				TraceId: fmt.Sprintf("trace-%d", i),
				Payload: jobModel.IngestPayload{Source: "api", Title: "T", Text: "body"},
			}
			results[i] = ProcessDocumentIngestion(context.Background(), job, service, func(jobModel.ProgressEvent) {})
		}()
	}
	wg.Wait()

	for i, done := range results {
		if done.Status != jobModel.JobStatusComplete {
			t.Fatalf("job %d: expected COMPLETE, got %s", i, done.Status)
		}
	}
}

func TestProcessDocumentIngestion_StoreFailure(t *testing.T) {
	service := &mockService{
		ingestFunc: func(ctx context.Context, params corpus.IngestParams) (ragModel.IngestResult, error) {
			return ragModel.IngestResult{}, errors.New("db locked")
		},
	}
	var events []jobModel.ProgressEvent
	job := jobModel.Job{
		Id:      "job-3",
		Payload: jobModel.IngestPayload{Source: "api", Title: "T", Text: "body"},
	}

	done := ProcessDocumentIngestion(context.Background(), job, service, func(e jobModel.ProgressEvent) {
		events = append(events, e)
	})

	if done.Status != jobModel.JobStatusError {
		t.Fatalf("expected Error status, got %s", done.Status)
	}
	last := events[len(events)-1]
	if !last.Done || last.Error == "" {
		t.Fatalf("terminal error event wrong: %+v", last)
	}
}
