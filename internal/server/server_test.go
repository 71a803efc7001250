package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/evaluation"
	"github.com/spigell/cv-screener/internal/extract"
	"github.com/spigell/cv-screener/internal/jobs"
)

type recordingSubmitter struct {
	requests []jobs.Request
}

func (r *recordingSubmitter) Submit(req jobs.Request) {
	r.requests = append(r.requests, req)
}

type staticRunner struct{}

func (staticRunner) Run(context.Context, string, string, string) *evaluation.FinalResult {
	return &evaluation.FinalResult{
		CV:      evaluation.CVResult{MatchRate: 0.7, Feedback: "ok", RawScores: map[string]float64{}},
		Project: evaluation.ProjectResult{ProjectScore: 4, Feedback: "ok", RawScores: map[string]float64{}},
		Summary: "solid candidate",
	}
}

func multipartBody(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("writing field %s: %v", name, err)
		}
	}
	for name, filename := range files {
		part, err := writer.CreateFormFile(name, filename)
		if err != nil {
			t.Fatalf("creating file part %s: %v", name, err)
		}
		if _, err := part.Write([]byte("document content for " + name)); err != nil {
			t.Fatalf("writing file part %s: %v", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("closing writer: %v", err)
	}

	return body, writer.FormDataContentType()
}

func TestCreateJobAccepted(t *testing.T) {
	registry := jobs.NewRegistry()
	submitter := &recordingSubmitter{}
	router := New(registry, submitter, t.TempDir(), zap.NewNop()).Router()

	body, contentType := multipartBody(t,
		map[string]string{"job_title": "Backend Engineer"},
		map[string]string{"cv": "cv.txt", "project": "report.pdf"},
	)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", resp.Code, resp.Body.String())
	}

	var payload struct {
		JobID  string `json:"job_id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if payload.Status != string(jobs.StatusQueued) {
		t.Fatalf("expected queued status, got %q", payload.Status)
	}

	job, ok := registry.Get(payload.JobID)
	if !ok || job.Status != jobs.StatusQueued {
		t.Fatalf("job record not created: %+v", job)
	}

	if len(submitter.requests) != 1 {
		t.Fatalf("expected one submission, got %d", len(submitter.requests))
	}
	if submitter.requests[0].JobTitle != "Backend Engineer" {
		t.Fatalf("job title not forwarded: %+v", submitter.requests[0])
	}
}

func TestCreateJobRejectsMissingFile(t *testing.T) {
	router := New(jobs.NewRegistry(), &recordingSubmitter{}, t.TempDir(), zap.NewNop()).Router()

	body, contentType := multipartBody(t, nil, map[string]string{"cv": "cv.txt"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestCreateJobRejectsUnknownExtension(t *testing.T) {
	router := New(jobs.NewRegistry(), &recordingSubmitter{}, t.TempDir(), zap.NewNop()).Router()

	body, contentType := multipartBody(t, nil, map[string]string{"cv": "cv.docx", "project": "report.txt"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestGetJobNotFound(t *testing.T) {
	router := New(jobs.NewRegistry(), &recordingSubmitter{}, t.TempDir(), zap.NewNop()).Router()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/unknown", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestHealthz(t *testing.T) {
	router := New(jobs.NewRegistry(), &recordingSubmitter{}, t.TempDir(), zap.NewNop()).Router()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestJobRunsToCompletionEndToEnd(t *testing.T) {
	registry := jobs.NewRegistry()
	executor := jobs.NewExecutor(registry, extract.NewFileExtractor(), staticRunner{}, zap.NewNop(), 0)
	router := New(registry, executor, t.TempDir(), zap.NewNop()).Router()

	body, contentType := multipartBody(t, nil, map[string]string{"cv": "cv.txt", "project": "report.txt"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", resp.Code, resp.Body.String())
	}

	var created struct {
		JobID string `json:"job_id"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decoding response: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		job, ok := registry.Get(created.JobID)
		if !ok {
			t.Fatal("job disappeared")
		}
		if job.Status.Terminal() {
			if job.Status != jobs.StatusCompleted {
				t.Fatalf("expected completed, got %s (%s)", job.Status, job.Error)
			}
			if job.Result == nil || job.Result.Summary != "solid candidate" {
				t.Fatalf("result missing: %+v", job)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job stuck in %s", job.Status)
		}
		time.Sleep(5 * time.Millisecond)
	}

	getReq := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+created.JobID, nil)
	getResp := httptest.NewRecorder()
	router.ServeHTTP(getResp, getReq)

	if getResp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", getResp.Code)
	}

	var fetched jobs.Job
	if err := json.Unmarshal(getResp.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("decoding job: %v", err)
	}
	if fetched.Status != jobs.StatusCompleted || fetched.Result == nil {
		t.Fatalf("unexpected job payload: %+v", fetched)
	}
}
