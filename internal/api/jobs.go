package api

import (
	"context"
	"fmt"
)

// IngestionJob tracks background ingestion of one uploaded document.
type IngestionJob struct {
	ID         string     `json:"id"`
	DocumentID string     `json:"document_id"`
	OwnerID    string     `json:"owner_id,omitempty"`
	Status     JobStatus  `json:"status"`
	Error      string     `json:"error,omitempty"`
	StartedAt  *Timestamp `json:"started_at,omitempty"`
	FinishedAt *Timestamp `json:"finished_at,omitempty"`
	CreatedAt  *Timestamp `json:"created_at,omitempty"`
}

// AnalysisRequest starts an analysis task over a set of documents.
type AnalysisRequest struct {
	TaskType        string   `json:"task_type" validate:"required"`
	Question        string   `json:"question,omitempty"`
	DocumentIDs     []string `json:"document_ids,omitempty"`
	MaxChunksPerDoc int      `json:"max_chunks_per_doc,omitempty" validate:"omitempty,gte=1"`
}

// AnalysisJob tracks one background analysis task.
type AnalysisJob struct {
	ID          string                 `json:"id"`
	OwnerID     string                 `json:"owner_id,omitempty"`
	TaskType    string                 `json:"task_type"`
	Question    string                 `json:"question,omitempty"`
	DocumentIDs []string               `json:"document_ids,omitempty"`
	Status      JobStatus              `json:"status"`
	Result      map[string]interface{} `json:"result,omitempty"`
	Error       string                 `json:"error,omitempty"`
	StartedAt   *Timestamp             `json:"started_at,omitempty"`
	FinishedAt  *Timestamp             `json:"finished_at,omitempty"`
	CreatedAt   *Timestamp             `json:"created_at,omitempty"`
}

// JobStatusUpdate is the poll endpoint's view of a job.
type JobStatusUpdate struct {
	Status     JobStatus              `json:"status"`
	Error      string                 `json:"error,omitempty"`
	Result     map[string]interface{} `json:"result,omitempty"`
	StartedAt  *Timestamp             `json:"started_at,omitempty"`
	FinishedAt *Timestamp             `json:"finished_at,omitempty"`
}

// ListIngestionJobs pages through the caller's ingestion jobs, newest first.
func (c *Client) ListIngestionJobs(ctx context.Context, limit, offset int) ([]IngestionJob, error) {
	path := fmt.Sprintf("/ingestion_jobs?limit=%d&offset=%d", limit, offset)
	var out []IngestionJob
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetIngestionJob returns one ingestion job.
func (c *Client) GetIngestionJob(ctx context.Context, id string) (*IngestionJob, error) {
	var out IngestionJob
	if err := c.getJSON(ctx, fmt.Sprintf("/ingestion_jobs/%s", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetIngestionJobStatus fetches the lightweight poll view of an ingestion job.
func (c *Client) GetIngestionJobStatus(ctx context.Context, id string) (*JobStatusUpdate, error) {
	var out JobStatusUpdate
	if err := c.getJSON(ctx, fmt.Sprintf("/ingestion_jobs/%s/status", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StartAnalysis submits an analysis task and returns the created job.
func (c *Client) StartAnalysis(ctx context.Context, req AnalysisRequest) (*AnalysisJob, error) {
	if req.TaskType == "" {
		req.TaskType = "summary"
	}
	if err := c.validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("invalid analysis request: %w", err)
	}
	var out AnalysisJob
	if err := c.postJSON(ctx, "/analysis", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListAnalysisJobs pages through the caller's analysis jobs, newest first.
func (c *Client) ListAnalysisJobs(ctx context.Context, limit, offset int) ([]AnalysisJob, error) {
	path := fmt.Sprintf("/analysis?limit=%d&offset=%d", limit, offset)
	var out []AnalysisJob
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetAnalysisJob returns one analysis job including any result payload.
func (c *Client) GetAnalysisJob(ctx context.Context, id string) (*AnalysisJob, error) {
	var out AnalysisJob
	if err := c.getJSON(ctx, fmt.Sprintf("/analysis/%s", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
