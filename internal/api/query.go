package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// QueryRequest is one retrieval-augmented question.
type QueryRequest struct {
	Question       string   `json:"question" validate:"required"`
	ConversationID string   `json:"conversation_id,omitempty"`
	TopK           int      `json:"top_k,omitempty" validate:"omitempty,gte=1,lte=50"`
	DocumentIDs    []string `json:"document_ids,omitempty"`
	MinScore       float64  `json:"min_score,omitempty"`
}

// Source is one retrieved citation backing an answer.
type Source struct {
	DocumentID    string                 `json:"document_id"`
	ChunkID       string                 `json:"chunk_id"`
	DocumentTitle string                 `json:"document_title,omitempty"`
	Score         float64                `json:"score,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// QueryResponse is the synchronous answer to a query.
type QueryResponse struct {
	Answer      string     `json:"answer"`
	Sources     []Source   `json:"sources"`
	GeneratedAt *Timestamp `json:"generated_at,omitempty"`
}

// Ask issues a synchronous query and returns the complete answer.
func (c *Client) Ask(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	if err := c.validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("invalid query request: %w", err)
	}
	path := "/query"
	if req.ConversationID != "" {
		path = fmt.Sprintf("/conversations/%s/query", req.ConversationID)
	}
	var out QueryResponse
	if err := c.postJSON(ctx, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// OpenQueryStream issues a streaming query and returns the undecoded
// response body. The caller owns the stream and must close it.
func (c *Client) OpenQueryStream(ctx context.Context, req QueryRequest) (io.ReadCloser, error) {
	if err := c.validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("invalid query request: %w", err)
	}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	path := "/query/stream"
	if req.ConversationID != "" {
		path = fmt.Sprintf("/conversations/%s/query/stream", req.ConversationID)
	}
	httpReq, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	resp, err := c.streamClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, readAPIError(resp)
	}
	return resp.Body, nil
}
