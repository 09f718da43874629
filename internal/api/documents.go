package api

import (
	"context"
	"fmt"
	"io"
)

// Document is an uploaded source document.
type Document struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	OwnerID     string     `json:"owner_id,omitempty"`
	StorageKey  string     `json:"storage_key,omitempty"`
	CreatedAt   *Timestamp `json:"created_at,omitempty"`
	DeletedAt   *Timestamp `json:"deleted_at,omitempty"`
}

// MetadataSuggestion is a model-drafted title/description pair for a file.
type MetadataSuggestion struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ListDocuments returns the documents visible to the caller.
func (c *Client) ListDocuments(ctx context.Context) ([]Document, error) {
	var out []Document
	if err := c.getJSON(ctx, "/documents", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UploadDocument uploads one file with its metadata and returns the stored
// document once ingestion has been scheduled.
func (c *Client) UploadDocument(ctx context.Context, title, description, filename string, file io.Reader) (*Document, error) {
	fields := map[string]string{
		"title":       title,
		"description": description,
	}
	var out Document
	if err := c.postMultipart(ctx, "/documents", fields, "file", filename, file, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteDocument schedules deletion of a document.
func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	return c.deleteJSON(ctx, fmt.Sprintf("/documents/%s", id), nil)
}

// SuggestMetadata asks the backend to draft a title and description for a
// file. Best effort; callers treat a failure as non-fatal.
func (c *Client) SuggestMetadata(ctx context.Context, filename string, file io.Reader) (*MetadataSuggestion, error) {
	var out MetadataSuggestion
	if err := c.postMultipart(ctx, "/documents/suggest_metadata", nil, "file", filename, file, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
