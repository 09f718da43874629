package api

import (
	"context"
	"fmt"
)

// Conversation is one question/answer thread.
type Conversation struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id,omitempty"`
	Title     string     `json:"title,omitempty"`
	Messages  []Message  `json:"messages,omitempty"`
	UpdatedAt *Timestamp `json:"updated_at,omitempty"`
	CreatedAt *Timestamp `json:"created_at,omitempty"`
}

// Message is one persisted conversation turn.
type Message struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversation_id,omitempty"`
	Role           string     `json:"role"`
	Content        string     `json:"content"`
	CreatedAt      *Timestamp `json:"created_at,omitempty"`
}

// ListConversations pages through the caller's conversations, newest first.
// The server clamps limit to 1..200.
func (c *Client) ListConversations(ctx context.Context, limit, offset int) ([]Conversation, error) {
	path := fmt.Sprintf("/conversations?limit=%d&offset=%d", limit, offset)
	var out []Conversation
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetConversation returns one conversation including its messages.
func (c *Client) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	var out Conversation
	if err := c.getJSON(ctx, fmt.Sprintf("/conversations/%s", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListMessages returns the persisted messages of a conversation in
// chronological order. This is the system of record after a streamed
// exchange resolves.
func (c *Client) ListMessages(ctx context.Context, conversationID string) ([]Message, error) {
	var out []Message
	if err := c.getJSON(ctx, fmt.Sprintf("/conversations/%s/messages", conversationID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RenameConversation sets a conversation title.
func (c *Client) RenameConversation(ctx context.Context, id, title string) (*Conversation, error) {
	payload := map[string]string{"title": title}
	var out Conversation
	if err := c.patchJSON(ctx, fmt.Sprintf("/conversations/%s/title", id), payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
