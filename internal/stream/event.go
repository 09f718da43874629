package stream

import (
	"encoding/json"
	"strings"

	"github.com/aidoc-labs/aidoc-go/internal/api"
)

// Kind discriminates what a frame meant.
type Kind int

// The closed set of event variants the backend emits. New or malformed
// payloads map to KindUnrecognized so callers can drop them uniformly.
const (
	KindUnrecognized Kind = iota
	KindSources
	KindChunk
	KindDone
)

func (k Kind) String() string {
	switch k {
	case KindSources:
		return "sources"
	case KindChunk:
		return "chunk"
	case KindDone:
		return "done"
	default:
		return "unrecognized"
	}
}

// Event is one interpreted frame. Only the fields of the matching variant
// are populated.
type Event struct {
	Kind           Kind
	Sources        []api.Source
	Delta          string
	ConversationID string
}

type eventPayload struct {
	Type           string       `json:"type"`
	Sources        []api.Source `json:"sources"`
	Delta          string       `json:"delta"`
	ConversationID string       `json:"conversation_id"`
}

// ParseFrame interprets one decoded frame. The payload is the joined body
// of the frame's data lines; frames without a data line, with invalid JSON,
// or with an unknown type come back as KindUnrecognized. Parsing never
// fails and optional fields default to their zero values.
func ParseFrame(frame string) Event {
	var dataLines []string
	for _, line := range strings.Split(frame, "\n") {
		if strings.HasPrefix(line, "data:") {
			dataLines = append(dataLines, strings.TrimSpace(line[len("data:"):]))
		}
	}
	if len(dataLines) == 0 {
		return Event{Kind: KindUnrecognized}
	}
	var payload eventPayload
	if err := json.Unmarshal([]byte(strings.Join(dataLines, "\n")), &payload); err != nil {
		return Event{Kind: KindUnrecognized}
	}
	switch payload.Type {
	case "sources":
		sources := payload.Sources
		if sources == nil {
			sources = []api.Source{}
		}
		return Event{Kind: KindSources, Sources: sources}
	case "chunk":
		return Event{Kind: KindChunk, Delta: payload.Delta}
	case "done":
		return Event{Kind: KindDone, ConversationID: payload.ConversationID}
	default:
		return Event{Kind: KindUnrecognized}
	}
}
