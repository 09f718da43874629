package stream

import (
	"reflect"
	"testing"

	"github.com/aidoc-labs/aidoc-go/internal/api"
)

func TestParseFrameSources(t *testing.T) {
	t.Parallel()

	frame := `data: {"type": "sources", "sources": [{"document_id": "d1", "chunk_id": "d1:0", "document_title": "Handbook", "score": 0.91}]}`
	got := ParseFrame(frame)
	if got.Kind != KindSources {
		t.Fatalf("expected sources event, got %s", got.Kind)
	}
	want := []api.Source{{DocumentID: "d1", ChunkID: "d1:0", DocumentTitle: "Handbook", Score: 0.91}}
	if !reflect.DeepEqual(got.Sources, want) {
		t.Fatalf("unexpected sources\nwant: %#v\n got: %#v", want, got.Sources)
	}
}

func TestParseFrameSourcesDefaultsMissingList(t *testing.T) {
	t.Parallel()

	got := ParseFrame(`data: {"type": "sources"}`)
	if got.Kind != KindSources {
		t.Fatalf("expected sources event, got %s", got.Kind)
	}
	if got.Sources == nil || len(got.Sources) != 0 {
		t.Fatalf("expected empty source list, got %#v", got.Sources)
	}
}

func TestParseFrameChunk(t *testing.T) {
	t.Parallel()

	got := ParseFrame(`data: {"type": "chunk", "delta": "Hello"}`)
	if got.Kind != KindChunk || got.Delta != "Hello" {
		t.Fatalf("unexpected event %#v", got)
	}
}

func TestParseFrameDone(t *testing.T) {
	t.Parallel()

	got := ParseFrame(`data: {"type": "done", "conversation_id": "c-42"}`)
	if got.Kind != KindDone || got.ConversationID != "c-42" {
		t.Fatalf("unexpected event %#v", got)
	}

	got = ParseFrame(`data: {"type": "done"}`)
	if got.Kind != KindDone || got.ConversationID != "" {
		t.Fatalf("done without conversation_id should still parse, got %#v", got)
	}
}

func TestParseFrameJoinsMultipleDataLines(t *testing.T) {
	t.Parallel()

	frame := "data: {\"type\": \"chunk\",\ndata: \"delta\": \"Hi\"}"
	got := ParseFrame(frame)
	if got.Kind != KindChunk || got.Delta != "Hi" {
		t.Fatalf("unexpected event %#v", got)
	}
}

func TestParseFrameUnrecognized(t *testing.T) {
	t.Parallel()

	frames := []string{
		`data: {"type": "heartbeat"}`,
		`data: {"type": "chunk", "delta":`,
		`data: not json at all`,
		"event: ping",
		": comment line",
	}
	for _, frame := range frames {
		if got := ParseFrame(frame); got.Kind != KindUnrecognized {
			t.Fatalf("frame %q should be unrecognized, got %s", frame, got.Kind)
		}
	}
}

func TestParseFrameIgnoresUnknownFields(t *testing.T) {
	t.Parallel()

	got := ParseFrame(`data: {"type": "chunk", "delta": "x", "sequence": 7, "model": "m1"}`)
	if got.Kind != KindChunk || got.Delta != "x" {
		t.Fatalf("extra fields should not affect parsing, got %#v", got)
	}
}
