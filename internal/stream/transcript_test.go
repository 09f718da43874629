package stream

import (
	"reflect"
	"testing"

	"github.com/aidoc-labs/aidoc-go/internal/api"
)

func TestTranscriptBuildsInFlightMessage(t *testing.T) {
	t.Parallel()

	tr := NewTranscript("")
	tr.Begin("what is the policy?")
	tr.AppendDelta("It ")
	tr.AppendDelta("depends.")

	got := tr.Messages()
	want := []api.Message{
		{Role: api.RoleUser, Content: "what is the policy?"},
		{Role: api.RoleAssistant, Content: "It depends."},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected transcript\nwant: %#v\n got: %#v", want, got)
	}
}

func TestTranscriptResolveAuthoritativeReplacesLocalState(t *testing.T) {
	t.Parallel()

	tr := NewTranscript("")
	tr.Begin("question")
	tr.AppendDelta("local draft")
	tr.Adopt("c1")

	persisted := []api.Message{
		{ID: "m1", ConversationID: "c1", Role: api.RoleUser, Content: "question"},
		{ID: "m2", ConversationID: "c1", Role: api.RoleAssistant, Content: "server answer"},
	}
	tr.ResolveAuthoritative(persisted)

	if tr.ConversationID() != "c1" {
		t.Fatalf("expected adopted conversation c1, got %q", tr.ConversationID())
	}
	if !reflect.DeepEqual(tr.Messages(), persisted) {
		t.Fatalf("persisted messages must replace local state\nwant: %#v\n got: %#v", persisted, tr.Messages())
	}
	if tr.Partial() {
		t.Fatal("resolved transcript must not be marked partial")
	}
}

func TestTranscriptAbandonKeepsPartialText(t *testing.T) {
	t.Parallel()

	tr := NewTranscript("c1")
	tr.Begin("question")
	tr.AppendDelta("half an ans")
	tr.Abandon()

	got := tr.Messages()
	if len(got) != 2 || got[1].Content != "half an ans" {
		t.Fatalf("partial text should be kept, got %#v", got)
	}
	if !tr.Partial() {
		t.Fatal("abandoned transcript should be marked partial")
	}

	tr.AppendDelta("more")
	if len(tr.Messages()) != 2 || tr.Messages()[1].Content != "half an ans" {
		t.Fatal("deltas after abandon must be ignored")
	}
}

func TestTranscriptAdoptIgnoresEmptyID(t *testing.T) {
	t.Parallel()

	tr := NewTranscript("c1")
	tr.Adopt("")
	if tr.ConversationID() != "c1" {
		t.Fatalf("empty id must not clear the adopted one, got %q", tr.ConversationID())
	}
}
