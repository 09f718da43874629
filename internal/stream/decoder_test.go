package stream

import (
	"reflect"
	"testing"
)

func decodeInFragments(t *testing.T, text string, size int) []string {
	t.Helper()
	var dec Decoder
	var frames []string
	for start := 0; start < len(text); start += size {
		end := start + size
		if end > len(text) {
			end = len(text)
		}
		frames = append(frames, dec.Feed(text[start:end])...)
	}
	if frame, ok := dec.Flush(); ok {
		frames = append(frames, frame)
	}
	return frames
}

func TestDecoderEmitsFramesAcrossArbitraryFragmentation(t *testing.T) {
	t.Parallel()

	text := "data: {\"type\": \"sources\", \"sources\": []}\n\n" +
		"data: {\"type\": \"chunk\", \"delta\": \"Hello\"}\n\n" +
		"data: {\"type\": \"chunk\", \"delta\": \" world\"}\n\n" +
		"data: {\"type\": \"done\", \"conversation_id\": \"c1\"}\n\n"
	want := []string{
		"data: {\"type\": \"sources\", \"sources\": []}",
		"data: {\"type\": \"chunk\", \"delta\": \"Hello\"}",
		"data: {\"type\": \"chunk\", \"delta\": \" world\"}",
		"data: {\"type\": \"done\", \"conversation_id\": \"c1\"}",
	}

	for _, size := range []int{1, 2, 3, 7, 16, len(text)} {
		got := decodeInFragments(t, text, size)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("fragment size %d changed decoded frames\nwant: %#v\n got: %#v", size, want, got)
		}
	}
}

func TestDecoderFiltersEmptyAndWhitespaceFrames(t *testing.T) {
	t.Parallel()

	var dec Decoder
	got := dec.Feed("\n\n\n\ndata: a\n\n   \n\t\n\ndata: b\n\n")
	want := []string{"data: a", "data: b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected frames\nwant: %#v\n got: %#v", want, got)
	}
}

func TestDecoderTrimsCarriageReturns(t *testing.T) {
	t.Parallel()

	var dec Decoder
	got := dec.Feed("data: x\r\n\r\ndata: y\r\n\r\n")
	want := []string{"data: x", "data: y"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected frames\nwant: %#v\n got: %#v", want, got)
	}
}

func TestDecoderKeepsMultiLineFramesTogether(t *testing.T) {
	t.Parallel()

	var dec Decoder
	got := dec.Feed("event: message\ndata: {\"type\": \"chunk\"}\n\n")
	want := []string{"event: message\ndata: {\"type\": \"chunk\"}"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected frames\nwant: %#v\n got: %#v", want, got)
	}
}

func TestDecoderFlushEmitsUnterminatedTail(t *testing.T) {
	t.Parallel()

	var dec Decoder
	if got := dec.Feed("data: last"); len(got) != 0 {
		t.Fatalf("expected no frames before flush, got %#v", got)
	}
	frame, ok := dec.Flush()
	if !ok || frame != "data: last" {
		t.Fatalf("expected flushed tail frame, got %q ok=%v", frame, ok)
	}
	if _, ok := dec.Flush(); ok {
		t.Fatal("second flush should yield nothing")
	}
}

func TestDecoderCarriesPartialFrameAcrossFeeds(t *testing.T) {
	t.Parallel()

	var dec Decoder
	if got := dec.Feed("data: {\"type\": "); len(got) != 0 {
		t.Fatalf("expected no frames yet, got %#v", got)
	}
	if got := dec.Feed("\"chunk\"}\n"); len(got) != 0 {
		t.Fatalf("expected no frames before separator, got %#v", got)
	}
	got := dec.Feed("\n")
	want := []string{"data: {\"type\": \"chunk\"}"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected frames\nwant: %#v\n got: %#v", want, got)
	}
}
