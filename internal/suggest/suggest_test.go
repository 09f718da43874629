package suggest

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/aidoc-labs/aidoc-go/internal/api"
)

type fakeSuggester struct {
	mu       sync.Mutex
	calls    int
	inFlight int
	maxSeen  int
	delay    time.Duration
	fail     bool
	byName   map[string]api.MetadataSuggestion
}

func (f *fakeSuggester) SuggestMetadata(ctx context.Context, filename string, file io.Reader) (*api.MetadataSuggestion, error) {
	f.mu.Lock()
	f.calls++
	f.inFlight++
	if f.inFlight > f.maxSeen {
		f.maxSeen = f.inFlight
	}
	delay := f.delay
	fail := f.fail
	suggestion, ok := f.byName[filename]
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	if fail {
		return nil, fmt.Errorf("suggestion backend unavailable")
	}
	if !ok {
		suggestion = api.MetadataSuggestion{Title: "Generated " + filename, Description: "About " + filename}
	}
	return &suggestion, nil
}

func (f *fakeSuggester) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestFillAllNeverOverwritesUserFields(t *testing.T) {
	t.Parallel()

	fake := &fakeSuggester{byName: map[string]api.MetadataSuggestion{
		"a.pdf": {Title: "Suggested A", Description: "Suggested description A"},
	}}
	svc := New(Options{Suggester: fake})

	upload := &Upload{Filename: "a.pdf", Size: 10, Title: "My own title"}
	svc.FillAll(context.Background(), []*Upload{upload})

	if upload.Title != "My own title" {
		t.Fatalf("user title was overwritten: %q", upload.Title)
	}
	if upload.Description != "Suggested description A" {
		t.Fatalf("empty description should be filled, got %q", upload.Description)
	}
}

func TestFillAllSkipsCompleteUploads(t *testing.T) {
	t.Parallel()

	fake := &fakeSuggester{}
	svc := New(Options{Suggester: fake})

	upload := &Upload{Filename: "a.pdf", Size: 10, Title: "T", Description: "D"}
	svc.FillAll(context.Background(), []*Upload{upload})

	if fake.callCount() != 0 {
		t.Fatalf("complete upload should not trigger a request, got %d calls", fake.callCount())
	}
}

func TestSuggestCachesByFilenameAndSize(t *testing.T) {
	t.Parallel()

	fake := &fakeSuggester{}
	svc := New(Options{Suggester: fake})
	ctx := context.Background()

	first, err := svc.Suggest(ctx, "a.pdf", 10, []byte("body"))
	if err != nil {
		t.Fatalf("suggest failed: %v", err)
	}
	second, err := svc.Suggest(ctx, "a.pdf", 10, []byte("body"))
	if err != nil {
		t.Fatalf("cached suggest failed: %v", err)
	}
	if fake.callCount() != 1 {
		t.Fatalf("same file should hit the cache, got %d calls", fake.callCount())
	}
	if *first != *second {
		t.Fatalf("cached suggestion should match\nwant: %#v\n got: %#v", first, second)
	}

	// Same name, different size is a different file.
	if _, err := svc.Suggest(ctx, "a.pdf", 11, []byte("body+")); err != nil {
		t.Fatalf("suggest failed: %v", err)
	}
	if fake.callCount() != 2 {
		t.Fatalf("different size should miss the cache, got %d calls", fake.callCount())
	}
}

func TestFillAllAbsorbsFailures(t *testing.T) {
	t.Parallel()

	fake := &fakeSuggester{fail: true}
	svc := New(Options{Suggester: fake})

	uploads := []*Upload{
		{Filename: "a.pdf", Size: 1},
		{Filename: "b.pdf", Size: 2},
	}
	svc.FillAll(context.Background(), uploads)

	for _, upload := range uploads {
		if upload.Title != "" || upload.Description != "" {
			t.Fatalf("failed suggestion must leave the upload untouched, got %#v", upload)
		}
	}
	if fake.callCount() != 2 {
		t.Fatalf("each upload should still be attempted, got %d calls", fake.callCount())
	}
}

func TestFillAllBoundsConcurrency(t *testing.T) {
	t.Parallel()

	fake := &fakeSuggester{delay: 20 * time.Millisecond}
	svc := New(Options{Suggester: fake, Concurrency: 2})

	uploads := make([]*Upload, 8)
	for i := range uploads {
		uploads[i] = &Upload{Filename: fmt.Sprintf("f%d.pdf", i), Size: int64(i + 1)}
	}
	svc.FillAll(context.Background(), uploads)

	fake.mu.Lock()
	maxSeen := fake.maxSeen
	fake.mu.Unlock()
	if maxSeen > 2 {
		t.Fatalf("expected at most 2 concurrent requests, saw %d", maxSeen)
	}
	for _, upload := range uploads {
		if upload.Title == "" {
			t.Fatalf("upload %s was not filled", upload.Filename)
		}
	}
}

func TestMergeHandlesNilSuggestion(t *testing.T) {
	t.Parallel()

	upload := &Upload{Filename: "a.pdf", Title: "T"}
	Merge(upload, nil)
	if upload.Title != "T" || upload.Description != "" {
		t.Fatalf("nil suggestion must be a no-op, got %#v", upload)
	}
}
