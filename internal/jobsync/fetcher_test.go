package jobsync

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aidoc-labs/aidoc-go/internal/api"
)

func TestClientFetcherRoutesByKind(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ingestion_jobs/ing-1/status":
			fmt.Fprint(w, `{"status": "running", "started_at": "2026-08-21T10:00:00.123456", "finished_at": null}`)
		case "/analysis/an-1":
			fmt.Fprint(w, `{"id": "an-1", "task_type": "summary", "status": "completed", "result": {"summary": "Two documents."}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	fetcher := &ClientFetcher{Client: api.New(api.Options{BaseURL: srv.URL, Token: "t"})}

	update, err := fetcher.FetchStatus(context.Background(), KindIngestion, "ing-1")
	if err != nil {
		t.Fatalf("ingestion fetch failed: %v", err)
	}
	if update.Status != api.JobRunning || update.StartedAt == nil || update.FinishedAt != nil {
		t.Fatalf("unexpected ingestion update %#v", update)
	}

	update, err = fetcher.FetchStatus(context.Background(), KindAnalysis, "an-1")
	if err != nil {
		t.Fatalf("analysis fetch failed: %v", err)
	}
	if update.Status != api.JobCompleted {
		t.Fatalf("expected completed, got %s", update.Status)
	}
	if update.Result["summary"] != "Two documents." {
		t.Fatalf("analysis result should carry through, got %#v", update.Result)
	}

	if _, err := fetcher.FetchStatus(context.Background(), Kind("archive"), "x"); err == nil {
		t.Fatal("unknown kind should fail")
	}
}
