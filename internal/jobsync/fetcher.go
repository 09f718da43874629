package jobsync

import (
	"context"
	"fmt"

	"github.com/aidoc-labs/aidoc-go/internal/api"
)

// ClientFetcher resolves job status through the backend API. Ingestion jobs
// use the lightweight status endpoint; analysis jobs have no status-only
// view, so the full job is fetched and narrowed.
type ClientFetcher struct {
	Client *api.Client
}

// FetchStatus implements Fetcher.
func (f *ClientFetcher) FetchStatus(ctx context.Context, kind Kind, id string) (*api.JobStatusUpdate, error) {
	switch kind {
	case KindIngestion:
		return f.Client.GetIngestionJobStatus(ctx, id)
	case KindAnalysis:
		job, err := f.Client.GetAnalysisJob(ctx, id)
		if err != nil {
			return nil, err
		}
		return &api.JobStatusUpdate{
			Status:     job.Status,
			Error:      job.Error,
			Result:     job.Result,
			StartedAt:  job.StartedAt,
			FinishedAt: job.FinishedAt,
		}, nil
	default:
		return nil, fmt.Errorf("unknown job kind %q", kind)
	}
}
