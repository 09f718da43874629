// Package jobsync keeps a local registry of background jobs in step with
// the backend by polling their status on a fixed interval.
package jobsync

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aidoc-labs/aidoc-go/internal/api"
	"github.com/aidoc-labs/aidoc-go/internal/logutil"
	"github.com/aidoc-labs/aidoc-go/internal/metrics"
)

// Kind distinguishes the two background job families.
type Kind string

const (
	KindIngestion Kind = "ingestion"
	KindAnalysis  Kind = "analysis"
)

// Job is the tracked view of one background job, assembled from the seed
// provided at registration plus every poll update merged since.
type Job struct {
	ID         string
	Kind       Kind
	DocumentID string
	TaskType   string
	Status     api.JobStatus
	Error      string
	Result     map[string]interface{}
	StartedAt  *api.Timestamp
	FinishedAt *api.Timestamp
	LastSynced time.Time
}

// Fetcher retrieves the server's current view of one job.
type Fetcher interface {
	FetchStatus(ctx context.Context, kind Kind, id string) (*api.JobStatusUpdate, error)
}

// FetchError reports one failed poll. The scheduler absorbs it and retries
// the job on the next tick.
type FetchError struct {
	Kind Kind
	ID   string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to sync %s job %s: %v", e.Kind, e.ID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Sink receives job lifecycle notifications. OnJobUpdate fires only when a
// merge changed the tracked view; OnJobSyncError receives a *FetchError per
// failed poll. Calls may come from concurrent fetch goroutines.
type Sink interface {
	OnJobUpdate(job Job)
	OnJobSyncError(err *FetchError)
}

// Options configures a Scheduler.
type Options struct {
	Fetcher Fetcher
	Sink    Sink
	// Interval between sync passes. Zero means 3 seconds.
	Interval time.Duration
}

// Scheduler polls registered jobs until they reach a terminal status.
// Ticking suspends while nothing needs syncing and resumes on the next
// Register call.
type Scheduler struct {
	fetcher  Fetcher
	sink     Sink
	interval time.Duration

	mu   sync.RWMutex
	jobs map[string]*Job
	wake chan struct{}
}

// New creates a Scheduler. Run must be called for polling to happen.
func New(opts Options) *Scheduler {
	interval := opts.Interval
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &Scheduler{
		fetcher:  opts.Fetcher,
		sink:     opts.Sink,
		interval: interval,
		jobs:     make(map[string]*Job),
		wake:     make(chan struct{}, 1),
	}
}

// Register adds a job to the poll set, waking a suspended scheduler. The
// seed's status defaults to pending; registering an id again replaces the
// tracked entry.
func (s *Scheduler) Register(job Job) {
	if job.Status == "" {
		job.Status = api.JobPending
	}
	s.mu.Lock()
	entry := job
	s.jobs[job.ID] = &entry
	s.mu.Unlock()
	metrics.SetActiveJobs(s.ActiveCount())
	s.notify()
}

// Cancel stops tracking a job. This is local deregistration only; the
// server-side job keeps running.
func (s *Scheduler) Cancel(id string) {
	s.mu.Lock()
	delete(s.jobs, id)
	s.mu.Unlock()
	metrics.SetActiveJobs(s.ActiveCount())
}

// Job returns the tracked view of one job.
func (s *Scheduler) Job(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Jobs returns a snapshot of every tracked job, terminal ones included,
// ordered by kind then id.
func (s *Scheduler) Jobs() []Job {
	s.mu.RLock()
	out := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, *job)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ActiveCount returns the number of tracked jobs still worth polling.
func (s *Scheduler) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, job := range s.jobs {
		if !job.Status.Terminal() {
			n++
		}
	}
	return n
}

// Run polls on the configured interval until ctx is cancelled. Each pass
// fetches every non-terminal job concurrently and waits for all fetches,
// so passes never overlap.
func (s *Scheduler) Run(ctx context.Context) {
	logutil.Info("job sync scheduler started", map[string]interface{}{
		"interval": s.interval.String(),
	})
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		if s.ActiveCount() == 0 {
			ticker.Stop()
			select {
			case <-ctx.Done():
				return
			case <-s.wake:
				ticker.Reset(s.interval)
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.syncOnce(ctx)
		case <-s.wake:
			// A registration landed mid-interval; it waits for the next tick.
		}
	}
}

func (s *Scheduler) syncOnce(ctx context.Context) {
	targets := s.activeSnapshot()
	if len(targets) == 0 {
		return
	}
	var wg sync.WaitGroup
	for _, job := range targets {
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			update, err := s.fetcher.FetchStatus(ctx, job.Kind, job.ID)
			metrics.ObserveJobFetch(string(job.Kind), err)
			if err != nil {
				ferr := &FetchError{Kind: job.Kind, ID: job.ID, Err: err}
				logutil.Warn("job sync fetch failed", map[string]interface{}{
					"kind":   string(job.Kind),
					"job_id": job.ID,
					"error":  err.Error(),
				})
				if s.sink != nil {
					s.sink.OnJobSyncError(ferr)
				}
				return
			}
			s.merge(job.ID, update)
		}(job)
	}
	wg.Wait()
	metrics.SetActiveJobs(s.ActiveCount())
}

// merge applies a poll update field by field: present fields overwrite the
// tracked value, absent fields preserve it. An unrecognized status keeps
// the previous one so a newer server cannot park a job in a state the
// tracker cannot reason about.
func (s *Scheduler) merge(id string, update *api.JobStatusUpdate) {
	s.mu.Lock()
	job, ok := s.jobs[id]
	if !ok {
		// Cancelled while the fetch was in flight.
		s.mu.Unlock()
		return
	}
	changed := false
	if update.Status.Known() {
		if job.Status != update.Status {
			job.Status = update.Status
			changed = true
		}
	} else if update.Status != "" {
		metrics.ObserveUnknownJobStatus()
		logutil.Warn("dropping unrecognized job status", map[string]interface{}{
			"job_id": id,
			"status": string(update.Status),
		})
	}
	if update.Error != "" && job.Error != update.Error {
		job.Error = update.Error
		changed = true
	}
	if update.Result != nil {
		job.Result = update.Result
		changed = true
	}
	if update.StartedAt != nil && job.StartedAt == nil {
		job.StartedAt = update.StartedAt
		changed = true
	}
	if update.FinishedAt != nil && job.FinishedAt == nil {
		job.FinishedAt = update.FinishedAt
		changed = true
	}
	job.LastSynced = time.Now()
	snapshot := *job
	s.mu.Unlock()
	if changed && s.sink != nil {
		s.sink.OnJobUpdate(snapshot)
	}
}

func (s *Scheduler) activeSnapshot() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Job
	for _, job := range s.jobs {
		if !job.Status.Terminal() {
			out = append(out, *job)
		}
	}
	return out
}

func (s *Scheduler) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
