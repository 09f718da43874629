package jobsync

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aidoc-labs/aidoc-go/internal/api"
)

type fetchResult struct {
	update *api.JobStatusUpdate
	err    error
}

// fakeFetcher replays a scripted sequence of results per job id. The last
// entry repeats once the script is exhausted.
type fakeFetcher struct {
	mu      sync.Mutex
	calls   map[string]int
	scripts map[string][]fetchResult
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		calls:   make(map[string]int),
		scripts: make(map[string][]fetchResult),
	}
}

func (f *fakeFetcher) script(id string, results ...fetchResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts[id] = results
}

func (f *fakeFetcher) FetchStatus(ctx context.Context, kind Kind, id string) (*api.JobStatusUpdate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[id]++
	script := f.scripts[id]
	if len(script) == 0 {
		return nil, fmt.Errorf("no scripted response for %s", id)
	}
	result := script[0]
	if len(script) > 1 {
		f.scripts[id] = script[1:]
	}
	return result.update, result.err
}

func (f *fakeFetcher) callCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func (f *fakeFetcher) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

type recordingSink struct {
	mu      sync.Mutex
	updates []Job
	errs    []*FetchError
}

func (s *recordingSink) OnJobUpdate(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, job)
}

func (s *recordingSink) OnJobSyncError(err *FetchError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
}

func (s *recordingSink) updateStatuses() []api.JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.JobStatus, 0, len(s.updates))
	for _, job := range s.updates {
		out = append(out, job.Status)
	}
	return out
}

func (s *recordingSink) errCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.errs)
}

func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func startScheduler(t *testing.T, sched *Scheduler) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go sched.Run(ctx)
}

func statusUpdate(status api.JobStatus) fetchResult {
	return fetchResult{update: &api.JobStatusUpdate{Status: status}}
}

func TestSchedulerRegistersWithDefaults(t *testing.T) {
	t.Parallel()

	sched := New(Options{Fetcher: newFakeFetcher()})
	sched.Register(Job{ID: "b", Kind: KindIngestion, DocumentID: "d2"})
	sched.Register(Job{ID: "a", Kind: KindAnalysis, Status: api.JobRunning})

	job, ok := sched.Job("b")
	if !ok || job.Status != api.JobPending {
		t.Fatalf("seed status should default to pending, got %#v ok=%v", job, ok)
	}

	jobs := sched.Jobs()
	if len(jobs) != 2 || jobs[0].ID != "a" || jobs[1].ID != "b" {
		t.Fatalf("expected jobs ordered by kind then id, got %#v", jobs)
	}
	if sched.ActiveCount() != 2 {
		t.Fatalf("expected 2 active jobs, got %d", sched.ActiveCount())
	}
}

func TestSchedulerSyncsJobToTerminalThenStops(t *testing.T) {
	t.Parallel()

	finished := &api.Timestamp{Time: time.Date(2026, 8, 21, 10, 0, 0, 0, time.UTC)}
	fetcher := newFakeFetcher()
	fetcher.script("j1",
		statusUpdate(api.JobPending),
		statusUpdate(api.JobRunning),
		fetchResult{update: &api.JobStatusUpdate{Status: api.JobCompleted, FinishedAt: finished}},
	)
	sink := &recordingSink{}
	sched := New(Options{Fetcher: fetcher, Sink: sink, Interval: 10 * time.Millisecond})
	sched.Register(Job{ID: "j1", Kind: KindIngestion})
	startScheduler(t, sched)

	waitFor(t, 2*time.Second, "job to complete", func() bool {
		job, ok := sched.Job("j1")
		return ok && job.Status == api.JobCompleted
	})

	job, _ := sched.Job("j1")
	if job.FinishedAt == nil || !job.FinishedAt.Equal(finished.Time) {
		t.Fatalf("finished_at should merge from the update, got %#v", job.FinishedAt)
	}
	if job.LastSynced.IsZero() {
		t.Fatal("last synced time should be set")
	}

	// Terminal jobs stay visible but are no longer polled.
	settled := fetcher.callCount("j1")
	time.Sleep(60 * time.Millisecond)
	if got := fetcher.callCount("j1"); got != settled {
		t.Fatalf("terminal job was polled again, calls %d -> %d", settled, got)
	}
	if sched.ActiveCount() != 0 {
		t.Fatalf("expected no active jobs, got %d", sched.ActiveCount())
	}

	statuses := sink.updateStatuses()
	want := []api.JobStatus{api.JobRunning, api.JobCompleted}
	if len(statuses) != len(want) || statuses[0] != want[0] || statuses[1] != want[1] {
		t.Fatalf("expected update notifications %v, got %v", want, statuses)
	}
}

func TestSchedulerAbsorbsFetchFailures(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.script("j1",
		fetchResult{err: fmt.Errorf("connection refused")},
		fetchResult{err: fmt.Errorf("connection refused")},
		statusUpdate(api.JobRunning),
	)
	sink := &recordingSink{}
	sched := New(Options{Fetcher: fetcher, Sink: sink, Interval: 10 * time.Millisecond})
	sched.Register(Job{ID: "j1", Kind: KindIngestion})
	startScheduler(t, sched)

	waitFor(t, 2*time.Second, "job to recover", func() bool {
		job, ok := sched.Job("j1")
		return ok && job.Status == api.JobRunning
	})

	if sink.errCount() < 2 {
		t.Fatalf("expected both failures reported, got %d", sink.errCount())
	}
	sink.mu.Lock()
	ferr := sink.errs[0]
	sink.mu.Unlock()
	if ferr.Kind != KindIngestion || ferr.ID != "j1" || ferr.Unwrap() == nil {
		t.Fatalf("fetch error should carry kind, id and cause, got %#v", ferr)
	}
}

func TestSchedulerKeepsStatusOnUnrecognizedValue(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.script("j1",
		fetchResult{update: &api.JobStatusUpdate{Status: "archived", Error: "superseded"}},
		statusUpdate(api.JobCompleted),
	)
	sched := New(Options{Fetcher: fetcher, Interval: 10 * time.Millisecond})
	sched.Register(Job{ID: "j1", Kind: KindIngestion, Status: api.JobRunning})
	startScheduler(t, sched)

	waitFor(t, 2*time.Second, "job to complete", func() bool {
		job, ok := sched.Job("j1")
		return ok && job.Status == api.JobCompleted
	})

	// The unknown status was dropped, the rest of that update still merged.
	job, _ := sched.Job("j1")
	if job.Error != "superseded" {
		t.Fatalf("fields alongside an unknown status should merge, got %#v", job)
	}
}

func TestSchedulerSuspendsWithoutJobsAndWakesOnRegister(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.script("j1", statusUpdate(api.JobRunning))
	sched := New(Options{Fetcher: fetcher, Interval: 10 * time.Millisecond})
	startScheduler(t, sched)

	time.Sleep(60 * time.Millisecond)
	if got := fetcher.totalCalls(); got != 0 {
		t.Fatalf("idle scheduler must not fetch, got %d calls", got)
	}

	sched.Register(Job{ID: "j1", Kind: KindIngestion})
	waitFor(t, 2*time.Second, "first fetch after wake", func() bool {
		return fetcher.callCount("j1") > 0
	})
}

func TestSchedulerCancelStopsPolling(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.script("j1", statusUpdate(api.JobRunning))
	sched := New(Options{Fetcher: fetcher, Interval: 10 * time.Millisecond})
	sched.Register(Job{ID: "j1", Kind: KindAnalysis})
	startScheduler(t, sched)

	waitFor(t, 2*time.Second, "first fetch", func() bool {
		return fetcher.callCount("j1") > 0
	})

	sched.Cancel("j1")
	if _, ok := sched.Job("j1"); ok {
		t.Fatal("cancelled job should leave the registry")
	}
	settled := fetcher.callCount("j1")
	time.Sleep(60 * time.Millisecond)
	if got := fetcher.callCount("j1"); got > settled+1 {
		t.Fatalf("cancelled job kept being polled, calls %d -> %d", settled, got)
	}
}

func TestSchedulerPollsAllActiveJobsEachPass(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.script("j1", statusUpdate(api.JobRunning))
	fetcher.script("j2", statusUpdate(api.JobRunning))
	fetcher.script("j3", statusUpdate(api.JobCompleted))
	sched := New(Options{Fetcher: fetcher, Interval: 10 * time.Millisecond})
	sched.Register(Job{ID: "j1", Kind: KindIngestion})
	sched.Register(Job{ID: "j2", Kind: KindAnalysis})
	sched.Register(Job{ID: "j3", Kind: KindIngestion})
	startScheduler(t, sched)

	waitFor(t, 2*time.Second, "all jobs fetched", func() bool {
		return fetcher.callCount("j1") > 1 && fetcher.callCount("j2") > 1 && fetcher.callCount("j3") > 0
	})

	job, _ := sched.Job("j3")
	if job.Status != api.JobCompleted {
		t.Fatalf("expected j3 completed, got %s", job.Status)
	}
}
