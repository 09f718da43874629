// Package suggest fills draft document metadata from the backend's
// suggestion endpoint, fanning requests out concurrently ahead of upload.
package suggest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/aidoc-labs/aidoc-go/internal/api"
	"github.com/aidoc-labs/aidoc-go/internal/logutil"
	"github.com/aidoc-labs/aidoc-go/internal/metrics"
)

// Suggester asks the backend for draft metadata. *api.Client satisfies it.
type Suggester interface {
	SuggestMetadata(ctx context.Context, filename string, file io.Reader) (*api.MetadataSuggestion, error)
}

// Upload is one document queued for upload with whatever metadata the user
// has entered so far.
type Upload struct {
	Filename    string
	Size        int64
	Content     []byte
	Title       string
	Description string
}

// Options configures a Service.
type Options struct {
	Suggester Suggester
	// Concurrency caps in-flight suggestion requests. Zero means 4.
	Concurrency int
	// CacheTTL bounds how long a suggestion is reused. Zero means 1 hour.
	CacheTTL time.Duration
}

// Service requests metadata suggestions and merges them into uploads.
// Results are cached by filename and size, so re-queuing the same file
// does not repeat the request.
type Service struct {
	suggester   Suggester
	concurrency int
	cache       *gocache.Cache
}

// New creates a Service.
func New(opts Options) *Service {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{
		suggester:   opts.Suggester,
		concurrency: concurrency,
		cache:       gocache.New(ttl, 2*ttl),
	}
}

// Suggest returns the suggestion for one file, served from cache when a
// fresh entry exists for the same filename and size.
func (s *Service) Suggest(ctx context.Context, filename string, size int64, content []byte) (*api.MetadataSuggestion, error) {
	key := cacheKey(filename, size)
	if cached, ok := s.cache.Get(key); ok {
		metrics.ObserveSuggestion("cache_hit")
		suggestion := cached.(api.MetadataSuggestion)
		return &suggestion, nil
	}
	suggestion, err := s.suggester.SuggestMetadata(ctx, filename, bytes.NewReader(content))
	if err != nil {
		metrics.ObserveSuggestion("error")
		return nil, err
	}
	metrics.ObserveSuggestion("ok")
	s.cache.Set(key, *suggestion, gocache.DefaultExpiration)
	return suggestion, nil
}

// FillAll requests suggestions for every upload that still has an empty
// field and merges the results in place. A failed suggestion leaves its
// upload untouched and never blocks the others.
func (s *Service) FillAll(ctx context.Context, uploads []*Upload) {
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup
	for _, upload := range uploads {
		if upload.Title != "" && upload.Description != "" {
			continue
		}
		wg.Add(1)
		go func(upload *Upload) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			suggestion, err := s.Suggest(ctx, upload.Filename, upload.Size, upload.Content)
			if err != nil {
				logutil.Warn("metadata suggestion failed", map[string]interface{}{
					"filename": upload.Filename,
					"error":    err.Error(),
				})
				return
			}
			Merge(upload, suggestion)
		}(upload)
	}
	wg.Wait()
}

// Merge copies suggested values into the upload's empty fields. Anything
// the user already entered stays as typed.
func Merge(upload *Upload, suggestion *api.MetadataSuggestion) {
	if suggestion == nil {
		return
	}
	if upload.Title == "" {
		upload.Title = suggestion.Title
	}
	if upload.Description == "" {
		upload.Description = suggestion.Description
	}
}

func cacheKey(filename string, size int64) string {
	return fmt.Sprintf("%s|%d", filename, size)
}
