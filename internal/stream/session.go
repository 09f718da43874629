package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aidoc-labs/aidoc-go/internal/api"
	"github.com/aidoc-labs/aidoc-go/internal/logutil"
	"github.com/aidoc-labs/aidoc-go/internal/metrics"
)

// Phase is the lifecycle state of a Session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSending
	PhaseStreaming
	PhaseCompleted
	PhaseFailed
	PhaseCancelled
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSending:
		return "sending"
	case PhaseStreaming:
		return "streaming"
	case PhaseCompleted:
		return "completed"
	case PhaseFailed:
		return "failed"
	case PhaseCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the session can make no further progress.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseFailed || p == PhaseCancelled
}

// TransportError reports a failure to deliver the question or open the
// response stream. Nothing was received when it occurs.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StreamError reports a failure after the stream opened. Text received
// before the failure stays available on the session.
type StreamError struct {
	Err error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream error: %v", e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

// ErrTruncated marks a stream that ended before a done event arrived.
var ErrTruncated = errors.New("stream ended before completion")

// Opener issues a streaming query and hands back the raw response body.
// *api.Client satisfies it.
type Opener interface {
	OpenQueryStream(ctx context.Context, req api.QueryRequest) (io.ReadCloser, error)
}

// Sink receives events in arrival order as the session applies them. Calls
// happen on the session's read loop, so implementations should not block.
type Sink interface {
	OnSources(sources []api.Source)
	OnChunk(delta string)
	OnDone(conversationID string)
}

// Options configures a Session.
type Options struct {
	Opener Opener
	Sink   Sink

	// IdleTimeout fails the exchange when no read completes within it.
	// Zero disables the idle check.
	IdleTimeout time.Duration
}

// Session runs one question/answer exchange against the streaming query
// endpoint. A Session is single use: terminal phases are final, and the
// next question needs a fresh Session.
type Session struct {
	opener      Opener
	sink        Sink
	idleTimeout time.Duration

	mu             sync.Mutex
	phase          Phase
	answer         strings.Builder
	sources        []api.Source
	conversationID string
	err            error
	cancelled      bool
	cancel         context.CancelFunc
}

// New creates an idle Session.
func New(opts Options) *Session {
	return &Session{
		opener:      opts.Opener,
		sink:        opts.Sink,
		idleTimeout: opts.IdleTimeout,
		phase:       PhaseIdle,
	}
}

// Run sends the question and applies stream events until the exchange
// reaches a terminal phase. It returns nil only when the session completed;
// cancellation returns context.Canceled.
func (s *Session) Run(ctx context.Context, req api.QueryRequest) error {
	start := time.Now()
	err := s.run(ctx, req)
	metrics.ObserveSessionOutcome(s.Phase().String(), time.Since(start))
	return err
}

func (s *Session) run(ctx context.Context, req api.QueryRequest) error {
	if !s.transition(PhaseIdle, PhaseSending) {
		return fmt.Errorf("session already used, phase %s", s.Phase())
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.cancelled {
		s.mu.Unlock()
		s.finish(PhaseCancelled, context.Canceled)
		return context.Canceled
	}
	s.cancel = cancel
	s.mu.Unlock()

	body, err := s.opener.OpenQueryStream(ctx, req)
	if err != nil {
		return s.failOpen(ctx, err)
	}
	defer body.Close()

	s.transition(PhaseSending, PhaseStreaming)

	var timedOut atomic.Bool
	var idle *time.Timer
	if s.idleTimeout > 0 {
		idle = time.AfterFunc(s.idleTimeout, func() {
			timedOut.Store(true)
			cancel()
		})
		defer idle.Stop()
	}

	var dec Decoder
	buf := make([]byte, 4096)
	for {
		n, readErr := body.Read(buf)
		if idle != nil {
			idle.Reset(s.idleTimeout)
		}
		if n > 0 {
			if s.applyFrames(dec.Feed(string(buf[:n]))) {
				s.finish(PhaseCompleted, nil)
				return nil
			}
		}
		if s.wasCancelled() {
			s.finish(PhaseCancelled, context.Canceled)
			return context.Canceled
		}
		if readErr == nil {
			continue
		}
		if readErr == io.EOF {
			if frame, ok := dec.Flush(); ok && s.applyFrames([]string{frame}) {
				s.finish(PhaseCompleted, nil)
				return nil
			}
			if s.wasCancelled() {
				s.finish(PhaseCancelled, context.Canceled)
				return context.Canceled
			}
			return s.failStream(ErrTruncated)
		}
		if timedOut.Load() {
			return s.failStream(fmt.Errorf("no data received within %s", s.idleTimeout))
		}
		if s.wasCancelled() || ctx.Err() != nil {
			s.finish(PhaseCancelled, context.Canceled)
			return context.Canceled
		}
		return s.failStream(readErr)
	}
}

// Cancel stops the exchange from any goroutine. Events already buffered are
// not applied once the flag is observed. Cancelling a terminal session is a
// no-op.
func (s *Session) Cancel() {
	s.mu.Lock()
	if s.phase.Terminal() {
		s.mu.Unlock()
		return
	}
	s.cancelled = true
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Phase returns the current lifecycle phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Answer returns the answer text accumulated so far.
func (s *Session) Answer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answer.String()
}

// Sources returns a copy of the most recent citation list.
func (s *Session) Sources() []api.Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.Source(nil), s.sources...)
}

// ConversationID returns the id adopted from the done event, or the empty
// string before completion.
func (s *Session) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

// Err returns the terminal error, nil for completed sessions.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// applyFrames interprets and applies decoded frames in order, reporting
// whether a done event was applied. The cancellation flag is checked before
// each application, and nothing is applied after done.
func (s *Session) applyFrames(frames []string) bool {
	for _, frame := range frames {
		if s.wasCancelled() {
			return false
		}
		event := ParseFrame(frame)
		if event.Kind == KindUnrecognized {
			metrics.ObserveFrameDropped()
			logutil.Debug("dropped unrecognized frame", map[string]interface{}{
				"frame": frame,
			})
			continue
		}
		metrics.ObserveFrameDecoded()
		switch event.Kind {
		case KindSources:
			s.mu.Lock()
			s.sources = event.Sources
			s.mu.Unlock()
			if s.sink != nil {
				s.sink.OnSources(event.Sources)
			}
		case KindChunk:
			s.mu.Lock()
			s.answer.WriteString(event.Delta)
			s.mu.Unlock()
			if s.sink != nil {
				s.sink.OnChunk(event.Delta)
			}
		case KindDone:
			s.mu.Lock()
			s.conversationID = event.ConversationID
			s.mu.Unlock()
			if s.sink != nil {
				s.sink.OnDone(event.ConversationID)
			}
			return true
		}
	}
	return false
}

func (s *Session) failOpen(ctx context.Context, err error) error {
	if s.wasCancelled() || ctx.Err() != nil {
		s.finish(PhaseCancelled, context.Canceled)
		return context.Canceled
	}
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		s.finish(PhaseFailed, err)
		return err
	}
	terr := &TransportError{Err: err}
	s.finish(PhaseFailed, terr)
	return terr
}

func (s *Session) failStream(err error) error {
	serr := &StreamError{Err: err}
	s.finish(PhaseFailed, serr)
	return serr
}

func (s *Session) wasCancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

func (s *Session) transition(from, to Phase) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != from {
		return false
	}
	s.phase = to
	return true
}

func (s *Session) finish(phase Phase, err error) {
	s.mu.Lock()
	if s.phase.Terminal() {
		s.mu.Unlock()
		return
	}
	s.phase = phase
	s.err = err
	s.mu.Unlock()
	if err != nil && phase == PhaseFailed {
		logutil.Warn("stream session failed", map[string]interface{}{
			"error":   err.Error(),
			"partial": s.Answer() != "",
		})
	}
}
