package search

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moviex/internal/models"
	"github.com/desertthunder/moviex/internal/shared"
)

// State is the lifecycle state of a [Session].
type State int

const (
	Idle State = iota
	Debouncing
	Loading
	Resolved
	Errored
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Debouncing:
		return "debouncing"
	case Loading:
		return "loading"
	case Resolved:
		return "resolved"
	case Errored:
		return "errored"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

const (
	msgTimeout     = "search timed out"
	msgFailed      = "search failed"
	msgCredentials = "TMDB credentials are not configured (set TMDB_API_KEY or credentials.tmdb.api_key)"
)

// Provider is the search endpoint of a movie metadata service.
type Provider interface {
	SearchMovies(ctx context.Context, query string) ([]models.MovieSummary, error)
}

// Recorder receives request lifecycle events, typically for metrics.
type Recorder interface {
	RequestIssued()
	RequestCancelled()
	ResponseStale()
	RequestFailed()
}

type nopRecorder struct{}

func (nopRecorder) RequestIssued()    {}
func (nopRecorder) RequestCancelled() {}
func (nopRecorder) ResponseStale()    {}
func (nopRecorder) RequestFailed()    {}

// ResultSet is an ordered list of movies answering Query, tagged with the sequence number of the
// request that produced it. Seq is 0 for locally produced empty sets.
type ResultSet struct {
	Query  string                `json:"query"`
	Seq    uint64                `json:"seq"`
	Movies []models.MovieSummary `json:"movies"`
}

// Snapshot is the observable state of a session.
type Snapshot struct {
	Query   string    `json:"query"`
	State   State     `json:"state"`
	Results ResultSet `json:"results"`
	Error   string    `json:"error,omitempty"`
	Cause   error     `json:"-"`
}

// Options configures [NewSession].
type Options struct {
	Provider Provider
	Clock    Clock
	Policy   Policy
	Recorder Recorder
	Logger   *log.Logger
	// Context bounds every request issued by the session; defaults to [context.Background].
	Context context.Context
}

// Session owns one search interaction: the current query, the debounce timer, at most one
// in-flight request and the last published result set.
type Session struct {
	mu sync.Mutex

	provider Provider
	clock    Clock
	policy   Policy
	recorder Recorder
	logger   *log.Logger

	base       context.Context
	cancelBase context.CancelFunc

	query         string
	state         State
	results       ResultSet
	resolvedQuery string
	errMsg        string
	cause         error

	seq       uint64
	inflight  uint64
	cancel    context.CancelFunc
	stopTimer func() bool
	timerGen  uint64
	subs      []chan Snapshot
	disposed  bool
}

// NewSession creates an idle session. A zero Policy is replaced by [DefaultPolicy].
func NewSession(opts Options) *Session {
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock()
	}
	policy := opts.Policy
	if policy == (Policy{}) {
		policy = DefaultPolicy()
	}
	recorder := opts.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	parent := opts.Context
	if parent == nil {
		parent = context.Background()
	}

	base, cancel := context.WithCancel(parent)

	return &Session{
		provider:   opts.Provider,
		clock:      clock,
		policy:     policy,
		recorder:   recorder,
		logger:     logger,
		base:       base,
		cancelBase: cancel,
	}
}

// Policy returns the session's result policy.
func (s *Session) Policy() Policy {
	return s.policy
}

// OnInputChanged receives the full current value of the search field.
//
// It never performs I/O. Whitespace-only input clears results immediately; anything else
// (re)starts the debounce timer and cancels an in-flight request. Without a provider a
// searchable query is reported as Errored at once.
func (s *Session) OnInputChanged(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return
	}

	s.query = text
	s.stopTimerLocked()
	s.cancelInflightLocked()

	if strings.TrimSpace(text) == "" {
		s.clearLocked()
		s.state = Idle
		s.publishLocked()
		return
	}

	if s.provider == nil && s.policy.Searchable(strings.TrimSpace(text)) {
		s.clearLocked()
		s.state = Errored
		s.errMsg = errorMessage(shared.ErrMissingCredentials)
		s.cause = shared.ErrMissingCredentials
		s.publishLocked()
		return
	}

	s.state = Debouncing
	s.timerGen++
	gen := s.timerGen
	s.stopTimer = s.clock.AfterFunc(s.policy.Debounce, func() { s.settle(gen) })
	s.publishLocked()
}

// Reset clears the query and results, stops the timer and cancels any in-flight request.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return
	}

	s.resetLocked()
	s.publishLocked()
}

// Dispose resets the session and releases it permanently. Subscriber channels are closed.
// Calling Dispose more than once is a no-op.
func (s *Session) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return
	}

	s.resetLocked()
	s.disposed = true
	s.cancelBase()
	for _, ch := range s.subs {
		close(ch)
	}
	s.subs = nil
}

// Disposed reports whether Dispose has been called.
func (s *Session) Disposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel that receives the current snapshot immediately and every later one.
//
// The channel holds one value; a slow reader sees only the latest state. It is closed on Dispose.
func (s *Session) Subscribe() <-chan Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Snapshot, 1)
	if s.disposed {
		close(ch)
		return ch
	}

	ch <- s.snapshotLocked()
	s.subs = append(s.subs, ch)
	return ch
}

// Unsubscribe stops delivery to ch and closes it.
func (s *Session) Unsubscribe(ch <-chan Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.subs {
		if sub == ch {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			close(sub)
			return
		}
	}
}

// settle runs when the debounce timer fires.
func (s *Session) settle(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed || gen != s.timerGen {
		return
	}
	s.stopTimer = nil

	query := strings.TrimSpace(s.query)

	if !s.policy.Searchable(query) {
		s.clearLocked()
		s.results.Query = query
		s.state = Idle
		s.publishLocked()
		return
	}

	if query == s.resolvedQuery {
		s.state = Resolved
		s.publishLocked()
		return
	}

	s.cancelInflightLocked()

	s.seq++
	seq := s.seq

	var ctx context.Context
	var cancel context.CancelFunc
	if s.policy.RequestTimeout > 0 {
		ctx, cancel = context.WithTimeout(s.base, s.policy.RequestTimeout)
	} else {
		ctx, cancel = context.WithCancel(s.base)
	}
	s.inflight = seq
	s.cancel = cancel
	s.state = Loading
	s.errMsg, s.cause = "", nil

	s.recorder.RequestIssued()
	s.logger.Debug("search issued", "query", query, "seq", seq)
	s.publishLocked()

	go s.run(ctx, seq, query)
}

func (s *Session) run(ctx context.Context, seq uint64, query string) {
	var (
		movies []models.MovieSummary
		err    error
	)
	if s.provider == nil {
		err = shared.ErrMissingCredentials
	} else {
		movies, err = s.provider.SearchMovies(ctx, query)
	}
	s.complete(seq, query, movies, err)
}

// complete applies a response when it belongs to the newest, uncancelled request.
func (s *Session) complete(seq uint64, query string, movies []models.MovieSummary, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return
	}
	if seq != s.seq {
		s.recorder.ResponseStale()
		s.logger.Debug("stale response discarded", "query", query, "seq", seq, "current", s.seq)
		return
	}
	if s.inflight != seq {
		s.logger.Debug("cancelled response discarded", "query", query, "seq", seq)
		return
	}

	s.cancel()
	s.cancel = nil
	s.inflight = 0

	if err != nil {
		if errors.Is(err, context.Canceled) {
			s.state = Idle
			s.publishLocked()
			return
		}

		s.recorder.RequestFailed()
		s.logger.Warn("search failed", "query", query, "error", err)

		s.clearLocked()
		s.results = ResultSet{Query: query, Seq: seq}
		s.state = Errored
		s.errMsg = errorMessage(err)
		s.cause = err
		s.publishLocked()
		return
	}

	s.results = ResultSet{Query: query, Seq: seq, Movies: s.policy.Apply(movies)}
	s.resolvedQuery = query
	s.state = Resolved
	s.errMsg, s.cause = "", nil
	s.publishLocked()
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return msgTimeout
	case errors.Is(err, shared.ErrMissingCredentials):
		return msgCredentials
	default:
		return msgFailed
	}
}

func (s *Session) resetLocked() {
	s.stopTimerLocked()
	s.cancelInflightLocked()
	s.query = ""
	s.clearLocked()
	s.state = Idle
}

// clearLocked drops results and error without touching the query or state.
func (s *Session) clearLocked() {
	s.results = ResultSet{}
	s.resolvedQuery = ""
	s.errMsg, s.cause = "", nil
}

func (s *Session) stopTimerLocked() {
	s.timerGen++
	if s.stopTimer != nil {
		s.stopTimer()
		s.stopTimer = nil
	}
}

func (s *Session) cancelInflightLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
	s.inflight = 0
	s.recorder.RequestCancelled()
}

func (s *Session) snapshotLocked() Snapshot {
	movies := make([]models.MovieSummary, len(s.results.Movies))
	copy(movies, s.results.Movies)

	return Snapshot{
		Query:   s.query,
		State:   s.state,
		Results: ResultSet{Query: s.results.Query, Seq: s.results.Seq, Movies: movies},
		Error:   s.errMsg,
		Cause:   s.cause,
	}
}

// publishLocked delivers the current snapshot to every subscriber, replacing any undelivered one.
func (s *Session) publishLocked() {
	snap := s.snapshotLocked()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}
