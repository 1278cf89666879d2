package listing

import (
	"context"
	"errors"
	"sync"

	"github.com/justsurfingit/career-atlas/internal/dtos"
	"github.com/justsurfingit/career-atlas/internal/jobquery"
)

// ErrStale is returned for a response that arrived after the state moved on.
var ErrStale = errors.New("listing: stale response discarded")

// Fetcher retrieves one page of jobs.
type Fetcher interface {
	FetchJobs(ctx context.Context, spec jobquery.Spec) (dtos.JobListResponse, error)
}

// Loader issues fetches for the current state. Starting a load cancels the
// one before it, and a response is only returned while its request key is
// still the latest.
type Loader struct {
	fetcher Fetcher

	mu     sync.Mutex
	seq    uint64
	key    string
	cancel context.CancelFunc
}

func NewLoader(f Fetcher) *Loader {
	return &Loader{fetcher: f}
}

// Load fetches spec. It returns ErrStale when a newer load with a different
// key started before this one finished.
func (l *Loader) Load(ctx context.Context, spec jobquery.Spec) (dtos.JobListResponse, error) {
	key := spec.Key()

	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.seq++
	seq := l.seq
	l.key = key
	cctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.mu.Unlock()

	resp, err := l.fetcher.FetchJobs(cctx, spec)

	l.mu.Lock()
	latest := seq == l.seq
	current := key == l.key
	if latest {
		l.cancel = nil
	}
	l.mu.Unlock()
	cancel()

	if !current {
		return dtos.JobListResponse{}, ErrStale
	}
	if err != nil && !latest && errors.Is(err, context.Canceled) {
		return dtos.JobListResponse{}, ErrStale
	}
	return resp, err
}

// Key is the request key of the most recent load.
func (l *Loader) Key() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.key
}

// Stop cancels the in-flight load, if any.
func (l *Loader) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}
