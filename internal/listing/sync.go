package listing

import (
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/justsurfingit/career-atlas/internal/jobquery"
)

// Sync owns the listing state and keeps it consistent with the URL. Filter
// changes replace the current URL and reset the page; page changes push.
type Sync struct {
	mu       sync.Mutex
	spec     jobquery.Spec
	nav      Navigator
	debounce *Debouncer
	subs     map[int]func(jobquery.Spec)
	nextSub  int
}

func NewSync(nav Navigator, debounce time.Duration) *Sync {
	if debounce <= 0 {
		debounce = DefaultSearchDebounce
	}
	return &Sync{
		spec:     jobquery.Default(),
		nav:      nav,
		debounce: NewDebouncer(debounce),
		subs:     make(map[int]func(jobquery.Spec)),
	}
}

// Spec returns the current state.
func (s *Sync) Spec() jobquery.Spec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spec
}

// Subscribe registers fn to be called with the new state after every change.
// The returned func unregisters it.
func (s *Sync) Subscribe(fn func(jobquery.Spec)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// ApplyURL re-derives every piece of state from v. It runs on initial load
// and on back/forward navigation, and never writes to the navigator.
func (s *Sync) ApplyURL(v url.Values) {
	s.debounce.Cancel()
	decoded := jobquery.Decode(v)
	s.update(func(cur jobquery.Spec) (jobquery.Spec, bool) {
		decoded.PageSize = cur.PageSize
		return decoded, true
	}, nil)
}

// SetPageSize changes the page size without touching the URL.
func (s *Sync) SetPageSize(n int) {
	s.mu.Lock()
	s.spec.PageSize = n
	s.spec = s.spec.Normalize()
	s.mu.Unlock()
}

func (s *Sync) SetType(v string)    { s.setFilter(func(sp *jobquery.Spec) { sp.Type = v }) }
func (s *Sync) SetCompany(v string) { s.setFilter(func(sp *jobquery.Spec) { sp.Company = v }) }
func (s *Sync) SetTag(v string)     { s.setFilter(func(sp *jobquery.Spec) { sp.Tag = v }) }

func (s *Sync) SetRemote(v jobquery.RemoteFilter) {
	s.setFilter(func(sp *jobquery.Spec) { sp.Remote = v })
}

func (s *Sync) SetSort(v jobquery.SortKey) {
	s.setFilter(func(sp *jobquery.Spec) { sp.Sort = v })
}

func (s *Sync) setFilter(mutate func(*jobquery.Spec)) {
	s.update(func(next jobquery.Spec) (jobquery.Spec, bool) {
		mutate(&next)
		next.Page = 1
		return next.Normalize(), true
	}, s.nav.Replace)
}

// SetPage moves to page n and adds a history entry.
func (s *Sync) SetPage(n int) {
	s.update(func(next jobquery.Spec) (jobquery.Spec, bool) {
		next.Page = n
		return next.Normalize(), true
	}, s.nav.Push)
}

// InputSearch records a keystroke-level change of the search box. The value
// is committed after the debounce delay.
func (s *Sync) InputSearch(text string) {
	s.debounce.Trigger(func() { s.commitSearch(text) })
}

// FlushSearch commits pending search input immediately.
func (s *Sync) FlushSearch() bool {
	return s.debounce.Flush()
}

func (s *Sync) commitSearch(text string) {
	text = strings.TrimSpace(text)
	s.update(func(next jobquery.Spec) (jobquery.Spec, bool) {
		if text == next.Search {
			return next, false
		}
		next.Search = text
		next.Page = 1
		return next.Normalize(), true
	}, s.nav.Replace)
}

// Clamp pulls the page back into range once total is known and reports
// whether it had to.
func (s *Sync) Clamp(total int) bool {
	return s.update(func(next jobquery.Spec) (jobquery.Spec, bool) {
		last := next.TotalPages(total)
		if next.Page <= last {
			return next, false
		}
		next.Page = last
		return next, true
	}, s.nav.Replace)
}

// update applies change to the current state under the lock, so concurrent
// callers (the debounce timer and user input) never lose each other's edits.
// The navigator and subscribers run after the lock is released.
func (s *Sync) update(change func(jobquery.Spec) (jobquery.Spec, bool), write func(url.Values)) bool {
	s.mu.Lock()
	next, ok := change(s.spec)
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.spec = next
	subs := s.subscribers()
	s.mu.Unlock()

	s.publish(next, subs, write)
	return true
}

// subscribers must be called with s.mu held.
func (s *Sync) subscribers() []func(jobquery.Spec) {
	subs := make([]func(jobquery.Spec), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return subs
}

func (s *Sync) publish(next jobquery.Spec, subs []func(jobquery.Spec), write func(url.Values)) {
	if write != nil {
		write(jobquery.Encode(next))
	}
	for _, fn := range subs {
		fn(next)
	}
}
