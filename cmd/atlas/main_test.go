package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/justsurfingit/career-atlas/internal/dtos"
	"github.com/justsurfingit/career-atlas/internal/models"
)

type fakeAPI struct {
	mu      sync.Mutex
	queries  []string
	total    int
	pageSize int
}

func (f *fakeAPI) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/jobs" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		f.mu.Lock()
		f.queries = append(f.queries, r.URL.RawQuery)
		total, size := f.total, f.pageSize
		f.mu.Unlock()
		if size < 1 {
			size = 10
		}

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page < 1 {
			page = 1
		}
		pages := (total + size - 1) / size
		if pages < 1 {
			pages = 1
		}
		if page > pages {
			page = pages
		}
		_ = json.NewEncoder(w).Encode(dtos.JobListResponse{
			Jobs:       []models.Job{{Title: "Go Engineer", CompanyName: "Acme", Slug: "acme-go"}},
			Total:      total,
			Page:       page,
			PageSize:   size,
			TotalPages: pages,
		})
	}
}

func (f *fakeAPI) lastQuery() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queries) == 0 {
		return ""
	}
	return f.queries[len(f.queries)-1]
}

func newTestBrowser(t *testing.T, total int, initial url.Values) (*browser, *fakeAPI, *bytes.Buffer) {
	t.Helper()
	api := &fakeAPI{total: total}
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)

	var out bytes.Buffer
	b := newBrowser(context.Background(), newAPIClient(srv.URL), initial, &out)
	return b, api, &out
}

func TestBrowserFilterCommands(t *testing.T) {
	b, api, out := newTestBrowser(t, 42, url.Values{})
	b.sync.ApplyURL(url.Values{"page": {"3"}})
	b.wait()

	b.exec("type Contract")
	b.wait()

	if got := b.history.Current().Encode(); got != "type=Contract" {
		t.Fatalf("history = %q", got)
	}
	if api.lastQuery() != "type=Contract" {
		t.Fatalf("api query = %q", api.lastQuery())
	}
	if !strings.Contains(out.String(), "Go Engineer @ Acme") {
		t.Fatalf("results not rendered: %s", out.String())
	}
}

func TestBrowserClampsPastLastPage(t *testing.T) {
	b, api, _ := newTestBrowser(t, 15, url.Values{})

	b.exec("page 5")
	b.wait()

	if p := b.sync.Spec().Page; p != 2 {
		t.Fatalf("page = %d, want 2", p)
	}
	if got := b.history.Current().Encode(); got != "page=2" {
		t.Fatalf("history = %q", got)
	}
	if api.lastQuery() != "page=2" {
		t.Fatalf("api query = %q", api.lastQuery())
	}
}

func TestBrowserClampsWithServerPageSize(t *testing.T) {
	b, api, _ := newTestBrowser(t, 25, url.Values{})
	api.mu.Lock()
	api.pageSize = 20
	api.mu.Unlock()

	b.exec("page 3")
	b.wait()

	if p := b.sync.Spec().Page; p != 2 {
		t.Fatalf("page = %d, want 2", p)
	}
	if got := b.history.Current().Encode(); got != "page=2" {
		t.Fatalf("history = %q", got)
	}
}

func TestBrowserBackRestoresState(t *testing.T) {
	b, _, _ := newTestBrowser(t, 100, url.Values{})

	b.exec("page 2")
	b.wait()
	b.exec("sort title")
	b.wait()
	b.exec("back")
	b.wait()

	// the sort change replaced the page=2 entry, so back returns to the start
	if spec := b.sync.Spec(); spec.Page != 1 || spec.Sort != "newest" {
		t.Fatalf("unexpected state after back: %+v", spec)
	}
	b.exec("forward")
	b.wait()
	if spec := b.sync.Spec(); spec.Sort != "title" {
		t.Fatalf("unexpected state after forward: %+v", spec)
	}
}

func TestBrowserQuit(t *testing.T) {
	b, _, out := newTestBrowser(t, 0, url.Values{})
	if b.exec("quit") {
		t.Fatal("quit should stop the loop")
	}
	b.exec("bogus")
	if !strings.Contains(out.String(), "unknown command") {
		t.Fatalf("expected unknown command message: %s", out.String())
	}
}
