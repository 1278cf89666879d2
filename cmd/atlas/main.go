package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/justsurfingit/career-atlas/internal/config"
	"github.com/justsurfingit/career-atlas/internal/dtos"
	"github.com/justsurfingit/career-atlas/internal/jobquery"
	"github.com/justsurfingit/career-atlas/internal/listing"
)

const helpText = `commands:
  search <text>      filter by free text (applied after you stop typing)
  type <value>       job type filter, "All" clears
  company <value>    company filter, "All" clears
  remote <all|true|false>
  tag <value>        tag filter, "All" clears
  sort <newest|oldest|company|title>
  page <n> | next | prev
  back | forward     walk the history
  url                print the shareable query string
  quit`

// browser is the terminal job board: it owns the listing state, its
// history, and the loader that fetches pages for it.
type browser struct {
	ctx     context.Context
	sync    *listing.Sync
	history *listing.History
	loader  *listing.Loader

	mu   sync.Mutex
	out  io.Writer
	last dtos.JobListResponse
	wg   sync.WaitGroup
}

func newBrowser(ctx context.Context, f listing.Fetcher, initial url.Values, out io.Writer) *browser {
	h := listing.NewHistory(initial)
	b := &browser{
		ctx:     ctx,
		sync:    listing.NewSync(h, listing.DefaultSearchDebounce),
		history: h,
		loader:  listing.NewLoader(f),
		out:     out,
	}
	b.sync.Subscribe(b.load)
	return b
}

// load runs for every state change. A newer change cancels the older load
// and the loader drops whatever comes back late.
func (b *browser) load(spec jobquery.Spec) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		resp, err := b.loader.Load(b.ctx, spec)
		if errors.Is(err, listing.ErrStale) {
			return
		}
		if err != nil {
			b.printf("⚠️ could not load jobs (%v), try again\n", err)
			return
		}
		b.mu.Lock()
		b.last = resp
		b.mu.Unlock()

		// The server decides the page size; clamp against its page count.
		// Clamp re-enters load with the corrected page.
		if resp.PageSize > 0 {
			b.sync.SetPageSize(resp.PageSize)
		}
		if b.sync.Clamp(resp.Total) {
			return
		}
		b.render(resp)
	}()
}

func (b *browser) wait() { b.wg.Wait() }

func (b *browser) printf(format string, args ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fmt.Fprintf(b.out, format, args...)
}

func (b *browser) render(resp dtos.JobListResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	fmt.Fprintf(b.out, "\n%d jobs, page %d of %d\n", resp.Total, resp.Page, resp.TotalPages)
	for i, j := range resp.Jobs {
		remote := ""
		if j.Remote {
			remote = " · remote"
		}
		fmt.Fprintf(b.out, "%3d. %s @ %s (%s%s)  [%s]\n",
			(resp.Page-1)*resp.PageSize+i+1, j.Title, j.CompanyName, j.DisplayLocation(), remote, j.Slug)
	}
	if len(resp.Jobs) == 0 {
		fmt.Fprintln(b.out, "  no jobs match")
	}
}

// exec runs one command line. It returns false on quit.
func (b *browser) exec(line string) bool {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "":
	case "search", "q":
		b.sync.InputSearch(arg)
	case "type":
		b.sync.SetType(arg)
	case "company":
		b.sync.SetCompany(arg)
	case "remote":
		b.sync.SetRemote(jobquery.ParseRemoteFilter(arg))
	case "tag":
		b.sync.SetTag(arg)
	case "sort":
		b.sync.SetSort(jobquery.ParseSortKey(arg))
	case "page":
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			b.printf("page must be a positive number\n")
			return true
		}
		b.sync.SetPage(n)
	case "next":
		b.mu.Lock()
		last := b.last.TotalPages
		b.mu.Unlock()
		if p := b.sync.Spec().Page; last == 0 || p < last {
			b.sync.SetPage(p + 1)
		}
	case "prev":
		if p := b.sync.Spec().Page; p > 1 {
			b.sync.SetPage(p - 1)
		}
	case "back":
		if v, ok := b.history.Back(); ok {
			b.sync.ApplyURL(v)
		}
	case "forward":
		if v, ok := b.history.Forward(); ok {
			b.sync.ApplyURL(v)
		}
	case "url":
		b.printf("/jobs?%s\n", b.history.Current().Encode())
	case "help", "?":
		b.printf("%s\n", helpText)
	case "quit", "exit":
		return false
	default:
		b.printf("unknown command %q, type help\n", cmd)
	}
	return true
}

func main() {
	apiURL := flag.String("api", config.GetEnv("ATLAS_API_URL", "http://localhost:8080"), "career-atlas API base URL")
	start := flag.String("url", "", "initial query string, e.g. \"q=go&page=2\"")
	flag.Parse()

	initial, err := url.ParseQuery(strings.TrimPrefix(*start, "?"))
	if err != nil {
		log.Fatalf("❌ invalid -url: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := newBrowser(ctx, newAPIClient(*apiURL), initial, os.Stdout)
	b.sync.ApplyURL(initial)
	b.printf("%s\n", helpText)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if !b.exec(scanner.Text()) {
			break
		}
	}
	b.loader.Stop()
	cancel()
	b.wait()
}
