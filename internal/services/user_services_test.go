package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/justsurfingit/career-atlas/internal/docstore"
	"github.com/justsurfingit/career-atlas/internal/dtos"
	"github.com/justsurfingit/career-atlas/internal/models"
	"github.com/justsurfingit/career-atlas/internal/upload"
)

type recordedEvent struct {
	Type, UserID, JobSlug string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, eventType, userID, jobSlug string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{eventType, userID, jobSlug})
	return p.err
}

func newUserFixture(n int) (*docstore.MemoryStore, *JobService, *recordingPublisher) {
	store := docstore.NewMemoryStore(numberedJobs(n)...)
	return store, NewJobService(store, nil), &recordingPublisher{}
}

func TestFavoritesAddIsIdempotent(t *testing.T) {
	store, jobs, pub := newUserFixture(3)
	svc := NewFavoritesService(store, jobs, pub)
	ctx := context.Background()

	if _, err := svc.Add(ctx, "u1", "job-01"); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	ids, err := svc.Add(ctx, "u1", "job-01")
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("expected 1 bookmark, got %v", ids)
	}
	if len(pub.events) != 1 || pub.events[0].Type != models.EventBookmarkAdded {
		t.Fatalf("expected a single bookmark.added event, got %+v", pub.events)
	}

	if _, err := svc.Add(ctx, "u1", "  "); err == nil {
		t.Fatal("expected validation error for empty job id")
	}
}

func TestFavoritesRemove(t *testing.T) {
	store, jobs, pub := newUserFixture(3)
	svc := NewFavoritesService(store, jobs, pub)
	ctx := context.Background()
	_ = store.SetFavorites(ctx, "u1", []string{"job-01", "job-02"})

	ids, err := svc.Remove(ctx, "u1", "job-01")
	if err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if strings.Join(ids, ",") != "job-02" {
		t.Fatalf("unexpected bookmarks after remove: %v", ids)
	}
	if _, err := svc.Remove(ctx, "u1", "job-01"); err != nil {
		t.Fatalf("second Remove returned error: %v", err)
	}
	if len(pub.events) != 1 || pub.events[0].Type != models.EventBookmarkRemoved {
		t.Fatalf("expected a single bookmark.removed event, got %+v", pub.events)
	}
}

func TestFavoritesMergeKeepsServerOrder(t *testing.T) {
	store, jobs, pub := newUserFixture(5)
	svc := NewFavoritesService(store, jobs, pub)
	ctx := context.Background()
	_ = store.SetFavorites(ctx, "u1", []string{"job-03", "job-01"})

	res, err := svc.Merge(ctx, "u1", []string{"job-01", "job-05", "job-02"})
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if !res.Merged || res.LocalCount != 3 {
		t.Fatalf("unexpected merge result: %+v", res)
	}
	ids, _ := store.GetFavorites(ctx, "u1")
	if got := strings.Join(ids, ","); got != "job-03,job-01,job-05,job-02" {
		t.Fatalf("unexpected merged order: %s", got)
	}

	res, err = svc.Merge(ctx, "u1", []string{"job-05"})
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if res.Merged {
		t.Fatalf("merging known ids should report merged=false, got %+v", res)
	}
}

func TestFavoritesListJobsSkipsDeleted(t *testing.T) {
	store, jobs, pub := newUserFixture(3)
	svc := NewFavoritesService(store, jobs, pub)
	ctx := context.Background()
	_ = store.SetFavorites(ctx, "u1", []string{"job-02", "gone", "job-01"})

	list, err := svc.ListJobs(ctx, "u1")
	if err != nil {
		t.Fatalf("ListJobs returned error: %v", err)
	}
	if got := slugOrder(list); got != "job-02,job-01" {
		t.Fatalf("unexpected jobs: %s", got)
	}
}

func TestFavoritesPublishFailureDoesNotFail(t *testing.T) {
	store, jobs, pub := newUserFixture(1)
	pub.err = errors.New("broker down")
	svc := NewFavoritesService(store, jobs, pub)

	if _, err := svc.Add(context.Background(), "u1", "job-01"); err != nil {
		t.Fatalf("Add should ignore publish errors, got %v", err)
	}
}

func TestApplicationsApplyAndList(t *testing.T) {
	store, jobs, pub := newUserFixture(3)
	svc := NewApplicationsService(store, jobs, pub)
	svc.now = func() time.Time { return baseTime }
	ctx := context.Background()

	app, err := svc.Apply(ctx, "u1", dtos.ApplicationRequest{JobID: "job-02", Comment: "  referral  "})
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if app.CreatedAt != "2025-06-01T12:00:00.000Z" || app.Comment != "referral" {
		t.Fatalf("unexpected application: %+v", app)
	}

	if _, err := svc.Apply(ctx, "u1", dtos.ApplicationRequest{JobID: "job-02", Comment: "second", CreatedAt: "2025-07-01T00:00:00Z"}); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	views, err := svc.List(ctx, "u1")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected re-applying to replace the entry, got %d", len(views))
	}
	if views[0].Comment != "second" || views[0].CreatedAt != "2025-07-01T00:00:00.000Z" {
		t.Fatalf("unexpected entry: %+v", views[0].Application)
	}
	if views[0].Job == nil || views[0].Job.Slug != "job-02" {
		t.Fatalf("expected job to be joined, got %+v", views[0].Job)
	}
	if len(pub.events) != 2 || pub.events[0].Type != models.EventApplicationCreated {
		t.Fatalf("unexpected events: %+v", pub.events)
	}
}

func TestApplicationsApplyUnknownJob(t *testing.T) {
	store, jobs, pub := newUserFixture(1)
	svc := NewApplicationsService(store, jobs, pub)

	_, err := svc.Apply(context.Background(), "u1", dtos.ApplicationRequest{JobID: "nope"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestApplicationsRemove(t *testing.T) {
	store, jobs, pub := newUserFixture(2)
	svc := NewApplicationsService(store, jobs, pub)
	ctx := context.Background()
	_ = store.UpsertApplication(ctx, "u1", models.Application{JobID: "job-01", CreatedAt: "2025-06-01T12:00:00.000Z"})

	if err := svc.Remove(ctx, "u1", "job-01"); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	views, _ := svc.List(ctx, "u1")
	if len(views) != 0 {
		t.Fatalf("expected no applications, got %d", len(views))
	}
}

type fakeUploader struct {
	calls       int
	kind        upload.Kind
	filename    string
	contentType string
	err         error
}

func (u *fakeUploader) Upload(ctx context.Context, kind upload.Kind, filename, contentType string, data []byte) (string, error) {
	u.calls++
	u.kind, u.filename, u.contentType = kind, filename, contentType
	if u.err != nil {
		return "", u.err
	}
	return "https://files.example.com/" + string(kind) + "/" + filename, nil
}

type passthroughCompressor struct{ called bool }

func (c *passthroughCompressor) CompressOrOriginal(ctx context.Context, src []byte, contentType string) ([]byte, string) {
	c.called = true
	return src, "image/jpeg"
}

var testUser = &models.User{UID: "u1", Email: "ada@example.com", DisplayName: "Ada", PhotoURL: "https://idp/ada.png"}

// pngHeader is enough for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func TestProfileUpdatePhoneNormalizes(t *testing.T) {
	store, _, _ := newUserFixture(0)
	svc := NewProfileService(store, &fakeUploader{}, nil)

	resp, err := svc.UpdatePhone(context.Background(), testUser, "8 (912) 345-67-89")
	if err != nil {
		t.Fatalf("UpdatePhone returned error: %v", err)
	}
	if resp.Phone != "+79123456789" {
		t.Fatalf("phone = %q", resp.Phone)
	}

	_, err = svc.UpdatePhone(context.Background(), testUser, "12345")
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "phone" {
		t.Fatalf("expected phone ValidationError, got %v", err)
	}
}

func TestProfileUpdateDisplayName(t *testing.T) {
	store, _, _ := newUserFixture(0)
	svc := NewProfileService(store, &fakeUploader{}, nil)
	ctx := context.Background()

	if _, err := svc.UpdateDisplayName(ctx, testUser, "   "); err == nil {
		t.Fatal("expected empty display name to be rejected")
	}

	// unchanged names never reach the store
	if _, err := svc.UpdateDisplayName(ctx, testUser, " Ada "); err != nil {
		t.Fatalf("UpdateDisplayName returned error: %v", err)
	}
	if _, ok, _ := store.GetProfile(ctx, "u1"); ok {
		t.Fatal("expected no profile write for an unchanged name")
	}

	resp, err := svc.UpdateDisplayName(ctx, testUser, "Ada Lovelace")
	if err != nil {
		t.Fatalf("UpdateDisplayName returned error: %v", err)
	}
	if resp.DisplayName != "Ada Lovelace" || resp.Email != "ada@example.com" {
		t.Fatalf("unexpected profile: %+v", resp)
	}
}

func TestProfileUploadAvatar(t *testing.T) {
	store, _, _ := newUserFixture(0)
	up := &fakeUploader{}
	comp := &passthroughCompressor{}
	svc := NewProfileService(store, up, comp)

	resp, err := svc.UploadAvatar(context.Background(), testUser, "me.png", pngHeader)
	if err != nil {
		t.Fatalf("UploadAvatar returned error: %v", err)
	}
	if !comp.called {
		t.Fatal("expected avatar to go through the compressor")
	}
	if up.kind != upload.KindAvatar || up.filename != "me.jpg" || up.contentType != "image/jpeg" {
		t.Fatalf("unexpected upload: %+v", up)
	}
	if resp.PhotoURL != "https://files.example.com/avatar/me.jpg" {
		t.Fatalf("photoURL = %q", resp.PhotoURL)
	}
}

func TestProfileUploadRejectsBeforeNetwork(t *testing.T) {
	store, _, _ := newUserFixture(0)
	up := &fakeUploader{}
	svc := NewProfileService(store, up, nil)
	ctx := context.Background()

	if _, err := svc.UploadAvatar(ctx, testUser, "cv.pdf", []byte("%PDF-1.4\n")); err == nil {
		t.Fatal("expected pdf avatar to be rejected")
	}
	if _, err := svc.UploadResume(ctx, testUser, "me.png", pngHeader); err == nil {
		t.Fatal("expected png resume to be rejected")
	}
	if up.calls != 0 {
		t.Fatalf("upload API called %d times for rejected files", up.calls)
	}
}

func TestProfileUploadResume(t *testing.T) {
	store, _, _ := newUserFixture(0)
	svc := NewProfileService(store, &fakeUploader{}, nil)

	resp, err := svc.UploadResume(context.Background(), testUser, "Ada CV.pdf", []byte("%PDF-1.7\n1 0 obj\n"))
	if err != nil {
		t.Fatalf("UploadResume returned error: %v", err)
	}
	if resp.ResumeName != "Ada CV.pdf" || !strings.HasSuffix(resp.ResumeURL, "/resume/Ada CV.pdf") {
		t.Fatalf("unexpected resume fields: %+v", resp)
	}
}

func TestProfileUploadPropagatesStatusError(t *testing.T) {
	store, _, _ := newUserFixture(0)
	svc := NewProfileService(store, &fakeUploader{err: &upload.StatusError{Code: 500}}, nil)

	_, err := svc.UploadResume(context.Background(), testUser, "cv.pdf", []byte("%PDF-1.4\n"))
	var se *upload.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
}
