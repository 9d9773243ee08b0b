package repo

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/supabase-community/postgrest-go"

	"aivideo/internal/domain"
)

// fakePostgREST understands the handful of filters the repository sends.
type fakePostgREST struct {
	mu       sync.Mutex
	rows     map[string]supabaseRow
	requests []*http.Request
}

func newFakePostgREST() *fakePostgREST {
	return &fakePostgREST{rows: map[string]supabaseRow{}}
}

func (f *fakePostgREST) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r)

	if r.URL.Path != "/rest/v1/videos" {
		http.Error(w, `{"message":"unknown table"}`, http.StatusNotFound)
		return
	}
	body, _ := io.ReadAll(r.Body)
	q := r.URL.Query()

	switch r.Method {
	case http.MethodPost:
		var row supabaseRow
		if err := json.Unmarshal(body, &row); err != nil {
			http.Error(w, `{"message":"bad body"}`, http.StatusBadRequest)
			return
		}
		f.rows[row.ID] = row
		w.WriteHeader(http.StatusCreated)
	case http.MethodGet:
		matched := f.match(q)
		if order := q.Get("order"); strings.HasPrefix(order, "created_at.desc") {
			sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
		} else {
			sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.Before(matched[j].CreatedAt) })
		}
		if limit, err := strconv.Atoi(q.Get("limit")); err == nil && len(matched) > limit {
			matched = matched[:limit]
		}
		writeRows(w, matched)
	case http.MethodPatch:
		var patch supabasePatch
		_ = json.Unmarshal(body, &patch)
		matched := f.match(q)
		for i, row := range matched {
			row.Status = patch.Status
			row.Progress = patch.Progress
			row.VideoURL = patch.VideoURL
			row.Error = patch.Error
			row.TaskID = patch.TaskID
			row.Mode = patch.Mode
			row.UpdatedAt = patch.UpdatedAt
			row.CompletedAt = patch.CompletedAt
			row.FailedAt = patch.FailedAt
			f.rows[row.ID] = row
			matched[i] = row
		}
		writeRows(w, matched)
	case http.MethodDelete:
		matched := f.match(q)
		for _, row := range matched {
			delete(f.rows, row.ID)
		}
		writeRows(w, matched)
	}
}

func (f *fakePostgREST) match(q map[string][]string) []supabaseRow {
	out := make([]supabaseRow, 0)
	for _, row := range f.rows {
		if v := first(q["id"]); v != "" && "eq."+row.ID != v {
			continue
		}
		if v := first(q["status"]); v == "not.in.(completed,failed)" && (row.Status == "completed" || row.Status == "failed") {
			continue
		}
		if v := first(q["created_at"]); strings.HasPrefix(v, "lt.") {
			cutoff, err := time.Parse(time.RFC3339, strings.TrimPrefix(v, "lt."))
			if err != nil || !row.CreatedAt.Before(cutoff) {
				continue
			}
		}
		out = append(out, row)
	}
	return out
}

func first(vs []string) string {
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

func writeRows(w http.ResponseWriter, rows []supabaseRow) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rows)
}

func newSupabaseTestRepo(t *testing.T) (*JobRepositorySupabase, *fakePostgREST) {
	t.Helper()
	fake := newFakePostgREST()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	client := postgrest.NewClient(srv.URL+"/rest/v1", "public", map[string]string{"apikey": "test"})
	return NewSupabaseJobRepository(client, "videos"), fake
}

func TestSupabaseSaveGetUpdate(t *testing.T) {
	ctx := context.Background()
	repo, _ := newSupabaseTestRepo(t)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	if err := repo.Save(ctx, newTestJob("job-1", now)); err != nil {
		t.Fatalf("save: %v", err)
	}
	job, err := repo.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if job.Prompt != "prompt job-1" || job.Style != "cinematic" || !job.CreatedAt.Equal(now) {
		t.Fatalf("unexpected job: %+v", job)
	}

	job, err = repo.Update(ctx, "job-1", domain.Update{Status: domain.JobStatusCompleted, VideoURL: "https://cdn/v.mp4"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if job.Progress != 100 || job.CompletedAt == nil {
		t.Fatalf("unexpected completed job: %+v", job)
	}
	stored, _ := repo.Get(ctx, "job-1")
	if stored.Status != domain.JobStatusCompleted || stored.VideoURL != "https://cdn/v.mp4" {
		t.Fatalf("update not persisted: %+v", stored)
	}

	if _, err := repo.Update(ctx, "job-1", domain.Update{Status: domain.JobStatusFailed}); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestSupabaseGetMissing(t *testing.T) {
	repo, _ := newSupabaseTestRepo(t)
	if _, err := repo.Get(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSupabaseListOrdersAndLimits(t *testing.T) {
	ctx := context.Background()
	repo, fake := newSupabaseTestRepo(t)
	base := time.Now().UTC().Truncate(time.Second)
	for i, id := range []string{"a", "b", "c"} {
		_ = repo.Save(ctx, newTestJob(id, base.Add(time.Duration(i)*time.Minute)))
	}

	jobs, err := repo.List(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(jobs) != 2 || jobs[0].ID != "c" || jobs[1].ID != "b" {
		t.Fatalf("unexpected jobs: %+v", jobs)
	}
	last := fake.requests[len(fake.requests)-1]
	if last.URL.Query().Get("limit") != "2" {
		t.Fatalf("limit not forwarded: %s", last.URL.RawQuery)
	}
}

func TestSupabaseDeleteAndSweep(t *testing.T) {
	ctx := context.Background()
	repo, _ := newSupabaseTestRepo(t)
	now := time.Now().UTC().Truncate(time.Second)
	_ = repo.Save(ctx, newTestJob("old", now.Add(-48*time.Hour)))
	_ = repo.Save(ctx, newTestJob("new", now))

	if err := repo.Delete(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	n, err := repo.DeleteOlderThan(ctx, now.Add(-24*time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("sweep = %d, %v", n, err)
	}
	active, err := repo.ListActive(ctx)
	if err != nil || len(active) != 1 || active[0].ID != "new" {
		t.Fatalf("unexpected active: %+v %v", active, err)
	}
	if err := repo.Delete(ctx, "new"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}
