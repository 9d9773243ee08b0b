package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"aivideo/internal/adapter/repo"
	"aivideo/internal/domain"
	"aivideo/internal/events"
	"aivideo/internal/infra"
)

func newTestManager(queue Queue, gens fakeResolver) (*Manager, *repo.MemoryJobRepository, *recordingPublisher) {
	store := repo.NewMemoryJobRepository()
	pub := &recordingPublisher{}
	m := NewManager(store, queue, gens, pub, infra.NopLogger(), Options{MinPromptLength: 3})
	return m, store, pub
}

func TestManagerCreateValidation(t *testing.T) {
	m, _, _ := newTestManager(NewMemoryQueue(10), fakeResolver{"runway": newRunwayFake()})
	tests := []struct {
		name string
		req  CreateRequest
		want error
	}{
		{"empty prompt", CreateRequest{Prompt: ""}, domain.ErrInvalidPrompt},
		{"blank prompt", CreateRequest{Prompt: "   "}, domain.ErrInvalidPrompt},
		{"short prompt", CreateRequest{Prompt: "ab"}, domain.ErrInvalidPrompt},
		{"bad duration", CreateRequest{Prompt: "a cat", Duration: 30}, domain.ErrInvalidSettings},
		{"bad ratio", CreateRequest{Prompt: "a cat", AspectRatio: "4:3"}, domain.ErrInvalidSettings},
		{"long style", CreateRequest{Prompt: "a cat", Style: strings.Repeat("noir ", 20)}, domain.ErrInvalidSettings},
		{"unknown provider", CreateRequest{Prompt: "a cat", Provider: "pika"}, domain.ErrUnknownProvider},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := m.Create(context.Background(), tc.req); !errors.Is(err, tc.want) {
				t.Fatalf("Create = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestManagerCreateStoresPendingJob(t *testing.T) {
	queue := NewMemoryQueue(10)
	m, store, pub := newTestManager(queue, fakeResolver{"runway": newRunwayFake()})

	job, err := m.Create(context.Background(), CreateRequest{Prompt: "  a  cat  ", Style: "Anime", Country: "DE"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if job.ID == "" || job.Status != domain.JobStatusPending || job.Prompt != "a cat" {
		t.Fatalf("unexpected job: %+v", job)
	}
	if job.Style != "anime" || job.Duration != 10 || job.AspectRatio != "16:9" || job.Country != "DE" {
		t.Fatalf("unexpected settings: %+v", job)
	}
	if _, err := store.Get(context.Background(), job.ID); err != nil {
		t.Fatalf("job not stored: %v", err)
	}
	if n, _ := queue.Len(context.Background()); n != 1 {
		t.Fatalf("queue len = %d, want 1", n)
	}
	if types := pub.types(); len(types) != 1 || types[0] != events.JobCreated {
		t.Fatalf("unexpected events: %v", types)
	}
}

func TestManagerCreateQueueFull(t *testing.T) {
	queue := NewMemoryQueue(1)
	m, store, _ := newTestManager(queue, fakeResolver{"runway": newRunwayFake()})

	if _, err := m.Create(context.Background(), CreateRequest{Prompt: "first"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := m.Create(context.Background(), CreateRequest{Prompt: "second"})
	if !errors.Is(err, domain.ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}

	jobs, _ := store.List(context.Background(), 10)
	if len(jobs) != 2 {
		t.Fatalf("expected both jobs stored, got %d", len(jobs))
	}
	if jobs[0].Status != domain.JobStatusFailed || jobs[0].Error != "queue full" {
		t.Fatalf("rejected job should be failed: %+v", jobs[0])
	}
}

type recordingCanceler struct{ ids []string }

func (c *recordingCanceler) Cancel(id string) bool {
	c.ids = append(c.ids, id)
	return true
}

func TestManagerDelete(t *testing.T) {
	m, _, pub := newTestManager(NewMemoryQueue(10), fakeResolver{"runway": newRunwayFake()})
	canceler := &recordingCanceler{}
	m.SetCanceler(canceler)

	if err := m.Delete(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	job, _ := m.Create(context.Background(), CreateRequest{Prompt: "a cat"})
	if err := m.Delete(context.Background(), job.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(canceler.ids) != 1 || canceler.ids[0] != job.ID {
		t.Fatalf("in-flight job not cancelled: %v", canceler.ids)
	}
	jobs, _ := m.List(context.Background(), 0)
	for _, j := range jobs {
		if j.ID == job.ID {
			t.Fatalf("deleted job still listed")
		}
	}
	types := pub.types()
	if types[len(types)-1] != events.JobDeleted {
		t.Fatalf("expected job.deleted event, got %v", types)
	}
}

func TestManagerListCapsAtFifty(t *testing.T) {
	m, store, _ := newTestManager(NewMemoryQueue(100), fakeResolver{"runway": newRunwayFake()})
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 55; i++ {
		job := domain.NewJob(fmt.Sprintf("job-%02d", i), "prompt", domain.Settings{}.WithDefaults(), "runway", base.Add(time.Duration(i)*time.Second))
		_ = store.Save(context.Background(), job)
	}

	jobs, err := m.List(context.Background(), 1000)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(jobs) != 50 || jobs[0].ID != "job-54" || jobs[49].ID != "job-05" {
		t.Fatalf("unexpected page: len=%d first=%s last=%s", len(jobs), jobs[0].ID, jobs[len(jobs)-1].ID)
	}
}

func TestManagerSweep(t *testing.T) {
	m, store, _ := newTestManager(NewMemoryQueue(10), fakeResolver{"runway": newRunwayFake()})
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	_ = store.Save(context.Background(), domain.NewJob("old", "prompt", domain.Settings{}, "runway", now.Add(-25*time.Hour)))
	_ = store.Save(context.Background(), domain.NewJob("new", "prompt", domain.Settings{}, "runway", now.Add(-time.Hour)))

	n, err := m.Sweep(context.Background(), 24*time.Hour)
	if err != nil || n != 1 {
		t.Fatalf("sweep = %d, %v", n, err)
	}
	if _, err := store.Get(context.Background(), "new"); err != nil {
		t.Fatalf("recent job swept: %v", err)
	}
}

func TestManagerRecover(t *testing.T) {
	m, store, _ := newTestManager(NewMemoryQueue(10), fakeResolver{"runway": newRunwayFake()})
	ctx := context.Background()
	for _, id := range []string{"pending", "processing", "done"} {
		seedJob(t, store, id)
	}
	_, _ = store.Update(ctx, "processing", domain.Update{Status: domain.JobStatusProcessing})
	_, _ = store.Update(ctx, "done", domain.Update{Status: domain.JobStatusCompleted, VideoURL: "https://v"})

	n, err := m.Recover(ctx, true)
	if err != nil || n != 1 {
		t.Fatalf("recover keepQueued = %d, %v", n, err)
	}
	if job, _ := store.Get(ctx, "pending"); job.Status != domain.JobStatusPending {
		t.Fatalf("queued job should survive: %+v", job)
	}

	n, err = m.Recover(ctx, false)
	if err != nil || n != 1 {
		t.Fatalf("recover = %d, %v", n, err)
	}
	for _, id := range []string{"pending", "processing"} {
		job, _ := store.Get(ctx, id)
		if job.Status != domain.JobStatusFailed || job.Error != "interrupted by restart" {
			t.Fatalf("job %s not recovered: %+v", id, job)
		}
	}
	if job, _ := store.Get(ctx, "done"); job.Status != domain.JobStatusCompleted {
		t.Fatalf("terminal job touched: %+v", job)
	}
}

func TestManagerRecoverFailsPoppedPendingJobs(t *testing.T) {
	ctx := context.Background()
	client := newFakeRedis()
	queue := NewRedisQueue(client, "", 10)
	m, store, _ := newTestManager(queue, fakeResolver{"runway": newRunwayFake()})

	seedJob(t, store, "queued")
	seedJob(t, store, "popped")
	_ = queue.Enqueue(ctx, "popped")
	_ = queue.Enqueue(ctx, "queued")
	// A worker took "popped" off the list and died before starting it.
	if id, err := queue.Dequeue(ctx); err != nil || id != "popped" {
		t.Fatalf("dequeue = %q, %v", id, err)
	}

	n, err := m.Recover(ctx, true)
	if err != nil || n != 1 {
		t.Fatalf("recover = %d, %v", n, err)
	}
	if job, _ := store.Get(ctx, "queued"); job.Status != domain.JobStatusPending {
		t.Fatalf("queued job should survive: %+v", job)
	}
	if job, _ := store.Get(ctx, "popped"); job.Status != domain.JobStatusFailed || job.Error != "interrupted by restart" {
		t.Fatalf("popped job not recovered: %+v", job)
	}
}
