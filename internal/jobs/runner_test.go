package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"aivideo/internal/adapter/repo"
	"aivideo/internal/domain"
	"aivideo/internal/events"
	"aivideo/internal/infra"
	"aivideo/internal/providers/runway"
)

func seedJob(t *testing.T, store domain.JobStore, id string) {
	t.Helper()
	job := domain.NewJob(id, "a red fox in snow", domain.Settings{}.WithDefaults(), domain.DefaultProvider, time.Now())
	if err := store.Save(context.Background(), job); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestRunnerCompletesJob(t *testing.T) {
	store := repo.NewMemoryJobRepository()
	seedJob(t, store, "job-1")
	gen := newRunwayFake()
	gen.progress = []int{30, 60}
	pub := &recordingPublisher{}
	runner := NewRunner(store, fakeResolver{"runway": gen}, pub, infra.NopLogger())

	runner.Process(context.Background(), "job-1")

	job, _ := store.Get(context.Background(), "job-1")
	if job.Status != domain.JobStatusCompleted || job.VideoURL != gen.url || job.TaskID != "task-1" || job.Progress != 100 {
		t.Fatalf("unexpected job: %+v", job)
	}
	if job.Mode != domain.ModeProduction {
		t.Fatalf("mode = %q", job.Mode)
	}
	types := pub.types()
	if len(types) != 5 || types[len(types)-1] != events.JobCompleted {
		t.Fatalf("unexpected events: %v", types)
	}
	if gen.started[0].Style != domain.DefaultStyle || gen.started[0].Duration != domain.DefaultDuration {
		t.Fatalf("unexpected request: %+v", gen.started[0])
	}
}

func TestRunnerFailureMessages(t *testing.T) {
	tests := []struct {
		name     string
		startErr error
		waitErr  error
		want     string
	}{
		{"start error", errors.New("402: no credits"), nil, "402: no credits"},
		{"remote failure", nil, &runway.TaskFailedError{TaskID: "t", Status: "FAILED", Reason: "content moderation"}, "content moderation"},
		{"timeout", nil, runway.ErrPollTimeout, "generation timed out"},
		{"no url", nil, runway.ErrNoVideoURL, "generation finished without a video url"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := repo.NewMemoryJobRepository()
			seedJob(t, store, "job")
			gen := newRunwayFake()
			gen.startErr, gen.waitErr = tc.startErr, tc.waitErr
			NewRunner(store, fakeResolver{"runway": gen}, nil, infra.NopLogger()).Process(context.Background(), "job")

			job, _ := store.Get(context.Background(), "job")
			if job.Status != domain.JobStatusFailed || job.Error != tc.want || job.VideoURL != "" {
				t.Fatalf("unexpected job: %+v", job)
			}
		})
	}
}

func TestRunnerUnknownProviderFails(t *testing.T) {
	store := repo.NewMemoryJobRepository()
	seedJob(t, store, "job")
	NewRunner(store, fakeResolver{}, nil, infra.NopLogger()).Process(context.Background(), "job")

	job, _ := store.Get(context.Background(), "job")
	if job.Status != domain.JobStatusFailed {
		t.Fatalf("status = %s, want failed", job.Status)
	}
}

func TestRunnerShutdownMarksFailed(t *testing.T) {
	store := repo.NewMemoryJobRepository()
	seedJob(t, store, "job")
	gen := newRunwayFake()
	gen.release = make(chan struct{})
	runner := NewRunner(store, fakeResolver{"runway": gen}, nil, infra.NopLogger())

	ctx, cancel := context.WithCancelCause(context.Background())
	done := make(chan struct{})
	go func() {
		runner.Process(ctx, "job")
		close(done)
	}()
	waitForStatus(t, store, "job", domain.JobStatusProcessing)
	cancel(ErrShutdown)
	<-done

	job, _ := store.Get(context.Background(), "job")
	if job.Status != domain.JobStatusFailed || job.Error != ErrShutdown.Error() {
		t.Fatalf("unexpected job: %+v", job)
	}
}

func TestRunnerSkipsTerminalAndMissing(t *testing.T) {
	store := repo.NewMemoryJobRepository()
	seedJob(t, store, "done")
	_, _ = store.Update(context.Background(), "done", domain.Update{Status: domain.JobStatusFailed, Error: "x"})
	gen := newRunwayFake()
	runner := NewRunner(store, fakeResolver{"runway": gen}, nil, infra.NopLogger())

	runner.Process(context.Background(), "done")
	runner.Process(context.Background(), "missing")
	if len(gen.started) != 0 {
		t.Fatalf("generator should not be called")
	}
}

func waitForStatus(t *testing.T, store domain.JobStore, id string, want domain.JobStatus) *domain.Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.Get(context.Background(), id)
		if err == nil && job.Status == want {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	job, _ := store.Get(context.Background(), id)
	t.Fatalf("job %s did not reach %s, last seen %+v", id, want, job)
	return nil
}
