package video

import (
	"context"
	"fmt"

	"aivideo/internal/domain"
	"aivideo/internal/prompt"
	"aivideo/internal/providers/runway"
)

// TaskCreator is the part of *runway.Client used to submit tasks.
type TaskCreator interface {
	CreateTask(ctx context.Context, req runway.TaskRequest) (string, error)
}

// RunwayGenerator submits tasks to Runway and waits with the poller.
type RunwayGenerator struct {
	client TaskCreator
	poller *runway.Poller
}

func NewRunwayGenerator(client TaskCreator, poller *runway.Poller) *RunwayGenerator {
	return &RunwayGenerator{client: client, poller: poller}
}

func (g *RunwayGenerator) Name() string { return "runway" }

func (g *RunwayGenerator) Mode() string { return domain.ModeProduction }

func (g *RunwayGenerator) Start(ctx context.Context, req Request) (string, error) {
	ratio := req.AspectRatio
	if ratio == "" {
		ratio = domain.DefaultAspectRatio
	}
	if !runway.SupportedAspectRatio(ratio) {
		return "", fmt.Errorf("%w: runway does not support aspect ratio %q", domain.ErrInvalidSettings, ratio)
	}
	taskID, err := g.client.CreateTask(ctx, runway.TaskRequest{
		Prompt:      prompt.WithStyle(req.Prompt, req.Style),
		Duration:    req.Duration,
		AspectRatio: ratio,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}
	return taskID, nil
}

// Wait maps Runway progress (0..1) onto 10..95 percent; the first 10 are
// reserved for task creation and completion jumps to 100.
func (g *RunwayGenerator) Wait(ctx context.Context, taskID string, onProgress ProgressFunc) (string, error) {
	var report runway.ProgressFunc
	if onProgress != nil {
		report = func(_ string, progress float64) {
			onProgress(scaleProgress(progress))
		}
	}
	res, err := g.poller.Wait(ctx, taskID, report)
	if err != nil {
		return "", err
	}
	return res.VideoURL, nil
}

func scaleProgress(p float64) int {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return 10 + int(p*85)
}

var _ Generator = (*RunwayGenerator)(nil)
