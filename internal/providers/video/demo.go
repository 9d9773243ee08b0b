package video

import (
	"context"
	"time"

	"aivideo/internal/domain"
)

// DemoGenerator stands in for Runway when no API key is configured. It
// returns a fixed sample clip after a short delay.
type DemoGenerator struct {
	videoURL string
	delay    time.Duration
}

func NewDemoGenerator(videoURL string, delay time.Duration) *DemoGenerator {
	return &DemoGenerator{videoURL: videoURL, delay: delay}
}

func (g *DemoGenerator) Name() string { return "demo" }

func (g *DemoGenerator) Mode() string { return domain.ModeDemo }

func (g *DemoGenerator) Start(ctx context.Context, req Request) (string, error) {
	return "demo_" + req.JobID, ctx.Err()
}

func (g *DemoGenerator) Wait(ctx context.Context, taskID string, onProgress ProgressFunc) (string, error) {
	if onProgress != nil {
		onProgress(50)
	}
	if g.delay > 0 {
		timer := time.NewTimer(g.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return g.videoURL, ctx.Err()
}

var _ Generator = (*DemoGenerator)(nil)
