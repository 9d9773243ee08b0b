package jobs

import (
	"context"
	"sync"

	"aivideo/internal/domain"
	"aivideo/internal/events"
	"aivideo/internal/providers/video"
)

type fakeGenerator struct {
	name     string
	mode     string
	taskID   string
	url      string
	startErr error
	waitErr  error
	progress []int
	release  chan struct{}

	mu      sync.Mutex
	started []video.Request
}

func (g *fakeGenerator) Name() string { return g.name }
func (g *fakeGenerator) Mode() string { return g.mode }

func (g *fakeGenerator) Start(ctx context.Context, req video.Request) (string, error) {
	g.mu.Lock()
	g.started = append(g.started, req)
	g.mu.Unlock()
	if g.startErr != nil {
		return "", g.startErr
	}
	return g.taskID, nil
}

func (g *fakeGenerator) Wait(ctx context.Context, taskID string, onProgress video.ProgressFunc) (string, error) {
	for _, p := range g.progress {
		onProgress(p)
	}
	if g.release != nil {
		select {
		case <-g.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if g.waitErr != nil {
		return "", g.waitErr
	}
	return g.url, nil
}

type fakeResolver map[string]video.Generator

func (r fakeResolver) Resolve(name string) (video.Generator, error) {
	if name == "" {
		name = domain.DefaultProvider
	}
	g, ok := r[name]
	if !ok {
		return nil, domain.ErrUnknownProvider
	}
	return g, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

func newRunwayFake() *fakeGenerator {
	return &fakeGenerator{name: "runway", mode: domain.ModeProduction, taskID: "task-1", url: "https://cdn.example.com/out.mp4"}
}
