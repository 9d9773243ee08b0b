package video

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"aivideo/internal/domain"
)

// Request is what a generator needs to start one video.
type Request struct {
	JobID       string
	Prompt      string
	Style       string
	Duration    int
	AspectRatio string
}

// ProgressFunc receives job progress in percent while a task is running.
type ProgressFunc func(percent int)

// Generator starts a remote task and waits for its video URL. Start returns
// as soon as the provider has accepted the task so the caller can record
// the task id before the long wait.
type Generator interface {
	Name() string
	Mode() string
	Start(ctx context.Context, req Request) (taskID string, err error)
	Wait(ctx context.Context, taskID string, onProgress ProgressFunc) (videoURL string, err error)
}

// Registry resolves provider names to generators.
type Registry struct {
	generators map[string]Generator
	fallback   Generator
}

// NewRegistry registers gens by name. fallback serves requests for a
// registered provider that cannot run, e.g. runway without an API key.
func NewRegistry(fallback Generator, gens ...Generator) *Registry {
	r := &Registry{generators: make(map[string]Generator), fallback: fallback}
	for _, g := range gens {
		r.generators[g.Name()] = g
	}
	if fallback != nil {
		r.generators[fallback.Name()] = fallback
	}
	return r
}

// Resolve returns the generator for name; "" means the default provider.
func (r *Registry) Resolve(name string) (Generator, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = domain.DefaultProvider
	}
	if g, ok := r.generators[name]; ok {
		return g, nil
	}
	if name == domain.DefaultProvider && r.fallback != nil {
		return r.fallback, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrUnknownProvider, name)
}

// Names lists registered providers.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.generators))
	for name := range r.generators {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
