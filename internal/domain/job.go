package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusGenerating JobStatus = "generating"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Job generation modes.
const (
	ModeProduction = "production"
	ModeDemo       = "demo"
)

// Generation setting defaults.
const (
	DefaultDuration    = 10
	DefaultStyle       = "cinematic"
	DefaultAspectRatio = "16:9"
	DefaultProvider    = "runway"
)

var statusRank = map[JobStatus]int{
	JobStatusPending:    0,
	JobStatusGenerating: 1,
	JobStatusProcessing: 2,
	JobStatusCompleted:  3,
	JobStatusFailed:     3,
}

// Valid reports whether s is a known status.
func (s JobStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Terminal reports whether no further transitions may happen from s.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransition reports whether a job may move from s to next. Status only
// moves forward; failed is reachable from any non-terminal state.
func (s JobStatus) CanTransition(next JobStatus) bool {
	if s.Terminal() || !next.Valid() {
		return false
	}
	if next == JobStatusFailed {
		return true
	}
	return statusRank[next] > statusRank[s]
}

// Settings are the caller supplied generation parameters.
type Settings struct {
	Duration    int    `json:"duration"`
	Style       string `json:"style"`
	AspectRatio string `json:"aspectRatio"`
}

// Supported durations (seconds) and aspect ratios.
var (
	AllowedDurations    = []int{5, 10}
	AllowedAspectRatios = []string{"16:9", "9:16", "1:1"}
)

// WithDefaults fills zero values with the service defaults.
func (s Settings) WithDefaults() Settings {
	if s.Duration == 0 {
		s.Duration = DefaultDuration
	}
	if strings.TrimSpace(s.Style) == "" {
		s.Style = DefaultStyle
	}
	if strings.TrimSpace(s.AspectRatio) == "" {
		s.AspectRatio = DefaultAspectRatio
	}
	return s
}

// Validate checks duration and aspect ratio against the supported values.
func (s Settings) Validate() error {
	if !slices.Contains(AllowedDurations, s.Duration) {
		return fmt.Errorf("%w: duration must be one of %v seconds", ErrInvalidSettings, AllowedDurations)
	}
	if !slices.Contains(AllowedAspectRatios, s.AspectRatio) {
		return fmt.Errorf("%w: aspectRatio must be one of %v", ErrInvalidSettings, AllowedAspectRatios)
	}
	return nil
}

// Job is one video generation request and its lifecycle state.
type Job struct {
	ID          string     `json:"id"`
	Prompt      string     `json:"prompt"`
	Status      JobStatus  `json:"status"`
	Progress    int        `json:"progress"`
	VideoURL    string     `json:"videoUrl,omitempty"`
	Error       string     `json:"error,omitempty"`
	Settings               // inlined into the JSON object
	Provider    string     `json:"provider"`
	TaskID      string     `json:"taskId,omitempty"`
	Mode        string     `json:"mode"`
	Country     string     `json:"country,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	FailedAt    *time.Time `json:"failedAt,omitempty"`
}

// NewJob builds a pending job.
func NewJob(id, prompt string, settings Settings, provider string, now time.Time) *Job {
	return &Job{
		ID:        id,
		Prompt:    prompt,
		Status:    JobStatusPending,
		Settings:  settings,
		Provider:  provider,
		Mode:      ModeProduction,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Update describes a single state change applied by the worker.
type Update struct {
	Status   JobStatus
	Progress int
	TaskID   string
	VideoURL string
	Error    string
	Mode     string
}

// Apply validates u against the current state and mutates j in place.
func (j *Job) Apply(u Update, now time.Time) error {
	if j.Status.Terminal() {
		return fmt.Errorf("%w: job %s is %s", ErrInvalidTransition, j.ID, j.Status)
	}
	if u.Status == "" {
		u.Status = j.Status
	}
	if u.Status != j.Status && !j.Status.CanTransition(u.Status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, u.Status)
	}
	switch u.Status {
	case JobStatusCompleted:
		if strings.TrimSpace(u.VideoURL) == "" {
			return fmt.Errorf("%w: completed without video url", ErrInvalidTransition)
		}
		j.VideoURL = u.VideoURL
		j.Error = ""
		j.Progress = 100
		j.CompletedAt = &now
	case JobStatusFailed:
		msg := strings.TrimSpace(u.Error)
		if msg == "" {
			msg = "generation failed"
		}
		j.Error = msg
		j.VideoURL = ""
		j.FailedAt = &now
	default:
		if u.Progress > j.Progress {
			j.Progress = clampProgress(u.Progress)
		}
	}
	if u.TaskID != "" {
		j.TaskID = u.TaskID
	}
	if u.Mode != "" {
		j.Mode = u.Mode
	}
	j.Status = u.Status
	j.UpdatedAt = now
	return nil
}

// Clone returns a deep copy safe to hand out of a store.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	c := *j
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	if j.FailedAt != nil {
		t := *j.FailedAt
		c.FailedAt = &t
	}
	return &c
}

func clampProgress(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
