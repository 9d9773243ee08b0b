package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"aivideo/internal/domain"
	"aivideo/internal/jobs"
	"aivideo/internal/middleware"
)

const maxGenerateBody = 64 << 10

type generateRequest struct {
	Prompt      string `json:"prompt"`
	Duration    int    `json:"duration"`
	Style       string `json:"style"`
	AspectRatio string `json:"aspectRatio"`
	Provider    string `json:"provider"`
}

type generateResponse struct {
	Success bool             `json:"success"`
	JobID   string           `json:"jobId"`
	Status  domain.JobStatus `json:"status"`
	Job     *domain.Job      `json:"job"`
}

func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxGenerateBody))
	if err := dec.Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	provider := req.Provider
	if p := chi.URLParam(r, "provider"); p != "" {
		provider = p
	}
	job, err := a.Jobs.Create(r.Context(), jobs.CreateRequest{
		Prompt:      req.Prompt,
		Duration:    req.Duration,
		Style:       req.Style,
		AspectRatio: req.AspectRatio,
		Provider:    provider,
		Country:     middleware.CountryFromContext(r.Context()),
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusAccepted, generateResponse{Success: true, JobID: job.ID, Status: job.Status, Job: job})
}

func (a *App) Status(w http.ResponseWriter, r *http.Request) {
	job, err := a.Jobs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, job)
}

func (a *App) List(w http.ResponseWriter, r *http.Request) {
	limit := domain.MaxListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			a.error(w, http.StatusBadRequest, "Invalid limit", fmt.Sprintf("limit must be a positive integer, got %q", raw))
			return
		}
		limit = n
	}
	list, err := a.Jobs.List(r.Context(), limit)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if list == nil {
		list = []*domain.Job{}
	}
	a.json(w, http.StatusOK, map[string]any{"videos": list})
}

func (a *App) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.Jobs.Delete(r.Context(), id); err != nil {
		a.fail(w, r, err)
		return
	}
	a.log(r).Info().Str("job_id", id).Str("subject", middleware.SubjectFromContext(r.Context())).Msg("video deleted")
	a.json(w, http.StatusOK, map[string]any{"success": true, "message": "Video deleted"})
}
