package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"aivideo/internal/domain"
	"aivideo/internal/events"
)

const streamWriteWait = 10 * time.Second

// StatusStream upgrades to a WebSocket and pushes job snapshots until the
// job reaches a terminal status, is deleted, or the client goes away.
func (a *App) StatusStream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := a.Jobs.Get(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	var updates <-chan events.Event
	cancel := func() {}
	if a.Hub != nil {
		updates, cancel = a.Hub.Subscribe(id)
	}
	defer cancel()

	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.log(r).Warn().Err(err).Str("job_id", id).Msg("stream: upgrade failed")
		return
	}
	defer conn.Close()

	// Reader goroutine only exists to notice the client closing.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	send := func(j *domain.Job) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		if err := conn.WriteJSON(j); err != nil {
			return false
		}
		return !j.Status.Terminal()
	}
	if !send(job) {
		a.closeStream(conn, "job finished")
		return
	}

	refresh := a.StreamRefresh
	if refresh <= 0 {
		refresh = 2 * time.Second
	}
	ticker := time.NewTicker(refresh)
	defer ticker.Stop()

	last := job.UpdatedAt
	for {
		select {
		case <-r.Context().Done():
			return
		case <-gone:
			return
		case ev, ok := <-updates:
			if !ok {
				a.closeStream(conn, "server shutting down")
				return
			}
			if ev.Type == events.JobDeleted {
				a.closeStream(conn, "job deleted")
				return
			}
			last = ev.Job.UpdatedAt
			if !send(ev.Job) {
				a.closeStream(conn, "job finished")
				return
			}
		case <-ticker.C:
			current, err := a.Jobs.Get(r.Context(), id)
			if errors.Is(err, domain.ErrNotFound) {
				a.closeStream(conn, "job deleted")
				return
			}
			if err != nil || !current.UpdatedAt.After(last) {
				continue
			}
			last = current.UpdatedAt
			if !send(current) {
				a.closeStream(conn, "job finished")
				return
			}
		}
	}
}

func (a *App) closeStream(conn *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(streamWriteWait))
}
