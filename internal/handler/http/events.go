package http

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/sefaaycicek/fakestore/pkg/middleware"
)

// DefaultHeartbeat is the interval between SSE keep-alive comments.
const DefaultHeartbeat = 15 * time.Second

// Events handles GET /api/v1/listings/{id}/events. It streams every state
// snapshot as a "state" event and every notification as a "notice" event
// until the client disconnects or the session closes. Heartbeats keep the
// session from being evicted while a client is watching it.
func (h *ListingHandler) Events(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	rc := http.NewResponseController(w)
	states, unsubscribe := sess.Controller.Subscribe()
	defer unsubscribe()
	notices := sess.Controller.Notifications()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		h.logger.WarnContext(r.Context(), "event stream not supported by response writer",
			slog.String("error", err.Error()),
		)
		return
	}

	heartbeat := time.NewTicker(h.heartbeatInterval())
	defer heartbeat.Stop()

	ctx := r.Context()
	owner := middleware.OwnerFromRequest(r)
	for {
		var err error
		select {
		case <-ctx.Done():
			return
		case state, ok := <-states:
			if !ok {
				return
			}
			err = writeEvent(w, "state", strconv.FormatUint(state.Version, 10), state)
		case notice, ok := <-notices:
			if !ok {
				notices = nil
				continue
			}
			err = writeEvent(w, "notice", "", notice)
		case <-heartbeat.C:
			if h.sessions.Touch(owner, sess.ID) != nil {
				return
			}
			_, err = io.WriteString(w, ": ping\n\n")
		}
		if err == nil {
			err = rc.Flush()
		}
		if err != nil {
			h.logger.DebugContext(ctx, "event stream closed", slog.String("error", err.Error()))
			return
		}
	}
}

func (h *ListingHandler) heartbeatInterval() time.Duration {
	if h.heartbeat > 0 {
		return h.heartbeat
	}
	return DefaultHeartbeat
}

// writeEvent writes one server-sent event with a JSON payload.
func writeEvent(w io.Writer, name, id string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", name, err)
	}
	if id != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", id); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	return err
}
