// internal/handlers/changes.go
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ammerola/inventory-be/internal/core/domain"
	"github.com/ammerola/inventory-be/internal/core/router"
)

// Subscriber hands out change streams. *notify.Hub implements it.
type Subscriber interface {
	Subscribe(buffer int) (<-chan domain.Change, func())
}

// ChangesHandler streams committed changes as server-sent events
type ChangesHandler struct {
	hub       Subscriber
	buffer    int
	heartbeat time.Duration
	logger    *slog.Logger
}

// NewChangesHandler creates a new changes handler
func NewChangesHandler(hub Subscriber, buffer int, heartbeat time.Duration, logger *slog.Logger) *ChangesHandler {
	if heartbeat <= 0 {
		heartbeat = 15 * time.Second
	}
	return &ChangesHandler{
		hub:       hub,
		buffer:    buffer,
		heartbeat: heartbeat,
		logger:    logger.With(slog.String("handler", "changes")),
	}
}

// Stream handles GET /api/v1/changes. ?collection=products limits the
// stream to one collection.
func (h *ChangesHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var only domain.Collection
	if c := r.URL.Query().Get("collection"); c != "" {
		target, err := router.Resolve(domain.OpQuery, c, nil)
		if err != nil {
			respondJSON(w, h.logger, http.StatusNotFound, ErrorResponse{Error: err.Error(), Kind: "unsupported_resource"})
			return
		}
		only = target.Collection
	}

	rc := http.NewResponseController(w)
	// The server write timeout would otherwise cut long-lived streams.
	_ = rc.SetWriteDeadline(time.Time{})

	changes, cancel := h.hub.Subscribe(h.buffer)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := h.send(rc, w, ": subscribed\n\n"); err != nil {
		return
	}

	h.logger.DebugContext(ctx, "change stream opened", slog.String("collection", string(only)))
	defer h.logger.DebugContext(context.WithoutCancel(ctx), "change stream closed")

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := h.send(rc, w, ": ping\n\n"); err != nil {
				return
			}
		case change, ok := <-changes:
			if !ok {
				return
			}
			if only != "" && change.Collection != only {
				continue
			}
			data, err := json.Marshal(change)
			if err != nil {
				h.logger.ErrorContext(ctx, "failed to encode change",
					slog.String("error", err.Error()))
				continue
			}
			if err := h.send(rc, w, fmt.Sprintf("event: change\ndata: %s\n\n", data)); err != nil {
				return
			}
		}
	}
}

func (h *ChangesHandler) send(rc *http.ResponseController, w http.ResponseWriter, frame string) error {
	if _, err := fmt.Fprint(w, frame); err != nil {
		return err
	}
	return rc.Flush()
}
