package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/jspencer/lens/internal/constants"
	"github.com/jspencer/lens/internal/domain"
	"github.com/jspencer/lens/internal/source"
)

// streamEvent is the JSON payload of one SSE event
type streamEvent struct {
	Kind  string         `json:"kind"` // "append", "remove", "reset"
	From  int            `json:"from,omitempty"`
	Count int            `json:"count,omitempty"`
	Lines []LineResponse `json:"lines,omitempty"`
}

// StreamLines handles GET /api/v1/lines/stream (SSE). Each modification of
// the view becomes one event; appended lines are fetched and inlined.
func (h *Handlers) StreamLines(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: "streaming not supported",
			Code:  domain.ErrCodeStreamingNotSupported,
		})
		return
	}

	// The listener callback must not block: modifications are pushed into
	// a buffered channel and dropped when the client cannot keep up.
	mods := make(chan domain.Modification, constants.DefaultStreamBuffer)
	id := h.view.AddListener(source.ListenerFunc(func(_ source.LogSource, mod domain.Modification) {
		select {
		case mods <- mod:
		default:
			log.Printf("sse: dropped %s (client too slow)", mod)
		}
	}), 0, 1)
	defer h.view.RemoveListener(id)

	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case mod := <-mods:
			event, ok := h.toEvent(mod)
			if !ok {
				continue
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				log.Printf("sse: write error (client likely disconnected): %v", err)
				return
			}
			flusher.Flush()
		}
	}
}

func (h *Handlers) toEvent(mod domain.Modification) (streamEvent, bool) {
	switch {
	case mod.IsReset():
		return streamEvent{Kind: "reset"}, true
	case mod.IsRemoved():
		return streamEvent{
			Kind:  "remove",
			From:  int(mod.Section.Index),
			Count: mod.Section.Count,
		}, true
	default:
		lines, err := fetchLines(h.view, int(mod.Section.Index), mod.Section.Count)
		if err != nil {
			log.Printf("sse: fetching %s: %v", mod.Section, err)
			return streamEvent{}, false
		}
		return streamEvent{
			Kind:  "append",
			From:  int(mod.Section.Index),
			Count: len(lines),
			Lines: lines,
		}, true
	}
}
