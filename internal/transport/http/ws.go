package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"assessment-engine/internal/app"
)

// events upgrades to a WebSocket and streams attempt events plus a
// periodic server-authoritative clock tick, so clients never derive the
// countdown locally.
func (h *Handler) events(w http.ResponseWriter, r *http.Request) {
	participantID := ParticipantID(r.Context())
	roundID := chi.URLParam(r, "roundID")

	view, err := h.engine.GetAttempt(r.Context(), participantID, roundID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	updates, cancel, err := h.engine.Subscribe(participantID, roundID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		cancel()
		h.logger.Error("ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()
	defer cancel()

	send := make(chan app.Event, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for ev := range send {
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case ev, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- ev:
				case <-closeSignals:
					return
				}
			case <-ticker.C:
				tick := app.Event{
					Type:         "clock",
					AttemptID:    view.AttemptID,
					RoundID:      roundID,
					RemainingSec: remainingSec(view.Deadline),
				}
				select {
				case send <- tick:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- app.Event{
		Type:         "subscribed",
		AttemptID:    view.AttemptID,
		RoundID:      roundID,
		RemainingSec: view.RemainingSec,
	}

	// Read loop exists only to notice the peer going away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func remainingSec(deadline time.Time) int {
	remaining := time.Until(deadline)
	if remaining < 0 {
		return 0
	}
	return int(remaining / time.Second)
}
