// Package http exposes the engine's operations over REST plus a
// WebSocket attempt event stream.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/gorilla/websocket"

	"assessment-engine/internal/app"
	"assessment-engine/internal/domain"
)

type Handler struct {
	engine   *app.Engine
	logger   *httplog.Logger
	upgrader websocket.Upgrader
}

func NewHandler(engine *app.Engine, logger *httplog.Logger) *Handler {
	return &Handler{
		engine: engine,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Router assembles the HTTP API. authSecret selects JWT auth; empty means
// the dev header fallback.
func (h *Handler) Router(authSecret string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(httplog.RequestLogger(h.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Participant-ID"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(ParticipantAuth(authSecret))
		r.Route("/rounds/{roundID}", func(r chi.Router) {
			r.Post("/attempt", h.startAttempt)
			r.Get("/attempt", h.getAttempt)
			r.Post("/answers", h.recordAnswer)
			r.Post("/run", h.runCode)
			r.Post("/submissions", h.submitCode)
			r.Post("/finalize", h.finalizeAttempt)
			r.Get("/result", h.getResult)
			r.Get("/gate", h.gate)
			r.Get("/events", h.events)
		})
	})
	return r
}

type answerRequest struct {
	QuestionID  string `json:"questionId"`
	OptionIndex int    `json:"optionIndex"`
}

type codeRequest struct {
	ProblemID string `json:"problemId"`
	Language  string `json:"language"`
	Source    string `json:"source"`
}

type gateResponse struct {
	RoundID  string `json:"roundId"`
	CanEnter bool   `json:"canEnter"`
}

func (h *Handler) startAttempt(w http.ResponseWriter, r *http.Request) {
	view, err := h.engine.StartAttempt(r.Context(), ParticipantID(r.Context()), chi.URLParam(r, "roundID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, view)
}

func (h *Handler) getAttempt(w http.ResponseWriter, r *http.Request) {
	view, err := h.engine.GetAttempt(r.Context(), ParticipantID(r.Context()), chi.URLParam(r, "roundID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

func (h *Handler) recordAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid answer payload", http.StatusBadRequest)
		return
	}
	err := h.engine.RecordAnswer(r.Context(), ParticipantID(r.Context()), chi.URLParam(r, "roundID"), req.QuestionID, req.OptionIndex)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) runCode(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid code payload", http.StatusBadRequest)
		return
	}
	feedback, err := h.engine.RunCode(r.Context(), ParticipantID(r.Context()), chi.URLParam(r, "roundID"), req.ProblemID, req.Language, req.Source)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, feedback)
}

func (h *Handler) submitCode(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid code payload", http.StatusBadRequest)
		return
	}
	receipt, err := h.engine.SubmitCode(r.Context(), ParticipantID(r.Context()), chi.URLParam(r, "roundID"), req.ProblemID, req.Language, req.Source)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, receipt)
}

func (h *Handler) finalizeAttempt(w http.ResponseWriter, r *http.Request) {
	res, err := h.engine.FinalizeAttempt(r.Context(), ParticipantID(r.Context()), chi.URLParam(r, "roundID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handler) getResult(w http.ResponseWriter, r *http.Request) {
	res, err := h.engine.GetResult(r.Context(), ParticipantID(r.Context()), chi.URLParam(r, "roundID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handler) gate(w http.ResponseWriter, r *http.Request) {
	roundID := chi.URLParam(r, "roundID")
	ok, err := h.engine.CanEnterRound(r.Context(), ParticipantID(r.Context()), roundID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, gateResponse{RoundID: roundID, CanEnter: ok})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("write response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrRoundNotFound),
		errors.Is(err, domain.ErrAttemptNotFound),
		errors.Is(err, domain.ErrResultNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrItemNotInAttempt),
		errors.Is(err, domain.ErrOptionOutOfRange),
		errors.Is(err, domain.ErrWrongRoundKind),
		errors.Is(err, domain.ErrInsufficientPoolSize):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrAttemptAlreadyInProgress),
		errors.Is(err, domain.ErrAttemptAlreadyCompleted):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrAttemptExpired):
		status = http.StatusGone
	case errors.Is(err, domain.ErrRoundLocked):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrJudgeUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "path", r.URL.Path, "err", err)
	}
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}
