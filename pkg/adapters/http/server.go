// Package http exposes the dispatcher over a small JSON API. One endpoint
// accepts pre-classified triggers; the error taxonomy maps onto HTTP status
// codes so callers can distinguish rejected input from broken configuration.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carelink/carelink/internal/logging"
	"github.com/carelink/carelink/pkg/domain"
	"github.com/carelink/carelink/pkg/engine"
)

// Server handles the dispatch API.
type Server struct {
	dispatcher *engine.Dispatcher
	logger     *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets a structured logger. Defaults to no-op.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer wraps a dispatcher.
func NewServer(dispatcher *engine.Dispatcher, opts ...Option) *Server {
	s := &Server{
		dispatcher: dispatcher,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", s.health)
	r.Get("/campaigns", s.listCampaigns)
	r.Post("/campaigns/{campaign}/dispatch", s.dispatch)
	r.Get("/conversations/{id}/messages", s.journal)
	r.Delete("/conversations/{id}", s.clear)
	return r
}

type dispatchBody struct {
	SeniorID string            `json:"seniorId"`
	Trigger  string            `json:"trigger"`
	Text     string            `json:"text,omitempty"`
	Language string            `json:"language,omitempty"`
	Headers  map[string]string `json:"headers,omitempty"`
}

type dispatchResponse struct {
	ConversationID string               `json:"conversationId"`
	Campaign       string               `json:"campaign"`
	State          string               `json:"state"`
	Terminal       bool                 `json:"terminal"`
	Prompt         string               `json:"prompt,omitempty"`
	Options        []domain.ReplyOption `json:"options"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listCampaigns(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]string{
		"campaigns": s.dispatcher.Catalog().Campaigns(),
	})
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request) {
	var body dispatchBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if body.SeniorID == "" || body.Trigger == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "seniorId and trigger are required"})
		return
	}

	result, err := s.dispatcher.Dispatch(r.Context(), engine.DispatchRequest{
		Campaign: chi.URLParam(r, "campaign"),
		SeniorID: body.SeniorID,
		Trigger:  body.Trigger,
		Text:     body.Text,
		Language: body.Language,
		Headers:  body.Headers,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	options := result.Options
	if options == nil {
		options = []domain.ReplyOption{}
	}
	s.writeJSON(w, http.StatusOK, dispatchResponse{
		ConversationID: result.ConversationID,
		Campaign:       result.Campaign,
		State:          result.State,
		Terminal:       result.Terminal,
		Prompt:         result.Prompt,
		Options:        options,
	})
}

type messageResponse struct {
	ID        string    `json:"id"`
	Direction string    `json:"direction"`
	Content   string    `json:"content"`
	Event     string    `json:"event,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Server) journal(w http.ResponseWriter, r *http.Request) {
	messages, err := s.dispatcher.Journal(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]messageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, messageResponse{
			ID:        m.ID,
			Direction: string(m.Direction),
			Content:   m.Content,
			Event:     m.Event,
			CreatedAt: m.CreatedAt,
		})
	}
	s.writeJSON(w, http.StatusOK, map[string][]messageResponse{"messages": out})
}

func (s *Server) clear(w http.ResponseWriter, r *http.Request) {
	if err := s.dispatcher.Clear(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeError maps the engine's error taxonomy onto status codes: unknown
// resources are 404, triggers the automaton refuses are 409, input the
// actions refuse is 422, everything else is a 500 with a generic body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrUnknownCampaign),
		errors.Is(err, domain.ErrConversationNotFound):
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNoMatchingTransition):
		s.writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.As(err, &verr):
		s.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: verr.Error(), Field: verr.Field})
	default:
		s.logger.Error("dispatch failed",
			"path", r.URL.Path,
			"err", err,
		)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("encode response", "err", err)
	}
}
