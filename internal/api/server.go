package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/MikeSquared-Agency/interviews/internal/analytics"
	"github.com/MikeSquared-Agency/interviews/internal/store"
	"github.com/MikeSquared-Agency/interviews/internal/webhook"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type Options struct {
	Port          int
	WebhookSecret string
	MaxBodyBytes  int64
}

type Server struct {
	store   store.DataStore
	handler *webhook.Handler
	opts    Options
	router  chi.Router
	http    *http.Server
}

func NewServer(s store.DataStore, h *webhook.Handler, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	srv := &Server{
		store:   s,
		handler: h,
		opts:    opts,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Post("/api/webhooks/retell", srv.handleWebhook)
	r.Get("/api/webhooks/retell", srv.handleWebhookActive)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", srv.handleHealth)
		r.Get("/interviews", srv.handleListInterviews)
		r.Get("/interviews/{callID}", srv.handleGetInterview)
		r.Get("/stats", srv.handleStats)
		r.Get("/questions", srv.handleQuestions)
	})

	srv.router = r
	srv.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	slog.Info("starting HTTP API", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "Request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Malformed JSON body"})
		return
	}

	if err := webhook.VerifyRequest(s.opts.WebhookSecret, r.Header.Get(webhook.SignatureHeader), body); err != nil {
		slog.Warn("webhook signature rejected",
			"request_id", middleware.GetReqID(r.Context()),
			"remote", r.RemoteAddr,
			"error", err,
		)
		writeError(w, err)
		return
	}

	res, err := s.handler.Process(r.Context(), body)
	if err != nil {
		writeError(w, err)
		return
	}

	switch res.Status {
	case webhook.StatusIgnored:
		writeJSON(w, http.StatusOK, map[string]any{"message": "Event not processed", "event": res.Event})
	case webhook.StatusCreated:
		writeJSON(w, http.StatusCreated, map[string]any{"message": "Interview stored successfully", "transcriptLength": res.Utterances})
	default:
		writeJSON(w, http.StatusOK, map[string]any{"message": "Interview updated successfully", "transcriptLength": res.Utterances})
	}
}

func (s *Server) handleWebhookActive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Webhook endpoint is active"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "interviews",
	})
}

func (s *Server) handleListInterviews(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = min(n, maxListLimit)
		}
	}

	ivs, err := s.store.ListInterviews(r.Context(), limit)
	if err != nil {
		slog.Error("list interviews failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if ivs == nil {
		ivs = []store.Interview{}
	}

	writeJSON(w, http.StatusOK, ivs)
}

func (s *Server) handleGetInterview(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "callID")

	iv, err := s.store.FindByCallID(r.Context(), callID)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "interview not found"})
		return
	}
	if err != nil {
		slog.Error("get interview failed", "call_id", callID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, iv)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ivs, err := s.store.ListInterviews(r.Context(), 0)
	if err != nil {
		slog.Error("query stats failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, analytics.Summarize(ivs))
}

func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	ivs, err := s.store.ListInterviews(r.Context(), 0)
	if err != nil {
		slog.Error("query questions failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, analytics.Questions(ivs))
}

// writeError maps a *webhook.Error to its HTTP status and body.
func writeError(w http.ResponseWriter, err error) {
	var we *webhook.Error
	if !errors.As(err, &we) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}

	switch we.Kind {
	case webhook.KindMalformedBody, webhook.KindInvalidPayload:
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": we.Msg, "details": we.Details})
	case webhook.KindUnauthorized:
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": we.Msg})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
