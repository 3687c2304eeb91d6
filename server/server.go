// Package server is the REST surface over the pipeline. It holds no business
// logic: every handler validates, delegates to the runtime, and shapes the
// response.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/lawyrs/counsel"
	"github.com/lawyrs/counsel/errors"
	"github.com/lawyrs/counsel/internal/mylog"
	"github.com/lawyrs/counsel/orchestrator"
	"github.com/lawyrs/counsel/sideeffect"
)

type Server struct {
	logger  *mylog.Logger
	runtime *counsel.Runtime
}

func New(logger *mylog.Logger, runtime *counsel.Runtime) *Server {
	return &Server{logger: logger, runtime: runtime}
}

// Handler builds the full middleware stack: CORS, panic recovery, routing.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/health", s.handleHealth).Methods("GET")
	router.HandleFunc("/api/chat", s.handleChat).Methods("POST")
	router.HandleFunc("/api/classify", s.handleClassify).Methods("GET")
	router.HandleFunc("/api/config", s.handleConfig).Methods("GET")
	router.HandleFunc("/api/sideeffects/schema", s.handleSideEffectSchema).Methods("GET")
	router.HandleFunc("/api/sessions/{id}/history", s.handleHistory).Methods("GET")
	router.HandleFunc("/api/sessions/{id}", s.handleClearSession).Methods("DELETE")

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.PrintRecoveryStack(true),
		handlers.RecoveryLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError)),
	)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		router.ServeHTTP(w, r.WithContext(ctx))
	})

	return cors(recovery(handler))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := s.runtime.Submit(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		http.Error(w, "query parameter is required", http.StatusBadRequest)
		return
	}

	decision := s.runtime.Classify(r.Context(), orchestrator.Request{
		Query:     query,
		SessionID: r.URL.Query().Get("session_id"),
	})
	s.writeJSON(w, http.StatusOK, decision)
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.runtime.Orchestrator().Config())
}

func (s *Server) handleSideEffectSchema(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, sideeffect.Schema())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	turns, err := s.runtime.History(r.Context(), sessionID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"turns":      turns,
	})
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.runtime.ClearSession(r.Context(), sessionID); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"session_id": sessionID, "status": "cleared"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("failed to encode response", mylog.Err(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errors.ErrInvalidParams):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, errors.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		s.logger.Error("request failed", mylog.Err(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
