// Package server exposes the agent runtime over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	agent "github.com/Protocol-Lattice/agent-server"
	"github.com/Protocol-Lattice/agent-server/pkg/models"
	"github.com/Protocol-Lattice/agent-server/pkg/runtime"
)

const maxBodyBytes = 1 << 20

// Server serves the agent endpoints.
type Server struct {
	rt             *runtime.Runtime
	logger         *log.Logger
	requestTimeout time.Duration
}

// New returns a Server backed by rt. A zero requestTimeout disables the per-run deadline.
func New(rt *runtime.Runtime, logger *log.Logger, requestTimeout time.Duration) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{rt: rt, logger: logger, requestTimeout: requestTimeout}
}

// Handler returns the routed handler wrapped in the standard middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /agents", s.createAgent)
	mux.HandleFunc("GET /agents", s.listAgents)
	mux.HandleFunc("GET /agents/{id}", s.getAgent)
	mux.HandleFunc("DELETE /agents/{id}", s.deleteAgent)
	mux.HandleFunc("POST /agents/{id}/run", s.runAgent)
	mux.HandleFunc("GET /sessions", s.listSessions)
	mux.HandleFunc("GET /healthz", s.health)

	return chain(mux, recoverer(s.logger), accessLog(s.logger), requestID)
}

type createAgentRequest struct {
	runtime.AgentSpec
	Replace bool `json:"replace"`
}

type createAgentResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type runAgentRequest struct {
	Inputs map[string]any `json:"inputs"`
}

type agentSummary struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Model     string              `json:"model"`
	Provider  string              `json:"provider"`
	Tools     []string            `json:"tools"`
	CreatedAt time.Time           `json:"created_at"`
	Functions []models.ToolSchema `json:"functions,omitempty"`
}

func summarize(e runtime.Entry) agentSummary {
	return agentSummary{
		ID:        e.ID,
		Name:      e.Spec.Name,
		Model:     e.Agent.ModelID(),
		Provider:  e.Spec.Provider,
		Tools:     agent.ToolNames(e.Agent.Tools()),
		CreatedAt: e.CreatedAt,
	}
}

func (s *Server) createAgent(w http.ResponseWriter, r *http.Request) {
	var req createAgentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	mode := runtime.ModeAdd
	if req.Replace {
		mode = runtime.ModeReplace
	}
	entry, err := s.rt.Create(r.Context(), req.AgentSpec, mode)
	if err != nil {
		s.logger.Printf("create agent %q: %v", req.Name, err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, createAgentResponse{ID: entry.ID, Name: entry.Spec.Name, Status: "created"})
}

func (s *Server) listAgents(w http.ResponseWriter, _ *http.Request) {
	entries := s.rt.List()
	out := make([]agentSummary, 0, len(entries))
	for _, e := range entries {
		out = append(out, summarize(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{"agents": out})
}

func (s *Server) getAgent(w http.ResponseWriter, r *http.Request) {
	entry, err := s.rt.Get(r.PathValue("id"))
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	summary := summarize(entry)
	summary.Functions = entry.Agent.Functions()
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) deleteAgent(w http.ResponseWriter, r *http.Request) {
	if err := s.rt.Delete(r.PathValue("id")); err != nil {
		s.writeLookupError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) runAgent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.rt.Get(id); err != nil {
		s.writeLookupError(w, err)
		return
	}

	var req runAgentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	res, err := s.rt.Run(ctx, id, req.Inputs)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// listSessions is a placeholder; sessions are not tracked, so the list is always empty.
func (s *Server) listSessions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sessions": []any{}})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, runtime.ErrAgentNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.logger.Printf("agent lookup: %v", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      s.requestTimeout + 30*time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("agent server listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Printf("shutting down agent server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
