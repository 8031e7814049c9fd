// Package server provides an optional HTTP front door over the
// command dispatcher, the way the teacher's internal/controllers/restserver
// fronts its own collaborators with a gorilla/mux router. Unlike the
// teacher's multi-site REST API, this surface has exactly one job:
// decode a dispatcher.Request from each POST body and reply with the
// resulting dispatcher.Response, so the dispatcher itself never has to
// know whether a command arrived over HTTP, a Unix socket, or a test
// harness (spec.md §1's scope cut).
package server

import (
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/chrissnell/vantaged/internal/dispatcher"
	"github.com/chrissnell/vantaged/internal/log"
)

// Server is the HTTP front door: one POST endpoint accepting a
// dispatcher.Request body and returning its dispatcher.Response.
type Server struct {
	http.Server

	dispatch *dispatcher.Dispatcher
	logger   *zap.SugaredLogger
}

// New builds a Server listening on addr and routing every /command
// POST to d. The caller still owns starting d's workers
// (d.Start(ctx)) — Server only ever calls Dispatch, never Start.
func New(addr string, d *dispatcher.Dispatcher, logger *zap.SugaredLogger) *Server {
	s := &Server{dispatch: d, logger: logger}

	router := mux.NewRouter()
	router.HandleFunc("/command", s.handleCommand).Methods(http.MethodPost)

	s.Server = http.Server{
		Addr:    addr,
		Handler: router,
	}
	return s
}

// handleCommand decodes one dispatcher.Request from the body, runs it
// through Dispatch, writes back the resulting dispatcher.Response as
// JSON — success and failure alike, with HTTP status 200 for a
// success envelope and 422 for a failure envelope — and records the round trip to internal/log's HTTP log buffer.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req dispatcher.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		s.logRequest(r, req.Command, http.StatusBadRequest, start, err)
		return
	}

	resp := s.dispatch.Dispatch(r.Context(), req)

	w.Header().Set("Content-Type", "application/json")
	status := http.StatusOK
	if resp.Result == dispatcher.ResultFailure {
		status = http.StatusUnprocessableEntity
	}
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warnw("failed to encode command response", "command", req.Command, "error", err)
	}

	s.logRequest(r, req.Command, status, start, nil)
}

// logRequest substitutes the decoded command name for the teacher's
// per-site website field in the shared HTTP log buffer — this front
// door has no equivalent multi-tenant concept.
func (s *Server) logRequest(r *http.Request, command string, status int, start time.Time, err error) {
	clientIP := r.RemoteAddr
	if host, _, splitErr := net.SplitHostPort(clientIP); splitErr == nil {
		clientIP = host
	}
	log.LogHTTPRequest(r.Method, r.URL.Path, status, time.Since(start), 0, clientIP, r.UserAgent(), command, err)
}
