package web

import (
	"bytes"
	"context"
	"net"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/sweeney/weather-station/internal/status"
)

// StatusServer serves a read-only status page over net/http. Unlike the
// station responder it handles concurrent clients, since it only reads the
// tracker's snapshot.
type StatusServer struct {
	httpServer *http.Server
	tracker    *status.Tracker
	log        zerolog.Logger
}

// NewStatusServer creates a StatusServer that reads state from the given tracker.
func NewStatusServer(addr string, tracker *status.Tracker, log zerolog.Logger) *StatusServer {
	s := &StatusServer{tracker: tracker, log: log}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods("GET", "HEAD")
	r.HandleFunc("/index.html", s.handleIndex).Methods("GET", "HEAD")
	r.HandleFunc("/index.json", s.handleJSON).Methods("GET", "HEAD")

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           handlers.LoggingHandler(accessLog{log}, r),
		ReadHeaderTimeout: DefaultReadTimeout,
	}
	return s
}

// accessLog feeds Common Log Format lines to the debug log.
type accessLog struct {
	log zerolog.Logger
}

func (a accessLog) Write(p []byte) (int, error) {
	a.log.Debug().Msg(string(bytes.TrimRight(p, "\n")))
	return len(p), nil
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *StatusServer) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *StatusServer) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *StatusServer) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *StatusServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderStatusHTML(w, snap); err != nil {
		s.log.Error().Err(err).Msg("status page render failed")
	}
}

func (s *StatusServer) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}
