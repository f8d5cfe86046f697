package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/tablewatch/internal/monitor"
)

type Server struct {
	Logger  *zap.Logger
	Monitor *monitor.Monitor
}

func NewServer(l *zap.Logger, m *monitor.Monitor) *Server {
	return &Server{Logger: l, Monitor: m}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/api/status", s.handleStatus)
	r.Post("/api/monitor/start", s.handleStart)
	r.Post("/api/monitor/stop", s.handleStop)
	r.Post("/api/checks/run", s.handleRunOnce)

	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeStatus(w)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.Monitor.Start()
	s.Logger.Info("api_monitor_start")
	s.writeStatus(w)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.Monitor.Stop()
	s.Logger.Info("api_monitor_stop")
	s.writeStatus(w)
}

// handleRunOnce executes one synchronous pass over all checks. It shares
// cooldown state with the background loop, so it cannot cause alert storms.
func (s *Server) handleRunOnce(w http.ResponseWriter, r *http.Request) {
	s.Monitor.RunOnce(r.Context())
	s.Logger.Info("api_run_once")
	s.writeStatus(w)
}

func (s *Server) writeStatus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.Monitor.Status())
}
