package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"UnitCoinMiner/internal/game"
	"UnitCoinMiner/internal/metrics"
	"UnitCoinMiner/internal/save"
)

// Server is the HTTP and websocket front of a hub.
type Server struct {
	cfg      AppConfig
	hub      *game.Hub
	saves    *save.Store // nil when persistence is off
	metrics  *metrics.Registry
	log      *slog.Logger
	validate *validator.Validate
	loads    singleflight.Group
}

func NewServer(cfg AppConfig, hub *game.Hub, saves *save.Store, reg *metrics.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	return &Server{
		cfg:      cfg,
		hub:      hub,
		saves:    saves,
		metrics:  reg,
		log:      logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

/* ------------------------------- HTTP ------------------------------- */

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	mux.HandleFunc("GET /api/rooms", s.listRooms)
	mux.HandleFunc("GET /api/rooms/{id}", s.roomProjection)
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

func (s *Server) listRooms(w http.ResponseWriter, r *http.Request) {
	rooms := s.hub.List()
	ids := make([]string, 0, len(rooms))
	for _, room := range rooms {
		ids = append(ids, room.ID)
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": ids})
}

func (s *Server) roomProjection(w http.ResponseWriter, r *http.Request) {
	room, ok := s.hub.Lookup(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "room not found"})
		return
	}
	writeJSON(w, http.StatusOK, room.Project())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
