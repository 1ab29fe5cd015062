// Package api serves the admin and query surface: status, detection
// history, recent alerts, the busy-state source, and admin resets.
package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"earbridge/internal/alerts"
	"earbridge/internal/config"
	"earbridge/internal/dispatch"
	"earbridge/internal/storage"
)

type Server struct {
	cfg     *config.Manager
	alerts  *alerts.Store
	store   storage.Store
	gate    *dispatch.Gate
	logger  *slog.Logger
	version string
}

type statusResponse struct {
	Status    string           `json:"status"`
	Time      string           `json:"time"`
	Version   string           `json:"version"`
	Busy      bool             `json:"busy"`
	Link      linkStatus       `json:"link"`
	Dispatch  gateStatus       `json:"dispatch"`
	Storage   bool             `json:"storage"`
	QueueSync bool             `json:"queue_sync"`
	API       config.APIConfig `json:"api"`
}

type linkStatus struct {
	TCP   bool `json:"tcp"`
	Kafka bool `json:"kafka"`
	REST  bool `json:"rest"`
}

type gateStatus struct {
	ThrottleWindow string `json:"throttle_window"`
	DisplayWindow  string `json:"display_window"`
}

func Start(ctx context.Context, cfg *config.Manager, alertStore *alerts.Store, store storage.Store, gate *dispatch.Gate, logger *slog.Logger, version string) *http.Server {
	if cfg == nil {
		return nil
	}
	current := cfg.Get().API
	if !current.Enabled {
		if logger != nil {
			logger.Info("api disabled")
		}
		return nil
	}
	if logger != nil {
		logger.Info("api enabled", "addr", current.Addr)
	}
	server := &Server{
		cfg:     cfg,
		alerts:  alertStore,
		store:   store,
		gate:    gate,
		logger:  logger,
		version: version,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/status", server.handleStatus)
	mux.HandleFunc("/detections", server.handleDetections)
	mux.HandleFunc("/alerts", server.handleAlerts)
	mux.HandleFunc("/alerts/active", server.handleActiveAlert)
	mux.HandleFunc("/busy", server.handleBusy)
	mux.HandleFunc("/admin/clear", server.handleClear)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})

	httpServer := &http.Server{Addr: current.Addr, Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(ctxShutdown)
	}()
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if logger != nil {
				logger.Error("api server error", "err", err)
			}
		}
	}()
	return httpServer
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	cfg := s.cfg.Get()
	resp := statusResponse{
		Status:  "ok",
		Time:    time.Now().UTC().Format(time.RFC3339Nano),
		Version: s.version,
		Busy:    s.gate != nil && s.gate.Busy(),
		Link: linkStatus{
			TCP:   cfg.Link.TCP.Enabled,
			Kafka: cfg.Link.Kafka.Enabled,
			REST:  cfg.Link.REST.Enabled,
		},
		Dispatch: gateStatus{
			ThrottleWindow: cfg.Dispatch.ThrottleWindow.String(),
			DisplayWindow:  cfg.Dispatch.DisplayWindow.String(),
		},
		Storage:   cfg.Storage.Enabled,
		QueueSync: cfg.Queue.Enabled,
		API:       cfg.API,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDetections(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.store == nil {
		writeJSON(w, http.StatusOK, map[string]any{"detections": []any{}, "count": 0})
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	rows, err := s.store.FetchRecent(r.Context(), limit)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("fetch detections", "err", err)
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"detections": rows, "count": len(rows)})
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if sinceStr := r.URL.Query().Get("since"); sinceStr != "" {
		ts, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		list := s.alerts.Since(ts.Unix())
		writeJSON(w, http.StatusOK, map[string]any{"alerts": list, "count": len(list)})
		return
	}
	list := s.alerts.List(limit)
	writeJSON(w, http.StatusOK, map[string]any{"alerts": list, "count": len(list)})
}

func (s *Server) handleActiveAlert(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if det, ok := s.alerts.Active(); ok {
			writeJSON(w, http.StatusOK, map[string]any{"active": det})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"active": nil})
	case http.MethodDelete:
		s.alerts.Dismiss()
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleBusy is the busy-state source: the transcription feature posts true
// when a session starts and false when it ends.
func (s *Server) handleBusy(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"busy": s.gate.Busy()})
	case http.MethodPost:
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<10))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var req struct {
			Busy bool `json:"busy"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.gate.SetBusy(req.Busy)
		if s.logger != nil {
			s.logger.Info("busy state updated", "busy", req.Busy)
		}
		writeJSON(w, http.StatusOK, map[string]any{"busy": req.Busy})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.alerts != nil {
		s.alerts.Clear()
	}
	if s.gate != nil {
		s.gate.Reset()
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
