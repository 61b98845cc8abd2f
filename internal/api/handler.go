package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/utakatalp/match-predictor/internal/predict"
)

// Handler serves the prediction API over one predict.Service.
type Handler struct {
	svc     *predict.Service
	reload  func() error
	logger  *zap.Logger
	limiter *rate.Limiter
}

// NewHandler wires the handlers. reload re-reads the artifact pair; nil
// disables POST /api/reload.
func NewHandler(svc *predict.Service, reload func() error, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, reload: reload, logger: logger}
}

// WithRateLimit caps POST /api/predict at rps requests per second across all
// clients. rps <= 0 leaves it unlimited.
func (h *Handler) WithRateLimit(rps float64, burst int) *Handler {
	if rps <= 0 {
		h.limiter = nil
		return h
	}
	if burst < 1 {
		burst = 1
	}
	h.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return h
}

type predictRequest struct {
	HomeTeam string `json:"home_team"`
	AwayTeam string `json:"away_team"`
}

func (h *Handler) Teams(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"teams": h.svc.Teams()})
}

func (h *Handler) Team(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	st, ok := h.svc.TeamStats(name)
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown team selected: "+name)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	res, err := h.svc.Predict(req.HomeTeam, req.AwayTeam)
	if err != nil {
		var ve *predict.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Msg)
			return
		}
		h.logger.Error("prediction failed",
			zap.String("request_id", RequestID(r.Context())),
			zap.String("home_team", req.HomeTeam),
			zap.String("away_team", req.AwayTeam),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Prediction failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) ModelInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ModelInfo())
}

func (h *Handler) Table(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"table": h.svc.Table()})
}

func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	if h.reload == nil {
		writeError(w, http.StatusNotImplemented, "Reload is disabled")
		return
	}
	if err := h.reload(); err != nil {
		h.logger.Warn("reload via api failed",
			zap.String("request_id", RequestID(r.Context())),
			zap.Error(err))
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "reloaded",
		"teams":     len(h.svc.Teams()),
		"loaded_at": h.svc.LoadedAt().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"loaded_at": h.svc.LoadedAt().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
