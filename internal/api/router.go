package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter sets up the HTTP routes.
func NewRouter(h *Handler) http.Handler {
	r := mux.NewRouter()
	r.Use(h.requestID, h.accessLog)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/teams", h.Teams).Methods(http.MethodGet)
	api.HandleFunc("/teams/{name}", h.Team).Methods(http.MethodGet)
	api.HandleFunc("/predict", h.limit(h.Predict)).Methods(http.MethodPost)
	api.HandleFunc("/model-info", h.ModelInfo).Methods(http.MethodGet)
	api.HandleFunc("/table", h.Table).Methods(http.MethodGet)
	api.HandleFunc("/reload", h.Reload).Methods(http.MethodPost)

	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	return r
}
