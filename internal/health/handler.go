package health

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"rentease/pkg/client"
	httputil "rentease/pkg/http"
	"rentease/pkg/logger"
)

type Handler struct {
	mongo *client.MongoClient
	log   *logger.Logger
}

func NewHandler(mongo *client.MongoClient, log *logger.Logger) *Handler {
	return &Handler{
		mongo: mongo,
		log:   log,
	}
}

// Live reports process liveness only.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteSuccess(w, "OK", nil); err != nil {
		h.log.Error("failed to write health response", "error", err)
	}
}

// Ready additionally pings the database, so load balancers stop routing to
// an instance that lost its storage.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.mongo.Client.Ping(ctx, nil); err != nil {
		h.log.Error("Readiness check failed", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"success":false,"message":"database unreachable"}`))
		return
	}

	if err := httputil.WriteSuccess(w, "Ready", nil); err != nil {
		h.log.Error("failed to write readiness response", "error", err)
	}
}

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Live)
	router.GET("/ready", h.Ready)
}
