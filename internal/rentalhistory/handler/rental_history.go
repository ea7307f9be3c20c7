package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"rentease/internal/auth"
	"rentease/internal/rentalhistory/service"
	apperrors "rentease/pkg/errors"
	httputil "rentease/pkg/http"
	"rentease/pkg/logger"
	"rentease/pkg/model"
)

type RentalHistoryHandler struct {
	service service.RentalHistoryService
	authn   *auth.Authenticator
	log     *logger.Logger
}

func NewRentalHistoryHandler(service service.RentalHistoryService, authn *auth.Authenticator, log *logger.Logger) *RentalHistoryHandler {
	return &RentalHistoryHandler{
		service: service,
		authn:   authn,
		log:     log,
	}
}

func filterFromQuery(r *http.Request) model.RentalHistoryFilter {
	query := r.URL.Query()
	return model.RentalHistoryFilter{
		GuestID:    query.Get("guest_id"),
		PropertyID: query.Get("property_id"),
	}
}

func (h *RentalHistoryHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var entry model.RentalHistory
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}

	if err := h.service.Create(r.Context(), &entry); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, "Rental history entry created", entry); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

func (h *RentalHistoryHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	page, limit, err := httputil.ExtractPageLimit(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	entries, total, err := h.service.GetAll(r.Context(), filterFromQuery(r), r.URL.Query().Get("sortBy"), page, limit)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WriteSuccess(w, "Rental history retrieved", map[string]any{
		"entries":    entries,
		"pagination": httputil.NewPagination(page, limit, total),
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "GetAll", "error", err)
	}
}

func (h *RentalHistoryHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	entry, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, "Rental history entry retrieved", entry); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

func (h *RentalHistoryHandler) Stats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.writeError(w, "Stats", err)
		return
	}

	if err := httputil.WriteSuccess(w, "Rental history statistics retrieved", stats); err != nil {
		h.log.Error("failed to write success response", "handler", "Stats", "error", err)
	}
}

func (h *RentalHistoryHandler) Revenue(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	report, err := h.service.Revenue(r.Context(), filterFromQuery(r))
	if err != nil {
		h.writeError(w, "Revenue", err)
		return
	}

	if err := httputil.WriteSuccess(w, "Revenue retrieved", report); err != nil {
		h.log.Error("failed to write success response", "handler", "Revenue", "error", err)
	}
}

func (h *RentalHistoryHandler) Export(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	file, err := h.service.Export(r.Context(), filterFromQuery(r))
	if err != nil {
		h.writeError(w, "Export", err)
		return
	}
	defer file.Close()

	filename := fmt.Sprintf("rental-history-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := file.Write(w); err != nil {
		h.log.Error("failed to stream export", "handler", "Export", "error", err)
	}
}

func (h *RentalHistoryHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "error", writeErr)
	}
}

func (h *RentalHistoryHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/rental-history", h.authn.Require(auth.OpWriteLedger, h.Create))
	router.GET("/api/rental-history", h.authn.Require(auth.OpReadLedger, h.GetAll))
	router.GET("/api/rental-history/id/:id", h.authn.Require(auth.OpReadLedger, h.GetByID))
	router.GET("/api/admin/rental-history/stats", h.authn.Require(auth.OpViewAdminStats, h.Stats))
	router.GET("/api/admin/revenue", h.authn.Require(auth.OpManageRevenue, h.Revenue))
	router.GET("/api/admin/rental-history/export", h.authn.Require(auth.OpExportLedger, h.Export))
}
