package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"rentease/internal/auth"
	"rentease/internal/bookings/service"
	apperrors "rentease/pkg/errors"
	httputil "rentease/pkg/http"
	"rentease/pkg/logger"
	"rentease/pkg/model"
)

type BookingHandler struct {
	service service.BookingService
	authn   *auth.Authenticator
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, authn *auth.Authenticator, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		authn:   authn,
		log:     log,
	}
}

type createBookingRequest struct {
	PropertyID string    `json:"property_id"`
	GuestID    string    `json:"guest_id,omitempty"`
	CheckIn    time.Time `json:"check_in"`
	CheckOut   time.Time `json:"check_out"`
	Nights     int       `json:"nights,omitempty"`
	Amount     *float64  `json:"amount"`
	Deduction  float64   `json:"deduction,omitempty"`
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	identity, _ := auth.IdentityFrom(r.Context())

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}

	// Zero is a legal amount, absence is not.
	if req.Amount == nil {
		h.writeError(w, "Create", apperrors.Validation("amount is required", nil))
		return
	}

	booking := &model.Booking{
		PropertyID: req.PropertyID,
		GuestID:    req.GuestID,
		CheckIn:    req.CheckIn,
		CheckOut:   req.CheckOut,
		Nights:     req.Nights,
		Amount:     *req.Amount,
		Deduction:  req.Deduction,
	}

	if err := h.service.Create(r.Context(), identity, booking); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	// Echo the stored document with its listing and guest summaries.
	details, err := h.service.GetByID(r.Context(), identity, booking.ID)
	if err != nil {
		h.log.Warn("failed to load created booking details", "id", booking.ID, "error", err)
		if err := httputil.WriteCreated(w, "Booking created", booking); err != nil {
			h.log.Error("failed to write created response", "handler", "Create", "error", err)
		}
		return
	}

	if err := httputil.WriteCreated(w, "Booking created", details); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

func (h *BookingHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	identity, _ := auth.IdentityFrom(r.Context())

	page, limit, err := httputil.ExtractPageLimit(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	query := r.URL.Query()
	filter := model.BookingFilter{
		Status:     query.Get("status"),
		GuestID:    query.Get("guest_id"),
		PropertyID: query.Get("property_id"),
	}

	bookings, total, err := h.service.GetAll(r.Context(), identity, filter, query.Get("sortBy"), page, limit)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WriteSuccess(w, "Bookings retrieved", map[string]any{
		"bookings":   bookings,
		"pagination": httputil.NewPagination(page, limit, total),
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "GetAll", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	identity, _ := auth.IdentityFrom(r.Context())

	booking, err := h.service.GetByID(r.Context(), identity, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, "Booking retrieved", booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	identity, _ := auth.IdentityFrom(r.Context())

	var updates model.BookingUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.writeError(w, "Update", apperrors.InvalidInput("Invalid request body"))
		return
	}

	booking, err := h.service.Update(r.Context(), identity, ps.ByName("id"), &updates)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, "Booking updated", booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "error", err)
	}
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	identity, _ := auth.IdentityFrom(r.Context())

	if err := h.service.Delete(r.Context(), identity, ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	if err := httputil.WriteSuccess(w, "Booking deleted", nil); err != nil {
		h.log.Error("failed to write success response", "handler", "Delete", "error", err)
	}
}

func (h *BookingHandler) Stats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.writeError(w, "Stats", err)
		return
	}

	if err := httputil.WriteSuccess(w, "Booking statistics retrieved", stats); err != nil {
		h.log.Error("failed to write success response", "handler", "Stats", "error", err)
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "error", writeErr)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/bookings", h.authn.Require(auth.OpCreateBooking, h.Create))
	router.GET("/api/bookings", h.authn.Authenticate(h.GetAll))
	router.GET("/api/bookings/id/:id", h.authn.Authenticate(h.GetByID))
	router.PATCH("/api/bookings/id/:id", h.authn.Authenticate(h.Update))
	router.DELETE("/api/bookings/id/:id", h.authn.Require(auth.OpDeleteBooking, h.Delete))
	router.GET("/api/admin/bookings/stats", h.authn.Require(auth.OpViewAdminStats, h.Stats))
}
