package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"rentease/internal/auth"
	"rentease/internal/listings/repository"
	"rentease/internal/listings/service"
	apperrors "rentease/pkg/errors"
	httputil "rentease/pkg/http"
	"rentease/pkg/logger"
	"rentease/pkg/model"
)

type ListingHandler struct {
	service service.ListingService
	authn   *auth.Authenticator
	log     *logger.Logger
}

func NewListingHandler(service service.ListingService, authn *auth.Authenticator, log *logger.Logger) *ListingHandler {
	return &ListingHandler{
		service: service,
		authn:   authn,
		log:     log,
	}
}

type createListingRequest struct {
	ItemName    string              `json:"item_name"`
	Description string              `json:"description"`
	Category    string              `json:"category"`
	Price       float64             `json:"price"`
	Location    model.Location      `json:"location"`
	Rooms       int                 `json:"rooms,omitempty"`
	Bed         int                 `json:"bed,omitempty"`
	Bathroom    int                 `json:"bathroom,omitempty"`
	Images      []model.ImageUpload `json:"images"`
}

func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	identity, _ := auth.IdentityFrom(r.Context())

	var req createListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}

	listing := &model.Listing{
		ItemName:    req.ItemName,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Location:    req.Location,
		Rooms:       req.Rooms,
		Bed:         req.Bed,
		Bathroom:    req.Bathroom,
		UploadedBy:  identity.UserID,
	}

	if err := h.service.Create(r.Context(), listing, req.Images); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, "Listing created", listing); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

func (h *ListingHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	page, limit, err := httputil.ExtractPageLimit(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	query := r.URL.Query()

	filter := repository.ListingFilter{
		Search:   query.Get("search"),
		Category: query.Get("category"),
		City:     query.Get("city"),
		Province: query.Get("province"),
	}

	if minStr := query.Get("min_price"); minStr != "" {
		minPrice, err := strconv.ParseFloat(minStr, 64)
		if err != nil {
			h.writeError(w, "GetAll", apperrors.InvalidInput("Invalid min_price parameter"))
			return
		}
		filter.MinPrice = &minPrice
	}
	if maxStr := query.Get("max_price"); maxStr != "" {
		maxPrice, err := strconv.ParseFloat(maxStr, 64)
		if err != nil {
			h.writeError(w, "GetAll", apperrors.InvalidInput("Invalid max_price parameter"))
			return
		}
		filter.MaxPrice = &maxPrice
	}

	// Disabled listings are visible only to back-office callers.
	if identity, ok := auth.IdentityFrom(r.Context()); ok && auth.IsStaffOrAdmin(identity.Role) {
		filter.IncludeDisabled = query.Get("include_disabled") == "true"
	}

	listings, total, err := h.service.GetAll(r.Context(), filter, query.Get("sortBy"), page, limit)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WriteSuccess(w, "Listings retrieved", map[string]any{
		"listings":   listings,
		"pagination": httputil.NewPagination(page, limit, total),
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "GetAll", "error", err)
	}
}

func (h *ListingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	includeDisabled := false
	if identity, ok := auth.IdentityFrom(r.Context()); ok && auth.IsStaffOrAdmin(identity.Role) {
		includeDisabled = true
	}

	listing, err := h.service.GetByID(r.Context(), ps.ByName("id"), includeDisabled)
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, "Listing retrieved", listing); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

func (h *ListingHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.ListingUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.writeError(w, "Update", apperrors.InvalidInput("Invalid request body"))
		return
	}

	listing, err := h.service.Update(r.Context(), ps.ByName("id"), &updates)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, "Listing updated", listing); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "error", err)
	}
}

func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	if err := httputil.WriteSuccess(w, "Listing deleted", nil); err != nil {
		h.log.Error("failed to write success response", "handler", "Delete", "error", err)
	}
}

func (h *ListingHandler) MyListings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	identity, _ := auth.IdentityFrom(r.Context())

	page, limit, err := httputil.ExtractPageLimit(r)
	if err != nil {
		h.writeError(w, "MyListings", err)
		return
	}

	filter := repository.ListingFilter{
		UploadedBy:      identity.UserID,
		IncludeDisabled: true,
	}

	listings, total, err := h.service.GetAll(r.Context(), filter, r.URL.Query().Get("sortBy"), page, limit)
	if err != nil {
		h.writeError(w, "MyListings", err)
		return
	}

	if err := httputil.WriteSuccess(w, "Listings retrieved", map[string]any{
		"listings":   listings,
		"pagination": httputil.NewPagination(page, limit, total),
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "MyListings", "error", err)
	}
}

func (h *ListingHandler) Stats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.writeError(w, "Stats", err)
		return
	}

	if err := httputil.WriteSuccess(w, "Listing statistics retrieved", stats); err != nil {
		h.log.Error("failed to write success response", "handler", "Stats", "error", err)
	}
}

func (h *ListingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "error", writeErr)
	}
}

func (h *ListingHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/properties", h.authn.Authenticate(h.GetAll))
	router.GET("/api/properties/id/:id", h.authn.Authenticate(h.GetByID))
	router.GET("/api/properties/mine", h.authn.Require(auth.OpManageListings, h.MyListings))
	router.POST("/api/properties", h.authn.Require(auth.OpManageListings, h.Create))
	router.PATCH("/api/properties/id/:id", h.authn.Require(auth.OpManageListings, h.Update))
	router.DELETE("/api/properties/id/:id", h.authn.Require(auth.OpManageListings, h.Delete))
	router.GET("/api/admin/properties/stats", h.authn.Require(auth.OpViewAdminStats, h.Stats))
}
