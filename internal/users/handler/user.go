package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"rentease/internal/auth"
	"rentease/internal/users/repository"
	"rentease/internal/users/service"
	apperrors "rentease/pkg/errors"
	httputil "rentease/pkg/http"
	"rentease/pkg/logger"
	"rentease/pkg/model"
)

type UserHandler struct {
	service service.UserService
	authn   *auth.Authenticator
	log     *logger.Logger
}

func NewUserHandler(service service.UserService, authn *auth.Authenticator, log *logger.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		authn:   authn,
		log:     log,
	}
}

type registerRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Age      int    `json:"age,omitempty"`
	Address  string `json:"address,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Register", apperrors.InvalidInput("Invalid request body"))
		return
	}

	user := &model.User{
		FullName: req.FullName,
		Email:    req.Email,
		UserType: model.RoleRentor,
		Age:      req.Age,
		Address:  req.Address,
		Phone:    req.Phone,
	}

	if err := h.service.Register(r.Context(), user, req.Password); err != nil {
		h.writeError(w, "Register", err)
		return
	}

	if err := httputil.WriteCreated(w, "Registration successful, please check your email to verify your account", user); err != nil {
		h.log.Error("failed to write created response", "handler", "Register", "error", err)
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Login", apperrors.InvalidInput("Invalid request body"))
		return
	}

	token, user, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, "Login", err)
		return
	}

	if err := httputil.WriteSuccess(w, "Login successful", map[string]any{
		"token": token,
		"user":  user,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "Login", "error", err)
	}
}

func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	identity, _ := auth.IdentityFrom(r.Context())

	if err := h.service.Logout(r.Context(), identity.UserID); err != nil {
		h.writeError(w, "Logout", err)
		return
	}

	if err := httputil.WriteSuccess(w, "Logged out", nil); err != nil {
		h.log.Error("failed to write success response", "handler", "Logout", "error", err)
	}
}

func (h *UserHandler) VerifyEmail(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	token := r.URL.Query().Get("token")
	if token == "" {
		h.writeError(w, "VerifyEmail", apperrors.InvalidInput("Verification token is required"))
		return
	}

	if err := h.service.VerifyEmail(r.Context(), token); err != nil {
		h.writeError(w, "VerifyEmail", err)
		return
	}

	if err := httputil.WriteSuccess(w, "Email verified successfully", nil); err != nil {
		h.log.Error("failed to write success response", "handler", "VerifyEmail", "error", err)
	}
}

type resendRequest struct {
	Email string `json:"email"`
}

func (h *UserHandler) ResendVerification(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req resendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "ResendVerification", apperrors.InvalidInput("Invalid request body"))
		return
	}

	if err := h.service.ResendVerification(r.Context(), req.Email); err != nil {
		h.writeError(w, "ResendVerification", err)
		return
	}

	if err := httputil.WriteSuccess(w, "If the address is registered, a verification email has been sent", nil); err != nil {
		h.log.Error("failed to write success response", "handler", "ResendVerification", "error", err)
	}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	identity, _ := auth.IdentityFrom(r.Context())

	user, err := h.service.GetByID(r.Context(), identity.UserID)
	if err != nil {
		h.writeError(w, "Me", err)
		return
	}

	if err := httputil.WriteSuccess(w, "Profile retrieved", user); err != nil {
		h.log.Error("failed to write success response", "handler", "Me", "error", err)
	}
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	identity, _ := auth.IdentityFrom(r.Context())

	var updates model.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.writeError(w, "UpdateMe", apperrors.InvalidInput("Invalid request body"))
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), identity.UserID, &updates)
	if err != nil {
		h.writeError(w, "UpdateMe", err)
		return
	}

	if err := httputil.WriteSuccess(w, "Profile updated", user); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateMe", "error", err)
	}
}

func (h *UserHandler) UploadValidID(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	identity, _ := auth.IdentityFrom(r.Context())

	var img model.ImageUpload
	if err := json.NewDecoder(r.Body).Decode(&img); err != nil {
		h.writeError(w, "UploadValidID", apperrors.InvalidInput("Invalid request body"))
		return
	}

	user, err := h.service.UploadValidID(r.Context(), identity.UserID, img)
	if err != nil {
		h.writeError(w, "UploadValidID", err)
		return
	}

	if err := httputil.WriteSuccess(w, "ID document uploaded, pending admin approval", user); err != nil {
		h.log.Error("failed to write success response", "handler", "UploadValidID", "error", err)
	}
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	identity, _ := auth.IdentityFrom(r.Context())

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "ChangePassword", apperrors.InvalidInput("Invalid request body"))
		return
	}

	if err := h.service.ChangePassword(r.Context(), identity.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		h.writeError(w, "ChangePassword", err)
		return
	}

	if err := httputil.WriteSuccess(w, "Password changed", nil); err != nil {
		h.log.Error("failed to write success response", "handler", "ChangePassword", "error", err)
	}
}

func (h *UserHandler) AdminList(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	page, limit, err := httputil.ExtractPageLimit(r)
	if err != nil {
		h.writeError(w, "AdminList", err)
		return
	}

	query := r.URL.Query()
	filter := repository.UserFilter{
		UserType:       query.Get("user_type"),
		PendingIDsOnly: query.Get("pending_ids") == "true",
	}

	users, total, err := h.service.GetAll(r.Context(), filter, page, limit)
	if err != nil {
		h.writeError(w, "AdminList", err)
		return
	}

	if err := httputil.WriteSuccess(w, "Users retrieved", map[string]any{
		"users":      users,
		"pagination": httputil.NewPagination(page, limit, total),
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "AdminList", "error", err)
	}
}

func (h *UserHandler) AdminGet(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	user, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "AdminGet", err)
		return
	}

	if err := httputil.WriteSuccess(w, "User retrieved", user); err != nil {
		h.log.Error("failed to write success response", "handler", "AdminGet", "error", err)
	}
}

func (h *UserHandler) ApproveID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	user, err := h.service.ApproveID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "ApproveID", err)
		return
	}

	if err := httputil.WriteSuccess(w, "User ID approved", user); err != nil {
		h.log.Error("failed to write success response", "handler", "ApproveID", "error", err)
	}
}

type setActiveRequest struct {
	Active *bool `json:"active"`
}

func (h *UserHandler) SetActive(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Active == nil {
		h.writeError(w, "SetActive", apperrors.InvalidInput("Request body must contain an 'active' boolean"))
		return
	}

	if err := h.service.SetActive(r.Context(), ps.ByName("id"), *req.Active); err != nil {
		h.writeError(w, "SetActive", err)
		return
	}

	if err := httputil.WriteSuccess(w, "User updated", nil); err != nil {
		h.log.Error("failed to write success response", "handler", "SetActive", "error", err)
	}
}

func (h *UserHandler) Stats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.writeError(w, "Stats", err)
		return
	}

	if err := httputil.WriteSuccess(w, "User statistics retrieved", stats); err != nil {
		h.log.Error("failed to write success response", "handler", "Stats", "error", err)
	}
}

func (h *UserHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "error", writeErr)
	}
}

func (h *UserHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/auth/register", h.Register)
	router.POST("/api/auth/login", h.Login)
	router.POST("/api/auth/logout", h.authn.Authenticate(h.Logout))
	router.GET("/api/auth/verify-email", h.VerifyEmail)
	router.POST("/api/auth/resend-verification", h.ResendVerification)

	router.GET("/api/users/me", h.authn.Authenticate(h.Me))
	router.PATCH("/api/users/me", h.authn.Authenticate(h.UpdateMe))
	router.POST("/api/users/me/valid-id", h.authn.Authenticate(h.UploadValidID))
	router.POST("/api/users/me/password", h.authn.Authenticate(h.ChangePassword))

	router.GET("/api/admin/users", h.authn.Require(auth.OpManageUsers, h.AdminList))
	router.GET("/api/admin/users/stats", h.authn.Require(auth.OpViewAdminStats, h.Stats))
	router.GET("/api/admin/users/id/:id", h.authn.Require(auth.OpManageUsers, h.AdminGet))
	router.POST("/api/admin/users/id/:id/verify-id", h.authn.Require(auth.OpVerifyUserID, h.ApproveID))
	router.PATCH("/api/admin/users/id/:id/active", h.authn.Require(auth.OpManageUsers, h.SetActive))
}
