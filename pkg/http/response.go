package http

import (
	"encoding/json"
	"net/http"

	apperrors "rentease/pkg/errors"
)

// Response is the envelope every endpoint returns.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Pagination describes the slice of a list response.
type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int64 `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
}

func NewPagination(page, limit int, total int64) Pagination {
	totalPages := total / int64(limit)
	if total%int64(limit) != 0 {
		totalPages++
	}
	return Pagination{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalItems:   total,
		ItemsPerPage: limit,
	}
}

func WriteJSON(w http.ResponseWriter, statusCode int, payload any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(payload)
}

func WriteSuccess(w http.ResponseWriter, message string, data any) error {
	return WriteJSON(w, http.StatusOK, Response{Success: true, Message: message, Data: data})
}

func WriteCreated(w http.ResponseWriter, message string, data any) error {
	return WriteJSON(w, http.StatusCreated, Response{Success: true, Message: message, Data: data})
}

// WriteError maps an AppError's status onto the envelope. Unknown errors
// surface as a generic 500 so internal details never reach the client.
func WriteError(w http.ResponseWriter, err error) error {
	appErr := apperrors.AsAppError(err)

	body := Response{Success: false, Message: appErr.Message}
	if len(appErr.Details) > 0 {
		body.Data = map[string]any{"details": appErr.Details}
	}
	return WriteJSON(w, appErr.StatusCode(), body)
}
