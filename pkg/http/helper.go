package http

import (
	"net/http"
	"strconv"

	"rentease/pkg/config"
	apperrors "rentease/pkg/errors"
)

// ExtractPageLimit reads page/limit query parameters, rejecting garbage
// and normalizing out-of-range values to the configured bounds.
func ExtractPageLimit(r *http.Request) (int, int, error) {
	query := r.URL.Query()

	page := 1
	if s := query.Get("page"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid page parameter: " + s)
		}
		page = v
	}

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	return config.NormalizePage(page), config.NormalizePageSize(limit), nil
}
