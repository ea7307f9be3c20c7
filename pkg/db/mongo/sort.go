package mongo

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// ParseSort turns a "field" / "-field" sort expression into a Mongo sort
// document. Fields not in allowed fall back to the default, so callers
// cannot sort on unindexed or internal fields.
func ParseSort(sortBy string, allowed map[string]bool, fallback bson.D) bson.D {
	sortBy = strings.TrimSpace(sortBy)
	if sortBy == "" {
		return fallback
	}

	direction := 1
	field := sortBy
	if strings.HasPrefix(sortBy, "-") {
		direction = -1
		field = sortBy[1:]
	}

	if !allowed[field] {
		return fallback
	}

	return bson.D{{Key: field, Value: direction}}
}
