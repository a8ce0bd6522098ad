// Package repositories holds the MongoDB persistence layer. Each repository
// wraps one collection and maps driver errors to the service sentinels:
// mongo.ErrNoDocuments becomes services.ErrNotFound, duplicate-key errors
// become services.ErrDuplicate.
package repositories

import (
	"go.mongodb.org/mongo-driver/mongo"

	"dukaan/app/services"
)

// mapErr translates driver errors into service sentinels.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case err == mongo.ErrNoDocuments:
		return services.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return services.ErrDuplicate
	default:
		return err
	}
}

// pageWindow normalises page/limit into skip/limit values.
func pageWindow(page, limit int) (int64, int64) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}
	return int64((page - 1) * limit), int64(limit)
}
