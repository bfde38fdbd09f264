package transport

import (
	"errors"
	"net/http"

	"decor-admin/internal/middleware"
	"decor-admin/internal/repository"
	"decor-admin/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// statusFor maps service and repository sentinels onto HTTP statuses.
// Anything unrecognised is a server error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrCategoryNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrProductInUse),
		errors.Is(err, service.ErrStockChanged),
		errors.Is(err, repository.ErrProductSlugExists),
		errors.Is(err, repository.ErrCategoryAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, service.ErrEmptyOrder),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrNegativeStock),
		errors.Is(err, service.ErrNegativePrice),
		errors.Is(err, service.ErrEmptySlug):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err using statusFor. Server errors are logged and
// their message replaced by fallback.
func respondError(w http.ResponseWriter, logger *zap.Logger, err error, fallback string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error(fallback, zap.Error(err))
		middleware.RespondWithError(w, status, fallback)
		return
	}
	middleware.RespondWithError(w, status, err.Error())
}

// idParam parses a UUID path parameter, answering 400 when it is malformed
func idParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
