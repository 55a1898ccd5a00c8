package transport

import (
	"errors"
	"net/http"

	"cleat-store/internal/cart"
	"cleat-store/internal/favorites"
	"cleat-store/internal/middleware"
	"cleat-store/internal/repository"
	"cleat-store/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// respondServiceError maps service and store errors to HTTP answers.
// Unknown errors are logged and answered with fallback as a 500.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, cart.ErrLoginRequired), errors.Is(err, favorites.ErrLoginRequired):
		middleware.RespondLoginRequired(w)
	case errors.Is(err, cart.ErrNoSession), errors.Is(err, favorites.ErrNoSession):
		middleware.RespondWithError(w, http.StatusBadRequest, "missing "+middleware.SessionHeader+" header")
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, repository.ErrUserAlreadyExists):
		middleware.RespondWithError(w, http.StatusConflict, "user with this email already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, service.ErrInvalidToken):
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid refresh token")
	case errors.Is(err, service.ErrTokenExpired):
		middleware.RespondWithError(w, http.StatusUnauthorized, "refresh token expired")
	case errors.Is(err, repository.ErrUserNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, repository.ErrOrderNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, repository.ErrInvalidCursor):
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid cursor")
	case errors.Is(err, service.ErrProductUnavailable):
		middleware.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidVariant),
		errors.Is(err, service.ErrInvalidPrice),
		errors.Is(err, service.ErrInvalidRole):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrEmptyCart):
		middleware.RespondWithError(w, http.StatusConflict, err.Error())
	default:
		logger.Error(fallback, zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}

// currentUserID returns the authenticated user of r
func currentUserID(r *http.Request) (uuid.UUID, bool) {
	userIDStr, ok := middleware.GetUserID(r.Context())
	if !ok {
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, false
	}
	return userID, true
}
