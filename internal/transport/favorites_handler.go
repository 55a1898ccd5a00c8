package transport

import (
	"net/http"

	"cleat-store/internal/favorites"
	"cleat-store/internal/middleware"
	"cleat-store/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ToggleFavoriteRequest names the product to flip
type ToggleFavoriteRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

// ToggleFavoriteResponse reports the new membership and the list
type ToggleFavoriteResponse struct {
	Favorite  bool           `json:"favorite"`
	Favorites favorites.View `json:"favorites"`
}

// FavoritesHandler serves the favorites of the requesting user or guest
type FavoritesHandler struct {
	basketService service.BasketService
	logger        *zap.Logger
}

// NewFavoritesHandler creates a new FavoritesHandler
func NewFavoritesHandler(basketService service.BasketService, logger *zap.Logger) *FavoritesHandler {
	return &FavoritesHandler{basketService: basketService, logger: logger}
}

// RegisterRoutes registers the favorites routes behind optionalAuth
func (h *FavoritesHandler) RegisterRoutes(r chi.Router, optionalAuth func(http.Handler) http.Handler) {
	r.Route("/api/favorites", func(r chi.Router) {
		r.Use(optionalAuth)
		r.Get("/", h.Get)
		r.Post("/toggle", h.Toggle)
		r.Delete("/{productID}", h.Remove)
	})
}

func (h *FavoritesHandler) Get(w http.ResponseWriter, r *http.Request) {
	m, err := h.basketService.Favorites(r.Context(), middleware.IdentityFrom(r.Context()))
	if err != nil {
		h.logger.Warn("Favorites served without stored entries", zap.Error(err))
	}
	middleware.RespondWithJSON(w, http.StatusOK, m.View())
}

// Toggle adds or removes a product
func (h *FavoritesHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	var req ToggleFavoriteRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	added, view, err := h.basketService.ToggleFavorite(r.Context(), middleware.IdentityFrom(r.Context()), req.ProductID)
	if err != nil {
		respondServiceError(w, h.logger, err, favorites.SaveErrorMessage)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, ToggleFavoriteResponse{Favorite: added, Favorites: view})
}

// Remove drops a product from favorites
func (h *FavoritesHandler) Remove(w http.ResponseWriter, r *http.Request) {
	m, err := h.basketService.Favorites(r.Context(), middleware.IdentityFrom(r.Context()))
	if err != nil {
		respondServiceError(w, h.logger, err, favorites.LoadErrorMessage)
		return
	}
	if err := m.Remove(r.Context(), chi.URLParam(r, "productID")); err != nil {
		respondServiceError(w, h.logger, err, favorites.SaveErrorMessage)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, m.View())
}
