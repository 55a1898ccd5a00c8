package transport

import (
	"net/http"

	"cleat-store/internal/cart"
	"cleat-store/internal/domain"
	"cleat-store/internal/middleware"
	"cleat-store/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UpdateQuantityRequest sets the quantity of one cart line
type UpdateQuantityRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity" validate:"lte=99"`
}

// CartHandler serves the cart of the requesting user or guest session
type CartHandler struct {
	basketService service.BasketService
	logger        *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(basketService service.BasketService, logger *zap.Logger) *CartHandler {
	return &CartHandler{basketService: basketService, logger: logger}
}

// RegisterRoutes registers the cart routes behind optionalAuth
func (h *CartHandler) RegisterRoutes(r chi.Router, optionalAuth func(http.Handler) http.Handler) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Use(optionalAuth)
		r.Get("/", h.Get)
		r.Delete("/", h.Clear)
		r.Post("/items", h.AddItem)
		r.Patch("/items", h.UpdateQuantity)
		r.Delete("/items", h.RemoveItem)
		r.Delete("/items/{productID}", h.RemoveProduct)
	})
}

// Get answers the current cart
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	m, err := h.basketService.Cart(r.Context(), middleware.IdentityFrom(r.Context()))
	if err != nil {
		// The view carries the load error; the cart is shown empty
		h.logger.Warn("Cart served without stored lines", zap.Error(err))
	}
	middleware.RespondWithJSON(w, http.StatusOK, m.View())
}

// AddItem adds a product line to the cart
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req service.AddToCartInput
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	view, err := h.basketService.AddToCart(r.Context(), middleware.IdentityFrom(r.Context()), req)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to update cart")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, view)
}

// UpdateQuantity sets the quantity of a line; zero or less removes it
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	key := domain.LineKey{ProductID: req.ProductID, Size: req.Size, Color: req.Color}
	h.mutate(w, r, func(m *cart.Manager) error {
		return m.UpdateQuantity(r.Context(), key, req.Quantity)
	})
}

// RemoveItem removes the line named by the product_id, size and color
// query parameters
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	key := domain.LineKey{ProductID: q.Get("product_id"), Size: q.Get("size"), Color: q.Get("color")}
	if key.ProductID == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "product_id is required")
		return
	}

	h.mutate(w, r, func(m *cart.Manager) error {
		return m.RemoveItem(r.Context(), key)
	})
}

// RemoveProduct removes every line of a product
func (h *CartHandler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	h.mutate(w, r, func(m *cart.Manager) error {
		return m.RemoveProduct(r.Context(), productID)
	})
}

// Clear empties the cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(m *cart.Manager) error {
		return m.Clear(r.Context())
	})
}

// mutate loads the cart of the request identity, applies one change and
// answers the resulting view
func (h *CartHandler) mutate(w http.ResponseWriter, r *http.Request, apply func(m *cart.Manager) error) {
	m, err := h.basketService.Cart(r.Context(), middleware.IdentityFrom(r.Context()))
	if err != nil {
		respondServiceError(w, h.logger, err, cart.LoadErrorMessage)
		return
	}
	if err := apply(m); err != nil {
		respondServiceError(w, h.logger, err, cart.SaveErrorMessage)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, m.View())
}
