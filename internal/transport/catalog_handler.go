package transport

import (
	"context"
	"net/http"

	"cleat-store/internal/catalog"
	"cleat-store/internal/domain"
	"cleat-store/internal/middleware"
	"cleat-store/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ParamCursor carries the opaque page cursor of a listing
const ParamCursor = "cursor"

// ListResponse is one page of a storefront listing together with the
// filters it was computed for
type ListResponse struct {
	catalog.Page
	Filters   catalog.FilterState `json:"filters"`
	Active    bool                `json:"has_active_filters"`
	NextQuery string              `json:"next_query,omitempty"`
}

// CatalogHandler serves the storefront product listings
type CatalogHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(productService service.ProductService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{productService: productService, logger: logger}
}

// RegisterRoutes registers the public product routes
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/facets", h.Facets)
		r.Get("/on-sale", h.OnSale)
		r.Get("/new", h.NewArrivals)
		r.Get("/featured", h.Featured)
		r.Get("/{id}", h.Get)
	})
}

// List answers one page of products for the filters in the query string
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filters := catalog.ParseQuery(query).Normalize()

	page, err := h.productService.List(r.Context(), filters, query.Get(ParamCursor))
	if err != nil {
		respondServiceError(w, h.logger, err, catalog.LoadErrorMessage)
		return
	}

	response := ListResponse{
		Page:    page,
		Filters: filters,
		Active:  filters.HasActiveFilters(),
	}
	if page.HasMore && page.Cursor != "" {
		next := filters.Encode()
		next.Set(ParamCursor, page.Cursor)
		response.NextQuery = next.Encode()
	}
	if response.Products == nil {
		response.Products = []domain.Product{}
	}

	middleware.RespondWithJSON(w, http.StatusOK, response)
}

// Get answers a single active product
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.productService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to load product")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Facets answers the values the listing can be narrowed by
func (h *CatalogHandler) Facets(w http.ResponseWriter, r *http.Request) {
	facets, err := h.productService.Facets(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to load facets")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, facets)
}

func (h *CatalogHandler) OnSale(w http.ResponseWriter, r *http.Request) {
	h.showcase(w, r, h.productService.OnSale)
}

func (h *CatalogHandler) NewArrivals(w http.ResponseWriter, r *http.Request) {
	h.showcase(w, r, h.productService.NewArrivals)
}

func (h *CatalogHandler) Featured(w http.ResponseWriter, r *http.Request) {
	h.showcase(w, r, h.productService.Featured)
}

func (h *CatalogHandler) showcase(w http.ResponseWriter, r *http.Request, load func(ctx context.Context) ([]domain.Product, error)) {
	products, err := load(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, catalog.LoadErrorMessage)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}
