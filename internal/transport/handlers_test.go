package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cleat-store/internal/cart"
	"cleat-store/internal/domain"
	"cleat-store/internal/middleware"
	"cleat-store/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func newTestRouter(basket *testBasket) chi.Router {
	logger := zap.NewNop()
	r := chi.NewRouter()
	NewCartHandler(basket, logger).RegisterRoutes(r, middleware.OptionalAuth(testSecret, logger))
	NewFavoritesHandler(basket, logger).RegisterRoutes(r, middleware.OptionalAuth(testSecret, logger))
	NewCatalogHandler(service.NewProductService(basket.products, mockFacetRepository{}, 20, logger), logger).RegisterRoutes(r)
	return r
}

func bearer(t *testing.T, userID, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func do(t *testing.T, h http.Handler, method, target string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) cart.View {
	t.Helper()
	var view cart.View
	require.NoError(t, json.NewDecoder(w.Body).Decode(&view))
	return view
}

func basketGuest(sessionID string) domain.Identity {
	return domain.Identity{SessionID: sessionID}
}

func TestGuestCartMutationRequiresLogin(t *testing.T) {
	router := newTestRouter(newTestBasket(true))

	w := do(t, router, http.MethodPost, "/api/cart/items",
		service.AddToCartInput{ProductID: "boot-1", Size: "40", Color: "black", Quantity: 1},
		map[string]string{middleware.SessionHeader: "sess-1"})

	require.Equal(t, http.StatusUnauthorized, w.Code)

	var response middleware.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "login required", response.Error.Message)
	assert.Equal(t, "/login", response.Error.Details["redirect"])
}

func TestGuestCartWithSession(t *testing.T) {
	basket := newTestBasket(false)
	router := newTestRouter(basket)
	session := map[string]string{middleware.SessionHeader: "sess-1"}

	w := do(t, router, http.MethodPost, "/api/cart/items",
		service.AddToCartInput{ProductID: "boot-1", Size: "40", Color: "black", Quantity: 2}, session)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "600.00", decodeView(t, w).Total)
	assert.True(t, basket.guestCarts.has("guest:sess-1"))

	w = do(t, router, http.MethodGet, "/api/cart", nil, session)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decodeView(t, w).Count)

	w = do(t, router, http.MethodPost, "/api/cart/items",
		service.AddToCartInput{ProductID: "boot-1", Size: "40", Color: "black", Quantity: 1}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "no session to hold the cart")
}

func TestCartLineRemoval(t *testing.T) {
	router := newTestRouter(newTestBasket(true))
	auth := map[string]string{"Authorization": bearer(t, "user-1", "customer")}

	for _, size := range []string{"40", "41"} {
		w := do(t, router, http.MethodPost, "/api/cart/items",
			service.AddToCartInput{ProductID: "boot-1", Size: size, Color: "black", Quantity: 1}, auth)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := do(t, router, http.MethodDelete, "/api/cart/items?product_id=boot-1&size=40&color=black", nil, auth)
	require.Equal(t, http.StatusOK, w.Code)
	view := decodeView(t, w)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "41", view.Items[0].Size)

	w = do(t, router, http.MethodPatch, "/api/cart/items",
		UpdateQuantityRequest{ProductID: "boot-1", Size: "41", Color: "black", Quantity: 3}, auth)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "900.00", decodeView(t, w).Total)

	w = do(t, router, http.MethodDelete, "/api/cart/items/boot-1", nil, auth)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeView(t, w).Items)
}

func TestAddUnknownProductIsNotFound(t *testing.T) {
	router := newTestRouter(newTestBasket(true))
	auth := map[string]string{"Authorization": bearer(t, "user-1", "customer")}

	w := do(t, router, http.MethodPost, "/api/cart/items", service.AddToCartInput{ProductID: "nope", Quantity: 1}, auth)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, router, http.MethodPost, "/api/cart/items", map[string]string{}, auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGuestAddOfUnknownProductAsksForLogin(t *testing.T) {
	router := newTestRouter(newTestBasket(true))
	guest := map[string]string{middleware.SessionHeader: "sess-1"}

	w := do(t, router, http.MethodPost, "/api/cart/items", service.AddToCartInput{ProductID: "nope", Quantity: 1}, guest)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"redirect":"/login"`)

	w = do(t, router, http.MethodPost, "/api/favorites/toggle", ToggleFavoriteRequest{ProductID: "nope"}, guest)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCartQuantityIsBounded(t *testing.T) {
	router := newTestRouter(newTestBasket(true))
	auth := map[string]string{"Authorization": bearer(t, "user-1", "customer")}

	w := do(t, router, http.MethodPost, "/api/cart/items",
		service.AddToCartInput{ProductID: "boot-1", Size: "40", Color: "black", Quantity: 100}, auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodPost, "/api/cart/items",
		service.AddToCartInput{ProductID: "boot-1", Size: "40", Color: "black", Quantity: 99}, auth)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, router, http.MethodPatch, "/api/cart/items",
		UpdateQuantityRequest{ProductID: "boot-1", Size: "40", Color: "black", Quantity: 1 << 40}, auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodPost, "/api/cart/items",
		service.AddToCartInput{ProductID: "boot-1", Size: "40", Color: "black", Quantity: 5}, auth)
	require.Equal(t, http.StatusOK, w.Code)
	view := decodeView(t, w)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 99, view.Items[0].Quantity, "merged lines stop at the line cap")
}

func TestFavoritesToggleRoute(t *testing.T) {
	router := newTestRouter(newTestBasket(true))
	auth := map[string]string{"Authorization": bearer(t, "user-1", "customer")}

	w := do(t, router, http.MethodPost, "/api/favorites/toggle", ToggleFavoriteRequest{ProductID: "boot-2"}, auth)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var toggled ToggleFavoriteResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&toggled))
	assert.True(t, toggled.Favorite)
	require.Len(t, toggled.Favorites.Items, 1)
	assert.Equal(t, "Adidas", toggled.Favorites.Items[0].Brand)

	w = do(t, router, http.MethodDelete, "/api/favorites/boot-2", nil, auth)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodPost, "/api/favorites/toggle", ToggleFavoriteRequest{ProductID: "boot-2"},
		map[string]string{middleware.SessionHeader: "sess-1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCatalogRoutes(t *testing.T) {
	router := newTestRouter(newTestBasket(true))

	w := do(t, router, http.MethodGet, "/api/products?category=futsal&sort=price-asc", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list ListResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	require.Len(t, list.Products, 1)
	assert.Equal(t, "boot-2", list.Products[0].ID)
	assert.False(t, list.HasMore)
	assert.True(t, list.Active)

	w = do(t, router, http.MethodGet, "/api/products/boot-1", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "Mercurial Vapor"))

	w = do(t, router, http.MethodGet, "/api/products/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, router, http.MethodGet, "/api/products/facets", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "futsal")
}

func TestLoginWithSessionDiscardsGuestCart(t *testing.T) {
	ctx := context.Background()
	basket := newTestBasket(false)
	userService := service.NewUserService(newMockUserRepository(), newMockRefreshTokenRepository(), service.TokenConfig{Secret: testSecret})
	_, err := userService.Register(ctx, "ana@example.com", "password123", "Ana")
	require.NoError(t, err)

	_, err = basket.AddToCart(ctx, basketGuest("sess-9"),
		service.AddToCartInput{ProductID: "boot-1", Size: "40", Color: "black", Quantity: 1})
	require.NoError(t, err)
	require.True(t, basket.guestCarts.has("guest:sess-9"))

	handler := NewUserHandler(userService, basket, zap.NewNop())
	w := do(t, http.HandlerFunc(handler.Login), http.MethodPost, "/api/users/login",
		LoginRequest{Email: "ana@example.com", Password: "password123"},
		map[string]string{middleware.SessionHeader: "sess-9"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.False(t, basket.guestCarts.has("guest:sess-9"))
}
