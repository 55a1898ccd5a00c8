package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"cleat-store/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	UserRoleKey  contextKey = "user_role"
	SessionIDKey contextKey = "session_id"
)

// SessionHeader carries the guest session id of anonymous shoppers
const SessionHeader = "X-Session-ID"

var (
	errMissingToken = errors.New("missing authorization header")
	errBadFormat    = errors.New("invalid authorization header format")
	errExpired      = errors.New("token expired")
	errInvalid      = errors.New("invalid token")
	errClaims       = errors.New("invalid token claims")
)

// AuthMiddleware validates JWT tokens and extracts user claims
func AuthMiddleware(jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, role, err := authenticate(r, jwtSecret)
			if err != nil {
				logger.Debug("Authentication failed", zap.Error(err))
				RespondWithError(w, http.StatusUnauthorized, err.Error())
				return
			}

			logger.Debug("User authenticated",
				zap.String("user_id", userID),
				zap.String("role", role),
			)

			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), userID, role)))
		})
	}
}

// OptionalAuth attaches the user when a valid bearer token is present and
// the guest session id when one is sent. A request without a token passes
// through anonymously; a request with a bad token is rejected.
func OptionalAuth(jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if sessionID := strings.TrimSpace(r.Header.Get(SessionHeader)); sessionID != "" {
				ctx = context.WithValue(ctx, SessionIDKey, sessionID)
			}

			userID, role, err := authenticate(r, jwtSecret)
			switch {
			case errors.Is(err, errMissingToken):
			case err != nil:
				logger.Debug("Authentication failed", zap.Error(err))
				RespondWithError(w, http.StatusUnauthorized, err.Error())
				return
			default:
				ctx = withUser(ctx, userID, role)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(r *http.Request, jwtSecret string) (string, string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", "", errMissingToken
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", "", errBadFormat
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", "", errExpired
		}
		return "", "", errInvalid
	}
	if !token.Valid {
		return "", "", errInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", errClaims
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", "", errClaims
	}
	role, ok := claims["role"].(string)
	if !ok {
		return "", "", errClaims
	}
	return userID, role, nil
}

func withUser(ctx context.Context, userID, role string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, UserRoleKey, role)
}

// GetUserID extracts user ID from request context
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

// GetUserRole extracts user role from request context
func GetUserRole(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(UserRoleKey).(string)
	return role, ok
}

// GetSessionID extracts the guest session id from request context
func GetSessionID(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(SessionIDKey).(string)
	return sessionID, ok
}

// IdentityFrom builds the cart and favorites owner of a request
func IdentityFrom(ctx context.Context) domain.Identity {
	userID, _ := GetUserID(ctx)
	sessionID, _ := GetSessionID(ctx)
	return domain.Identity{UserID: userID, SessionID: sessionID}
}
