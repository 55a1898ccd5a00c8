package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"cleat-store/internal/domain"
	"cleat-store/internal/repository"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// session is what a shopper holds after signing in
type session struct {
	svc     UserService
	users   *mockUserRepository
	tokens  *mockRefreshTokenRepository
	user    *domain.User
	access  string
	refresh string
}

// signedIn registers an account and logs it in against fresh mocks
func signedIn(email, password, name string) (*session, error) {
	s := &session{users: newMockUserRepository(), tokens: newMockRefreshTokenRepository()}
	s.svc = NewUserService(s.users, s.tokens, TokenConfig{Secret: "test-secret"})

	ctx := context.Background()
	if _, err := s.svc.Register(ctx, email, password, name); err != nil {
		return nil, err
	}
	var err error
	s.access, s.refresh, s.user, err = s.svc.Login(ctx, email, password)
	return s, err
}

var (
	genEmail    = gen.RegexMatch(`[a-z]{3,10}@[a-z]{3,8}\.(com|org|net)`)
	genPassword = gen.RegexMatch(`[A-Za-z0-9!@#$%]{8,20}`)
	genName     = gen.RegexMatch(`[A-Z][a-z]{2,15} [A-Z][a-z]{2,15}`)
)

// Feature: storefront-accounts, Property 1: Registration creates hashed passwords
func TestProperty_RegistrationCreatesHashedPasswords(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("only a bcrypt hash of the password is stored", prop.ForAll(
		func(email, password, name string) bool {
			s, err := signedIn(email, password, name)
			if err != nil {
				t.Logf("sign-in failed: %v", err)
				return false
			}
			stored, err := s.users.FindByEmail(context.Background(), email)
			if err != nil || stored.PasswordHash == password {
				return false
			}
			return bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(password)) == nil
		},
		genEmail, genPassword, genName,
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: storefront-accounts, Property 5: JWT tokens contain required claims
func TestProperty_JWTTokensContainRequiredClaims(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("access tokens carry the user id, role and lifetime", prop.ForAll(
		func(email, password string, role domain.Role) bool {
			s, err := signedIn(email, password, "Claims Check")
			if err != nil {
				return false
			}
			// the role is read from the account at login time
			s.users.users[email].Role = role
			access, _, _, err := s.svc.Login(context.Background(), email, password)
			if err != nil {
				return false
			}

			claims, err := s.svc.ValidateToken(access)
			if err != nil {
				t.Logf("token rejected: %v", err)
				return false
			}
			return claims.UserID == s.user.ID &&
				claims.Role == role &&
				claims.Subject == s.user.ID.String() &&
				claims.ExpiresAt != nil && claims.IssuedAt != nil &&
				claims.ExpiresAt.After(claims.IssuedAt.Time)
		},
		genEmail, genPassword,
		gen.OneConstOf(domain.RoleCustomer, domain.RoleSeller, domain.RoleAdmin),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: storefront-accounts, Property 7: Token refresh round trip
func TestProperty_TokenRefreshRoundTrip(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("a live refresh token yields a valid access token for the same user", prop.ForAll(
		func(email, password, name string) bool {
			s, err := signedIn(email, password, name)
			if err != nil {
				return false
			}
			access, err := s.svc.RefreshToken(context.Background(), s.refresh)
			if err != nil {
				t.Logf("refresh failed: %v", err)
				return false
			}
			claims, err := s.svc.ValidateToken(access)
			if err != nil {
				return false
			}
			return claims.UserID == s.user.ID && claims.Role == s.user.Role &&
				time.Now().Before(claims.ExpiresAt.Time)
		},
		genEmail, genPassword, genName,
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: storefront-accounts, Property 8: Logout invalidates refresh token
func TestProperty_LogoutInvalidatesRefreshToken(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("after logout the refresh token is revoked and cannot be exchanged", prop.ForAll(
		func(email, password, name string) bool {
			s, err := signedIn(email, password, name)
			if err != nil {
				return false
			}
			ctx := context.Background()

			if err := s.svc.Logout(ctx, s.refresh); err != nil {
				return false
			}
			if err := s.svc.Logout(ctx, s.refresh); err != nil {
				t.Logf("second logout should be a no-op: %v", err)
				return false
			}

			_, err = s.svc.RefreshToken(ctx, s.refresh)
			if !errors.Is(err, ErrInvalidToken) {
				t.Logf("expected ErrInvalidToken, got %v", err)
				return false
			}
			stored, err := s.tokens.FindByToken(ctx, s.refresh)
			return stored == nil && errors.Is(err, repository.ErrRefreshTokenRevoked)
		},
		genEmail, genPassword, genName,
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRefreshRejectsExpiredToken(t *testing.T) {
	s, err := signedIn("lia@example.com", "password123", "Lia")
	require.NoError(t, err)
	s.tokens.tokens[s.refresh].ExpiresAt = time.Now().Add(-time.Minute)

	_, err = s.svc.RefreshToken(context.Background(), s.refresh)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestPurgeSessions(t *testing.T) {
	s, err := signedIn("lia@example.com", "password123", "Lia")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.tokens.Create(ctx, &domain.RefreshToken{
		ID: uuid.New(), UserID: s.user.ID, Token: "stale",
		ExpiresAt: time.Now().Add(-time.Hour), CreatedAt: time.Now().Add(-48 * time.Hour),
	}))
	require.NoError(t, s.tokens.Create(ctx, &domain.RefreshToken{
		ID: uuid.New(), UserID: s.user.ID, Token: "revoked",
		ExpiresAt: time.Now().Add(time.Hour), CreatedAt: time.Now(), Revoked: true,
	}))

	purged, err := s.svc.PurgeSessions(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, purged)

	_, err = s.svc.RefreshToken(ctx, s.refresh)
	assert.NoError(t, err, "the live session survives")
}

func TestRegisterNormalisesEmailAndAssignsCustomerRole(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(newMockUserRepository(), newMockRefreshTokenRepository(), TokenConfig{Secret: "test-secret"})

	user, err := svc.Register(ctx, "  Ana@Example.COM ", "password123", " Ana Souza ")
	require.NoError(t, err)

	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, "Ana Souza", user.Name)
	assert.Equal(t, domain.RoleCustomer, user.Role)

	_, err = svc.Register(ctx, "ana@example.com", "password123", "Ana")
	assert.ErrorIs(t, err, repository.ErrUserAlreadyExists)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(newMockUserRepository(), newMockRefreshTokenRepository(), TokenConfig{Secret: "test-secret"})

	_, err := svc.Register(ctx, "ana@example.com", "password123", "Ana")
	require.NoError(t, err)

	_, _, _, err = svc.Login(ctx, "ana@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, _, err = svc.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateRoleRevokesRefreshTokens(t *testing.T) {
	ctx := context.Background()
	tokens := newMockRefreshTokenRepository()
	svc := NewUserService(newMockUserRepository(), tokens, TokenConfig{Secret: "test-secret"})

	_, err := svc.Register(ctx, "seller@example.com", "password123", "Seller")
	require.NoError(t, err)
	_, refreshToken, user, err := svc.Login(ctx, "seller@example.com", "password123")
	require.NoError(t, err)

	updated, err := svc.UpdateRole(ctx, user.ID, domain.RoleSeller)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSeller, updated.Role)

	_, err = svc.RefreshToken(ctx, refreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.UpdateRole(ctx, user.ID, domain.Role("owner"))
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestPromoteByEmail(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(newMockUserRepository(), newMockRefreshTokenRepository(), TokenConfig{Secret: "test-secret"})

	_, err := svc.Register(ctx, "boss@example.com", "password123", "Boss")
	require.NoError(t, err)

	user, err := svc.PromoteByEmail(ctx, "BOSS@example.com", domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)

	_, err = svc.PromoteByEmail(ctx, "ghost@example.com", domain.RoleAdmin)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestUpdateProfileTrimsName(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(newMockUserRepository(), newMockRefreshTokenRepository(), TokenConfig{Secret: "test-secret"})

	user, err := svc.Register(ctx, "ana@example.com", "password123", "Ana")
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(ctx, user.ID, "  Ana Clara ")
	require.NoError(t, err)
	assert.Equal(t, "Ana Clara", updated.Name)
}

func TestExpiredAccessTokenIsRejected(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(newMockUserRepository(), newMockRefreshTokenRepository(), TokenConfig{
		Secret:    "test-secret",
		AccessTTL: time.Nanosecond,
	})

	_, err := svc.Register(ctx, "ana@example.com", "password123", "Ana")
	require.NoError(t, err)
	accessToken, _, _, err := svc.Login(ctx, "ana@example.com", "password123")
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond)
	_, err = svc.ValidateToken(accessToken)
	assert.Error(t, err)
}
