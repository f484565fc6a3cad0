package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/elskow/account-service/internal/httputil"
	"github.com/elskow/account-service/internal/user"
)

// contextKey types the request-context key holding the authenticated user.
type contextKey string

const (
	// UserContextKey is the key used to store the authenticated user in the context
	UserContextKey contextKey = "user"
)

var ErrUnauthenticated = errors.New("could not validate credentials")

// UserLookup is the part of the user directory the middleware needs.
type UserLookup interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (user.User, error)
}

type AuthMiddleware struct {
	codec *TokenCodec
	users UserLookup
	log   *zap.Logger
}

func NewAuthMiddleware(codec *TokenCodec, users UserLookup, log *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		codec: codec,
		users: users,
		log:   log,
	}
}

// RequireAccess admits requests bearing a valid access token of a verified user.
func (m *AuthMiddleware) RequireAccess(next http.Handler) http.Handler {
	return m.require(KindAccess, next)
}

// RequireRefresh admits requests bearing a valid refresh token of a verified user.
func (m *AuthMiddleware) RequireRefresh(next http.Handler) http.Handler {
	return m.require(KindRefresh, next)
}

func (m *AuthMiddleware) require(kind Kind, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := m.Authenticate(r.Context(), r.Header.Get("Authorization"), kind)
		if err != nil && !errors.Is(err, ErrUnauthenticated) {
			m.log.Error("failed to load principal", zap.Error(err))
			httputil.RespondError(w, "internal server error", http.StatusInternalServerError)
			return
		}
		if err != nil {
			m.log.Debug("authentication failed",
				zap.String("path", r.URL.Path),
				zap.String("token_kind", string(kind)),
				zap.Error(err))
			w.Header().Set("WWW-Authenticate", "Bearer")
			httputil.RespondError(w, ErrUnauthenticated.Error(), http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), UserContextKey, u)))
	})
}

// Authenticate resolves an Authorization header value into the principal.
// Token and principal failures are reported as ErrUnauthenticated; storage
// errors are returned as is.
func (m *AuthMiddleware) Authenticate(ctx context.Context, header string, kind Kind) (user.User, error) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return user.User{}, ErrUnauthenticated
	}

	claims, err := m.codec.Parse(strings.TrimSpace(token), kind)
	if err != nil {
		return user.User{}, ErrUnauthenticated
	}

	u, err := m.users.GetUserByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return user.User{}, ErrUnauthenticated
		}
		return user.User{}, err
	}
	if !u.IsVerified {
		return user.User{}, ErrUnauthenticated
	}

	return u, nil
}

// GetUserFromContext returns the principal stored by RequireAccess or RequireRefresh.
func GetUserFromContext(ctx context.Context) (user.User, error) {
	u, ok := ctx.Value(UserContextKey).(user.User)
	if !ok {
		return user.User{}, ErrUnauthenticated
	}
	return u, nil
}
