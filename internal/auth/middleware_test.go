package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elskow/account-service/internal/user"
)

type stubLookup struct {
	users map[uuid.UUID]user.User
	err   error
}

func (s *stubLookup) GetUserByID(_ context.Context, id uuid.UUID) (user.User, error) {
	if s.err != nil {
		return user.User{}, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func TestAuthMiddleware_RequireAccess(t *testing.T) {
	codec := newTestCodec(t)

	verified := user.User{ID: uuid.New(), Username: "alice", IsVerified: true}
	unverified := user.User{ID: uuid.New(), Username: "bob"}
	lookup := &stubLookup{users: map[uuid.UUID]user.User{
		verified.ID:   verified,
		unverified.ID: unverified,
	}}
	m := NewAuthMiddleware(codec, lookup, newTestLogger(t))

	access, err := codec.IssueAccess(verified.ID)
	require.NoError(t, err)
	refresh, err := codec.IssueRefresh(verified.ID)
	require.NoError(t, err)
	unverifiedAccess, err := codec.IssueAccess(unverified.ID)
	require.NoError(t, err)
	unknownAccess, err := codec.IssueAccess(uuid.New())
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "valid access token", header: "Bearer " + access, wantStatus: http.StatusOK},
		{name: "lowercase scheme", header: "bearer " + access, wantStatus: http.StatusOK},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + access, wantStatus: http.StatusUnauthorized},
		{name: "refresh token", header: "Bearer " + refresh, wantStatus: http.StatusUnauthorized},
		{name: "unverified user", header: "Bearer " + unverifiedAccess, wantStatus: http.StatusUnauthorized},
		{name: "deleted user", header: "Bearer " + unknownAccess, wantStatus: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer invalid.token.here", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got user.User
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				u, err := GetUserFromContext(r.Context())
				require.NoError(t, err)
				got = u
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/user/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			m.RequireAccess(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, verified.ID, got.ID)
				return
			}
			assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
			assert.JSONEq(t, `{"error":"could not validate credentials"}`, rec.Body.String())
		})
	}
}

func TestAuthMiddleware_RequireRefresh(t *testing.T) {
	codec := newTestCodec(t)
	u := user.User{ID: uuid.New(), IsVerified: true}
	m := NewAuthMiddleware(codec, &stubLookup{users: map[uuid.UUID]user.User{u.ID: u}}, newTestLogger(t))

	access, err := codec.IssueAccess(u.ID)
	require.NoError(t, err)
	refresh, err := codec.IssueRefresh(u.ID)
	require.NoError(t, err)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	for token, want := range map[string]int{
		refresh: http.StatusNoContent,
		access:  http.StatusUnauthorized,
	} {
		req := httptest.NewRequest(http.MethodPost, "/auth/refresh-token", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		m.RequireRefresh(next).ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code)
	}
}

func TestAuthMiddleware_StorageFailure(t *testing.T) {
	codec := newTestCodec(t)
	m := NewAuthMiddleware(codec, &stubLookup{err: errors.New("connection refused")}, newTestLogger(t))

	token, err := codec.IssueAccess(uuid.New())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/user/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	m.RequireAccess(http.NotFoundHandler()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetUserFromContext_Missing(t *testing.T) {
	_, err := GetUserFromContext(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
