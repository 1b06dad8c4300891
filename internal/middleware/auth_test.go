package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/stckr/qr-server-go/internal/model"
	"github.com/stckr/qr-server-go/internal/util"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.User, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func nextCapturingUser(captured **model.User, called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		*captured = GetUser(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthHandler_MissingToken(t *testing.T) {
	m := NewAuthMiddleware(new(mockUserRepo))

	var user *model.User
	var called bool
	handler := m.Handler(nextCapturingUser(&user, &called))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestAuthHandler_InvalidToken(t *testing.T) {
	userRepo := new(mockUserRepo)
	userRepo.On("FindByTokenHash", mock.Anything, util.HashToken("bad-token")).Return(nil, nil)

	m := NewAuthMiddleware(userRepo)

	var user *model.User
	var called bool
	handler := m.Handler(nextCapturingUser(&user, &called))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestAuthHandler_ValidToken(t *testing.T) {
	userRepo := new(mockUserRepo)
	userRepo.On("FindByTokenHash", mock.Anything, util.HashToken("good-token")).
		Return(&model.User{ID: "user-a"}, nil)

	m := NewAuthMiddleware(userRepo)

	var user *model.User
	var called bool
	handler := m.Handler(nextCapturingUser(&user, &called))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
	assert.NotNil(t, user)
	assert.Equal(t, "user-a", user.ID)
}

func TestAuthOptional_AnonymousPassesThrough(t *testing.T) {
	m := NewAuthMiddleware(new(mockUserRepo))

	var user *model.User
	var called bool
	handler := m.Optional(nextCapturingUser(&user, &called))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
	assert.Nil(t, user)
}

func TestAuthOptional_InvalidTokenTreatedAsAnonymous(t *testing.T) {
	userRepo := new(mockUserRepo)
	userRepo.On("FindByTokenHash", mock.Anything, mock.Anything).Return(nil, nil)

	m := NewAuthMiddleware(userRepo)

	var user *model.User
	var called bool
	handler := m.Optional(nextCapturingUser(&user, &called))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer stale-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
	assert.Nil(t, user)
}

func TestAuthOptional_ValidTokenResolvesUser(t *testing.T) {
	userRepo := new(mockUserRepo)
	userRepo.On("FindByTokenHash", mock.Anything, util.HashToken("good-token")).
		Return(&model.User{ID: "user-a"}, nil)

	m := NewAuthMiddleware(userRepo)

	var user *model.User
	var called bool
	handler := m.Optional(nextCapturingUser(&user, &called))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, user)
	assert.Equal(t, "user-a", user.ID)
}

func TestAdminToken_EmptyConfigHidesRoutes(t *testing.T) {
	m := NewAdminTokenMiddleware("")

	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodPost, "/admin/codes/mint", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminToken_RejectsWrongToken(t *testing.T) {
	m := NewAdminTokenMiddleware("correct-admin-token-value-long-enough")

	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodPost, "/admin/codes/mint", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminToken_AcceptsCorrectToken(t *testing.T) {
	token := "correct-admin-token-value-long-enough"
	m := NewAdminTokenMiddleware(token)

	var called bool
	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/admin/codes/mint", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}
