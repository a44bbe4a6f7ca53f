package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"labreserve/internal/domain"
	"labreserve/internal/middleware"
	"labreserve/internal/pkg/jwt"
	"labreserve/internal/repository"
)

// Mock User Repository implementing the interface
type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func professor(t *testing.T) *domain.User {
	return &domain.User{
		ID:           42,
		Email:        "prof@lab.test",
		Name:         "Pat Professor",
		Role:         domain.RoleProfessor,
		PasswordHash: hashed(t, "secret123"),
	}
}

func TestLogin_Success(t *testing.T) {
	users := new(mockUserRepo)
	users.On("GetByEmail", mock.Anything, "prof@lab.test").Return(professor(t), nil)
	tokens := jwt.New("test-secret", time.Hour)
	svc := NewService(users, tokens, nil)

	res, err := svc.Login(context.Background(), LoginRequest{Email: "  Prof@Lab.test ", Password: "secret123"})
	require.NoError(t, err)
	assert.Empty(t, res.User.PasswordHash)

	claims, err := tokens.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, string(domain.RoleProfessor), claims.Role)
	assert.Equal(t, "prof@lab.test", claims.Email)
	users.AssertExpectations(t)
}

func TestLogin_WrongPassword(t *testing.T) {
	users := new(mockUserRepo)
	users.On("GetByEmail", mock.Anything, "prof@lab.test").Return(professor(t), nil)
	svc := NewService(users, jwt.New("test-secret", time.Hour), nil)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "prof@lab.test", Password: "nope"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	users := new(mockUserRepo)
	users.On("GetByEmail", mock.Anything, "ghost@lab.test").Return(nil, repository.ErrNotFound)
	svc := NewService(users, jwt.New("test-secret", time.Hour), nil)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "ghost@lab.test", Password: "x"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_NoPasswordSet(t *testing.T) {
	u := professor(t)
	u.PasswordHash = ""
	users := new(mockUserRepo)
	users.On("GetByEmail", mock.Anything, "prof@lab.test").Return(u, nil)
	svc := NewService(users, jwt.New("test-secret", time.Hour), nil)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "prof@lab.test", Password: ""})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_RepositoryFailure(t *testing.T) {
	users := new(mockUserRepo)
	boom := errors.New("db down")
	users.On("GetByEmail", mock.Anything, "prof@lab.test").Return(nil, boom)
	svc := NewService(users, jwt.New("test-secret", time.Hour), nil)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "prof@lab.test", Password: "x"})
	assert.ErrorIs(t, err, boom)
}

func TestHashPassword(t *testing.T) {
	h, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(h), []byte("secret123")))
}

func TestHandler_LoginAndMe(t *testing.T) {
	gin.SetMode(gin.TestMode)
	users := new(mockUserRepo)
	users.On("GetByEmail", mock.Anything, "prof@lab.test").Return(professor(t), nil)
	users.On("GetByID", mock.Anything, int64(42)).Return(professor(t), nil)
	tokens := jwt.New("test-secret", time.Hour)
	h := NewHandler(NewService(users, tokens, nil))

	router := gin.New()
	v1 := router.Group("/api/v1")
	h.RegisterPublicRoutes(v1)
	protected := v1.Group("")
	protected.Use(middleware.JWTAuth(tokens))
	h.RegisterProtectedRoutes(protected)

	body, _ := json.Marshal(LoginRequest{Email: "prof@lab.test", Password: "secret123"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var login struct {
		Data LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &login))
	require.NotEmpty(t, login.Data.AccessToken)
	assert.Equal(t, "Bearer", login.Data.TokenType)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.Data.AccessToken)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Body.String(), `"email":"prof@lab.test"`)

	body, _ = json.Marshal(LoginRequest{Email: "prof@lab.test", Password: "wrong"})
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Contains(t, resp.Body.String(), "INVALID_CREDENTIALS")
}
