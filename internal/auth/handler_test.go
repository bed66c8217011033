package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/campus-events/backend/internal/middleware"
	"github.com/campus-events/backend/internal/models"
	"github.com/campus-events/backend/pkg/response"
	"github.com/campus-events/backend/pkg/utils"
)

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserStore) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	args := m.Called(ctx, login)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserStore) Create(ctx context.Context, p CreateUserParams) (*models.User, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserStore) UpdateProfile(ctx context.Context, id int64, phone string, branchID *int64, gradYear int) (*models.User, error) {
	args := m.Called(ctx, id, phone, branchID, gradYear)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserStore) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return m.Called(ctx, id, passwordHash).Error(0)
}

func (m *MockUserStore) Deactivate(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserStore) List(ctx context.Context) ([]models.UserPublic, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UserPublic), args.Error(1)
}

func newTestHandler(store *MockUserStore) *Handler {
	return NewHandler(store, NewJWTService("test-secret", 1), nil)
}

func authRouter(h *Handler, userID int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/signup", h.Signup)
	r.POST("/auth/login", h.Login)
	auth := r.Group("/")
	auth.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Set(middleware.ContextUserRole, string(models.RoleStudent))
		c.Next()
	})
	auth.GET("/profile", h.Me)
	auth.PUT("/profile", h.UpdateProfile)
	auth.PUT("/profile/password", h.ChangePassword)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, response.Body) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var out response.Body
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func validSignup() SignupRequest {
	return SignupRequest{
		StudentID: "CS2024001",
		Username:  "ravi",
		Email:     "Ravi@Uni.edu",
		Password:  "secret123",
		Phone:     "+91 98765 43210",
		GradYear:  2027,
	}
}

func TestSignupCreatesStudent(t *testing.T) {
	store := new(MockUserStore)
	h := newTestHandler(store)

	store.On("Create", mock.Anything, mock.MatchedBy(func(p CreateUserParams) bool {
		return p.Email == "ravi@uni.edu" &&
			p.Phone == "9876543210" &&
			p.Role == models.RoleStudent &&
			utils.CheckPassword("secret123", p.PasswordHash)
	})).Return(&models.User{ID: 7, Username: "ravi", Email: "ravi@uni.edu", Role: models.RoleStudent, IsActive: true}, nil)

	w, body := doJSON(t, authRouter(h, 0), http.MethodPost, "/auth/signup", validSignup())

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, body.Success)
	data := body.Data.(map[string]interface{})
	assert.NotEmpty(t, data["token"])
	store.AssertExpectations(t)
}

func TestSignupRejectsBadInputBeforeStore(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*SignupRequest)
	}{
		{"bad email", func(r *SignupRequest) { r.Email = "not-an-email" }},
		{"short password", func(r *SignupRequest) { r.Password = "ab1" }},
		{"password without digit", func(r *SignupRequest) { r.Password = "abcdefgh" }},
		{"bad phone", func(r *SignupRequest) { r.Phone = "12345" }},
		{"bad student id", func(r *SignupRequest) { r.StudentID = "x" }},
		{"grad year out of range", func(r *SignupRequest) { r.GradYear = 1990 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := new(MockUserStore)
			h := newTestHandler(store)
			req := validSignup()
			tc.mutate(&req)

			w, body := doJSON(t, authRouter(h, 0), http.MethodPost, "/auth/signup", req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, response.CodeValidation, body.Code)
			store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestSignupDuplicateConflict(t *testing.T) {
	store := new(MockUserStore)
	h := newTestHandler(store)
	store.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("duplicate key value violates unique constraint"))

	w, body := doJSON(t, authRouter(h, 0), http.MethodPost, "/auth/signup", validSignup())

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, response.CodeValidation, body.Code)
}

func TestLoginSuccess(t *testing.T) {
	store := new(MockUserStore)
	h := newTestHandler(store)
	hash, err := utils.HashPassword("secret123")
	require.NoError(t, err)
	store.On("GetByLogin", mock.Anything, "ravi").Return(&models.User{
		ID: 7, Username: "ravi", Email: "ravi@uni.edu", Password: hash,
		Role: models.RoleStudent, IsActive: true,
	}, nil)

	w, body := doJSON(t, authRouter(h, 0), http.MethodPost, "/auth/login",
		LoginRequest{Login: "ravi", Password: "secret123"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, body.Success)
	data := body.Data.(map[string]interface{})
	assert.NotEmpty(t, data["token"])
}

func TestLoginWrongPassword(t *testing.T) {
	store := new(MockUserStore)
	h := newTestHandler(store)
	hash, err := utils.HashPassword("secret123")
	require.NoError(t, err)
	store.On("GetByLogin", mock.Anything, "ravi").Return(&models.User{
		ID: 7, Password: hash, IsActive: true,
	}, nil)

	w, body := doJSON(t, authRouter(h, 0), http.MethodPost, "/auth/login",
		LoginRequest{Login: "ravi", Password: "wrong1234"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, response.CodeUnauthorized, body.Code)
}

func TestLoginDeactivatedAccount(t *testing.T) {
	store := new(MockUserStore)
	h := newTestHandler(store)
	hash, err := utils.HashPassword("secret123")
	require.NoError(t, err)
	store.On("GetByLogin", mock.Anything, "ravi").Return(&models.User{
		ID: 7, Password: hash, IsActive: false,
	}, nil)

	w, _ := doJSON(t, authRouter(h, 0), http.MethodPost, "/auth/login",
		LoginRequest{Login: "ravi", Password: "secret123"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginUnknownUser(t *testing.T) {
	store := new(MockUserStore)
	h := newTestHandler(store)
	store.On("GetByLogin", mock.Anything, "ghost").Return(nil, ErrUserNotFound)

	w, _ := doJSON(t, authRouter(h, 0), http.MethodPost, "/auth/login",
		LoginRequest{Login: "ghost", Password: "secret123"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMeReturnsProfile(t *testing.T) {
	store := new(MockUserStore)
	h := newTestHandler(store)
	store.On("GetByID", mock.Anything, int64(7)).Return(&models.User{
		ID: 7, Username: "ravi", Email: "ravi@uni.edu", Role: models.RoleStudent,
	}, nil)

	w, body := doJSON(t, authRouter(h, 7), http.MethodGet, "/profile", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	data := body.Data.(map[string]interface{})
	assert.Equal(t, "ravi", data["username"])
}

func TestChangePasswordVerifiesCurrent(t *testing.T) {
	store := new(MockUserStore)
	h := newTestHandler(store)
	hash, err := utils.HashPassword("oldpass123")
	require.NoError(t, err)
	store.On("GetByID", mock.Anything, int64(7)).Return(&models.User{ID: 7, Password: hash}, nil)

	w, _ := doJSON(t, authRouter(h, 7), http.MethodPut, "/profile/password",
		ChangePasswordRequest{CurrentPassword: "wrongpass1", NewPassword: "newpass123"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	store.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
}

func TestChangePasswordSuccess(t *testing.T) {
	store := new(MockUserStore)
	h := newTestHandler(store)
	hash, err := utils.HashPassword("oldpass123")
	require.NoError(t, err)
	store.On("GetByID", mock.Anything, int64(7)).Return(&models.User{ID: 7, Password: hash}, nil)
	store.On("UpdatePassword", mock.Anything, int64(7), mock.MatchedBy(func(h string) bool {
		return utils.CheckPassword("newpass123", h)
	})).Return(nil)

	w, _ := doJSON(t, authRouter(h, 7), http.MethodPut, "/profile/password",
		ChangePasswordRequest{CurrentPassword: "oldpass123", NewPassword: "newpass123"})

	assert.Equal(t, http.StatusNoContent, w.Code)
	store.AssertExpectations(t)
}
