package registrations

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/campus-events/backend/internal/middleware"
	"github.com/campus-events/backend/internal/models"
	"github.com/campus-events/backend/pkg/response"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Register(ctx context.Context, userID, eventID int64) (*models.Registration, error) {
	args := m.Called(userID, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Registration), args.Error(1)
}

func (m *MockService) Cancel(ctx context.Context, regID, eventID, actorID int64, actorIsAdmin bool) (*models.Registration, error) {
	args := m.Called(regID, eventID, actorID, actorIsAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Registration), args.Error(1)
}

func (m *MockService) UpdateStatus(ctx context.Context, regID int64, newStatus models.RegStatus) (*models.Registration, error) {
	args := m.Called(regID, newStatus)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Registration), args.Error(1)
}

type MockReader struct {
	mock.Mock
}

func (m *MockReader) ListByEvent(ctx context.Context, eventID int64) ([]models.Registration, error) {
	args := m.Called(eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Registration), args.Error(1)
}

func (m *MockReader) ListByUser(ctx context.Context, userID int64) ([]models.Registration, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Registration), args.Error(1)
}

func (m *MockReader) StatsByEvent(ctx context.Context, eventID int64) (*models.RegistrationStats, error) {
	args := m.Called(eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RegistrationStats), args.Error(1)
}

func setupRouter(svc Service, reader Reader, userID int64, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(svc, reader, nil, nil)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Set(middleware.ContextUserRole, role)
	})
	r.POST("/events/:id/registrations", h.Register)
	r.DELETE("/events/:id/registrations/:regId", h.Cancel)
	r.PUT("/registrations/:id", h.UpdateStatus)
	r.GET("/events/:id/registrations", h.ListByEvent)
	r.GET("/events/:id/registrations/stats", h.Stats)
	r.GET("/my/registrations", h.ListMine)
	return r
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Body {
	t.Helper()
	var body response.Body
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRegisterCreated(t *testing.T) {
	svc := new(MockService)
	reg := &models.Registration{ID: 10, UserID: 7, EventID: 3, Status: models.RegConfirmed, RegisteredAt: time.Now()}
	svc.On("Register", int64(7), int64(3)).Return(reg, nil)

	r := setupRouter(svc, new(MockReader), 7, "student")
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/events/3/registrations", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.True(t, body.Success)
	svc.AssertExpectations(t)
}

func TestRegisterDuplicateConflict(t *testing.T) {
	svc := new(MockService)
	svc.On("Register", int64(7), int64(3)).Return(nil, ErrAlreadyRegistered)

	r := setupRouter(svc, new(MockReader), 7, "student")
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/events/3/registrations", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, response.CodeAlreadyRegistered, decode(t, w).Code)
}

func TestRegisterClosedConflict(t *testing.T) {
	svc := new(MockService)
	svc.On("Register", int64(7), int64(3)).Return(nil, ErrRegistrationClosed)

	r := setupRouter(svc, new(MockReader), 7, "student")
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/events/3/registrations", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, response.CodeRegistrationClosed, decode(t, w).Code)
}

func TestRegisterEventNotFound(t *testing.T) {
	svc := new(MockService)
	svc.On("Register", int64(7), int64(99)).Return(nil, ErrEventNotFound)

	r := setupRouter(svc, new(MockReader), 7, "student")
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/events/99/registrations", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCancelForbiddenForNonOwner(t *testing.T) {
	svc := new(MockService)
	svc.On("Cancel", int64(10), int64(3), int64(8), false).Return(nil, ErrNotOwner)

	r := setupRouter(svc, new(MockReader), 8, "student")
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodDelete, "/events/3/registrations/10", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCancelAlreadyCancelledConflict(t *testing.T) {
	svc := new(MockService)
	svc.On("Cancel", int64(10), int64(3), int64(7), false).Return(nil, ErrAlreadyCancelled)

	r := setupRouter(svc, new(MockReader), 7, "student")
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodDelete, "/events/3/registrations/10", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, response.CodeAlreadyCancelled, decode(t, w).Code)
}

func TestCancelAsAdmin(t *testing.T) {
	svc := new(MockService)
	reg := &models.Registration{ID: 10, UserID: 7, EventID: 3, Status: models.RegCancelled}
	svc.On("Cancel", int64(10), int64(3), int64(1), true).Return(reg, nil)

	r := setupRouter(svc, new(MockReader), 1, "admin")
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodDelete, "/events/3/registrations/10", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestUpdateStatusInvalidTransition(t *testing.T) {
	svc := new(MockService)
	svc.On("UpdateStatus", int64(10), models.RegConfirmed).Return(nil, ErrInvalidTransition)

	r := setupRouter(svc, new(MockReader), 1, "admin")
	payload, _ := json.Marshal(UpdateStatusRequest{Status: "CONFIRMED"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPut, "/registrations/10", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, response.CodeInvalidTransition, decode(t, w).Code)
}

func TestUpdateStatusEventFull(t *testing.T) {
	svc := new(MockService)
	svc.On("UpdateStatus", int64(10), models.RegConfirmed).Return(nil, ErrEventFull)

	r := setupRouter(svc, new(MockReader), 1, "admin")
	payload, _ := json.Marshal(UpdateStatusRequest{Status: "CONFIRMED"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPut, "/registrations/10", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, response.CodeEventFull, decode(t, w).Code)
}

func TestUpdateStatusUnknownStatusRejectedBeforeService(t *testing.T) {
	svc := new(MockService) // no expectations: service must not be reached

	r := setupRouter(svc, new(MockReader), 1, "admin")
	payload, _ := json.Marshal(UpdateStatusRequest{Status: "DELETED"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPut, "/registrations/10", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertExpectations(t)
}

func TestStatsZeroFilled(t *testing.T) {
	reader := new(MockReader)
	stats := &models.RegistrationStats{EventID: 3, Confirmed: 2, Waitlisted: 1, Total: 3}
	reader.On("StatsByEvent", int64(3)).Return(stats, nil)

	r := setupRouter(new(MockService), reader, 1, "admin")
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/events/3/registrations/stats", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data models.RegistrationStats `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Data.Confirmed)
	assert.Equal(t, 0, body.Data.Pending)
	assert.Equal(t, 0, body.Data.Attended)
	assert.Equal(t, 3, body.Data.Total)
}

func TestStatsEventNotFound(t *testing.T) {
	reader := new(MockReader)
	reader.On("StatsByEvent", int64(99)).Return(nil, ErrEventNotFound)

	r := setupRouter(new(MockService), reader, 1, "admin")
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/events/99/registrations/stats", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListMine(t *testing.T) {
	reader := new(MockReader)
	regs := []models.Registration{{ID: 1, UserID: 7, EventID: 3, Status: models.RegConfirmed}}
	reader.On("ListByUser", int64(7)).Return(regs, nil)

	r := setupRouter(new(MockService), reader, 7, "student")
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/my/registrations", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	reader.AssertExpectations(t)
}
