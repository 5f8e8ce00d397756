package schedule

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ashleyhua/get-litty/internal/app/models"
)

type MockScheduleService struct {
	mock.Mock
}

func (m *MockScheduleService) AddEvent(ctx context.Context, userID, eventID int64) error {
	args := m.Called(ctx, userID, eventID)
	return args.Error(0)
}

func (m *MockScheduleService) ListEvents(ctx context.Context, userID int64) ([]models.UserEvent, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UserEvent), args.Error(1)
}

func (m *MockScheduleService) RemoveEvent(ctx context.Context, userID, eventID int64) error {
	args := m.Called(ctx, userID, eventID)
	return args.Error(0)
}

func (m *MockScheduleService) SetHousingConfirmed(ctx context.Context, userID, eventID int64, value string) error {
	args := m.Called(ctx, userID, eventID, value)
	return args.Error(0)
}

func (m *MockScheduleService) BulkAddSoonestInCity(ctx context.Context, userID int64, cityName string) (*models.BulkAddResult, error) {
	args := m.Called(ctx, userID, cityName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BulkAddResult), args.Error(1)
}

func newTestRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandlers(svc, zap.NewNop())
	r := gin.New()
	g := r.Group("/user")
	g.POST("/events", h.AddEvent)
	g.GET("/:userId/events", h.ListEvents)
	g.DELETE("/events", h.RemoveEvent)
	g.PUT("/events/housing", h.SetHousing)
	g.POST("/events/bulk-add-city", h.BulkAddCity)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandlerAddEvent(t *testing.T) {
	svc := new(MockScheduleService)
	svc.On("AddEvent", mock.Anything, int64(1), int64(7)).Return(nil)

	w := doJSON(t, newTestRouter(svc), http.MethodPost, "/user/events",
		`{"userId": 1, "eventId": 7}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Event added successfully","eventId":7}`, w.Body.String())
}

func TestHandlerAddEvent_MissingFields(t *testing.T) {
	svc := new(MockScheduleService)

	w := doJSON(t, newTestRouter(svc), http.MethodPost, "/user/events", `{"userId": 1}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "userId and eventId are required")
	svc.AssertNotCalled(t, "AddEvent")
}

func TestHandlerAddEvent_DateConflict(t *testing.T) {
	svc := new(MockScheduleService)
	svc.On("AddEvent", mock.Anything, int64(1), int64(7)).Return(models.ErrConflict)

	w := doJSON(t, newTestRouter(svc), http.MethodPost, "/user/events",
		`{"userId": 1, "eventId": 7}`)

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "You already have an event scheduled on this date")
}

func TestHandlerAddEvent_UnknownEvent(t *testing.T) {
	svc := new(MockScheduleService)
	svc.On("AddEvent", mock.Anything, int64(1), int64(999)).Return(models.ErrNotFound)

	w := doJSON(t, newTestRouter(svc), http.MethodPost, "/user/events",
		`{"userId": 1, "eventId": 999}`)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Event not found")
}

func TestHandlerListEvents(t *testing.T) {
	svc := new(MockScheduleService)
	svc.On("ListEvents", mock.Anything, int64(1)).Return([]models.UserEvent{
		{
			EventID:          2,
			EventName:        "Riverside Jazz",
			Date:             models.NewDate(2026, time.September, 13),
			VenueName:        "Thalia Hall",
			CityName:         "Chicago",
			State:            "Illinois",
			TicketPrice:      55,
			HousingConfirmed: "N",
		},
	}, nil)

	w := doJSON(t, newTestRouter(svc), http.MethodGet, "/user/1/events", "")

	require.Equal(t, http.StatusOK, w.Code)
	var listed []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "N", listed[0]["housing_confirmed"])
	assert.Equal(t, "2026-09-13", listed[0]["date"])
}

func TestHandlerListEvents_InvalidUserID(t *testing.T) {
	svc := new(MockScheduleService)

	w := doJSON(t, newTestRouter(svc), http.MethodGet, "/user/abc/events", "")

	require.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "ListEvents")
}

func TestHandlerRemoveEvent_NotListed(t *testing.T) {
	svc := new(MockScheduleService)
	svc.On("RemoveEvent", mock.Anything, int64(1), int64(7)).Return(models.ErrNotFound)

	w := doJSON(t, newTestRouter(svc), http.MethodDelete, "/user/events",
		`{"userId": 1, "eventId": 7}`)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Event not found in your list")
}

func TestHandlerSetHousing(t *testing.T) {
	svc := new(MockScheduleService)
	svc.On("SetHousingConfirmed", mock.Anything, int64(1), int64(7), "Y").Return(nil)

	w := doJSON(t, newTestRouter(svc), http.MethodPut, "/user/events/housing",
		`{"userId": 1, "eventId": 7, "housingConfirmed": "Y"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Housing status updated to confirmed")
}

func TestHandlerSetHousing_InvalidValue(t *testing.T) {
	svc := new(MockScheduleService)
	svc.On("SetHousingConfirmed", mock.Anything, int64(1), int64(7), "maybe").
		Return(models.ErrValidation)

	w := doJSON(t, newTestRouter(svc), http.MethodPut, "/user/events/housing",
		`{"userId": 1, "eventId": 7, "housingConfirmed": "maybe"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "housingConfirmed must be 'Y' or 'N'")
}

func TestHandlerBulkAddCity(t *testing.T) {
	svc := new(MockScheduleService)
	result := &models.BulkAddResult{
		AddedCount:   1,
		SkippedCount: 1,
		AddedEvents: []models.CandidateEvent{
			{EventID: 2, Name: "Riverside Jazz", Date: models.NewDate(2026, time.September, 13)},
		},
		SkippedEvents: []models.SkippedEvent{
			{Name: "Lolla Night One", Date: models.NewDate(2026, time.September, 12), Reason: models.SkipReasonDateConflict},
		},
	}
	svc.On("BulkAddSoonestInCity", mock.Anything, int64(1), "Chicago").Return(result, nil)

	w := doJSON(t, newTestRouter(svc), http.MethodPost, "/user/events/bulk-add-city",
		`{"userId": 1, "cityName": "Chicago"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Events added successfully", body["message"])
	assert.Equal(t, float64(1), body["addedCount"])
	assert.Equal(t, float64(1), body["skippedCount"])
	assert.Contains(t, w.Body.String(), models.SkipReasonDateConflict)
}

func TestHandlerBulkAddCity_AllSkipped(t *testing.T) {
	svc := new(MockScheduleService)
	result := &models.BulkAddResult{
		SkippedCount: 1,
		SkippedEvents: []models.SkippedEvent{
			{Name: "Lolla Night One", Date: models.NewDate(2026, time.September, 12), Reason: models.SkipReasonAlreadyListed},
		},
	}
	svc.On("BulkAddSoonestInCity", mock.Anything, int64(1), "Chicago").
		Return(result, models.ErrAllSkipped)

	w := doJSON(t, newTestRouter(svc), http.MethodPost, "/user/events/bulk-add-city",
		`{"userId": 1, "cityName": "Chicago"}`)

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already in your list or conflict")
	assert.Contains(t, w.Body.String(), models.SkipReasonAlreadyListed)
}

func TestHandlerBulkAddCity_NoUpcomingEvents(t *testing.T) {
	svc := new(MockScheduleService)
	svc.On("BulkAddSoonestInCity", mock.Anything, int64(1), "Gary").
		Return(nil, models.ErrNotFound)

	w := doJSON(t, newTestRouter(svc), http.MethodPost, "/user/events/bulk-add-city",
		`{"userId": 1, "cityName": "Gary"}`)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "No upcoming events found in that city")
}

func TestHandlerBulkAddCity_MissingCity(t *testing.T) {
	svc := new(MockScheduleService)

	w := doJSON(t, newTestRouter(svc), http.MethodPost, "/user/events/bulk-add-city",
		`{"userId": 1}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "BulkAddSoonestInCity")
}
