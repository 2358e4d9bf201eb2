package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	academyapp "github.com/coachdesk/backend/internal/application/academy"
	"github.com/coachdesk/backend/internal/domain/academy"
	"github.com/coachdesk/backend/internal/domain/shared"
	"github.com/coachdesk/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCourseRepository implements academy.CourseRepository for testing
type MockCourseRepository struct {
	mock.Mock
}

func (m *MockCourseRepository) FindByStageLevel(ctx context.Context, stage, level string) (*academy.Course, error) {
	args := m.Called(ctx, stage, level)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*academy.Course), args.Error(1)
}

func (m *MockCourseRepository) FindAll(ctx context.Context, filter shared.Filter) ([]academy.Course, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]academy.Course), args.Get(1).(int64), args.Error(2)
}

func (m *MockCourseRepository) Save(ctx context.Context, course *academy.Course) error {
	args := m.Called(ctx, course)
	return args.Error(0)
}

func newCourseTestRouter(repo *MockCourseRepository) *gin.Engine {
	service := academyapp.NewCourseService(repo)
	h := NewCourseHandler(service)

	engine := gin.New()
	api := engine.Group("/api/v1")
	h.RegisterRoutes(api)
	return engine
}

func TestCourseHandlerCreate(t *testing.T) {
	repo := new(MockCourseRepository)
	repo.On("FindByStageLevel", mock.Anything, "secondary", "A").Return(nil, shared.ErrNotFound)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*academy.Course")).Return(nil)

	engine := newCourseTestRouter(repo)

	body, _ := json.Marshal(map[string]any{
		"name":            "Secondary A",
		"stage":           "secondary",
		"level":           "A",
		"monthly_fee":     "3000",
		"duration_months": 24,
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/courses", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	repo.AssertExpectations(t)
}

func TestCourseHandlerCreateDuplicate(t *testing.T) {
	existing, err := academy.NewCourse("Secondary A", "secondary", "A", decimal.NewFromInt(3000), 24)
	require.NoError(t, err)

	repo := new(MockCourseRepository)
	repo.On("FindByStageLevel", mock.Anything, "secondary", "A").Return(existing, nil)

	engine := newCourseTestRouter(repo)

	body, _ := json.Marshal(map[string]any{
		"name":        "Secondary A",
		"stage":       "secondary",
		"level":       "A",
		"monthly_fee": "3000",
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/courses", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, dto.ErrCodeAlreadyExists, resp.Error.Code)
}

func TestCourseHandlerGet(t *testing.T) {
	course, err := academy.NewCourse("Primary B", "primary", "B", decimal.NewFromInt(2000), 12)
	require.NoError(t, err)

	repo := new(MockCourseRepository)
	repo.On("FindByStageLevel", mock.Anything, "primary", "B").Return(course, nil)

	engine := newCourseTestRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/courses/primary/B", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]any)
	assert.Equal(t, "Primary B", data["name"])
	assert.Equal(t, "primary", data["stage"])
}

func TestCourseHandlerGetNotFound(t *testing.T) {
	repo := new(MockCourseRepository)
	repo.On("FindByStageLevel", mock.Anything, "primary", "Z").Return(nil, shared.ErrNotFound)

	engine := newCourseTestRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/courses/primary/Z", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
}

func TestCourseHandlerList(t *testing.T) {
	c1, err := academy.NewCourse("Primary A", "primary", "A", decimal.NewFromInt(2000), 12)
	require.NoError(t, err)
	c2, err := academy.NewCourse("Primary B", "primary", "B", decimal.NewFromInt(2200), 12)
	require.NoError(t, err)

	repo := new(MockCourseRepository)
	repo.On("FindAll", mock.Anything, mock.AnythingOfType("shared.Filter")).
		Return([]academy.Course{*c1, *c2}, int64(2), nil)

	engine := newCourseTestRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/courses?page=1&page_size=10", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(2), resp.Meta.Total)
}

func TestCourseHandlerUpdate(t *testing.T) {
	course, err := academy.NewCourse("Secondary A", "secondary", "A", decimal.NewFromInt(3000), 24)
	require.NoError(t, err)

	repo := new(MockCourseRepository)
	repo.On("FindByStageLevel", mock.Anything, "secondary", "A").Return(course, nil)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*academy.Course")).Return(nil)

	engine := newCourseTestRouter(repo)

	body, _ := json.Marshal(map[string]any{"monthly_fee": "3500"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest("PATCH", "/api/v1/courses/secondary/A", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]any)
	assert.Equal(t, "3500", data["monthly_fee"])
	repo.AssertExpectations(t)
}
