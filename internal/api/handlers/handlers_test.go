package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradeflow/backend/internal/analytics"
	"github.com/gradeflow/backend/internal/cache"
	"github.com/gradeflow/backend/internal/storage/models"
	"github.com/gradeflow/backend/internal/storage/sqlite"
)

type fakeStore struct {
	mu          sync.Mutex
	fetchCalls  int
	evaluations []models.Evaluation
	users       []models.User
}

func (f *fakeStore) FetchEvaluations(ctx context.Context) ([]models.Evaluation, error) {
	f.mu.Lock()
	f.fetchCalls++
	f.mu.Unlock()
	return f.evaluations, nil
}

func (f *fakeStore) FetchUsers(ctx context.Context) ([]models.User, error) {
	return f.users, nil
}

func (f *fakeStore) FetchStudyStreaks(ctx context.Context) ([]models.StudyStreak, error) {
	return nil, nil
}

func (f *fakeStore) FetchStudyGoals(ctx context.Context) ([]models.StudyGoal, error) {
	return nil, nil
}

func (f *fakeStore) FetchSavedResources(ctx context.Context) ([]models.SavedResource, error) {
	return nil, nil
}

func (f *fakeStore) FetchAssessmentFeedback(ctx context.Context) ([]models.AssessmentFeedback, error) {
	return nil, nil
}

// memCache is an in-process SummaryCache for exercising the hit,
// miss, and invalidate paths without Redis.
type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (m *memCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *memCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = raw
	return nil
}

func (m *memCache) Invalidate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string][]byte)
	return nil
}

func testStore() *fakeStore {
	return &fakeStore{
		evaluations: []models.Evaluation{
			{ID: "e1", UserID: "u1", Timestamp: "2024-03-10T09:00:00Z", QuestionType: "essay"},
			{ID: "e2", UserID: "u1", Timestamp: "2024-03-11T09:00:00Z", QuestionType: "essay"},
			{ID: "e3", UserID: "u2", Timestamp: "2024-03-12T09:00:00Z", QuestionType: "short_answer"},
		},
		users: []models.User{
			{UID: "u1", AcademicLevel: "undergraduate", QuestionsMarked: 2, CreatedAt: "2024-03-01T09:00:00Z"},
			{UID: "u2", AcademicLevel: "graduate", QuestionsMarked: 1, CreatedAt: "2024-03-02T09:00:00Z"},
		},
	}
}

func newAnalyticsApp(store analytics.Store, summaryCache cache.SummaryCache) *fiber.App {
	engine := analytics.NewEngine(store, analytics.DefaultWindows())
	engine.Now = func() time.Time {
		return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	}
	h := NewAnalyticsHandler(engine, summaryCache, time.Minute)

	app := fiber.New()
	app.Get("/api/v1/analytics/evaluations", h.GetEvaluationsSummary)
	app.Get("/api/v1/analytics/users", h.GetUsersSummary)
	app.Get("/api/v1/analytics/engagement", h.GetEngagementSummary)
	app.Get("/api/v1/analytics/performance", h.GetPerformanceSummary)
	app.Post("/api/v1/analytics/refresh", h.RefreshCache)
	return app
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestGetEvaluationsSummary(t *testing.T) {
	app := newAnalyticsApp(testStore(), cache.Noop{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/analytics/evaluations", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, float64(3), body["total_evaluations"])
	assert.Equal(t, float64(2), body["unique_users"])
	assert.Equal(t, 50.0, body["return_rate"])
	assert.Contains(t, body, "daily_trends")
	assert.Contains(t, body, "question_type_breakdown")
}

func TestGetUsersSummary(t *testing.T) {
	app := newAnalyticsApp(testStore(), cache.Noop{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/analytics/users", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, float64(2), body["total_users"])
	assert.Equal(t, float64(2), body["non_email_users"])
	assert.Contains(t, body, "engagement_breakdown")
}

func TestGetEngagementAndPerformanceSummaries(t *testing.T) {
	app := newAnalyticsApp(testStore(), cache.Noop{})

	for _, path := range []string{
		"/api/v1/analytics/engagement",
		"/api/v1/analytics/performance",
	} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		resp.Body.Close()
	}
}

func TestSummaryServedFromCache(t *testing.T) {
	store := testStore()
	app := newAnalyticsApp(store, newMemCache())

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/analytics/evaluations", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	assert.Equal(t, 1, store.fetchCalls, "repeat hits come from the cache")
}

func TestRefreshCacheForcesRecompute(t *testing.T) {
	store := testStore()
	app := newAnalyticsApp(store, newMemCache())

	get := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/evaluations", nil)
	resp, err := app.Test(get)
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/analytics/refresh", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "refreshed", body["status"])

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/analytics/evaluations", nil))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, 2, store.fetchCalls)
}

func newTablesApp(t *testing.T) (*fiber.App, *sqlite.Client) {
	t.Helper()
	client, err := sqlite.NewClient(":memory:", 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.InitSchema())

	h := NewTablesHandler(client, 1000)
	app := fiber.New()
	app.Get("/api/v1/tables", h.GetTable)
	return app, client
}

func TestGetTableRequiresTableParam(t *testing.T) {
	app, _ := newTablesApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/tables", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestGetTableRejectsUnknownTable(t *testing.T) {
	app, _ := newTablesApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet,
		"/api/v1/tables?table=sqlite_master", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestGetTableRejectsBadLimit(t *testing.T) {
	app, _ := newTablesApp(t)

	for _, limit := range []string{"0", "-5", "abc"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet,
			"/api/v1/tables?table=evaluations&limit="+limit, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, limit)
		resp.Body.Close()
	}
}

func TestGetTableReturnsRows(t *testing.T) {
	app, client := newTablesApp(t)
	require.NoError(t, client.InsertEvaluation(&models.Evaluation{
		ID: "e1", UserID: "u1", Timestamp: "2024-03-10T09:00:00Z", QuestionType: "essay",
	}))
	require.NoError(t, client.InsertEvaluation(&models.Evaluation{
		ID: "e2", UserID: "u2", Timestamp: "2024-03-11T09:00:00Z", QuestionType: "short_answer",
	}))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet,
		"/api/v1/tables?table=evaluations&filter=user_id:u1", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, "evaluations", body["table"])
	rows, ok := body["data"].([]any)
	require.True(t, ok)
	require.Len(t, rows, 1)
	row, ok := rows[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "e1", row["id"])
}

func TestGetTableClampsLimit(t *testing.T) {
	client, err := sqlite.NewClient(":memory:", 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.InitSchema())

	h := NewTablesHandler(client, 50)
	app := fiber.New()
	app.Get("/api/v1/tables", h.GetTable)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet,
		"/api/v1/tables?table=users&limit=5000", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, float64(50), body["limit"])
}
