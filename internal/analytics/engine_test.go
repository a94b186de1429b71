package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradeflow/backend/internal/storage/models"
)

type fakeStore struct {
	evaluations []models.Evaluation
	users       []models.User
	streaks     []models.StudyStreak
	goals       []models.StudyGoal
	resources   []models.SavedResource
	feedback    []models.AssessmentFeedback
	err         error
}

func (f *fakeStore) FetchEvaluations(ctx context.Context) ([]models.Evaluation, error) {
	return f.evaluations, f.err
}

func (f *fakeStore) FetchUsers(ctx context.Context) ([]models.User, error) {
	return f.users, f.err
}

func (f *fakeStore) FetchStudyStreaks(ctx context.Context) ([]models.StudyStreak, error) {
	return f.streaks, f.err
}

func (f *fakeStore) FetchStudyGoals(ctx context.Context) ([]models.StudyGoal, error) {
	return f.goals, f.err
}

func (f *fakeStore) FetchSavedResources(ctx context.Context) ([]models.SavedResource, error) {
	return f.resources, f.err
}

func (f *fakeStore) FetchAssessmentFeedback(ctx context.Context) ([]models.AssessmentFeedback, error) {
	return f.feedback, f.err
}

func strPtr(s string) *string { return &s }

// fixedNow pins the clock so the 7/30-day windows are deterministic.
var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestEngine(store Store) *Engine {
	e := NewEngine(store, DefaultWindows())
	e.Now = func() time.Time { return fixedNow }
	return e
}

func testEvaluations() []models.Evaluation {
	return []models.Evaluation{
		{ID: "e1", UserID: "u1", Timestamp: "2024-03-10T09:00:00Z", QuestionType: "essay"},
		{ID: "e2", UserID: "u1", Timestamp: "2024-03-10T10:00:00Z", QuestionType: "essay"},
		{ID: "e3", UserID: "u1", Timestamp: "2024-02-20T09:00:00Z", QuestionType: "short_answer"},
		{ID: "e4", UserID: "u1", Timestamp: "2024-03-12T08:00:00Z", QuestionType: "essay"},
		{ID: "e5", UserID: "u2", Timestamp: "2024-03-11T14:00:00Z", QuestionType: "essay"},
		{ID: "e6", UserID: "u2", Timestamp: "2024-02-20T15:00:00Z", QuestionType: "short_answer"},
		{ID: "e7", UserID: "u2", Timestamp: "2024-02-21T16:00:00Z", QuestionType: "multiple_choice"},
		{ID: "e8", UserID: "u3", Timestamp: "2024-03-10T11:00:00Z", QuestionType: "essay"},
		{ID: "e9", UserID: "u3", Timestamp: "2024-02-25T12:00:00Z", QuestionType: "multiple_choice"},
		{ID: "e10", UserID: "u4", Timestamp: "2024-02-22T13:00:00Z", QuestionType: "short_answer"},
	}
}

func testUsers() []models.User {
	return []models.User{
		{UID: "u1", Email: strPtr("u1@example.com"), AcademicLevel: "undergraduate", QuestionsMarked: 4, CreatedAt: "2024-02-18T09:00:00Z"},
		{UID: "u2", Email: strPtr("u2@example.com"), AcademicLevel: "high_school", QuestionsMarked: 1, CreatedAt: "2024-02-19T09:00:00Z"},
		{UID: "u3", Email: strPtr("u3@example.com"), AcademicLevel: "undergraduate", QuestionsMarked: 25, CreatedAt: "2024-03-09T09:00:00Z"},
		{UID: "u4", Email: nil, AcademicLevel: "graduate", QuestionsMarked: 0, CreatedAt: "2024-02-21T09:00:00Z"},
		{UID: "u5", Email: nil, AcademicLevel: "", QuestionsMarked: 0, CreatedAt: "2024-03-10T09:00:00Z"},
	}
}

func TestEvaluationsSummary(t *testing.T) {
	engine := newTestEngine(&fakeStore{evaluations: testEvaluations()})

	s, err := engine.EvaluationsSummary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 10, s.TotalEvaluations)
	assert.Equal(t, 4, s.UniqueUsers)
	assert.Equal(t, 2.5, s.AvgEvaluationsPerUser)
	assert.Equal(t, 3, s.ReturnUsers, "u4 has a single evaluation")
	assert.Equal(t, 75.0, s.ReturnRate)

	// Recent window is the last 7 days from the pinned clock.
	assert.Equal(t, 5, s.RecentEvaluations)

	require.NotEmpty(t, s.DailyTrends)
	assert.Equal(t, "2024-02-20", s.DailyTrends[0].Date)
	for i := 1; i < len(s.DailyTrends); i++ {
		assert.Less(t, s.DailyTrends[i-1].Date, s.DailyTrends[i].Date)
	}

	dailyTotal := 0
	for _, p := range s.DailyTrends {
		dailyTotal += p.Count
	}
	assert.Equal(t, 10, dailyTotal, "all fixture rows fall inside the trend window")

	// Activity patterns are dense and ordinal: Sunday first, every
	// weekday and hour present even at zero.
	require.Len(t, s.WeekdayActivity, 7)
	assert.Equal(t, "Sunday", s.WeekdayActivity[0].Label)
	assert.Equal(t, 4, s.WeekdayActivity[0].Count)
	assert.Equal(t, 0, s.WeekdayActivity[5].Count, "no Friday evaluations in the fixture")

	require.Len(t, s.HourlyActivity, 24)
	assert.Equal(t, "00", s.HourlyActivity[0].Label)
	assert.Equal(t, 2, s.HourlyActivity[9].Count)

	require.Len(t, s.QuestionTypeBreakdown, 3)
	assert.Equal(t, "essay", s.QuestionTypeBreakdown[0].Label)
	assert.Equal(t, 5, s.QuestionTypeBreakdown[0].Count)
	assert.Equal(t, 50.0, s.QuestionTypeBreakdown[0].Percentage)
	assert.Equal(t, "short_answer", s.QuestionTypeBreakdown[1].Label)
	assert.Equal(t, "multiple_choice", s.QuestionTypeBreakdown[2].Label)
}

func TestEvaluationsSummaryMalformedTimestamp(t *testing.T) {
	evals := append(testEvaluations(),
		models.Evaluation{ID: "e11", UserID: "u4", Timestamp: "garbage", QuestionType: "essay"})
	engine := newTestEngine(&fakeStore{evaluations: evals})

	s, err := engine.EvaluationsSummary(context.Background())
	require.NoError(t, err)

	// The malformed row still counts toward totals and per-user
	// aggregates; only the time series drop it.
	assert.Equal(t, 11, s.TotalEvaluations)
	assert.Equal(t, 4, s.ReturnUsers, "u4's second event makes it a return user")

	dailyTotal := 0
	for _, p := range s.DailyTrends {
		dailyTotal += p.Count
	}
	assert.Equal(t, 10, dailyTotal)
}

func TestEvaluationsSummaryIdempotent(t *testing.T) {
	engine := newTestEngine(&fakeStore{evaluations: testEvaluations()})

	first, err := engine.EvaluationsSummary(context.Background())
	require.NoError(t, err)
	second, err := engine.EvaluationsSummary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second, "same snapshot, same clock, same output")
}

func TestEvaluationsSummaryStoreError(t *testing.T) {
	engine := newTestEngine(&fakeStore{err: errors.New("disk gone")})

	_, err := engine.EvaluationsSummary(context.Background())
	assert.Error(t, err)
}

func TestUsersSummary(t *testing.T) {
	engine := newTestEngine(&fakeStore{users: testUsers()})

	s, err := engine.UsersSummary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, s.TotalUsers)
	assert.Equal(t, 2, s.NonEmailUsers)
	assert.Equal(t, 3, s.EmailUsers)
	assert.Equal(t, 40.0, s.NonEmailPercentage)

	levelTotal := 0
	for _, it := range s.AcademicLevelBreakdown {
		levelTotal += it.Count
	}
	assert.Equal(t, 5, levelTotal, "blank level reconciles through Unknown")

	byLabel := make(map[string]int)
	for _, it := range s.AcademicLevelBreakdown {
		byLabel[it.Label] = it.Count
	}
	assert.Equal(t, 2, byLabel["undergraduate"])
	assert.Equal(t, 1, byLabel[UnknownKey])

	require.Len(t, s.EngagementBreakdown, len(EngagementLevels()))
	engagement := make(map[string]int)
	for _, it := range s.EngagementBreakdown {
		engagement[it.Label] = it.Count
	}
	assert.Equal(t, 2, engagement[LevelNone])
	assert.Equal(t, 1, engagement[LevelSingle])
	assert.Equal(t, 1, engagement[LevelCasual])
	assert.Equal(t, 1, engagement[LevelPowerUser])
}

func TestEngagementSummary(t *testing.T) {
	store := &fakeStore{
		streaks: []models.StudyStreak{
			{ID: "s1", UserID: "u1", StreakCount: 5, UpdatedAt: "2024-03-14T09:00:00Z"},
			{ID: "s2", UserID: "u2", StreakCount: 0, UpdatedAt: "2024-03-01T09:00:00Z"},
			{ID: "s3", UserID: "u3", StreakCount: 11, UpdatedAt: "2024-03-15T09:00:00Z"},
		},
		goals: []models.StudyGoal{
			{ID: "g1", UserID: "u1", Title: "Finish revision", Completed: true},
			{ID: "g2", UserID: "u1", Title: "Practice essays", Completed: false},
			{ID: "g3", UserID: "u2", Title: "Review feedback", Completed: true},
			{ID: "g4", UserID: "u3", Title: "Weekly quiz", Completed: false},
		},
		resources: []models.SavedResource{
			{ID: "r1", UserID: "u1", Category: "video"},
			{ID: "r2", UserID: "u1", Category: "article"},
			{ID: "r3", UserID: "u2", Category: "video"},
		},
		feedback: []models.AssessmentFeedback{
			{ID: "f1", UserID: "u1", EvaluationID: "e1", Accurate: true},
			{ID: "f2", UserID: "u2", EvaluationID: "e5", Accurate: true},
			{ID: "f3", UserID: "u3", EvaluationID: "e8", Accurate: false},
		},
	}
	engine := newTestEngine(store)

	s, err := engine.EngagementSummary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, s.StudyStreaks.TotalStreaks)
	assert.Equal(t, 2, s.StudyStreaks.ActiveStreaks)
	assert.Equal(t, 11, s.StudyStreaks.MaxStreakCount)
	assert.Equal(t, 5.33, s.StudyStreaks.AvgStreakCount)

	assert.Equal(t, 4, s.StudyGoals.TotalGoals)
	assert.Equal(t, 2, s.StudyGoals.CompletedGoals)
	assert.Equal(t, 50.0, s.StudyGoals.CompletionRate)

	assert.Equal(t, 3, s.SavedResources.TotalResources)
	assert.Equal(t, 2, s.SavedResources.UniqueSavers)
	require.Len(t, s.SavedResources.CategoryBreakdown, 2)
	assert.Equal(t, "video", s.SavedResources.CategoryBreakdown[0].Label)

	assert.Equal(t, 3, s.AssessmentFeedback.TotalFeedback)
	assert.Equal(t, 2, s.AssessmentFeedback.AccurateCount)
	assert.Equal(t, 66.67, s.AssessmentFeedback.AccuracyRate)
}

func TestPerformanceSummary(t *testing.T) {
	engine := newTestEngine(&fakeStore{
		evaluations: testEvaluations(),
		users:       testUsers(),
	})

	s, err := engine.PerformanceSummary(context.Background())
	require.NoError(t, err)

	// u5 never evaluated anything; 4 of 5 users converted.
	assert.Equal(t, 80.0, s.ConversionRate)

	// 30-day actives are u1..u4, 7-day actives are u1..u3.
	assert.Equal(t, 75.0, s.RetentionRate)

	// One point per day across the full trend window, zero-filled.
	assert.Len(t, s.DailyActiveUserTrends, 30)
	for _, p := range s.DailyActiveUserTrends {
		assert.NotEmpty(t, p.Date)
	}

	require.NotEmpty(t, s.QuestionTypePerformance)
	assert.Equal(t, "essay", s.QuestionTypePerformance[0].QuestionType)
	assert.Equal(t, 5, s.QuestionTypePerformance[0].Evaluations)
	assert.Equal(t, 3, s.QuestionTypePerformance[0].UniqueUsers)
	assert.Equal(t, 1.67, s.QuestionTypePerformance[0].AvgPerUser)

	// Engagement here comes from actual event counts, not the
	// questions_marked counter.
	engagement := make(map[string]int)
	for _, it := range s.EngagementBreakdown {
		engagement[it.Label] = it.Count
	}
	assert.Equal(t, 3, engagement[LevelCasual], "u1, u2, u3 by real counts")
	assert.Equal(t, 1, engagement[LevelSingle])
	assert.Equal(t, 1, engagement[LevelNone])

	require.NotEmpty(t, s.AcademicLevelPerformance)
	assert.Equal(t, "undergraduate", s.AcademicLevelPerformance[0].AcademicLevel)
	assert.Equal(t, 2, s.AcademicLevelPerformance[0].Users)
	assert.Equal(t, 6, s.AcademicLevelPerformance[0].Evaluations)
	assert.Equal(t, 3.0, s.AcademicLevelPerformance[0].AvgEvaluationsPerUser)
}
