package analytics

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/gradeflow/backend/internal/storage/models"
	"github.com/gradeflow/backend/pkg/logger"
)

// Store is the row-fetching surface the engine needs. The sqlite
// client satisfies it; tests plug in a fake.
type Store interface {
	FetchEvaluations(ctx context.Context) ([]models.Evaluation, error)
	FetchUsers(ctx context.Context) ([]models.User, error)
	FetchStudyStreaks(ctx context.Context) ([]models.StudyStreak, error)
	FetchStudyGoals(ctx context.Context) ([]models.StudyGoal, error)
	FetchSavedResources(ctx context.Context) ([]models.SavedResource, error)
	FetchAssessmentFeedback(ctx context.Context) ([]models.AssessmentFeedback, error)
}

// Windows bounds the time-based metrics: RecentDays feeds the
// "recent"/active counters, TrendDays and TrendWeeks cap the series,
// RetentionDays is the retention reference period.
type Windows struct {
	RecentDays    int
	TrendDays     int
	TrendWeeks    int
	RetentionDays int
}

func DefaultWindows() Windows {
	return Windows{RecentDays: 7, TrendDays: 30, TrendWeeks: 12, RetentionDays: 30}
}

// Engine recomputes every summary from a fresh snapshot per call.
// No state survives between requests. Now is injectable so the
// 7/30-day cutoffs are deterministic under test.
type Engine struct {
	store   Store
	windows Windows
	Now     func() time.Time
}

func NewEngine(store Store, windows Windows) *Engine {
	def := DefaultWindows()
	if windows.RecentDays <= 0 {
		windows.RecentDays = def.RecentDays
	}
	if windows.TrendDays <= 0 {
		windows.TrendDays = def.TrendDays
	}
	if windows.TrendWeeks <= 0 {
		windows.TrendWeeks = def.TrendWeeks
	}
	if windows.RetentionDays <= 0 {
		windows.RetentionDays = def.RetentionDays
	}

	return &Engine{store: store, windows: windows, Now: time.Now}
}

func (e *Engine) cutoff(days int) time.Time {
	return e.Now().UTC().AddDate(0, 0, -days)
}

type EvaluationsSummary struct {
	TotalEvaluations      int             `json:"total_evaluations"`
	UniqueUsers           int             `json:"unique_users"`
	RecentEvaluations     int             `json:"recent_evaluations"`
	AvgEvaluationsPerUser float64         `json:"avg_evaluations_per_user"`
	ReturnUsers           int             `json:"return_users"`
	ReturnRate            float64         `json:"return_rate"`
	DailyTrends           []TrendPoint    `json:"daily_trends"`
	WeeklyTrends          []WeekPoint     `json:"weekly_trends"`
	QuestionTypeBreakdown []BreakdownItem `json:"question_type_breakdown"`
	WeekdayActivity       []BreakdownItem `json:"weekday_activity"`
	HourlyActivity        []BreakdownItem `json:"hourly_activity"`
}

func (e *Engine) EvaluationsSummary(ctx context.Context) (*EvaluationsSummary, error) {
	evals, err := e.store.FetchEvaluations(ctx)
	if err != nil {
		return nil, err
	}

	perUser := make(map[string]int, len(evals))
	for _, ev := range evals {
		perUser[ev.UserID]++
	}

	recentCutoff := e.cutoff(e.windows.RecentDays)
	recent := 0
	for _, ev := range evals {
		t, err := ParseTimestamp(ev.Timestamp)
		if err != nil {
			continue
		}
		if !t.Before(recentCutoff) {
			recent++
		}
	}

	returnUsers, returnRate := ReturnRate(perUser)

	daily := Group(evalsSince(evals, e.cutoff(e.windows.TrendDays)), evalDayKey, evalUser)
	weekly := Group(evalsSince(evals, e.cutoff(e.windows.TrendWeeks*7)), evalWeekKey, evalUser)
	byType := Group(evals, evalTypeKey, evalUser)
	byWeekday := Group(evals, evalWeekdayKey, evalUser)
	byHour := Group(evals, evalHourKey, evalUser)

	logger.Debug("Evaluations summary computed",
		zap.Int("total", len(evals)),
		zap.Int("skipped_daily", daily.Skipped()),
	)

	return &EvaluationsSummary{
		TotalEvaluations:      len(evals),
		UniqueUsers:           len(perUser),
		RecentEvaluations:     recent,
		AvgEvaluationsPerUser: Average(float64(len(evals)), len(perUser)),
		ReturnUsers:           returnUsers,
		ReturnRate:            returnRate,
		DailyTrends:           DailySeries(daily),
		WeeklyTrends:          WeeklySeries(weekly),
		QuestionTypeBreakdown: Breakdown(byType),
		WeekdayActivity:       DenseCounts(byWeekday, WeekdayLabels()),
		HourlyActivity:        DenseCounts(byHour, HourLabels()),
	}, nil
}

type UsersSummary struct {
	TotalUsers             int             `json:"total_users"`
	NonEmailUsers          int             `json:"non_email_users"`
	EmailUsers             int             `json:"email_users"`
	NonEmailPercentage     float64         `json:"non_email_percentage"`
	DailySignupTrends      []TrendPoint    `json:"daily_signup_trends"`
	WeeklySignupTrends     []WeekPoint     `json:"weekly_signup_trends"`
	AcademicLevelBreakdown []BreakdownItem `json:"academic_level_breakdown"`
	EngagementBreakdown    []BreakdownItem `json:"engagement_breakdown"`
}

func (e *Engine) UsersSummary(ctx context.Context) (*UsersSummary, error) {
	users, err := e.store.FetchUsers(ctx)
	if err != nil {
		return nil, err
	}

	nonEmail := 0
	for _, u := range users {
		if u.Email == nil {
			nonEmail++
		}
	}

	daily := Group(usersSince(users, e.cutoff(e.windows.TrendDays)), userDayKey, userUID)
	weekly := Group(usersSince(users, e.cutoff(e.windows.TrendWeeks*7)), userWeekKey, userUID)

	byLevel := Group(users, func(u models.User) (string, error) {
		return CategoryKey(u.AcademicLevel)
	}, userUID)

	// Engagement here uses the questions_marked counter carried on
	// the user row, not the evaluations table; the performance
	// summary recomputes engagement from actual events.
	byEngagement := Group(users, func(u models.User) (string, error) {
		return EngagementLevel(u.QuestionsMarked), nil
	}, userUID)

	return &UsersSummary{
		TotalUsers:             len(users),
		NonEmailUsers:          nonEmail,
		EmailUsers:             len(users) - nonEmail,
		NonEmailPercentage:     Rate(nonEmail, len(users)),
		DailySignupTrends:      DailySeries(daily),
		WeeklySignupTrends:     WeeklySeries(weekly),
		AcademicLevelBreakdown: Breakdown(byLevel),
		EngagementBreakdown:    DenseBreakdown(byEngagement, EngagementLevels()),
	}, nil
}

type StreakStats struct {
	TotalStreaks   int     `json:"total_streaks"`
	ActiveStreaks  int     `json:"active_streaks"`
	AvgStreakCount float64 `json:"avg_streak_count"`
	MaxStreakCount int     `json:"max_streak_count"`
}

type GoalStats struct {
	TotalGoals     int     `json:"total_goals"`
	CompletedGoals int     `json:"completed_goals"`
	CompletionRate float64 `json:"completion_rate"`
}

type ResourceStats struct {
	TotalResources    int             `json:"total_resources"`
	UniqueSavers      int             `json:"unique_savers"`
	CategoryBreakdown []BreakdownItem `json:"category_breakdown"`
}

type FeedbackStats struct {
	TotalFeedback int         `json:"total_feedback"`
	AccurateCount int         `json:"accurate_count"`
	AccuracyRate  float64     `json:"accuracy_rate"`
	CommonTerms   []TermCount `json:"common_terms"`
}

type EngagementSummary struct {
	StudyStreaks       StreakStats   `json:"study_streaks"`
	StudyGoals         GoalStats     `json:"study_goals"`
	SavedResources     ResourceStats `json:"saved_resources"`
	AssessmentFeedback FeedbackStats `json:"assessment_feedback"`
}

func (e *Engine) EngagementSummary(ctx context.Context) (*EngagementSummary, error) {
	streaks, err := e.store.FetchStudyStreaks(ctx)
	if err != nil {
		return nil, err
	}
	goals, err := e.store.FetchStudyGoals(ctx)
	if err != nil {
		return nil, err
	}
	resources, err := e.store.FetchSavedResources(ctx)
	if err != nil {
		return nil, err
	}
	feedback, err := e.store.FetchAssessmentFeedback(ctx)
	if err != nil {
		return nil, err
	}

	var streakStats StreakStats
	streakStats.TotalStreaks = len(streaks)
	streakSum := 0
	for _, s := range streaks {
		if s.StreakCount > 0 {
			streakStats.ActiveStreaks++
		}
		streakSum += s.StreakCount
		if s.StreakCount > streakStats.MaxStreakCount {
			streakStats.MaxStreakCount = s.StreakCount
		}
	}
	streakStats.AvgStreakCount = Average(float64(streakSum), len(streaks))

	var goalStats GoalStats
	goalStats.TotalGoals = len(goals)
	for _, g := range goals {
		if g.Completed {
			goalStats.CompletedGoals++
		}
	}
	goalStats.CompletionRate = Rate(goalStats.CompletedGoals, goalStats.TotalGoals)

	byCategory := Group(resources, func(r models.SavedResource) (string, error) {
		return CategoryKey(r.Category)
	}, func(r models.SavedResource) string { return r.UserID })

	savers := make(map[string]struct{}, len(resources))
	for _, r := range resources {
		savers[r.UserID] = struct{}{}
	}

	var feedbackStats FeedbackStats
	feedbackStats.TotalFeedback = len(feedback)
	comments := make([]string, 0, len(feedback))
	for _, f := range feedback {
		if f.Accurate {
			feedbackStats.AccurateCount++
		}
		comments = append(comments, f.Comment)
	}
	feedbackStats.AccuracyRate = Rate(feedbackStats.AccurateCount, feedbackStats.TotalFeedback)
	feedbackStats.CommonTerms = CommonTerms(comments, 10)

	return &EngagementSummary{
		StudyStreaks: streakStats,
		StudyGoals:   goalStats,
		SavedResources: ResourceStats{
			TotalResources:    len(resources),
			UniqueSavers:      len(savers),
			CategoryBreakdown: Breakdown(byCategory),
		},
		AssessmentFeedback: feedbackStats,
	}, nil
}

type QuestionTypePerformance struct {
	QuestionType string  `json:"question_type"`
	Evaluations  int     `json:"evaluations"`
	UniqueUsers  int     `json:"unique_users"`
	AvgPerUser   float64 `json:"avg_per_user"`
}

type AcademicLevelPerformance struct {
	AcademicLevel         string  `json:"academic_level"`
	Users                 int     `json:"users"`
	Evaluations           int     `json:"evaluations"`
	AvgEvaluationsPerUser float64 `json:"avg_evaluations_per_user"`
}

type PerformanceSummary struct {
	ConversionRate           float64                    `json:"conversion_rate"`
	RetentionRate            float64                    `json:"retention_rate"`
	DailyActiveUserTrends    []TrendPoint               `json:"daily_active_user_trends"`
	QuestionTypePerformance  []QuestionTypePerformance  `json:"question_type_performance"`
	EngagementBreakdown      []BreakdownItem            `json:"engagement_breakdown"`
	AcademicLevelPerformance []AcademicLevelPerformance `json:"academic_level_performance"`
}

func (e *Engine) PerformanceSummary(ctx context.Context) (*PerformanceSummary, error) {
	users, err := e.store.FetchUsers(ctx)
	if err != nil {
		return nil, err
	}
	evals, err := e.store.FetchEvaluations(ctx)
	if err != nil {
		return nil, err
	}

	// Per-user event counts correlate the two tables; users with no
	// evaluations stay in the map with a zero count.
	perUser := make(map[string]int, len(users))
	for _, u := range users {
		perUser[u.UID] = 0
	}
	evalUsers := make(map[string]struct{})
	for _, ev := range evals {
		perUser[ev.UserID]++
		evalUsers[ev.UserID] = struct{}{}
	}

	converted := 0
	for _, u := range users {
		if _, ok := evalUsers[u.UID]; ok {
			converted++
		}
	}

	recentSet := activeUserSet(evals, e.cutoff(e.windows.RecentDays))
	referenceSet := activeUserSet(evals, e.cutoff(e.windows.RetentionDays))

	dailyActive := Group(evalsSince(evals, e.cutoff(e.windows.TrendDays)), evalDayKey, evalUser)
	trendFrom := e.cutoff(e.windows.TrendDays - 1)
	activeTrends := FillDays(DailySeries(dailyActive),
		time.Date(trendFrom.Year(), trendFrom.Month(), trendFrom.Day(), 0, 0, 0, 0, time.UTC),
		e.Now().UTC())

	byType := Group(evals, evalTypeKey, evalUser)
	typePerf := make([]QuestionTypePerformance, 0, len(byType.Keys()))
	for _, key := range byType.Keys() {
		b := byType.Bucket(key)
		typePerf = append(typePerf, QuestionTypePerformance{
			QuestionType: key,
			Evaluations:  b.Count,
			UniqueUsers:  b.UniqueUsers(),
			AvgPerUser:   Average(float64(b.Count), b.UniqueUsers()),
		})
	}
	sort.SliceStable(typePerf, func(i, j int) bool {
		return typePerf[i].Evaluations > typePerf[j].Evaluations
	})

	byEngagement := NewGrouping()
	for _, u := range users {
		byEngagement.Add(EngagementLevel(perUser[u.UID]), u.UID)
	}

	levelUsers := make(map[string]int)
	levelEvals := make(map[string]int)
	var levelOrder []string
	for _, u := range users {
		level := u.AcademicLevel
		if level == "" {
			level = UnknownKey
		}
		if _, seen := levelUsers[level]; !seen {
			levelOrder = append(levelOrder, level)
		}
		levelUsers[level]++
		levelEvals[level] += perUser[u.UID]
	}
	levelPerf := make([]AcademicLevelPerformance, 0, len(levelOrder))
	for _, level := range levelOrder {
		levelPerf = append(levelPerf, AcademicLevelPerformance{
			AcademicLevel:         level,
			Users:                 levelUsers[level],
			Evaluations:           levelEvals[level],
			AvgEvaluationsPerUser: Average(float64(levelEvals[level]), levelUsers[level]),
		})
	}
	sort.SliceStable(levelPerf, func(i, j int) bool {
		return levelPerf[i].Evaluations > levelPerf[j].Evaluations
	})

	return &PerformanceSummary{
		ConversionRate:           Rate(converted, len(users)),
		RetentionRate:            RetentionRate(recentSet, referenceSet),
		DailyActiveUserTrends:    activeTrends,
		QuestionTypePerformance:  typePerf,
		EngagementBreakdown:      DenseBreakdown(byEngagement, EngagementLevels()),
		AcademicLevelPerformance: levelPerf,
	}, nil
}

func evalDayKey(ev models.Evaluation) (string, error)     { return DayKey(ev.Timestamp) }
func evalWeekKey(ev models.Evaluation) (string, error)    { return WeekKey(ev.Timestamp) }
func evalWeekdayKey(ev models.Evaluation) (string, error) { return WeekdayKey(ev.Timestamp) }
func evalHourKey(ev models.Evaluation) (string, error)    { return HourKey(ev.Timestamp) }
func evalTypeKey(ev models.Evaluation) (string, error)    { return CategoryKey(ev.QuestionType) }
func evalUser(ev models.Evaluation) string                { return ev.UserID }

func userDayKey(u models.User) (string, error)  { return DayKey(u.CreatedAt) }
func userWeekKey(u models.User) (string, error) { return WeekKey(u.CreatedAt) }
func userUID(u models.User) string              { return u.UID }

// evalsSince drops evaluations before the cutoff. Malformed
// timestamps are dropped here too; the windowed series can only
// carry records it can place in time.
func evalsSince(evals []models.Evaluation, cutoff time.Time) []models.Evaluation {
	out := make([]models.Evaluation, 0, len(evals))
	for _, ev := range evals {
		t, err := ParseTimestamp(ev.Timestamp)
		if err != nil {
			continue
		}
		if !t.Before(cutoff) {
			out = append(out, ev)
		}
	}
	return out
}

func usersSince(users []models.User, cutoff time.Time) []models.User {
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		t, err := ParseTimestamp(u.CreatedAt)
		if err != nil {
			continue
		}
		if !t.Before(cutoff) {
			out = append(out, u)
		}
	}
	return out
}

func activeUserSet(evals []models.Evaluation, cutoff time.Time) map[string]struct{} {
	set := make(map[string]struct{})
	for _, ev := range evals {
		t, err := ParseTimestamp(ev.Timestamp)
		if err != nil {
			continue
		}
		if !t.Before(cutoff) {
			set[ev.UserID] = struct{}{}
		}
	}
	return set
}
