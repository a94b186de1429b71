package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/gradeflow/backend/internal/storage/models"
	"github.com/gradeflow/backend/pkg/logger"
)

// allowedTables is the explicit allow-list for every query this
// client will issue. A table name outside this map is rejected
// before any SQL is built. The column list doubles as the filter
// and order-by allow-list for the generic browser.
var allowedTables = map[string][]string{
	"evaluations":         {"id", "user_id", "timestamp", "question_type"},
	"users":               {"uid", "email", "academic_level", "questions_marked", "created_at"},
	"study_streaks":       {"id", "user_id", "streak_count", "updated_at"},
	"study_goals":         {"id", "user_id", "title", "completed", "created_at"},
	"saved_resources":     {"id", "user_id", "url", "title", "category", "created_at"},
	"assessment_feedback": {"id", "user_id", "evaluation_id", "accurate", "comment", "created_at"},
}

// AllowedTables returns the browsable table names in stable order.
func AllowedTables() []string {
	names := make([]string, 0, len(allowedTables))
	for name := range allowedTables {
		names = append(names, name)
	}
	return names
}

func tableAllowed(name string) bool {
	_, ok := allowedTables[name]
	return ok
}

func columnAllowed(table, column string) bool {
	for _, c := range allowedTables[table] {
		if c == column {
			return true
		}
	}
	return false
}

type Client struct {
	db           *sql.DB
	queryTimeout time.Duration
}

func NewClient(dbPath string, queryTimeout time.Duration) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if queryTimeout <= 0 {
		queryTimeout = 10 * time.Second
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db, queryTimeout: queryTimeout}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS evaluations (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		question_type TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_evaluations_user ON evaluations(user_id);
	CREATE INDEX IF NOT EXISTS idx_evaluations_timestamp ON evaluations(timestamp);

	CREATE TABLE IF NOT EXISTS users (
		uid TEXT PRIMARY KEY,
		email TEXT,
		academic_level TEXT,
		questions_marked INTEGER DEFAULT 0,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_users_created ON users(created_at);

	CREATE TABLE IF NOT EXISTS study_streaks (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		streak_count INTEGER DEFAULT 0,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_streaks_user ON study_streaks(user_id);

	CREATE TABLE IF NOT EXISTS study_goals (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT,
		completed INTEGER DEFAULT 0,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_goals_user ON study_goals(user_id);

	CREATE TABLE IF NOT EXISTS saved_resources (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		url TEXT,
		title TEXT,
		category TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_resources_user ON saved_resources(user_id);

	CREATE TABLE IF NOT EXISTS assessment_feedback (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		evaluation_id TEXT,
		accurate INTEGER DEFAULT 0,
		comment TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_feedback_user ON assessment_feedback(user_id);
	`

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

// Filter is a single conjunctive constraint. Op must be one of
// "=", ">=", "<=". OR and nested filters are deliberately not
// supported here; composite logic lives in the aggregation layer.
type Filter struct {
	Column string
	Op     string
	Value  any
}

type BrowseSpec struct {
	Table    string
	Filters  []Filter
	Limit    int
	OrderBy  string
	OrderDir string
}

func validOp(op string) bool {
	return op == "=" || op == ">=" || op == "<="
}

// Browse runs an allow-listed SELECT and returns generic rows. The
// table and every referenced column are validated before any SQL is
// assembled, so a hostile table or column name never reaches the
// driver.
func (c *Client) Browse(ctx context.Context, spec BrowseSpec) ([]map[string]any, error) {
	if !tableAllowed(spec.Table) {
		return nil, &InvalidTableError{Table: spec.Table}
	}

	var sb strings.Builder
	var args []any

	sb.WriteString("SELECT * FROM ")
	sb.WriteString(spec.Table)

	if len(spec.Filters) > 0 {
		preds := make([]string, 0, len(spec.Filters))
		for _, f := range spec.Filters {
			if !columnAllowed(spec.Table, f.Column) {
				return nil, &InvalidColumnError{Table: spec.Table, Column: f.Column}
			}
			if !validOp(f.Op) {
				return nil, &InvalidColumnError{Table: spec.Table, Column: f.Column}
			}
			preds = append(preds, f.Column+" "+f.Op+" ?")
			args = append(args, f.Value)
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(preds, " AND "))
	}

	if spec.OrderBy != "" {
		if !columnAllowed(spec.Table, spec.OrderBy) {
			return nil, &InvalidColumnError{Table: spec.Table, Column: spec.OrderBy}
		}
		dir := "ASC"
		if strings.EqualFold(spec.OrderDir, "desc") {
			dir = "DESC"
		}
		sb.WriteString(" ORDER BY " + spec.OrderBy + " " + dir)
	}

	if spec.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, spec.Limit)
	}

	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, &QueryError{Table: spec.Table, Err: err}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &QueryError{Table: spec.Table, Err: err}
	}

	out := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &QueryError{Table: spec.Table, Err: err}
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Table: spec.Table, Err: err}
	}

	return out, nil
}

func (c *Client) FetchEvaluations(ctx context.Context) ([]models.Evaluation, error) {
	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	rows, err := c.db.QueryContext(ctx,
		`SELECT id, user_id, timestamp, COALESCE(question_type, '') FROM evaluations`)
	if err != nil {
		return nil, &QueryError{Table: "evaluations", Err: err}
	}
	defer rows.Close()

	var evals []models.Evaluation
	for rows.Next() {
		var e models.Evaluation
		if err := rows.Scan(&e.ID, &e.UserID, &e.Timestamp, &e.QuestionType); err != nil {
			return nil, &QueryError{Table: "evaluations", Err: err}
		}
		evals = append(evals, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Table: "evaluations", Err: err}
	}

	return evals, nil
}

func (c *Client) FetchUsers(ctx context.Context) ([]models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	rows, err := c.db.QueryContext(ctx,
		`SELECT uid, email, COALESCE(academic_level, ''), questions_marked, created_at FROM users`)
	if err != nil {
		return nil, &QueryError{Table: "users", Err: err}
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		var email sql.NullString
		if err := rows.Scan(&u.UID, &email, &u.AcademicLevel, &u.QuestionsMarked, &u.CreatedAt); err != nil {
			return nil, &QueryError{Table: "users", Err: err}
		}
		if email.Valid {
			u.Email = &email.String
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Table: "users", Err: err}
	}

	return users, nil
}

func (c *Client) FetchStudyStreaks(ctx context.Context) ([]models.StudyStreak, error) {
	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	rows, err := c.db.QueryContext(ctx,
		`SELECT id, user_id, streak_count, updated_at FROM study_streaks`)
	if err != nil {
		return nil, &QueryError{Table: "study_streaks", Err: err}
	}
	defer rows.Close()

	var streaks []models.StudyStreak
	for rows.Next() {
		var s models.StudyStreak
		if err := rows.Scan(&s.ID, &s.UserID, &s.StreakCount, &s.UpdatedAt); err != nil {
			return nil, &QueryError{Table: "study_streaks", Err: err}
		}
		streaks = append(streaks, s)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Table: "study_streaks", Err: err}
	}

	return streaks, nil
}

func (c *Client) FetchStudyGoals(ctx context.Context) ([]models.StudyGoal, error) {
	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	rows, err := c.db.QueryContext(ctx,
		`SELECT id, user_id, COALESCE(title, ''), completed, created_at FROM study_goals`)
	if err != nil {
		return nil, &QueryError{Table: "study_goals", Err: err}
	}
	defer rows.Close()

	var goals []models.StudyGoal
	for rows.Next() {
		var g models.StudyGoal
		if err := rows.Scan(&g.ID, &g.UserID, &g.Title, &g.Completed, &g.CreatedAt); err != nil {
			return nil, &QueryError{Table: "study_goals", Err: err}
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Table: "study_goals", Err: err}
	}

	return goals, nil
}

func (c *Client) FetchSavedResources(ctx context.Context) ([]models.SavedResource, error) {
	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	rows, err := c.db.QueryContext(ctx,
		`SELECT id, user_id, COALESCE(url, ''), COALESCE(title, ''), COALESCE(category, ''), created_at FROM saved_resources`)
	if err != nil {
		return nil, &QueryError{Table: "saved_resources", Err: err}
	}
	defer rows.Close()

	var resources []models.SavedResource
	for rows.Next() {
		var r models.SavedResource
		if err := rows.Scan(&r.ID, &r.UserID, &r.URL, &r.Title, &r.Category, &r.CreatedAt); err != nil {
			return nil, &QueryError{Table: "saved_resources", Err: err}
		}
		resources = append(resources, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Table: "saved_resources", Err: err}
	}

	return resources, nil
}

func (c *Client) FetchAssessmentFeedback(ctx context.Context) ([]models.AssessmentFeedback, error) {
	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	rows, err := c.db.QueryContext(ctx,
		`SELECT id, user_id, COALESCE(evaluation_id, ''), accurate, COALESCE(comment, ''), created_at FROM assessment_feedback`)
	if err != nil {
		return nil, &QueryError{Table: "assessment_feedback", Err: err}
	}
	defer rows.Close()

	var feedback []models.AssessmentFeedback
	for rows.Next() {
		var f models.AssessmentFeedback
		if err := rows.Scan(&f.ID, &f.UserID, &f.EvaluationID, &f.Accurate, &f.Comment, &f.CreatedAt); err != nil {
			return nil, &QueryError{Table: "assessment_feedback", Err: err}
		}
		feedback = append(feedback, f)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Table: "assessment_feedback", Err: err}
	}

	return feedback, nil
}
