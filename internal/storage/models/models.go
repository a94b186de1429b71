package models

// Rows come back from the store as read-only snapshots; nothing in
// the analytics pipeline mutates or writes them back. Timestamps stay
// in their stored RFC3339 string form so a single malformed value can
// be tolerated at grouping time instead of failing the whole scan.

type Evaluation struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	Timestamp    string `json:"timestamp"`
	QuestionType string `json:"question_type"`
}

// User.Email is a pointer: a nil email means the account came from a
// social login, which is a recurring filter dimension in the
// dashboard.
type User struct {
	UID             string  `json:"uid"`
	Email           *string `json:"email"`
	AcademicLevel   string  `json:"academic_level"`
	QuestionsMarked int     `json:"questions_marked"`
	CreatedAt       string  `json:"created_at"`
}

type StudyStreak struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	StreakCount int    `json:"streak_count"`
	UpdatedAt   string `json:"updated_at"`
}

type StudyGoal struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	CreatedAt string `json:"created_at"`
}

type SavedResource struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	Category  string `json:"category"`
	CreatedAt string `json:"created_at"`
}

type AssessmentFeedback struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	EvaluationID string `json:"evaluation_id"`
	Accurate     bool   `json:"accurate"`
	Comment      string `json:"comment"`
	CreatedAt    string `json:"created_at"`
}
