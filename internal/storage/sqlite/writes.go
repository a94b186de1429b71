package sqlite

import (
	"fmt"

	"github.com/gradeflow/backend/internal/storage/models"
)

// Write helpers used by the seeder and by tests. The dashboard
// itself never writes; the productivity app's CRUD surface owns
// these tables.

func (c *Client) InsertEvaluation(e *models.Evaluation) error {
	_, err := c.db.Exec(
		`INSERT INTO evaluations (id, user_id, timestamp, question_type) VALUES (?, ?, ?, ?)`,
		e.ID, e.UserID, e.Timestamp, e.QuestionType,
	)
	if err != nil {
		return fmt.Errorf("failed to insert evaluation: %w", err)
	}
	return nil
}

func (c *Client) InsertUser(u *models.User) error {
	_, err := c.db.Exec(
		`INSERT INTO users (uid, email, academic_level, questions_marked, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.UID, u.Email, u.AcademicLevel, u.QuestionsMarked, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (c *Client) InsertStudyStreak(s *models.StudyStreak) error {
	_, err := c.db.Exec(
		`INSERT INTO study_streaks (id, user_id, streak_count, updated_at) VALUES (?, ?, ?, ?)`,
		s.ID, s.UserID, s.StreakCount, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert study streak: %w", err)
	}
	return nil
}

func (c *Client) InsertStudyGoal(g *models.StudyGoal) error {
	_, err := c.db.Exec(
		`INSERT INTO study_goals (id, user_id, title, completed, created_at) VALUES (?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.Title, g.Completed, g.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert study goal: %w", err)
	}
	return nil
}

func (c *Client) InsertSavedResource(r *models.SavedResource) error {
	_, err := c.db.Exec(
		`INSERT INTO saved_resources (id, user_id, url, title, category, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.URL, r.Title, r.Category, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert saved resource: %w", err)
	}
	return nil
}

func (c *Client) InsertAssessmentFeedback(f *models.AssessmentFeedback) error {
	_, err := c.db.Exec(
		`INSERT INTO assessment_feedback (id, user_id, evaluation_id, accurate, comment, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		f.ID, f.UserID, f.EvaluationID, f.Accurate, f.Comment, f.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert assessment feedback: %w", err)
	}
	return nil
}
