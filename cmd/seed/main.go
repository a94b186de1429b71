package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/gradeflow/backend/internal/storage/models"
	"github.com/gradeflow/backend/internal/storage/sqlite"
)

// Seeds a local database with plausible demo data so the dashboard
// endpoints return something worth looking at during development.

var (
	questionTypes  = []string{"essay", "short_answer", "multiple_choice", "problem_set"}
	academicLevels = []string{"high_school", "undergraduate", "graduate"}
	goalTitles     = []string{
		"Finish calculus problem set",
		"Review essay feedback",
		"Practice short answers daily",
		"Complete biology revision",
		"Improve thesis statements",
	}
	resourceCategories = []string{"video", "article", "practice", "notes"}
	feedbackComments   = []string{
		"The grading felt accurate and the feedback was helpful",
		"Marking was too strict on the essay structure",
		"Great feedback, the suggestions improved my answer",
		"The score seemed wrong for a short answer",
		"Helpful comments but the rubric was confusing",
		"",
	}
)

func main() {
	dbPath := flag.String("db", "./data/gradeflow.db", "path to the SQLite database")
	users := flag.Int("users", 40, "number of users to create")
	days := flag.Int("days", 45, "how many days of history to generate")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	client, err := sqlite.NewClient(*dbPath, 10*time.Second)
	if err != nil {
		fmt.Printf("Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	if err := client.InitSchema(); err != nil {
		fmt.Printf("Failed to initialize schema: %v\n", err)
		os.Exit(1)
	}

	rng := rand.New(rand.NewSource(*seed))
	now := time.Now().UTC()

	var evalCount, feedbackCount int
	for i := 0; i < *users; i++ {
		uid := uuid.New().String()
		createdAt := now.AddDate(0, 0, -rng.Intn(*days))

		user := &models.User{
			UID:           uid,
			AcademicLevel: academicLevels[rng.Intn(len(academicLevels))],
			CreatedAt:     createdAt.Format(time.RFC3339),
		}
		// Roughly a third of accounts come from social logins and
		// have no email on record.
		if rng.Intn(3) != 0 {
			email := fmt.Sprintf("student%d@example.com", i+1)
			user.Email = &email
		}

		nEvals := rng.Intn(25)
		user.QuestionsMarked = nEvals
		if err := client.InsertUser(user); err != nil {
			fmt.Printf("Failed to insert user: %v\n", err)
			os.Exit(1)
		}

		for j := 0; j < nEvals; j++ {
			ts := createdAt.Add(time.Duration(rng.Intn(*days*24)) * time.Hour)
			if ts.After(now) {
				ts = now
			}
			eval := &models.Evaluation{
				ID:           uuid.New().String(),
				UserID:       uid,
				Timestamp:    ts.Format(time.RFC3339),
				QuestionType: questionTypes[rng.Intn(len(questionTypes))],
			}
			if err := client.InsertEvaluation(eval); err != nil {
				fmt.Printf("Failed to insert evaluation: %v\n", err)
				os.Exit(1)
			}
			evalCount++

			// About one in five evaluations gets accuracy feedback.
			if rng.Intn(5) == 0 {
				fb := &models.AssessmentFeedback{
					ID:           uuid.New().String(),
					UserID:       uid,
					EvaluationID: eval.ID,
					Accurate:     rng.Intn(4) != 0,
					Comment:      feedbackComments[rng.Intn(len(feedbackComments))],
					CreatedAt:    ts.Format(time.RFC3339),
				}
				if err := client.InsertAssessmentFeedback(fb); err != nil {
					fmt.Printf("Failed to insert feedback: %v\n", err)
					os.Exit(1)
				}
				feedbackCount++
			}
		}

		if nEvals > 0 {
			streak := &models.StudyStreak{
				ID:          uuid.New().String(),
				UserID:      uid,
				StreakCount: rng.Intn(14),
				UpdatedAt:   now.Format(time.RFC3339),
			}
			if err := client.InsertStudyStreak(streak); err != nil {
				fmt.Printf("Failed to insert streak: %v\n", err)
				os.Exit(1)
			}
		}

		nGoals := rng.Intn(4)
		for g := 0; g < nGoals; g++ {
			goal := &models.StudyGoal{
				ID:        uuid.New().String(),
				UserID:    uid,
				Title:     goalTitles[rng.Intn(len(goalTitles))],
				Completed: rng.Intn(2) == 0,
				CreatedAt: createdAt.Format(time.RFC3339),
			}
			if err := client.InsertStudyGoal(goal); err != nil {
				fmt.Printf("Failed to insert goal: %v\n", err)
				os.Exit(1)
			}
		}

		nResources := rng.Intn(3)
		for r := 0; r < nResources; r++ {
			res := &models.SavedResource{
				ID:        uuid.New().String(),
				UserID:    uid,
				URL:       fmt.Sprintf("https://example.com/resources/%d", rng.Intn(1000)),
				Title:     fmt.Sprintf("Study resource %d", rng.Intn(1000)),
				Category:  resourceCategories[rng.Intn(len(resourceCategories))],
				CreatedAt: createdAt.Format(time.RFC3339),
			}
			if err := client.InsertSavedResource(res); err != nil {
				fmt.Printf("Failed to insert resource: %v\n", err)
				os.Exit(1)
			}
		}
	}

	fmt.Printf("Seeded %d users, %d evaluations, %d feedback rows into %s\n",
		*users, evalCount, feedbackCount, *dbPath)
}
