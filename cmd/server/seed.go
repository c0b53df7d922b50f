package main

import (
	"fmt"

	"eat2fit/fitness/internal/domain"
	"eat2fit/fitness/internal/repository/memory"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// seedDemoCatalog fills the in-memory catalog with one plan so the memory driver is usable.
func seedDemoCatalog(db *memory.DB) error {
	warmup := db.AddCourse(domain.Course{Name: "Mobility warm-up", Difficulty: domain.DifficultyBeginner, Duration: 15, Calories: 60})
	strength := db.AddCourse(domain.Course{Name: "Full body strength", Difficulty: domain.DifficultyBeginner, Duration: 35, Calories: 220})
	cardio := db.AddCourse(domain.Course{Name: "Steady cardio", Difficulty: domain.DifficultyBeginner, Duration: 30, Calories: 250})

	plan := domain.WorkoutPlan{
		Name:            "4-week beginner fat loss",
		Description:     "Three short sessions a week alternating strength and cardio.",
		FitnessGoal:     domain.GoalLoseFat,
		Difficulty:      domain.DifficultyBeginner,
		BodyFocus:       "full body",
		DurationWeeks:   4,
		SessionsPerWeek: 3,
	}
	rotation := []struct {
		title  string
		course primitive.ObjectID
	}{
		{"Warm-up and strength", strength},
		{"Cardio", cardio},
		{"Mobility", warmup},
	}

	var details []domain.PlanDetail
	for w := 1; w <= plan.DurationWeeks; w++ {
		for d := 1; d <= plan.SessionsPerWeek; d++ {
			r := rotation[(d-1)%len(rotation)]
			courseID := r.course
			details = append(details, domain.PlanDetail{
				WeekNum:  w,
				DayNum:   d,
				Title:    fmt.Sprintf("Week %d: %s", w, r.title),
				CourseID: &courseID,
			})
		}
	}
	id, err := db.AddPlan(plan, details)
	if err != nil {
		return fmt.Errorf("seed demo plan: %w", err)
	}
	log.WithField("planId", id.Hex()).Info("seeded demo plan")
	return nil
}
