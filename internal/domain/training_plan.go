// internal/domain/training_plan.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FitnessGoal is the training goal a plan is built around.
type FitnessGoal int

const (
	GoalGainMuscle FitnessGoal = 1
	GoalLoseFat    FitnessGoal = 2
	GoalShape      FitnessGoal = 3
	GoalMaintain   FitnessGoal = 4
)

// Label returns the display text for the goal.
func (g FitnessGoal) Label() string {
	switch g {
	case GoalGainMuscle:
		return "gain muscle"
	case GoalLoseFat:
		return "lose fat"
	case GoalShape:
		return "shape"
	case GoalMaintain:
		return "maintain"
	default:
		return "unknown"
	}
}

// Difficulty of a plan or course.
type Difficulty int

const (
	DifficultyBeginner     Difficulty = 1
	DifficultyIntermediate Difficulty = 2
	DifficultyAdvanced     Difficulty = 3
)

func (d Difficulty) Label() string {
	switch d {
	case DifficultyBeginner:
		return "beginner"
	case DifficultyIntermediate:
		return "intermediate"
	case DifficultyAdvanced:
		return "advanced"
	default:
		return "unknown"
	}
}

// WorkoutPlan is a multi-week plan template from the catalog.
// The fitness service only reads plans, it never writes them.
type WorkoutPlan struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name"`
	Description     string             `bson:"description,omitempty" json:"description,omitempty"`
	FitnessGoal     FitnessGoal        `bson:"fitnessGoal" json:"fitnessGoal"`
	Difficulty      Difficulty         `bson:"difficulty" json:"difficulty"`
	BodyFocus       string             `bson:"bodyFocus,omitempty" json:"bodyFocus,omitempty"` // comma separated
	DurationWeeks   int                `bson:"durationWeeks" json:"durationWeeks"`
	SessionsPerWeek int                `bson:"sessionsPerWeek" json:"sessionsPerWeek"`
	CoverImg        string             `bson:"coverImg,omitempty" json:"coverImg,omitempty"`
	EquipmentNeeded string             `bson:"equipmentNeeded,omitempty" json:"equipmentNeeded,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// TotalSlots is the number of scheduled sessions over the whole plan.
func (p *WorkoutPlan) TotalSlots() int {
	return p.DurationWeeks * p.SessionsPerWeek
}

// Valid reports whether the schedule dimensions can be projected onto slots.
func (p *WorkoutPlan) Valid() bool {
	return p.DurationWeeks > 0 && p.SessionsPerWeek > 0
}

// PlanDetail is one scheduled entry of a plan, keyed by (WeekNum, DayNum).
// At most one detail exists per (PlanID, WeekNum, DayNum).
type PlanDetail struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	PlanID      primitive.ObjectID  `bson:"planId" json:"planId"`
	WeekNum     int                 `bson:"weekNum" json:"weekNum"`
	DayNum      int                 `bson:"dayNum" json:"dayNum"`
	CourseID    *primitive.ObjectID `bson:"courseId,omitempty" json:"courseId,omitempty"` // training unit, optional
	Title       string              `bson:"title" json:"title"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
}

// Slot returns the schedule coordinate of the detail.
func (d *PlanDetail) Slot() Slot {
	return Slot{Week: d.WeekNum, Day: d.DayNum}
}
