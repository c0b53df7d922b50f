// internal/domain/course.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Course is a training unit referenced by plan details. Read-only here,
// it decorates a resolved schedule entry with display content.
type Course struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Difficulty  Difficulty         `bson:"difficulty" json:"difficulty"`
	Duration    int                `bson:"duration" json:"duration"` // minutes
	Calories    int                `bson:"calories" json:"calories"`
	CoverImg    string             `bson:"coverImg,omitempty" json:"coverImg,omitempty"`
	VideoURL    string             `bson:"videoUrl,omitempty" json:"videoUrl,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}
