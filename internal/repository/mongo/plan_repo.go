// internal/repository/mongo/plan_repo.go
package mongo

import (
	"context"
	"errors"

	"eat2fit/fitness/internal/domain"
	"eat2fit/fitness/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	planCollectionName       = "workout_plans"
	planDetailCollectionName = "workout_plan_details"
)

// mongoPlanRepository implements repository.PlanRepository over the catalog collections.
type mongoPlanRepository struct {
	plans   *mongo.Collection
	details *mongo.Collection
}

// NewMongoPlanRepository creates a read-only plan catalog reader.
func NewMongoPlanRepository(db *mongo.Database) repository.PlanRepository {
	return &mongoPlanRepository{
		plans:   db.Collection(planCollectionName),
		details: db.Collection(planDetailCollectionName),
	}
}

// GetByID retrieves a single plan by its ID.
func (r *mongoPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutPlan, error) {
	var plan domain.WorkoutPlan
	err := r.plans.FindOne(ctx, bson.M{"_id": id}).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// GetDetails retrieves the full schedule of a plan.
func (r *mongoPlanRepository) GetDetails(ctx context.Context, planID primitive.ObjectID) ([]domain.PlanDetail, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "weekNum", Value: 1}, {Key: "dayNum", Value: 1}})

	cursor, err := r.details.Find(ctx, bson.M{"planId": planID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	details := []domain.PlanDetail{}
	if err = cursor.All(ctx, &details); err != nil {
		return nil, err
	}
	return details, nil
}

// GetDetail retrieves the schedule entry at one slot.
func (r *mongoPlanRepository) GetDetail(ctx context.Context, planID primitive.ObjectID, slot domain.Slot) (*domain.PlanDetail, error) {
	var detail domain.PlanDetail
	filter := bson.M{
		"planId":  planID,
		"weekNum": slot.Week,
		"dayNum":  slot.Day,
	}
	err := r.details.FindOne(ctx, filter).Decode(&detail)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &detail, nil
}

// EnsurePlanDetailIndexes enforces one detail per (planId, weekNum, dayNum).
func EnsurePlanDetailIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "planId", Value: 1}, {Key: "weekNum", Value: 1}, {Key: "dayNum", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_plan_slot"),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
