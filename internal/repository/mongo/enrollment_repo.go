// internal/repository/mongo/enrollment_repo.go
package mongo

import (
	"context"
	"errors"
	"time"

	"eat2fit/fitness/internal/domain"
	"eat2fit/fitness/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const enrollmentCollectionName = "user_workout_plans"

// mongoEnrollmentRepository implements repository.EnrollmentRepository
type mongoEnrollmentRepository struct {
	collection *mongo.Collection
}

// NewMongoEnrollmentRepository creates a new Enrollment repository backed by MongoDB.
func NewMongoEnrollmentRepository(db *mongo.Database) repository.EnrollmentRepository {
	return &mongoEnrollmentRepository{
		collection: db.Collection(enrollmentCollectionName),
	}
}

// Create inserts a new enrollment. The partial unique index on active
// enrollments turns a concurrent second enrollment into a duplicate key error.
func (r *mongoEnrollmentRepository) Create(ctx context.Context, enrollment *domain.Enrollment) (primitive.ObjectID, error) {
	if enrollment.UserID == primitive.NilObjectID || enrollment.PlanID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("enrollment requires userId and planId")
	}

	enrollment.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, enrollment)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicateKey
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted enrollment ID")
	}
	return insertedID, nil
}

// GetByID retrieves an enrollment by its ID.
func (r *mongoEnrollmentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Enrollment, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetActiveByUser retrieves the user's single active enrollment.
func (r *mongoEnrollmentRepository) GetActiveByUser(ctx context.Context, userID primitive.ObjectID) (*domain.Enrollment, error) {
	return r.findOne(ctx, bson.M{"userId": userID, "status": domain.EnrollmentActive})
}

func (r *mongoEnrollmentRepository) findOne(ctx context.Context, filter bson.M) (*domain.Enrollment, error) {
	var enrollment domain.Enrollment
	err := r.collection.FindOne(ctx, filter).Decode(&enrollment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &enrollment, nil
}

// List retrieves one page of a user's enrollments, newest first.
func (r *mongoEnrollmentRepository) List(ctx context.Context, filter repository.EnrollmentFilter, page repository.Page) ([]domain.Enrollment, int64, error) {
	page = page.Normalize()
	query := bson.M{"userId": filter.UserID}
	if filter.Status != nil {
		query["status"] = *filter.Status
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(page.Offset()).
		SetLimit(int64(page.Size))

	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	enrollments := []domain.Enrollment{}
	if err = cursor.All(ctx, &enrollments); err != nil {
		return nil, 0, err
	}
	return enrollments, total, nil
}

// UpdateProgress is a compare-and-set on (status, currentWeek, currentDay).
func (r *mongoEnrollmentRepository) UpdateProgress(ctx context.Context, id primitive.ObjectID, from, to domain.Slot, rate float64, status domain.EnrollmentStatus) error {
	filter := bson.M{
		"_id":         id,
		"status":      domain.EnrollmentActive,
		"currentWeek": from.Week,
		"currentDay":  from.Day,
	}
	update := bson.M{
		"$set": bson.M{
			"currentWeek":    to.Week,
			"currentDay":     to.Day,
			"completionRate": rate,
			"status":         status,
			"updatedAt":      time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrConflict
	}
	return nil
}

// TransitionStatus only matches enrollments currently in the from status,
// so of two concurrent transitions at most one wins.
func (r *mongoEnrollmentRepository) TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to domain.EnrollmentStatus, rate *float64) (bool, error) {
	set := bson.M{
		"status":    to,
		"updatedAt": time.Now().UTC(),
	}
	if rate != nil {
		set["completionRate"] = *rate
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id, "status": from}, bson.M{"$set": set})
	if err != nil {
		return false, err
	}
	return result.ModifiedCount > 0, nil
}

// EnsureEnrollmentIndexes creates necessary indexes for the enrollments collection.
func EnsureEnrollmentIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			// At most one active enrollment per user
			Keys: bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("uniq_active_enrollment_per_user").
				SetPartialFilterExpression(bson.M{"status": domain.EnrollmentActive}),
		},
		{
			// Listing a user's enrollments, newest first
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
