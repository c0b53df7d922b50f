// internal/repository/mongo/checkin_repo.go
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

const checkInCollectionName = "workout_check_ins"

// mongoCheckInRepository implements repository.CheckInRepository
type mongoCheckInRepository struct {
	collection *mongo.Collection
}

// NewMongoCheckInRepository creates a new CheckIn repository backed by MongoDB.
func NewMongoCheckInRepository(db *mongo.Database) repository.CheckInRepository {
	return &mongoCheckInRepository{
		collection: db.Collection(checkInCollectionName),
	}
}

// Create inserts a check-in. enrollmentId is always written (null when absent)
// so the unique index covers check-ins without an enrollment as well.
func (r *mongoCheckInRepository) Create(ctx context.Context, checkIn *domain.CheckIn) (primitive.ObjectID, error) {
	if checkIn.UserID == primitive.NilObjectID || checkIn.CheckInDate.IsZero() {
		return primitive.NilObjectID, errors.New("check-in requires userId and checkInDate")
	}

	checkIn.ID = primitive.NewObjectID()
	checkIn.CheckInDate = domain.CivilDate(checkIn.CheckInDate)
	now := time.Now().UTC()
	checkIn.CreatedAt = now
	checkIn.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, checkIn)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicateKey
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted check-in ID")
	}
	return insertedID, nil
}

// Exists checks the exact (userId, enrollmentId, checkInDate) key.
func (r *mongoCheckInRepository) Exists(ctx context.Context, key repository.CheckInKey) (bool, error) {
	filter := bson.M{
		"userId":       key.UserID,
		"enrollmentId": key.EnrollmentID, // nil matches null
		"checkInDate":  domain.CivilDate(key.Date),
	}
	return r.exists(ctx, filter)
}

// ExistsOnDate checks for any check-in of the user on the date.
func (r *mongoCheckInRepository) ExistsOnDate(ctx context.Context, userID primitive.ObjectID, date time.Time) (bool, error) {
	return r.exists(ctx, bson.M{"userId": userID, "checkInDate": domain.CivilDate(date)})
}

func (r *mongoCheckInRepository) exists(ctx context.Context, filter bson.M) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// List retrieves one page of a user's check-ins, latest date first.
func (r *mongoCheckInRepository) List(ctx context.Context, filter repository.CheckInFilter, page repository.Page) ([]domain.CheckIn, int64, error) {
	page = page.Normalize()
	query := bson.M{"userId": filter.UserID}
	dateRange := bson.M{}
	if filter.From != nil {
		dateRange["$gte"] = domain.CivilDate(*filter.From)
	}
	if filter.To != nil {
		dateRange["$lte"] = domain.CivilDate(*filter.To)
	}
	if len(dateRange) > 0 {
		query["checkInDate"] = dateRange
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "checkInDate", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(page.Offset()).
		SetLimit(int64(page.Size))

	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	checkIns := []domain.CheckIn{}
	if err = cursor.All(ctx, &checkIns); err != nil {
		return nil, 0, err
	}
	return checkIns, total, nil
}

// Summaries projects the fields needed for statistics.
func (r *mongoCheckInRepository) Summaries(ctx context.Context, userID primitive.ObjectID) ([]domain.CheckInSummary, error) {
	findOptions := options.Find().
		SetProjection(bson.M{"checkInDate": 1, "duration": 1, "calories": 1}).
		SetSort(bson.D{{Key: "checkInDate", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	rows := []domain.CheckInSummary{}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// EnsureCheckInIndexes creates necessary indexes for the check-ins collection.
func EnsureCheckInIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			// One check-in per user, enrollment (or none) and day
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "enrollmentId", Value: 1},
				{Key: "checkInDate", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("uniq_checkin_per_day"),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "checkInDate", Value: -1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
