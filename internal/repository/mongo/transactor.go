package mongo

import (
	"context"

	"eat2fit/fitness/internal/repository"

	"go.mongodb.org/mongo-driver/mongo"
)

// mongoTransactor runs units of work in a multi-document transaction.
// Requires a replica set or sharded cluster.
type mongoTransactor struct {
	client *mongo.Client
}

func NewMongoTransactor(client *mongo.Client) repository.Transactor {
	return &mongoTransactor{client: client}
}

// WithinTransaction commits when fn returns nil and aborts otherwise.
// The driver may re-run fn on transient transaction errors.
func (t *mongoTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
