package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// MongoTxnRunner runs a function inside one MongoDB transaction. The admin
// record write and all three permission-table writes of a create/update flow
// share a single transaction so a failure leaves either the old state or the
// fully new one.
type MongoTxnRunner struct {
	client *mongo.Client
}

func NewMongoTxnRunner(client *mongo.Client) *MongoTxnRunner {
	return &MongoTxnRunner{client: client}
}

func (r *MongoTxnRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx context.Context) (any, error) {
		return nil, fn(sessCtx)
	})
	return err
}
