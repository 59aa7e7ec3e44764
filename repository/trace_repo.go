package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"compliance-rag/types"
)

// TraceRepo archives finalized session traces for later evaluation runs.
type TraceRepo interface {
	ArchiveSession(ctx context.Context, trace *types.SessionTrace) error
	GetSession(ctx context.Context, sessionID string) (*types.SessionTrace, error)
	ListSessions(ctx context.Context, limit int64) ([]*types.SessionTrace, error)
}

type traceRepo struct {
	collection *mongo.Collection
}

func NewTraceRepo(collection *mongo.Collection) TraceRepo {
	return &traceRepo{
		collection: collection,
	}
}

func (r *traceRepo) ArchiveSession(ctx context.Context, trace *types.SessionTrace) error {
	_, err := r.collection.InsertOne(ctx, trace)
	return err
}

func (r *traceRepo) GetSession(ctx context.Context, sessionID string) (*types.SessionTrace, error) {
	var trace types.SessionTrace
	err := r.collection.FindOne(ctx, bson.M{"sessionmetadata.sessionid": sessionID}).Decode(&trace)
	if err != nil {
		return nil, err
	}
	return &trace, nil
}

func (r *traceRepo) ListSessions(ctx context.Context, limit int64) ([]*types.SessionTrace, error) {
	opts := options.Find().SetLimit(limit).SetSort(bson.D{{Key: "sessionmetadata.startedat", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var traces []*types.SessionTrace
	if err := cursor.All(ctx, &traces); err != nil {
		return nil, err
	}
	return traces, nil
}
