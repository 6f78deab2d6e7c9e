package mongodb

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"

	"github.com/pathfinderhq/pathfinder-backend/internal/domain"
)

// InteractionRepo stores per-request interaction logs and serves the
// read-only aggregations behind the admin analytics endpoints.
type InteractionRepo struct {
	col *mongo.Collection
}

// NewInteractionRepo constructs an InteractionRepo on the given database.
func NewInteractionRepo(db *mongo.Database) *InteractionRepo {
	return &InteractionRepo{col: db.Collection(colInteractions)}
}

type interactionDoc struct {
	Route      string    `bson:"route"`
	Method     string    `bson:"method"`
	Status     int       `bson:"status"`
	DurationMS int64     `bson:"durationMs"`
	ClientIP   string    `bson:"clientIp"`
	UserID     string    `bson:"userId,omitempty"`
	CreatedAt  time.Time `bson:"createdAt"`
}

// Insert records one interaction. Callers treat failures as best-effort.
func (r *InteractionRepo) Insert(ctx domain.Context, in domain.Interaction) error {
	doc := interactionDoc{
		Route:      in.Route,
		Method:     in.Method,
		Status:     in.Status,
		DurationMS: in.DurationMS,
		ClientIP:   in.ClientIP,
		UserID:     in.UserID,
		CreatedAt:  in.CreatedAt,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return wrapErr("interaction.insert", err)
	}
	return nil
}

// HourlyStats aggregates request and error counts per hour bucket.
func (r *InteractionRepo) HourlyStats(ctx domain.Context, since time.Time) ([]domain.BucketStats, error) {
	tracer := otel.Tracer("repo.interactions")
	ctx, span := tracer.Start(ctx, "interactions.HourlyStats")
	defer span.End()
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"createdAt": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{
			"_id":      bson.M{"$dateToString": bson.M{"format": "%Y-%m-%dT%H:00", "date": "$createdAt"}},
			"requests": bson.M{"$sum": 1},
			"errors": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$gte": bson.A{"$status", 500}}, 1, 0,
			}}},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrapErr("interaction.hourly_stats", err)
	}
	defer func() { _ = cursor.Close(ctx) }()
	var rows []domain.BucketStats
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, wrapErr("interaction.hourly_stats", err)
	}
	return rows, nil
}

// TopRoutes aggregates the most requested routes since the given time.
func (r *InteractionRepo) TopRoutes(ctx domain.Context, since time.Time, limit int) ([]domain.LabelCount, error) {
	tracer := otel.Tracer("repo.interactions")
	ctx, span := tracer.Start(ctx, "interactions.TopRoutes")
	defer span.End()
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"createdAt": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{"_id": "$route", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}
	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrapErr("interaction.top_routes", err)
	}
	defer func() { _ = cursor.Close(ctx) }()
	var rows []domain.LabelCount
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, wrapErr("interaction.top_routes", err)
	}
	return rows, nil
}

// Durations returns raw request durations for in-memory percentile
// computation by the analytics usecase.
func (r *InteractionRepo) Durations(ctx domain.Context, since time.Time) ([]int64, error) {
	tracer := otel.Tracer("repo.interactions")
	ctx, span := tracer.Start(ctx, "interactions.Durations")
	defer span.End()
	opts := options.Find().SetProjection(bson.M{"durationMs": 1, "_id": 0})
	cursor, err := r.col.Find(ctx, bson.M{"createdAt": bson.M{"$gte": since}}, opts)
	if err != nil {
		return nil, wrapErr("interaction.durations", err)
	}
	defer func() { _ = cursor.Close(ctx) }()
	var rows []struct {
		DurationMS int64 `bson:"durationMs"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, wrapErr("interaction.durations", err)
	}
	out := make([]int64, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.DurationMS)
	}
	return out, nil
}
