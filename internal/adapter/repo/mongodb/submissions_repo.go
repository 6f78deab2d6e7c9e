package mongodb

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"

	"github.com/pathfinderhq/pathfinder-backend/internal/domain"
)

// SubmissionRepo persists and loads quiz submissions.
type SubmissionRepo struct {
	col *mongo.Collection
}

// NewSubmissionRepo constructs a SubmissionRepo on the given database.
func NewSubmissionRepo(db *mongo.Database) *SubmissionRepo {
	return &SubmissionRepo{col: db.Collection(colSubmissions)}
}

type submissionDoc struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	SessionID        string             `bson:"sessionId"`
	Answers          domain.Answers     `bson:"answers"`
	TimeSpentSeconds int                `bson:"timeSpentSeconds"`
	ClientIP         string             `bson:"clientIp"`
	UserAgent        string             `bson:"userAgent"`
	Status           string             `bson:"status"`
	Error            string             `bson:"error,omitempty"`
	Recommendation   bson.M             `bson:"recommendation,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt"`
}

func (d submissionDoc) toDomain() domain.Submission {
	return domain.Submission{
		ID:               d.ID.Hex(),
		SessionID:        d.SessionID,
		Answers:          d.Answers,
		TimeSpentSeconds: d.TimeSpentSeconds,
		ClientIP:         d.ClientIP,
		UserAgent:        d.UserAgent,
		Status:           domain.SubmissionStatus(d.Status),
		Error:            d.Error,
		Recommendation:   toPlainMap(d.Recommendation),
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

// Create inserts a new submission with status pending and returns its id.
func (r *SubmissionRepo) Create(ctx domain.Context, s domain.Submission) (string, error) {
	tracer := otel.Tracer("repo.submissions")
	ctx, span := tracer.Start(ctx, "submissions.Create")
	defer span.End()
	now := time.Now().UTC()
	doc := submissionDoc{
		SessionID:        s.SessionID,
		Answers:          s.Answers,
		TimeSpentSeconds: s.TimeSpentSeconds,
		ClientIP:         s.ClientIP,
		UserAgent:        s.UserAgent,
		Status:           string(domain.SubmissionPending),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return "", wrapErr("submission.create", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("op=submission.create: unexpected inserted id type %T", res.InsertedID)
	}
	return oid.Hex(), nil
}

// Get loads a submission by its document id.
func (r *SubmissionRepo) Get(ctx domain.Context, id string) (domain.Submission, error) {
	tracer := otel.Tracer("repo.submissions")
	ctx, span := tracer.Start(ctx, "submissions.Get")
	defer span.End()
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("op=submission.get: %w: bad id", domain.ErrNotFound)
	}
	var doc submissionDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Submission{}, fmt.Errorf("op=submission.get: %w", domain.ErrNotFound)
		}
		return domain.Submission{}, wrapErr("submission.get", err)
	}
	return doc.toDomain(), nil
}

// GetBySessionID loads the most recent submission for a session token.
// Duplicate session tokens are not prevented; the newest document wins.
func (r *SubmissionRepo) GetBySessionID(ctx domain.Context, sessionID string) (domain.Submission, error) {
	tracer := otel.Tracer("repo.submissions")
	ctx, span := tracer.Start(ctx, "submissions.GetBySessionID")
	defer span.End()
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	var doc submissionDoc
	if err := r.col.FindOne(ctx, bson.M{"sessionId": sessionID}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Submission{}, fmt.Errorf("op=submission.get_by_session: %w", domain.ErrNotFound)
		}
		return domain.Submission{}, wrapErr("submission.get_by_session", err)
	}
	return doc.toDomain(), nil
}

// Complete transitions pending -> completed with the recommendation payload.
// The conditional filter on status makes a duplicate delivery a conflict
// instead of a reversal, preserving status monotonicity.
func (r *SubmissionRepo) Complete(ctx domain.Context, id string, rec map[string]any) error {
	return r.finish(ctx, id, bson.M{
		"status":         string(domain.SubmissionCompleted),
		"recommendation": rec,
		"updatedAt":      time.Now().UTC(),
	}, "submission.complete")
}

// Fail transitions pending -> failed with an error message.
func (r *SubmissionRepo) Fail(ctx domain.Context, id string, errMsg string) error {
	return r.finish(ctx, id, bson.M{
		"status":    string(domain.SubmissionFailed),
		"error":     errMsg,
		"updatedAt": time.Now().UTC(),
	}, "submission.fail")
}

func (r *SubmissionRepo) finish(ctx domain.Context, id string, set bson.M, op string) error {
	tracer := otel.Tracer("repo.submissions")
	ctx, span := tracer.Start(ctx, op)
	defer span.End()
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("op=%s: %w: bad id", op, domain.ErrNotFound)
	}
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": oid, "status": string(domain.SubmissionPending)},
		bson.M{"$set": set},
	)
	if err != nil {
		return wrapErr(op, err)
	}
	if res.MatchedCount == 0 {
		// Either the document is gone or it is already terminal.
		count, err := r.col.CountDocuments(ctx, bson.M{"_id": oid})
		if err != nil {
			return wrapErr(op, err)
		}
		if count == 0 {
			return fmt.Errorf("op=%s: %w", op, domain.ErrNotFound)
		}
		return fmt.Errorf("op=%s: already terminal: %w", op, domain.ErrConflict)
	}
	return nil
}

// StatusCounts aggregates submission counts grouped by status.
func (r *SubmissionRepo) StatusCounts(ctx domain.Context) (map[domain.SubmissionStatus]int64, error) {
	tracer := otel.Tracer("repo.submissions")
	ctx, span := tracer.Start(ctx, "submissions.StatusCounts")
	defer span.End()
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrapErr("submission.status_counts", err)
	}
	defer func() { _ = cursor.Close(ctx) }()
	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, wrapErr("submission.status_counts", err)
	}
	out := make(map[domain.SubmissionStatus]int64, len(rows))
	for _, row := range rows {
		out[domain.SubmissionStatus(row.Status)] = row.Count
	}
	return out, nil
}

// SubmissionsPerDay aggregates daily submission counts for the last n days.
func (r *SubmissionRepo) SubmissionsPerDay(ctx domain.Context, days int) ([]domain.DayCount, error) {
	tracer := otel.Tracer("repo.submissions")
	ctx, span := tracer.Start(ctx, "submissions.SubmissionsPerDay")
	defer span.End()
	since := time.Now().UTC().AddDate(0, 0, -days)
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"createdAt": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$createdAt"}},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrapErr("submission.per_day", err)
	}
	defer func() { _ = cursor.Close(ctx) }()
	var rows []domain.DayCount
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, wrapErr("submission.per_day", err)
	}
	return rows, nil
}

// TopCareerPaths aggregates the most recommended career titles across both
// historical recommendation shapes ($ifNull picks the legacy primaryCareer
// when the nested array is absent).
func (r *SubmissionRepo) TopCareerPaths(ctx domain.Context, limit int) ([]domain.LabelCount, error) {
	tracer := otel.Tracer("repo.submissions")
	ctx, span := tracer.Start(ctx, "submissions.TopCareerPaths")
	defer span.End()
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": string(domain.SubmissionCompleted)}}},
		{{Key: "$project", Value: bson.M{
			"career": bson.M{"$ifNull": bson.A{
				bson.M{"$arrayElemAt": bson.A{"$recommendation.topCareerPath.title", 0}},
				"$recommendation.primaryCareer",
			}},
		}}},
		{{Key: "$match", Value: bson.M{"career": bson.M{"$type": "string"}}}},
		{{Key: "$group", Value: bson.M{"_id": "$career", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}
	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrapErr("submission.top_careers", err)
	}
	defer func() { _ = cursor.Close(ctx) }()
	var rows []domain.LabelCount
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, wrapErr("submission.top_careers", err)
	}
	return rows, nil
}

// AverageTimeSpent returns the mean timeSpentSeconds across all submissions.
func (r *SubmissionRepo) AverageTimeSpent(ctx domain.Context) (float64, error) {
	tracer := otel.Tracer("repo.submissions")
	ctx, span := tracer.Start(ctx, "submissions.AverageTimeSpent")
	defer span.End()
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": nil, "avg": bson.M{"$avg": "$timeSpentSeconds"}}}},
	}
	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, wrapErr("submission.avg_time", err)
	}
	defer func() { _ = cursor.Close(ctx) }()
	var rows []struct {
		Avg float64 `bson:"avg"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, wrapErr("submission.avg_time", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Avg, nil
}
