package mongodb

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel"

	"github.com/pathfinderhq/pathfinder-backend/internal/domain"
)

// UserRepo persists and loads user accounts.
type UserRepo struct {
	col *mongo.Collection
}

// NewUserRepo constructs a UserRepo on the given database.
func NewUserRepo(db *mongo.Database) *UserRepo {
	return &UserRepo{col: db.Collection(colUsers)}
}

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"passwordHash"`
	Name         string             `bson:"name"`
	Role         string             `bson:"role"`
	Banned       bool               `bson:"banned"`
	Provider     string             `bson:"provider"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func (d userDoc) toDomain() domain.User {
	return domain.User{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Name:         d.Name,
		Role:         d.Role,
		Banned:       d.Banned,
		Provider:     d.Provider,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// Create inserts a new user and returns its id. A duplicate email maps to
// ErrConflict via the unique index.
func (r *UserRepo) Create(ctx domain.Context, u domain.User) (string, error) {
	tracer := otel.Tracer("repo.users")
	ctx, span := tracer.Start(ctx, "users.Create")
	defer span.End()
	now := time.Now().UTC()
	doc := userDoc{
		Email:        strings.ToLower(strings.TrimSpace(u.Email)),
		PasswordHash: u.PasswordHash,
		Name:         u.Name,
		Role:         u.Role,
		Banned:       u.Banned,
		Provider:     u.Provider,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", fmt.Errorf("op=user.create: email taken: %w", domain.ErrConflict)
		}
		return "", wrapErr("user.create", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("op=user.create: unexpected inserted id type %T", res.InsertedID)
	}
	return oid.Hex(), nil
}

// GetByEmail loads a user by normalized email.
func (r *UserRepo) GetByEmail(ctx domain.Context, email string) (domain.User, error) {
	tracer := otel.Tracer("repo.users")
	ctx, span := tracer.Start(ctx, "users.GetByEmail")
	defer span.End()
	var doc userDoc
	err := r.col.FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.User{}, fmt.Errorf("op=user.get_by_email: %w", domain.ErrNotFound)
		}
		return domain.User{}, wrapErr("user.get_by_email", err)
	}
	return doc.toDomain(), nil
}

// Get loads a user by id.
func (r *UserRepo) Get(ctx domain.Context, id string) (domain.User, error) {
	tracer := otel.Tracer("repo.users")
	ctx, span := tracer.Start(ctx, "users.Get")
	defer span.End()
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.User{}, fmt.Errorf("op=user.get: %w: bad id", domain.ErrNotFound)
	}
	var doc userDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.User{}, fmt.Errorf("op=user.get: %w", domain.ErrNotFound)
		}
		return domain.User{}, wrapErr("user.get", err)
	}
	return doc.toDomain(), nil
}

// SetRole updates a user's role.
func (r *UserRepo) SetRole(ctx domain.Context, id, role string) error {
	return r.update(ctx, id, bson.M{"role": role}, "user.set_role")
}

// SetBanned updates a user's banned flag.
func (r *UserRepo) SetBanned(ctx domain.Context, id string, banned bool) error {
	return r.update(ctx, id, bson.M{"banned": banned}, "user.set_banned")
}

func (r *UserRepo) update(ctx domain.Context, id string, set bson.M, op string) error {
	tracer := otel.Tracer("repo.users")
	ctx, span := tracer.Start(ctx, op)
	defer span.End()
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("op=%s: %w: bad id", op, domain.ErrNotFound)
	}

	set["updatedAt"] = time.Now().UTC()
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return wrapErr(op, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("op=%s: %w", op, domain.ErrNotFound)
	}
	return nil
}
