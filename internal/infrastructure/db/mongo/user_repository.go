package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lesbonsservices/booking-api/internal/core/domain"
)

const (
	usersCollection    = "users"
	countersCollection = "counters"

	userSequence         = "users"
	professionalSequence = "professionals"
)

// UserRepository implements ports.UserRepository on MongoDB. Numeric ids
// come from per-entity sequences in the counters collection.
type UserRepository struct {
	users    *mongo.Collection
	counters *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		users:    db.Collection(usersCollection),
		counters: db.Collection(countersCollection),
	}
}

type mongoProfessional struct {
	ID           int64  `bson:"id"`
	BusinessName string `bson:"business_name"`
	Description  string `bson:"description,omitempty"`
	Phone        string `bson:"phone"`
	City         string `bson:"city"`
	IsActive     bool   `bson:"is_active"`
	CreatedAt    int64  `bson:"created_at"`
	UpdatedAt    int64  `bson:"updated_at"`
}

type mongoUser struct {
	ID           int64              `bson:"_id"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	FirstName    string             `bson:"first_name"`
	LastName     string             `bson:"last_name"`
	Phone        string             `bson:"phone"`
	Role         string             `bson:"role"`
	IsActive     bool               `bson:"is_active"`
	Professional *mongoProfessional `bson:"professional,omitempty"`
	CreatedAt    int64              `bson:"created_at"`
	UpdatedAt    int64              `bson:"updated_at"`
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	n, err := r.users.CountDocuments(ctx, bson.M{"email": email}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count users by email: %w", err)
	}
	return n > 0, nil
}

// Save inserts user when it has no id yet and replaces the stored document
// otherwise. A unique-index violation on email is reported as
// *domain.EmailAlreadyUsedError.
func (r *UserRepository) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	saved := *user
	if saved.Professional != nil {
		profile := *saved.Professional
		saved.Professional = &profile
	}

	if saved.Professional != nil && saved.Professional.ID == 0 {
		id, err := r.nextID(ctx, professionalSequence)
		if err != nil {
			return nil, err
		}
		saved.Professional.ID = id
	}

	if saved.ID == 0 {
		id, err := r.nextID(ctx, userSequence)
		if err != nil {
			return nil, err
		}
		saved.ID = id
		if _, err := r.users.InsertOne(ctx, toMongoUser(&saved)); err != nil {
			return nil, r.writeError("insert user", saved.Email, err)
		}
		return &saved, nil
	}

	res, err := r.users.ReplaceOne(ctx, bson.M{"_id": saved.ID}, toMongoUser(&saved))
	if err != nil {
		return nil, r.writeError("replace user", saved.Email, err)
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrPrincipalNotFound
	}
	return &saved, nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var mu mongoUser
	if err := r.users.FindOne(ctx, filter).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return toDomainUser(&mu), nil
}

// nextID atomically increments and returns the named sequence.
func (r *UserRepository) nextID(ctx context.Context, sequence string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": sequence},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", sequence, err)
	}
	return counter.Seq, nil
}

func (r *UserRepository) writeError(op, email string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return &domain.EmailAlreadyUsedError{Email: email}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func toMongoUser(u *domain.User) mongoUser {
	doc := mongoUser{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Phone:        u.Phone,
		Role:         string(u.Role),
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt.Unix(),
		UpdatedAt:    u.UpdatedAt.Unix(),
	}
	if p := u.Professional; p != nil {
		doc.Professional = &mongoProfessional{
			ID:           p.ID,
			BusinessName: p.BusinessName,
			Description:  p.Description,
			Phone:        p.Phone,
			City:         p.City,
			IsActive:     p.IsActive,
			CreatedAt:    p.CreatedAt.Unix(),
			UpdatedAt:    p.UpdatedAt.Unix(),
		}
	}
	return doc
}

func toDomainUser(mu *mongoUser) *domain.User {
	user := &domain.User{
		ID:           mu.ID,
		Email:        mu.Email,
		PasswordHash: mu.PasswordHash,
		FirstName:    mu.FirstName,
		LastName:     mu.LastName,
		Phone:        mu.Phone,
		Role:         domain.Role(mu.Role),
		IsActive:     mu.IsActive,
		CreatedAt:    unixToTime(mu.CreatedAt),
		UpdatedAt:    unixToTime(mu.UpdatedAt),
	}
	if p := mu.Professional; p != nil {
		user.Professional = &domain.Professional{
			ID:           p.ID,
			BusinessName: p.BusinessName,
			Description:  p.Description,
			Phone:        p.Phone,
			City:         p.City,
			IsActive:     p.IsActive,
			CreatedAt:    unixToTime(p.CreatedAt),
			UpdatedAt:    unixToTime(p.UpdatedAt),
		}
	}
	return user
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
