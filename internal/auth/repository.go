package auth

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrEmailTaken = errors.New("User with this email already exists.")

// UserStore is the persistence surface for users.
type UserStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*User, error)
	CreateUser(ctx context.Context, user *User) error
	UpdateUser(ctx context.Context, id primitive.ObjectID, set bson.M) (*User, error)
	DeleteUser(ctx context.Context, id primitive.ObjectID) (bool, error)
	AddClub(ctx context.Context, userID, clubID primitive.ObjectID) error
	RemoveClub(ctx context.Context, userID, clubID primitive.ObjectID) error
	PullClubFromAll(ctx context.Context, clubID primitive.ObjectID) error
	Search(ctx context.Context, term string, limit int64) ([]*User, error)
	FindByRole(ctx context.Context, role string) ([]*User, error)
	List(ctx context.Context, search string, page, limit int64) ([]*User, int64, error)
	FindAll(ctx context.Context) ([]*User, error)
	FindRecent(ctx context.Context, limit int64) ([]*User, error)
	Count(ctx context.Context) (int64, error)
	CountByRole(ctx context.Context) (map[string]int64, error)
	AllEmails(ctx context.Context) ([]string, error)
}

type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{collection: db.Collection("users")}
}

func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "role", Value: 1}}},
	})
	return err
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*User, error) {
	var user User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]*User, error) {
	cursor, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	users := []*User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*User, error) {
	if len(ids) == 0 {
		return []*User{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *UserRepository) CreateUser(ctx context.Context, user *User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.Clubs == nil {
		user.Clubs = []primitive.ObjectID{}
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now

	_, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

// UpdateUser applies set and returns the updated user, or nil if absent.
func (r *UserRepository) UpdateUser(ctx context.Context, id primitive.ObjectID, set bson.M) (*User, error) {
	set["updatedAt"] = time.Now()
	var user User
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) DeleteUser(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *UserRepository) AddClub(ctx context.Context, userID, clubID primitive.ObjectID) error {
	_, err := r.collection.UpdateByID(ctx, userID, bson.M{"$addToSet": bson.M{"clubs": clubID}})
	return err
}

func (r *UserRepository) RemoveClub(ctx context.Context, userID, clubID primitive.ObjectID) error {
	_, err := r.collection.UpdateByID(ctx, userID, bson.M{"$pull": bson.M{"clubs": clubID}})
	return err
}

func (r *UserRepository) PullClubFromAll(ctx context.Context, clubID primitive.ObjectID) error {
	_, err := r.collection.UpdateMany(ctx, bson.M{"clubs": clubID}, bson.M{"$pull": bson.M{"clubs": clubID}})
	return err
}

func searchFilter(term string) bson.M {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
	return bson.M{"$or": bson.A{
		bson.M{"name": pattern},
		bson.M{"email": pattern},
	}}
}

func (r *UserRepository) Search(ctx context.Context, term string, limit int64) ([]*User, error) {
	return r.find(ctx, searchFilter(term), options.Find().SetLimit(limit))
}

func (r *UserRepository) FindByRole(ctx context.Context, role string) ([]*User, error) {
	return r.find(ctx, bson.M{"role": role}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

func (r *UserRepository) List(ctx context.Context, search string, page, limit int64) ([]*User, int64, error) {
	filter := bson.M{}
	if search != "" {
		filter = searchFilter(search)
	}
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	users, err := r.find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip((page-1)*limit).
		SetLimit(limit))
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepository) FindAll(ctx context.Context) ([]*User, error) {
	return r.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

// FindRecent returns the newest non-admin users.
func (r *UserRepository) FindRecent(ctx context.Context, limit int64) ([]*User, error) {
	return r.find(ctx, bson.M{"role": bson.M{"$ne": RoleAdmin}}, options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit))
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

func (r *UserRepository) CountByRole(ctx context.Context) (map[string]int64, error) {
	cursor, err := r.collection.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$role"}, {Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}}}}},
	})
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Role  string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Role] = row.Count
	}
	return out, nil
}

func (r *UserRepository) AllEmails(ctx context.Context) ([]string, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"email": 1}))
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Email string `bson:"email"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	emails := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.Email != "" {
			emails = append(emails, row.Email)
		}
	}
	return emails, nil
}
