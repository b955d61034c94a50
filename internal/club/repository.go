package club

import (
	"context"
	"errors"
	"time"

	"CampusEvents/internal/auth"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrClubNameTaken = errors.New("A club with this name already exists")

// Store is the persistence surface the club service needs.
type Store interface {
	Create(ctx context.Context, club *Club) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Club, error)
	FindDetail(ctx context.Context, id primitive.ObjectID) (*ClubDetail, error)
	List(ctx context.Context) ([]*ClubDetail, error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*Club, error)
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
	AddCoordinator(ctx context.Context, clubID, userID primitive.ObjectID) (*Club, error)
	RemoveCoordinator(ctx context.Context, clubID, userID primitive.ObjectID) (*Club, error)
	AddMember(ctx context.Context, clubID, userID primitive.ObjectID) (*Club, error)
	RemoveMember(ctx context.Context, clubID, userID primitive.ObjectID) (*Club, error)
}

type ClubRepository struct {
	collection *mongo.Collection
}

func NewClubRepository(db *mongo.Database) *ClubRepository {
	return &ClubRepository{collection: db.Collection("clubs")}
}

func (r *ClubRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "coordinators", Value: 1}}},
		{Keys: bson.D{{Key: "members", Value: 1}}},
	})
	return err
}

func (r *ClubRepository) Create(ctx context.Context, club *Club) error {
	if club.ID.IsZero() {
		club.ID = primitive.NewObjectID()
	}
	if club.Coordinators == nil {
		club.Coordinators = []primitive.ObjectID{}
	}
	if club.Members == nil {
		club.Members = []primitive.ObjectID{}
	}
	now := time.Now()
	club.CreatedAt, club.UpdatedAt = now, now

	if _, err := r.collection.InsertOne(ctx, club); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrClubNameTaken
		}
		return err
	}
	return nil
}

func (r *ClubRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*Club, error) {
	var club Club
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&club)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &club, nil
}

func (r *ClubRepository) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]*Club, error) {
	cursor, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	clubs := []*Club{}
	if err := cursor.All(ctx, &clubs); err != nil {
		return nil, err
	}
	return clubs, nil
}

// FindByCoordinator returns the clubs userID coordinates.
func (r *ClubRepository) FindByCoordinator(ctx context.Context, userID primitive.ObjectID) ([]*Club, error) {
	return r.find(ctx, bson.M{"coordinators": userID})
}

func (r *ClubRepository) FindRecent(ctx context.Context, limit int64) ([]*Club, error) {
	return r.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit))
}

func (r *ClubRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

func populate(match bson.M) mongo.Pipeline {
	userLookup := func(field string) bson.D {
		return bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "users"},
			{Key: "localField", Value: field},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: field},
		}}}
	}
	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		userLookup("coordinators"),
		userLookup("members"),
	}
}

func (r *ClubRepository) aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]*ClubDetail, error) {
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	clubs := []*ClubDetail{}
	if err := cursor.All(ctx, &clubs); err != nil {
		return nil, err
	}
	return clubs, nil
}

func (r *ClubRepository) FindDetail(ctx context.Context, id primitive.ObjectID) (*ClubDetail, error) {
	clubs, err := r.aggregate(ctx, populate(bson.M{"_id": id}))
	if err != nil || len(clubs) == 0 {
		return nil, err
	}
	return clubs[0], nil
}

func (r *ClubRepository) List(ctx context.Context) ([]*ClubDetail, error) {
	return r.aggregate(ctx, populate(bson.M{}))
}

func (r *ClubRepository) modify(ctx context.Context, id primitive.ObjectID, update bson.M) (*Club, error) {
	if _, ok := update["$set"]; !ok {
		update["$set"] = bson.M{}
	}
	update["$set"].(bson.M)["updatedAt"] = time.Now()

	var club Club
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&club)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrClubNameTaken
		}
		return nil, err
	}
	return &club, nil
}

func (r *ClubRepository) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*Club, error) {
	return r.modify(ctx, id, bson.M{"$set": set})
}

func (r *ClubRepository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// AddCoordinator makes userID a coordinator and a member of the club.
func (r *ClubRepository) AddCoordinator(ctx context.Context, clubID, userID primitive.ObjectID) (*Club, error) {
	return r.modify(ctx, clubID, bson.M{"$addToSet": bson.M{"coordinators": userID, "members": userID}})
}

func (r *ClubRepository) RemoveCoordinator(ctx context.Context, clubID, userID primitive.ObjectID) (*Club, error) {
	return r.modify(ctx, clubID, bson.M{"$pull": bson.M{"coordinators": userID, "members": userID}})
}

func (r *ClubRepository) AddMember(ctx context.Context, clubID, userID primitive.ObjectID) (*Club, error) {
	return r.modify(ctx, clubID, bson.M{"$addToSet": bson.M{"members": userID}})
}

func (r *ClubRepository) RemoveMember(ctx context.Context, clubID, userID primitive.ObjectID) (*Club, error) {
	return r.modify(ctx, clubID, bson.M{"$pull": bson.M{"members": userID}})
}

// Summaries resolves club ids for login and profile responses.
func (r *ClubRepository) Summaries(ctx context.Context, ids []primitive.ObjectID) ([]auth.ClubSummary, error) {
	out := []auth.ClubSummary{}
	if len(ids) == 0 {
		return out, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"name": 1, "description": 1, "imageUrl": 1}))
	if err != nil {
		return nil, err
	}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RemoveUserFromAll drops userID from every club's coordinators and members.
func (r *ClubRepository) RemoveUserFromAll(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"$or": bson.A{bson.M{"coordinators": userID}, bson.M{"members": userID}}},
		bson.M{"$pull": bson.M{"coordinators": userID, "members": userID}},
	)
	return err
}
