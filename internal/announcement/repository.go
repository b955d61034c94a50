package announcement

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the persistence surface of the announcement service.
type Store interface {
	Create(ctx context.Context, a *Announcement) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Announcement, error)
	Update(ctx context.Context, id primitive.ObjectID, set, unset bson.M) (*Announcement, error)
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
	Active(ctx context.Context, now time.Time) (*Announcement, error)
	List(ctx context.Context, publishedBy *time.Time) ([]*View, error)
	DueForNotify(ctx context.Context, now time.Time) ([]*Announcement, error)
	ClaimNotify(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error)
}

type AnnouncementRepository struct {
	collection *mongo.Collection
}

func NewAnnouncementRepository(db *mongo.Database) *AnnouncementRepository {
	return &AnnouncementRepository{collection: db.Collection("announcements")}
}

func (r *AnnouncementRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "expiryDate", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		{Keys: bson.D{{Key: "rank", Value: -1}, {Key: "publishDate", Value: -1}}},
		{Keys: bson.D{{Key: "notify", Value: 1}, {Key: "notifiedAt", Value: 1}}},
	})
	return err
}

func (r *AnnouncementRepository) Create(ctx context.Context, a *Announcement) error {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	now := time.Now()
	a.CreatedAt, a.UpdatedAt = now, now
	_, err := r.collection.InsertOne(ctx, a)
	return err
}

func (r *AnnouncementRepository) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*Announcement, error) {
	var a Announcement
	if err := r.collection.FindOne(ctx, filter, opts...).Decode(&a); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *AnnouncementRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*Announcement, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *AnnouncementRepository) Update(ctx context.Context, id primitive.ObjectID, set, unset bson.M) (*Announcement, error) {
	set["updatedAt"] = time.Now()
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	var a Announcement
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&a)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *AnnouncementRepository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func activeFilter(now time.Time) bson.M {
	return bson.M{
		"publishDate": bson.M{"$lte": now},
		"$or": bson.A{
			bson.M{"expiryDate": nil},
			bson.M{"expiryDate": bson.M{"$gt": now}},
		},
	}
}

// Active returns the highest-priority, most recently published
// announcement that is live at now, or nil.
func (r *AnnouncementRepository) Active(ctx context.Context, now time.Time) (*Announcement, error) {
	return r.findOne(ctx, activeFilter(now), options.FindOne().
		SetSort(bson.D{{Key: "rank", Value: -1}, {Key: "publishDate", Value: -1}}))
}

// List returns announcements newest first with their authors. A non-nil
// publishedBy hides those scheduled after it.
func (r *AnnouncementRepository) List(ctx context.Context, publishedBy *time.Time) ([]*View, error) {
	match := bson.M{}
	if publishedBy != nil {
		match["publishDate"] = bson.M{"$lte": *publishedBy}
	}
	cursor, err := r.collection.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "users"},
			{Key: "localField", Value: "createdBy"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "author"},
		}}},
		{{Key: "$unwind", Value: bson.D{{Key: "path", Value: "$author"}, {Key: "preserveNullAndEmptyArrays", Value: true}}}},
	})
	if err != nil {
		return nil, err
	}
	views := []*View{}
	if err := cursor.All(ctx, &views); err != nil {
		return nil, err
	}
	return views, nil
}

// DueForNotify returns live announcements flagged for email that have not
// been sent yet.
func (r *AnnouncementRepository) DueForNotify(ctx context.Context, now time.Time) ([]*Announcement, error) {
	filter := activeFilter(now)
	filter["notify"] = true
	filter["notifiedAt"] = bson.M{"$exists": false}
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "publishDate", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var out []*Announcement
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ClaimNotify stamps notifiedAt unless another instance already did. Only
// the caller that gets true sends the email.
func (r *AnnouncementRepository) ClaimNotify(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error) {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "notifiedAt": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"notifiedAt": at}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}
