package event

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the persistence surface of the event service.
type Store interface {
	Create(ctx context.Context, ev *Event) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Event, error)
	FindView(ctx context.Context, id primitive.ObjectID) (*View, error)
	ListViews(ctx context.Context, q Query) ([]*View, error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*Event, error)
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
	Register(ctx context.Context, id, studentID primitive.ObjectID, now time.Time) (*Event, error)
	Unregister(ctx context.Context, id, studentID primitive.ObjectID) (bool, error)
	ToggleLike(ctx context.Context, id, userID primitive.ObjectID) (bool, int64, error)
	RecordView(ctx context.Context, id, userID primitive.ObjectID) (bool, int64, error)
	HasLiked(ctx context.Context, id, userID primitive.ObjectID) (bool, error)
	AddComment(ctx context.Context, id primitive.ObjectID, comment Comment) (bool, error)
	EditComment(ctx context.Context, id, commentID primitive.ObjectID, text string, at time.Time) (bool, error)
	DeleteComment(ctx context.Context, id, commentID primitive.ObjectID) (bool, error)
	AddReply(ctx context.Context, id, commentID primitive.ObjectID, reply Reply) (bool, error)
	DeleteReply(ctx context.Context, id, commentID, replyID primitive.ObjectID) (bool, error)
}

type EventRepository struct {
	collection   *mongo.Collection
	interactions *mongo.Collection
}

func NewEventRepository(db *mongo.Database) *EventRepository {
	return &EventRepository{
		collection:   db.Collection("events"),
		interactions: db.Collection("eventinteractions"),
	}
}

func (r *EventRepository) EnsureIndexes(ctx context.Context) error {
	if _, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "checkInId", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "startDateTime", Value: -1}}},
		{Keys: bson.D{{Key: "club", Value: 1}}},
		{Keys: bson.D{{Key: "registeredStudents", Value: 1}}},
	}); err != nil {
		return err
	}
	_, err := r.interactions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "eventId", Value: 1}, {Key: "userId", Value: 1}, {Key: "type", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *EventRepository) Create(ctx context.Context, ev *Event) error {
	if ev.ID.IsZero() {
		ev.ID = primitive.NewObjectID()
	}
	if ev.RegisteredStudents == nil {
		ev.RegisteredStudents = []primitive.ObjectID{}
	}
	if ev.Comments == nil {
		ev.Comments = []Comment{}
	}
	if ev.ContactPersons == nil {
		ev.ContactPersons = []ContactPerson{}
	}
	now := time.Now()
	ev.CreatedAt, ev.UpdatedAt = now, now
	_, err := r.collection.InsertOne(ctx, ev)
	return err
}

func (r *EventRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*Event, error) {
	var ev Event
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&ev); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &ev, nil
}

func viewPipeline(match bson.M) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "startDateTime", Value: -1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "clubs"},
			{Key: "localField", Value: "club"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "clubRef"},
		}}},
		{{Key: "$unwind", Value: bson.D{{Key: "path", Value: "$clubRef"}, {Key: "preserveNullAndEmptyArrays", Value: true}}}},
	}
}

// Query selects events for list views. Zero fields do not constrain.
type Query struct {
	IDs        []primitive.ObjectID
	Status     string
	Clubs      []primitive.ObjectID
	Registered primitive.ObjectID
}

func (q Query) filter() bson.M {
	filter := bson.M{}
	if len(q.IDs) > 0 {
		filter["_id"] = bson.M{"$in": q.IDs}
	}
	if q.Status != "" {
		filter["status"] = q.Status
	}
	if len(q.Clubs) > 0 {
		filter["club"] = bson.M{"$in": q.Clubs}
	}
	if !q.Registered.IsZero() {
		filter["registeredStudents"] = q.Registered
	}
	return filter
}

func (r *EventRepository) ListViews(ctx context.Context, q Query) ([]*View, error) {
	cursor, err := r.collection.Aggregate(ctx, viewPipeline(q.filter()))
	if err != nil {
		return nil, err
	}
	views := []*View{}
	if err := cursor.All(ctx, &views); err != nil {
		return nil, err
	}
	return views, nil
}

func (r *EventRepository) FindView(ctx context.Context, id primitive.ObjectID) (*View, error) {
	views, err := r.ListViews(ctx, Query{IDs: []primitive.ObjectID{id}})
	if err != nil || len(views) == 0 {
		return nil, err
	}
	return views[0], nil
}

func (r *EventRepository) FindRecent(ctx context.Context, limit int64) ([]*Event, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit).
		SetProjection(bson.M{"comments": 0, "checkInQRCode": 0}))
	if err != nil {
		return nil, err
	}
	events := []*Event{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *EventRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

func (r *EventRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	cursor, err := r.collection.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$status"}, {Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}}}}},
	})
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

func (r *EventRepository) modify(ctx context.Context, filter bson.M, update bson.M) (*Event, error) {
	var ev Event
	err := r.collection.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&ev)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &ev, nil
}

func (r *EventRepository) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*Event, error) {
	set["updatedAt"] = time.Now()
	return r.modify(ctx, bson.M{"_id": id}, bson.M{"$set": set})
}

// Delete removes the event and its interaction rows.
func (r *EventRepository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	if _, err := r.interactions.DeleteMany(ctx, bson.M{"eventId": id}); err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// registrationOpen matches approved events whose deadline has not passed
// and which still have a free seat.
func registrationOpen(id primitive.ObjectID, now time.Time) bson.M {
	return bson.M{
		"_id":    id,
		"status": StatusApproved,
		"$and": bson.A{
			bson.M{"$or": bson.A{
				bson.M{"registrationDeadline": nil},
				bson.M{"registrationDeadline": bson.M{"$gte": now}},
			}},
			bson.M{"$or": bson.A{
				bson.M{"totalSeats": bson.M{"$exists": false}},
				bson.M{"totalSeats": bson.M{"$lte": 0}},
				bson.M{"$expr": bson.M{"$lt": bson.A{
					bson.M{"$size": bson.M{"$ifNull": bson.A{"$registeredStudents", bson.A{}}}},
					"$totalSeats",
				}}},
			}},
		},
	}
}

// Register adds studentID when registration is open. It returns nil when
// the filter did not match; callers inspect the event to learn why.
func (r *EventRepository) Register(ctx context.Context, id, studentID primitive.ObjectID, now time.Time) (*Event, error) {
	filter := registrationOpen(id, now)
	filter["registeredStudents"] = bson.M{"$ne": studentID}
	return r.modify(ctx, filter, bson.M{
		"$addToSet": bson.M{"registeredStudents": studentID},
		"$set":      bson.M{"updatedAt": now},
	})
}

func (r *EventRepository) Unregister(ctx context.Context, id, studentID primitive.ObjectID) (bool, error) {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "registeredStudents": studentID},
		bson.M{"$pull": bson.M{"registeredStudents": studentID}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// bump moves a counter by delta and returns its new value. Decrements
// never take the counter below zero.
func (r *EventRepository) bump(ctx context.Context, id primitive.ObjectID, field string, delta int64) (int64, error) {
	filter := bson.M{"_id": id}
	if delta < 0 {
		filter[field] = bson.M{"$gt": 0}
	}
	var doc bson.M
	err := r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$inc": bson.M{field: delta}},
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(bson.M{field: 1}),
	).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return r.counter(ctx, id, field)
	}
	if err != nil {
		return 0, err
	}
	return toInt64(doc[field]), nil
}

func (r *EventRepository) counter(ctx context.Context, id primitive.ObjectID, field string) (int64, error) {
	var doc bson.M
	err := r.collection.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(bson.M{field: 1})).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return toInt64(doc[field]), nil
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int32:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}

func (r *EventRepository) interaction(id, userID primitive.ObjectID, kind string) bson.M {
	return bson.M{"eventId": id, "userId": userID, "type": kind}
}

// ToggleLike inserts a like row or, when one exists, deletes it. The
// counter moves only when this call changed the row set.
func (r *EventRepository) ToggleLike(ctx context.Context, id, userID primitive.ObjectID) (bool, int64, error) {
	_, err := r.interactions.InsertOne(ctx, Interaction{
		EventID: id, UserID: userID, Type: InteractionLike, CreatedAt: time.Now(),
	})
	if err == nil {
		n, err := r.bump(ctx, id, "likesCount", 1)
		return true, n, err
	}
	if !mongo.IsDuplicateKeyError(err) {
		return false, 0, err
	}

	res, err := r.interactions.DeleteOne(ctx, r.interaction(id, userID, InteractionLike))
	if err != nil {
		return false, 0, err
	}
	if res.DeletedCount == 0 {
		n, err := r.counter(ctx, id, "likesCount")
		return false, n, err
	}
	n, err := r.bump(ctx, id, "likesCount", -1)
	return false, n, err
}

// RecordView counts the first view of each user only.
func (r *EventRepository) RecordView(ctx context.Context, id, userID primitive.ObjectID) (bool, int64, error) {
	_, err := r.interactions.InsertOne(ctx, Interaction{
		EventID: id, UserID: userID, Type: InteractionView, CreatedAt: time.Now(),
	})
	if err == nil {
		n, err := r.bump(ctx, id, "viewsCount", 1)
		return true, n, err
	}
	if !mongo.IsDuplicateKeyError(err) {
		return false, 0, err
	}
	n, err := r.counter(ctx, id, "viewsCount")
	return false, n, err
}

func (r *EventRepository) HasLiked(ctx context.Context, id, userID primitive.ObjectID) (bool, error) {
	n, err := r.interactions.CountDocuments(ctx, r.interaction(id, userID, InteractionLike), options.Count().SetLimit(1))
	return n > 0, err
}

func (r *EventRepository) matched(ctx context.Context, filter, update bson.M) (bool, error) {
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (r *EventRepository) AddComment(ctx context.Context, id primitive.ObjectID, comment Comment) (bool, error) {
	return r.matched(ctx, bson.M{"_id": id}, bson.M{"$push": bson.M{"comments": comment}})
}

func (r *EventRepository) EditComment(ctx context.Context, id, commentID primitive.ObjectID, text string, at time.Time) (bool, error) {
	return r.matched(ctx,
		bson.M{"_id": id, "comments._id": commentID},
		bson.M{"$set": bson.M{"comments.$.text": text, "comments.$.updatedAt": at}},
	)
}

func (r *EventRepository) DeleteComment(ctx context.Context, id, commentID primitive.ObjectID) (bool, error) {
	return r.matched(ctx,
		bson.M{"_id": id, "comments._id": commentID},
		bson.M{"$pull": bson.M{"comments": bson.M{"_id": commentID}}},
	)
}

func (r *EventRepository) AddReply(ctx context.Context, id, commentID primitive.ObjectID, reply Reply) (bool, error) {
	return r.matched(ctx,
		bson.M{"_id": id, "comments._id": commentID},
		bson.M{"$push": bson.M{"comments.$.replies": reply}},
	)
}

func (r *EventRepository) DeleteReply(ctx context.Context, id, commentID, replyID primitive.ObjectID) (bool, error) {
	return r.matched(ctx,
		bson.M{"_id": id, "comments._id": commentID},
		bson.M{"$pull": bson.M{"comments.$.replies": bson.M{"_id": replyID}}},
	)
}

// RemoveUserFromAll drops userID from registrations and deletes their
// likes and views. Counters are decremented per removed like or view.
func (r *EventRepository) RemoveUserFromAll(ctx context.Context, userID primitive.ObjectID) error {
	if _, err := r.collection.UpdateMany(ctx,
		bson.M{"registeredStudents": userID},
		bson.M{"$pull": bson.M{"registeredStudents": userID}},
	); err != nil {
		return err
	}

	cursor, err := r.interactions.Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return err
	}
	var rows []Interaction
	if err := cursor.All(ctx, &rows); err != nil {
		return err
	}
	for _, row := range rows {
		res, err := r.interactions.DeleteOne(ctx, bson.M{"_id": row.ID})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			continue
		}
		field := "viewsCount"
		if row.Type == InteractionLike {
			field = "likesCount"
		}
		if _, err := r.bump(ctx, row.EventID, field, -1); err != nil {
			return err
		}
	}
	return nil
}
