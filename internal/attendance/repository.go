package attendance

import (
	"context"
	"time"

	"CampusEvents/internal/auth"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AttendanceRepository owns the attendances collection and reads the
// events, clubs and users collections it joins against.
type AttendanceRepository struct {
	collection *mongo.Collection
	events     *mongo.Collection
	clubs      *mongo.Collection
	users      *mongo.Collection
}

func NewAttendanceRepository(db *mongo.Database) *AttendanceRepository {
	return &AttendanceRepository{
		collection: db.Collection("attendances"),
		events:     db.Collection("events"),
		clubs:      db.Collection("clubs"),
		users:      db.Collection("users"),
	}
}

func (r *AttendanceRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "event", Value: 1}, {Key: "student", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "student", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "event", Value: 1}, {Key: "odStatus", Value: 1}}},
	})
	return err
}

// Enroll creates the row for a registration. An existing row is left as is.
func (r *AttendanceRepository) Enroll(ctx context.Context, eventID, studentID primitive.ObjectID, odStatus string) error {
	now := time.Now()
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"event": eventID, "student": studentID},
		bson.M{"$setOnInsert": bson.M{
			"present":   false,
			"odStatus":  odStatus,
			"createdAt": now,
			"updatedAt": now,
		}},
		options.Update().SetUpsert(true),
	)
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

func (r *AttendanceRepository) Withdraw(ctx context.Context, eventID, studentID primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"event": eventID, "student": studentID})
	return err
}

func (r *AttendanceRepository) DeleteForEvent(ctx context.Context, eventID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"event": eventID})
	return err
}

// RemoveUserFromAll deletes every attendance row of userID.
func (r *AttendanceRepository) RemoveUserFromAll(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"student": userID})
	return err
}

func (r *AttendanceRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

func (r *AttendanceRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*Attendance, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *AttendanceRepository) Find(ctx context.Context, eventID, studentID primitive.ObjectID) (*Attendance, error) {
	return r.findOne(ctx, bson.M{"event": eventID, "student": studentID})
}

func (r *AttendanceRepository) findOne(ctx context.Context, filter bson.M) (*Attendance, error) {
	var a Attendance
	if err := r.collection.FindOne(ctx, filter).Decode(&a); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *AttendanceRepository) update(ctx context.Context, filter bson.M, update interface{}) (*Attendance, error) {
	var a Attendance
	err := r.collection.FindOneAndUpdate(ctx, filter, update,
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

// Toggle flips present in a single server-side update.
func (r *AttendanceRepository) Toggle(ctx context.Context, id primitive.ObjectID) (*Attendance, error) {
	return r.update(ctx, bson.M{"_id": id}, mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "present", Value: bson.D{{Key: "$not", Value: bson.A{"$present"}}}},
			{Key: "updatedAt", Value: "$$NOW"},
		}}},
	})
}

// CheckIn marks the row present. It returns nil when the row is missing or
// already present.
func (r *AttendanceRepository) CheckIn(ctx context.Context, eventID, studentID primitive.ObjectID, at time.Time) (*Attendance, error) {
	return r.update(ctx,
		bson.M{"event": eventID, "student": studentID, "present": false},
		bson.M{"$set": bson.M{"present": true, "checkedInAt": at, "updatedAt": at}},
	)
}

func (r *AttendanceRepository) DecideOD(ctx context.Context, id primitive.ObjectID, status string, by primitive.ObjectID, at time.Time) (*Attendance, error) {
	return r.update(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"odStatus": status, "odDecidedBy": by, "odDecidedAt": at, "updatedAt": at}},
	)
}

func eventLookup() []bson.D {
	return []bson.D{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "events"},
			{Key: "localField", Value: "event"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "eventRef"},
		}}},
		{{Key: "$unwind", Value: bson.D{{Key: "path", Value: "$eventRef"}, {Key: "preserveNullAndEmptyArrays", Value: true}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "clubs"},
			{Key: "localField", Value: "eventRef.club"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "clubRef"},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "eventRef.clubName", Value: bson.D{{Key: "$first", Value: "$clubRef.name"}}},
		}}},
		{{Key: "$unset", Value: bson.A{"clubRef", "eventRef.comments", "eventRef.registeredStudents", "eventRef.checkInQRCode"}}},
	}
}

func studentLookup() []bson.D {
	return []bson.D{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "users"},
			{Key: "localField", Value: "student"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "studentRef"},
		}}},
		{{Key: "$unwind", Value: bson.D{{Key: "path", Value: "$studentRef"}, {Key: "preserveNullAndEmptyArrays", Value: true}}}},
		{{Key: "$unset", Value: bson.A{"studentRef.password"}}},
	}
}

func (r *AttendanceRepository) records(ctx context.Context, match bson.M, withStudent, withEvent bool) ([]*Record, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
	}
	if withStudent {
		pipeline = append(pipeline, studentLookup()...)
	}
	if withEvent {
		pipeline = append(pipeline, eventLookup()...)
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	records := []*Record{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *AttendanceRepository) ListForEvent(ctx context.Context, eventID primitive.ObjectID) ([]*Record, error) {
	return r.records(ctx, bson.M{"event": eventID}, true, false)
}

func (r *AttendanceRepository) ForStudent(ctx context.Context, studentID primitive.ObjectID) ([]*Record, error) {
	return r.records(ctx, bson.M{"student": studentID}, false, true)
}

func (r *AttendanceRepository) PendingOD(ctx context.Context, eventIDs []primitive.ObjectID) ([]*Record, error) {
	if len(eventIDs) == 0 {
		return []*Record{}, nil
	}
	return r.records(ctx, bson.M{"event": bson.M{"$in": eventIDs}, "odStatus": ODPending}, true, true)
}

func (r *AttendanceRepository) FindEvent(ctx context.Context, filter bson.M) (*EventInfo, error) {
	var ev EventInfo
	err := r.events.FindOne(ctx, filter, options.FindOne().SetProjection(bson.M{
		"name": 1, "club": 1, "status": 1, "venue": 1, "startDateTime": 1, "endDateTime": 1, "requireODApproval": 1,
	})).Decode(&ev)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &ev, nil
}

func (r *AttendanceRepository) FindEventByCheckIn(ctx context.Context, checkInID string) (*EventInfo, error) {
	return r.FindEvent(ctx, bson.M{"checkInId": checkInID})
}

func (r *AttendanceRepository) FindEventByID(ctx context.Context, id primitive.ObjectID) (*EventInfo, error) {
	return r.FindEvent(ctx, bson.M{"_id": id})
}

// EventIDsCoordinatedBy returns the events of every club userID coordinates.
func (r *AttendanceRepository) EventIDsCoordinatedBy(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	clubIDs, err := r.distinctIDs(ctx, r.clubs, bson.M{"coordinators": userID})
	if err != nil || len(clubIDs) == 0 {
		return nil, err
	}
	return r.distinctIDs(ctx, r.events, bson.M{"club": bson.M{"$in": clubIDs}})
}

// ClubRoles reports whether userID coordinates or belongs to clubID.
func (r *AttendanceRepository) ClubRoles(ctx context.Context, clubID, userID primitive.ObjectID) (coordinator, member bool, err error) {
	var club struct {
		Coordinators []primitive.ObjectID `bson:"coordinators"`
		Members      []primitive.ObjectID `bson:"members"`
	}
	err = r.clubs.FindOne(ctx, bson.M{"_id": clubID}).Decode(&club)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return false, false, nil
		}
		return false, false, err
	}
	for _, id := range club.Coordinators {
		if id == userID {
			coordinator = true
		}
	}
	for _, id := range club.Members {
		if id == userID {
			member = true
		}
	}
	return coordinator, member, nil
}

func (r *AttendanceRepository) distinctIDs(ctx context.Context, coll *mongo.Collection, filter bson.M) ([]primitive.ObjectID, error) {
	values, err := coll.Distinct(ctx, "_id", filter)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(values))
	for _, v := range values {
		if id, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *AttendanceRepository) FindUser(ctx context.Context, id primitive.ObjectID) (*auth.UserSummary, error) {
	var u auth.UserSummary
	err := r.users.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(bson.M{"name": 1, "email": 1, "role": 1})).Decode(&u)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}
