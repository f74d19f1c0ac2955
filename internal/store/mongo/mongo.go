// Package mongo implements the document storage backend. Ids are native
// ObjectIDs, hex-stringified at the contract boundary.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/erizov/notevault/internal/note"
)

// Store maps notes onto documents in one collection. The driver's client
// manages its own connection pool, so a single Store is safe for
// concurrent callers.
type Store struct {
	client *mongodrv.Client
	notes  *mongodrv.Collection
}

// document is the persisted shape. A nil due_at is stored as a literal
// null, which the stats filters rely on.
type document struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Title     string             `bson:"title"`
	Content   string             `bson:"content"`
	DueAt     *time.Time         `bson:"due_at"`
	CreatedAt time.Time          `bson:"created_at"`
}

var _ note.Store = (*Store)(nil)

// Open connects to the server, verifies the connection, and ensures the
// compound index backing search and ordering.
func Open(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongodrv.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", note.ErrUnavailable, err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%w: ping: %v", note.ErrUnavailable, err)
	}

	coll := client.Database(dbName).Collection("notes")
	_, err = coll.Indexes().CreateOne(ctx, mongodrv.IndexModel{
		Keys: bson.D{
			{Key: "title", Value: 1},
			{Key: "content", Value: 1},
			{Key: "due_at", Value: 1},
			{Key: "created_at", Value: -1},
		},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%w: ensure index: %v", note.ErrUnavailable, err)
	}

	return &Store{client: client, notes: coll}, nil
}

// Name identifies the backend.
func (s *Store) Name() string { return "mongo" }

// Add inserts a document and returns its ObjectID as hex.
func (s *Store) Add(ctx context.Context, title, content string, dueAt *time.Time) (string, error) {
	if err := note.ValidateNew(title, content); err != nil {
		return "", err
	}

	doc := document{
		Title:     title,
		Content:   content,
		DueAt:     dueAt,
		CreatedAt: time.Now().UTC(),
	}
	res, err := s.notes.InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("%w: insert note: %v", note.ErrQueryFailed, err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("%w: unexpected inserted id type %T", note.ErrQueryFailed, res.InsertedID)
	}
	return oid.Hex(), nil
}

// Get returns the note with the given id, or nil if it does not exist.
func (s *Store) Get(ctx context.Context, id string) (*note.Note, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var doc document
	err = s.notes.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongodrv.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get note: %v", note.ErrQueryFailed, err)
	}
	n := toNote(doc)
	return &n, nil
}

// Update applies the supplied fields with a $set document.
func (s *Store) Update(ctx context.Context, id string, fields note.Update) (bool, error) {
	if fields.Empty() {
		return false, nil
	}
	oid, err := parseID(id)
	if err != nil {
		return false, err
	}

	set := bson.M{}
	if fields.Title != nil {
		set["title"] = *fields.Title
	}
	if fields.Content != nil {
		set["content"] = *fields.Content
	}
	if fields.DueAt != nil {
		set["due_at"] = *fields.DueAt
	}

	res, err := s.notes.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("%w: update note: %v", note.ErrQueryFailed, err)
	}
	return res.MatchedCount > 0, nil
}

// Delete removes the document, reporting whether one existed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	oid, err := parseID(id)
	if err != nil {
		return false, err
	}

	res, err := s.notes.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, fmt.Errorf("%w: delete note: %v", note.ErrQueryFailed, err)
	}
	return res.DeletedCount > 0, nil
}

// Search runs a case-insensitive regex over both fields, sorted and
// limited server-side.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]note.Note, error) {
	// The server treats limit 0 as unbounded; every other backend caps
	if limit <= 0 {
		return []note.Note{}, nil
	}

	pattern := regexp.QuoteMeta(query)
	filter := bson.M{"$or": bson.A{
		bson.M{"title": bson.M{"$regex": pattern, "$options": "i"}},
		bson.M{"content": bson.M{"$regex": pattern, "$options": "i"}},
	}}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.notes.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: search notes: %v", note.ErrQueryFailed, err)
	}
	return collect(ctx, cursor)
}

// Recent returns the limit most recently created notes.
func (s *Store) Recent(ctx context.Context, limit int) ([]note.Note, error) {
	if limit <= 0 {
		return []note.Note{}, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.notes.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: recent notes: %v", note.ErrQueryFailed, err)
	}
	return collect(ctx, cursor)
}

// UpcomingReminders returns notes due within [now, now+hours], soonest
// first.
func (s *Store) UpcomingReminders(ctx context.Context, hours int) ([]note.Note, error) {
	now := time.Now().UTC()
	until := now.Add(time.Duration(hours) * time.Hour)

	filter := bson.M{"due_at": bson.M{"$gte": now, "$lte": until}}
	opts := options.Find().SetSort(bson.D{{Key: "due_at", Value: 1}})

	cursor, err := s.notes.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: upcoming reminders: %v", note.ErrQueryFailed, err)
	}
	return collect(ctx, cursor)
}

// Stats issues count-with-filter queries; null due_at marks absence.
func (s *Store) Stats(ctx context.Context) (note.Stats, error) {
	weekAgo := time.Now().UTC().Add(-note.RecentWindow)

	counts := []struct {
		dst    *int
		filter bson.M
	}{
		{filter: bson.M{}},
		{filter: bson.M{"due_at": bson.M{"$ne": nil}}},
		{filter: bson.M{"due_at": nil}},
		{filter: bson.M{"created_at": bson.M{"$gte": weekAgo}}},
	}

	var st note.Stats
	counts[0].dst = &st.Total
	counts[1].dst = &st.WithReminder
	counts[2].dst = &st.WithoutReminder
	counts[3].dst = &st.RecentCount

	for _, c := range counts {
		n, err := s.notes.CountDocuments(ctx, c.filter)
		if err != nil {
			return note.Stats{}, fmt.Errorf("%w: stats: %v", note.ErrQueryFailed, err)
		}
		*c.dst = int(n)
	}
	return st, nil
}

// Truncate removes every document in the collection.
func (s *Store) Truncate(ctx context.Context) error {
	if _, err := s.notes.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("%w: truncate notes: %v", note.ErrQueryFailed, err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q is not an ObjectID", note.ErrInvalidID, id)
	}
	return oid, nil
}

func toNote(doc document) note.Note {
	return note.Note{
		ID:        doc.ID.Hex(),
		Title:     doc.Title,
		Content:   doc.Content,
		DueAt:     doc.DueAt,
		CreatedAt: doc.CreatedAt,
	}
}

func collect(ctx context.Context, cursor *mongodrv.Cursor) ([]note.Note, error) {
	defer func() { _ = cursor.Close(ctx) }()

	notes := make([]note.Note, 0)
	for cursor.Next(ctx) {
		var doc document
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: decode note: %v", note.ErrQueryFailed, err)
		}
		notes = append(notes, toNote(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("%w: read cursor: %v", note.ErrQueryFailed, err)
	}
	return notes, nil
}
