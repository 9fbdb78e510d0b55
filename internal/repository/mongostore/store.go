// Package mongostore implements the repository interfaces on MongoDB.
// Documents use string ids (UUIDs) so identifiers look the same as in the SQL backends.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"blog_api/internal/models"
	"blog_api/internal/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection  = "users"
	postsCollection  = "posts"
	eventsCollection = "post_events"

	connectTimeout = 10 * time.Second
)

type userDoc struct {
	ID           string    `bson:"_id"`
	Username     string    `bson:"username"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
}

type postDoc struct {
	ID        string    `bson:"_id"`
	Title     string    `bson:"title"`
	Content   string    `bson:"content"`
	Category  string    `bson:"category"`
	AuthorID  string    `bson:"author"`
	Slug      string    `bson:"slug"`
	Version   int       `bson:"version"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type eventDoc struct {
	ID          string    `bson:"_id"`
	OccurredAt  time.Time `bson:"occurred_at"`
	Type        string    `bson:"type"`
	PostID      string    `bson:"post_id"`
	ActorID     string    `bson:"actor_id"`
	Description string    `bson:"message"`
	Metadata    bson.M    `bson:"meta,omitempty"`
}

// Connect dials uri and returns the client with a handle to database.
func Connect(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, client.Database(database), nil
}

// EnsureIndexes creates the unique and lookup indexes the stores rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)
	specs := []struct {
		coll  string
		model mongo.IndexModel
	}{
		{usersCollection, mongo.IndexModel{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique}},
		{usersCollection, mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique}},
		{postsCollection, mongo.IndexModel{Keys: bson.D{{Key: "slug", Value: 1}}, Options: unique}},
		{postsCollection, mongo.IndexModel{Keys: bson.D{{Key: "category", Value: 1}, {Key: "created_at", Value: 1}}}},
		{eventsCollection, mongo.IndexModel{Keys: bson.D{{Key: "occurred_at", Value: 1}}}},
	}
	for _, s := range specs {
		if _, err := db.Collection(s.coll).Indexes().CreateOne(ctx, s.model); err != nil {
			return fmt.Errorf("create index on %s: %w", s.coll, err)
		}
	}
	return nil
}

// NewRepository builds Mongo-backed repositories on db.
func NewRepository(db *mongo.Database) *repository.Repository {
	return &repository.Repository{
		Users:     NewUserStore(db),
		Posts:     NewPostStore(db),
		EventRepo: NewEventStore(db),
	}
}

// ---- users ----

type UserStore struct {
	coll *mongo.Collection
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{coll: db.Collection(usersCollection)}
}

var _ repository.Users = (*UserStore)(nil)

func (s *UserStore) Create(ctx context.Context, u models.User) error {
	_, err := s.coll.InsertOne(ctx, userDoc{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt.UTC(),
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			err = errors.Join(repository.ErrDuplicate, err)
		}
		return fmt.Errorf("insert user %q: %w", u.Username, err)
	}
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findOne(ctx, bson.D{{Key: "username", Value: username}})
}

func (s *UserStore) findOne(ctx context.Context, filter bson.D) (*models.User, error) {
	var d userDoc
	if err := s.coll.FindOne(ctx, filter).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &models.User{
		ID:           d.ID,
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt.UTC(),
	}, nil
}

// ---- posts ----

type PostStore struct {
	posts *mongo.Collection
	users *mongo.Collection
}

func NewPostStore(db *mongo.Database) *PostStore {
	return &PostStore{
		posts: db.Collection(postsCollection),
		users: db.Collection(usersCollection),
	}
}

var _ repository.Posts = (*PostStore)(nil)

func (s *PostStore) Create(ctx context.Context, p models.Post) error {
	_, err := s.posts.InsertOne(ctx, postDoc{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		Category:  p.Category,
		AuthorID:  p.Author.ID,
		Slug:      p.Slug,
		Version:   p.Version,
		CreatedAt: p.CreatedAt.UTC(),
		UpdatedAt: p.UpdatedAt.UTC(),
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			err = errors.Join(repository.ErrDuplicate, err)
		}
		return fmt.Errorf("insert post %q: %w", p.ID, err)
	}
	return nil
}

func (s *PostStore) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var d postDoc
	if err := s.posts.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find post %q: %w", id, err)
	}
	posts, err := s.populate(ctx, []postDoc{d})
	if err != nil {
		return nil, err
	}
	return &posts[0], nil
}

func (s *PostStore) List(ctx context.Context, f repository.PostFilter) ([]models.Post, error) {
	filter := bson.D{}
	if f.Category != "" {
		filter = append(filter, bson.E{Key: "category", Value: f.Category})
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit)).SetSkip(int64(max(f.Offset, 0)))
	}

	cur, err := s.posts.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	var docs []postDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	return s.populate(ctx, docs)
}

// populate joins author username/email onto docs with a single $in lookup.
func (s *PostStore) populate(ctx context.Context, docs []postDoc) ([]models.Post, error) {
	out := make([]models.Post, 0, len(docs))
	if len(docs) == 0 {
		return out, nil
	}

	seen := make(map[string]struct{}, len(docs))
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		if _, ok := seen[d.AuthorID]; !ok {
			seen[d.AuthorID] = struct{}{}
			ids = append(ids, d.AuthorID)
		}
	}

	cur, err := s.users.Find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}},
		options.Find().SetProjection(bson.D{{Key: "username", Value: 1}, {Key: "email", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("populate authors: %w", err)
	}
	var users []userDoc
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode authors: %w", err)
	}
	byID := make(map[string]userDoc, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	for _, d := range docs {
		u := byID[d.AuthorID]
		out = append(out, models.Post{
			ID:        d.ID,
			Title:     d.Title,
			Content:   d.Content,
			Category:  d.Category,
			Author:    models.Author{ID: d.AuthorID, Username: u.Username, Email: u.Email},
			Slug:      d.Slug,
			Version:   d.Version,
			CreatedAt: d.CreatedAt.UTC(),
			UpdatedAt: d.UpdatedAt.UTC(),
		})
	}
	return out, nil
}

func (s *PostStore) Update(ctx context.Context, p models.Post) error {
	updatedAt := p.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	res, err := s.posts.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: p.ID}, {Key: "version", Value: p.Version}},
		bson.D{
			{Key: "$set", Value: bson.D{
				{Key: "title", Value: p.Title},
				{Key: "content", Value: p.Content},
				{Key: "category", Value: p.Category},
				{Key: "slug", Value: p.Slug},
				{Key: "updated_at", Value: updatedAt.UTC()},
			}},
			{Key: "$inc", Value: bson.D{{Key: "version", Value: 1}}},
		},
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			err = errors.Join(repository.ErrDuplicate, err)
		}
		return fmt.Errorf("update post %q: %w", p.ID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update post %q at version %d: %w", p.ID, p.Version, repository.ErrStaleVersion)
	}
	return nil
}

func (s *PostStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.posts.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return false, fmt.Errorf("delete post %q: %w", id, err)
	}
	return res.DeletedCount > 0, nil
}

func (s *PostStore) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	n, err := s.posts.CountDocuments(ctx, bson.D{
		{Key: "slug", Value: slug},
		{Key: "_id", Value: bson.D{{Key: "$ne", Value: excludeID}}},
	})
	if err != nil {
		return false, fmt.Errorf("count slug %q: %w", slug, err)
	}
	return n > 0, nil
}

// ---- activity ----

type EventStore struct {
	coll *mongo.Collection
}

func NewEventStore(db *mongo.Database) *EventStore {
	return &EventStore{coll: db.Collection(eventsCollection)}
}

var _ repository.EventRepo = (*EventStore)(nil)

func (s *EventStore) Append(ctx context.Context, e models.PostEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}
	_, err := s.coll.InsertOne(ctx, eventDoc{
		ID:          e.EventID,
		OccurredAt:  e.OccurredAt.UTC(),
		Type:        strings.ToUpper(strings.TrimSpace(e.Type)),
		PostID:      e.PostID,
		ActorID:     e.ActorID,
		Description: e.Description,
		Metadata:    toBSONMap(e.Metadata),
	})
	if err != nil {
		return fmt.Errorf("insert event %s for post %q: %w", e.Type, e.PostID, err)
	}
	return nil
}

func (s *EventStore) List(ctx context.Context, f repository.EventFilter) ([]models.PostEvent, error) {
	filter := bson.D{}
	timeRange := bson.D{}
	if !f.From.IsZero() {
		timeRange = append(timeRange, bson.E{Key: "$gte", Value: f.From.UTC()})
	}
	if !f.To.IsZero() {
		timeRange = append(timeRange, bson.E{Key: "$lte", Value: f.To.UTC()})
	}
	if !f.After.IsZero() {
		timeRange = append(timeRange, bson.E{Key: "$gt", Value: f.After.UTC()})
	}
	if len(timeRange) > 0 {
		filter = append(filter, bson.E{Key: "occurred_at", Value: timeRange})
	}
	if typ := strings.ToUpper(strings.TrimSpace(f.Type)); typ != "" {
		filter = append(filter, bson.E{Key: "type", Value: typ})
	}
	if f.PostID != "" {
		filter = append(filter, bson.E{Key: "post_id", Value: f.PostID})
	}

	opts := options.Find().SetSort(bson.D{{Key: "occurred_at", Value: 1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	var docs []eventDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}

	out := make([]models.PostEvent, 0, len(docs))
	for _, d := range docs {
		var meta any
		if len(d.Metadata) > 0 {
			meta = map[string]any(d.Metadata)
		}
		out = append(out, models.PostEvent{
			EventID:     d.ID,
			OccurredAt:  d.OccurredAt.UTC(),
			Type:        d.Type,
			PostID:      d.PostID,
			ActorID:     d.ActorID,
			Description: d.Description,
			Metadata:    meta,
		})
	}
	return out, nil
}

// toBSONMap keeps object-shaped metadata; anything else is stored under "value".
func toBSONMap(v any) bson.M {
	switch m := v.(type) {
	case nil:
		return nil
	case map[string]any:
		return bson.M(m)
	case bson.M:
		return m
	default:
		return bson.M{"value": m}
	}
}
