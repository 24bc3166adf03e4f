package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DefaultCollection holds inbox notifications in MongoStorage.
const DefaultCollection = "notifications"

// MongoStorage is a Storage backed by a MongoDB collection. Expired
// notifications are hidden from List and CountUnread and removed by a TTL
// index on expires_at.
type MongoStorage struct {
	coll *mongo.Collection
	now  func() time.Time
}

type MongoStorageOption func(*mongoStorageConfig)

type mongoStorageConfig struct {
	collection string
	now        func() time.Time
}

// WithCollection overrides DefaultCollection.
func WithCollection(name string) MongoStorageOption {
	return func(c *mongoStorageConfig) {
		if name != "" {
			c.collection = name
		}
	}
}

// WithMongoClock overrides the time source used for expiry and read marks.
func WithMongoClock(now func() time.Time) MongoStorageOption {
	return func(c *mongoStorageConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// NewMongoStorage creates the storage and ensures its indexes.
func NewMongoStorage(ctx context.Context, db *mongo.Database, opts ...MongoStorageOption) (*MongoStorage, error) {
	cfg := mongoStorageConfig{collection: DefaultCollection, now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}

	coll := db.Collection(cfg.collection)
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "read", Value: 1}}},
		{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
	})
	if err != nil {
		return nil, fmt.Errorf("create notification indexes: %w", err)
	}
	return &MongoStorage{coll: coll, now: cfg.now}, nil
}

// mongoNotification is the stored document shape.
type mongoNotification struct {
	ID        string         `bson:"_id"`
	WebsiteID string         `bson:"website_id"`
	UserID    string         `bson:"user_id"`
	EventKey  string         `bson:"event_key"`
	Type      Type           `bson:"type"`
	Title     string         `bson:"title"`
	Message   string         `bson:"message"`
	Link      string         `bson:"link,omitempty"`
	Data      map[string]any `bson:"data,omitempty"`
	Read      bool           `bson:"read"`
	ReadAt    *time.Time     `bson:"read_at,omitempty"`
	CreatedAt time.Time      `bson:"created_at"`
	ExpiresAt *time.Time     `bson:"expires_at,omitempty"`
}

func toDocument(n Notification) mongoNotification {
	return mongoNotification{
		ID:        n.ID,
		WebsiteID: n.WebsiteID,
		UserID:    n.UserID,
		EventKey:  n.EventKey,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Link:      n.Link,
		Data:      n.Data,
		Read:      n.Read,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
		ExpiresAt: n.ExpiresAt,
	}
}

func (d mongoNotification) notification() Notification {
	return Notification{
		ID:        d.ID,
		WebsiteID: d.WebsiteID,
		UserID:    d.UserID,
		EventKey:  d.EventKey,
		Type:      d.Type,
		Title:     d.Title,
		Message:   d.Message,
		Link:      d.Link,
		Data:      d.Data,
		Read:      d.Read,
		ReadAt:    d.ReadAt,
		CreatedAt: d.CreatedAt,
		ExpiresAt: d.ExpiresAt,
	}
}

func (s *MongoStorage) Create(ctx context.Context, notif Notification) error {
	if notif.ID == "" {
		return ErrIDRequired
	}
	if notif.UserID == "" {
		return ErrUserIDRequired
	}
	if notif.CreatedAt.IsZero() {
		notif.CreatedAt = s.now()
	}

	if _, err := s.coll.InsertOne(ctx, toDocument(notif)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.Join(ErrNotificationExists, err)
		}
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *MongoStorage) Get(ctx context.Context, userID, notifID string) (*Notification, error) {
	var doc mongoNotification
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: notifID}, {Key: "user_id", Value: userID}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}
	n := doc.notification()
	return &n, nil
}

func (s *MongoStorage) List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error) {
	filter := s.liveFilter(userID)
	if opts.OnlyUnread {
		filter = append(filter, bson.E{Key: "read", Value: false})
	}
	if opts.WebsiteID != "" {
		filter = append(filter, bson.E{Key: "website_id", Value: opts.WebsiteID})
	}
	if len(opts.EventKeys) > 0 {
		filter = append(filter, bson.E{Key: "event_key", Value: bson.D{{Key: "$in", Value: opts.EventKeys}}})
	}
	if opts.Since != nil {
		filter = append(filter, bson.E{Key: "created_at", Value: bson.D{{Key: "$gte", Value: *opts.Since}}})
	}

	find := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	if opts.Offset > 0 {
		find.SetSkip(int64(opts.Offset))
	}
	if opts.Limit > 0 {
		find.SetLimit(int64(opts.Limit))
	}

	cur, err := s.coll.Find(ctx, filter, find)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	var docs []mongoNotification
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}

	out := make([]Notification, len(docs))
	for i, d := range docs {
		out[i] = d.notification()
	}
	return out, nil
}

func (s *MongoStorage) MarkRead(ctx context.Context, userID string, notifIDs ...string) error {
	if len(notifIDs) == 0 {
		return nil
	}
	_, err := s.coll.UpdateMany(ctx,
		bson.D{
			{Key: "user_id", Value: userID},
			{Key: "_id", Value: bson.D{{Key: "$in", Value: notifIDs}}},
			{Key: "read", Value: false},
		},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "read", Value: true},
			{Key: "read_at", Value: s.now()},
		}}},
	)
	if err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}
	return nil
}

func (s *MongoStorage) Delete(ctx context.Context, userID string, notifIDs ...string) error {
	if len(notifIDs) == 0 {
		return nil
	}
	_, err := s.coll.DeleteMany(ctx, bson.D{
		{Key: "user_id", Value: userID},
		{Key: "_id", Value: bson.D{{Key: "$in", Value: notifIDs}}},
	})
	if err != nil {
		return fmt.Errorf("delete notifications: %w", err)
	}
	return nil
}

func (s *MongoStorage) CountUnread(ctx context.Context, userID string) (int, error) {
	filter := append(s.liveFilter(userID), bson.E{Key: "read", Value: false})
	n, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return int(n), nil
}

// liveFilter matches the user's notifications that have not expired. The TTL
// monitor runs about once a minute, so expiry is also checked on read.
func (s *MongoStorage) liveFilter(userID string) bson.D {
	return bson.D{
		{Key: "user_id", Value: userID},
		{Key: "$or", Value: bson.A{
			bson.D{{Key: "expires_at", Value: nil}},
			bson.D{{Key: "expires_at", Value: bson.D{{Key: "$gt", Value: s.now()}}}},
		}},
	}
}
