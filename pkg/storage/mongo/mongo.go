package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"blog/pkg/models"
	"blog/pkg/storage"
)

type Storage struct {
	client   *mongo.Client
	dbName   string
	collName string
}

func New(ctx context.Context, conf *Config) (*Storage, error) {
	client, err := mongo.Connect(ctx, conf.Options())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrConnectDB, err)
	}

	s := Storage{client: client, dbName: conf.DBName, collName: conf.Collection}
	if err := s.createCollection(ctx, s.collName); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("%w: %v", storage.ErrConnectDB, err)
	}

	return &s, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Storage) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Storage) coll() *mongo.Collection {
	return s.client.Database(s.dbName).Collection(s.collName)
}

// AddPost inserts the post as a new document and returns its generated ID.
func (s *Storage) AddPost(ctx context.Context, post models.BlogPost) (primitive.ObjectID, error) {
	post.ID = primitive.NewObjectID()
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}

	_, err := s.coll().InsertOne(ctx, post)
	if err != nil {
		return primitive.NilObjectID, err
	}

	return post.ID, nil
}

// Posts returns every document of the collection in natural order.
func (s *Storage) Posts(ctx context.Context) ([]models.BlogPost, error) {
	cur, err := s.coll().Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}

	var posts []models.BlogPost
	if err := cur.All(ctx, &posts); err != nil {
		return nil, err
	}

	if posts == nil {
		posts = []models.BlogPost{}
	}
	for i := range posts {
		if posts[i].Comments == nil {
			posts[i].Comments = []models.Comment{}
		}
	}

	return posts, nil
}

// UpdatePost sets title, content and author. Comments and counters are left as they are.
// An update that leaves the document unchanged reports ErrPostNotFound.
func (s *Storage) UpdatePost(ctx context.Context, id primitive.ObjectID, post models.Post) error {
	return s.updateOne(ctx, id, bson.M{"$set": post})
}

func (s *Storage) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return storage.ErrPostNotFound
	}

	return nil
}

func (s *Storage) AddComment(ctx context.Context, id primitive.ObjectID, comment models.Comment) error {
	return s.updateOne(ctx, id, bson.M{"$push": bson.M{"comments": comment}})
}

func (s *Storage) Like(ctx context.Context, id primitive.ObjectID) error {
	return s.updateOne(ctx, id, bson.M{"$inc": bson.M{"likes": 1}})
}

func (s *Storage) Dislike(ctx context.Context, id primitive.ObjectID) error {
	return s.updateOne(ctx, id, bson.M{"$inc": bson.M{"dislikes": 1}})
}

func (s *Storage) updateOne(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := s.coll().UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.ModifiedCount == 0 {
		return storage.ErrPostNotFound
	}

	return nil
}

// createCollection creates a collection with the given name in the database if it doesn't already exist.
func (s *Storage) createCollection(ctx context.Context, collName string) error {
	collExists, err := collectionExists(ctx, s.client.Database(s.dbName), collName)
	if err != nil {
		return err
	}

	if !collExists {
		err := s.client.Database(s.dbName).CreateCollection(ctx, collName)
		if err != nil {
			return err
		}
	}

	return nil
}

func collectionExists(ctx context.Context, db *mongo.Database, collName string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: collName}})
	if err != nil {
		return false, fmt.Errorf("failed to list collection names: %w", err)
	}

	return len(names) > 0, nil
}
