package storage

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"blog/pkg/models"
)

var (
	ErrConnectDB       = fmt.Errorf("unable to establish DB connection")
	ErrDBNotResponding = fmt.Errorf("DB not responding")

	ErrInvalidID    = fmt.Errorf("invalid post ID")
	ErrPostNotFound = fmt.Errorf("post not found")
)

// Storage is a collection of blog posts addressed by ObjectID.
//
// Every mutating method is a single atomic operation on one post. Methods that
// target an existing post return ErrPostNotFound when the operation matched or
// modified nothing.
type Storage interface {
	AddPost(ctx context.Context, post models.BlogPost) (primitive.ObjectID, error)
	Posts(ctx context.Context) ([]models.BlogPost, error)
	UpdatePost(ctx context.Context, id primitive.ObjectID, post models.Post) error
	DeletePost(ctx context.Context, id primitive.ObjectID) error
	AddComment(ctx context.Context, id primitive.ObjectID, comment models.Comment) error
	Like(ctx context.Context, id primitive.ObjectID) error
	Dislike(ctx context.Context, id primitive.ObjectID) error
}

// ParseID converts the string form of a post ID into an ObjectID.
// The returned error wraps ErrInvalidID.
func ParseID(s string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return id, nil
}
