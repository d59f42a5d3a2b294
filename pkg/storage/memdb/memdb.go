package memdb

import (
	"context"
	"slices"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"blog/pkg/models"
	"blog/pkg/storage"
)

// Store keeps posts in memory in insertion order. It reports "not modified"
// the same way the document store does, so a no-op update is ErrPostNotFound.
type Store struct {
	mu    sync.Mutex
	order []primitive.ObjectID
	posts map[primitive.ObjectID]*models.BlogPost
}

func New() *Store {
	db := Store{
		posts: make(map[primitive.ObjectID]*models.BlogPost),
	}

	return &db
}

func (db *Store) AddPost(ctx context.Context, post models.BlogPost) (primitive.ObjectID, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	post.ID = primitive.NewObjectID()
	post.Comments = slices.Clone(post.Comments)
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	db.posts[post.ID] = &post
	db.order = append(db.order, post.ID)

	return post.ID, nil
}

func (db *Store) Posts(ctx context.Context) ([]models.BlogPost, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	posts := make([]models.BlogPost, 0, len(db.order))
	for _, id := range db.order {
		p := *db.posts[id]
		p.Comments = slices.Clone(p.Comments)
		posts = append(posts, p)
	}

	return posts, nil
}

func (db *Store) UpdatePost(ctx context.Context, id primitive.ObjectID, post models.Post) error {
	return db.modify(id, func(p *models.BlogPost) bool {
		if p.Post() == post {
			return false
		}
		p.Title, p.Content, p.Author = post.Title, post.Content, post.Author
		return true
	})
}

func (db *Store) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.posts[id]; !ok {
		return storage.ErrPostNotFound
	}
	delete(db.posts, id)
	db.order = slices.DeleteFunc(db.order, func(v primitive.ObjectID) bool { return v == id })

	return nil
}

func (db *Store) AddComment(ctx context.Context, id primitive.ObjectID, comment models.Comment) error {
	return db.modify(id, func(p *models.BlogPost) bool {
		p.Comments = append(p.Comments, comment)
		return true
	})
}

func (db *Store) Like(ctx context.Context, id primitive.ObjectID) error {
	return db.modify(id, func(p *models.BlogPost) bool {
		p.Likes++
		return true
	})
}

func (db *Store) Dislike(ctx context.Context, id primitive.ObjectID) error {
	return db.modify(id, func(p *models.BlogPost) bool {
		p.Dislikes++
		return true
	})
}

// modify applies fn to the post under the lock. fn reports whether it changed anything.
func (db *Store) modify(id primitive.ObjectID, fn func(p *models.BlogPost) bool) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.posts[id]
	if !ok || !fn(p) {
		return storage.ErrPostNotFound
	}

	return nil
}
