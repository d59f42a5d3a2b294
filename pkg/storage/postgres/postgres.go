package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"blog/pkg/models"
	"blog/pkg/storage"
)

//go:embed schema.sql
var schema string

// Store keeps posts in a single table. IDs are ObjectIDs generated by the
// service and stored in their hex form, comments live in a JSONB array.
type Store struct {
	db *pgxpool.Pool
}

func New(ctx context.Context, conStr string) (*Store, error) {
	db, err := pgxpool.Connect(ctx, conStr)
	if err != nil {
		return nil, err
	}
	s := Store{
		db: db,
	}

	return &s, nil
}

// Init creates the posts table if it does not exist.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schema)
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Store) Close() {
	s.db.Close()
}

// AddPost inserts the post with a freshly generated ID and returns the ID.
func (s *Store) AddPost(ctx context.Context, post models.BlogPost) (primitive.ObjectID, error) {
	post.ID = primitive.NewObjectID()
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	comments, err := json.Marshal(post.Comments)
	if err != nil {
		return primitive.NilObjectID, err
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO posts (id, title, content, author, comments, likes, dislikes)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7)
	`,
		post.ID.Hex(),
		post.Title,
		post.Content,
		post.Author,
		string(comments),
		post.Likes,
		post.Dislikes,
	)
	if err != nil {
		return primitive.NilObjectID, err
	}

	return post.ID, nil
}

// Posts returns all posts ordered by ID, which follows insertion order.
func (s *Store) Posts(ctx context.Context) ([]models.BlogPost, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, title, content, author, comments::text, likes, dislikes
		FROM posts
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []models.BlogPost{}
	for rows.Next() {
		var (
			p        models.BlogPost
			id       string
			comments string
		)
		err := rows.Scan(
			&id,
			&p.Title,
			&p.Content,
			&p.Author,
			&comments,
			&p.Likes,
			&p.Dislikes,
		)
		if err != nil {
			return nil, err
		}
		p.ID, err = primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, fmt.Errorf("stored post ID %q: %w", id, err)
		}
		if err := json.Unmarshal([]byte(comments), &p.Comments); err != nil {
			return nil, fmt.Errorf("stored comments of post %s: %w", id, err)
		}
		if p.Comments == nil {
			p.Comments = []models.Comment{}
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}

// UpdatePost sets title, content and author. Rows whose values already match
// are not touched, so an unchanged update reports ErrPostNotFound.
func (s *Store) UpdatePost(ctx context.Context, id primitive.ObjectID, post models.Post) error {
	return s.exec(ctx, `
		UPDATE posts SET title = $1::text, content = $2::text, author = $3::text
		WHERE id = $4 AND (title, content, author) IS DISTINCT FROM ($1::text, $2::text, $3::text)
	`,
		post.Title,
		post.Content,
		post.Author,
		id.Hex(),
	)
}

func (s *Store) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	return s.exec(ctx, `DELETE FROM posts WHERE id = $1`, id.Hex())
}

func (s *Store) AddComment(ctx context.Context, id primitive.ObjectID, comment models.Comment) error {
	return s.exec(ctx, `
		UPDATE posts
		SET comments = comments || jsonb_build_array(jsonb_build_object('text', $1::text, 'author', $2::text))
		WHERE id = $3
	`,
		comment.Text,
		comment.Author,
		id.Hex(),
	)
}

func (s *Store) Like(ctx context.Context, id primitive.ObjectID) error {
	return s.exec(ctx, `UPDATE posts SET likes = likes + 1 WHERE id = $1`, id.Hex())
}

func (s *Store) Dislike(ctx context.Context, id primitive.ObjectID) error {
	return s.exec(ctx, `UPDATE posts SET dislikes = dislikes + 1 WHERE id = $1`, id.Hex())
}

// exec runs a single statement and maps zero affected rows to ErrPostNotFound.
func (s *Store) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := s.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrPostNotFound
	}

	return nil
}
