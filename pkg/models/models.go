package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post is the editable part of a blog post.
type Post struct {
	Title   string `bson:"title" json:"title"`
	Content string `bson:"content" json:"content"`
	Author  string `bson:"author" json:"author"`
}

type Comment struct {
	Text   string `bson:"text" json:"text"`
	Author string `bson:"author" json:"author"`
}

// BlogPost is the stored record. ID is assigned by the storage on insert and
// is rendered as a 24 character hex string in JSON.
type BlogPost struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title    string             `bson:"title" json:"title"`
	Content  string             `bson:"content" json:"content"`
	Author   string             `bson:"author" json:"author"`
	Comments []Comment          `bson:"comments" json:"comments"`
	Likes    int                `bson:"likes" json:"likes"`
	Dislikes int                `bson:"dislikes" json:"dislikes"`
}

// NewBlogPost returns a record for a freshly created post: no comments and zero counters.
func NewBlogPost(p Post) BlogPost {
	return BlogPost{
		Title:    p.Title,
		Content:  p.Content,
		Author:   p.Author,
		Comments: []Comment{},
	}
}

// Post returns the editable fields of the record.
func (bp BlogPost) Post() Post {
	return Post{Title: bp.Title, Content: bp.Content, Author: bp.Author}
}

type LogEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	IP         string    `json:"ip"`
	StatusCode int       `json:"status_code"`
	RequestID  string    `json:"request_id"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	Duration   float64   `json:"duration_sec"`
	Service    string    `json:"service"`
}
