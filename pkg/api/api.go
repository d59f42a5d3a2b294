package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"blog/pkg/models"
	"blog/pkg/storage"
)

const (
	msgPostCreated   = "Post created successfully"
	msgPostUpdated   = "Post updated successfully"
	msgPostDeleted   = "Post deleted successfully"
	msgCommentAdded  = "Comment added successfully"
	msgPostLiked     = "Post liked successfully"
	msgPostDisliked  = "Post disliked successfully"
	msgPostNotFound  = "Post not found"
	msgInvalidPostID = "Invalid post ID"
	msgInternalError = "Internal Server Error"
	msgNotFound      = "Not Found"
	msgNotAllowed    = "Method Not Allowed"
)

// MessageWriter ships access log entries. *kafka.Writer implements it.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type API struct {
	ServiceName string

	r  *mux.Router
	db storage.Storage
	kw MessageWriter
	// sends tracks access log entries still being written to kw.
	sends sync.WaitGroup
}

// New builds the API on top of db. kw may be nil, in which case access logs
// are only written locally.
func New(name string, db storage.Storage, kw MessageWriter) *API {
	api := &API{
		ServiceName: name,
		r:           mux.NewRouter(),
		db:          db,
		kw:          kw,
	}
	api.endpoints()

	return api
}

func (api *API) Router() *mux.Router {
	return api.r
}

// Flush blocks until every pending access log entry has been handed to the
// writer. Call it after the HTTP server has stopped and before closing the writer.
func (api *API) Flush() {
	api.sends.Wait()
}

func (api *API) endpoints() {
	api.r.Use(api.requestIDMiddleware)
	api.r.Use(api.loggingMiddleware)
	api.r.Use(api.headerMiddleware)

	api.r.HandleFunc("/posts/", api.createPostHandler).Methods(http.MethodPost)
	api.r.HandleFunc("/posts/", api.postsHandler).Methods(http.MethodGet)
	api.r.HandleFunc("/posts/{post_id}", api.updatePostHandler).Methods(http.MethodPut)
	api.r.HandleFunc("/posts/{post_id}", api.deletePostHandler).Methods(http.MethodDelete)
	api.r.HandleFunc("/posts/{post_id}/comments/", api.addCommentHandler).Methods(http.MethodPut)
	api.r.HandleFunc("/posts/{post_id}/like/", api.likePostHandler).Methods(http.MethodPut)
	api.r.HandleFunc("/posts/{post_id}/dislike/", api.dislikePostHandler).Methods(http.MethodPut)

	// Router middleware is skipped for unmatched routes, so these write JSON themselves.
	api.r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, msgNotFound)
	})
	api.r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, msgNotAllowed)
	})
}

func (api *API) createPostHandler(w http.ResponseWriter, r *http.Request) {
	sID := shorten(GetRequestID(r.Context()))
	defer r.Body.Close()

	post, err := models.DecodePost(r.Body)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		log.Debugf("[createPostHandler][%s] %v", sID, err)
		return
	}

	id, err := api.db.AddPost(r.Context(), models.NewBlogPost(post))
	if err != nil {
		writeError(w, http.StatusInternalServerError, msgInternalError)
		log.Errorf("[createPostHandler][%s] AddPost() returned error: %v", sID, err)
		return
	}

	writeJSON(w, http.StatusOK, CreatedResponse{Message: msgPostCreated, PostID: id.Hex()})
	log.Debugf("[createPostHandler][%s] post %s created", sID, id.Hex())
}

func (api *API) postsHandler(w http.ResponseWriter, r *http.Request) {
	sID := shorten(GetRequestID(r.Context()))

	posts, err := api.db.Posts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, msgInternalError)
		log.Errorf("[postsHandler][%s] Posts() returned error: %v", sID, err)
		return
	}

	writeJSON(w, http.StatusOK, posts)
	log.Debugf("[postsHandler][%s] %d posts sent to: %v", sID, len(posts), r.RemoteAddr)
}

func (api *API) updatePostHandler(w http.ResponseWriter, r *http.Request) {
	sID := shorten(GetRequestID(r.Context()))
	defer r.Body.Close()

	post, err := models.DecodePost(r.Body)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		log.Debugf("[updatePostHandler][%s] %v", sID, err)
		return
	}

	id, ok := postID(w, r, "updatePostHandler", sID)
	if !ok {
		return
	}

	err = api.db.UpdatePost(r.Context(), id, post)
	respond(w, err, msgPostUpdated, "updatePostHandler", sID)
}

func (api *API) deletePostHandler(w http.ResponseWriter, r *http.Request) {
	sID := shorten(GetRequestID(r.Context()))

	id, ok := postID(w, r, "deletePostHandler", sID)
	if !ok {
		return
	}

	err := api.db.DeletePost(r.Context(), id)
	respond(w, err, msgPostDeleted, "deletePostHandler", sID)
}

func (api *API) addCommentHandler(w http.ResponseWriter, r *http.Request) {
	sID := shorten(GetRequestID(r.Context()))
	defer r.Body.Close()

	comment, err := models.DecodeComment(r.Body)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		log.Debugf("[addCommentHandler][%s] %v", sID, err)
		return
	}

	id, ok := postID(w, r, "addCommentHandler", sID)
	if !ok {
		return
	}

	err = api.db.AddComment(r.Context(), id, comment)
	respond(w, err, msgCommentAdded, "addCommentHandler", sID)
}

func (api *API) likePostHandler(w http.ResponseWriter, r *http.Request) {
	sID := shorten(GetRequestID(r.Context()))

	id, ok := postID(w, r, "likePostHandler", sID)
	if !ok {
		return
	}

	err := api.db.Like(r.Context(), id)
	respond(w, err, msgPostLiked, "likePostHandler", sID)
}

func (api *API) dislikePostHandler(w http.ResponseWriter, r *http.Request) {
	sID := shorten(GetRequestID(r.Context()))

	id, ok := postID(w, r, "dislikePostHandler", sID)
	if !ok {
		return
	}

	err := api.db.Dislike(r.Context(), id)
	respond(w, err, msgPostDisliked, "dislikePostHandler", sID)
}

// postID parses the post_id path variable. On failure it writes a 400 response and returns false.
func postID(w http.ResponseWriter, r *http.Request, handler, sID string) (primitive.ObjectID, bool) {
	id, err := storage.ParseID(mux.Vars(r)["post_id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidPostID)
		log.Debugf("[%s][%s] %v", handler, sID, err)
		return primitive.NilObjectID, false
	}
	return id, true
}

// respond maps the result of a single-post storage operation to the response.
func respond(w http.ResponseWriter, err error, msg, handler, sID string) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, MessageResponse{Message: msg})
		log.Debugf("[%s][%s] %s", handler, sID, msg)
	case errors.Is(err, storage.ErrPostNotFound):
		writeError(w, http.StatusNotFound, msgPostNotFound)
		log.Debugf("[%s][%s] %v", handler, sID, err)
	default:
		writeError(w, http.StatusInternalServerError, msgInternalError)
		log.Errorf("[%s][%s] storage error: %v", handler, sID, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("[writeJSON] failed to encode response data: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail})
}

// GetRequestID extracts the request ID from the context.
// It returns the request ID as a string if present, otherwise returns an empty string.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(RequestIDKey).(string); ok {
		return v
	}
	return ""
}

// shorten truncates a string to 6 characters if it is longer than 6, appends '...' at the end,
// otherwise it returns the string unchanged.
func shorten(s string) string {
	if len(s) > 6 {
		return s[:6] + "..."
	}
	return s
}
