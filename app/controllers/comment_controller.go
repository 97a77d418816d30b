package controllers

import (
	"encoding/json"
	"io"
	"net/http"

	"inkpress/app/models"
	"inkpress/app/services"

	log "github.com/sirupsen/logrus"
)

const maxCommentBody = 64 << 10

// CommentController handles comment submissions
type CommentController struct {
	commentService *services.CommentService
}

// NewCommentController creates a new CommentController
func NewCommentController(commentService *services.CommentService) *CommentController {
	return &CommentController{commentService: commentService}
}

// Create handles POST /api/createComment. The body is parsed as JSON
// whatever its declared content type, and exactly one response is written.
func (cc *CommentController) Create(w http.ResponseWriter, r *http.Request) {
	status, body := cc.create(r)
	sendJSON(w, status, body)
}

func (cc *CommentController) create(r *http.Request) (int, response) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxCommentBody))
	if err != nil {
		return http.StatusBadRequest, response{Message: "Couldn't read the request body", Error: err.Error()}
	}

	var in models.CommentInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return http.StatusBadRequest, response{Message: "Invalid JSON", Error: err.Error()}
	}

	comment, err := cc.commentService.Submit(r.Context(), in)
	if err != nil {
		log.Errorf("[CommentController] failed to create comment for post %q: %v", in.PostID, err)
		return http.StatusInternalServerError, response{Message: "Couldn't submit the comment", Error: errorDetail(err)}
	}

	log.Infof("[CommentController] comment %s submitted for post %s", comment.ID, in.PostID)
	return http.StatusOK, response{Message: "Comment submitted"}
}
