package services

import (
	"context"
	"time"

	"inkpress/app/events"
	"inkpress/app/models"
	"inkpress/app/repositories"

	log "github.com/sirupsen/logrus"
)

const publishTimeout = 5 * time.Second

// CommentService handles comment submissions
type CommentService struct {
	store     repositories.CommentWriter
	publisher events.Publisher
}

// NewCommentService creates a new CommentService. A nil publisher disables events.
func NewCommentService(store repositories.CommentWriter, publisher events.Publisher) *CommentService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &CommentService{
		store:     store,
		publisher: publisher,
	}
}

// Submit writes the submitted comment as a new unapproved document. The
// store is the only validator: whatever it rejects is returned unchanged.
func (s *CommentService) Submit(ctx context.Context, in models.CommentInput) (*models.Comment, error) {
	comment, err := s.store.CreateComment(ctx, in.Document())
	if err != nil {
		return nil, err
	}

	s.publish(ctx, comment)
	return comment, nil
}

// publish announces a stored comment. Failures are logged only.
func (s *CommentService) publish(ctx context.Context, comment *models.Comment) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	createdAt := comment.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	err := s.publisher.PublishCommentSubmitted(ctx, events.CommentSubmitted{
		CommentID: comment.ID,
		PostID:    comment.Post.Ref,
		Name:      comment.Name,
		CreatedAt: createdAt,
	})
	if err != nil {
		log.Warnf("[CommentService] failed to publish event for comment %s: %v", comment.ID, err)
	}
}
