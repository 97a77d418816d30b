package repositories

import (
	"context"
	"errors"

	"inkpress/app/models"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrValidation = errors.New("validation failed")
)

// PostReader defines the read side of the content store
type PostReader interface {
	// ListPostPaths enumerates every post's id and slug.
	ListPostPaths(ctx context.Context) ([]models.PostPath, error)
	// ListPosts returns post summaries without body or comments, newest first.
	ListPosts(ctx context.Context) ([]*models.Post, error)
	// GetPostBySlug returns the post with its author and approved comments
	// joined in, or ErrNotFound.
	GetPostBySlug(ctx context.Context, slug string) (*models.Post, error)
}

// CommentWriter defines the write side of the content store
type CommentWriter interface {
	CreateComment(ctx context.Context, doc *models.CommentDocument) (*models.Comment, error)
}

// ContentStore is the narrow query/write contract against the content store.
type ContentStore interface {
	PostReader
	CommentWriter
}
