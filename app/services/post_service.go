package services

import (
	"context"
	"fmt"

	"inkpress/app/models"
	"inkpress/app/repositories"
)

// PostService handles the read side of blog posts
type PostService struct {
	store repositories.PostReader
}

// NewPostService creates a new PostService
func NewPostService(store repositories.PostReader) *PostService {
	return &PostService{store: store}
}

// Paths enumerates the slugs that have a post page. Posts without a slug
// have no page and are skipped.
func (s *PostService) Paths(ctx context.Context) ([]models.PostPath, error) {
	paths, err := s.store.ListPostPaths(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list post paths: %w", err)
	}

	valid := paths[:0]
	for _, p := range paths {
		if p.Slug.Current != "" {
			valid = append(valid, p)
		}
	}
	return valid, nil
}

// ListPosts returns post summaries for the home page
func (s *PostService) ListPosts(ctx context.Context) ([]*models.Post, error) {
	posts, err := s.store.ListPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// GetPost retrieves a post by slug with its approved comments. Comments
// returned by the store are filtered again so only approved comments that
// reference this post are ever shown.
func (s *PostService) GetPost(ctx context.Context, slug string) (*models.Post, error) {
	if slug == "" {
		return nil, repositories.ErrNotFound
	}

	post, err := s.store.GetPostBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	post.Comments = post.VisibleComments()
	return post, nil
}
