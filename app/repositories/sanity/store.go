package sanity

import (
	"context"

	"inkpress/app/models"
	"inkpress/app/repositories"
)

// Store implements repositories.ContentStore against a Sanity dataset.
type Store struct {
	client *Client
}

var _ repositories.ContentStore = (*Store)(nil)

func NewStore(client *Client) *Store {
	return &Store{client: client}
}

func (s *Store) ListPostPaths(ctx context.Context) ([]models.PostPath, error) {
	var paths []models.PostPath
	if err := s.client.Fetch(ctx, postPathsQuery, nil, &paths); err != nil {
		return nil, err
	}
	return paths, nil
}

func (s *Store) ListPosts(ctx context.Context) ([]*models.Post, error) {
	var posts []*models.Post
	if err := s.client.Fetch(ctx, postsQuery, nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *Store) GetPostBySlug(ctx context.Context, slug string) (*models.Post, error) {
	var post *models.Post
	if err := s.client.Fetch(ctx, postBySlugQuery, map[string]any{"slug": slug}, &post); err != nil {
		return nil, err
	}
	if post == nil {
		return nil, repositories.ErrNotFound
	}
	if post.Comments == nil {
		post.Comments = []*models.Comment{}
	}
	return post, nil
}

func (s *Store) CreateComment(ctx context.Context, doc *models.CommentDocument) (*models.Comment, error) {
	var created models.Comment
	id, err := s.client.Create(ctx, doc, &created)
	if err != nil {
		return nil, err
	}

	if created.ID == "" {
		created = models.Comment{
			ID:      id,
			Type:    doc.Type,
			Post:    doc.Post,
			Name:    doc.Name,
			Email:   doc.Email,
			Comment: doc.Comment,
		}
	}
	return &created, nil
}
