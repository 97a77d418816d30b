package mock

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"inkpress/app/models"
	"inkpress/app/repositories"
)

// ContentStore is an in-memory repositories.ContentStore for tests. It keeps
// every comment it is given and applies the approved-only join on read.
type ContentStore struct {
	posts    map[string]*models.Post
	comments []*models.Comment
	nextID   int
	mutex    sync.RWMutex

	// Error hooks; when set they are returned instead of touching the store.
	ReadErr  error
	WriteErr error

	// Counters for asserting how often the store was hit.
	Reads  int
	Writes int
}

func NewContentStore() *ContentStore {
	return &ContentStore{
		posts:  make(map[string]*models.Post),
		nextID: 1,
	}
}

func (m *ContentStore) Clear() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.posts = make(map[string]*models.Post)
	m.comments = nil
	m.nextID = 1
}

// AddPost registers a post; its Comments field is ignored.
func (m *ContentStore) AddPost(post *models.Post) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	p := *post
	p.Comments = nil
	m.posts[p.Slug.Current] = &p
}

// AddComment stores a comment as given, approval flag included.
func (m *ContentStore) AddComment(comment *models.Comment) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	c := *comment
	m.comments = append(m.comments, &c)
}

// Approve flips the approval flag of a stored comment.
func (m *ContentStore) Approve(id string) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for _, c := range m.comments {
		if c.ID == id {
			c.Approved = true
			return true
		}
	}
	return false
}

// Comments returns a copy of every stored comment.
func (m *ContentStore) Comments() []models.Comment {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	out := make([]models.Comment, 0, len(m.comments))
	for _, c := range m.comments {
		out = append(out, *c)
	}
	return out
}

func (m *ContentStore) ListPostPaths(ctx context.Context) ([]models.PostPath, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.Reads++
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}

	paths := make([]models.PostPath, 0, len(m.posts))
	for _, p := range m.posts {
		paths = append(paths, models.PostPath{ID: p.ID, Slug: p.Slug})
	}
	sort.Slice(paths, func(i, j int) bool {
		return paths[i].Slug.Current < paths[j].Slug.Current
	})
	return paths, nil
}

func (m *ContentStore) ListPosts(ctx context.Context) ([]*models.Post, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.Reads++
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}

	posts := make([]*models.Post, 0, len(m.posts))
	for _, p := range m.posts {
		summary := *p
		summary.Body = nil
		posts = append(posts, &summary)
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}

func (m *ContentStore) GetPostBySlug(ctx context.Context, slug string) (*models.Post, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.Reads++
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}

	p, exists := m.posts[slug]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	post := *p
	post.Comments = []*models.Comment{}
	for _, c := range m.comments {
		if c.VisibleOn(post.ID) {
			cc := *c
			post.Comments = append(post.Comments, &cc)
		}
	}
	return &post, nil
}

func (m *ContentStore) CreateComment(ctx context.Context, doc *models.CommentDocument) (*models.Comment, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.Writes++
	if m.WriteErr != nil {
		return nil, m.WriteErr
	}

	found := false
	for _, p := range m.posts {
		if p.ID == doc.Post.Ref {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: post reference %q does not resolve to a document", repositories.ErrValidation, doc.Post.Ref)
	}

	comment := &models.Comment{
		ID:        fmt.Sprintf("comment-%d", m.nextID),
		Type:      models.CommentType,
		CreatedAt: time.Now().UTC(),
		Post:      doc.Post,
		Name:      doc.Name,
		Email:     doc.Email,
		Comment:   doc.Comment,
	}
	m.nextID++
	m.comments = append(m.comments, comment)

	out := *comment
	return &out, nil
}
