package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"inkpress/app/models"

	"github.com/dgraph-io/badger/v4"
	"github.com/gofrs/uuid"
)

// SeedData is the document set accepted by Seed.
type SeedData struct {
	Authors  []*models.AuthorDocument `json:"authors"`
	Posts    []*models.PostDocument   `json:"posts"`
	Comments []*models.Comment        `json:"comments"`
}

// BadgerContentStore implements ContentStore on an embedded BadgerDB. It
// mirrors the managed store closely enough to run the site offline.
type BadgerContentStore struct {
	db  *badger.DB
	now func() time.Time
}

// NewBadgerContentStore creates a new BadgerContentStore
func NewBadgerContentStore(db *badger.DB) *BadgerContentStore {
	return &BadgerContentStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func newID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", fmt.Errorf("failed to generate id: %w", err)
	}
	return id.String(), nil
}

// PutAuthor creates or replaces an author
func (s *BadgerContentStore) PutAuthor(author *models.AuthorDocument) error {
	if err := author.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if author.ID == "" {
		id, err := newID()
		if err != nil {
			return err
		}
		author.ID = id
	}

	data, err := marshalEntity(author)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(authorKey(author.ID), data)
	})
}

// PutPost creates or replaces a post and keeps the slug index in step
func (s *BadgerContentStore) PutPost(post *models.PostDocument) error {
	post.BeforeCreate()
	if err := post.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if post.ID == "" {
		id, err := newID()
		if err != nil {
			return err
		}
		post.ID = id
	}

	data, err := marshalEntity(post)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		// Slugs are unique across posts
		item, err := txn.Get(slugKey(post.Slug.Current))
		switch {
		case err == nil:
			var owner string
			if err := item.Value(func(val []byte) error {
				owner = string(val)
				return nil
			}); err != nil {
				return err
			}
			if owner != post.ID {
				return fmt.Errorf("%w: slug %q already used by post %s", ErrValidation, post.Slug.Current, owner)
			}
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		// Drop the previous slug when it changed
		item, err = txn.Get(postKey(post.ID))
		switch {
		case err == nil:
			var prev models.PostDocument
			if err := item.Value(func(val []byte) error {
				return unmarshalEntity(val, &prev)
			}); err != nil {
				return err
			}
			if prev.Slug.Current != post.Slug.Current {
				if err := txn.Delete(slugKey(prev.Slug.Current)); err != nil {
					return err
				}
			}
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		if err := txn.Set(postKey(post.ID), data); err != nil {
			return err
		}
		return txn.Set(slugKey(post.Slug.Current), []byte(post.ID))
	})
}

// PutComment stores a comment as given, approval flag included. Readers
// submit comments through CreateComment instead.
func (s *BadgerContentStore) PutComment(comment *models.Comment) error {
	if comment.Post.Ref == "" {
		return fmt.Errorf("%w: comment has no post reference", ErrValidation)
	}
	if comment.ID == "" {
		id, err := newID()
		if err != nil {
			return err
		}
		comment.ID = id
	}
	comment.Type = models.CommentType
	comment.Post.Type = models.ReferenceType
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = s.now()
	}

	data, err := marshalEntity(comment)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(commentKey(comment.Post.Ref, comment.ID), data)
	})
}

// Seed loads authors, posts and comments, in that order
func (s *BadgerContentStore) Seed(data *SeedData) error {
	for _, a := range data.Authors {
		if err := s.PutAuthor(a); err != nil {
			return fmt.Errorf("seed author %q: %w", a.Name, err)
		}
	}
	for _, p := range data.Posts {
		if err := s.PutPost(p); err != nil {
			return fmt.Errorf("seed post %q: %w", p.Slug.Current, err)
		}
	}
	for _, c := range data.Comments {
		if err := s.PutComment(c); err != nil {
			return fmt.Errorf("seed comment for post %q: %w", c.Post.Ref, err)
		}
	}
	return nil
}

// ListPostPaths enumerates all post ids and slugs
func (s *BadgerContentStore) ListPostPaths(ctx context.Context) ([]models.PostPath, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var paths []models.PostPath
	err := s.db.View(func(txn *badger.Txn) error {
		return eachPost(txn, func(post *models.PostDocument) error {
			paths = append(paths, models.PostPath{ID: post.ID, Slug: post.Slug})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// ListPosts returns post summaries, newest first
func (s *BadgerContentStore) ListPosts(ctx context.Context) ([]*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var posts []*models.Post
	err := s.db.View(func(txn *badger.Txn) error {
		return eachPost(txn, func(doc *models.PostDocument) error {
			author, err := resolveAuthor(txn, doc.Author.Ref)
			if err != nil {
				return err
			}
			posts = append(posts, &models.Post{
				ID:          doc.ID,
				CreatedAt:   doc.CreatedAt,
				Title:       doc.Title,
				Description: doc.Description,
				Slug:        doc.Slug,
				MainImage:   doc.MainImage,
				Author:      author,
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}

// GetPostBySlug resolves a post by slug, joining its author and approved comments
func (s *BadgerContentStore) GetPostBySlug(ctx context.Context, slug string) (*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var post *models.Post
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(slugKey(slug))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var id string
		if err := item.Value(func(val []byte) error {
			id = string(val)
			return nil
		}); err != nil {
			return err
		}

		item, err = txn.Get(postKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var doc models.PostDocument
		if err := item.Value(func(val []byte) error {
			return unmarshalEntity(val, &doc)
		}); err != nil {
			return err
		}

		author, err := resolveAuthor(txn, doc.Author.Ref)
		if err != nil {
			return err
		}

		comments, err := listComments(txn, doc.ID, true)
		if err != nil {
			return err
		}

		post = &models.Post{
			ID:          doc.ID,
			CreatedAt:   doc.CreatedAt,
			Title:       doc.Title,
			Description: doc.Description,
			Slug:        doc.Slug,
			MainImage:   doc.MainImage,
			Author:      author,
			Body:        doc.Body,
			Comments:    comments,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment validates and writes a new unapproved comment
func (s *BadgerContentStore) CreateComment(ctx context.Context, doc *models.CommentDocument) (*models.Comment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}
	comment := &models.Comment{
		ID:        id,
		Type:      models.CommentType,
		CreatedAt: s.now(),
		Post:      models.Reference{Type: models.ReferenceType, Ref: doc.Post.Ref},
		Name:      doc.Name,
		Email:     doc.Email,
		Comment:   doc.Comment,
	}

	data, err := marshalEntity(comment)
	if err != nil {
		return nil, err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		// Verify the referenced post exists
		_, err := txn.Get(postKey(doc.Post.Ref))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: post reference %q does not resolve to a document", ErrValidation, doc.Post.Ref)
		}
		if err != nil {
			return err
		}
		return txn.Set(commentKey(comment.Post.Ref, comment.ID), data)
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// ListComments returns every comment stored for a post, approved or not
func (s *BadgerContentStore) ListComments(ctx context.Context, postID string) ([]*models.Comment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var comments []*models.Comment
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		comments, err = listComments(txn, postID, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return comments, nil
}

func eachPost(txn *badger.Txn, fn func(post *models.PostDocument) error) error {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	prefix := []byte(PostKeyPrefix)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var post models.PostDocument
		if err := it.Item().Value(func(val []byte) error {
			return unmarshalEntity(val, &post)
		}); err != nil {
			return err
		}
		if err := fn(&post); err != nil {
			return err
		}
	}
	return nil
}

// resolveAuthor follows an author reference; a dangling reference resolves
// to an empty author.
func resolveAuthor(txn *badger.Txn, ref string) (models.Author, error) {
	if ref == "" {
		return models.Author{}, nil
	}
	item, err := txn.Get(authorKey(ref))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return models.Author{}, nil
	}
	if err != nil {
		return models.Author{}, err
	}

	var doc models.AuthorDocument
	if err := item.Value(func(val []byte) error {
		return unmarshalEntity(val, &doc)
	}); err != nil {
		return models.Author{}, err
	}
	return models.Author{Name: doc.Name, Image: doc.Image}, nil
}

func listComments(txn *badger.Txn, postID string, approvedOnly bool) ([]*models.Comment, error) {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	comments := []*models.Comment{}
	prefix := commentPrefix(postID)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var comment models.Comment
		if err := it.Item().Value(func(val []byte) error {
			return unmarshalEntity(val, &comment)
		}); err != nil {
			return nil, err
		}
		if approvedOnly && !comment.VisibleOn(postID) {
			continue
		}
		comments = append(comments, &comment)
	}

	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments, nil
}
