package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"inkpress/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStore(t *testing.T) *BadgerContentStore {
	store := NewBadgerContentStore(setupTestDB(t))

	base := time.Date(2022, 5, 1, 12, 0, 0, 0, time.UTC)
	data := &SeedData{
		Authors: []*models.AuthorDocument{
			{ID: "author1", Name: "Owi Odo", Image: models.Image{Asset: models.Reference{Ref: "image-abc-100x100-png"}}},
		},
		Posts: []*models.PostDocument{
			{
				ID:          "post1",
				CreatedAt:   base,
				Title:       "First Post",
				Description: "The first one",
				Slug:        models.Slug{Current: "first-post"},
				Author:      models.Reference{Ref: "author1"},
				Body: []models.Block{
					{Type: "block", Style: "normal", Children: []models.Span{{Type: "span", Text: "Hello"}}},
				},
			},
			{
				ID:        "post2",
				CreatedAt: base.Add(time.Hour),
				Title:     "Second Post",
				Slug:      models.Slug{Current: "second-post"},
				Author:    models.Reference{Ref: "missing-author"},
			},
		},
		Comments: []*models.Comment{
			{ID: "c1", Post: models.Reference{Ref: "post1"}, Name: "A", Comment: "approved", Approved: true, CreatedAt: base},
			{ID: "c2", Post: models.Reference{Ref: "post1"}, Name: "B", Comment: "pending", CreatedAt: base.Add(time.Minute)},
			{ID: "c3", Post: models.Reference{Ref: "post2"}, Name: "C", Comment: "other post", Approved: true, CreatedAt: base},
		},
	}
	require.NoError(t, store.Seed(data))
	return store
}

func TestBadgerContentStore_GetPostBySlug(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()

	t.Run("joins author and approved comments only", func(t *testing.T) {
		post, err := store.GetPostBySlug(ctx, "first-post")
		require.NoError(t, err)

		assert.Equal(t, "post1", post.ID)
		assert.Equal(t, "First Post", post.Title)
		assert.Equal(t, "Owi Odo", post.Author.Name)
		assert.Len(t, post.Body, 1)
		require.Len(t, post.Comments, 1)
		assert.Equal(t, "c1", post.Comments[0].ID)
		for _, c := range post.Comments {
			assert.True(t, c.Approved)
			assert.Equal(t, post.ID, c.Post.Ref)
		}
	})

	t.Run("dangling author resolves to empty", func(t *testing.T) {
		post, err := store.GetPostBySlug(ctx, "second-post")
		require.NoError(t, err)
		assert.Empty(t, post.Author.Name)
		require.Len(t, post.Comments, 1)
		assert.Equal(t, "c3", post.Comments[0].ID)
	})

	t.Run("unknown slug", func(t *testing.T) {
		_, err := store.GetPostBySlug(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := store.GetPostBySlug(cctx, "first-post")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestBadgerContentStore_ListPostPaths(t *testing.T) {
	store := seedStore(t)

	paths, err := store.ListPostPaths(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.PostPath{
		{ID: "post1", Slug: models.Slug{Type: "slug", Current: "first-post"}},
		{ID: "post2", Slug: models.Slug{Type: "slug", Current: "second-post"}},
	}, paths)
}

func TestBadgerContentStore_ListPosts(t *testing.T) {
	store := seedStore(t)

	posts, err := store.ListPosts(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "post2", posts[0].ID, "newest first")
	assert.Equal(t, "post1", posts[1].ID)
	assert.Equal(t, "Owi Odo", posts[1].Author.Name)
	assert.Nil(t, posts[1].Body)
	assert.Nil(t, posts[1].Comments)
}

func TestBadgerContentStore_CreateComment(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()

	t.Run("creates exactly one unapproved comment", func(t *testing.T) {
		before, err := store.ListComments(ctx, "post1")
		require.NoError(t, err)

		doc := models.CommentInput{PostID: "post1", Name: "A", Email: "a@x.com", Comment: "hi"}.Document()
		created, err := store.CreateComment(ctx, doc)
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.False(t, created.Approved)
		assert.Equal(t, "post1", created.Post.Ref)
		assert.Equal(t, "comment", created.Type)
		assert.False(t, created.CreatedAt.IsZero())

		after, err := store.ListComments(ctx, "post1")
		require.NoError(t, err)
		assert.Len(t, after, len(before)+1)

		// Not visible until approved
		post, err := store.GetPostBySlug(ctx, "first-post")
		require.NoError(t, err)
		for _, c := range post.Comments {
			assert.NotEqual(t, created.ID, c.ID)
		}
	})

	t.Run("rejects dangling post reference without writing", func(t *testing.T) {
		doc := models.CommentInput{PostID: "ghost", Name: "A", Email: "a@x.com", Comment: "hi"}.Document()
		_, err := store.CreateComment(ctx, doc)
		assert.ErrorIs(t, err, ErrValidation)

		comments, err := store.ListComments(ctx, "ghost")
		require.NoError(t, err)
		assert.Empty(t, comments)
	})

	t.Run("rejects invalid fields", func(t *testing.T) {
		doc := models.CommentInput{PostID: "post1", Name: "", Email: "a@x.com", Comment: "hi"}.Document()
		_, err := store.CreateComment(ctx, doc)
		assert.True(t, errors.Is(err, ErrValidation))
	})
}

func TestBadgerContentStore_PutPost(t *testing.T) {
	store := NewBadgerContentStore(setupTestDB(t))
	ctx := context.Background()

	t.Run("assigns id and created time", func(t *testing.T) {
		post := &models.PostDocument{Title: "Fresh", Slug: models.Slug{Current: "fresh"}}
		require.NoError(t, store.PutPost(post))
		assert.NotEmpty(t, post.ID)
		assert.False(t, post.CreatedAt.IsZero())
	})

	t.Run("slug change moves the index", func(t *testing.T) {
		post := &models.PostDocument{ID: "p-move", Title: "Moving", Slug: models.Slug{Current: "old-slug"}}
		require.NoError(t, store.PutPost(post))

		post.Slug.Current = "new-slug"
		require.NoError(t, store.PutPost(post))

		_, err := store.GetPostBySlug(ctx, "old-slug")
		assert.ErrorIs(t, err, ErrNotFound)
		got, err := store.GetPostBySlug(ctx, "new-slug")
		require.NoError(t, err)
		assert.Equal(t, "p-move", got.ID)
	})

	t.Run("duplicate slug rejected", func(t *testing.T) {
		other := &models.PostDocument{ID: "p-other", Title: "Other", Slug: models.Slug{Current: "new-slug"}}
		err := store.PutPost(other)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("invalid post rejected", func(t *testing.T) {
		err := store.PutPost(&models.PostDocument{Slug: models.Slug{Current: "untitled"}})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestBadgerContentStore_PutComment(t *testing.T) {
	store := NewBadgerContentStore(setupTestDB(t))

	err := store.PutComment(&models.Comment{Name: "orphan"})
	assert.ErrorIs(t, err, ErrValidation)

	c := &models.Comment{Post: models.Reference{Ref: "p1"}, Name: "A", Approved: true}
	require.NoError(t, store.PutComment(c))
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "comment", c.Type)
	assert.Equal(t, "reference", c.Post.Type)
}
