package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"inkpress/app/models"
	"inkpress/app/pagecache"
	"inkpress/app/repositories/mock"
	"inkpress/app/richtext"
	"inkpress/app/services"
	"inkpress/app/views"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testBody() []models.Block {
	return []models.Block{
		{Type: "block", Style: "h1", Children: []models.Span{{Type: "span", Text: "Heading"}}},
		{Type: "block", Style: "normal", Children: []models.Span{{Type: "span", Text: "Paragraph"}}},
		{
			Type:     "block",
			Style:    "normal",
			Children: []models.Span{{Type: "span", Text: "docs", Marks: []string{"l1"}}},
			MarkDefs: []models.MarkDef{{Key: "l1", Type: "link", Href: "https://example.com"}},
		},
	}
}

func setupTestStore() *mock.ContentStore {
	store := mock.NewContentStore()
	store.AddPost(&models.Post{
		ID:        "post1",
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Title:     "First post",
		Slug:      models.Slug{Current: "first-post"},
		Author:    models.Author{Name: "Ann"},
		Body:      testBody(),
	})
	store.AddPost(&models.Post{
		ID:        "post2",
		CreatedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Title:     "Second post",
		Slug:      models.Slug{Current: "second-post"},
	})
	store.AddComment(&models.Comment{ID: "c1", Post: models.Reference{Ref: "post1"}, Name: "Bob", Comment: "Approved remark", Approved: true})
	store.AddComment(&models.Comment{ID: "c2", Post: models.Reference{Ref: "post1"}, Name: "Eve", Comment: "Pending remark"})
	return store
}

func setupTestTemplates(t *testing.T) *views.Templates {
	t.Helper()
	renderer := richtext.NewRenderer(nil)
	tmpl, err := views.Load(views.Helpers{RichText: renderer.Render})
	require.NoError(t, err)
	return tmpl
}

func setupTestPostController(t *testing.T, store *mock.ContentStore) (*PostController, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	pc, err := NewPostController(services.NewPostService(store), setupTestTemplates(t), time.Minute, pagecache.WithClock(clock.Now))
	require.NoError(t, err)
	t.Cleanup(pc.Close)
	return pc, clock
}

func setupRouter(pc *PostController) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/", pc.Index).Methods(http.MethodGet)
	router.HandleFunc("/post/{slug}", pc.Show).Methods(http.MethodGet)
	router.HandleFunc("/api/posts", pc.Posts).Methods(http.MethodGet)
	router.HandleFunc("/api/posts/{slug}", pc.ShowJSON).Methods(http.MethodGet)
	return router
}

func get(router http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPostController_Show(t *testing.T) {
	t.Run("renders post with approved comments only", func(t *testing.T) {
		pc, _ := setupTestPostController(t, setupTestStore())
		w := get(setupRouter(pc), "/post/first-post", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Cache-Control"), "s-maxage=60")
		assert.NotEmpty(t, w.Header().Get("ETag"))

		body := w.Body.String()
		assert.Contains(t, body, "First post")
		assert.Contains(t, body, "Approved remark")
		assert.NotContains(t, body, "Pending remark")
		assert.Contains(t, body, `<h1 class="text-2xl font-bold my-5">Heading</h1>`)
		assert.Contains(t, body, `<p class="mt-5">Paragraph</p>`)
		assert.Contains(t, body, `<a href="https://example.com" class="text-blue-500 hover:underline">docs</a>`)
		assert.Contains(t, body, `value="post1"`)
	})

	t.Run("absent slug renders not found", func(t *testing.T) {
		pc, _ := setupTestPostController(t, setupTestStore())
		w := get(setupRouter(pc), "/post/does-not-exist", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "This page could not be found.")
	})

	t.Run("store failure renders error page", func(t *testing.T) {
		store := setupTestStore()
		store.ReadErr = errors.New("store unavailable")
		pc, _ := setupTestPostController(t, store)
		w := get(setupRouter(pc), "/post/first-post", nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "Something went wrong.")
	})

	t.Run("conditional request", func(t *testing.T) {
		pc, _ := setupTestPostController(t, setupTestStore())
		router := setupRouter(pc)

		first := get(router, "/post/first-post", nil)
		etag := first.Header().Get("ETag")

		w := get(router, "/post/first-post", map[string]string{"If-None-Match": etag})
		assert.Equal(t, http.StatusNotModified, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("unknown slug at startup is rendered on demand", func(t *testing.T) {
		store := setupTestStore()
		pc, _ := setupTestPostController(t, store)
		_, err := pc.Prerender(context.Background())
		require.NoError(t, err)

		store.AddPost(&models.Post{ID: "post3", Title: "Late post", Slug: models.Slug{Current: "late-post"}})

		w := get(setupRouter(pc), "/post/late-post", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Late post")
	})
}

func TestPostController_Revalidation(t *testing.T) {
	store := setupTestStore()
	pc, clock := setupTestPostController(t, store)
	router := setupRouter(pc)

	w := get(router, "/post/first-post", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "Pending remark")

	require.True(t, store.Approve("c2"))

	clock.Advance(59 * time.Second)
	w = get(router, "/post/first-post", nil)
	assert.NotContains(t, w.Body.String(), "Pending remark")

	clock.Advance(time.Second)
	w = get(router, "/post/first-post", nil)
	assert.Contains(t, w.Body.String(), "Pending remark")
}

func TestPostController_StalePageServedWhenStoreFails(t *testing.T) {
	store := setupTestStore()
	pc, clock := setupTestPostController(t, store)
	router := setupRouter(pc)

	require.Equal(t, http.StatusOK, get(router, "/post/first-post", nil).Code)

	store.ReadErr = errors.New("store unavailable")
	clock.Advance(2 * time.Minute)

	w := get(router, "/post/first-post", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "First post")
}

func TestPostController_Prerender(t *testing.T) {
	store := setupTestStore()
	pc, _ := setupTestPostController(t, store)

	n, err := pc.Prerender(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// Pages are served from the cache afterwards
	reads := store.Reads
	w := get(setupRouter(pc), "/post/second-post", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, reads, store.Reads)

	store.ReadErr = errors.New("down")
	_, err = pc.Prerender(context.Background())
	assert.Error(t, err)
}

func TestPostController_Index(t *testing.T) {
	pc, _ := setupTestPostController(t, setupTestStore())
	w := get(setupRouter(pc), "/", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `href="/post/first-post"`)
	assert.Contains(t, body, `href="/post/second-post"`)
}

func TestPostController_JSON(t *testing.T) {
	pc, _ := setupTestPostController(t, setupTestStore())
	router := setupRouter(pc)

	t.Run("show", func(t *testing.T) {
		w := get(router, "/api/posts/first-post", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var post models.Post
		require.NoError(t, json.NewDecoder(w.Body).Decode(&post))
		assert.Equal(t, "post1", post.ID)
		require.Len(t, post.Comments, 1)
		assert.Equal(t, "c1", post.Comments[0].ID)
	})

	t.Run("show missing", func(t *testing.T) {
		w := get(router, "/api/posts/nope", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"message":"Post not found"}`, w.Body.String())
	})

	t.Run("list", func(t *testing.T) {
		w := get(router, "/api/posts", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var out struct {
			Posts []models.Post `json:"posts"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
		require.Len(t, out.Posts, 2)
		assert.Equal(t, "post2", out.Posts[0].ID)
	})
}

func TestEtagMatches(t *testing.T) {
	tests := []struct {
		header string
		want   bool
	}{
		{"", false},
		{`"abc"`, true},
		{`W/"abc"`, true},
		{`"x", "abc"`, true},
		{"*", true},
		{`"other"`, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, etagMatches(tt.header, `"abc"`), tt.header)
	}
}
