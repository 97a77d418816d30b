package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"inkpress/app/controllers"
	"inkpress/app/models"
	"inkpress/app/repositories"
	"inkpress/app/richtext"
	"inkpress/app/services"
	"inkpress/app/views"

	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *badger.DB {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// setupTestStore seeds a badger store with one author, two posts and a mix
// of approved and pending comments.
func setupTestStore(t *testing.T) *repositories.BadgerContentStore {
	store := repositories.NewBadgerContentStore(setupTestDB(t))
	require.NoError(t, store.Seed(&repositories.SeedData{
		Authors: []*models.AuthorDocument{{ID: "author1", Name: "Ann"}},
		Posts: []*models.PostDocument{
			{
				ID:     "post1",
				Title:  "Test Post",
				Slug:   models.Slug{Current: "test-post"},
				Author: models.Reference{Ref: "author1"},
				Body: []models.Block{{
					Type:     "block",
					Style:    "h2",
					Children: []models.Span{{Type: "span", Text: "Section"}},
				}},
			},
			{ID: "post2", Title: "Other Post", Slug: models.Slug{Current: "other-post"}},
		},
		Comments: []*models.Comment{
			{ID: "c1", Post: models.Reference{Ref: "post1"}, Name: "Bob", Comment: "Visible comment", Approved: true},
			{ID: "c2", Post: models.Reference{Ref: "post1"}, Name: "Eve", Comment: "Hidden comment"},
		},
	}))
	return store
}

func setupTestRouter(t *testing.T, store repositories.ContentStore) *mux.Router {
	t.Helper()

	tmpl, err := views.Load(views.Helpers{RichText: richtext.NewRenderer(nil).Render})
	require.NoError(t, err)

	postController, err := controllers.NewPostController(services.NewPostService(store), tmpl, time.Minute)
	require.NoError(t, err)
	t.Cleanup(postController.Close)

	commentController := controllers.NewCommentController(services.NewCommentService(store, nil))
	return SetupRoutes(postController, commentController)
}

func doRequest(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
