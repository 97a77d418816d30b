package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"inkpress/app/repositories/mock"
	"inkpress/app/repositories/sanity"
	"inkpress/app/services"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCommentRouter(store *mock.ContentStore) *mux.Router {
	cc := NewCommentController(services.NewCommentService(store, nil))
	router := mux.NewRouter()
	router.HandleFunc("/api/createComment", cc.Create).Methods(http.MethodPost)
	return router
}

func postComment(router http.Handler, body, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/createComment", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

const validComment = `{"_id":"post1","name":"Ann","email":"ann@example.com","comment":"Great read"}`

func TestCommentController_Create(t *testing.T) {
	t.Run("creates one unapproved comment", func(t *testing.T) {
		store := setupTestStore()
		before := len(store.Comments())

		w := postComment(setupCommentRouter(store), validComment, "text/plain")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"message":"Comment submitted"}`, w.Body.String())

		comments := store.Comments()
		require.Len(t, comments, before+1)
		created := comments[len(comments)-1]
		assert.Equal(t, "post1", created.Post.Ref)
		assert.Equal(t, "reference", created.Post.Type)
		assert.Equal(t, "Ann", created.Name)
		assert.Equal(t, "ann@example.com", created.Email)
		assert.Equal(t, "Great read", created.Comment)
		assert.False(t, created.Approved)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		store := setupTestStore()
		w := postComment(setupCommentRouter(store), `{"_id": "post1",`, "application/json")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp map[string]any
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "Invalid JSON", resp["message"])
		assert.NotEmpty(t, resp["error"])
		assert.Zero(t, store.Writes)
	})

	t.Run("store rejection keeps the error detail", func(t *testing.T) {
		store := setupTestStore()
		before := len(store.Comments())
		store.WriteErr = &sanity.APIError{StatusCode: 403, Type: "permissionDenied", Description: "Insufficient permissions"}

		w := postComment(setupCommentRouter(store), validComment, "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{
			"message": "Couldn't submit the comment",
			"error": {"statusCode": 403, "type": "permissionDenied", "description": "Insufficient permissions"}
		}`, w.Body.String())
		assert.Len(t, store.Comments(), before)
	})

	t.Run("plain store error", func(t *testing.T) {
		store := setupTestStore()
		store.WriteErr = errors.New("connection reset")

		w := postComment(setupCommentRouter(store), validComment, "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"message":"Couldn't submit the comment","error":"connection reset"}`, w.Body.String())
	})

	t.Run("unknown post is rejected by the store", func(t *testing.T) {
		store := setupTestStore()
		before := len(store.Comments())

		w := postComment(setupCommentRouter(store), `{"_id":"ghost","name":"A","email":"a@b.c","comment":"x"}`, "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Len(t, store.Comments(), before)
	})

	t.Run("only POST is routed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/createComment", nil)
		w := httptest.NewRecorder()
		setupCommentRouter(setupTestStore()).ServeHTTP(w, req)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	Health(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
