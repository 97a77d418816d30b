package routes

import (
	"net/http"

	"inkpress/app/controllers"
	"inkpress/app/middleware"

	"github.com/gorilla/mux"
)

// SetupRoutes defines the application's routes and returns a router.
func SetupRoutes(postController *controllers.PostController, commentController *controllers.CommentController) *mux.Router {
	router := mux.NewRouter()

	// Apply global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.HandleFunc("/healthz", controllers.Health).Methods(http.MethodGet)

	// API routes with JSON content type
	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.ContentTypeJSON)
	api.HandleFunc("/createComment", commentController.Create).Methods(http.MethodPost)
	api.HandleFunc("/posts", postController.Posts).Methods(http.MethodGet)
	api.HandleFunc("/posts/{slug}", postController.ShowJSON).Methods(http.MethodGet)
	api.NotFoundHandler = http.HandlerFunc(controllers.APINotFound)

	// Web routes
	router.HandleFunc("/", postController.Index).Methods(http.MethodGet)
	router.HandleFunc("/post/{slug}", postController.Show).Methods(http.MethodGet)
	router.NotFoundHandler = http.HandlerFunc(postController.NotFound)

	return router
}
