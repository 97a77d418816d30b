package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"inkpress/app/models"
	"inkpress/app/pagecache"
	"inkpress/app/repositories"
	"inkpress/app/services"
	"inkpress/app/views"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const (
	indexPath  = "/"
	postPrefix = "/post/"
)

// PostController serves the home page and the post pages. Rendered pages
// are cached and regenerated once they are older than the revalidation
// interval.
type PostController struct {
	postService *services.PostService
	templates   *views.Templates
	pages       *pagecache.Cache
}

// NewPostController creates a new PostController
func NewPostController(postService *services.PostService, templates *views.Templates, revalidate time.Duration, opts ...pagecache.Option) (*PostController, error) {
	pc := &PostController{
		postService: postService,
		templates:   templates,
	}

	pages, err := pagecache.New(pc.renderPage, revalidate, opts...)
	if err != nil {
		return nil, err
	}
	pc.pages = pages
	return pc, nil
}

func (pc *PostController) Close() {
	pc.pages.Close()
}

// Index handles the home page
func (pc *PostController) Index(w http.ResponseWriter, r *http.Request) {
	pc.serve(w, r, indexPath)
}

// Show handles a post page. Slugs not seen at startup are rendered on
// demand.
func (pc *PostController) Show(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]
	pc.serve(w, r, postPrefix+slug)
}

// ShowJSON returns a post with its approved comments as JSON
func (pc *PostController) ShowJSON(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]

	post, err := pc.postService.GetPost(r.Context(), slug)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		sendJSON(w, http.StatusNotFound, response{Message: "Post not found"})
	case err != nil:
		log.Errorf("[PostController] failed to fetch post %q: %v", slug, err)
		sendJSON(w, http.StatusInternalServerError, response{Message: "Couldn't fetch the post", Error: errorDetail(err)})
	default:
		sendJSON(w, http.StatusOK, post)
	}
}

// Prerender renders the home page and every enumerated post page ahead of
// the first request. Pages that fail are logged and left to on-demand
// rendering.
func (pc *PostController) Prerender(ctx context.Context) (int, error) {
	paths, err := pc.postService.Paths(ctx)
	if err != nil {
		return 0, err
	}

	keys := make([]string, 0, len(paths)+1)
	keys = append(keys, indexPath)
	for _, p := range paths {
		keys = append(keys, postPrefix+p.Slug.Current)
	}

	rendered := 0
	for _, key := range keys {
		if err := pc.pages.Prime(ctx, key); err != nil {
			log.Warnf("[PostController] failed to pre-render %s: %v", key, err)
			continue
		}
		rendered++
	}
	log.Infof("[PostController] pre-rendered %d of %d pages", rendered, len(keys))
	return rendered, nil
}

func (pc *PostController) serve(w http.ResponseWriter, r *http.Request, key string) {
	page, err := pc.pages.Get(r.Context(), key)
	switch {
	case errors.Is(err, pagecache.ErrNoPage):
		renderStatus(w, pc.templates, http.StatusNotFound)
		return
	case err != nil:
		log.Errorf("[PostController] failed to render %s: %v", key, err)
		renderStatus(w, pc.templates, http.StatusInternalServerError)
		return
	}

	w.Header().Set("ETag", page.ETag)
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=0, s-maxage=%d, stale-while-revalidate",
		int(pc.pages.Interval().Seconds())))

	if etagMatches(r.Header.Get("If-None-Match"), page.ETag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	sendHTML(w, http.StatusOK, page.Body)
}

// renderPage is the page cache generator. Keys are request paths.
func (pc *PostController) renderPage(ctx context.Context, key string) ([]byte, error) {
	if key == indexPath {
		posts, err := pc.postService.ListPosts(ctx)
		if err != nil {
			return nil, err
		}
		return pc.templates.Render(views.Index, views.IndexPage{Posts: posts})
	}

	slug, ok := strings.CutPrefix(key, postPrefix)
	if !ok {
		return nil, pagecache.ErrNoPage
	}

	post, err := pc.postService.GetPost(ctx, slug)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, pagecache.ErrNoPage
	}
	if err != nil {
		return nil, err
	}
	return pc.templates.Render(views.Show, views.PostPage{Post: post})
}

// etagMatches implements the If-None-Match comparison for a single strong tag.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

// Posts lists post summaries as JSON
func (pc *PostController) Posts(w http.ResponseWriter, r *http.Request) {
	posts, err := pc.postService.ListPosts(r.Context())
	if err != nil {
		log.Errorf("[PostController] failed to list posts: %v", err)
		sendJSON(w, http.StatusInternalServerError, response{Message: "Couldn't list posts", Error: errorDetail(err)})
		return
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	sendJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

// NotFound renders the 404 page for unrouted paths
func (pc *PostController) NotFound(w http.ResponseWriter, r *http.Request) {
	renderStatus(w, pc.templates, http.StatusNotFound)
}
