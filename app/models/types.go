package models

import "time"

// Reference points at another document in the content store.
type Reference struct {
	Type string `json:"_type,omitempty"`
	Ref  string `json:"_ref" validate:"required"`
}

// Slug is the URL-safe identifier of a post.
type Slug struct {
	Type    string `json:"_type,omitempty"`
	Current string `json:"current"`
}

// Image is an image field whose asset lives in the store's asset pipeline.
type Image struct {
	Type  string    `json:"_type,omitempty"`
	Asset Reference `json:"asset" validate:"-"`
	Alt   string    `json:"alt,omitempty"`
}

// Author is the author of a post, resolved into the post at query time.
type Author struct {
	Name  string `json:"name"`
	Image Image  `json:"image"`
}

// Post represents a blog post together with its approved comments.
type Post struct {
	ID          string     `json:"_id"`
	CreatedAt   time.Time  `json:"_createdAt"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Slug        Slug       `json:"slug"`
	MainImage   Image      `json:"mainImage"`
	Author      Author     `json:"author"`
	Body        []Block    `json:"body"`
	Comments    []*Comment `json:"comments"`
}

// PostPath is one entry of the slug enumeration.
type PostPath struct {
	ID   string `json:"_id"`
	Slug Slug   `json:"slug"`
}

// Comment is a reader comment as stored in the content store.
type Comment struct {
	ID        string    `json:"_id"`
	Type      string    `json:"_type"`
	CreatedAt time.Time `json:"_createdAt"`
	Post      Reference `json:"post"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Comment   string    `json:"comment"`
	Approved  bool      `json:"approved"`
}

// CommentInput is the payload submitted by the comment form.
type CommentInput struct {
	PostID  string `json:"_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Comment string `json:"comment"`
}

// CommentDocument is the write shape of a new comment. The approval flag is
// deliberately absent so the store default (unapproved) applies.
type CommentDocument struct {
	Type    string    `json:"_type" validate:"eq=comment"`
	Post    Reference `json:"post"`
	Name    string    `json:"name" validate:"required,max=100"`
	Email   string    `json:"email" validate:"required,email,max=254"`
	Comment string    `json:"comment" validate:"required,max=5000"`
}

// AuthorDocument is an author as persisted by the embedded store.
type AuthorDocument struct {
	ID    string `json:"_id"`
	Name  string `json:"name" validate:"required"`
	Image Image  `json:"image"`
}

// PostDocument is a post as persisted by the embedded store; the author is
// kept as a reference and resolved on read.
type PostDocument struct {
	ID          string    `json:"_id"`
	CreatedAt   time.Time `json:"_createdAt"`
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description"`
	Slug        Slug      `json:"slug"`
	MainImage   Image     `json:"mainImage"`
	Author      Reference `json:"author" validate:"-"`
	Body        []Block   `json:"body"`
}
