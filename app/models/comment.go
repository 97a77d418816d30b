package models

import (
	"errors"
	"strings"
)

const (
	CommentType   = "comment"
	ReferenceType = "reference"
)

// VisibleOn reports whether the comment may be shown on the given post.
func (c *Comment) VisibleOn(postID string) bool {
	return c.Approved && c.Post.Ref != "" && c.Post.Ref == postID
}

// Document converts the submitted payload into a comment document
// referencing the target post.
func (in CommentInput) Document() *CommentDocument {
	return &CommentDocument{
		Type: CommentType,
		Post: Reference{
			Type: ReferenceType,
			Ref:  in.PostID,
		},
		Name:    in.Name,
		Email:   in.Email,
		Comment: in.Comment,
	}
}

// Validate checks if the comment document meets all validation requirements
func (d *CommentDocument) Validate() error {
	if d == nil {
		return errors.New("comment cannot be nil")
	}
	if strings.TrimSpace(d.Post.Ref) == "" {
		return errors.New("post reference cannot be empty")
	}
	return validate.Struct(d)
}
