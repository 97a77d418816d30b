package models

import (
	"errors"
	"time"
)

// Validate checks if the post document meets all validation requirements
func (p *PostDocument) Validate() error {
	if err := validate.Struct(p); err != nil {
		return err
	}
	if p.Slug.Current == "" {
		return errors.New("slug cannot be empty")
	}
	return nil
}

// BeforeCreate sets up any necessary fields before creation
func (p *PostDocument) BeforeCreate() {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.Slug.Type == "" {
		p.Slug.Type = "slug"
	}
}

// Validate checks the author document.
func (a *AuthorDocument) Validate() error {
	return validate.Struct(a)
}

// VisibleComments returns the comments readers may see: approved ones that
// reference this post.
func (p *Post) VisibleComments() []*Comment {
	visible := make([]*Comment, 0, len(p.Comments))
	for _, c := range p.Comments {
		if c != nil && c.VisibleOn(p.ID) {
			visible = append(visible, c)
		}
	}
	return visible
}

// Path returns the page path of the post.
func (p *Post) Path() string {
	return "/post/" + p.Slug.Current
}
