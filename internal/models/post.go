package models

// Post is a blog entry stored inside its owner's User record.
type Post struct {
	PostID      string  `bson:"post_id" json:"post_id"`
	Title       *string `bson:"title" json:"title"`
	Description *string `bson:"description" json:"description"`
	Author      string  `bson:"author" json:"author"`
}

// PostPatch carries the optional fields of a partial post update.
// A nil field is left untouched.
type PostPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// IsEmpty reports whether the patch would change nothing.
func (p PostPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil
}

// Apply copies the patch's set fields onto post.
func (p PostPatch) Apply(post *Post) {
	if p.Title != nil {
		title := *p.Title
		post.Title = &title
	}
	if p.Description != nil {
		description := *p.Description
		post.Description = &description
	}
}
