// Package models contains data structures for the application's domain models.
package models

// User is a registered account together with its embedded posts.
type User struct {
	Username       string  `bson:"username" json:"username"`
	HashedPassword string  `bson:"hashed_password" json:"-"`
	FullName       *string `bson:"full_name" json:"full_name"`
	Posts          []Post  `bson:"posts" json:"posts"`
}

// PostsOrEmpty returns the user's posts, never nil, so handlers always encode a JSON array.
func (u *User) PostsOrEmpty() []Post {
	if u == nil || u.Posts == nil {
		return []Post{}
	}
	return u.Posts
}
