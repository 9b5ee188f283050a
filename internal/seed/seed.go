// Package seed provides helpers to create demo users and posts for
// development and testing.
package seed

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"postblog/internal/auth"
	"postblog/internal/middleware"
	"postblog/internal/models"
	"postblog/internal/repository"
	"postblog/internal/service"

	"github.com/brianvoe/gofakeit/v6"
)

// DefaultPassword is the password every seeded user gets.
const DefaultPassword = "password123"

var usernameStrip = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// Options controls how much data the seeder creates.
type Options struct {
	NumUsers     int
	PostsPerUser int
}

// Seeder creates users with embedded posts through the regular repository and services.
type Seeder struct {
	users  repository.UserRepository
	hasher *auth.PasswordHasher
	posts  *service.PostService
	faker  *gofakeit.Faker
}

// NewSeeder returns a Seeder writing to users. A non-zero seed makes the
// generated data reproducible.
func NewSeeder(users repository.UserRepository, hasher *auth.PasswordHasher, seed int64) *Seeder {
	return &Seeder{
		users:  users,
		hasher: hasher,
		posts:  service.NewPostService(users),
		faker:  gofakeit.New(seed),
	}
}

// Run creates opts.NumUsers users, each with opts.PostsPerUser posts.
// Usernames that already exist are skipped.
func (s *Seeder) Run(ctx context.Context, opts Options) ([]models.User, error) {
	hashed, err := s.hasher.Hash(DefaultPassword)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	created := make([]models.User, 0, opts.NumUsers)
	for len(created) < opts.NumUsers {
		username := s.username()
		existing, err := s.users.GetByUsername(ctx, username)
		if err != nil {
			return created, err
		}
		if existing != nil {
			continue
		}

		fullName := s.faker.Name()
		user := models.User{
			Username:       username,
			HashedPassword: hashed,
			FullName:       &fullName,
			Posts:          []models.Post{},
		}
		if err := s.users.Create(ctx, &user); err != nil {
			return created, fmt.Errorf("create user %s: %w", username, err)
		}

		for i := 0; i < opts.PostsPerUser; i++ {
			title := s.faker.Sentence(5)
			description := s.faker.Paragraph(1, 3, 12, " ")
			post, err := s.posts.Create(ctx, service.CreatePostInput{
				Username:    username,
				Title:       &title,
				Description: &description,
			})
			if err != nil {
				return created, fmt.Errorf("create post for %s: %w", username, err)
			}
			user.Posts = append(user.Posts, *post)
		}

		created = append(created, user)
	}

	middleware.Logger.InfoContext(ctx, "seeded demo data",
		"users", len(created),
		"posts_per_user", opts.PostsPerUser,
	)
	return created, nil
}

// username returns a generated username that passes registration validation.
func (s *Seeder) username() string {
	name := usernameStrip.ReplaceAllString(s.faker.Username(), "")
	if len(name) > 40 {
		name = name[:40]
	}
	return strings.ToLower(fmt.Sprintf("%s_%d", name, s.faker.Number(100, 9999)))
}
