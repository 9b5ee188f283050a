package service

import (
	"context"

	"postblog/internal/models"
	"postblog/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PostService struct {
	userRepo repository.UserRepository
	newID    func() string
}

type CreatePostInput struct {
	Username    string
	Title       *string
	Description *string
}

type UpdatePostInput struct {
	Username string
	PostID   string
	Patch    models.PostPatch
}

type DeletePostInput struct {
	Username string
	PostID   string
}

func NewPostService(userRepo repository.UserRepository) *PostService {
	return &PostService{
		userRepo: userRepo,
		newID:    func() string { return primitive.NewObjectID().Hex() },
	}
}

// Create appends a new post to the author's list.
func (s *PostService) Create(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	post := models.Post{
		PostID:      s.newID(),
		Title:       in.Title,
		Description: in.Description,
		Author:      in.Username,
	}

	modified, err := s.userRepo.AppendPost(ctx, in.Username, post)
	if err != nil {
		return nil, err
	}
	if modified == 0 {
		return nil, models.ErrWriteFailure.WithMessage("Failed to create post")
	}
	return &post, nil
}

// ListAll returns every post of every user, grouped by owner.
func (s *PostService) ListAll(ctx context.Context) ([]models.Post, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	posts := []models.Post{}
	for i := range users {
		posts = append(posts, users[i].Posts...)
	}
	return posts, nil
}

// ListMine returns the posts of an already resolved user.
func (s *PostService) ListMine(user *models.User) []models.Post {
	return user.PostsOrEmpty()
}

func (s *PostService) Update(ctx context.Context, in UpdatePostInput) error {
	if in.Patch.IsEmpty() {
		return models.ErrEmptyUpdate
	}

	matched, err := s.userRepo.UpdatePost(ctx, in.Username, in.PostID, in.Patch)
	if err != nil {
		return err
	}
	if matched == 0 {
		return models.ErrPostNotFound
	}
	return nil
}

func (s *PostService) Delete(ctx context.Context, in DeletePostInput) error {
	modified, err := s.userRepo.RemovePost(ctx, in.Username, in.PostID)
	if err != nil {
		return err
	}
	if modified == 0 {
		return models.ErrPostNotFound
	}
	return nil
}

// Author returns the full name of the user owning postID. Post IDs are
// expected to be globally unique; a second owner is reported instead of
// picking one.
func (s *PostService) Author(ctx context.Context, postID string) (*string, error) {
	owners, err := s.userRepo.FindPostOwners(ctx, postID, 2)
	if err != nil {
		return nil, err
	}
	switch len(owners) {
	case 0:
		return nil, models.ErrPostNotFound.WithMessage("Post not found")
	case 1:
		return owners[0].FullName, nil
	default:
		return nil, models.ErrAmbiguousPost
	}
}
