package server

import (
	"postblog/internal/models"
	"postblog/internal/service"

	"github.com/gofiber/fiber/v2"
)

type postRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// CreatePost handles POST /posts
// @Summary Create post
// @Description Add a post to the caller's account. Both fields are optional.
// @Tags posts
// @Accept json
// @Produce json
// @Param request body object{title=string,description=string} false "New post"
// @Success 200 {object} object{message=string,post_id=string}
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req postRequest
	// Both fields are optional, so an empty body creates an empty post.
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return respondError(c, models.NewValidationError("Invalid request body"))
		}
	}

	post, err := s.postService.Create(c.UserContext(), service.CreatePostInput{
		Username:    currentUser(c).Username,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Post created successfully",
		"post_id": post.PostID,
	})
}

// GetPosts handles GET /posts
// @Summary List posts
// @Description List every post of every user
// @Tags posts
// @Produce json
// @Success 200 {array} models.Post
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	posts, err := s.postService.ListAll(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// GetMyPosts handles GET /my-posts
// @Summary List my posts
// @Tags posts
// @Produce json
// @Success 200 {array} models.Post
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /my-posts [get]
func (s *Server) GetMyPosts(c *fiber.Ctx) error {
	return c.JSON(s.postService.ListMine(currentUser(c)))
}

// UpdatePost handles PATCH /posts/:post_id. Fields sent as null count as absent.
// @Summary Update post
// @Tags posts
// @Accept json
// @Produce json
// @Param post_id path string true "Post ID"
// @Param request body models.PostPatch true "Fields to change"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{post_id} [patch]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	if len(c.Body()) == 0 {
		return respondError(c, models.ErrEmptyUpdate)
	}

	var patch models.PostPatch
	if err := c.BodyParser(&patch); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	err := s.postService.Update(c.UserContext(), service.UpdatePostInput{
		Username: currentUser(c).Username,
		PostID:   c.Params("post_id"),
		Patch:    patch,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Post updated"})
}

// DeletePost handles DELETE /posts/:post_id
// @Summary Delete post
// @Tags posts
// @Produce json
// @Param post_id path string true "Post ID"
// @Success 200 {object} object{message=string}
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{post_id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	err := s.postService.Delete(c.UserContext(), service.DeletePostInput{
		Username: currentUser(c).Username,
		PostID:   c.Params("post_id"),
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Post deleted"})
}

// GetPostAuthor handles GET /posts/:post_id/author
// @Summary Post author
// @Description Full name of the user owning the post
// @Tags posts
// @Produce json
// @Param post_id path string true "Post ID"
// @Success 200 {object} object{full_name=string}
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /posts/{post_id}/author [get]
func (s *Server) GetPostAuthor(c *fiber.Ctx) error {
	fullName, err := s.postService.Author(c.UserContext(), c.Params("post_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"full_name": fullName})
}
