package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetUsers handles GET /users. Password hashes are never serialized.
// @Summary List users
// @Tags users
// @Produce json
// @Success 200 {array} models.User
// @Router /users [get]
func (s *Server) GetUsers(c *fiber.Ctx) error {
	users, err := s.userService.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}
