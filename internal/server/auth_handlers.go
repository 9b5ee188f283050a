package server

import (
	"postblog/internal/auth"
	"postblog/internal/models"
	"postblog/internal/service"

	"github.com/gofiber/fiber/v2"
)

const tokenTypeBearer = "bearer"

// Register handles POST /register
// @Summary Register
// @Description Create an account and start a session. The token is also set as the "token" cookie.
// @Tags auth
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body object{username=string,password=string,full_name=string} true "Registration request"
// @Success 200 {object} models.TokenResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		Username string  `json:"username" form:"username"`
		Password string  `json:"password" form:"password"`
		FullName *string `json:"full_name" form:"full_name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	issued, err := s.authService.Register(c.UserContext(), service.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		return respondError(c, err)
	}

	return s.respondWithToken(c, issued)
}

// Login handles POST /login. Both JSON and form-encoded credentials are accepted.
// @Summary Log in
// @Description Exchange credentials for a session token. The token is also set as the "token" cookie.
// @Tags auth
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body object{username=string,password=string} true "Login request"
// @Success 200 {object} models.TokenResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username" form:"username"`
		Password string `json:"password" form:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	issued, err := s.authService.Login(c.UserContext(), service.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return respondError(c, err)
	}

	return s.respondWithToken(c, issued)
}

// Logout handles POST /logout. The presented token is revoked and the cookie cleared.
// @Summary Log out
// @Description Revoke the presented session token and clear the session cookie
// @Tags auth
// @Produce json
// @Param token query string false "Session token"
// @Success 200 {object} object{message=string}
// @Failure 500 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	token := explicitToken(c)
	if token == "" {
		token = c.Cookies(sessionCookie)
	}

	if err := s.authService.Logout(c.UserContext(), token); err != nil {
		return respondError(c, err)
	}

	s.clearSessionCookie(c)
	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

func (s *Server) respondWithToken(c *fiber.Ctx, issued auth.IssuedToken) error {
	s.setSessionCookie(c, issued.Token, issued.ExpiresAt)
	return c.JSON(models.TokenResponse{
		AccessToken: issued.Token,
		TokenType:   tokenTypeBearer,
	})
}
