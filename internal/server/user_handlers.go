package server

import (
	"mime"

	"glimpse/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	user, err := s.userService.GetUserByID(c.UserContext(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/users/me (multipart; avatar part optional)
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	in := service.UpdateProfileInput{
		UserID:   userID,
		Username: c.FormValue("username"),
		Name:     c.FormValue("name"),
		Bio:      c.FormValue("bio"),
	}

	// JSON bodies carry the same fields for callers without an avatar.
	// The header may carry parameters ("application/json; charset=utf-8"),
	// so compare the parsed media type.
	mediaType, _, _ := mime.ParseMediaType(c.Get(fiber.HeaderContentType))
	if len(c.Body()) > 0 && mediaType == fiber.MIMEApplicationJSON {
		var req struct {
			Username string `json:"username"`
			Name     string `json:"name"`
			Bio      string `json:"bio"`
		}
		if err := c.BodyParser(&req); err == nil {
			in.Username = req.Username
			in.Name = req.Name
			in.Bio = req.Bio
		}
	} else {
		filename, contentType, content, err := readFormImage(c, "avatar")
		if err != nil {
			return respondServiceError(c, err)
		}
		in.AvatarFilename = filename
		in.AvatarContentType = contentType
		in.AvatarContent = content
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), in)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// GetAllUsers handles GET /api/users
func (s *Server) GetAllUsers(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", service.DefaultPageSize)
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	users, err := s.userService.ListUsers(c.UserContext(), limit, offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"documents": users})
}

// GetUserProfile handles GET /api/users/:id
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.GetUserByID(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// GetUserByUsername handles GET /api/users/username/:username
func (s *Server) GetUserByUsername(c *fiber.Ctx) error {
	username := c.Params("username")

	user, err := s.userService.GetUserByUsername(c.UserContext(), username)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// GetUserPosts handles GET /api/users/:id/posts
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	currentUserID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	p := parsePagination(c)

	page, err := s.postService.GetUserPosts(c.UserContext(), id, p.Cursor, p.Limit, currentUserID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(pageResponse(page))
}

// PromoteToAdmin handles POST /api/users/:id/promote-admin
func (s *Server) PromoteToAdmin(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.SetAdmin(c.UserContext(), id, true)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// DemoteFromAdmin handles POST /api/users/:id/demote-admin
func (s *Server) DemoteFromAdmin(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.SetAdmin(c.UserContext(), id, false)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}
