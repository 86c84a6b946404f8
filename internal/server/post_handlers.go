package server

import (
	"io"
	"mime/multipart"

	"glimpse/internal/models"
	"glimpse/internal/service"

	"github.com/gofiber/fiber/v2"
)

// readFormImage pulls the optional image part out of a multipart form.
// A missing part returns empty content and no error.
func readFormImage(c *fiber.Ctx, field string) (filename, contentType string, content []byte, err error) {
	var fileHeader *multipart.FileHeader
	fileHeader, err = c.FormFile(field)
	if err != nil {
		return "", "", nil, nil
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", "", nil, models.NewValidationError("Unable to read uploaded file")
	}
	defer func() { _ = src.Close() }()

	content, err = io.ReadAll(src)
	if err != nil {
		return "", "", nil, models.NewValidationError("Unable to read uploaded file")
	}
	return fileHeader.Filename, fileHeader.Header.Get("Content-Type"), content, nil
}

// GetPosts handles GET /api/posts (the cursor-paginated feed)
func (s *Server) GetPosts(c *fiber.Ctx) error {
	p := parsePagination(c)
	currentUserID, _ := s.optionalUserID(c)

	page, err := s.postService.Feed(c.UserContext(), p.Cursor, p.Limit, currentUserID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(pageResponse(page))
}

// GetRecentPosts handles GET /api/posts/recent
func (s *Server) GetRecentPosts(c *fiber.Ctx) error {
	p := parsePagination(c)

	posts, err := s.postService.RecentPosts(c.UserContext(), p.Limit)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"documents": posts})
}

// SearchPosts handles GET /api/posts/search?q=...
func (s *Server) SearchPosts(c *fiber.Ctx) error {
	query := c.Query("q")
	p := parsePagination(c)
	currentUserID, _ := s.optionalUserID(c)

	page, err := s.postService.SearchPosts(c.UserContext(), query, p.Cursor, p.Limit, currentUserID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(pageResponse(page))
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	currentUserID, _ := s.optionalUserID(c)

	post, err := s.postService.GetPost(c.UserContext(), id, currentUserID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(post)
}

// CreatePost handles POST /api/posts (multipart: image + caption fields)
func (s *Server) CreatePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	filename, contentType, content, err := readFormImage(c, "image")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		UserID:      userID,
		Caption:     c.FormValue("caption"),
		Tags:        c.FormValue("tags"),
		Location:    c.FormValue("location"),
		Filename:    filename,
		ContentType: contentType,
		Content:     content,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/posts/:id (multipart; image part optional)
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	filename, contentType, content, err := readFormImage(c, "image")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	post, err := s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		UserID:      userID,
		PostID:      id,
		Caption:     c.FormValue("caption"),
		Tags:        c.FormValue("tags"),
		Location:    c.FormValue("location"),
		Filename:    filename,
		ContentType: contentType,
		Content:     content,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.UserContext(), service.DeletePostInput{
		UserID: userID,
		PostID: id,
	}); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted"})
}

// LikePost handles POST /api/posts/:id/like (a toggle)
func (s *Server) LikePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.ToggleLike(c.UserContext(), userID, id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(post)
}

// UnlikePost handles DELETE /api/posts/:id/like
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.UnlikePost(c.UserContext(), userID, id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(post)
}

// SavePost handles POST /api/posts/:id/save
func (s *Server) SavePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.SavePost(c.UserContext(), userID, id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(post)
}

// UnsavePost handles DELETE /api/posts/:id/save
func (s *Server) UnsavePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.UnsavePost(c.UserContext(), userID, id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(post)
}

// GetSavedPosts handles GET /api/posts/saved
func (s *Server) GetSavedPosts(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	p := parsePagination(c)

	page, err := s.postService.SavedPosts(c.UserContext(), userID, p.Cursor, p.Limit)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(pageResponse(page))
}
