package server

import (
	"glimpse/internal/models"
	"glimpse/internal/service"

	"github.com/gofiber/fiber/v2"
)

// FileUploadResponse is the API response after uploading a file.
type FileUploadResponse struct {
	ID         uint   `json:"id"`
	Hash       string `json:"hash"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	SizeBytes  int64  `json:"size_bytes"`
	MimeType   string `json:"mime_type"`
	URL        string `json:"url"`
	PreviewURL string `json:"preview_url"`
}

// UploadFile handles POST /api/files
func (s *Server) UploadFile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	filename, contentType, content, err := readFormImage(c, "file")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}
	if len(content) == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("No file uploaded"))
	}

	file, err := s.fileService.Upload(c.UserContext(), service.UploadFileInput{
		UserID:      userID,
		Filename:    filename,
		ContentType: contentType,
		Content:     content,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(FileUploadResponse{
		ID:         file.ID,
		Hash:       file.Hash,
		Width:      file.Width,
		Height:     file.Height,
		SizeBytes:  file.SizeBytes,
		MimeType:   file.MimeType,
		URL:        s.store.OriginalURL(file.Hash),
		PreviewURL: file.PreviewURL,
	})
}

// DeleteFile handles DELETE /api/files/:id
func (s *Server) DeleteFile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	admin, err := s.isAdminByUserID(c.Context(), userID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	if err := s.fileService.Delete(c.UserContext(), userID, id, admin); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "File deleted"})
}

// ServeMedia handles GET /media/f/:hash/:name
func (s *Server) ServeMedia(c *fiber.Ctx) error {
	hash := c.Params("hash")
	name := c.Params("name")

	full, err := s.store.Resolve(hash, name)
	if err != nil {
		return respondServiceError(c, err)
	}

	// Content-addressed blobs never change; cache aggressively.
	c.Set("Cache-Control", "public, max-age=31536000, immutable")
	return c.SendFile(full)
}
