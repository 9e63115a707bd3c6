package uploads

import (
	"encoding/json"

	uploadsvc "homilet-backend/internal/application/uploads"
	"homilet-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *uploadsvc.Service
}

// POST /api/uploads/signed-url — signed PUT URL for one listing photo
func (h *Handlers) GetSignedUploadURL(c *fiber.Ctx) error {
	var body struct {
		FileName string `json:"fileName"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return response.Error(c, "Invalid request body", 400)
	}
	if body.FileName == "" {
		return response.Error(c, "Missing required field: fileName", 400)
	}

	res, err := h.Service.GetSignedUploadURL(c.Context(), body.FileName)
	if err != nil {
		if err == uploadsvc.ErrUnsupportedImageType {
			return response.Error(c, err.Error(), 400)
		}
		return response.Error(c, "Failed to create upload URL", 500)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Upload URL created", "data": res})
}
