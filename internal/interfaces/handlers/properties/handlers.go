package properties

import (
	"encoding/json"
	"strconv"
	"strings"

	propsvc "homilet-backend/internal/application/properties"
	"homilet-backend/internal/domain"
	"homilet-backend/internal/middleware"
	"homilet-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *propsvc.Service
}

type propertyBody struct {
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	PropertyType string          `json:"property_type"`
	ListingType  string          `json:"listing_type"`
	Price        *float64        `json:"price"`
	Bedrooms     *int            `json:"bedrooms"`
	Bathrooms    *int            `json:"bathrooms"`
	Area         *float64        `json:"area"`
	Address      string          `json:"address"`
	City         string          `json:"city"`
	State        string          `json:"state"`
	Pincode      string          `json:"pincode"`
	Amenities    json.RawMessage `json:"amenities"`
	Images       []string        `json:"images"`
	Latitude     string          `json:"latitude"`
	Longitude    string          `json:"longitude"`
	OwnerName    string          `json:"owner_name"`
	OwnerMobile  string          `json:"owner_mobile"`
}

// amenities arrive either as a JSON array or as a JSON-string-wrapped array
// from multipart form submissions.
func parseAmenities(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if json.Unmarshal(raw, &list) == nil {
		return list
	}
	var s string
	if json.Unmarshal(raw, &s) == nil && s != "" {
		if json.Unmarshal([]byte(s), &list) == nil {
			return list
		}
		return []string{s}
	}
	return nil
}

// bodyFromForm maps a multipart submission onto the same shape the JSON path
// uses. Numeric fields come in as strings.
func bodyFromForm(c *fiber.Ctx) propertyBody {
	var b propertyBody
	b.Title = c.FormValue("title")
	b.Description = c.FormValue("description")
	b.PropertyType = c.FormValue("property_type")
	b.ListingType = c.FormValue("listing_type")
	b.Address = c.FormValue("address")
	b.City = c.FormValue("city")
	b.State = c.FormValue("state")
	b.Pincode = c.FormValue("pincode")
	b.Latitude = c.FormValue("latitude")
	b.Longitude = c.FormValue("longitude")
	b.OwnerName = c.FormValue("owner_name")
	b.OwnerMobile = c.FormValue("owner_mobile")
	if v := c.FormValue("price"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			b.Price = &f
		}
	}
	if v := c.FormValue("bedrooms"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			b.Bedrooms = &n
		}
	}
	if v := c.FormValue("bathrooms"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			b.Bathrooms = &n
		}
	}
	if v := c.FormValue("area"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			b.Area = &f
		}
	}
	if v := c.FormValue("amenities"); v != "" {
		b.Amenities, _ = json.Marshal(v)
	}
	if form, err := c.MultipartForm(); err == nil {
		b.Images = form.Value["images"]
	}
	return b
}

// POST /api/properties — 201 with { success, message, property }
func (h *Handlers) CreateProperty(c *fiber.Ctx) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return response.Unauthorized(c)
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return response.Unauthorized(c)
	}

	var body propertyBody
	if strings.HasPrefix(c.Get("Content-Type"), "multipart/form-data") {
		body = bodyFromForm(c)
	} else if err := json.Unmarshal(c.Body(), &body); err != nil {
		return response.Error(c, "Invalid request body", 400)
	}

	prop, err := h.Service.CreateProperty(c.Context(), propsvc.CreateInput{
		Title:        body.Title,
		Description:  body.Description,
		PropertyType: body.PropertyType,
		ListingType:  body.ListingType,
		Price:        body.Price,
		Bedrooms:     body.Bedrooms,
		Bathrooms:    body.Bathrooms,
		Area:         body.Area,
		Address:      body.Address,
		City:         body.City,
		State:        body.State,
		Pincode:      body.Pincode,
		Amenities:    parseAmenities(body.Amenities),
		Images:       body.Images,
		Latitude:     body.Latitude,
		Longitude:    body.Longitude,
		OwnerName:    body.OwnerName,
		OwnerMobile:  body.OwnerMobile,
		CreatedBy:    userID,
	})
	if err != nil {
		return response.Error(c, err.Error(), 400)
	}
	return c.Status(201).JSON(fiber.Map{"success": true, "message": "Property created successfully", "property": prop})
}

// GET /api/properties — { success, message, properties }
func (h *Handlers) GetAllProperties(c *fiber.Ctx) error {
	props, err := h.Service.GetAllProperties(c.Context())
	if err != nil {
		return response.ErrorCoded(c, "Failed to fetch properties", 500, response.ErrCodeDB)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Properties fetched successfully", "properties": props})
}

// GET /api/properties/search?query=&category=&fields=title,description
func (h *Handlers) SearchProperties(c *fiber.Ctx) error {
	query := c.Query("query")
	category := c.Query("category")
	var fields []string
	if f := c.Query("fields"); f != "" {
		for _, part := range strings.Split(f, ",") {
			if part = strings.TrimSpace(part); part != "" {
				fields = append(fields, part)
			}
		}
	}

	props, err := h.Service.Search(c.Context(), query, category, fields)
	if err != nil {
		return response.ErrorCoded(c, "Search failed", 500, response.ErrCodeDB)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Search completed", "properties": props, "count": len(props)})
}

// GET /api/properties/user — the caller's own listings
func (h *Handlers) GetUserProperties(c *fiber.Ctx) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return response.Unauthorized(c)
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return response.Unauthorized(c)
	}
	props, err := h.Service.GetUserProperties(c.Context(), userID)
	if err != nil {
		return response.ErrorCoded(c, "Failed to fetch properties", 500, response.ErrCodeDB)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Properties fetched successfully", "properties": props})
}

// GET /api/properties/:id — owner contact masked for guests and anonymous viewers
func (h *Handlers) GetProperty(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid property id", 400)
	}

	claims := middleware.GetClaims(c)
	mask := claims == nil || claims.Role != domain.RoleUser

	prop, err := h.Service.GetPropertyByID(c.Context(), id, mask)
	if err != nil {
		if err == propsvc.ErrNotFound {
			return response.Error(c, "Property not found", 404)
		}
		return response.ErrorCoded(c, "Failed to fetch property", 500, response.ErrCodeDB)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Property fetched successfully", "property": prop})
}

// PUT /api/properties/:id — owner only
func (h *Handlers) UpdateProperty(c *fiber.Ctx) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return response.Unauthorized(c)
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return response.Unauthorized(c)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid property id", 400)
	}

	var body struct {
		Title       *string         `json:"title"`
		Description *string         `json:"description"`
		ListingType *string         `json:"listing_type"`
		Price       *float64        `json:"price"`
		Bedrooms    *int            `json:"bedrooms"`
		Bathrooms   *int            `json:"bathrooms"`
		Area        *float64        `json:"area"`
		Address     *string         `json:"address"`
		City        *string         `json:"city"`
		State       *string         `json:"state"`
		Pincode     *string         `json:"pincode"`
		Amenities   json.RawMessage `json:"amenities"`
		Images      []string        `json:"images"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return response.Error(c, "Invalid request body", 400)
	}

	prop, err := h.Service.UpdateProperty(c.Context(), id, userID, propsvc.UpdateInput{
		Title:       body.Title,
		Description: body.Description,
		ListingType: body.ListingType,
		Price:       body.Price,
		Bedrooms:    body.Bedrooms,
		Bathrooms:   body.Bathrooms,
		Area:        body.Area,
		Address:     body.Address,
		City:        body.City,
		State:       body.State,
		Pincode:     body.Pincode,
		Amenities:   parseAmenities(body.Amenities),
		Images:      body.Images,
	})
	if err != nil {
		switch err {
		case propsvc.ErrNotFound:
			return response.Error(c, "Property not found", 404)
		case propsvc.ErrUnauthorized:
			return response.Error(c, "You can only edit your own properties", 403)
		default:
			return response.Error(c, err.Error(), 400)
		}
	}
	return c.JSON(fiber.Map{"success": true, "message": "Property updated successfully", "property": prop})
}

// DELETE /api/properties/:id — owner only
func (h *Handlers) DeleteProperty(c *fiber.Ctx) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return response.Unauthorized(c)
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return response.Unauthorized(c)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid property id", 400)
	}

	if err := h.Service.DeleteProperty(c.Context(), id, userID); err != nil {
		switch err {
		case propsvc.ErrNotFound:
			return response.Error(c, "Property not found", 404)
		case propsvc.ErrUnauthorized:
			return response.Error(c, "You can only delete your own properties", 403)
		default:
			return response.ErrorCoded(c, "Failed to delete property", 500, response.ErrCodeDB)
		}
	}
	return response.Success(c, "Property deleted successfully", nil)
}
