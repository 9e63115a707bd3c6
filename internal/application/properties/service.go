package properties

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"homilet-backend/internal/domain"
	"homilet-backend/internal/listing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	listCacheKey = "properties:all"
	listCacheTTL = 5 * time.Minute
)

var (
	ErrNotFound     = errors.New("Property not found")
	ErrUnauthorized = errors.New("Unauthorized")
)

type Service struct {
	DB  *gorm.DB
	Rdb *redis.Client // optional; nil disables the list cache
}

type CreateInput struct {
	Title        string
	Description  string
	PropertyType string
	ListingType  string
	Price        *float64
	Bedrooms     *int
	Bathrooms    *int
	Area         *float64
	Address      string
	City         string
	State        string
	Pincode      string
	Amenities    []string
	Images       []string
	Latitude     string // fixed 8-decimal strings on the wire
	Longitude    string
	OwnerName    string
	OwnerMobile  string
	CreatedBy    uuid.UUID
}

// CreateProperty validates, normalizes the listing type at ingest, and stores
// the property. The stored listing_type is authoritative from here on.
func (s *Service) CreateProperty(ctx context.Context, in CreateInput) (*domain.Property, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, errors.New("Missing required field: title")
	}
	if !domain.ValidPropertyType(in.PropertyType) {
		return nil, fmt.Errorf("Invalid property_type: %q", in.PropertyType)
	}
	if in.Price != nil && *in.Price < 0 {
		return nil, errors.New("Price must be a non-negative number")
	}
	if in.Area != nil && *in.Area <= 0 {
		return nil, errors.New("Area must be a positive number")
	}
	lat, err := parseCoordinate(in.Latitude, 90)
	if err != nil {
		return nil, errors.New("Invalid latitude")
	}
	lng, err := parseCoordinate(in.Longitude, 180)
	if err != nil {
		return nil, errors.New("Invalid longitude")
	}

	p := &domain.Property{
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		PropertyType: in.PropertyType,
		ListingType:  listing.NormalizeListingType(in.ListingType),
		Price:        in.Price,
		Bedrooms:     in.Bedrooms,
		Bathrooms:    in.Bathrooms,
		Area:         in.Area,
		Address:      in.Address,
		City:         in.City,
		State:        in.State,
		Pincode:      in.Pincode,
		Amenities:    in.Amenities,
		Images:       in.Images,
		Latitude:     lat,
		Longitude:    lng,
		OwnerName:    in.OwnerName,
		OwnerMobile:  in.OwnerMobile,
		CreatedBy:    in.CreatedBy,
	}
	if err := s.DB.WithContext(ctx).Create(p).Error; err != nil {
		return nil, fmt.Errorf("Failed to create property: %v", err)
	}
	s.invalidateListCache(ctx)
	return p, nil
}

// GetAllProperties returns every listing, cache-aside through Redis.
func (s *Service) GetAllProperties(ctx context.Context) ([]domain.Property, error) {
	if s.Rdb != nil {
		if b, err := s.Rdb.Get(ctx, listCacheKey).Bytes(); err == nil {
			var cached []domain.Property
			if json.Unmarshal(b, &cached) == nil {
				return cached, nil
			}
		}
	}
	var props []domain.Property
	if err := s.DB.WithContext(ctx).Order(`"createdAt" DESC`).Find(&props).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch properties: %v", err)
	}
	if s.Rdb != nil {
		if b, err := json.Marshal(props); err == nil {
			if err := s.Rdb.Set(ctx, listCacheKey, b, listCacheTTL).Err(); err != nil {
				log.Warn().Err(err).Msg("property list cache write failed")
			}
		}
	}
	return props, nil
}

// Search runs the same matcher the listing views use over the full
// collection, narrowed by category defaults and, optionally, to specific
// fields. Full scan; no index.
func (s *Service) Search(ctx context.Context, query, category string, fields []string) ([]domain.Property, error) {
	props, err := s.GetAllProperties(ctx)
	if err != nil {
		return nil, err
	}
	state := listing.CategoryDefaults(category)
	out := make([]domain.Property, 0, len(props))
	for i := range props {
		if !state.Matches(&props[i]) {
			continue
		}
		if len(fields) > 0 {
			if !matchesFields(&props[i], query, fields) {
				continue
			}
		} else if !listing.MatchesQuery(&props[i], query) {
			continue
		}
		out = append(out, props[i])
	}
	return out, nil
}

// matchesFields restricts substring matching to the requested fields. BHK
// queries keep their exclusive semantics regardless of fields.
func matchesFields(p *domain.Property, query string, fields []string) bool {
	if _, ok := listing.QueryBHK(query); ok {
		return listing.MatchesQuery(p, query)
	}
	if p.Title == "" {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, f := range fields {
		switch f {
		case "title":
			if strings.Contains(strings.ToLower(p.Title), q) {
				return true
			}
		case "description":
			if strings.Contains(strings.ToLower(p.Description), q) {
				return true
			}
		case "location":
			if strings.Contains(strings.ToLower(p.City), q) ||
				strings.Contains(strings.ToLower(p.Address), q) ||
				strings.Contains(strings.ToLower(p.State), q) {
				return true
			}
		case "price":
			if p.Price != nil && strings.Contains(strconv.FormatFloat(*p.Price, 'f', -1, 64), q) {
				return true
			}
		case "amenities":
			for _, a := range p.Amenities {
				if strings.Contains(strings.ToLower(a), q) {
					return true
				}
			}
		}
	}
	return false
}

// GetPropertyByID returns one property. When maskContact is set (guest or
// anonymous viewer) the owner's mobile is reduced to its first three digits.
func (s *Service) GetPropertyByID(ctx context.Context, id uuid.UUID, maskContact bool) (*domain.Property, error) {
	var p domain.Property
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if maskContact {
		p.OwnerMobile = maskMobile(p.OwnerMobile)
	}
	return &p, nil
}

// GetUserProperties returns the owner's listings, newest first.
func (s *Service) GetUserProperties(ctx context.Context, userID uuid.UUID) ([]domain.Property, error) {
	var props []domain.Property
	if err := s.DB.WithContext(ctx).Where("created_by = ?", userID).Order(`"createdAt" DESC`).Find(&props).Error; err != nil {
		return nil, err
	}
	return props, nil
}

type UpdateInput struct {
	Title       *string
	Description *string
	ListingType *string
	Price       *float64
	Bedrooms    *int
	Bathrooms   *int
	Area        *float64
	Address     *string
	City        *string
	State       *string
	Pincode     *string
	Amenities   []string
	Images      []string
}

// UpdateProperty applies owner-scoped partial updates. Listing type is
// re-normalized on the way in.
func (s *Service) UpdateProperty(ctx context.Context, id, userID uuid.UUID, in UpdateInput) (*domain.Property, error) {
	var p domain.Property
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if p.CreatedBy != userID {
		return nil, ErrUnauthorized
	}

	updates := map[string]interface{}{}
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, errors.New("Title cannot be empty")
		}
		updates["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.ListingType != nil {
		updates["listing_type"] = listing.NormalizeListingType(*in.ListingType)
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return nil, errors.New("Price must be a non-negative number")
		}
		updates["price"] = *in.Price
	}
	if in.Bedrooms != nil {
		updates["bedrooms"] = *in.Bedrooms
	}
	if in.Bathrooms != nil {
		updates["bathrooms"] = *in.Bathrooms
	}
	if in.Area != nil {
		if *in.Area <= 0 {
			return nil, errors.New("Area must be a positive number")
		}
		updates["area"] = *in.Area
	}
	if in.Address != nil {
		updates["address"] = *in.Address
	}
	if in.City != nil {
		updates["city"] = *in.City
	}
	if in.State != nil {
		updates["state"] = *in.State
	}
	if in.Pincode != nil {
		updates["pincode"] = *in.Pincode
	}
	if in.Amenities != nil {
		updates["amenities"] = domain.StringList(in.Amenities)
	}
	if in.Images != nil {
		updates["images"] = domain.StringList(in.Images)
	}
	if len(updates) == 0 {
		return nil, errors.New("No valid changes provided")
	}
	if err := s.DB.WithContext(ctx).Model(&p).Updates(updates).Error; err != nil {
		return nil, err
	}
	s.invalidateListCache(ctx)
	s.DB.WithContext(ctx).Where("id = ?", id).First(&p)
	return &p, nil
}

// DeleteProperty removes an owner's listing.
func (s *Service) DeleteProperty(ctx context.Context, id, userID uuid.UUID) error {
	var p domain.Property
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNotFound
		}
		return err
	}
	if p.CreatedBy != userID {
		return ErrUnauthorized
	}
	if err := s.DB.WithContext(ctx).Delete(&p).Error; err != nil {
		return err
	}
	s.invalidateListCache(ctx)
	return nil
}

func (s *Service) invalidateListCache(ctx context.Context) {
	if s.Rdb == nil {
		return
	}
	if err := s.Rdb.Del(ctx, listCacheKey).Err(); err != nil {
		log.Warn().Err(err).Msg("property list cache invalidation failed")
	}
}

// parseCoordinate parses a fixed 8-decimal coordinate string, empty allowed.
func parseCoordinate(s string, bound float64) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	if v < -bound || v > bound {
		return nil, fmt.Errorf("coordinate out of range: %v", v)
	}
	return &v, nil
}

// maskMobile shows the first 3 digits followed by xxxx for guests.
func maskMobile(m string) string {
	if len(m) <= 3 {
		return m
	}
	return m[:3] + "xxxx"
}
