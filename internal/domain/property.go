package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StringList stores a JSON array column but tolerates every shape the API has
// historically produced for images/amenities: a JSON array, a JSON-encoded
// string of an array, a bare string (single URL), or null. All coercion lives
// here so view and service code only ever see []string.
type StringList []string

// MarshalJSON always emits an array, never null.
func (s StringList) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(s))
}

// UnmarshalJSON accepts array, quoted-JSON-array string, bare string, or null.
func (s *StringList) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*s = arr
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = coerceString(single)
		return nil
	}
	if string(data) == "null" {
		*s = nil
		return nil
	}
	return errors.New("unsupported shape for string list")
}

// Scan implements sql.Scanner for reading from DB (json column).
func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return s.UnmarshalJSON(v)
	case string:
		return s.UnmarshalJSON([]byte(v))
	default:
		return errors.New("unsupported type for StringList")
	}
}

// Value implements driver.Valuer for writing to DB.
func (s StringList) Value() (driver.Value, error) {
	b, err := s.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func coerceString(in string) []string {
	if in == "" {
		return nil
	}
	// May itself be a JSON-encoded array ("[\"a\",\"b\"]" stored as text).
	var arr []string
	if err := json.Unmarshal([]byte(in), &arr); err == nil {
		return arr
	}
	return []string{in}
}

// Property matches the properties table consumed by the listing views.
// ListingType is normalized at ingest (listing.NormalizeListingType); the
// stored value is authoritative for comparisons.
type Property struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Title        string         `gorm:"column:title;not null" json:"title"`
	Description  string         `gorm:"column:description" json:"description"`
	PropertyType string         `gorm:"column:property_type;type:varchar(20);not null" json:"property_type"`
	ListingType  string         `gorm:"column:listing_type;type:varchar(20)" json:"listing_type"`
	Price        *float64       `gorm:"column:price;type:decimal(14,2)" json:"price,omitempty"`
	Bedrooms     *int           `gorm:"column:bedrooms" json:"bedrooms,omitempty"`
	Bathrooms    *int           `gorm:"column:bathrooms" json:"bathrooms,omitempty"`
	Area         *float64       `gorm:"column:area;type:decimal(12,2)" json:"area,omitempty"`
	Address      string         `gorm:"column:address" json:"address"`
	City         string         `gorm:"column:city" json:"city"`
	State        string         `gorm:"column:state" json:"state"`
	Pincode      string         `gorm:"column:pincode" json:"pincode"`
	Amenities    StringList     `gorm:"column:amenities;type:json" json:"amenities"`
	Images       StringList     `gorm:"column:images;type:json" json:"images"`
	Latitude     *float64       `gorm:"column:latitude;type:decimal(11,8)" json:"latitude,omitempty"`
	Longitude    *float64       `gorm:"column:longitude;type:decimal(11,8)" json:"longitude,omitempty"`
	OwnerName    string         `gorm:"column:owner_name" json:"owner_name"`
	OwnerMobile  string         `gorm:"column:owner_mobile" json:"owner_mobile"`
	CreatedBy    uuid.UUID      `gorm:"column:created_by;type:uuid;not null" json:"created_by"`
	CreatedAt    time.Time      `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt    time.Time      `gorm:"column:updatedAt" json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Property) TableName() string {
	return "Properties"
}

// BeforeCreate sets id if not already set (DBs without default uuid).
func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PropertyTypes are the five fixed display buckets.
var PropertyTypes = []string{"house", "apartment", "villa", "land", "commercial"}

// ValidPropertyType reports whether t is one of the fixed buckets.
func ValidPropertyType(t string) bool {
	for _, pt := range PropertyTypes {
		if t == pt {
			return true
		}
	}
	return false
}
