package listing

import (
	"strconv"

	"homilet-backend/internal/domain"
)

// FilterState holds the listing view's active filters. "all" (or an unset
// price bound) means the predicate passes everything.
type FilterState struct {
	PropertyType string
	ListingType  string
	BHKType      string
	MinPrice     *float64
	MaxPrice     *float64
}

// DefaultFilters is the no-category state: everything passes.
func DefaultFilters() FilterState {
	return FilterState{PropertyType: "all", ListingType: "all", BHKType: "all"}
}

// CategoryDefaults returns the full filter state for a category switch.
// Switching category replaces the whole state, not just the changed field;
// no-category/dashboard resets everything.
func CategoryDefaults(category string) FilterState {
	f := DefaultFilters()
	switch category {
	case "homes":
		f.PropertyType = "house"
	case "rent":
		f.ListingType = TypeRent
	case "sale":
		f.ListingType = TypeSale
	case "lands":
		f.PropertyType = "land"
	}
	return f
}

// Contradictory reports whether the price bounds can never both hold
// (MinPrice > MaxPrice). Such a state is not rejected: the conjunction simply
// matches nothing, and callers may warn the user.
func (f FilterState) Contradictory() bool {
	return f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice
}

// Active reports whether any filter deviates from the defaults.
func (f FilterState) Active() bool {
	return f.PropertyType != "all" || f.ListingType != "all" || f.BHKType != "all" ||
		f.MinPrice != nil || f.MaxPrice != nil
}

// Matches applies every predicate as a pure AND. Predicates are independent;
// evaluation order is for readability only.
func (f FilterState) Matches(p *domain.Property) bool {
	if f.PropertyType != "all" && p.PropertyType != f.PropertyType {
		return false
	}
	if f.ListingType != "all" {
		// Normalize both sides: the stored value and the filter value may
		// arrive through different code paths with different raw encodings.
		if NormalizeListingType(p.ListingType) != NormalizeListingType(f.ListingType) {
			return false
		}
	}
	if f.BHKType != "all" {
		want, err := strconv.Atoi(f.BHKType)
		if err != nil {
			return false
		}
		if BedroomCount(p.Bedrooms, p.Title) != want {
			return false
		}
	}
	// A property with no price is excluded by any active price bound, never
	// silently included.
	if f.MinPrice != nil && (p.Price == nil || *p.Price < *f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && (p.Price == nil || *p.Price > *f.MaxPrice) {
		return false
	}
	return true
}

// Filter returns the properties passing every active predicate.
func Filter(properties []domain.Property, state FilterState) []domain.Property {
	out := make([]domain.Property, 0, len(properties))
	for i := range properties {
		if state.Matches(&properties[i]) {
			out = append(out, properties[i])
		}
	}
	return out
}

// RevealThreshold is how many cards a section shows before the view-more
// toggle; expansion is purely client-side, no server round-trip.
const RevealThreshold = 9

// Sections partitions survivors into the five fixed property-type buckets,
// preserving input order within each bucket.
func Sections(properties []domain.Property) map[string][]domain.Property {
	out := make(map[string][]domain.Property, len(domain.PropertyTypes))
	for _, t := range domain.PropertyTypes {
		out[t] = []domain.Property{}
	}
	for i := range properties {
		t := properties[i].PropertyType
		if _, ok := out[t]; ok {
			out[t] = append(out[t], properties[i])
		}
	}
	return out
}

// Visible returns the slice of a section to display given its expanded state.
func Visible(section []domain.Property, expanded bool) []domain.Property {
	if expanded || len(section) <= RevealThreshold {
		return section
	}
	return section[:RevealThreshold]
}
