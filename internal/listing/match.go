package listing

import (
	"strconv"
	"strings"

	"homilet-backend/internal/domain"
)

// MatchesQuery reports whether a property matches a free-text search query.
//
// A query containing a BHK token ("2bhk", "3 BHK") is a BHK-specific search:
// it matches only on the title's BHK digit or the bedrooms field, never
// falling through to substring matching. Otherwise the query is a
// case-insensitive substring match against title, description, or city.
// A property with no title never matches.
func MatchesQuery(p *domain.Property, query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	if p.Title == "" {
		return false
	}

	if digit, ok := QueryBHK(query); ok {
		if m := bhkRe.FindStringSubmatch(p.Title); m != nil && m[1] == digit {
			return true
		}
		if p.Bedrooms != nil && strconv.Itoa(*p.Bedrooms) == digit {
			return true
		}
		return false
	}

	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(p.Title), q) ||
		strings.Contains(strings.ToLower(p.Description), q) ||
		strings.Contains(strings.ToLower(p.City), q)
}

// Search runs MatchesQuery over a collection. Full scan; the data set is
// small enough that no index is warranted.
func Search(properties []domain.Property, query string) []domain.Property {
	out := make([]domain.Property, 0, len(properties))
	for i := range properties {
		if MatchesQuery(&properties[i], query) {
			out = append(out, properties[i])
		}
	}
	return out
}
