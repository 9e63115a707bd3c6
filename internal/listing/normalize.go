package listing

import (
	"regexp"
	"strconv"
	"strings"
)

// Canonical listing types. Anything else passes through lower-cased and is
// treated as unknown by consumers.
const (
	TypeRent    = "rent"
	TypeSale    = "sale"
	TypeUnknown = "unknown"
)

var saleTerms = map[string]struct{}{
	"sale": {}, "sell": {}, "buy": {}, "purchase": {},
	"selling": {}, "forsale": {}, "for-sale": {}, "for sale": {},
}

var rentTerms = map[string]struct{}{
	"rent": {}, "rental": {}, "renting": {}, "lease": {},
	"forrent": {}, "for-rent": {}, "for rent": {},
}

// NormalizeListingType maps free-text listing-type values ("Sell", " FOR RENT ",
// "Lease") onto "rent" or "sale". Unrecognised non-empty
// values pass through lower-cased and trimmed; empty input yields "unknown".
//
// Listing types arrive through several paths (DB rows, multipart form fields,
// filter dropdowns) with different raw encodings, so both sides of every
// comparison must go through this function. Applied once at ingest the result
// is authoritative for the stored record; filter values are normalized again
// at compare time.
func NormalizeListingType(raw string) string {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return TypeUnknown
	}
	if _, ok := saleTerms[normalized]; ok {
		return TypeSale
	}
	if _, ok := rentTerms[normalized]; ok {
		return TypeRent
	}
	return normalized
}

// bhkRe matches "3BHK", "3 bhk", "3-BHK" in titles and queries.
var bhkRe = regexp.MustCompile(`(?i)(\d+)\s*-?\s*bhk`)

// BedroomCount derives the bedroom count for BHK filtering. Order: the numeric
// bedrooms field when present and positive, else the leading integer of a BHK
// token in the title, else 0 (which never matches a specific BHK filter).
func BedroomCount(bedrooms *int, title string) int {
	if bedrooms != nil && *bedrooms > 0 {
		return *bedrooms
	}
	if m := bhkRe.FindStringSubmatch(title); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return n
		}
	}
	return 0
}

// QueryBHK extracts the digit of a BHK token from a search query, if any.
// Returns the digits as a string plus whether the query is a BHK search.
func QueryBHK(query string) (string, bool) {
	m := bhkRe.FindStringSubmatch(strings.TrimSpace(query))
	if m == nil {
		return "", false
	}
	return m[1], true
}
