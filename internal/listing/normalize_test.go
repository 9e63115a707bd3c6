package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeListingType_SaleTerms(t *testing.T) {
	for _, raw := range []string{"sale", "Sell", "BUY", "purchase", "Selling", "forsale", "for-sale", "for sale", "  SALE  ", "\tFor Sale\n"} {
		assert.Equal(t, TypeSale, NormalizeListingType(raw), "raw=%q", raw)
	}
}

func TestNormalizeListingType_RentTerms(t *testing.T) {
	for _, raw := range []string{"rent", "Rental", "RENTING", "lease", "forrent", "for-rent", "For Rent", " rent "} {
		assert.Equal(t, TypeRent, NormalizeListingType(raw), "raw=%q", raw)
	}
}

func TestNormalizeListingType_PassThrough(t *testing.T) {
	assert.Equal(t, "auction", NormalizeListingType("Auction"))
	assert.Equal(t, "1", NormalizeListingType(" 1 "))
	assert.Equal(t, "true", NormalizeListingType("TRUE"))

	// Near-synonyms outside the canonical tables are not coerced; they pass
	// through lower-cased and trimmed like any other unrecognised value.
	assert.Equal(t, "to-let", NormalizeListingType("To-Let"))
	assert.Equal(t, "to let", NormalizeListingType(" To Let "))
	assert.Equal(t, "let", NormalizeListingType("LET"))
	assert.Equal(t, "tolet", NormalizeListingType("tolet"))
}

func TestNormalizeListingType_Empty(t *testing.T) {
	assert.Equal(t, TypeUnknown, NormalizeListingType(""))
	assert.Equal(t, TypeUnknown, NormalizeListingType("   "))
}

func TestBedroomCount_FieldWins(t *testing.T) {
	two := 2
	assert.Equal(t, 2, BedroomCount(&two, "Spacious 3BHK Flat"))
}

func TestBedroomCount_TitleFallback(t *testing.T) {
	assert.Equal(t, 3, BedroomCount(nil, "Spacious 3BHK Flat"))
	assert.Equal(t, 2, BedroomCount(nil, "2 BHK near station"))
	assert.Equal(t, 4, BedroomCount(nil, "4-bhk duplex"))
}

func TestBedroomCount_ZeroWhenUnknown(t *testing.T) {
	zero := 0
	assert.Equal(t, 0, BedroomCount(nil, "Villa with pool"))
	assert.Equal(t, 0, BedroomCount(&zero, "Villa with pool"))
}

func TestQueryBHK(t *testing.T) {
	d, ok := QueryBHK("2bhk")
	assert.True(t, ok)
	assert.Equal(t, "2", d)

	d, ok = QueryBHK("  3 BHK flat ")
	assert.True(t, ok)
	assert.Equal(t, "3", d)

	_, ok = QueryBHK("house near park")
	assert.False(t, ok)
}
