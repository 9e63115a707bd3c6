package client

import (
	"sync"

	"homilet-backend/internal/domain"
	"homilet-backend/internal/listing"
)

// ListingView is the browse page's state: the property collection, the
// active filters, per-section expansion, and an optional search override.
type ListingView struct {
	mu       sync.RWMutex
	all      []domain.Property
	filters  listing.FilterState
	search   []domain.Property
	searchOn bool
	expanded map[string]bool
}

func NewListingView() *ListingView {
	return &ListingView{
		filters:  listing.DefaultFilters(),
		expanded: make(map[string]bool),
	}
}

// SetProperties replaces the backing collection (fresh fetch).
func (v *ListingView) SetProperties(props []domain.Property) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.all = props
}

// SetCategory resets the whole filter state to the category's defaults.
// Previous filter tweaks do not survive a category switch.
func (v *ListingView) SetCategory(category string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filters = listing.CategoryDefaults(category)
	v.expanded = make(map[string]bool)
}

// SetFilters installs an explicit filter state.
func (v *ListingView) SetFilters(f listing.FilterState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filters = f
}

// Filters returns the current filter state.
func (v *ListingView) Filters() listing.FilterState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.filters
}

// ApplySearch overrides the filtered view with search results until
// ClearSearch. An empty result set still overrides (shows "no results").
func (v *ListingView) ApplySearch(results []domain.Property) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.search = results
	v.searchOn = true
}

// ClearSearch drops the search override and returns to the filtered view.
func (v *ListingView) ClearSearch() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.search = nil
	v.searchOn = false
}

// SearchActive reports whether a search override is in effect.
func (v *ListingView) SearchActive() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.searchOn
}

// Properties returns what the page shows: search results when a search is
// active, the filtered collection otherwise.
func (v *ListingView) Properties() []domain.Property {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.searchOn {
		return v.search
	}
	return listing.Filter(v.all, v.filters)
}

// SectionView is one titled bucket on the browse page.
type SectionView struct {
	Name     string
	Items    []domain.Property
	Total    int
	Expanded bool
}

// Sections buckets the visible properties, truncating collapsed sections at
// the reveal threshold. Search mode has no sections.
func (v *ListingView) Sections() []SectionView {
	props := v.Properties()

	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.searchOn {
		return nil
	}

	buckets := listing.Sections(props)
	out := make([]SectionView, 0, len(domain.PropertyTypes))
	for _, name := range domain.PropertyTypes {
		items := buckets[name]
		expanded := v.expanded[name]
		out = append(out, SectionView{
			Name:     name,
			Items:    listing.Visible(items, expanded),
			Total:    len(items),
			Expanded: expanded,
		})
	}
	return out
}

// ToggleSection flips a section between truncated and fully revealed.
func (v *ListingView) ToggleSection(name string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.expanded[name] = !v.expanded[name]
}
