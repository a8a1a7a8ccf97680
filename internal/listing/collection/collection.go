// Package collection filters, facets and paginates an in-memory set of
// listings. Nothing here touches storage.
package collection

import (
	"sort"
	"strconv"
	"strings"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
)

// AllValues disables a facet filter.
const AllValues = "all"

const DefaultPageSize = 10

// PageSizes are the page sizes a caller may choose from.
var PageSizes = []int{10, 20, 50}

// excludedFacetKeys are never offered as facets even when scalar.
var excludedFacetKeys = map[string]bool{
	domain.KeyID:          true,
	domain.KeyListingType: true,
	domain.KeyCreatedAt:   true,
	domain.KeyUpdatedAt:   true,
	domain.KeyPrice:       true,
	domain.KeyUserID:      true,
	domain.KeyDescription: true,
}

type Facet struct {
	Key    string   `json:"key"`
	Values []string `json:"values"`
}

type Query struct {
	Search   string
	Filters  map[string]string // facet key -> exact value; AllValues or "" bypass
	MinPrice *float64
	MaxPrice *float64
	Page     int // zero-based
	PageSize int
}

type Page struct {
	Items     []*domain.Listing `json:"items"`
	Total     int               `json:"total"`
	Page      int               `json:"page"`
	PageSize  int               `json:"pageSize"`
	PageCount int               `json:"pageCount"`
	Facets    []Facet           `json:"facets"`
}

func scalarString(v interface{}) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	}
	return "", false
}

// DeriveFacets scans every listing for scalar attributes outside the
// exclusion set and collects their observed values. Facets with a single
// value are kept. Keys and values come back sorted.
func DeriveFacets(listings []*domain.Listing) []Facet {
	observed := map[string]map[string]struct{}{}
	for _, l := range listings {
		for key, raw := range l.ScalarAttributes() {
			if excludedFacetKeys[key] {
				continue
			}
			v, ok := scalarString(raw)
			if !ok || v == "" {
				continue
			}
			if observed[key] == nil {
				observed[key] = map[string]struct{}{}
			}
			observed[key][v] = struct{}{}
		}
	}
	return toFacets(observed)
}

// DeclaredFacets restricts facets to the keys a schema marks filterable.
func DeclaredFacets(listings []*domain.Listing, schema domain.Schema) []Facet {
	observed := map[string]map[string]struct{}{}
	for _, key := range schema.FilterableKeys() {
		observed[key] = map[string]struct{}{}
	}
	for _, l := range listings {
		for key := range observed {
			if v, ok := l.Attribute(key); ok && v != "" {
				observed[key][v] = struct{}{}
			}
		}
	}
	for key, values := range observed {
		if len(values) == 0 {
			delete(observed, key)
		}
	}
	return toFacets(observed)
}

func toFacets(observed map[string]map[string]struct{}) []Facet {
	facets := make([]Facet, 0, len(observed))
	for key, set := range observed {
		values := make([]string, 0, len(set))
		for v := range set {
			values = append(values, v)
		}
		sort.Strings(values)
		facets = append(facets, Facet{Key: key, Values: values})
	}
	sort.Slice(facets, func(i, j int) bool { return facets[i].Key < facets[j].Key })
	return facets
}

func matchesSearch(l *domain.Listing, search string) bool {
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(l.Name), strings.ToLower(search))
}

func matchesFacets(l *domain.Listing, filters map[string]string) bool {
	for key, want := range filters {
		if want == "" || want == AllValues {
			continue
		}
		got, ok := l.Attribute(key)
		if !ok || got != want {
			return false
		}
	}
	return true
}

// matchesPrice applies inclusive bounds. A listing without a price only
// passes when both bounds are empty.
func matchesPrice(l *domain.Listing, min, max *float64) bool {
	if min == nil && max == nil {
		return true
	}
	if l.Price == nil {
		return false
	}
	if min != nil && *l.Price < *min {
		return false
	}
	if max != nil && *l.Price > *max {
		return false
	}
	return true
}

// Filter runs search, facet filters and the price range, keeping order.
func Filter(listings []*domain.Listing, q Query) []*domain.Listing {
	out := make([]*domain.Listing, 0, len(listings))
	for _, l := range listings {
		if matchesSearch(l, q.Search) && matchesFacets(l, q.Filters) && matchesPrice(l, q.MinPrice, q.MaxPrice) {
			out = append(out, l)
		}
	}
	return out
}

// NormalizePageSize maps anything outside PageSizes to DefaultPageSize.
func NormalizePageSize(size int) int {
	for _, s := range PageSizes {
		if s == size {
			return size
		}
	}
	return DefaultPageSize
}

// Paginate slices items into the requested page, clamping the page number
// into range.
func Paginate(items []*domain.Listing, page, pageSize int) Page {
	pageSize = NormalizePageSize(pageSize)
	pageCount := (len(items) + pageSize - 1) / pageSize
	if page >= pageCount {
		page = pageCount - 1
	}
	if page < 0 {
		page = 0
	}
	start := page * pageSize
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return Page{
		Items:     items[start:end],
		Total:     len(items),
		Page:      page,
		PageSize:  pageSize,
		PageCount: pageCount,
	}
}

// Apply runs the whole pipeline and attaches facets derived from the
// unfiltered input.
func Apply(listings []*domain.Listing, q Query) Page {
	p := Paginate(Filter(listings, q), q.Page, q.PageSize)
	p.Facets = DeriveFacets(listings)
	return p
}
