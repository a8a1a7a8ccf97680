package collection

import "github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"

// View holds the filter state of one listing collection screen. Facets are
// recomputed and the page reset only when the base slice changes.
type View struct {
	base   []*domain.Listing
	facets []Facet
	query  Query
	schema *domain.Schema
}

type ViewOption func(*View)

// WithDeclaredFacets offers only the schema's filterable attributes.
func WithDeclaredFacets(schema domain.Schema) ViewOption {
	return func(v *View) { v.schema = &schema }
}

func NewView(listings []*domain.Listing, opts ...ViewOption) *View {
	v := &View{query: Query{Filters: map[string]string{}, PageSize: DefaultPageSize}}
	for _, opt := range opts {
		opt(v)
	}
	v.load(listings)
	return v
}

func sameSlice(a, b []*domain.Listing) bool {
	if len(a) != len(b) || cap(a) != cap(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}

// Reset swaps the base listings. Passing the slice already held is a no-op.
func (v *View) Reset(listings []*domain.Listing) {
	if sameSlice(v.base, listings) && v.base != nil {
		return
	}
	v.load(listings)
}

func (v *View) load(listings []*domain.Listing) {
	v.base = listings
	if v.schema != nil {
		v.facets = DeclaredFacets(listings, *v.schema)
	} else {
		v.facets = DeriveFacets(listings)
	}
	v.query.Page = 0
}

func (v *View) Facets() []Facet { return v.facets }

func (v *View) Query() Query { return v.query }

func (v *View) SetSearch(search string) { v.query.Search = search }

func (v *View) SetFilter(key, value string) {
	if value == "" || value == AllValues {
		delete(v.query.Filters, key)
		return
	}
	v.query.Filters[key] = value
}

func (v *View) SetPriceRange(min, max *float64) {
	v.query.MinPrice = min
	v.query.MaxPrice = max
}

func (v *View) SetPage(page int) { v.query.Page = page }

func (v *View) SetPageSize(size int) { v.query.PageSize = NormalizePageSize(size) }

// Current returns the visible page for the current state.
func (v *View) Current() Page {
	p := Paginate(Filter(v.base, v.query), v.query.Page, v.query.PageSize)
	p.Facets = v.facets
	return p
}
