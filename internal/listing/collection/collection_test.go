package collection

import (
	"fmt"
	"testing"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(v float64) *float64 { return &v }

func goods(id, name string, p *float64, condition string) *domain.Listing {
	return &domain.Listing{
		ID:          id,
		UserID:      "owner-" + id,
		ListingType: domain.TypeGoods,
		Category:    "Accessories",
		Name:        name,
		Description: "desc " + id,
		Price:       p,
		Currency:    "USD",
		Attributes:  map[string]string{"condition": condition},
	}
}

func facetKeys(facets []Facet) []string {
	keys := make([]string, 0, len(facets))
	for _, f := range facets {
		keys = append(keys, f.Key)
	}
	return keys
}

func TestDeriveFacets_ExcludesReservedKeys(t *testing.T) {
	listings := []*domain.Listing{
		goods("1", "Vintage Watch", price(150), "Used"),
		goods("2", "Leather Strap", price(20), "New"),
	}

	keys := facetKeys(DeriveFacets(listings))

	for _, excluded := range []string{"id", "listingType", "createdAt", "price", "userId", "description"} {
		assert.NotContains(t, keys, excluded)
	}
	assert.Contains(t, keys, "condition")
	assert.Contains(t, keys, "currency")
	assert.Contains(t, keys, "category")
}

func TestDeriveFacets_SingleValueFacetKept(t *testing.T) {
	facets := DeriveFacets([]*domain.Listing{
		goods("1", "A", price(1), "Used"),
		goods("2", "B", price(2), "Used"),
	})
	for _, f := range facets {
		if f.Key == "condition" {
			assert.Equal(t, []string{"Used"}, f.Values)
			return
		}
	}
	t.Fatal("condition facet missing")
}

func TestDeclaredFacets_OnlyFilterableKeys(t *testing.T) {
	listings := []*domain.Listing{
		goods("1", "A", price(1), "Used"),
		goods("2", "B", price(2), "New"),
	}
	listings[0].Attributes["warranty"] = "1 year"

	facets := DeclaredFacets(listings, domain.SchemaFor(domain.TypeGoods))

	keys := facetKeys(facets)
	assert.Equal(t, []string{"category", "condition", "currency"}, keys)
	assert.NotContains(t, keys, "warranty")
	assert.NotContains(t, keys, "name")
}

func TestFilter_SearchIsCaseInsensitiveSubstringOnName(t *testing.T) {
	listings := []*domain.Listing{
		goods("1", "Vintage Watch", price(150), "Used"),
		goods("2", "Watch strap", price(20), "New"),
		goods("3", "Lamp", price(30), "New"),
	}
	listings[2].Description = "matches watch only in description"

	got := Filter(listings, Query{Search: "WATCH"})
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "2", got[1].ID)
}

func TestFilter_FacetExactMatchAndAllBypass(t *testing.T) {
	listings := []*domain.Listing{
		goods("1", "A", price(1), "Used"),
		goods("2", "B", price(2), "New"),
	}

	assert.Len(t, Filter(listings, Query{Filters: map[string]string{"condition": "Used"}}), 1)
	assert.Len(t, Filter(listings, Query{Filters: map[string]string{"condition": "use"}}), 0)
	assert.Len(t, Filter(listings, Query{Filters: map[string]string{"condition": AllValues}}), 2)
	assert.Len(t, Filter(listings, Query{Filters: map[string]string{"bedrooms": "2"}}), 0)
}

func TestFilter_PriceRangeInclusive(t *testing.T) {
	listings := []*domain.Listing{
		goods("min", "A", price(100), "Used"),
		goods("mid", "B", price(150), "Used"),
		goods("max", "C", price(200), "Used"),
		goods("out", "D", price(201), "Used"),
		goods("none", "E", nil, "Used"),
	}

	got := Filter(listings, Query{MinPrice: price(100), MaxPrice: price(200)})
	ids := []string{}
	for _, l := range got {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []string{"min", "mid", "max"}, ids)

	assert.Len(t, Filter(listings, Query{MinPrice: price(150)}), 3, "max bound empty means unbounded")
	assert.Len(t, Filter(listings, Query{MaxPrice: price(100)}), 1)
	assert.Len(t, Filter(listings, Query{}), 5, "no bounds keeps listings without price")
}

func TestPaginate(t *testing.T) {
	var listings []*domain.Listing
	for i := 0; i < 23; i++ {
		listings = append(listings, goods(fmt.Sprint(i), "item", price(float64(i)), "New"))
	}

	p := Paginate(listings, 0, 10)
	assert.Len(t, p.Items, 10)
	assert.Equal(t, 23, p.Total)
	assert.Equal(t, 3, p.PageCount)

	p = Paginate(listings, 2, 10)
	assert.Len(t, p.Items, 3)
	assert.Equal(t, "20", p.Items[0].ID)

	p = Paginate(listings, 9, 20)
	assert.Equal(t, 1, p.Page, "page clamped to the last page")
	assert.Len(t, p.Items, 3)

	p = Paginate(listings, 0, 7)
	assert.Equal(t, DefaultPageSize, p.PageSize)

	p = Paginate(nil, 3, 10)
	assert.Equal(t, 0, p.Page)
	assert.Empty(t, p.Items)
}

func TestApply_FacetsFromUnfilteredSet(t *testing.T) {
	listings := []*domain.Listing{
		goods("1", "Vintage Watch", price(150), "Used"),
		goods("2", "Lamp", price(20), "New"),
	}

	p := Apply(listings, Query{Search: "watch"})
	require.Len(t, p.Items, 1)
	for _, f := range p.Facets {
		if f.Key == "condition" {
			assert.Equal(t, []string{"New", "Used"}, f.Values)
		}
	}
}
