package view

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comparateur/internal/domain"
)

func catalog() []domain.Product {
	return []domain.Product{
		{ID: 1, Name: "Écran 27 pouces", InitialPrice: decimal.NewFromInt(250), Stock: 3, Availability: true},
		{ID: 2, Name: "Clavier", Description: "mécanique, rétroéclairé", InitialPrice: decimal.NewFromInt(80), Stock: 0},
		{ID: 3, Name: "Souris", InitialPrice: decimal.NewFromInt(25), Stock: 10, Availability: true},
		{ID: 4, Name: "écran 24 pouces", InitialPrice: decimal.NewFromInt(80), Stock: 5, Availability: true},
		{ID: 5, Name: "Casque", InitialPrice: decimal.NewFromInt(80), Stock: 1},
	}
}

func ids(ps []domain.Product) []int64 {
	out := make([]int64, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func TestCompose_NoQueryKeepsOrder(t *testing.T) {
	got := Compose(catalog(), ProductFields, Query{})
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(got.Items))
	assert.Equal(t, 1, got.Page)
	assert.Equal(t, 1, got.TotalPages)
	assert.Equal(t, 5, got.Total)
}

func TestCompose_SearchFoldsCase(t *testing.T) {
	q := Query{SearchTerm: "  ÉCRAN ", SearchFields: []string{"name", "description"}}
	got := Compose(catalog(), ProductFields, q)
	assert.Equal(t, []int64{1, 4}, ids(got.Items))

	q.SearchTerm = "rétro"
	got = Compose(catalog(), ProductFields, q)
	assert.Equal(t, []int64{2}, ids(got.Items))

	// unknown search fields never match
	q.SearchFields = []string{"nope"}
	got = Compose(catalog(), ProductFields, q)
	assert.Empty(t, got.Items)
}

func TestCompose_Filter(t *testing.T) {
	got := Compose(catalog(), ProductFields, Query{FilterField: "availability", FilterValue: "true"})
	assert.Equal(t, []int64{1, 3, 4}, ids(got.Items))

	got = Compose(catalog(), ProductFields, Query{FilterField: "initialPrice", FilterValue: "80"})
	assert.Equal(t, []int64{2, 4, 5}, ids(got.Items))

	// empty value disables the filter
	got = Compose(catalog(), ProductFields, Query{FilterField: "availability"})
	assert.Len(t, got.Items, 5)
}

func TestCompose_SortIsStableBothWays(t *testing.T) {
	asc := Compose(catalog(), ProductFields, Query{SortField: "initialPrice", SortDirection: Asc})
	assert.Equal(t, []int64{3, 2, 4, 5, 1}, ids(asc.Items))

	desc := Compose(catalog(), ProductFields, Query{SortField: "initialPrice", SortDirection: Desc})
	assert.Equal(t, []int64{1, 2, 4, 5, 3}, ids(desc.Items), "ties keep collection order")

	byName := Compose(catalog(), ProductFields, Query{SortField: "name"})
	assert.Equal(t, []int64{5, 2, 4, 1, 3}, ids(byName.Items))
}

func TestCompose_Pagination(t *testing.T) {
	tests := []struct {
		name      string
		page      int
		size      int
		wantIDs   []int64
		wantPage  int
		wantPages int
	}{
		{"first", 1, 2, []int64{1, 2}, 1, 3},
		{"last partial", 3, 2, []int64{5}, 3, 3},
		{"past the end clamps", 9, 2, []int64{5}, 3, 3},
		{"zero clamps to first", 0, 2, []int64{1, 2}, 1, 3},
		{"no size means one page", 4, 0, []int64{1, 2, 3, 4, 5}, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compose(catalog(), ProductFields, Query{Page: tt.page, PageSize: tt.size})
			assert.Equal(t, tt.wantIDs, ids(got.Items))
			assert.Equal(t, tt.wantPage, got.Page)
			assert.Equal(t, tt.wantPages, got.TotalPages)
			assert.Equal(t, 5, got.Total)
		})
	}
}

func TestCompose_EmptyCollection(t *testing.T) {
	got := Compose(nil, ProductFields, Query{Page: 3, PageSize: 10, SortField: "name"})
	assert.NotNil(t, got.Items)
	assert.Empty(t, got.Items)
	assert.Equal(t, 1, got.Page)
	assert.Equal(t, 0, got.TotalPages)
}

func TestCompose_IdempotentAndPure(t *testing.T) {
	in := catalog()
	q := Query{SearchTerm: "e", SearchFields: []string{"name"}, SortField: "stock", SortDirection: Desc, Page: 1, PageSize: 2}

	first := Compose(in, ProductFields, q)
	second := Compose(in, ProductFields, q)
	assert.Equal(t, first, second)
	assert.Equal(t, catalog(), in, "input left untouched")
}

func TestOfferFields_Status(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	offers := []domain.Offer{
		{ID: 1, ExpirationDate: now.Add(-time.Hour)},
		{ID: 2, ExpirationDate: now.Add(time.Hour)},
		{ID: 3, ExpirationDate: now},
	}
	got := Compose(offers, OfferFields(now), Query{FilterField: "status", FilterValue: "active"})
	require.Len(t, got.Items, 1)
	assert.Equal(t, int64(2), got.Items[0].ID)
}

func TestPromotionFields_SortByStatus(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	day := 24 * time.Hour
	promos := []domain.Promotion{
		{ID: 1, StartDate: now.Add(day), EndDate: now.Add(2 * day)},
		{ID: 2, StartDate: now.Add(-2 * day), EndDate: now.Add(-day)},
		{ID: 3, StartDate: now, EndDate: now},
	}
	got := Compose(promos, PromotionFields(now), Query{SortField: "status"})
	var order []int64
	for _, p := range got.Items {
		order = append(order, p.ID)
	}
	// Active < Expired < Upcoming
	assert.Equal(t, []int64{3, 2, 1}, order)
}
