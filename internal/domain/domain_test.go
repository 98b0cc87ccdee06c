package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestOffer_Status(t *testing.T) {
	now := date(2024, 6, 1)

	expired := Offer{ExpirationDate: date(2024, 1, 1)}
	assert.Equal(t, OfferExpired, expired.Status(now))

	active := Offer{ExpirationDate: date(2030, 1, 1)}
	assert.Equal(t, OfferActive, active.Status(now))

	// boundary: expiration reached
	assert.Equal(t, OfferExpired, Offer{ExpirationDate: now}.Status(now))
}

func TestPromotion_Status(t *testing.T) {
	p := Promotion{StartDate: date(2024, 3, 1), EndDate: date(2024, 3, 31)}

	assert.Equal(t, PromotionUpcoming, p.Status(date(2024, 2, 15)))
	assert.Equal(t, PromotionActive, p.Status(date(2024, 3, 1)))
	assert.Equal(t, PromotionActive, p.Status(date(2024, 3, 31)))
	assert.Equal(t, PromotionExpired, p.Status(date(2024, 4, 1)))
}

func TestPromotion_PromotionalPrice(t *testing.T) {
	p := Promotion{Percentage: decimal.NewFromInt(20)}
	got := p.PromotionalPrice(decimal.NewFromInt(10000))
	assert.True(t, got.Equal(decimal.NewFromInt(8000)), "got %s", got)

	p.Percentage = decimal.RequireFromString("12.5")
	got = p.PromotionalPrice(decimal.RequireFromString("19.99"))
	assert.Equal(t, "17.49", got.StringFixed(2))

	p.Percentage = decimal.Zero
	assert.True(t, p.PromotionalPrice(decimal.NewFromInt(50)).Equal(decimal.NewFromInt(50)))
}

func TestCheckAttributeName(t *testing.T) {
	attrs := []CategoryAttribute{
		{ID: 1, Name: "Couleur", ValueType: ValueText},
		{ID: 2, Name: "Taille", ValueType: ValueText},
	}

	err := CheckAttributeName(attrs, "Couleur", 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateAttribute))

	assert.Error(t, CheckAttributeName(attrs, " couleur ", 0))
	assert.NoError(t, CheckAttributeName(attrs, "Poids", 0))
	// renaming an attribute to its own name is not a conflict
	assert.NoError(t, CheckAttributeName(attrs, "Couleur", 1))
	assert.Error(t, CheckAttributeName(attrs, "Couleur", 2))
}

func TestProduct_Validate(t *testing.T) {
	ok := Product{Name: "Phone", InitialPrice: decimal.NewFromInt(100), Stock: 2,
		Images: []ProductImage{{URL: "a.jpg", IsCover: true}, {URL: "b.jpg"}}}
	require.NoError(t, ok.Validate())

	cover, found := ok.CoverImage()
	assert.True(t, found)
	assert.Equal(t, "a.jpg", cover.URL)

	cases := map[string]Product{
		"empty name":     {Name: " "},
		"negative price": {Name: "A", InitialPrice: decimal.NewFromInt(-1)},
		"negative stock": {Name: "A", Stock: -1},
		"two covers":     {Name: "A", Images: []ProductImage{{URL: "a", IsCover: true}, {URL: "b", IsCover: true}}},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, p.Validate(), ErrInvalidInput)
		})
	}
}

func TestCategory_Validate(t *testing.T) {
	c := Category{Name: "Vêtements", Attributes: []CategoryAttribute{
		{Name: "Couleur", ValueType: ValueText},
		{Name: "Taille", ValueType: ValueNumber},
	}}
	require.NoError(t, c.Validate())

	c.Attributes = append(c.Attributes, CategoryAttribute{Name: "Couleur", ValueType: ValueText})
	assert.ErrorIs(t, c.Validate(), ErrDuplicateAttribute)

	bad := Category{Name: "X", Attributes: []CategoryAttribute{{Name: "Poids", ValueType: "weight"}}}
	assert.ErrorIs(t, bad.Validate(), ErrInvalidInput)
}

func TestOfferAndPromotion_Validate(t *testing.T) {
	o := Offer{ProductID: 1, OfferPrice: decimal.NewFromInt(10), ExpirationDate: date(2030, 1, 1)}
	require.NoError(t, o.Validate())
	o.OfferPrice = decimal.NewFromInt(-1)
	assert.ErrorIs(t, o.Validate(), ErrInvalidInput)

	p := Promotion{ProductID: 1, Percentage: decimal.NewFromInt(20), StartDate: date(2024, 1, 1), EndDate: date(2024, 2, 1)}
	require.NoError(t, p.Validate())
	p.Percentage = decimal.NewFromInt(101)
	assert.ErrorIs(t, p.Validate(), ErrInvalidInput)
	p.Percentage = decimal.NewFromInt(10)
	p.EndDate = date(2023, 12, 31)
	assert.ErrorIs(t, p.Validate(), ErrInvalidInput)
}
