package view

import (
	"time"

	"comparateur/internal/domain"
)

// ProductFields поля товара, доступные для поиска, фильтра и сортировки
var ProductFields = Fields[domain.Product]{
	"id":           func(p domain.Product) any { return p.ID },
	"name":         func(p domain.Product) any { return p.Name },
	"description":  func(p domain.Product) any { return p.Description },
	"initialPrice": func(p domain.Product) any { return p.InitialPrice },
	"stock":        func(p domain.Product) any { return p.Stock },
	"availability": func(p domain.Product) any { return p.Availability },
	"categoryId":   func(p domain.Product) any { return p.CategoryID },
	"publishedAt":  func(p domain.Product) any { return p.PublishedAt },
}

var CategoryFields = Fields[domain.Category]{
	"id":       func(c domain.Category) any { return c.ID },
	"name":     func(c domain.Category) any { return c.Name },
	"type":     func(c domain.Category) any { return c.Type },
	"isActive": func(c domain.Category) any { return c.IsActive },
	"attributes": func(c domain.Category) any {
		return len(c.Attributes)
	},
}

// OfferFields статус считается относительно now, поэтому набор строится на момент вызова
func OfferFields(now time.Time) Fields[domain.Offer] {
	return Fields[domain.Offer]{
		"id":             func(o domain.Offer) any { return o.ID },
		"productId":      func(o domain.Offer) any { return o.ProductID },
		"offerPrice":     func(o domain.Offer) any { return o.OfferPrice },
		"stock":          func(o domain.Offer) any { return o.Stock },
		"expirationDate": func(o domain.Offer) any { return o.ExpirationDate },
		"status":         func(o domain.Offer) any { return string(o.Status(now)) },
	}
}

func PromotionFields(now time.Time) Fields[domain.Promotion] {
	return Fields[domain.Promotion]{
		"id":         func(p domain.Promotion) any { return p.ID },
		"productId":  func(p domain.Promotion) any { return p.ProductID },
		"percentage": func(p domain.Promotion) any { return p.Percentage },
		"startDate":  func(p domain.Promotion) any { return p.StartDate },
		"endDate":    func(p domain.Promotion) any { return p.EndDate },
		"status":     func(p domain.Promotion) any { return string(p.Status(now)) },
	}
}
