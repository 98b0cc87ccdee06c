package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OfferStatus производный статус предложения
type OfferStatus string

const (
	OfferActive  OfferStatus = "Active"
	OfferExpired OfferStatus = "Expired"
)

// Status считает предложение истёкшим, как только now достигает даты окончания
func (o Offer) Status(now time.Time) OfferStatus {
	if now.Before(o.ExpirationDate) {
		return OfferActive
	}
	return OfferExpired
}

// PromotionStatus производный статус акции
type PromotionStatus string

const (
	PromotionUpcoming PromotionStatus = "Upcoming"
	PromotionActive   PromotionStatus = "Active"
	PromotionExpired  PromotionStatus = "Expired"
)

// Status сравнивает now с интервалом [StartDate, EndDate], обе границы включены
func (p Promotion) Status(now time.Time) PromotionStatus {
	switch {
	case now.Before(p.StartDate):
		return PromotionUpcoming
	case now.After(p.EndDate):
		return PromotionExpired
	default:
		return PromotionActive
	}
}

var hundred = decimal.NewFromInt(100)

// PromotionalPrice цена со скидкой: base * (1 - percentage/100), округление до копеек
func (p Promotion) PromotionalPrice(base decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Sub(p.Percentage.Div(hundred))
	return base.Mul(factor).Round(2)
}
