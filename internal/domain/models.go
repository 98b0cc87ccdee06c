package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entity любая сущность каталога с устойчивым идентификатором
type Entity interface {
	EntityID() int64
}

// User пользователь платформы (продавец или администратор)
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

func (u User) EntityID() int64 { return u.ID }

// Session состояние аутентификации клиента
type Session struct {
	IsAuthenticated bool   `json:"isAuthenticated"`
	User            *User  `json:"user,omitempty"`
	Username        string `json:"username"`
	Token           string `json:"token,omitempty"`
}

// ProductImage изображение товара
type ProductImage struct {
	URL     string `json:"url"`
	IsCover bool   `json:"isCover"`
}

// Product товар продавца
type Product struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	InitialPrice decimal.Decimal `json:"initialPrice"`
	Stock        int64           `json:"stock"`
	Availability bool            `json:"availability"`
	CategoryID   int64           `json:"categoryId"`
	Images       []ProductImage  `json:"images"`
	OwnerID      int64           `json:"ownerUserId"`
	PublishedAt  time.Time       `json:"publishedAt"`
}

func (p Product) EntityID() int64 { return p.ID }

// CoverImage возвращает обложку товара, если она отмечена
func (p Product) CoverImage() (ProductImage, bool) {
	for _, img := range p.Images {
		if img.IsCover {
			return img, true
		}
	}
	return ProductImage{}, false
}

// ValueType тип значения атрибута категории
type ValueType string

const (
	ValueText    ValueType = "text"
	ValueNumber  ValueType = "number"
	ValueDate    ValueType = "date"
	ValueBoolean ValueType = "boolean"
)

func (v ValueType) Valid() bool {
	switch v {
	case ValueText, ValueNumber, ValueDate, ValueBoolean:
		return true
	}
	return false
}

// CategoryAttribute описание атрибута, который товары категории должны заполнять
type CategoryAttribute struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	ValueType ValueType `json:"valueType"`
	Required  bool      `json:"required"`
}

// Category категория каталога
type Category struct {
	ID         int64               `json:"id"`
	Name       string              `json:"name"`
	Type       string              `json:"type"`
	IsActive   bool                `json:"isActive"`
	Attributes []CategoryAttribute `json:"attributes"`
}

func (c Category) EntityID() int64 { return c.ID }

// Offer предложение продавца по конкретному товару
type Offer struct {
	ID             int64           `json:"id"`
	ProductID      int64           `json:"productId"`
	OfferPrice     decimal.Decimal `json:"offerPrice"`
	Stock          int64           `json:"stock"`
	ExpirationDate time.Time       `json:"expirationDate"`
}

func (o Offer) EntityID() int64 { return o.ID }

// Promotion скидка в процентах на товар в заданном интервале дат
type Promotion struct {
	ID         int64           `json:"id"`
	ProductID  int64           `json:"productId"`
	Percentage decimal.Decimal `json:"percentage"`
	StartDate  time.Time       `json:"startDate"`
	EndDate    time.Time       `json:"endDate"`
}

func (p Promotion) EntityID() int64 { return p.ID }
