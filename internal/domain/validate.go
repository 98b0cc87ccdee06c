package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInput оборачивает любую ошибку валидации сущности
	ErrInvalidInput = errors.New("invalid input")
	// ErrDuplicateAttribute имя атрибута уже занято внутри категории
	ErrDuplicateAttribute = errors.New("duplicate attribute name")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Validate проверяет товар перед сохранением
func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return invalid("name is required")
	}
	if p.InitialPrice.IsNegative() {
		return invalid("initialPrice must not be negative")
	}
	if p.Stock < 0 {
		return invalid("stock must not be negative")
	}
	covers := 0
	for _, img := range p.Images {
		if img.URL == "" {
			return invalid("image url is required")
		}
		if img.IsCover {
			covers++
		}
	}
	if covers > 1 {
		return invalid("at most one image may be the cover")
	}
	return nil
}

// Validate проверяет категорию и все её атрибуты
func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return invalid("name is required")
	}
	for i, a := range c.Attributes {
		if err := a.Validate(); err != nil {
			return err
		}
		if err := CheckAttributeName(c.Attributes[:i], a.Name, 0); err != nil {
			return err
		}
	}
	return nil
}

// Validate проверяет одиночный атрибут
func (a CategoryAttribute) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return invalid("attribute name is required")
	}
	if !a.ValueType.Valid() {
		return invalid("unknown attribute value type %q", a.ValueType)
	}
	return nil
}

// CheckAttributeName сообщает о конфликте имени атрибута. exceptID исключает
// из проверки сам редактируемый атрибут; 0 значит "новый атрибут".
// Сравнение без учёта регистра и крайних пробелов.
func CheckAttributeName(attrs []CategoryAttribute, name string, exceptID int64) error {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, a := range attrs {
		if exceptID != 0 && a.ID == exceptID {
			continue
		}
		if strings.ToLower(strings.TrimSpace(a.Name)) == want {
			return fmt.Errorf("%w: %q", ErrDuplicateAttribute, name)
		}
	}
	return nil
}

// Validate проверяет предложение
func (o Offer) Validate() error {
	if o.ProductID <= 0 {
		return invalid("productId is required")
	}
	if o.OfferPrice.IsNegative() {
		return invalid("offerPrice must not be negative")
	}
	if o.Stock < 0 {
		return invalid("stock must not be negative")
	}
	if o.ExpirationDate.IsZero() {
		return invalid("expirationDate is required")
	}
	return nil
}

// Validate проверяет акцию
func (p Promotion) Validate() error {
	if p.ProductID <= 0 {
		return invalid("productId is required")
	}
	if p.Percentage.IsNegative() || p.Percentage.GreaterThan(hundred) {
		return invalid("percentage must be between 0 and 100")
	}
	if p.StartDate.IsZero() || p.EndDate.IsZero() {
		return invalid("startDate and endDate are required")
	}
	if p.EndDate.Before(p.StartDate) {
		return invalid("endDate must not be before startDate")
	}
	return nil
}
