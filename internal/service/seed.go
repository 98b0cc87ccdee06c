package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"comparateur/internal/domain"
)

// Seed начальные данные мок-бэкенда. Ссылки на товары и категории
// задаются порядковым номером записи в файле, начиная с 1.
type Seed struct {
	Users      []SeedUser      `yaml:"users"`
	Categories []SeedCategory  `yaml:"categories"`
	Products   []SeedProduct   `yaml:"products"`
	Offers     []SeedOffer     `yaml:"offers"`
	Promotions []SeedPromotion `yaml:"promotions"`
}

type SeedUser struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

type SeedCategory struct {
	Name       string          `yaml:"name"`
	Type       string          `yaml:"type"`
	Active     bool            `yaml:"active"`
	Attributes []SeedAttribute `yaml:"attributes"`
}

type SeedAttribute struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Required bool   `yaml:"required"`
}

type SeedProduct struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Price       string   `yaml:"price"`
	Stock       int64    `yaml:"stock"`
	Available   bool     `yaml:"available"`
	Category    int64    `yaml:"category"`
	Owner       int64    `yaml:"owner"`
	Images      []string `yaml:"images"`
}

type SeedOffer struct {
	Product int64     `yaml:"product"`
	Price   string    `yaml:"price"`
	Stock   int64     `yaml:"stock"`
	Expires time.Time `yaml:"expires"`
}

type SeedPromotion struct {
	Product    int64     `yaml:"product"`
	Percentage string    `yaml:"percentage"`
	Start      time.Time `yaml:"start"`
	End        time.Time `yaml:"end"`
}

func LoadSeed(r io.Reader) (*Seed, error) {
	var s Seed
	if err := yaml.NewDecoder(r).Decode(&s); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return &s, nil
}

// Apply создаёт записи через сервисы, так что к ним применяются те же проверки
func (s *Seed) Apply(ctx context.Context, svc *Services) error {
	for i, u := range s.Users {
		if _, err := svc.Accounts.Register(ctx, u.Name, u.Email, u.Password, u.Role); err != nil {
			return fmt.Errorf("user #%d: %w", i+1, err)
		}
	}
	for i, c := range s.Categories {
		cat := domain.Category{Name: c.Name, Type: c.Type, IsActive: c.Active}
		for _, a := range c.Attributes {
			cat.Attributes = append(cat.Attributes, domain.CategoryAttribute{
				Name: a.Name, ValueType: domain.ValueType(a.Type), Required: a.Required,
			})
		}
		if _, err := svc.Categories.Create(ctx, cat); err != nil {
			return fmt.Errorf("category #%d: %w", i+1, err)
		}
	}
	for i, p := range s.Products {
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return fmt.Errorf("product #%d: price: %w", i+1, err)
		}
		prod := domain.Product{
			Name: p.Name, Description: p.Description, InitialPrice: price,
			Stock: p.Stock, Availability: p.Available, CategoryID: p.Category,
		}
		for j, url := range p.Images {
			prod.Images = append(prod.Images, domain.ProductImage{URL: url, IsCover: j == 0})
		}
		if _, err := svc.Products.Create(ctx, p.Owner, prod); err != nil {
			return fmt.Errorf("product #%d: %w", i+1, err)
		}
	}
	for i, o := range s.Offers {
		price, err := decimal.NewFromString(o.Price)
		if err != nil {
			return fmt.Errorf("offer #%d: price: %w", i+1, err)
		}
		offer := domain.Offer{ProductID: o.Product, OfferPrice: price, Stock: o.Stock, ExpirationDate: o.Expires}
		if _, err := svc.Offers.Create(ctx, offer); err != nil {
			return fmt.Errorf("offer #%d: %w", i+1, err)
		}
	}
	for i, p := range s.Promotions {
		pct, err := decimal.NewFromString(p.Percentage)
		if err != nil {
			return fmt.Errorf("promotion #%d: percentage: %w", i+1, err)
		}
		promo := domain.Promotion{ProductID: p.Product, Percentage: pct, StartDate: p.Start, EndDate: p.End}
		if _, err := svc.Promotions.Create(ctx, promo); err != nil {
			return fmt.Errorf("promotion #%d: %w", i+1, err)
		}
	}
	return nil
}
