package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sefaaycicek/fakestore/internal/domain"
)

// productDTO mirrors a product object of the catalog API.
type productDTO struct {
	ID                 int              `json:"id"`
	Title              string           `json:"title"`
	Description        string           `json:"description"`
	Category           string           `json:"category"`
	Brand              string           `json:"brand"`
	Thumbnail          string           `json:"thumbnail"`
	Images             []string         `json:"images"`
	Stock              int              `json:"stock"`
	Rating             float64          `json:"rating"`
	Price              decimal.Decimal  `json:"price"`
	DiscountPercentage *decimal.Decimal `json:"discountPercentage"`
}

func (d productDTO) toDomain() domain.Product {
	images := d.Images
	if images == nil {
		images = []string{}
	}
	return domain.Product{
		ID:                 d.ID,
		Title:              d.Title,
		Description:        d.Description,
		Category:           d.Category,
		Brand:              d.Brand,
		Thumbnail:          d.Thumbnail,
		Images:             images,
		Stock:              d.Stock,
		Rating:             d.Rating,
		Price:              d.Price,
		DiscountPercentage: d.DiscountPercentage,
	}
}

type pageDTO struct {
	Products []productDTO `json:"products"`
	Total    int          `json:"total"`
	Skip     int          `json:"skip"`
	Limit    int          `json:"limit"`
}

func (d pageDTO) toDomain() (*domain.PageResult, error) {
	if d.Total < 0 || d.Skip < 0 {
		return nil, fmt.Errorf("negative paging fields: total=%d skip=%d", d.Total, d.Skip)
	}
	products := make([]domain.Product, len(d.Products))
	for i, p := range d.Products {
		products[i] = p.toDomain()
	}
	return &domain.PageResult{
		Products: products,
		Total:    d.Total,
		Skip:     d.Skip,
		Limit:    d.Limit,
	}, nil
}

// categoryList accepts both category list shapes served by the API: an array
// of names and an array of {slug, name, url} objects.
type categoryList []string

func (c *categoryList) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err == nil {
		*c = names
		return nil
	}

	var objects []struct {
		Slug string `json:"slug"`
	}
	if err := json.Unmarshal(data, &objects); err != nil {
		return fmt.Errorf("categories: %w", err)
	}
	out := make([]string, 0, len(objects))
	for _, o := range objects {
		if o.Slug != "" {
			out = append(out, o.Slug)
		}
	}
	*c = out
	return nil
}
