package catalog

import (
	"encoding/json"

	"lavka/internal/models"
)

type CategoryRequest struct {
	Name string `json:"name"`
}

type CategoryView struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func NewCategoryView(c *models.Category) CategoryView {
	return CategoryView{ID: c.ID, Name: c.Name}
}

// ProductView — то, что уходит клиенту; локальный путь картинки
// остаётся на сервере.
type ProductView struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       float64         `json:"price"`
	SKU         string          `json:"sku"`
	Stock       int             `json:"stock"`
	ImgURL      string          `json:"img_url"`
	Attributes  json.RawMessage `json:"attributes,omitempty"`
	CategoryID  uint            `json:"category_id"`
	Category    string          `json:"category"`
}

func NewProductView(p *models.Product) ProductView {
	return ProductView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		SKU:         p.SKU,
		Stock:       p.Stock,
		ImgURL:      p.ImgURL,
		Attributes:  json.RawMessage(p.Attributes),
		CategoryID:  p.CategoryID,
		Category:    p.Category.Name,
	}
}

func NewProductViews(ps []models.Product) []ProductView {
	views := make([]ProductView, 0, len(ps))
	for i := range ps {
		views = append(views, NewProductView(&ps[i]))
	}
	return views
}

type PageResponse struct {
	PageNumber int           `json:"page_number"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
	Items      []ProductView `json:"items"`
}
