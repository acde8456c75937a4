package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Category struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name string `gorm:"uniqueIndex;size:255;not null" json:"name"`
}

type Product struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name        string  `gorm:"index;size:255;not null" json:"name"`
	Description string  `gorm:"size:1024" json:"description"`
	Price       float64 `json:"price"`
	SKU         string  `gorm:"size:64;not null" json:"sku"`
	Stock       int     `json:"stock"`

	ImgURL  string `gorm:"size:512" json:"img_url"`
	ImgPath string `gorm:"size:512" json:"-"` // локальный путь файла, наружу не отдаём

	// Произвольные атрибуты мерчанта (цвет, размер, ...), без жёсткой схемы.
	Attributes datatypes.JSON `json:"attributes,omitempty"`

	CategoryID uint     `gorm:"index;not null" json:"category_id"`
	Category   Category `json:"category"`
}
