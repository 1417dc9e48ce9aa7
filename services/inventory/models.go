package inventory

import "time"

type Product struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Name      string    `json:"name" gorm:"size:255;not null"`
	SKU       string    `json:"sku" gorm:"uniqueIndex;size:128;not null"`
	Stock     int       `json:"stock"`
	Cost      float64   `json:"cost"`
	Image     string    `json:"image,omitempty" gorm:"size:1024"`
	CreatedBy string    `json:"createdBy" gorm:"size:64"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
}

func (Product) TableName() string {
	return "products"
}

func Models() []any {
	return []any{&Product{}}
}
