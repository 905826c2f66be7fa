// internal/models/category.go
package models

import (
	"github.com/google/uuid"
)

type Category struct {
	BaseModel
	Name         string     `json:"name" gorm:"size:100;not null"`
	Slug         string     `json:"slug" gorm:"size:120;uniqueIndex;not null"`
	Description  string     `json:"description,omitempty" gorm:"type:text"`
	ParentID     *uuid.UUID `json:"parent_id,omitempty" gorm:"type:uuid;index"`
	Image        *Image     `json:"image,omitempty" gorm:"type:jsonb;serializer:json"`
	IsActive     bool       `json:"is_active" gorm:"not null"`
	SortOrder    int        `json:"sort_order" gorm:"not null;default:0"`
	ProductCount int        `json:"product_count" gorm:"not null;default:0"`
}
