// internal/models/product.go
package models

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	DefaultLowStockThreshold = 10
	MaxRelatedProducts       = 8
)

var ErrAlreadyReviewed = errors.New("you have already reviewed this product")

type Product struct {
	BaseModel
	VendorID         uuid.UUID        `json:"vendor_id" gorm:"type:uuid;not null;index"`
	CategoryID       uuid.UUID        `json:"category_id" gorm:"type:uuid;not null;index"`
	SubcategoryID    *uuid.UUID       `json:"subcategory_id,omitempty" gorm:"type:uuid"`
	Name             string           `json:"name" gorm:"size:200;not null"`
	Slug             string           `json:"slug" gorm:"size:220;index"`
	Description      string           `json:"description" gorm:"type:text;not null"`
	ShortDescription string           `json:"short_description,omitempty" gorm:"size:500"`
	Brand            string           `json:"brand,omitempty" gorm:"size:100;index"`
	SKU              string           `json:"sku" gorm:"size:64;uniqueIndex;not null"`
	Price            float64          `json:"price" gorm:"not null"`
	ComparePrice     *float64         `json:"compare_price,omitempty"`
	CostPrice        *float64         `json:"cost_price,omitempty"`
	Images           []Image          `json:"images" gorm:"type:jsonb;serializer:json"`
	Variants         []ProductVariant `json:"variants" gorm:"type:jsonb;serializer:json"`
	Inventory        Inventory        `json:"inventory" gorm:"embedded;embeddedPrefix:inventory_"`
	Dimensions       *Dimensions      `json:"dimensions,omitempty" gorm:"type:jsonb;serializer:json"`
	Shipping         ShippingInfo     `json:"shipping" gorm:"embedded;embeddedPrefix:shipping_"`
	SEO              SEO              `json:"seo" gorm:"type:jsonb;serializer:json"`
	Status           ProductStatus    `json:"status" gorm:"type:varchar(20);not null;index"`
	Featured         bool             `json:"featured" gorm:"not null;index"`
	Tags             pq.StringArray   `json:"tags" gorm:"type:text[]"`
	Rating           Rating           `json:"rating" gorm:"embedded;embeddedPrefix:rating_"`
	Reviews          []Review         `json:"reviews" gorm:"type:jsonb;serializer:json"`
	TotalSales       int              `json:"total_sales" gorm:"not null;default:0"`
	ViewCount        int64            `json:"view_count" gorm:"not null;default:0"`
	IsActive         bool             `json:"is_active" gorm:"not null"`
}

type ProductVariant struct {
	Name   string   `json:"name" validate:"required"`
	Values []string `json:"values" validate:"required,min=1"`
}

type Inventory struct {
	Quantity          int  `json:"quantity" gorm:"not null;default:0"`
	LowStockThreshold int  `json:"low_stock_threshold" gorm:"not null;default:10"`
	TrackQuantity     bool `json:"track_quantity" gorm:"not null"`
}

type Dimensions struct {
	Length float64 `json:"length,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Weight float64 `json:"weight,omitempty"`
}

type ShippingInfo struct {
	IsFreeShipping bool    `json:"is_free_shipping" gorm:"not null"`
	ShippingCost   float64 `json:"shipping_cost" gorm:"not null;default:0"`
	ProcessingTime int     `json:"processing_time" gorm:"not null;default:1"` // in days
}

type SEO struct {
	MetaTitle       string   `json:"meta_title,omitempty"`
	MetaDescription string   `json:"meta_description,omitempty"`
	Keywords        []string `json:"keywords,omitempty"`
}

type Review struct {
	ID                 uuid.UUID `json:"id"`
	UserID             uuid.UUID `json:"user_id"`
	Rating             int       `json:"rating"`
	Comment            string    `json:"comment"`
	Images             []Image   `json:"images,omitempty"`
	IsVerifiedPurchase bool      `json:"is_verified_purchase"`
	CreatedAt          time.Time `json:"created_at"`
}

// Slugify lowercases s, collapses every run of characters outside [a-z0-9]
// into a single hyphen and trims hyphens from both ends.
func Slugify(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// RefreshDerived recomputes the fields stored alongside their sources.
func (p *Product) RefreshDerived() {
	p.Slug = Slugify(p.Name)
	p.SKU = strings.ToUpper(strings.TrimSpace(p.SKU))
	p.RecomputeRating()
}

func (p *Product) RecomputeRating() {
	p.Rating.Count = len(p.Reviews)
	if p.Rating.Count == 0 {
		p.Rating.Average = 0
		return
	}

	total := 0
	for _, r := range p.Reviews {
		total += r.Rating
	}
	p.Rating.Average = float64(total) / float64(p.Rating.Count)
}

// AddReview appends a review, at most one per user, and refreshes the
// rating aggregate.
func (p *Product) AddReview(review Review) error {
	for _, existing := range p.Reviews {
		if existing.UserID == review.UserID {
			return ErrAlreadyReviewed
		}
	}
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	p.Reviews = append(p.Reviews, review)
	p.RecomputeRating()
	return nil
}

// IsAvailable reports whether the product can currently be sold.
func (p *Product) IsAvailable() bool {
	return p.Status == ProductStatusActive && p.IsActive
}

func (p *Product) HasStock(quantity int) bool {
	return p.Inventory.Quantity >= quantity
}

func (p *Product) InStock() bool {
	return p.Inventory.Quantity > 0
}

func (p *Product) IsLowStock() bool {
	return p.Inventory.Quantity <= p.Inventory.LowStockThreshold
}

func (p *Product) IsOnSale() bool {
	return p.ComparePrice != nil && *p.ComparePrice > p.Price
}

func (p *Product) DiscountPercentage() int {
	if !p.IsOnSale() {
		return 0
	}
	return int(math.Round((*p.ComparePrice - p.Price) / *p.ComparePrice * 100))
}

// LineShippingCost is the flat shipping charge for one order line.
func (p *Product) LineShippingCost() float64 {
	if p.Shipping.IsFreeShipping {
		return 0
	}
	return p.Shipping.ShippingCost
}

func (p *Product) MainImage() Image {
	for _, img := range p.Images {
		if img.IsMain {
			return img
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return Image{}
}
