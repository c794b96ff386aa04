package entity

import "time"

// Product is read-only here: chats are resolved against it and summaries
// surface its name, price, image and slug.
type Product struct {
	ID        string     `json:"id" gorm:"primaryKey;size:36"`
	SellerID  string     `json:"seller_id" gorm:"size:36;not null;index"`
	Name      string     `json:"name" gorm:"size:255;not null"`
	Price     float64    `json:"price"`
	Slug      string     `json:"slug" gorm:"size:255;index"`
	Images    StringList `json:"images" gorm:"serializer:json"`
	CreatedAt time.Time  `json:"created_at"`

	Seller *User `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
}

// FirstImage returns the cover image URL, or nil when none is stored.
func (p *Product) FirstImage() *string {
	if len(p.Images) == 0 {
		return nil
	}
	return &p.Images[0]
}
