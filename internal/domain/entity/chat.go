package entity

import "time"

// Chat is a conversation between the customer who first messaged about a
// product and that product's seller. The (ProductID, CustomerID) pair is
// unique; concurrent first messages hit the index and re-fetch instead of
// creating a second thread.
type Chat struct {
	ID         string     `json:"id" gorm:"primaryKey;size:36"`
	ProductID  string     `json:"product_id" gorm:"size:36;not null;uniqueIndex:idx_chats_product_customer"`
	CustomerID string     `json:"customer_id" gorm:"size:36;not null;uniqueIndex:idx_chats_product_customer"`
	SellerID   string     `json:"seller_id" gorm:"size:36;not null;index"`
	DeletedFor StringList `json:"deleted_for" gorm:"serializer:json"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	Product  *Product  `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Customer *User     `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Seller   *User     `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
	Messages []Message `json:"messages,omitempty" gorm:"foreignKey:ChatID"`
}

const (
	RoleSeller = "seller"
	RoleBuyer  = "buyer"
)

func (c *Chat) IsParticipant(userID string) bool {
	return c.CustomerID == userID || c.SellerID == userID
}

// CounterpartID returns the participant on the other side of the chat.
func (c *Chat) CounterpartID(userID string) string {
	if c.CustomerID == userID {
		return c.SellerID
	}
	return c.CustomerID
}

// CounterpartRole returns the role the other participant plays from the
// caller's point of view: the seller if the caller is the customer, else
// the buyer.
func (c *Chat) CounterpartRole(userID string) string {
	if c.CustomerID == userID {
		return RoleSeller
	}
	return RoleBuyer
}

// CounterpartUser resolves the preloaded user record for the other side.
// Nil when associations were not loaded.
func (c *Chat) CounterpartUser(userID string) *User {
	if c.CustomerID == userID {
		return c.Seller
	}
	return c.Customer
}
