package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Purchase is the ledger entry written together with a row's booked-seat
// increment.
type Purchase struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	EventID        uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_purchases_idempotency" json:"eventId"`
	IdempotencyKey *string   `gorm:"uniqueIndex:idx_purchases_idempotency" json:"-"`
	SectionName    string    `gorm:"not null" json:"section"`
	RowName        string    `gorm:"not null" json:"row"`
	Quantity       int       `gorm:"not null" json:"quantity"`
	GroupDiscount  bool      `gorm:"not null;default:false" json:"groupDiscount"`
	RemainingSeats int       `gorm:"not null" json:"remainingSeats"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (purchase *Purchase) BeforeCreate(tx *gorm.DB) (err error) {
	if purchase.ID == uuid.Nil {
		purchase.ID = uuid.New()
	}
	return
}
