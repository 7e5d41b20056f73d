package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Header struct {
	ID          string    `json:"id"`
	PublishedAt time.Time `json:"published_at"`
}

func NewHeader() Header {
	return Header{
		ID:          uuid.NewString(),
		PublishedAt: time.Now().UTC(),
	}
}

type EventCreated struct {
	Header Header `json:"header"`

	EventID  string `json:"event_id"`
	Name     string `json:"name"`
	Sections int    `json:"sections"`
}

type TicketsPurchased struct {
	Header Header `json:"header"`

	EventID        string `json:"event_id"`
	PurchaseID     string `json:"purchase_id"`
	Section        string `json:"section"`
	Row            string `json:"row"`
	Quantity       int    `json:"quantity"`
	GroupDiscount  bool   `json:"group_discount"`
	RemainingSeats int    `json:"remaining_seats"`
}

func eventTypeName(event any) string {
	name := strings.TrimPrefix(fmt.Sprintf("%T", event), "*")
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}
