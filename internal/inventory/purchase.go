package inventory

import (
	"context"
	"strings"

	"github.com/farellandr/seatbook/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// GroupDiscountThreshold is the smallest single purchase that earns the group
// discount flag.
const GroupDiscountThreshold = 4

type PurchaseInput struct {
	EventID        string
	SectionName    string
	RowName        string
	Quantity       int
	IdempotencyKey string
}

// Booking is what a store reports after BookSeats. Replayed is set when the
// purchase was found by its idempotency key and nothing was booked.
type Booking struct {
	Purchase models.Purchase
	Replayed bool
}

type PurchaseResult struct {
	PurchaseID        uuid.UUID
	Section           string
	Row               string
	PurchasedQuantity int
	GroupDiscount     bool
	RemainingSeats    int
	Replayed          bool
}

func QualifiesForGroupDiscount(quantity int) bool {
	return quantity >= GroupDiscountThreshold
}

// ReplayOf resolves a second request carrying an idempotency key that
// already produced existing.
func ReplayOf(existing, draft models.Purchase) (Booking, error) {
	if existing.SectionName != draft.SectionName ||
		existing.RowName != draft.RowName ||
		existing.Quantity != draft.Quantity {
		return Booking{}, ErrIdempotencyConflict
	}
	return Booking{Purchase: existing, Replayed: true}, nil
}

func (s *Service) Purchase(ctx context.Context, in PurchaseInput) (*PurchaseResult, error) {
	sectionName := strings.TrimSpace(in.SectionName)
	rowName := strings.TrimSpace(in.RowName)
	if sectionName == "" || rowName == "" || in.Quantity <= 0 {
		return nil, ErrInvalidPurchase
	}

	eventID, err := ParseEventID(in.EventID)
	if err != nil {
		return nil, err
	}

	draft := models.Purchase{
		ID:            uuid.New(),
		EventID:       eventID,
		SectionName:   sectionName,
		RowName:       rowName,
		Quantity:      in.Quantity,
		GroupDiscount: QualifiesForGroupDiscount(in.Quantity),
	}
	if key := strings.TrimSpace(in.IdempotencyKey); key != "" {
		draft.IdempotencyKey = &key
	}

	log := s.logger.WithFields(logrus.Fields{
		"event_id": eventID,
		"section":  sectionName,
		"row":      rowName,
		"quantity": in.Quantity,
	})

	booking, err := s.store.BookSeats(ctx, draft)
	if err != nil {
		if KindOf(err) == KindInternal {
			log.WithError(err).Error("booking seats failed")
		} else {
			log.WithError(err).Info("purchase rejected")
		}
		return nil, err
	}

	purchase := booking.Purchase
	result := &PurchaseResult{
		PurchaseID:        purchase.ID,
		Section:           purchase.SectionName,
		Row:               purchase.RowName,
		PurchasedQuantity: purchase.Quantity,
		GroupDiscount:     purchase.GroupDiscount,
		RemainingSeats:    purchase.RemainingSeats,
		Replayed:          booking.Replayed,
	}

	if booking.Replayed {
		log.WithField("purchase_id", purchase.ID).Info("purchase replayed from idempotency key")
		return result, nil
	}

	log.WithFields(logrus.Fields{
		"purchase_id":     purchase.ID,
		"remaining_seats": purchase.RemainingSeats,
	}).Info("tickets purchased")

	s.invalidateAvailability(ctx, log, eventID)
	s.publish(ctx, TicketsPurchased{
		Header:         NewHeader(),
		EventID:        eventID.String(),
		PurchaseID:     purchase.ID.String(),
		Section:        purchase.SectionName,
		Row:            purchase.RowName,
		Quantity:       purchase.Quantity,
		GroupDiscount:  purchase.GroupDiscount,
		RemainingSeats: purchase.RemainingSeats,
	})

	return result, nil
}

func (s *Service) GetPurchase(ctx context.Context, eventID, purchaseID string) (*models.Purchase, error) {
	evID, err := ParseEventID(eventID)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(strings.TrimSpace(purchaseID))
	if err != nil {
		return nil, ErrPurchaseNotFound
	}

	purchase, err := s.store.GetPurchase(ctx, id)
	if err != nil {
		return nil, err
	}
	if purchase.EventID != evID {
		return nil, ErrPurchaseNotFound
	}
	return purchase, nil
}
