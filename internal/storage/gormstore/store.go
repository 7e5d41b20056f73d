package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/farellandr/seatbook/internal/inventory"
	"github.com/farellandr/seatbook/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the inventory tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Event{}, &models.Section{}, &models.Row{}, &models.Purchase{})
}

func orderedLayout(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Sections.Rows", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
}

func (s *Store) CreateEvent(ctx context.Context, event *models.Event) error {
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return inventory.Internal("create event", err)
	}
	return nil
}

func (s *Store) ListEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	if err := orderedLayout(s.db.WithContext(ctx)).Order("created_at ASC").Find(&events).Error; err != nil {
		return nil, inventory.Internal("list events", err)
	}
	return events, nil
}

func (s *Store) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return findEvent(orderedLayout(s.db.WithContext(ctx)), id)
}

func findEvent(db *gorm.DB, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	if err := db.Where("id = ?", id).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, inventory.ErrEventNotFound
		}
		return nil, inventory.Internal("get event", err)
	}
	return &event, nil
}

// BookSeats increments the row with a conditional update so that two
// concurrent purchases can never both pass the capacity check. The guard
// compares against the remaining seats so a huge quantity cannot overflow
// the column arithmetic.
func (s *Store) BookSeats(ctx context.Context, draft models.Purchase) (inventory.Booking, error) {
	var booking inventory.Booking

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if draft.IdempotencyKey != nil {
			existing, err := findByIdempotencyKey(tx, draft.EventID, *draft.IdempotencyKey)
			if err != nil {
				return err
			}
			if existing != nil {
				replay, err := inventory.ReplayOf(*existing, draft)
				booking = replay
				return err
			}
		}

		event, err := findEvent(orderedLayout(tx), draft.EventID)
		if err != nil {
			return err
		}
		section := event.FindSection(draft.SectionName)
		if section == nil {
			return inventory.ErrSectionNotFound
		}
		row := section.FindRow(draft.RowName)
		if row == nil {
			return inventory.ErrRowNotFound
		}

		res := tx.Model(&models.Row{}).
			Where("id = ? AND total_seats - booked_seats >= ?", row.ID, draft.Quantity).
			UpdateColumn("booked_seats", gorm.Expr("booked_seats + ?", draft.Quantity))
		if res.Error != nil {
			return inventory.Internal("book seats", res.Error)
		}

		var current models.Row
		if err := tx.Where("id = ?", row.ID).First(&current).Error; err != nil {
			return inventory.Internal("reload row", err)
		}
		if res.RowsAffected == 0 {
			return inventory.CapacityExceeded(current.AvailableSeats())
		}

		purchase := draft
		purchase.RemainingSeats = current.AvailableSeats()
		if err := tx.Create(&purchase).Error; err != nil {
			return inventory.Internal("record purchase", err)
		}

		if err := tx.Model(&models.Event{}).Where("id = ?", event.ID).
			UpdateColumn("updated_at", time.Now().UTC()).Error; err != nil {
			return inventory.Internal("touch event", err)
		}

		booking = inventory.Booking{Purchase: purchase}
		return nil
	})
	if err == nil {
		return booking, nil
	}

	// A concurrent request with the same key may have won the unique index;
	// answer with its result instead of a bare insert failure.
	if draft.IdempotencyKey != nil && inventory.KindOf(err) == inventory.KindInternal {
		existing, findErr := findByIdempotencyKey(s.db.WithContext(ctx), draft.EventID, *draft.IdempotencyKey)
		if findErr == nil && existing != nil {
			return inventory.ReplayOf(*existing, draft)
		}
	}
	return inventory.Booking{}, err
}

func (s *Store) GetPurchase(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&purchase).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, inventory.ErrPurchaseNotFound
		}
		return nil, inventory.Internal("get purchase", err)
	}
	return &purchase, nil
}

func findByIdempotencyKey(db *gorm.DB, eventID uuid.UUID, key string) (*models.Purchase, error) {
	var purchases []models.Purchase
	err := db.Where("event_id = ? AND idempotency_key = ?", eventID, key).Limit(1).Find(&purchases).Error
	if err != nil {
		return nil, inventory.Internal("find purchase by idempotency key", fmt.Errorf("event %s: %w", eventID, err))
	}
	if len(purchases) == 0 {
		return nil, nil
	}
	return &purchases[0], nil
}
