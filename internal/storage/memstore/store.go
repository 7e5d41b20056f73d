// Package memstore keeps events in process memory. Every row has its own
// mutex, held across the capacity check and the increment.
package memstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/farellandr/seatbook/internal/inventory"
	"github.com/farellandr/seatbook/internal/models"
	"github.com/google/uuid"
)

var errDuplicateID = errors.New("event id already exists")

type idempotencyKey struct {
	eventID uuid.UUID
	key     string
}

type rowSlot struct {
	mu  sync.Mutex
	row models.Row
}

type sectionRecord struct {
	section models.Section
	rows    []*rowSlot
}

type eventRecord struct {
	event    models.Event
	sections []*sectionRecord
}

type Store struct {
	mu     sync.RWMutex
	events map[uuid.UUID]*eventRecord
	order  []uuid.UUID

	ledgerMu    sync.Mutex
	purchases   map[uuid.UUID]models.Purchase
	idempotency map[idempotencyKey]uuid.UUID

	now func() time.Time
}

func New() *Store {
	return &Store{
		events:      make(map[uuid.UUID]*eventRecord),
		purchases:   make(map[uuid.UUID]models.Purchase),
		idempotency: make(map[idempotencyKey]uuid.UUID),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) CreateEvent(ctx context.Context, event *models.Event) error {
	if err := ctx.Err(); err != nil {
		return inventory.Internal("create event", err)
	}

	now := s.now()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.CreatedAt = now
	event.UpdatedAt = now

	record := &eventRecord{
		sections: make([]*sectionRecord, 0, len(event.Sections)),
	}
	for i := range event.Sections {
		section := &event.Sections[i]
		if section.ID == uuid.Nil {
			section.ID = uuid.New()
		}
		section.EventID = event.ID

		sr := &sectionRecord{rows: make([]*rowSlot, 0, len(section.Rows))}
		for j := range section.Rows {
			row := &section.Rows[j]
			if row.ID == uuid.Nil {
				row.ID = uuid.New()
			}
			row.SectionID = section.ID
			sr.rows = append(sr.rows, &rowSlot{row: *row})
		}
		sr.section = *section
		sr.section.Rows = nil
		record.sections = append(record.sections, sr)
	}
	record.event = *event
	record.event.Sections = nil

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.events[event.ID]; exists {
		return inventory.Internal("create event", errDuplicateID)
	}
	s.events[event.ID] = record
	s.order = append(s.order, event.ID)
	return nil
}

func (s *Store) ListEvents(ctx context.Context) ([]models.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, inventory.Internal("list events", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]models.Event, 0, len(s.order))
	for _, id := range s.order {
		events = append(events, s.events[id].snapshot())
	}
	return events, nil
}

func (s *Store) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, inventory.Internal("get event", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.events[id]
	if !ok {
		return nil, inventory.ErrEventNotFound
	}
	event := record.snapshot()
	return &event, nil
}

func (s *Store) BookSeats(ctx context.Context, draft models.Purchase) (inventory.Booking, error) {
	if err := ctx.Err(); err != nil {
		return inventory.Booking{}, inventory.Internal("book seats", err)
	}

	if booking, found, err := s.replay(draft); found || err != nil {
		return booking, err
	}

	s.mu.RLock()
	record, ok := s.events[draft.EventID]
	if !ok {
		s.mu.RUnlock()
		return inventory.Booking{}, inventory.ErrEventNotFound
	}
	sr := record.findSection(draft.SectionName)
	if sr == nil {
		s.mu.RUnlock()
		return inventory.Booking{}, inventory.ErrSectionNotFound
	}
	slot := sr.findRow(draft.RowName)
	s.mu.RUnlock()
	if slot == nil {
		return inventory.Booking{}, inventory.ErrRowNotFound
	}

	booking, err := s.bookRow(slot, draft)
	if err != nil || booking.Replayed {
		return booking, err
	}

	s.mu.Lock()
	record.event.UpdatedAt = booking.Purchase.CreatedAt
	s.mu.Unlock()

	return booking, nil
}

func (s *Store) bookRow(slot *rowSlot, draft models.Purchase) (inventory.Booking, error) {
	slot.mu.Lock()
	defer slot.mu.Unlock()

	available := slot.row.AvailableSeats()
	if draft.Quantity > available {
		return inventory.Booking{}, inventory.CapacityExceeded(available)
	}
	slot.row.BookedSeats += draft.Quantity

	purchase := draft
	if purchase.ID == uuid.Nil {
		purchase.ID = uuid.New()
	}
	purchase.RemainingSeats = slot.row.AvailableSeats()
	purchase.CreatedAt = s.now()

	s.ledgerMu.Lock()
	defer s.ledgerMu.Unlock()
	if purchase.IdempotencyKey != nil {
		key := idempotencyKey{eventID: purchase.EventID, key: *purchase.IdempotencyKey}
		if existingID, taken := s.idempotency[key]; taken {
			// Another row claimed the key first; undo while still holding the row lock.
			slot.row.BookedSeats -= draft.Quantity
			return inventory.ReplayOf(s.purchases[existingID], draft)
		}
		s.idempotency[key] = purchase.ID
	}
	s.purchases[purchase.ID] = purchase

	return inventory.Booking{Purchase: purchase}, nil
}

func (s *Store) GetPurchase(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	if err := ctx.Err(); err != nil {
		return nil, inventory.Internal("get purchase", err)
	}

	s.ledgerMu.Lock()
	defer s.ledgerMu.Unlock()

	purchase, ok := s.purchases[id]
	if !ok {
		return nil, inventory.ErrPurchaseNotFound
	}
	return &purchase, nil
}

func (s *Store) replay(draft models.Purchase) (inventory.Booking, bool, error) {
	if draft.IdempotencyKey == nil {
		return inventory.Booking{}, false, nil
	}

	s.ledgerMu.Lock()
	defer s.ledgerMu.Unlock()

	id, ok := s.idempotency[idempotencyKey{eventID: draft.EventID, key: *draft.IdempotencyKey}]
	if !ok {
		return inventory.Booking{}, false, nil
	}
	booking, err := inventory.ReplayOf(s.purchases[id], draft)
	return booking, true, err
}

// snapshot copies the event; each row is read under its own lock. The
// caller holds s.mu.
func (r *eventRecord) snapshot() models.Event {
	event := r.event
	event.Sections = make([]models.Section, 0, len(r.sections))
	for _, sr := range r.sections {
		section := sr.section
		section.Rows = make([]models.Row, 0, len(sr.rows))
		for _, slot := range sr.rows {
			slot.mu.Lock()
			section.Rows = append(section.Rows, slot.row)
			slot.mu.Unlock()
		}
		event.Sections = append(event.Sections, section)
	}
	return event
}

func (r *eventRecord) findSection(name string) *sectionRecord {
	for _, sr := range r.sections {
		if sr.section.Name == name {
			return sr
		}
	}
	return nil
}

func (sr *sectionRecord) findRow(name string) *rowSlot {
	for _, slot := range sr.rows {
		if slot.row.Name == name {
			return slot
		}
	}
	return nil
}
