package inventory

import (
	"context"
	"sync/atomic"

	"github.com/farellandr/seatbook/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type RowAvailability struct {
	Row            string `json:"row"`
	AvailableSeats int    `json:"availableSeats"`
	TotalSeats     int    `json:"totalSeats"`
	BookedSeats    int    `json:"bookedSeats"`
}

type SectionAvailability struct {
	Section string            `json:"section"`
	Rows    []RowAvailability `json:"rows"`
}

type Availability struct {
	EventID      string                `json:"eventId"`
	EventName    string                `json:"eventName"`
	Availability []SectionAvailability `json:"availability"`
}

// Project derives the availability report of event in declaration order.
func Project(event models.Event) Availability {
	report := Availability{
		EventID:      event.ID.String(),
		EventName:    event.Name,
		Availability: make([]SectionAvailability, 0, len(event.Sections)),
	}
	for _, section := range event.Sections {
		sa := SectionAvailability{
			Section: section.Name,
			Rows:    make([]RowAvailability, 0, len(section.Rows)),
		}
		for _, row := range section.Rows {
			sa.Rows = append(sa.Rows, RowAvailability{
				Row:            row.Name,
				AvailableSeats: row.AvailableSeats(),
				TotalSeats:     row.TotalSeats,
				BookedSeats:    row.BookedSeats,
			})
		}
		report.Availability = append(report.Availability, sa)
	}
	return report
}

func (s *Service) GetAvailability(ctx context.Context, id string) (*Availability, error) {
	eventID, err := ParseEventID(id)
	if err != nil {
		return nil, err
	}

	log := s.logger.WithField("event_id", eventID)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, eventID)
		if err != nil {
			log.WithError(err).Warn("availability cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	seen := s.generationOf(eventID)

	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	report := Project(*event)

	if s.cache != nil {
		s.fillCache(ctx, log, eventID, seen, report)
	}

	return &report, nil
}

// fillCache writes report unless a purchase landed since seen. A purchase
// that lands during the write is caught by the second check.
func (s *Service) fillCache(ctx context.Context, log *logrus.Entry, eventID uuid.UUID, seen uint64, report Availability) {
	if s.generationOf(eventID) != seen {
		log.Debug("availability changed during read, skipping cache fill")
		return
	}
	if err := s.cache.Set(ctx, report); err != nil {
		log.WithError(err).Warn("availability cache write failed")
		return
	}
	if s.generationOf(eventID) != seen {
		if err := s.cache.Invalidate(ctx, eventID); err != nil {
			log.WithError(err).Warn("availability cache invalidation failed")
		}
	}
}

func (s *Service) generationOf(eventID uuid.UUID) uint64 {
	if v, ok := s.generations.Load(eventID); ok {
		return v.(*atomic.Uint64).Load()
	}
	return 0
}

func (s *Service) bumpGeneration(eventID uuid.UUID) {
	v, _ := s.generations.LoadOrStore(eventID, new(atomic.Uint64))
	v.(*atomic.Uint64).Add(1)
}

func (s *Service) invalidateAvailability(ctx context.Context, log *logrus.Entry, eventID uuid.UUID) {
	if s.cache == nil {
		return
	}
	s.bumpGeneration(eventID)
	if err := s.cache.Invalidate(ctx, eventID); err != nil {
		log.WithError(err).Warn("availability cache invalidation failed")
	}
}
