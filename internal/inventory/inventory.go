package inventory

import (
	"context"
	"strings"
	"sync"

	"github.com/farellandr/seatbook/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Store persists events and applies bookings. BookSeats must perform the
// event/section/row lookups, the capacity check, the increment and the
// ledger write as one atomic unit.
type Store interface {
	CreateEvent(ctx context.Context, event *models.Event) error
	ListEvents(ctx context.Context) ([]models.Event, error)
	GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error)
	BookSeats(ctx context.Context, draft models.Purchase) (Booking, error)
	GetPurchase(ctx context.Context, id uuid.UUID) (*models.Purchase, error)
}

type AvailabilityCache interface {
	// Get returns nil without error on a cache miss.
	Get(ctx context.Context, eventID uuid.UUID) (*Availability, error)
	Set(ctx context.Context, availability Availability) error
	Invalidate(ctx context.Context, eventID uuid.UUID) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}

type Service struct {
	store     Store
	cache     AvailabilityCache
	publisher EventPublisher
	logger    *logrus.Entry

	// generations counts availability changes per event; a cache fill is
	// dropped when the count moved while the store was being read.
	generations sync.Map
}

type Option func(*Service)

func WithCache(cache AvailabilityCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

func WithPublisher(publisher EventPublisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

func WithLogger(logger *logrus.Entry) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewService(store Store, opts ...Option) *Service {
	svc := &Service{
		store:  store,
		logger: logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type RowInput struct {
	Name       string `json:"name"`
	TotalSeats int    `json:"totalSeats"`
}

type SectionInput struct {
	Name string     `json:"name"`
	Rows []RowInput `json:"rows"`
}

type CreateEventInput struct {
	Name     string         `json:"name"`
	Sections []SectionInput `json:"sections"`
}

func (s *Service) CreateEvent(ctx context.Context, in CreateEventInput) (*models.Event, error) {
	event, err := buildEvent(in)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateEvent(ctx, event); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"event_id": event.ID,
		"sections": len(event.Sections),
	}).Info("event created")

	s.publish(ctx, EventCreated{
		Header:   NewHeader(),
		EventID:  event.ID.String(),
		Name:     event.Name,
		Sections: len(event.Sections),
	})

	return event, nil
}

func (s *Service) GetAllEvents(ctx context.Context) ([]models.Event, error) {
	return s.store.ListEvents(ctx)
}

func (s *Service) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	eventID, err := ParseEventID(id)
	if err != nil {
		return nil, err
	}
	return s.store.GetEvent(ctx, eventID)
}

// ParseEventID treats malformed identifiers as unknown events.
func ParseEventID(id string) (uuid.UUID, error) {
	eventID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return uuid.Nil, ErrEventNotFound
	}
	return eventID, nil
}

// buildEvent validates the nested layout and returns an unsaved event with
// every row's booked count at zero.
func buildEvent(in CreateEventInput) (*models.Event, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || len(in.Sections) == 0 {
		return nil, ErrEventInputRequired
	}

	event := &models.Event{
		Name:     name,
		Sections: make([]models.Section, 0, len(in.Sections)),
	}

	sectionNames := make(map[string]struct{}, len(in.Sections))
	for i, sectionIn := range in.Sections {
		sectionName := strings.TrimSpace(sectionIn.Name)
		if sectionName == "" {
			return nil, Validation("Section %d name is required", i+1)
		}
		if _, dup := sectionNames[sectionName]; dup {
			return nil, Validation("Section %q is defined more than once", sectionName)
		}
		sectionNames[sectionName] = struct{}{}

		section := models.Section{
			Name:     sectionName,
			Position: i,
			Rows:     make([]models.Row, 0, len(sectionIn.Rows)),
		}

		rowNames := make(map[string]struct{}, len(sectionIn.Rows))
		for j, rowIn := range sectionIn.Rows {
			rowName := strings.TrimSpace(rowIn.Name)
			if rowName == "" {
				return nil, Validation("Row %d in section %q name is required", j+1, sectionName)
			}
			if _, dup := rowNames[rowName]; dup {
				return nil, Validation("Row %q is defined more than once in section %q", rowName, sectionName)
			}
			rowNames[rowName] = struct{}{}

			if rowIn.TotalSeats <= 0 {
				return nil, Validation("Row %q in section %q must have a positive totalSeats", rowName, sectionName)
			}

			section.Rows = append(section.Rows, models.Row{
				Name:       rowName,
				Position:   j,
				TotalSeats: rowIn.TotalSeats,
			})
		}

		event.Sections = append(event.Sections, section)
	}

	return event, nil
}

func (s *Service) publish(ctx context.Context, event any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WithError(err).WithField("event_type", eventTypeName(event)).Warn("failed to publish domain event")
	}
}
