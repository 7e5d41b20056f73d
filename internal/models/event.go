package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Event struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Sections  []Section `gorm:"constraint:OnDelete:CASCADE" json:"sections"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (event *Event) BeforeCreate(tx *gorm.DB) (err error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return
}

// FindSection returns the section with the given name, or nil.
func (event *Event) FindSection(name string) *Section {
	for i := range event.Sections {
		if event.Sections[i].Name == name {
			return &event.Sections[i]
		}
	}
	return nil
}

type Section struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"-"`
	EventID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_sections_event_name" json:"-"`
	Name     string    `gorm:"not null;uniqueIndex:idx_sections_event_name" json:"name"`
	Position int       `gorm:"not null" json:"-"`
	Rows     []Row     `gorm:"constraint:OnDelete:CASCADE" json:"rows"`
}

func (section *Section) BeforeCreate(tx *gorm.DB) (err error) {
	if section.ID == uuid.Nil {
		section.ID = uuid.New()
	}
	return
}

func (section *Section) FindRow(name string) *Row {
	for i := range section.Rows {
		if section.Rows[i].Name == name {
			return &section.Rows[i]
		}
	}
	return nil
}

type Row struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"-"`
	SectionID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_seat_rows_section_name" json:"-"`
	Name        string    `gorm:"not null;uniqueIndex:idx_seat_rows_section_name" json:"name"`
	Position    int       `gorm:"not null" json:"-"`
	TotalSeats  int       `gorm:"not null;check:chk_seat_rows_total,total_seats > 0" json:"totalSeats"`
	BookedSeats int       `gorm:"not null;default:0;check:chk_seat_rows_booked,booked_seats >= 0 AND booked_seats <= total_seats" json:"bookedSeats"`
}

func (Row) TableName() string {
	return "seat_rows"
}

func (row *Row) BeforeCreate(tx *gorm.DB) (err error) {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return
}

func (row Row) AvailableSeats() int {
	return row.TotalSeats - row.BookedSeats
}
