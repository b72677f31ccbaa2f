package models

import (
	"time"

	"github.com/antaqor/yuki/internal/constants"
)

// Location is a salon branch
type Location struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

// Artist works at a location. Artists are always fetched scoped by location.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Bio  string `json:"bio,omitempty"`
}

// AvailabilitySlot is a single bookable time on a day
type AvailabilitySlot struct {
	Time      string `json:"time"` // HH:MM
	Available bool   `json:"available"`
}

// AvailabilityDay lists the slots of one calendar day in ascending time order
type AvailabilityDay struct {
	Date  string             `json:"date"` // YYYY-MM-DD
	Slots []AvailabilitySlot `json:"slots"`
}

// HasAvailable reports whether the day has at least one open slot
func (d AvailabilityDay) HasAvailable() bool {
	for _, s := range d.Slots {
		if s.Available {
			return true
		}
	}
	return false
}

// Slot returns the slot at the given time
func (d AvailabilityDay) Slot(t string) (AvailabilitySlot, bool) {
	for _, s := range d.Slots {
		if s.Time == t {
			return s, true
		}
	}
	return AvailabilitySlot{}, false
}

// Ref is the id/name pair embedded in a booking summary
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// BookingSummary is created server-side on a successful submission and never modified
// by the client.
type BookingSummary struct {
	ID        string     `json:"id"`
	Status    string     `json:"status"`
	Date      string     `json:"date"`
	Time      string     `json:"time"`
	Location  Ref        `json:"location"`
	Artist    Ref        `json:"artist"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// BookingRequest is the POST /booking body
type BookingRequest struct {
	LocationID string `json:"locationId" validate:"required"`
	ArtistID   string `json:"artistId" validate:"required"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	Time       string `json:"time" validate:"required,datetime=15:04"`
}

// User is the account returned by the auth endpoint
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Message is the descriptor rendered in the wizard's message slot
type Message struct {
	Tone constants.Tone
	Text string
}

func Info(text string) *Message {
	return &Message{Tone: constants.ToneInfo, Text: text}
}

func Success(text string) *Message {
	return &Message{Tone: constants.ToneSuccess, Text: text}
}

func Error(text string) *Message {
	return &Message{Tone: constants.ToneError, Text: text}
}
