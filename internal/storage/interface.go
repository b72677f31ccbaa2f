package storage

import "github.com/antaqor/yuki/internal/models"

// Provider is the local booking journal
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Bookings
	SaveBooking(models.JournalEntry) error
	// ListBookings returns entries most recently recorded first; limit <= 0 means all.
	ListBookings(limit int) ([]models.JournalEntry, error)

	// Utils
	GetConfigPath() string
}
