package models

import "time"

// JournalEntry is a booking recorded in the local journal
type JournalEntry struct {
	Booking    BookingSummary
	APIURL     string // backend the booking was made against
	RecordedAt time.Time
}
