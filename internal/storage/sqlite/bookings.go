package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/antaqor/yuki/internal/models"
)

// timestampFormat is fixed width so recorded_at sorts correctly as text
const timestampFormat = "2006-01-02T15:04:05.000000000Z07:00"

// SaveBooking records a booking. Saving the same booking id again updates it.
func (s *Store) SaveBooking(e models.JournalEntry) error {
	if s.db == nil {
		return fmt.Errorf("journal is not open")
	}
	if e.Booking.ID == "" {
		return fmt.Errorf("booking id is required")
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now()
	}

	var createdAt sql.NullString
	if e.Booking.CreatedAt != nil {
		createdAt = sql.NullString{String: e.Booking.CreatedAt.UTC().Format(timestampFormat), Valid: true}
	}

	_, err := s.db.Exec(`
		INSERT INTO bookings (id, status, date, time, location_id, location_name, artist_id, artist_name, created_at, recorded_at, api_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			date = excluded.date,
			time = excluded.time,
			location_name = excluded.location_name,
			artist_name = excluded.artist_name`,
		e.Booking.ID, e.Booking.Status, e.Booking.Date, e.Booking.Time,
		e.Booking.Location.ID, e.Booking.Location.Name,
		e.Booking.Artist.ID, e.Booking.Artist.Name,
		createdAt, e.RecordedAt.UTC().Format(timestampFormat), e.APIURL,
	)
	if err != nil {
		return fmt.Errorf("failed to save booking %s: %w", e.Booking.ID, err)
	}
	return nil
}

func (s *Store) ListBookings(limit int) ([]models.JournalEntry, error) {
	if s.db == nil {
		return nil, fmt.Errorf("journal is not open")
	}

	query := `
		SELECT id, status, date, time, location_id, location_name, artist_id, artist_name, created_at, recorded_at, api_url
		FROM bookings
		ORDER BY recorded_at DESC, id`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var entries []models.JournalEntry
	for rows.Next() {
		var (
			e          models.JournalEntry
			createdAt  sql.NullString
			recordedAt string
		)
		b := &e.Booking
		if err := rows.Scan(&b.ID, &b.Status, &b.Date, &b.Time, &b.Location.ID, &b.Location.Name,
			&b.Artist.ID, &b.Artist.Name, &createdAt, &recordedAt, &e.APIURL); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		if createdAt.Valid {
			if t, err := time.Parse(time.RFC3339Nano, createdAt.String); err == nil {
				b.CreatedAt = &t
			}
		}
		if e.RecordedAt, err = time.Parse(time.RFC3339Nano, recordedAt); err != nil {
			return nil, fmt.Errorf("invalid recorded_at for booking %s: %w", b.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
