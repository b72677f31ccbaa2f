package sandbox

import (
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/antaqor/yuki/internal/constants"
	"github.com/antaqor/yuki/internal/models"
)

var (
	errUnknownLocation = errors.New("location not found")
	errUnknownArtist   = errors.New("artist not found at this location")
	errSlotTaken       = errors.New("this time slot is no longer available")
	errOutsideWindow   = errors.New("date is outside the booking window")
)

// opening hours, one slot per hour
const (
	openHour  = 10
	closeHour = 19
)

// catalog is the sandbox's in-memory salon: fixed locations and artists, a
// generated schedule and the bookings made so far.
type catalog struct {
	mu        sync.Mutex
	locations []models.Location
	artists   map[string][]models.Artist
	bookings  map[string]booking // by booking id
	taken     map[string]string  // slotKey -> booking id
	idem      map[string]string  // user + idempotency key -> booking id
	now       func() time.Time
}

type booking struct {
	summary models.BookingSummary
	userID  string
}

func newCatalog(now func() time.Time) *catalog {
	return &catalog{
		locations: []models.Location{
			{ID: "loc-central", Name: "Yuki Central", Address: "1 Sakura Street"},
			{ID: "loc-harbor", Name: "Yuki Harbor", Address: "22 Pier Road"},
		},
		artists: map[string][]models.Artist{
			"loc-central": {
				{ID: "art-mina", Name: "Mina", Bio: "Fine line and botanical work"},
				{ID: "art-sora", Name: "Sora", Bio: "Color realism"},
			},
			"loc-harbor": {
				{ID: "art-kaito", Name: "Kaito", Bio: "Traditional Japanese"},
			},
		},
		bookings: map[string]booking{},
		taken:    map[string]string{},
		idem:     map[string]string{},
		now:      now,
	}
}

func slotKey(artistID, date, t string) string {
	return artistID + "|" + date + "|" + t
}

func (c *catalog) listLocations() []models.Location {
	return append([]models.Location(nil), c.locations...)
}

func (c *catalog) location(id string) (models.Location, bool) {
	for _, l := range c.locations {
		if l.ID == id {
			return l, true
		}
	}
	return models.Location{}, false
}

func (c *catalog) listArtists(locationID string) ([]models.Artist, error) {
	if _, ok := c.location(locationID); !ok {
		return nil, errUnknownLocation
	}
	return append([]models.Artist(nil), c.artists[locationID]...), nil
}

func (c *catalog) artist(locationID, artistID string) (models.Artist, error) {
	artists, err := c.listArtists(locationID)
	if err != nil {
		return models.Artist{}, err
	}
	for _, a := range artists {
		if a.ID == artistID {
			return a, nil
		}
	}
	return models.Artist{}, errUnknownArtist
}

// blocked marks a stable pseudo-random third of the schedule as already booked
func blocked(artistID, date, t string) bool {
	h := fnv.New32a()
	_, _ = h.Write([]byte(slotKey(artistID, date, t)))
	return h.Sum32()%3 == 0
}

// availability generates the schedule for days starting today. Sundays are closed
// and return a day without slots.
func (c *catalog) availability(locationID, artistID string, days int) ([]models.AvailabilityDay, error) {
	if _, err := c.artist(locationID, artistID); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	out := make([]models.AvailabilityDay, 0, days)
	for i := 0; i < days; i++ {
		day := today.AddDate(0, 0, i)
		date := day.Format(constants.DateFormat)
		d := models.AvailabilityDay{Date: date, Slots: []models.AvailabilitySlot{}}
		if day.Weekday() != time.Sunday {
			for hour := openHour; hour < closeHour; hour++ {
				start := day.Add(time.Duration(hour) * time.Hour)
				t := start.Format(constants.TimeFormat)
				_, booked := c.taken[slotKey(artistID, date, t)]
				d.Slots = append(d.Slots, models.AvailabilitySlot{
					Time:      t,
					Available: start.After(now) && !booked && !blocked(artistID, date, t),
				})
			}
		}
		out = append(out, d)
	}
	return out, nil
}

// book reserves a slot for userID. A repeated idempotency key returns the booking
// it created the first time.
func (c *catalog) book(userID, idemKey string, req models.BookingRequest) (models.BookingSummary, error) {
	loc, ok := c.location(req.LocationID)
	if !ok {
		return models.BookingSummary{}, errUnknownLocation
	}
	art, err := c.artist(req.LocationID, req.ArtistID)
	if err != nil {
		return models.BookingSummary{}, err
	}

	day, err := time.ParseInLocation(constants.DateFormat, req.Date, c.now().Location())
	if err != nil {
		return models.BookingSummary{}, fmt.Errorf("invalid date %q", req.Date)
	}
	window, err := c.availability(req.LocationID, req.ArtistID, constants.MaxAvailabilityDays)
	if err != nil {
		return models.BookingSummary{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if idemKey != "" {
		if id, ok := c.idem[userID+"|"+idemKey]; ok {
			return c.bookings[id].summary, nil
		}
	}

	open := false
	inWindow := false
	for _, d := range window {
		if d.Date != day.Format(constants.DateFormat) {
			continue
		}
		inWindow = true
		if s, ok := d.Slot(req.Time); ok && s.Available {
			open = true
		}
	}
	if !inWindow {
		return models.BookingSummary{}, errOutsideWindow
	}
	key := slotKey(req.ArtistID, req.Date, req.Time)
	if _, taken := c.taken[key]; taken || !open {
		return models.BookingSummary{}, errSlotTaken
	}

	created := c.now().UTC()
	summary := models.BookingSummary{
		ID:        uuid.NewString(),
		Status:    constants.BookingStatusConfirmed,
		Date:      req.Date,
		Time:      req.Time,
		Location:  models.Ref{ID: loc.ID, Name: loc.Name},
		Artist:    models.Ref{ID: art.ID, Name: art.Name},
		CreatedAt: &created,
	}
	c.bookings[summary.ID] = booking{summary: summary, userID: userID}
	c.taken[key] = summary.ID
	if idemKey != "" {
		c.idem[userID+"|"+idemKey] = summary.ID
	}
	return summary, nil
}

// history returns the user's bookings, newest first
func (c *catalog) history(userID string) []models.BookingSummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := []models.BookingSummary{}
	for _, b := range c.bookings {
		if b.userID == userID {
			out = append(out, b.summary)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(*out[j].CreatedAt)
	})
	return out
}
