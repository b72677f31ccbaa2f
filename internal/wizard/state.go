package wizard

import (
	"github.com/antaqor/yuki/internal/constants"
	"github.com/antaqor/yuki/internal/models"
)

// State is the complete wizard state. Empty ids mean "nothing selected".
type State struct {
	Step Step

	Locations        []models.Location
	Artists          []models.Artist
	AvailabilityDays []models.AvailabilityDay

	SelectedLocationID string
	SelectedArtistID   string
	SelectedDay        string
	SelectedTime       string

	LastBooking *models.BookingSummary
	History     []models.BookingSummary // most recent first

	IsLoadingLocations    bool
	IsLoadingArtists      bool
	IsLoadingAvailability bool
	IsLoadingHistory      bool
	BookingStatus         constants.BookingStatus

	Message *models.Message
	// AuthRequired is raised whenever an action needed a token and had none;
	// the caller should send the user to sign in.
	AuthRequired bool
}

func initialState() State {
	return State{Step: StepLocation, BookingStatus: constants.BookingIdle}
}

// Clone returns a deep copy safe to hand to renderers
func (s State) Clone() State {
	out := s
	out.Locations = append([]models.Location(nil), s.Locations...)
	out.Artists = append([]models.Artist(nil), s.Artists...)
	out.History = append([]models.BookingSummary(nil), s.History...)
	if s.AvailabilityDays != nil {
		out.AvailabilityDays = make([]models.AvailabilityDay, len(s.AvailabilityDays))
		for i, d := range s.AvailabilityDays {
			out.AvailabilityDays[i] = models.AvailabilityDay{
				Date:  d.Date,
				Slots: append([]models.AvailabilitySlot(nil), d.Slots...),
			}
		}
	}
	if s.LastBooking != nil {
		b := *s.LastBooking
		out.LastBooking = &b
	}
	if s.Message != nil {
		m := *s.Message
		out.Message = &m
	}
	return out
}

// Location returns the selected location
func (s State) Location() (models.Location, bool) {
	for _, l := range s.Locations {
		if l.ID == s.SelectedLocationID && l.ID != "" {
			return l, true
		}
	}
	return models.Location{}, false
}

// Artist returns the selected artist
func (s State) Artist() (models.Artist, bool) {
	for _, a := range s.Artists {
		if a.ID == s.SelectedArtistID && a.ID != "" {
			return a, true
		}
	}
	return models.Artist{}, false
}

// Day returns the availability of one date
func (s State) Day(date string) (models.AvailabilityDay, bool) {
	for _, d := range s.AvailabilityDays {
		if d.Date == date {
			return d, true
		}
	}
	return models.AvailabilityDay{}, false
}

// CurrentDay returns the availability of the selected day
func (s State) CurrentDay() (models.AvailabilityDay, bool) {
	if s.SelectedDay == "" {
		return models.AvailabilityDay{}, false
	}
	return s.Day(s.SelectedDay)
}

// Ready reports whether the selection is complete enough to submit
func (s State) Ready() bool {
	return s.SelectedLocationID != "" && s.SelectedArtistID != "" && s.SelectedDay != "" && s.SelectedTime != ""
}

func hasLocation(locs []models.Location, id string) bool {
	for _, l := range locs {
		if l.ID == id {
			return true
		}
	}
	return false
}

func hasArtist(artists []models.Artist, id string) bool {
	for _, a := range artists {
		if a.ID == id {
			return true
		}
	}
	return false
}
