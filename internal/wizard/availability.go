package wizard

import (
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/antaqor/yuki/internal/constants"
	"github.com/antaqor/yuki/internal/models"
)

// NormalizeTime returns t as a zero-padded 24-hour HH:MM string.
// "9:00" becomes "09:00" so that string order matches clock order.
func NormalizeTime(t string) (string, bool) {
	parsed, err := time.Parse(constants.TimeFormat, t)
	if err != nil {
		return "", false
	}
	return parsed.Format(constants.TimeFormat), true
}

// normalizeDays pads every slot time, drops unparseable ones and sorts each day's
// slots ascending. Day order is kept as returned.
func normalizeDays(days []models.AvailabilityDay, lg *log.Logger) []models.AvailabilityDay {
	out := make([]models.AvailabilityDay, 0, len(days))
	for _, d := range days {
		slots := make([]models.AvailabilitySlot, 0, len(d.Slots))
		for _, s := range d.Slots {
			t, ok := NormalizeTime(s.Time)
			if !ok {
				lg.Warn("Dropping slot with malformed time", "date", d.Date, "time", s.Time)
				continue
			}
			slots = append(slots, models.AvailabilitySlot{Time: t, Available: s.Available})
		}
		sort.SliceStable(slots, func(i, j int) bool {
			return slots[i].Time < slots[j].Time
		})
		out = append(out, models.AvailabilityDay{Date: d.Date, Slots: slots})
	}
	return out
}

// firstOpenDay returns the first day, in returned order, with an available slot
func firstOpenDay(days []models.AvailabilityDay) string {
	for _, d := range days {
		if d.HasAvailable() {
			return d.Date
		}
	}
	return ""
}

// sortHistory orders bookings most recent first: by creation time when the backend
// sends it, otherwise by appointment date and time.
func sortHistory(bookings []models.BookingSummary) []models.BookingSummary {
	out := append([]models.BookingSummary(nil), bookings...)
	key := func(b models.BookingSummary) time.Time {
		if b.CreatedAt != nil {
			return *b.CreatedAt
		}
		t, err := time.Parse(constants.DateFormat+" "+constants.TimeFormat, b.Date+" "+b.Time)
		if err != nil {
			return time.Time{}
		}
		return t
	}
	sort.SliceStable(out, func(i, j int) bool {
		return key(out[i]).After(key(out[j]))
	})
	return out
}
