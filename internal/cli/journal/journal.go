package journal

import (
	"errors"
	"fmt"
	"strings"

	"github.com/antaqor/yuki/internal/cli"
	clierrors "github.com/antaqor/yuki/internal/errors"
)

var ErrJournalDisabled = errors.New("booking journal is not enabled")

// JournalListCmd prints bookings recorded on this machine
type JournalListCmd struct {
	Limit int `help:"Show at most this many entries (0 for all)." default:"20"`
}

func (c *JournalListCmd) Run(ctx *cli.Context) error {
	j, err := ctx.Journal()
	if err != nil {
		return err
	}
	if j == nil {
		return clierrors.WithHint(ErrJournalDisabled, "set `journal` in config.yaml or YUKI_JOURNAL to a file path or postgres:// URL")
	}

	entries, err := j.ListBookings(c.Limit)
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}
	if len(entries) == 0 {
		ctx.Println("No bookings recorded.")
		return nil
	}

	ctx.Printf("%-36s %-10s %-5s %-18s %-16s %s\n", "ID", "Date", "Time", "Location", "Artist", "Recorded")
	ctx.Println(strings.Repeat("-", 110))
	for _, e := range entries {
		b := e.Booking
		ctx.Printf("%-36s %-10s %-5s %-18s %-16s %s\n",
			b.ID, b.Date, b.Time, b.Location.Name, b.Artist.Name, e.RecordedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}
