package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/antaqor/yuki/internal/cli"
	"github.com/antaqor/yuki/internal/constants"
	clierrors "github.com/antaqor/yuki/internal/errors"
	"github.com/antaqor/yuki/internal/models"
	"github.com/antaqor/yuki/internal/wizard"
)

// bioWidth is the widest artist bio shown in listings, in terminal columns
const bioWidth = 40

type LocationsCmd struct{}

func (c *LocationsCmd) Run(ctx *cli.Context) error {
	client, err := ctx.API()
	if err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(context.Background(), ctx.Config.Timeout)
	defer cancel()

	locations, err := client.Locations(runCtx)
	if err != nil {
		return fmt.Errorf("failed to load locations: %w", err)
	}
	if len(locations) == 0 {
		ctx.Println(constants.MsgNoLocations)
		return nil
	}

	ctx.Printf("%s %s %s\n", cell("ID", 16), cell("Name", 24), "Address")
	ctx.Println(strings.Repeat("-", 70))
	for _, l := range locations {
		ctx.Printf("%s %s %s\n", cell(l.ID, 16), cell(l.Name, 24), l.Address)
	}
	return nil
}

type ArtistsCmd struct {
	Location string `help:"Location ID." required:"" short:"l"`
}

func (c *ArtistsCmd) Run(ctx *cli.Context) error {
	client, err := ctx.API()
	if err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(context.Background(), ctx.Config.Timeout)
	defer cancel()

	artists, err := client.Artists(runCtx, c.Location)
	if err != nil {
		return fmt.Errorf("failed to load artists: %w", err)
	}
	if len(artists) == 0 {
		ctx.Println(constants.MsgNoArtists)
		return nil
	}

	ctx.Printf("%s %s %s\n", cell("ID", 16), cell("Name", 20), "Bio")
	ctx.Println(strings.Repeat("-", 70))
	for _, a := range artists {
		ctx.Printf("%s %s %s\n", cell(a.ID, 16), cell(a.Name, 20), runewidth.Truncate(a.Bio, bioWidth, "..."))
	}
	return nil
}

type AvailabilityCmd struct {
	Location string `help:"Location ID." required:"" short:"l"`
	Artist   string `help:"Artist ID." required:"" short:"a"`
	Days     int    `help:"Number of days to show (defaults to availability_days)."`
	All      bool   `help:"Also list booked slots."`
}

func (c *AvailabilityCmd) Run(ctx *cli.Context) error {
	days := c.Days
	if days == 0 {
		days = ctx.Config.AvailabilityDays
	}
	if days < 1 || days > constants.MaxAvailabilityDays {
		return fmt.Errorf("--days must be between 1 and %d", constants.MaxAvailabilityDays)
	}

	client, err := ctx.API()
	if err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(context.Background(), ctx.Config.Timeout)
	defer cancel()

	window, err := client.Availability(runCtx, c.Location, c.Artist, days)
	if err != nil {
		return fmt.Errorf("failed to load availability: %w", err)
	}

	open := 0
	for _, d := range window {
		var times []string
		for _, s := range d.Slots {
			t, ok := wizard.NormalizeTime(s.Time)
			if !ok {
				continue
			}
			switch {
			case s.Available:
				times = append(times, t)
				open++
			case c.All:
				times = append(times, "("+t+")")
			}
		}
		line := strings.Join(times, " ")
		if !d.HasAvailable() {
			line = strings.TrimSpace("fully booked " + line)
		}
		ctx.Printf("%s  %s\n", formatDay(d.Date), line)
	}
	if open == 0 {
		ctx.Println(constants.MsgFullyBooked)
	}
	return nil
}

// BookCmd books one slot by driving the wizard through every step
type BookCmd struct {
	Location string `help:"Location ID." required:"" short:"l"`
	Artist   string `help:"Artist ID." required:"" short:"a"`
	Date     string `help:"Day to book (YYYY-MM-DD)." required:"" short:"d"`
	Time     string `help:"Time to book (HH:MM)." required:"" short:"t"`
}

func (c *BookCmd) Run(ctx *cli.Context) error {
	if _, err := time.Parse(constants.DateFormat, c.Date); err != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", c.Date)
	}
	if _, ok := wizard.NormalizeTime(c.Time); !ok {
		return fmt.Errorf("invalid time %q, expected HH:MM", c.Time)
	}

	w, err := ctx.NewWizard()
	if err != nil {
		return err
	}
	defer w.Close()

	runCtx, cancel := context.WithTimeout(context.Background(), 4*ctx.Config.Timeout)
	defer cancel()

	if err := w.Start(runCtx); err != nil {
		return wizardError(w, err)
	}
	if err := w.SelectLocation(runCtx, c.Location); err != nil {
		return wizardError(w, err)
	}
	if err := w.SelectArtist(runCtx, c.Artist); err != nil {
		return wizardError(w, err)
	}
	if err := w.SelectSlot(c.Date, c.Time); err != nil {
		return wizardError(w, err)
	}
	summary, err := w.Submit(runCtx)
	if err != nil {
		return wizardError(w, err)
	}

	ctx.Println("✓ " + constants.MsgBookingConfirmed)
	printBooking(ctx, summary)
	return nil
}

type HistoryCmd struct {
	Limit int `help:"Show at most this many bookings (0 for all)." default:"0"`
}

func (c *HistoryCmd) Run(ctx *cli.Context) error {
	w, err := ctx.NewWizard()
	if err != nil {
		return err
	}
	defer w.Close()

	runCtx, cancel := context.WithTimeout(context.Background(), ctx.Config.Timeout)
	defer cancel()

	if err := w.LoadHistory(runCtx); err != nil {
		return wizardError(w, err)
	}
	history := w.Snapshot().History
	if len(history) == 0 {
		ctx.Println("No bookings yet.")
		return nil
	}
	if c.Limit > 0 && len(history) > c.Limit {
		history = history[:c.Limit]
	}

	ctx.Printf("%s %s %s %s %s\n", cell("Date", 16), cell("Time", 6), cell("Location", 18), cell("Artist", 16), "Status")
	ctx.Println(strings.Repeat("-", 70))
	for _, b := range history {
		ctx.Printf("%s %s %s %s %s\n",
			cell(formatDay(b.Date), 16), cell(b.Time, 6), cell(b.Location.Name, 18), cell(b.Artist.Name, 16), b.Status)
	}
	return nil
}

// wizardError turns a failed wizard step into the message the wizard recorded.
// The original error stays in the chain.
func wizardError(w *wizard.Wizard, err error) error {
	st := w.Snapshot()
	if st.Message == nil || st.Message.Text == "" {
		return err
	}
	msg := st.Message.Text
	if st.AuthRequired && !errors.Is(err, wizard.ErrAuthRequired) {
		err = errors.Join(wizard.ErrAuthRequired, err)
	}
	if errors.Is(err, wizard.ErrAuthRequired) {
		return clierrors.WithHint(clierrors.WithMessage(err, msg), "run `yuki login`")
	}
	return clierrors.WithMessage(err, msg)
}

func printBooking(ctx *cli.Context, b models.BookingSummary) {
	ctx.Printf("  When:     %s at %s\n", formatDay(b.Date), b.Time)
	ctx.Printf("  Where:    %s\n", b.Location.Name)
	ctx.Printf("  Artist:   %s\n", b.Artist.Name)
	ctx.Printf("  Status:   %s\n", b.Status)
	if b.ID != "" {
		ctx.Printf("  Ref:      %s\n", b.ID)
	}
}

// cell pads s to width terminal columns, cutting it short when it does not fit
func cell(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, "…"), width)
}

func formatDay(date string) string {
	t, err := time.Parse(constants.DateFormat, date)
	if err != nil {
		return date
	}
	return t.Format("Mon 2006-01-02")
}
