package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/antaqor/yuki/internal/api"
	"github.com/antaqor/yuki/internal/constants"
	"github.com/antaqor/yuki/internal/logger"
	"github.com/antaqor/yuki/internal/models"
)

var (
	// ErrValidation is returned when an action is rejected before any network call
	ErrValidation = errors.New("invalid selection")
	// ErrAuthRequired is returned when an action needs a session token and there is none
	ErrAuthRequired = errors.New("sign-in required")
)

// Backend is the booking service the wizard talks to. *api.Client implements it.
type Backend interface {
	Locations(ctx context.Context) ([]models.Location, error)
	Artists(ctx context.Context, locationID string) ([]models.Artist, error)
	Availability(ctx context.Context, locationID, artistID string, days int) ([]models.AvailabilityDay, error)
	CreateBooking(ctx context.Context, token string, req models.BookingRequest) (models.BookingSummary, error)
	History(ctx context.Context, token string) ([]models.BookingSummary, error)
}

// TokenSource yields the current bearer token. *session.Session implements it.
type TokenSource interface {
	Token() (string, bool)
}

type cacheInvalidator interface {
	InvalidateCache()
}

// Option configures a Wizard
type Option func(*Wizard)

// WithOnChange registers a callback run after every state change. It is called
// without the wizard lock held, possibly from a background goroutine.
func WithOnChange(fn func()) Option {
	return func(w *Wizard) { w.onChange = fn }
}

// WithOnBooked registers a callback run once per confirmed booking
func WithOnBooked(fn func(models.BookingSummary)) Option {
	return func(w *Wizard) { w.onBooked = fn }
}

// WithAvailabilityDays sets the availability window requested from the backend
func WithAvailabilityDays(days int) Option {
	return func(w *Wizard) {
		if days > 0 {
			w.days = days
		}
	}
}

// WithLogger replaces the component logger
func WithLogger(l *log.Logger) Option {
	return func(w *Wizard) {
		if l != nil {
			w.log = l
		}
	}
}

// generations tag each dependent fetch. A response is applied only while its
// generation is still the latest one issued for that resource.
type generations struct {
	locations    uint64
	artists      uint64
	availability uint64
	history      uint64
	booking      uint64
}

// Wizard is the booking state machine: location, artist, time, summary.
// All methods are safe for concurrent use; network I/O runs outside the lock.
type Wizard struct {
	backend  Backend
	tokens   TokenSource
	days     int
	onChange func()
	onBooked func(models.BookingSummary)
	log      *log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	bgMu   sync.Mutex
	bg     *errgroup.Group
	closed bool

	mu    sync.Mutex
	state State
	gen   generations
}

// New creates a wizard in its initial state. Call Start to load locations.
func New(backend Backend, tokens TokenSource, opts ...Option) *Wizard {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Wizard{
		backend: backend,
		tokens:  tokens,
		days:    constants.AvailabilityWindowDays,
		log:     logger.Named("wizard"),
		ctx:     ctx,
		cancel:  cancel,
		bg:      new(errgroup.Group),
		state:   initialState(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Snapshot returns a deep copy of the current state
func (w *Wizard) Snapshot() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.Clone()
}

func (w *Wizard) notify() {
	if w.onChange != nil {
		w.onChange()
	}
}

// reject records a validation message and returns the matching error
func (w *Wizard) reject(msg string) error {
	w.state.Message = models.Error(msg)
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// fail records a fetch failure in the message slot
func (w *Wizard) fail(err error, fallback string) {
	if api.IsUnauthorized(err) {
		w.state.AuthRequired = true
	}
	w.state.Message = models.Error(api.Message(err, fallback, constants.MsgNetworkError))
}

// requireAuth records a missing session. Like any other local validation
// failure it is shown in the error tone.
func (w *Wizard) requireAuth() error {
	w.state.AuthRequired = true
	w.state.Message = models.Error(constants.MsgAuthRequired)
	return ErrAuthRequired
}

// Start loads the locations list. A single location is selected automatically
// and its artists are fetched; the booking history is loaded in the background.
func (w *Wizard) Start(ctx context.Context) error {
	_, ok := w.tokens.Token()

	w.mu.Lock()
	if !ok {
		err := w.requireAuth()
		w.mu.Unlock()
		w.notify()
		return err
	}
	w.state.AuthRequired = false
	w.gen.locations++
	gen := w.gen.locations
	w.state.IsLoadingLocations = true
	w.mu.Unlock()
	w.notify()

	w.background("history", w.LoadHistory)

	locations, err := w.backend.Locations(ctx)

	w.mu.Lock()
	if gen != w.gen.locations {
		w.mu.Unlock()
		w.log.Debug("Discarding stale locations response", "generation", gen)
		return nil
	}
	w.state.IsLoadingLocations = false
	if err != nil {
		w.fail(err, constants.MsgLocationsFallback)
		w.mu.Unlock()
		w.notify()
		w.log.Warn("Failed to load locations", "err", err)
		return err
	}
	w.state.Locations = locations
	auto := false
	switch len(locations) {
	case 0:
		w.state.Message = models.Info(constants.MsgNoLocations)
	case 1:
		w.applyLocation(locations[0].ID)
		auto = true
	}
	w.mu.Unlock()
	w.notify()

	if auto {
		return w.loadArtists(ctx)
	}
	return nil
}

// applyLocation selects a location and clears everything that depended on the
// previous one. Caller holds w.mu.
func (w *Wizard) applyLocation(id string) {
	w.state.SelectedLocationID = id
	w.state.SelectedArtistID = ""
	w.state.Artists = nil
	w.state.AvailabilityDays = nil
	w.state.SelectedDay = ""
	w.state.SelectedTime = ""
	w.state.IsLoadingAvailability = false
	w.state.Step = StepArtist
	w.gen.availability++
}

// SelectLocation chooses a location and fetches its artists. Re-selecting the
// current location only advances to the artist step.
func (w *Wizard) SelectLocation(ctx context.Context, id string) error {
	w.mu.Lock()
	if !hasLocation(w.state.Locations, id) {
		err := w.reject(constants.MsgUnknownLocation)
		w.mu.Unlock()
		w.notify()
		return err
	}
	if w.state.SelectedLocationID == id {
		w.state.Step = StepArtist
		w.mu.Unlock()
		w.notify()
		return nil
	}
	w.applyLocation(id)
	w.mu.Unlock()
	w.notify()

	return w.loadArtists(ctx)
}

func (w *Wizard) loadArtists(ctx context.Context) error {
	w.mu.Lock()
	locationID := w.state.SelectedLocationID
	if locationID == "" {
		w.mu.Unlock()
		return nil
	}
	w.gen.artists++
	gen := w.gen.artists
	w.state.IsLoadingArtists = true
	w.mu.Unlock()
	w.notify()

	artists, err := w.backend.Artists(ctx, locationID)

	w.mu.Lock()
	if gen != w.gen.artists || locationID != w.state.SelectedLocationID {
		w.mu.Unlock()
		w.log.Debug("Discarding stale artists response", "location", locationID, "generation", gen)
		return nil
	}
	w.state.IsLoadingArtists = false
	if err != nil {
		w.fail(err, constants.MsgArtistsFallback)
		w.mu.Unlock()
		w.notify()
		w.log.Warn("Failed to load artists", "location", locationID, "err", err)
		return err
	}
	w.state.Artists = artists
	if len(artists) == 0 {
		w.state.Message = models.Info(constants.MsgNoArtists)
	}
	w.mu.Unlock()
	w.notify()
	return nil
}

// SelectArtist chooses an artist at the selected location, advances to the time
// step and fetches the availability window.
func (w *Wizard) SelectArtist(ctx context.Context, id string) error {
	w.mu.Lock()
	if w.state.SelectedLocationID == "" {
		err := w.reject(constants.MsgChooseLocationFirst)
		w.mu.Unlock()
		w.notify()
		return err
	}
	if !hasArtist(w.state.Artists, id) {
		err := w.reject(constants.MsgUnknownArtist)
		w.mu.Unlock()
		w.notify()
		return err
	}
	w.state.SelectedArtistID = id
	w.state.AvailabilityDays = nil
	w.state.SelectedDay = ""
	w.state.SelectedTime = ""
	w.state.Step = StepTime
	w.mu.Unlock()
	w.notify()

	return w.loadAvailability(ctx)
}

// loadAvailability fetches the window for the current location and artist.
// The selected time is always cleared and the first open day is selected.
func (w *Wizard) loadAvailability(ctx context.Context) error {
	w.mu.Lock()
	locationID, artistID := w.state.SelectedLocationID, w.state.SelectedArtistID
	if locationID == "" || artistID == "" {
		w.mu.Unlock()
		return nil
	}
	w.gen.availability++
	gen := w.gen.availability
	w.state.IsLoadingAvailability = true
	w.mu.Unlock()
	w.notify()

	days, err := w.backend.Availability(ctx, locationID, artistID, w.days)

	w.mu.Lock()
	if gen != w.gen.availability || locationID != w.state.SelectedLocationID || artistID != w.state.SelectedArtistID {
		w.mu.Unlock()
		w.log.Debug("Discarding stale availability response", "location", locationID, "artist", artistID, "generation", gen)
		return nil
	}
	w.state.IsLoadingAvailability = false
	if err != nil {
		w.fail(err, constants.MsgAvailabilityFallback)
		w.mu.Unlock()
		w.notify()
		w.log.Warn("Failed to load availability", "location", locationID, "artist", artistID, "err", err)
		return err
	}
	days = normalizeDays(days, w.log)
	w.state.AvailabilityDays = days
	w.state.SelectedTime = ""
	w.state.SelectedDay = firstOpenDay(days)
	if w.state.SelectedDay == "" {
		w.state.Message = models.Info(constants.MsgFullyBooked)
	}
	w.mu.Unlock()
	w.notify()
	return nil
}

// PickDay selects any listed day, including fully booked ones. Moving to a
// different day clears the selected time.
func (w *Wizard) PickDay(date string) error {
	w.mu.Lock()
	day, ok := w.state.Day(date)
	if !ok {
		err := w.reject(constants.MsgUnknownDay)
		w.mu.Unlock()
		w.notify()
		return err
	}
	if w.state.SelectedDay != date {
		w.state.SelectedTime = ""
	}
	w.state.SelectedDay = date
	if !day.HasAvailable() {
		w.state.Message = models.Info(constants.MsgDayFullyBooked)
	}
	w.mu.Unlock()
	w.notify()
	return nil
}

// SelectSlot sets the day and time together. The slot must exist and be open.
func (w *Wizard) SelectSlot(date, t string) error {
	w.mu.Lock()
	day, ok := w.state.Day(date)
	if !ok {
		err := w.reject(constants.MsgUnknownDay)
		w.mu.Unlock()
		w.notify()
		return err
	}
	normalized, _ := NormalizeTime(t)
	slot, ok := day.Slot(normalized)
	if !ok || !slot.Available {
		err := w.reject(constants.MsgSlotUnavailable)
		w.mu.Unlock()
		w.notify()
		return err
	}
	w.state.SelectedDay = date
	w.state.SelectedTime = slot.Time
	w.mu.Unlock()
	w.notify()
	return nil
}

// Submit books the selected slot. Incomplete selections and missing sessions are
// rejected without a request. On success the wizard moves to the summary step
// and refreshes availability and history in the background.
func (w *Wizard) Submit(ctx context.Context) (models.BookingSummary, error) {
	token, ok := w.tokens.Token()

	w.mu.Lock()
	if w.state.BookingStatus == constants.BookingSubmitting {
		err := w.reject(constants.MsgSubmitInProgress)
		w.mu.Unlock()
		w.notify()
		return models.BookingSummary{}, err
	}
	if !ok {
		err := w.requireAuth()
		w.mu.Unlock()
		w.notify()
		return models.BookingSummary{}, err
	}
	if !w.state.Ready() {
		err := w.reject(constants.MsgIncompleteSelection)
		w.mu.Unlock()
		w.notify()
		return models.BookingSummary{}, err
	}
	if day, found := w.state.CurrentDay(); found {
		if slot, open := day.Slot(w.state.SelectedTime); !open || !slot.Available {
			err := w.reject(constants.MsgSlotUnavailable)
			w.mu.Unlock()
			w.notify()
			return models.BookingSummary{}, err
		}
	}
	req := models.BookingRequest{
		LocationID: w.state.SelectedLocationID,
		ArtistID:   w.state.SelectedArtistID,
		Date:       w.state.SelectedDay,
		Time:       w.state.SelectedTime,
	}
	w.state.BookingStatus = constants.BookingSubmitting
	gen := w.gen.booking
	w.mu.Unlock()
	w.notify()

	summary, err := w.backend.CreateBooking(ctx, token, req)

	w.mu.Lock()
	if gen != w.gen.booking {
		// the wizard was reset while the request was in flight
		w.mu.Unlock()
		w.log.Debug("Discarding booking result after reset", "err", err)
		return summary, err
	}
	if err != nil {
		w.state.BookingStatus = constants.BookingError
		w.fail(err, constants.MsgBookingFallback)
		w.mu.Unlock()
		w.notify()
		w.log.Warn("Booking failed", "location", req.LocationID, "artist", req.ArtistID, "date", req.Date, "time", req.Time, "err", err)
		return models.BookingSummary{}, err
	}
	w.state.BookingStatus = constants.BookingSuccess
	booked := summary
	w.state.LastBooking = &booked
	w.state.Step = StepSummary
	w.state.Message = models.Success(constants.MsgBookingConfirmed)
	w.mu.Unlock()
	w.notify()
	w.log.Info("Booking confirmed", "id", summary.ID, "date", summary.Date, "time", summary.Time)

	if w.onBooked != nil {
		w.onBooked(summary)
	}
	w.background("availability", w.loadAvailability)
	w.background("history", w.LoadHistory)
	return summary, nil
}

// StartOver resets every selection, the booking and the cached lists, then
// reloads locations. Booking history survives the reset.
func (w *Wizard) StartOver(ctx context.Context) error {
	if c, ok := w.backend.(cacheInvalidator); ok {
		c.InvalidateCache()
	}
	w.mu.Lock()
	history := w.state.History
	w.state = initialState()
	w.state.History = history
	w.gen.locations++
	w.gen.artists++
	w.gen.availability++
	w.gen.booking++
	w.mu.Unlock()
	w.notify()

	return w.Start(ctx)
}

// Back moves one step backwards. From the summary it returns to the time step
// when an artist is still selected, otherwise to the artist step.
func (w *Wizard) Back() Step {
	w.mu.Lock()
	switch w.state.Step {
	case StepSummary:
		if w.state.SelectedArtistID != "" {
			w.state.Step = StepTime
		} else {
			w.state.Step = StepArtist
		}
	case StepTime:
		w.state.Step = StepArtist
	case StepArtist:
		w.state.Step = StepLocation
	}
	step := w.state.Step
	w.mu.Unlock()
	w.notify()
	return step
}

// GoTo navigates to target when it is reachable and reports whether it moved
func (w *Wizard) GoTo(target Step) bool {
	w.mu.Lock()
	if !w.state.CanAccessStep(target) {
		w.mu.Unlock()
		return false
	}
	w.state.Step = target
	w.mu.Unlock()
	w.notify()
	return true
}

// LoadHistory fetches the signed-in user's bookings
func (w *Wizard) LoadHistory(ctx context.Context) error {
	token, ok := w.tokens.Token()

	w.mu.Lock()
	if !ok {
		err := w.requireAuth()
		w.mu.Unlock()
		w.notify()
		return err
	}
	w.gen.history++
	gen := w.gen.history
	w.state.IsLoadingHistory = true
	w.mu.Unlock()
	w.notify()

	bookings, err := w.backend.History(ctx, token)

	w.mu.Lock()
	if gen != w.gen.history {
		w.mu.Unlock()
		return nil
	}
	w.state.IsLoadingHistory = false
	if err != nil {
		w.fail(err, constants.MsgHistoryFallback)
		w.mu.Unlock()
		w.notify()
		w.log.Warn("Failed to load history", "err", err)
		return err
	}
	w.state.History = sortHistory(bookings)
	w.mu.Unlock()
	w.notify()
	return nil
}

// background runs fn on the wizard's lifetime context. Nothing is started
// once the wizard is closed.
func (w *Wizard) background(name string, fn func(context.Context) error) {
	w.bgMu.Lock()
	defer w.bgMu.Unlock()
	if w.closed {
		return
	}
	w.bg.Go(func() error {
		if err := fn(w.ctx); err != nil {
			w.log.Debug("Background refresh failed", "task", name, "err", err)
			return fmt.Errorf("%s refresh: %w", name, err)
		}
		return nil
	})
}

// Wait blocks until the background refreshes started so far have finished and
// returns the first error among them.
func (w *Wizard) Wait() error {
	w.bgMu.Lock()
	g := w.bg
	w.bg = new(errgroup.Group)
	w.bgMu.Unlock()
	return g.Wait()
}

// Close cancels background work and waits for it to stop
func (w *Wizard) Close() error {
	w.bgMu.Lock()
	w.closed = true
	w.bgMu.Unlock()
	w.cancel()
	if err := w.Wait(); err != nil {
		w.log.Debug("Background work stopped", "err", err)
	}
	return nil
}
