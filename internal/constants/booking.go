package constants

// Tone classifies a message shown in the wizard's single message slot
type Tone string

// BookingStatus tracks the submit request lifecycle
type BookingStatus string

const (
	ToneInfo    Tone = "info"
	ToneSuccess Tone = "success"
	ToneError   Tone = "error"

	BookingIdle       BookingStatus = "idle"
	BookingSubmitting BookingStatus = "submitting"
	BookingSuccess    BookingStatus = "success"
	BookingError      BookingStatus = "error"

	// Booking status values returned by the backend
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"

	// User-facing messages. Fallbacks are used when the server gives no message.
	MsgNetworkError         = "Could not reach the booking service. Check your connection and try again."
	MsgLocationsFallback    = "Failed to load locations."
	MsgArtistsFallback      = "Failed to load artists."
	MsgAvailabilityFallback = "Failed to load availability."
	MsgBookingFallback      = "Booking failed. Please try again."
	MsgHistoryFallback      = "Failed to load booking history."
	MsgLoginFallback        = "Sign in failed."
	MsgNoLocations          = "No locations are available right now."
	MsgNoArtists            = "No artists are available at this location."
	MsgFullyBooked          = "All slots are booked for the next days. Try another artist."
	MsgDayFullyBooked       = "No open slots on this day."
	MsgAuthRequired         = "Please sign in to book an appointment."
	MsgSessionExpired       = "Your session has expired. Please sign in again."
	MsgChooseLocationFirst  = "Choose a location first."
	MsgChooseArtistFirst    = "Choose an artist first."
	MsgIncompleteSelection  = "Choose a location, artist, day and time before booking."
	MsgSlotUnavailable      = "That time is no longer available."
	MsgUnknownLocation      = "Unknown location."
	MsgUnknownArtist        = "Unknown artist."
	MsgUnknownDay           = "That day is not in the availability window."
	MsgSubmitInProgress     = "A booking is already being submitted."
	MsgBookingConfirmed     = "Booking confirmed."
)
