package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/antaqor/yuki/internal/constants"
	"github.com/antaqor/yuki/internal/models"
)

type locationsResponse struct {
	Locations []models.Location `json:"locations"`
}

type artistsResponse struct {
	Artists []models.Artist `json:"artists"`
}

type availabilityResponse struct {
	Days []models.AvailabilityDay `json:"days"`
}

type bookingResponse struct {
	Booking models.BookingSummary `json:"booking"`
}

type historyResponse struct {
	Bookings []models.BookingSummary `json:"bookings"`
}

// Locations fetches GET /booking/locations
func (c *Client) Locations(ctx context.Context) ([]models.Location, error) {
	const key = "locations"
	if c.cache != nil {
		if v, ok := c.cache.Get(key); ok {
			return append([]models.Location(nil), v.([]models.Location)...), nil
		}
	}

	var resp locationsResponse
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/booking/locations",
		fallback: constants.MsgLocationsFallback,
	}, &resp)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.SetDefault(key, resp.Locations)
	}
	return append([]models.Location(nil), resp.Locations...), nil
}

// Artists fetches GET /booking/artists?locationId=
func (c *Client) Artists(ctx context.Context, locationID string) ([]models.Artist, error) {
	if locationID == "" {
		return nil, fmt.Errorf("%w: location id is required", ErrInvalidRequest)
	}

	key := "artists:" + locationID
	if c.cache != nil {
		if v, ok := c.cache.Get(key); ok {
			return append([]models.Artist(nil), v.([]models.Artist)...), nil
		}
	}

	var resp artistsResponse
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/booking/artists",
		query:    url.Values{"locationId": {locationID}},
		fallback: constants.MsgArtistsFallback,
	}, &resp)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.SetDefault(key, resp.Artists)
	}
	return append([]models.Artist(nil), resp.Artists...), nil
}

// Availability fetches GET /booking/availability for a location/artist window.
// Results are never cached: a booking elsewhere changes them.
func (c *Client) Availability(ctx context.Context, locationID, artistID string, days int) ([]models.AvailabilityDay, error) {
	if locationID == "" || artistID == "" {
		return nil, fmt.Errorf("%w: location and artist ids are required", ErrInvalidRequest)
	}
	if days <= 0 {
		days = constants.AvailabilityWindowDays
	}

	var resp availabilityResponse
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/booking/availability",
		query: url.Values{
			"locationId": {locationID},
			"artistId":   {artistID},
			"days":       {strconv.Itoa(days)},
		},
		fallback: constants.MsgAvailabilityFallback,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Days, nil
}

// CreateBooking sends POST /booking with the bearer token
func (c *Client) CreateBooking(ctx context.Context, token string, req models.BookingRequest) (models.BookingSummary, error) {
	if token == "" {
		return models.BookingSummary{}, fmt.Errorf("%w: bearer token is required", ErrInvalidRequest)
	}
	if err := c.validate.Struct(req); err != nil {
		return models.BookingSummary{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	var resp bookingResponse
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/booking",
		token:    token,
		body:     req,
		headers:  map[string]string{"Idempotency-Key": uuid.NewString()},
		fallback: constants.MsgBookingFallback,
	}, &resp)
	if err != nil {
		return models.BookingSummary{}, err
	}
	return resp.Booking, nil
}

// History fetches GET /booking/history for the token's user
func (c *Client) History(ctx context.Context, token string) ([]models.BookingSummary, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: bearer token is required", ErrInvalidRequest)
	}

	var resp historyResponse
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/booking/history",
		token:    token,
		fallback: constants.MsgHistoryFallback,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Bookings, nil
}
