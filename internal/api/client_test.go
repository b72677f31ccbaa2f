package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antaqor/yuki/internal/constants"
	"github.com/antaqor/yuki/internal/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...func(*Config)) (*Client, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	cfg := Config{BaseURL: srv.URL + "/", Timeout: 5 * time.Second}
	for _, o := range opts {
		o(&cfg)
	}
	return New(cfg), &hits
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestLocations(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/booking/locations", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":   true,
			"locations": []models.Location{{ID: "l1", Name: "Central", Address: "Peace Ave 1"}},
		})
	})

	locs, err := c.Locations(context.Background())
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, "Central", locs[0].Name)
}

func TestArtistsAndAvailabilityQuery(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/booking/artists":
			assert.Equal(t, "l1", r.URL.Query().Get("locationId"))
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"success": true,
				"artists": []models.Artist{{ID: "a1", Name: "Yuki"}},
			})
		case "/booking/availability":
			q := r.URL.Query()
			assert.Equal(t, "l1", q.Get("locationId"))
			assert.Equal(t, "a1", q.Get("artistId"))
			assert.Equal(t, "7", q.Get("days"))
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"success": true,
				"days": []models.AvailabilityDay{{
					Date:  "2024-01-02",
					Slots: []models.AvailabilitySlot{{Time: "11:00", Available: true}},
				}},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	artists, err := c.Artists(context.Background(), "l1")
	require.NoError(t, err)
	assert.Equal(t, []models.Artist{{ID: "a1", Name: "Yuki"}}, artists)

	days, err := c.Availability(context.Background(), "l1", "a1", 0)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.True(t, days[0].HasAvailable())
}

func TestCreateBooking(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("Idempotency-Key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body models.BookingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, models.BookingRequest{LocationID: "l1", ArtistID: "a1", Date: "2024-01-02", Time: "11:00"}, body)

		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"success": true,
			"booking": models.BookingSummary{
				ID: "b1", Status: constants.BookingStatusConfirmed, Date: body.Date, Time: body.Time,
				Location: models.Ref{ID: "l1", Name: "Central"}, Artist: models.Ref{ID: "a1", Name: "Yuki"},
			},
		})
	})

	req := models.BookingRequest{LocationID: "l1", ArtistID: "a1", Date: "2024-01-02", Time: "11:00"}
	b, err := c.CreateBooking(context.Background(), "tok", req)
	require.NoError(t, err)
	assert.Equal(t, "b1", b.ID)
	assert.EqualValues(t, 1, atomic.LoadInt32(hits))
}

func TestCreateBookingValidatesLocally(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not reach the server")
	})

	cases := []struct {
		name  string
		token string
		req   models.BookingRequest
	}{
		{"missing token", "", models.BookingRequest{LocationID: "l1", ArtistID: "a1", Date: "2024-01-02", Time: "11:00"}},
		{"missing artist", "tok", models.BookingRequest{LocationID: "l1", Date: "2024-01-02", Time: "11:00"}},
		{"bad date", "tok", models.BookingRequest{LocationID: "l1", ArtistID: "a1", Date: "02/01/2024", Time: "11:00"}},
		{"bad time", "tok", models.BookingRequest{LocationID: "l1", ArtistID: "a1", Date: "2024-01-02", Time: "noon"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.CreateBooking(context.Background(), tc.token, tc.req)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
	assert.EqualValues(t, 0, atomic.LoadInt32(hits))
}

func TestApplicationErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"error string", http.StatusConflict, `{"success":false,"error":"Slot already taken"}`, "Slot already taken"},
		{"message field", http.StatusBadRequest, `{"success":false,"message":"Invalid artist"}`, "Invalid artist"},
		{"error object", http.StatusBadRequest, `{"success":false,"error":{"message":"Nested"}}`, "Nested"},
		{"details list", http.StatusBadRequest, `{"success":false,"details":["date required","time required"]}`, "date required; time required"},
		{"success false with 200", http.StatusOK, `{"success":false,"error":"Closed today"}`, "Closed today"},
		{"no message", http.StatusInternalServerError, `{"success":false}`, constants.MsgLocationsFallback},
		{"html error page", http.StatusBadGateway, `<html>bad gateway</html>`, constants.MsgLocationsFallback},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			_, err := c.Locations(context.Background())
			var apiErr *Error
			require.True(t, errors.As(err, &apiErr), "got %v", err)
			assert.Equal(t, tc.status, apiErr.Status)
			assert.Equal(t, tc.want, apiErr.Message)
			assert.False(t, errors.Is(err, ErrTransport))
		})
	}
}

func TestMalformedJSONIsTransportError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"locations":`))
	})

	_, err := c.Locations(context.Background())
	assert.ErrorIs(t, err, ErrTransport)
}

func TestUnreachableIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(Config{BaseURL: url, Timeout: time.Second})
	_, err := c.Locations(context.Background())
	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, constants.MsgNetworkError, Message(err, constants.MsgLocationsFallback, constants.MsgNetworkError))
}

func TestUnauthorized(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "error": "Token expired"})
	})

	_, err := c.History(context.Background(), "stale")
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, "Token expired", Message(err, constants.MsgHistoryFallback, constants.MsgNetworkError))
}

func TestReferenceDataCache(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/booking/locations":
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "locations": []models.Location{{ID: "l1"}}})
		case "/booking/availability":
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "days": []models.AvailabilityDay{}})
		}
	}, func(cfg *Config) { cfg.CacheTTL = time.Minute })

	for i := 0; i < 3; i++ {
		_, err := c.Locations(context.Background())
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(hits))

	for i := 0; i < 2; i++ {
		_, err := c.Availability(context.Background(), "l1", "a1", 7)
		require.NoError(t, err)
	}
	assert.EqualValues(t, 3, atomic.LoadInt32(hits), "availability must not be cached")

	c.InvalidateCache()
	_, err := c.Locations(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 4, atomic.LoadInt32(hits))
}

func TestCancelledContext(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {}, func(cfg *Config) {
		cfg.RateLimit = 1
		cfg.RateBurst = 1
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Locations(ctx)
	assert.ErrorIs(t, err, ErrTransport)
	assert.EqualValues(t, 0, atomic.LoadInt32(hits))
}

func TestLogin(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		var creds Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds.Password != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "message": "Wrong email or password"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"token":   "tok",
			"user":    models.User{ID: "u1", Name: "Demo", Email: creds.Email},
		})
	})

	token, user, err := c.Login(context.Background(), Credentials{Email: " demo@yuki.local ", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
	assert.Equal(t, "demo@yuki.local", user.Email)

	_, _, err = c.Login(context.Background(), Credentials{Email: "demo@yuki.local", Password: "nope"})
	assert.True(t, IsUnauthorized(err))

	_, _, err = c.Login(context.Background(), Credentials{Email: "not-an-email", Password: "x"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}
