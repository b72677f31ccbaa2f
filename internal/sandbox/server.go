// Package sandbox is an in-memory stand-in for the salon booking backend. It
// serves the same routes and envelopes as the real service so the client can be
// used and tested without network access.
package sandbox

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/antaqor/yuki/internal/constants"
	"github.com/antaqor/yuki/internal/logger"
	"github.com/antaqor/yuki/internal/models"
)

// Options configures a sandbox server
type Options struct {
	// Secret signs session tokens; a random secret is generated when empty
	Secret   []byte
	TokenTTL time.Duration
	// Now replaces the clock, for tests
	Now func() time.Time
}

// Server is the sandbox HTTP backend
type Server struct {
	engine   *gin.Engine
	catalog  *catalog
	auth     *authenticator
	metrics  *metrics
	validate *validator.Validate
	log      *log.Logger
}

func New(opts Options) (*Server, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	ttl := opts.TokenTTL
	if ttl <= 0 {
		ttl = constants.SandboxTokenTTL
	}
	secret := opts.Secret
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate token secret: %w", err)
		}
	}

	auth, err := newAuthenticator(secret, ttl, now)
	if err != nil {
		return nil, err
	}

	s := &Server{
		catalog:  newCatalog(now),
		auth:     auth,
		metrics:  newMetrics(),
		validate: validator.New(),
		log:      logger.Named("sandbox"),
	}
	s.engine = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestID(), s.logRequests(), s.metrics.middleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok"})
	})
	r.GET("/metrics", s.metrics.handler())

	r.POST("/auth/login", s.handleLogin)

	b := r.Group("/booking")
	b.GET("/locations", s.handleLocations)
	b.GET("/artists", s.handleArtists)
	b.GET("/availability", s.handleAvailability)
	b.POST("", s.auth.requireAuth(), s.handleCreateBooking)
	b.GET("/history", s.auth.requireAuth(), s.handleHistory)

	r.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, "Route not found")
	})
	return r
}

// Handler exposes the routes, for httptest servers
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Serve runs the sandbox on ln until ctx is cancelled
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.log.Info("Sandbox listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down sandbox: %w", err)
		}
		<-errCh
		return nil
	}
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set("request_id", rid)
		c.Header("X-Request-ID", rid)
		c.Next()
	}
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("Request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"request_id", c.GetString("request_id"),
			"latency", time.Since(start),
		)
	}
}

// fail writes the error envelope and stops the handler chain
func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": message})
}

func (s *Server) handleLogin(c *gin.Context) {
	var body struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validate.Struct(body); err != nil {
		fail(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	token, user, err := s.auth.login(body.Email, body.Password)
	if err != nil {
		fail(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "token": token, "user": user})
}

func (s *Server) handleLocations(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "locations": s.catalog.listLocations()})
}

func (s *Server) handleArtists(c *gin.Context) {
	locationID := c.Query("locationId")
	if locationID == "" {
		fail(c, http.StatusBadRequest, "locationId is required")
		return
	}
	artists, err := s.catalog.listArtists(locationID)
	if err != nil {
		fail(c, http.StatusNotFound, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "artists": artists})
}

func (s *Server) handleAvailability(c *gin.Context) {
	locationID, artistID := c.Query("locationId"), c.Query("artistId")
	if locationID == "" || artistID == "" {
		fail(c, http.StatusBadRequest, "locationId and artistId are required")
		return
	}
	days := constants.AvailabilityWindowDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > constants.MaxAvailabilityDays {
			fail(c, http.StatusBadRequest, fmt.Sprintf("days must be between 1 and %d", constants.MaxAvailabilityDays))
			return
		}
		days = n
	}

	window, err := s.catalog.availability(locationID, artistID, days)
	if err != nil {
		fail(c, http.StatusNotFound, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "days": window})
}

func (s *Server) handleCreateBooking(c *gin.Context) {
	var req models.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.metrics.bookingsTotal.WithLabelValues("invalid").Inc()
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.metrics.bookingsTotal.WithLabelValues("invalid").Inc()
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"error":   "Validation failed",
			"details": validationDetails(err),
		})
		return
	}

	summary, err := s.catalog.book(c.GetString(contextUserID), c.GetHeader("Idempotency-Key"), req)
	switch {
	case err == nil:
	case errors.Is(err, errSlotTaken):
		s.metrics.bookingsTotal.WithLabelValues("conflict").Inc()
		fail(c, http.StatusConflict, err.Error())
		return
	case errors.Is(err, errUnknownLocation), errors.Is(err, errUnknownArtist):
		s.metrics.bookingsTotal.WithLabelValues("invalid").Inc()
		fail(c, http.StatusNotFound, err.Error())
		return
	default:
		s.metrics.bookingsTotal.WithLabelValues("invalid").Inc()
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	s.metrics.bookingsTotal.WithLabelValues("confirmed").Inc()
	s.log.Info("Booking created", "id", summary.ID, "artist", summary.Artist.ID, "date", summary.Date, "time", summary.Time)
	c.JSON(http.StatusCreated, gin.H{"success": true, "booking": summary})
}

func (s *Server) handleHistory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "bookings": s.catalog.history(c.GetString(contextUserID))})
}

func validationDetails(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return details
}
