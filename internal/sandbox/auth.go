package sandbox

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/antaqor/yuki/internal/constants"
	"github.com/antaqor/yuki/internal/models"
)

const (
	bcryptCost    = bcrypt.DefaultCost
	contextUserID = "user_id"
)

var errInvalidCredentials = errors.New("invalid email or password")

type account struct {
	user         models.User
	passwordHash []byte
}

// claims carried by sandbox session tokens
type claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

type authenticator struct {
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
	accounts map[string]account // by lower-case email
}

func newAuthenticator(secret []byte, ttl time.Duration, now func() time.Time) (*authenticator, error) {
	a := &authenticator{
		secret:   secret,
		ttl:      ttl,
		now:      now,
		accounts: map[string]account{},
	}
	demo := models.User{ID: "usr-demo", Name: "Demo Client", Email: constants.SandboxDemoEmail}
	if err := a.addAccount(demo, constants.SandboxDemoPassword); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *authenticator) addAccount(user models.User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	a.accounts[strings.ToLower(user.Email)] = account{user: user, passwordHash: hash}
	return nil
}

// login checks credentials and issues a signed token
func (a *authenticator) login(email, password string) (string, models.User, error) {
	acc, ok := a.accounts[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return "", models.User{}, errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(password)); err != nil {
		return "", models.User{}, errInvalidCredentials
	}
	token, err := a.issue(acc.user)
	if err != nil {
		return "", models.User{}, err
	}
	return token, acc.user, nil
}

func (a *authenticator) issue(user models.User) (string, error) {
	now := a.now()
	c := claims{
		Email: user.Email,
		Name:  user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    constants.AppName + "-sandbox",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(a.secret)
}

// verify validates a token and returns its subject
func (a *authenticator) verify(token string) (string, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return "", err
	}
	if c.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return c.Subject, nil
}

// requireAuth rejects requests without a valid bearer token
func (a *authenticator) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			fail(c, http.StatusUnauthorized, "Authentication required")
			return
		}
		subject, err := a.verify(strings.TrimSpace(token))
		if err != nil {
			fail(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		c.Set(contextUserID, subject)
		c.Next()
	}
}
