package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/antaqor/yuki/internal/constants"
	"github.com/antaqor/yuki/internal/models"
)

// Credentials is the POST /auth/login body
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Login exchanges credentials for a bearer token
func (c *Client) Login(ctx context.Context, creds Credentials) (string, models.User, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if err := c.validate.Struct(creds); err != nil {
		return "", models.User{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	var resp loginResponse
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/auth/login",
		body:     creds,
		fallback: constants.MsgLoginFallback,
	}, &resp)
	if err != nil {
		return "", models.User{}, err
	}
	if resp.Token == "" {
		return "", models.User{}, &Error{Status: http.StatusOK, Message: constants.MsgLoginFallback}
	}
	return resp.Token, resp.User, nil
}
