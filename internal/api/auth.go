package api

import (
	"context"

	"github.com/nicway1/truelog-cli/internal/model"
)

// LoginRequest is the credential payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued bearer token and the user profile.
type LoginResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var out LoginResponse
	if err := c.post(ctx, "/api/auth/login", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me fetches the authenticated user's profile.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var out model.User
	if err := c.get(ctx, "/api/auth/me", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
