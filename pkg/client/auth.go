package client

import (
	"context"
	"fmt"

	"github.com/gamerscove/cove/pkg/domain"
)

// LoginRequest is the token-exchange payload.
type LoginRequest struct {
	IDToken string `json:"idToken"`
}

// Login exchanges an identity-provider token for a session token.
func (c *Client) Login(ctx context.Context, idToken string) (*domain.LoginResponse, error) {
	var resp domain.LoginResponse
	if err := c.Public().Post(ctx, "/auth/login", LoginRequest{IDToken: idToken}, &resp); err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	return &resp, nil
}

// GetMe returns the signed-in user's backend profile.
func (c *Client) GetMe(ctx context.Context) (*domain.User, error) {
	var u domain.User
	if err := c.Auth().Get(ctx, "/users/me", &u); err != nil {
		return nil, fmt.Errorf("client.GetMe: %w", err)
	}
	return &u, nil
}
