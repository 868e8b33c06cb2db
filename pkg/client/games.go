package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/gamerscove/cove/pkg/domain"
)

// ListGames fetches the catalog. A non-blank query is sent as q. Failures
// are logged and yield an empty slice, never an error.
func (c *Client) ListGames(ctx context.Context, query string) []domain.Game {
	path := "/games"
	if q := strings.TrimSpace(query); q != "" {
		path += "?" + url.Values{"q": {q}}.Encode()
	}
	var raw json.RawMessage
	if err := c.Public().Get(ctx, path, &raw); err != nil {
		c.logger.Warn("list games", "error", err)
		return []domain.Game{}
	}
	if !isArray(raw) {
		return []domain.Game{}
	}
	var games []domain.Game
	if err := json.Unmarshal(raw, &games); err != nil {
		c.logger.Warn("decode games", "error", err)
		return []domain.Game{}
	}
	if games == nil {
		games = []domain.Game{}
	}
	return games
}

// GetGame fetches a single game.
func (c *Client) GetGame(ctx context.Context, id int64) (*domain.Game, error) {
	var g domain.Game
	if err := c.Public().Get(ctx, fmt.Sprintf("/games/%d", id), &g); err != nil {
		return nil, fmt.Errorf("client.GetGame: %w", err)
	}
	return &g, nil
}

// CreateGame adds a game to the catalog.
func (c *Client) CreateGame(ctx context.Context, in domain.GameInput) (*domain.Game, error) {
	var g domain.Game
	if err := c.Auth().Post(ctx, "/games", in, &g); err != nil {
		return nil, fmt.Errorf("client.CreateGame: %w", err)
	}
	return &g, nil
}

// UpdateGame replaces the fields set in in.
func (c *Client) UpdateGame(ctx context.Context, id int64, in domain.GameInput) (*domain.Game, error) {
	var g domain.Game
	if err := c.Auth().Put(ctx, fmt.Sprintf("/games/%d", id), in, &g); err != nil {
		return nil, fmt.Errorf("client.UpdateGame: %w", err)
	}
	return &g, nil
}

// DeleteGame removes a game.
func (c *Client) DeleteGame(ctx context.Context, id int64) error {
	if err := c.Auth().Delete(ctx, fmt.Sprintf("/games/%d", id)); err != nil {
		return fmt.Errorf("client.DeleteGame: %w", err)
	}
	return nil
}
