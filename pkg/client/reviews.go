package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/gamerscove/cove/pkg/domain"
)

// Default paging for review listings.
const (
	DefaultPage  = 1
	DefaultLimit = 20
)

// ListOptions pages a review listing. Zero values take the defaults.
type ListOptions struct {
	Page  int
	Limit int
}

func (o ListOptions) query() string {
	page, limit := o.Page, o.Limit
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	return url.Values{
		"page":  {strconv.Itoa(page)},
		"limit": {strconv.Itoa(limit)},
	}.Encode()
}

// reviewDTO is the backend's review shape, which is looser than domain.Review.
type reviewDTO struct {
	ID        int64           `json:"id"`
	User      *domain.UserRef `json:"user"`
	Game      *domain.GameRef `json:"game"`
	UserID    *int64          `json:"userId"`
	GameID    *int64          `json:"gameId"`
	Rating    int             `json:"rating"`
	Content   string          `json:"content"`
	Comment   string          `json:"comment"`
	IsPublic  *bool           `json:"isPublic"`
	CreatedAt string          `json:"createdAt"`
}

func (d reviewDTO) toDomain() domain.Review {
	r := domain.Review{
		ID:        d.ID,
		User:      d.User,
		Game:      d.Game,
		Rating:    d.Rating,
		Content:   d.Content,
		Comment:   d.Content,
		IsPublic:  true,
		CreatedAt: d.CreatedAt,
	}
	if r.Comment == "" {
		r.Comment = d.Comment
		r.Content = d.Comment
	}
	if d.IsPublic != nil {
		r.IsPublic = *d.IsPublic
	}
	switch {
	case d.User != nil:
		r.UserID = d.User.ID
	case d.UserID != nil:
		r.UserID = *d.UserID
	}
	if r.Game == nil && d.GameID != nil {
		r.Game = &domain.GameRef{ID: *d.GameID}
	}
	return r
}

// reviewBody is the write payload sent to the backend.
type reviewBody struct {
	Rating   int    `json:"rating"`
	Content  string `json:"content"`
	IsPublic bool   `json:"isPublic"`
}

// ListReviewsByGame fetches the reviews of a game. The session token is
// attached when stored. A 401 or 403 yields an empty slice, as do
// transport and decode failures; other HTTP errors are returned.
func (c *Client) ListReviewsByGame(ctx context.Context, gameID int64, opts ListOptions) ([]domain.Review, error) {
	path := fmt.Sprintf("/games/%d/reviews?%s", gameID, opts.query())
	reviews, err := c.listReviews(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("client.ListReviewsByGame: %w", err)
	}
	return reviews, nil
}

// ListReviewsByUser fetches the reviews written by a user, with the same
// failure handling as ListReviewsByGame.
func (c *Client) ListReviewsByUser(ctx context.Context, userID int64) ([]domain.Review, error) {
	reviews, err := c.listReviews(ctx, fmt.Sprintf("/users/%d/reviews", userID))
	if err != nil {
		return nil, fmt.Errorf("client.ListReviewsByUser: %w", err)
	}
	return reviews, nil
}

func (c *Client) listReviews(ctx context.Context, path string) ([]domain.Review, error) {
	empty := []domain.Review{}

	var raw json.RawMessage
	err := c.Auth().Get(ctx, path, &raw)
	var httpErr *HTTPError
	switch {
	case err == nil:
	case IsUnauthorized(err):
		c.logger.Info("reviews hidden from this session", "path", path, "error", err)
		return empty, nil
	case errors.As(err, &httpErr):
		return nil, err
	case ctx.Err() != nil:
		return nil, err
	default:
		c.logger.Warn("list reviews", "path", path, "error", err)
		return empty, nil
	}

	// raw is already unwrapped once; a {content} page may remain.
	body, ok := listBody(raw)
	if !ok {
		return empty, nil
	}
	var dtos []reviewDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		c.logger.Warn("decode reviews", "path", path, "error", err)
		return empty, nil
	}
	reviews := make([]domain.Review, 0, len(dtos))
	for _, d := range dtos {
		reviews = append(reviews, d.toDomain())
	}
	return reviews, nil
}

// CreateReview posts a review for a game. Input is validated and the token
// checked before any request is sent. Reviews are always published
// publicly, whatever in.IsPublic says.
func (c *Client) CreateReview(ctx context.Context, gameID int64, in domain.ReviewInput) (*domain.Review, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("client.CreateReview: %w", err)
	}
	if c.token(ctx) == "" {
		return nil, fmt.Errorf("client.CreateReview: %w", ErrNotAuthenticated)
	}
	body := reviewBody{
		Rating:   in.Rating,
		Content:  in.Comment,
		IsPublic: true,
	}
	var dto reviewDTO
	if err := c.Auth().Post(ctx, fmt.Sprintf("/games/%d/reviews", gameID), body, &dto); err != nil {
		return nil, fmt.Errorf("client.CreateReview: %w", err)
	}
	r := dto.toDomain()
	if r.Game == nil {
		r.Game = &domain.GameRef{ID: gameID}
	}
	return &r, nil
}

// GetReview fetches a single review.
func (c *Client) GetReview(ctx context.Context, reviewID int64) (*domain.Review, error) {
	var dto reviewDTO
	if err := c.Public().Get(ctx, fmt.Sprintf("/reviews/%d", reviewID), &dto); err != nil {
		return nil, fmt.Errorf("client.GetReview: %w", err)
	}
	r := dto.toDomain()
	return &r, nil
}

// ReviewUpdate holds the fields of a review edit; nil fields are unchanged.
type ReviewUpdate struct {
	Rating  *int
	Comment *string
}

type reviewPatch struct {
	Rating  *int    `json:"rating,omitempty"`
	Content *string `json:"content,omitempty"`
}

// UpdateReview edits a review.
func (c *Client) UpdateReview(ctx context.Context, reviewID int64, upd ReviewUpdate) (*domain.Review, error) {
	if upd.Rating != nil && !domain.ValidRating(*upd.Rating) {
		return nil, fmt.Errorf("client.UpdateReview: %w", domain.ErrInvalidRating)
	}
	if upd.Comment != nil {
		in := domain.ReviewInput{Rating: domain.MinRating, Comment: *upd.Comment}
		if err := in.Validate(); err != nil {
			return nil, fmt.Errorf("client.UpdateReview: %w", err)
		}
	}
	var dto reviewDTO
	patch := reviewPatch{Rating: upd.Rating, Content: upd.Comment}
	if err := c.Auth().Put(ctx, fmt.Sprintf("/reviews/%d", reviewID), patch, &dto); err != nil {
		return nil, fmt.Errorf("client.UpdateReview: %w", err)
	}
	r := dto.toDomain()
	return &r, nil
}

// DeleteReview removes a review.
func (c *Client) DeleteReview(ctx context.Context, reviewID int64) error {
	if err := c.Auth().Delete(ctx, fmt.Sprintf("/reviews/%d", reviewID)); err != nil {
		return fmt.Errorf("client.DeleteReview: %w", err)
	}
	return nil
}
