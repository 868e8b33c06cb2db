package domain

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// Rating bounds enforced before a review is submitted.
const (
	MinRating = 1
	MaxRating = 5
)

var (
	// ErrInvalidRating is returned when a rating falls outside [MinRating, MaxRating].
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	// ErrEmptyComment is returned when a review comment is blank after trimming.
	ErrEmptyComment = errors.New("comment is required")
)

// UserRef is the author reference embedded in a review.
type UserRef struct {
	ID       int64  `json:"id" yaml:"id"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
}

// GameRef is the game reference embedded in a review.
type GameRef struct {
	ID    int64  `json:"id" yaml:"id"`
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
}

// Review is a star-rated text review of a game.
type Review struct {
	ID        int64    `json:"id" yaml:"id"`
	User      *UserRef `json:"user,omitempty" yaml:"user,omitempty"`
	Game      *GameRef `json:"game,omitempty" yaml:"game,omitempty"`
	Rating    int      `json:"rating" yaml:"rating"`
	Content   string   `json:"content" yaml:"content"`
	Comment   string   `json:"comment" yaml:"comment"` // alias for Content
	UserID    int64    `json:"userId" yaml:"user_id"`
	IsPublic  bool     `json:"isPublic" yaml:"is_public"`
	CreatedAt string   `json:"createdAt,omitempty" yaml:"created_at,omitempty"`
}

// createdLayouts covers zoned and zone-less timestamps from the backend.
var createdLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// CreatedTime parses CreatedAt. Zone-less values are read as UTC.
// The zero time is returned when the value is missing or malformed.
func (r Review) CreatedTime() time.Time {
	for _, layout := range createdLayouts {
		if t, err := time.Parse(layout, r.CreatedAt); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Author returns the display name of the review's author.
func (r Review) Author() string {
	if r.User != nil && r.User.Username != "" {
		return r.User.Username
	}
	return "User " + strconv.FormatInt(r.UserID, 10)
}

// OwnedBy reports whether the review's author id equals identityID
// when both are compared as strings.
func (r Review) OwnedBy(identityID string) bool {
	if identityID == "" {
		return false
	}
	return strconv.FormatInt(r.UserID, 10) == identityID
}

// ValidRating reports whether r is an accepted star rating.
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

// ReviewInput is what a user submits from the review composer.
type ReviewInput struct {
	Rating   int
	Comment  string
	IsPublic bool
}

// Validate checks the input before any network call is made.
func (in ReviewInput) Validate() error {
	if !ValidRating(in.Rating) {
		return ErrInvalidRating
	}
	if strings.TrimSpace(in.Comment) == "" {
		return ErrEmptyComment
	}
	return nil
}

// AverageRating returns the mean rating of reviews, or 0 for none.
func AverageRating(reviews []Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews))
}
