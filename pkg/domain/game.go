package domain

import (
	"strconv"
	"strings"
	"time"
)

// Game is a catalog entry owned by the backend.
type Game struct {
	ID            int64    `json:"id" yaml:"id"`
	Title         string   `json:"title" yaml:"title"`
	Description   string   `json:"description,omitempty" yaml:"description,omitempty"`
	CoverImageURL string   `json:"coverImageUrl,omitempty" yaml:"cover_image_url,omitempty"`
	ReleaseDate   string   `json:"releaseDate,omitempty" yaml:"release_date,omitempty"` // ISO date, e.g. "2017-03-03"
	Genres        []string `json:"genres,omitempty" yaml:"genres,omitempty"`
	Platforms     []string `json:"platforms,omitempty" yaml:"platforms,omitempty"`
	Developer     string   `json:"developer,omitempty" yaml:"developer,omitempty"`
	Publisher     string   `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	AverageRating *float64 `json:"averageRating,omitempty" yaml:"average_rating,omitempty"`
}

// GameInput is the body for creating or updating a game.
// Zero-valued fields are omitted so updates stay partial.
type GameInput struct {
	Title         string   `json:"title,omitempty"`
	Description   string   `json:"description,omitempty"`
	CoverImageURL string   `json:"coverImageUrl,omitempty"`
	ReleaseDate   string   `json:"releaseDate,omitempty"`
	Genres        []string `json:"genres,omitempty"`
	Platforms     []string `json:"platforms,omitempty"`
	Developer     string   `json:"developer,omitempty"`
	Publisher     string   `json:"publisher,omitempty"`
}

// releaseLayouts are the date shapes the backend has been seen to emit.
var releaseLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006",
}

// ReleaseYear returns the year of the release date, or 0 when it is unknown.
func (g Game) ReleaseYear() int {
	s := strings.TrimSpace(g.ReleaseDate)
	if s == "" {
		return 0
	}
	for _, layout := range releaseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Year()
		}
	}
	if len(s) >= 4 {
		if y, err := strconv.Atoi(s[:4]); err == nil {
			return y
		}
	}
	return 0
}

// Matches reports whether the game's title, description or any genre
// contains query, ignoring case. A blank query matches every game.
func (g Game) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(g.Title), q) {
		return true
	}
	if strings.Contains(strings.ToLower(g.Description), q) {
		return true
	}
	for _, genre := range g.Genres {
		if strings.Contains(strings.ToLower(genre), q) {
			return true
		}
	}
	return false
}

// FilterGames returns the games matching query, preserving order.
func FilterGames(games []Game, query string) []Game {
	if strings.TrimSpace(query) == "" {
		return games
	}
	out := make([]Game, 0, len(games))
	for _, g := range games {
		if g.Matches(query) {
			out = append(out, g)
		}
	}
	return out
}
