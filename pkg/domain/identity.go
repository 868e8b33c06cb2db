package domain

import "time"

// Identity is the third-party identity of the person at the keyboard.
// It lives only while the provider session is active.
type Identity struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name,omitempty"`
	Email       string    `json:"email,omitempty"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	AuthTime    time.Time `json:"auth_time,omitempty"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
}

// Name returns the display name, falling back to email and then "User".
func (i *Identity) Name() string {
	if i == nil {
		return "User"
	}
	if i.DisplayName != "" {
		return i.DisplayName
	}
	if i.Email != "" {
		return i.Email
	}
	return "User"
}
