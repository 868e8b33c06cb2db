package domain

// SessionState is the observable state of the sign-in lifecycle.
type SessionState int

const (
	SignedOut SessionState = iota
	Authenticating
	SignedIn
)

func (s SessionState) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case SignedIn:
		return "signed-in"
	default:
		return "signed-out"
	}
}

// LoginResponse is the backend's answer to an identity token exchange.
type LoginResponse struct {
	Token         string `json:"token"`
	NeedsUsername bool   `json:"needsUsername,omitempty"`
	User          *User  `json:"user,omitempty"`
}
