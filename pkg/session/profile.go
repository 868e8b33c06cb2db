package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

// Profile is what the client remembers locally about one identity.
// There is no backend endpoint for saving a username yet.
type Profile struct {
	Username      string `json:"username,omitempty"`
	NeedsUsername bool   `json:"needsUsername,omitempty"`
}

// ProfileCache stores Profiles by identity id in a JSON file.
// An empty path keeps them in memory only.
type ProfileCache struct {
	mu       sync.Mutex
	path     string
	profiles map[string]Profile
	loaded   bool
}

// NewProfileCache returns a cache backed by path.
func NewProfileCache(path string) *ProfileCache {
	return &ProfileCache{path: path, profiles: map[string]Profile{}}
}

// Get returns the profile for id; the zero Profile when unknown.
func (p *ProfileCache) Get(id string) (Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.load(); err != nil {
		return Profile{}, err
	}
	return p.profiles[id], nil
}

// SetUsername records a locally chosen username and clears the
// needs-username flag.
func (p *ProfileCache) SetUsername(id, username string) error {
	return p.update(id, func(pr *Profile) {
		pr.Username = username
		pr.NeedsUsername = false
	})
}

// MarkNeedsUsername records that id still has to pick a username.
func (p *ProfileCache) MarkNeedsUsername(id string) error {
	return p.update(id, func(pr *Profile) { pr.NeedsUsername = true })
}

func (p *ProfileCache) update(id string, fn func(*Profile)) error {
	if id == "" {
		return errors.New("session.ProfileCache: empty identity id")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.load(); err != nil {
		return err
	}
	pr := p.profiles[id]
	fn(&pr)
	p.profiles[id] = pr
	return p.save()
}

func (p *ProfileCache) load() error {
	if p.loaded || p.path == "" {
		p.loaded = true
		return nil
	}
	data, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		p.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("session.ProfileCache: %w", err)
	}
	profiles := map[string]Profile{}
	if err := json.Unmarshal(data, &profiles); err != nil {
		return fmt.Errorf("session.ProfileCache: decode %s: %w", p.path, err)
	}
	p.profiles = profiles
	p.loaded = true
	return nil
}

func (p *ProfileCache) save() error {
	if p.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(p.profiles, "", "  ")
	if err != nil {
		return fmt.Errorf("session.ProfileCache: %w", err)
	}
	if err := WritePrivate(p.path, data); err != nil {
		return fmt.Errorf("session.ProfileCache: %w", err)
	}
	return nil
}
