package devapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/gamerscove/cove/internal/identity"
	"github.com/gamerscove/cove/pkg/domain"
)

type ctxKey struct{}

type errorBody struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	render.Status(r, code)
	render.JSON(w, r, errorBody{Message: msg, Status: code})
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// bearer resolves the session token to a user id. Callers must not hold mu.
func (s *Server) bearer(r *http.Request) (int64, bool) {
	h := r.Header.Get("Authorization")
	tok, ok := strings.CutPrefix(h, "Bearer ")
	if !ok || tok == "" {
		return 0, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	uid, ok := s.sessions[tok]
	return uid, ok
}

// withUser rejects requests without a valid session token.
func (s *Server) withUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := s.bearer(r)
		if !ok {
			writeError(w, r, http.StatusUnauthorized, "Authentication required")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, uid)))
	}
}

func userID(r *http.Request) int64 {
	uid, _ := r.Context().Value(ctxKey{}).(int64)
	return uid
}

type loginRequest struct {
	IDToken string `json:"idToken"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil || strings.TrimSpace(req.IDToken) == "" {
		writeError(w, r, http.StatusBadRequest, "idToken is required")
		return
	}

	// Identity tokens are not verified here. A JWT contributes its claims;
	// anything else is taken as the subject itself.
	subject, name, email := req.IDToken, "", ""
	if id, err := identity.ParseIDToken(req.IDToken); err == nil {
		subject, name, email = id.ID, id.DisplayName, id.Email
	}

	s.mu.Lock()
	uid, ok := s.bySubject[subject]
	if !ok {
		s.nextUser++
		uid = s.nextUser
		s.users[uid] = domain.User{ID: uid, FirebaseUID: subject, DisplayName: name, Email: email,
			CreatedAt: s.now().Format(timeLayout)}
		s.bySubject[subject] = uid
	}
	u := s.users[uid]
	tok := uuid.NewString()
	s.sessions[tok] = uid
	s.mu.Unlock()

	render.JSON(w, r, domain.LoginResponse{Token: tok, NeedsUsername: u.Username == ""})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	u, ok := s.users[userID(r)]
	s.mu.Unlock()
	if !ok {
		writeError(w, r, http.StatusNotFound, "User not found")
		return
	}
	render.JSON(w, r, u)
}

func (s *Server) listGames(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	games := s.sortedGames()
	s.mu.Unlock()
	render.JSON(w, r, domain.FilterGames(games, r.URL.Query().Get("q")))
}

func (s *Server) getGame(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "Invalid game id")
		return
	}
	s.mu.Lock()
	g, found := s.games[id]
	g.AverageRating = s.averageFor(id)
	s.mu.Unlock()
	if !found {
		writeError(w, r, http.StatusNotFound, "Game not found")
		return
	}
	render.JSON(w, r, g)
}

func applyGameInput(g *domain.Game, in domain.GameInput) {
	if in.Title != "" {
		g.Title = in.Title
	}
	if in.Description != "" {
		g.Description = in.Description
	}
	if in.CoverImageURL != "" {
		g.CoverImageURL = in.CoverImageURL
	}
	if in.ReleaseDate != "" {
		g.ReleaseDate = in.ReleaseDate
	}
	if in.Genres != nil {
		g.Genres = in.Genres
	}
	if in.Platforms != nil {
		g.Platforms = in.Platforms
	}
	if in.Developer != "" {
		g.Developer = in.Developer
	}
	if in.Publisher != "" {
		g.Publisher = in.Publisher
	}
}

func (s *Server) createGame(w http.ResponseWriter, r *http.Request) {
	var in domain.GameInput
	if err := render.DecodeJSON(r.Body, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid game")
		return
	}
	if strings.TrimSpace(in.Title) == "" {
		writeError(w, r, http.StatusBadRequest, "Title is required")
		return
	}
	s.mu.Lock()
	s.nextGame++
	g := domain.Game{ID: s.nextGame}
	applyGameInput(&g, in)
	s.games[g.ID] = g
	s.mu.Unlock()

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, g)
}

func (s *Server) updateGame(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "Invalid game id")
		return
	}
	var in domain.GameInput
	if err := render.DecodeJSON(r.Body, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid game")
		return
	}
	s.mu.Lock()
	g, found := s.games[id]
	if found {
		applyGameInput(&g, in)
		s.games[id] = g
	}
	s.mu.Unlock()
	if !found {
		writeError(w, r, http.StatusNotFound, "Game not found")
		return
	}
	render.JSON(w, r, g)
}

func (s *Server) deleteGame(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "Invalid game id")
		return
	}
	s.mu.Lock()
	_, found := s.games[id]
	delete(s.games, id)
	for rid, rv := range s.reviews {
		if rv.GameID == id {
			delete(s.reviews, rid)
		}
	}
	s.mu.Unlock()
	if !found {
		writeError(w, r, http.StatusNotFound, "Game not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
