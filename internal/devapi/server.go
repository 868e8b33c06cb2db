// Package devapi is an in-memory Gamers Cove backend for offline demos
// and end-to-end tests. It accepts any identity token.
package devapi

import (
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gamerscove/cove/pkg/domain"
)

// timeLayout matches the backend's zone-less timestamps.
const timeLayout = "2006-01-02T15:04:05"

type review struct {
	ID        int64
	UserID    int64
	GameID    int64
	Rating    int
	Content   string
	IsPublic  bool
	CreatedAt time.Time
}

// Server holds the in-memory catalog, reviews, users and session tokens.
type Server struct {
	logger *slog.Logger
	now    func() time.Time

	mu         sync.Mutex
	games      map[int64]domain.Game
	reviews    map[int64]review
	users      map[int64]domain.User
	bySubject  map[string]int64
	sessions   map[string]int64
	nextGame   int64
	nextReview int64
	nextUser   int64
}

// New returns a server seeded with a few games and one dev user.
func New(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		logger:    logger,
		now:       time.Now,
		games:     map[int64]domain.Game{},
		reviews:   map[int64]review{},
		users:     map[int64]domain.User{},
		bySubject: map[string]int64{},
		sessions:  map[string]int64{},
	}
	s.seed()
	return s
}

func (s *Server) seed() {
	for _, g := range []domain.Game{
		{Title: "The Legend of Zelda", Description: "Explore Hyrule and rescue the princess.", ReleaseDate: "1986-02-21",
			Genres: []string{"Adventure", "Action"}, Platforms: []string{"NES"}, Developer: "Nintendo", Publisher: "Nintendo"},
		{Title: "Pong", Description: "Table tennis, two paddles and a ball.", ReleaseDate: "1972-11-29",
			Genres: []string{"Sports"}, Platforms: []string{"Arcade"}, Developer: "Atari", Publisher: "Atari"},
		{Title: "Hollow Knight", Description: "Descend into the ruined kingdom of Hallownest.", ReleaseDate: "2017-02-24",
			Genres: []string{"Metroidvania", "Action"}, Platforms: []string{"PC", "Switch"}, Developer: "Team Cherry", Publisher: "Team Cherry"},
		{Title: "Stardew Valley", Description: "Inherit a farm and build a life in Pelican Town.", ReleaseDate: "2016-02-26",
			Genres: []string{"Simulation", "RPG"}, Platforms: []string{"PC", "Switch", "PS4"}, Developer: "ConcernedApe", Publisher: "ConcernedApe"},
	} {
		s.nextGame++
		g.ID = s.nextGame
		s.games[g.ID] = g
	}
	s.nextUser++
	s.users[s.nextUser] = domain.User{ID: s.nextUser, FirebaseUID: "dev", Username: "player1",
		DisplayName: "Dev Player", Email: "dev@gamerscove.local"}
	s.bySubject["dev"] = s.nextUser

	s.nextReview++
	s.reviews[s.nextReview] = review{ID: s.nextReview, UserID: 1, GameID: 1, Rating: 5,
		Content: "Still the best dungeon design around.", IsPublic: true, CreatedAt: s.now().Add(-48 * time.Hour)}
}

// Handler returns the API router, mounted under /api.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.login)

		r.Get("/users/me", s.withUser(s.me))
		r.Get("/users/{id}/reviews", s.userReviews)

		r.Route("/games", func(r chi.Router) {
			r.Get("/", s.listGames)
			r.Post("/", s.withUser(s.createGame))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getGame)
				r.Put("/", s.withUser(s.updateGame))
				r.Delete("/", s.withUser(s.deleteGame))
				r.Get("/reviews", s.gameReviews)
				r.Post("/reviews", s.withUser(s.createReview))
			})
		})

		r.Route("/reviews/{id}", func(r chi.Router) {
			r.Get("/", s.getReview)
			r.Put("/", s.withUser(s.updateReview))
			r.Delete("/", s.withUser(s.deleteReview))
		})
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "Not found")
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("devapi request",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method, "path", r.URL.Path,
			"status", ww.Status(), "duration", time.Since(start))
	})
}

// sortedGames returns the catalog ordered by id. Callers hold mu.
func (s *Server) sortedGames() []domain.Game {
	out := make([]domain.Game, 0, len(s.games))
	for _, g := range s.games {
		g.AverageRating = s.averageFor(g.ID)
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// averageFor returns the mean public rating of a game, or nil. Callers hold mu.
func (s *Server) averageFor(gameID int64) *float64 {
	sum, n := 0, 0
	for _, rv := range s.reviews {
		if rv.GameID == gameID && rv.IsPublic {
			sum += rv.Rating
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := float64(sum) / float64(n)
	return &avg
}
