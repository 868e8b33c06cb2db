package devapi

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/render"

	"github.com/gamerscove/cove/pkg/domain"
)

// wireReview is the backend's review representation.
type wireReview struct {
	ID        int64           `json:"id"`
	User      *domain.UserRef `json:"user"`
	Game      *domain.GameRef `json:"game"`
	Rating    int             `json:"rating"`
	Content   string          `json:"content"`
	IsPublic  bool            `json:"isPublic"`
	CreatedAt string          `json:"createdAt"`
}

// page mirrors a paged list response with the items under "content".
type page struct {
	Content       []wireReview `json:"content"`
	Page          int          `json:"page"`
	Size          int          `json:"size"`
	TotalElements int          `json:"totalElements"`
}

type dataEnvelope struct {
	Data any `json:"data"`
}

type reviewRequest struct {
	Rating   *int    `json:"rating"`
	Content  *string `json:"content"`
	IsPublic *bool   `json:"isPublic"`
}

// wire converts a stored review. Callers hold mu.
func (s *Server) wire(rv review) wireReview {
	u := s.users[rv.UserID]
	return wireReview{
		ID:        rv.ID,
		User:      &domain.UserRef{ID: u.ID, Username: u.Username},
		Game:      &domain.GameRef{ID: rv.GameID, Title: s.games[rv.GameID].Title},
		Rating:    rv.Rating,
		Content:   rv.Content,
		IsPublic:  rv.IsPublic,
		CreatedAt: rv.CreatedAt.Format(timeLayout),
	}
}

// visible returns the reviews matching keep that viewer may see, newest
// first. Callers hold mu.
func (s *Server) visible(viewer int64, keep func(review) bool) []wireReview {
	var out []review
	for _, rv := range s.reviews {
		if keep(rv) && (rv.IsPublic || rv.UserID == viewer) {
			out = append(out, rv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	wired := make([]wireReview, 0, len(out))
	for _, rv := range out {
		wired = append(wired, s.wire(rv))
	}
	return wired
}

// maxPageSize caps the limit query parameter.
const maxPageSize = 100

// pageBounds returns the slice bounds of page pageNo (1-based) over n items.
// Pages past the end are empty.
func pageBounds(pageNo, size, n int) (int, int) {
	if pageNo-1 >= (n+size-1)/size {
		return n, n
	}
	start := (pageNo - 1) * size
	return start, min(start+size, n)
}

func queryInt(r *http.Request, key string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n < 1 {
		return def
	}
	return n
}

func (s *Server) gameReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "Invalid game id")
		return
	}
	viewer, _ := s.bearer(r)
	pageNo, size := queryInt(r, "page", 1), min(queryInt(r, "limit", 20), maxPageSize)

	s.mu.Lock()
	_, found := s.games[id]
	all := s.visible(viewer, func(rv review) bool { return rv.GameID == id })
	s.mu.Unlock()
	if !found {
		writeError(w, r, http.StatusNotFound, "Game not found")
		return
	}

	start, end := pageBounds(pageNo, size, len(all))
	render.JSON(w, r, page{Content: all[start:end], Page: pageNo, Size: size, TotalElements: len(all)})
}

func (s *Server) userReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "Invalid user id")
		return
	}
	viewer, _ := s.bearer(r)
	s.mu.Lock()
	_, found := s.users[id]
	out := s.visible(viewer, func(rv review) bool { return rv.UserID == id })
	s.mu.Unlock()
	if !found {
		writeError(w, r, http.StatusNotFound, "User not found")
		return
	}
	render.JSON(w, r, dataEnvelope{Data: out})
}

func validReview(req reviewRequest, partial bool) string {
	if req.Rating != nil && !domain.ValidRating(*req.Rating) || req.Rating == nil && !partial {
		return "Rating must be between 1 and 5"
	}
	if req.Content != nil && strings.TrimSpace(*req.Content) == "" || req.Content == nil && !partial {
		return "Content is required"
	}
	return ""
}

func (s *Server) createReview(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathID(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "Invalid game id")
		return
	}
	var req reviewRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid review")
		return
	}
	if msg := validReview(req, false); msg != "" {
		writeError(w, r, http.StatusBadRequest, msg)
		return
	}
	public := true
	if req.IsPublic != nil {
		public = *req.IsPublic
	}

	s.mu.Lock()
	if _, found := s.games[gameID]; !found {
		s.mu.Unlock()
		writeError(w, r, http.StatusNotFound, "Game not found")
		return
	}
	s.nextReview++
	rv := review{ID: s.nextReview, UserID: userID(r), GameID: gameID, Rating: *req.Rating,
		Content: strings.TrimSpace(*req.Content), IsPublic: public, CreatedAt: s.now()}
	s.reviews[rv.ID] = rv
	out := s.wire(rv)
	s.mu.Unlock()

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, out)
}

func (s *Server) getReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "Invalid review id")
		return
	}
	s.mu.Lock()
	rv, found := s.reviews[id]
	out := s.wire(rv)
	s.mu.Unlock()
	if !found {
		writeError(w, r, http.StatusNotFound, "Review not found")
		return
	}
	render.JSON(w, r, out)
}

// ownReview loads review id and checks that the caller wrote it.
func (s *Server) ownReview(w http.ResponseWriter, r *http.Request) (review, bool) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "Invalid review id")
		return review{}, false
	}
	s.mu.Lock()
	rv, found := s.reviews[id]
	s.mu.Unlock()
	switch {
	case !found:
		writeError(w, r, http.StatusNotFound, "Review not found")
		return review{}, false
	case rv.UserID != userID(r):
		writeError(w, r, http.StatusForbidden, "You can only change your own reviews")
		return review{}, false
	}
	return rv, true
}

func (s *Server) updateReview(w http.ResponseWriter, r *http.Request) {
	rv, ok := s.ownReview(w, r)
	if !ok {
		return
	}
	var req reviewRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid review")
		return
	}
	if msg := validReview(req, true); msg != "" {
		writeError(w, r, http.StatusBadRequest, msg)
		return
	}
	if req.Rating != nil {
		rv.Rating = *req.Rating
	}
	if req.Content != nil {
		rv.Content = strings.TrimSpace(*req.Content)
	}
	if req.IsPublic != nil {
		rv.IsPublic = *req.IsPublic
	}
	s.mu.Lock()
	s.reviews[rv.ID] = rv
	out := s.wire(rv)
	s.mu.Unlock()
	render.JSON(w, r, out)
}

func (s *Server) deleteReview(w http.ResponseWriter, r *http.Request) {
	rv, ok := s.ownReview(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.reviews, rv.ID)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}
