package devapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamerscove/cove/internal/identity"
	"github.com/gamerscove/cove/pkg/client"
	"github.com/gamerscove/cove/pkg/domain"
	"github.com/gamerscove/cove/pkg/session"
)

func newTestAPI(t *testing.T) (*client.Client, *session.MemoryStore) {
	t.Helper()
	srv := httptest.NewServer(New(nil).Handler())
	t.Cleanup(srv.Close)
	store := session.NewMemoryStore()
	return client.New(srv.URL+"/api", store), store
}

func TestCatalog(t *testing.T) {
	c, _ := newTestAPI(t)
	ctx := context.Background()

	games := c.ListGames(ctx, "")
	require.Len(t, games, 4)
	assert.Equal(t, "The Legend of Zelda", games[0].Title)
	require.NotNil(t, games[0].AverageRating)
	assert.InDelta(t, 5.0, *games[0].AverageRating, 0.001)

	zelda := c.ListGames(ctx, "zelda")
	require.Len(t, zelda, 1)

	g, err := c.GetGame(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Pong", g.Title)
	assert.Equal(t, 1972, g.ReleaseYear())

	_, err = c.GetGame(ctx, 99)
	assert.True(t, client.IsStatus(err, http.StatusNotFound))
	assert.Contains(t, client.Message(err), "Game not found")
}

func TestGameMutationsNeedSession(t *testing.T) {
	c, store := newTestAPI(t)
	ctx := context.Background()

	_, err := c.CreateGame(ctx, domain.GameInput{Title: "Celeste"})
	assert.True(t, client.IsUnauthorized(err))

	resp, err := c.Login(ctx, "dev")
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, resp.Token))

	g, err := c.CreateGame(ctx, domain.GameInput{Title: "Celeste", Genres: []string{"Platformer"}})
	require.NoError(t, err)
	assert.Equal(t, int64(5), g.ID)

	g, err = c.UpdateGame(ctx, g.ID, domain.GameInput{Developer: "Maddy Makes Games"})
	require.NoError(t, err)
	assert.Equal(t, "Celeste", g.Title)
	assert.Equal(t, "Maddy Makes Games", g.Developer)

	require.NoError(t, c.DeleteGame(ctx, g.ID))
	_, err = c.GetGame(ctx, g.ID)
	assert.True(t, client.IsStatus(err, http.StatusNotFound))
}

func TestSessionFlow(t *testing.T) {
	c, store := newTestAPI(t)
	ctx := context.Background()

	newcomer := &domain.Identity{ID: "new-sub", DisplayName: "Newcomer"}
	ctrl := session.NewController(identity.NewStatic(newcomer, "new-sub"), c, store, nil, nil)
	require.NoError(t, ctrl.SignIn(ctx))
	cur := ctrl.Current()
	assert.Equal(t, domain.SignedIn, cur.State)
	assert.True(t, cur.NeedsUsername, "new users have no username")

	dev := &domain.Identity{ID: "dev", DisplayName: "Dev"}
	ctrl = session.NewController(identity.NewStatic(dev, "dev"), c, store, nil, nil)
	require.NoError(t, ctrl.SignIn(ctx))
	cur = ctrl.Current()
	assert.False(t, cur.NeedsUsername)
	assert.Equal(t, "player1", cur.Username())

	me, err := c.GetMe(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), me.ID)

	require.NoError(t, ctrl.SignOut(ctx))
	_, err = c.GetMe(ctx)
	assert.True(t, client.IsUnauthorized(err))
}

func TestReviewFlow(t *testing.T) {
	c, store := newTestAPI(t)
	ctx := context.Background()

	reviews, err := c.ListReviewsByGame(ctx, 1, client.ListOptions{})
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "player1", reviews[0].Author())
	assert.False(t, reviews[0].CreatedTime().IsZero())

	_, err = c.CreateReview(ctx, 2, domain.ReviewInput{Rating: 4, Comment: "classic"})
	assert.ErrorIs(t, err, client.ErrNotAuthenticated)

	resp, err := c.Login(ctx, "dev")
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, resp.Token))

	created, err := c.CreateReview(ctx, 2, domain.ReviewInput{Rating: 4, Comment: " classic ", IsPublic: false})
	require.NoError(t, err)
	assert.True(t, created.IsPublic, "reviews are always published")
	assert.True(t, created.OwnedBy("1"))
	assert.Equal(t, "classic", created.Comment)

	reviews, err = c.ListReviewsByGame(ctx, 2, client.ListOptions{})
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, created.ID, reviews[0].ID)

	mine, err := c.ListReviewsByUser(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	rating := 3
	updated, err := c.UpdateReview(ctx, created.ID, client.ReviewUpdate{Rating: &rating})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Rating)

	require.NoError(t, c.DeleteReview(ctx, created.ID))
	_, err = c.GetReview(ctx, created.ID)
	assert.True(t, client.IsStatus(err, http.StatusNotFound))
}

func TestReviewPaging(t *testing.T) {
	c, store := newTestAPI(t)
	ctx := context.Background()
	resp, err := c.Login(ctx, "dev")
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, resp.Token))

	for i := 0; i < 3; i++ {
		_, err := c.CreateReview(ctx, 3, domain.ReviewInput{Rating: 5, Comment: "again"})
		require.NoError(t, err)
	}
	first, err := c.ListReviewsByGame(ctx, 3, client.ListOptions{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, first, 2)
	second, err := c.ListReviewsByGame(ctx, 3, client.ListOptions{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, second, 1)
}

func TestReviewPagingBounds(t *testing.T) {
	srv := httptest.NewServer(New(nil).Handler())
	t.Cleanup(srv.Close)

	tests := []struct {
		name      string
		query     string
		wantSize  int
		wantCount int
	}{
		{"first page", "?page=1&limit=20", 20, 1},
		{"past the end", "?page=3&limit=20", 20, 0},
		{"huge page", "?page=922337203685477580&limit=20", 20, 0},
		{"huge page and limit", "?page=922337203685477580&limit=922337203685477580", maxPageSize, 0},
		{"limit capped", "?limit=5000", maxPageSize, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Get(srv.URL + "/api/games/1/reviews" + tc.query)
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var body struct {
				Content []json.RawMessage `json:"content"`
				Size    int               `json:"size"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tc.wantSize, body.Size)
			assert.Len(t, body.Content, tc.wantCount)
		})
	}
}

func TestOtherUsersReviewsAreForbidden(t *testing.T) {
	c, store := newTestAPI(t)
	ctx := context.Background()
	resp, err := c.Login(ctx, "someone-else")
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, resp.Token))

	err = c.DeleteReview(ctx, 1)
	assert.True(t, client.IsStatus(err, http.StatusForbidden))

	tok, _ := store.Get(ctx)
	assert.Empty(t, tok, "a 403 on the authenticated client clears the token")
}

func TestRawValidation(t *testing.T) {
	srv := httptest.NewServer(New(nil).Handler())
	defer srv.Close()

	for _, body := range []string{`{}`, `{"idToken":"  "}`} {
		resp, err := http.Post(srv.URL+"/api/auth/login", "application/json", strings.NewReader(body)) //nolint:noctx
		require.NoError(t, err)
		resp.Body.Close() //nolint:errcheck
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	}

	resp, err := http.Get(srv.URL + "/nowhere") //nolint:noctx
	require.NoError(t, err)
	resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
