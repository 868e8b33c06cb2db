package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gamerscove/cove/pkg/domain"
)

func TestListReviewsByGame_DefaultPaging(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/games/3/reviews" {
			http.NotFound(w, r)
			return
		}
		query = r.URL.RawQuery
		w.Write([]byte(`[]`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	if _, err := c.ListReviewsByGame(context.Background(), 3, ListOptions{}); err != nil {
		t.Fatalf("ListReviewsByGame() error: %v", err)
	}
	if query != "limit=20&page=1" {
		t.Errorf("query = %q, want %q", query, "limit=20&page=1")
	}

	c.ListReviewsByGame(context.Background(), 3, ListOptions{Page: 2, Limit: 5}) //nolint:errcheck
	if query != "limit=5&page=2" {
		t.Errorf("query = %q, want %q", query, "limit=5&page=2")
	}
}

func TestListReviewsByGame_Shapes(t *testing.T) {
	const review = `{"id":1,"user":{"id":42,"username":"zel"},"rating":4,"content":"great","createdAt":"2025-10-07T22:15:03"}`
	tests := []struct {
		name string
		body string
		want int
	}{
		{"bare array", `[` + review + `]`, 1},
		{"data envelope", `{"data":[` + review + `,` + review + `]}`, 2},
		{"content page", `{"content":[` + review + `],"totalElements":1}`, 1},
		{"not a list", `{"id":1}`, 0},
		{"malformed", `[{"id":`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(tt.body)) //nolint:errcheck
			}))
			defer srv.Close()

			c := New(srv.URL, nil)
			got, err := c.ListReviewsByGame(context.Background(), 1, ListOptions{})
			if err != nil {
				t.Fatalf("ListReviewsByGame() error: %v", err)
			}
			if got == nil {
				t.Fatal("got nil slice, want non-nil")
			}
			if len(got) != tt.want {
				t.Fatalf("got %d reviews, want %d", len(got), tt.want)
			}
			if tt.want > 0 {
				r := got[0]
				if r.Comment != "great" || r.Content != "great" {
					t.Errorf("Comment = %q, Content = %q, want %q", r.Comment, r.Content, "great")
				}
				if r.UserID != 42 {
					t.Errorf("UserID = %d, want 42", r.UserID)
				}
				if !r.IsPublic {
					t.Error("IsPublic = false, want true when absent")
				}
			}
		})
	}
}

func TestListReviewsByGame_Mapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[{"id":2,"userId":9,"rating":2,"comment":"meh","isPublic":false}]`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	got, err := c.ListReviewsByGame(context.Background(), 1, ListOptions{})
	if err != nil {
		t.Fatalf("ListReviewsByGame() error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d reviews, want 1", len(got))
	}
	if got[0].UserID != 9 || got[0].Comment != "meh" || got[0].IsPublic {
		t.Errorf("review = %+v", got[0])
	}
}

func TestListReviewsByGame_DeniedIsEmpty(t *testing.T) {
	for _, code := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(code)
		}))

		c := New(srv.URL, &memTokens{token: "expired"})
		got, err := c.ListReviewsByGame(context.Background(), 1, ListOptions{})
		srv.Close()

		if err != nil {
			t.Errorf("code %d: error = %v, want nil", code, err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("code %d: got %v, want empty slice", code, got)
		}
	}
}

func TestListReviewsByGame_ServerErrorRaises(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"db down"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	_, err := c.ListReviewsByGame(context.Background(), 1, ListOptions{})
	if !IsStatus(err, http.StatusInternalServerError) {
		t.Fatalf("error = %v, want HTTP 500", err)
	}
}

func TestListReviewsByGame_TransportFailureIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(url, nil)
	got, err := c.ListReviewsByGame(context.Background(), 1, ListOptions{})
	if err != nil || len(got) != 0 {
		t.Errorf("got %v, %v; want empty, nil", got, err)
	}
}

func TestCreateReview_Validation(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	tests := []struct {
		name    string
		token   string
		in      domain.ReviewInput
		wantErr error
	}{
		{"rating zero", "t", domain.ReviewInput{Rating: 0, Comment: "ok"}, domain.ErrInvalidRating},
		{"rating six", "t", domain.ReviewInput{Rating: 6, Comment: "ok"}, domain.ErrInvalidRating},
		{"blank comment", "t", domain.ReviewInput{Rating: 3, Comment: "  \n"}, domain.ErrEmptyComment},
		{"no token", "", domain.ReviewInput{Rating: 3, Comment: "ok"}, ErrNotAuthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(srv.URL, &memTokens{token: tt.token})
			_, err := c.CreateReview(context.Background(), 1, tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
	if n := hits.Load(); n != 0 {
		t.Errorf("server saw %d requests, want 0", n)
	}
}

func TestCreateReview_ForcesPublic(t *testing.T) {
	var sent map[string]any
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/games/5/reviews" {
			http.NotFound(w, r)
			return
		}
		auth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&sent) //nolint:errcheck
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"id":11,"user":{"id":42},"rating":5,"content":"best"}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, &memTokens{token: "sess"})
	r, err := c.CreateReview(context.Background(), 5, domain.ReviewInput{Rating: 5, Comment: "best", IsPublic: false})
	if err != nil {
		t.Fatalf("CreateReview() error: %v", err)
	}
	if auth != "Bearer sess" {
		t.Errorf("Authorization = %q", auth)
	}
	if sent["isPublic"] != true {
		t.Errorf("isPublic sent = %v, want true", sent["isPublic"])
	}
	if sent["content"] != "best" || sent["rating"] != float64(5) {
		t.Errorf("body = %v", sent)
	}
	if r.ID != 11 || r.UserID != 42 || r.Game == nil || r.Game.ID != 5 {
		t.Errorf("review = %+v", r)
	}
}

func TestUpdateAndDeleteReview(t *testing.T) {
	var methods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reviews/8" {
			http.NotFound(w, r)
			return
		}
		methods = append(methods, r.Method)
		if r.Method == http.MethodPut {
			w.Write([]byte(`{"id":8,"rating":2,"content":"changed"}`)) //nolint:errcheck
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL, &memTokens{token: "t"})
	rating := 2
	comment := "changed"
	r, err := c.UpdateReview(context.Background(), 8, ReviewUpdate{Rating: &rating, Comment: &comment})
	if err != nil {
		t.Fatalf("UpdateReview() error: %v", err)
	}
	if r.Rating != 2 || r.Comment != "changed" {
		t.Errorf("review = %+v", r)
	}
	if err := c.DeleteReview(context.Background(), 8); err != nil {
		t.Fatalf("DeleteReview() error: %v", err)
	}
	if len(methods) != 2 || methods[0] != http.MethodPut || methods[1] != http.MethodDelete {
		t.Errorf("methods = %v", methods)
	}

	bad := 9
	if _, err := c.UpdateReview(context.Background(), 8, ReviewUpdate{Rating: &bad}); !errors.Is(err, domain.ErrInvalidRating) {
		t.Errorf("error = %v, want ErrInvalidRating", err)
	}
}

func TestListReviewsByUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/42/reviews" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`[{"id":1,"userId":42,"rating":3,"content":"fine"}]`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	got, err := c.ListReviewsByUser(context.Background(), 42)
	if err != nil {
		t.Fatalf("ListReviewsByUser() error: %v", err)
	}
	if len(got) != 1 || !got[0].OwnedBy("42") {
		t.Errorf("got %+v", got)
	}
}
