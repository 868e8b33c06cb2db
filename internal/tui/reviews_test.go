package tui

import (
	"errors"
	"strings"
	"testing"

	"github.com/gamerscove/cove/pkg/domain"
)

func loadedPicker(t *testing.T) reviewsModel {
	t.Helper()
	m := newReviewsModel(nil)
	m.width = 80
	m, cmd := m.Update(pickerGamesMsg{games: sampleGames()})
	if cmd == nil {
		t.Fatal("the first game's reviews should load on arrival")
	}
	return m
}

func TestReviewsAutoSelectsFirstGame(t *testing.T) {
	m := loadedPicker(t)
	if m.selected != 1 || !m.revLoading {
		t.Fatalf("selected=%d revLoading=%v", m.selected, m.revLoading)
	}
	v := m.View()
	for _, want := range []string{"Viewing reviews for selected game", "ID: 42", "Hide Reviews", "View Reviews", "Reviews for Hollow Knight"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestReviewsOwnership(t *testing.T) {
	m := loadedPicker(t)
	m.setSession("7", true, false)
	m, _ = m.Update(pickerReviewsMsg{gameID: 1, reviews: []domain.Review{
		{ID: 1, UserID: 7, Rating: 5, Comment: "mine"},
		{ID: 2, UserID: 3, Rating: 1, Comment: "theirs"},
	}})
	v := m.View()
	if !strings.Contains(v, "Your Review") || !strings.Contains(v, "Review by User #3") {
		t.Errorf("ownership labels wrong: %q", v)
	}
}

func TestReviewsStaleResponseIgnored(t *testing.T) {
	m := loadedPicker(t)
	m, _ = m.Update(pickerReviewsMsg{gameID: 2, reviews: []domain.Review{{ID: 1}}})
	if !m.revLoading || len(m.reviews) != 0 {
		t.Error("reviews for another game must be dropped")
	}
}

func TestReviewsToggleSelection(t *testing.T) {
	m := loadedPicker(t)
	m, cmd := m.Update(key("enter"))
	if m.selected != 0 || cmd != nil {
		t.Errorf("enter on the open game should hide it: selected=%d", m.selected)
	}
	if !strings.Contains(m.View(), "Select a game to view or add reviews") {
		t.Error("expected the picker hint")
	}

	m, _ = m.Update(key("j"))
	m, cmd = m.Update(key("enter"))
	if m.selected != 2 || cmd == nil {
		t.Errorf("selected=%d, want 2 with a load", m.selected)
	}
}

func TestReviewsSearchByID(t *testing.T) {
	m := loadedPicker(t)
	m, _ = m.Update(key("/"))
	m, _ = m.Update(key("42"))
	got := m.visible()
	if len(got) != 1 || got[0].ID != 42 {
		t.Fatalf("visible = %+v", got)
	}

	m.search = "no such game"
	if !strings.Contains(m.View(), "No games found. Try a different search term.") {
		t.Error("expected no-match text")
	}
}

func TestReviewsErrorAndEmpty(t *testing.T) {
	m := loadedPicker(t)
	failed, _ := m.Update(pickerReviewsMsg{gameID: 1, err: errors.New("boom")})
	if v := failed.View(); !strings.Contains(v, "Error loading reviews") || !strings.Contains(v, "Failed to load reviews. Please try again.") {
		t.Errorf("expected error state, got %q", v)
	}

	empty, _ := m.Update(pickerReviewsMsg{gameID: 1})
	v := empty.View()
	if !strings.Contains(v, "No reviews yet. Be the first to review!") {
		t.Errorf("expected empty state, got %q", v)
	}
	if !strings.Contains(v, "Sign in to write a review.") {
		t.Error("signed-out viewers should see the sign-in hint")
	}
}

func TestReviewsComposeAndCreate(t *testing.T) {
	m := loadedPicker(t)
	_, cmd := m.Update(key("w"))
	if got, ok := cmd().(toastMsg); !ok || !got.isErr {
		t.Errorf("signed-out write should toast, got %#v", cmd())
	}

	m.setSession("7", true, false)
	m, _ = m.Update(key("w"))
	if !m.composing {
		t.Fatal("expected the composer")
	}
	m, cmd = m.Update(pickerReviewCreatedMsg{gameID: 1})
	if cmd == nil || m.composing || !m.revLoading {
		t.Error("a created review should close the composer and refetch")
	}
}

func TestReviewsLoadingGames(t *testing.T) {
	m := newReviewsModel(nil)
	if !strings.Contains(m.View(), "Loading games...") {
		t.Errorf("got %q", m.View())
	}
}
