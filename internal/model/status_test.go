package model_test

import (
	"testing"

	"github.com/bojodanchev/ad-scraper-sub000/internal/model"
)

// ── ParseStatus ────────────────────────────────────────────────────────────

func TestParseStatus_ValidValues(t *testing.T) {
	valid := []string{"PENDING", "RUNNING", "COMPLETED", "FAILED"}
	for _, s := range valid {
		got, err := model.ParseStatus(s)
		if err != nil {
			t.Errorf("ParseStatus(%q) returned unexpected error: %v", s, err)
		}
		if string(got) != s {
			t.Errorf("ParseStatus(%q) = %q, want %q", s, got, s)
		}
	}
}

func TestParseStatus_InvalidValue(t *testing.T) {
	_, err := model.ParseStatus("CANCELLED")
	if err == nil {
		t.Error("ParseStatus(\"CANCELLED\") expected error, got nil")
	}
}

func TestParseStatus_EmptyString(t *testing.T) {
	_, err := model.ParseStatus("")
	if err == nil {
		t.Error("ParseStatus(\"\") expected error, got nil")
	}
}

// ── IsTransitionAllowed — valid (forward) transitions ─────────────────────

func TestIsTransitionAllowed_ValidForward(t *testing.T) {
	cases := []struct {
		from model.Status
		to   model.Status
	}{
		{model.StatusPending, model.StatusRunning},
		{model.StatusPending, model.StatusFailed},
		{model.StatusRunning, model.StatusCompleted},
		{model.StatusRunning, model.StatusFailed},
	}
	for _, c := range cases {
		if !model.IsTransitionAllowed(c.from, c.to) {
			t.Errorf("IsTransitionAllowed(%s → %s) should be true", c.from, c.to)
		}
	}
}

// ── IsTransitionAllowed — retry reprocessing edge ──────────────────────────

func TestIsTransitionAllowed_FailedCanCompleteViaRetry(t *testing.T) {
	if !model.IsTransitionAllowed(model.StatusFailed, model.StatusCompleted) {
		t.Error("IsTransitionAllowed(FAILED → COMPLETED) should be true — retry reprocesses a succeeded provider run")
	}
}

// ── IsTransitionAllowed — re-asserting the current status is a no-op write ─

func TestIsTransitionAllowed_SameStatus(t *testing.T) {
	for _, s := range []model.Status{
		model.StatusPending, model.StatusRunning, model.StatusCompleted, model.StatusFailed,
	} {
		if !model.IsTransitionAllowed(s, s) {
			t.Errorf("IsTransitionAllowed(%s → %s) should be true", s, s)
		}
	}
}

// ── IsTransitionAllowed — forbidden regressions ────────────────────────────

func TestIsTransitionAllowed_Forbidden(t *testing.T) {
	cases := []struct {
		from model.Status
		to   model.Status
	}{
		{model.StatusCompleted, model.StatusPending},
		{model.StatusCompleted, model.StatusRunning},
		{model.StatusCompleted, model.StatusFailed},
		{model.StatusFailed, model.StatusPending},
		{model.StatusFailed, model.StatusRunning},
	}
	for _, c := range cases {
		if model.IsTransitionAllowed(c.from, c.to) {
			t.Errorf("IsTransitionAllowed(%s → %s) should be false", c.from, c.to)
		}
	}
}

// ── IsTransitionAllowed — a pending job cannot complete directly ───────────

func TestIsTransitionAllowed_PendingCannotComplete(t *testing.T) {
	if model.IsTransitionAllowed(model.StatusPending, model.StatusCompleted) {
		t.Error("IsTransitionAllowed(PENDING → COMPLETED) should be false")
	}
}

// ── IsTerminal ─────────────────────────────────────────────────────────────

func TestIsTerminal(t *testing.T) {
	cases := []struct {
		s    model.Status
		want bool
	}{
		{model.StatusPending, false},
		{model.StatusRunning, false},
		{model.StatusCompleted, true},
		{model.StatusFailed, true},
	}
	for _, c := range cases {
		if got := model.IsTerminal(c.s); got != c.want {
			t.Errorf("IsTerminal(%s) = %v, want %v", c.s, got, c.want)
		}
	}
}

// ── ParsePlatform / ParseSearchMode ────────────────────────────────────────

func TestParsePlatform(t *testing.T) {
	for _, s := range []string{"meta_ads", "tiktok", "instagram"} {
		if _, err := model.ParsePlatform(s); err != nil {
			t.Errorf("ParsePlatform(%q) returned unexpected error: %v", s, err)
		}
	}
	if _, err := model.ParsePlatform("youtube"); err == nil {
		t.Error("ParsePlatform(\"youtube\") expected error, got nil")
	}
}

func TestParseSearchMode(t *testing.T) {
	for _, s := range []string{"keyword", "hashtag", "profile", "id"} {
		if _, err := model.ParseSearchMode(s); err != nil {
			t.Errorf("ParseSearchMode(%q) returned unexpected error: %v", s, err)
		}
	}
	if _, err := model.ParseSearchMode("url"); err == nil {
		t.Error("ParseSearchMode(\"url\") expected error, got nil")
	}
}
