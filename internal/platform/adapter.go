// Package platform contains one adapter per supported content source. An
// adapter translates a normalized scrape request into the provider-specific
// actor input, and translates the actor's raw dataset items into the common
// catalog shapes. Each adapter is an independent implementation of the small
// Adapter interface; there is no shared base type.
package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bojodanchev/ad-scraper-sub000/internal/model"
	"github.com/bojodanchev/ad-scraper-sub000/internal/provider"
)

// Default actor ids, overridable via config for self-hosted forks.
const (
	DefaultMetaAdsActorID   = "curious_coder~facebook-ads-library-scraper"
	DefaultTikTokActorID    = "GdWCkxBtKWOsKjdch" // clockworks~tiktok-scraper
	DefaultInstagramActorID = "shu8hvrXbJbY3Eb9W" // apify~instagram-scraper
)

// Adapter is implemented once per platform.
type Adapter interface {
	// Platform identifies which source this adapter serves.
	Platform() model.Platform

	// StartJob submits the provider job for the request and returns the
	// provider run id. Provider-native narrowing (recency, country, item cap)
	// is applied here when the actor supports it, strictly as an
	// optimization — the filter engine re-checks everything locally.
	StartJob(ctx context.Context, req model.ScrapeRequest) (string, error)

	// AwaitAndFetch blocks until the provider run reaches a terminal status
	// or the poller's local deadline passes, returning the raw items.
	AwaitAndFetch(ctx context.Context, runID string) (*provider.RunResult, error)

	// Normalize maps raw dataset items into catalog shapes. Unparseable
	// items are counted as skipped, never fatal.
	Normalize(items []json.RawMessage) model.NormalizeResult
}

// ActorConfig carries per-platform actor id overrides. Empty fields fall
// back to the defaults above.
type ActorConfig struct {
	MetaAdsActorID   string
	TikTokActorID    string
	InstagramActorID string
}

// Registry resolves the adapter for a platform.
type Registry struct {
	adapters map[model.Platform]Adapter
}

// NewRegistry wires all three adapters against the shared provider client.
func NewRegistry(client *provider.Client, cfg ActorConfig) *Registry {
	if cfg.MetaAdsActorID == "" {
		cfg.MetaAdsActorID = DefaultMetaAdsActorID
	}
	if cfg.TikTokActorID == "" {
		cfg.TikTokActorID = DefaultTikTokActorID
	}
	if cfg.InstagramActorID == "" {
		cfg.InstagramActorID = DefaultInstagramActorID
	}

	return &Registry{adapters: map[model.Platform]Adapter{
		model.PlatformMetaAds:   NewMetaAdsAdapter(client, cfg.MetaAdsActorID),
		model.PlatformTikTok:    NewTikTokAdapter(client, cfg.TikTokActorID),
		model.PlatformInstagram: NewInstagramAdapter(client, cfg.InstagramActorID),
	}}
}

// ForPlatform returns the adapter for p.
func (r *Registry) ForPlatform(p model.Platform) (Adapter, error) {
	a, ok := r.adapters[p]
	if !ok {
		return nil, fmt.Errorf("no adapter for platform %q", p)
	}
	return a, nil
}

// ─── Shared normalization helpers ─────────────────────────────────────────────

// strPtr returns nil for the empty string, otherwise a pointer to s.
func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func i64Ptr(v int64) *int64 { return &v }

func boolPtr(v bool) *bool { return &v }

// engagementRate computes (likes + comments + shares) / views * 100.
// Undefined (nil) when views is absent or zero — a like count is never used
// as a substitute denominator.
func engagementRate(likes, comments, shares, views *int64) *float64 {
	if views == nil || *views == 0 {
		return nil
	}
	var interactions int64
	for _, v := range []*int64{likes, comments, shares} {
		if v != nil {
			interactions += *v
		}
	}
	rate := float64(interactions) / float64(*views) * 100
	return &rate
}

// daysSince returns the whole days elapsed from t to now, floored at zero.
func daysSince(t, now time.Time) int {
	d := int(now.Sub(t).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// daysBetween returns the whole days between start and end, floored at zero.
func daysBetween(start, end time.Time) int {
	d := int(end.Sub(start).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}
