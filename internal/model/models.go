// Package model defines the shared data structures for the scraper service:
// scrape jobs, the normalized ad/advertiser catalog shapes, and the filter
// parameters attached to a search.
package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Platform identifies one of the supported external content sources.
type Platform string

const (
	PlatformMetaAds   Platform = "meta_ads"
	PlatformTikTok    Platform = "tiktok"
	PlatformInstagram Platform = "instagram"
)

// ParsePlatform converts a raw string to a Platform, returning an error for
// unknown values.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(s)
	switch p {
	case PlatformMetaAds, PlatformTikTok, PlatformInstagram:
		return p, nil
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// SearchMode describes how the query string should be interpreted.
type SearchMode string

const (
	ModeKeyword SearchMode = "keyword"
	ModeHashtag SearchMode = "hashtag"
	ModeProfile SearchMode = "profile"
	ModeID      SearchMode = "id"
)

// ParseSearchMode converts a raw string to a SearchMode.
func ParseSearchMode(s string) (SearchMode, error) {
	m := SearchMode(s)
	switch m {
	case ModeKeyword, ModeHashtag, ModeProfile, ModeID:
		return m, nil
	}
	return "", fmt.Errorf("unknown search mode %q", s)
}

// MediaType classifies the visual content of a normalized ad.
type MediaType string

const (
	MediaImage    MediaType = "image"
	MediaVideo    MediaType = "video"
	MediaCarousel MediaType = "carousel"
)

// ScrapeFilters carries the per-search filter parameters. All bounds are
// optional; nil means "not active". Stored on the job row as JSONB.
type ScrapeFilters struct {
	RecencyDays    *int     `json:"recencyDays,omitempty"`
	MinEngagement  *float64 `json:"minEngagement,omitempty"` // engagement-rate floor, percent
	MinFollowers   *int64   `json:"minFollowers,omitempty"`
	MaxFollowers   *int64   `json:"maxFollowers,omitempty"`
	MinImpressions *int64   `json:"minImpressions,omitempty"`
	MaxImpressions *int64   `json:"maxImpressions,omitempty"`
	MinLikes       *int64   `json:"minLikes,omitempty"`
	MaxLikes       *int64   `json:"maxLikes,omitempty"`
	MinViews       *int64   `json:"minViews,omitempty"`
	MaxViews       *int64   `json:"maxViews,omitempty"`

	// Provider-side narrowing hints. Applied at submission when the actor
	// supports them; never relied on as the only filtering mechanism.
	Countries []string `json:"countries,omitempty"`
	MediaType string   `json:"mediaType,omitempty"`
	MaxItems  int      `json:"maxItems,omitempty"`
}

// ScrapeRequest is the validated input to Manager.Submit.
type ScrapeRequest struct {
	Platform Platform
	Mode     SearchMode
	Query    string
	Filters  ScrapeFilters
}

// ScrapeJob mirrors a scrape_jobs row. One per user-initiated search.
type ScrapeJob struct {
	ID            string        `json:"id"`
	Platform      Platform      `json:"platform"`
	SearchMode    SearchMode    `json:"searchMode"`
	Query         string        `json:"query"`
	Filters       ScrapeFilters `json:"filters"`
	Status        Status        `json:"status"`
	ProviderRunID *string       `json:"providerRunId"`
	RecordsFound  int           `json:"recordsFound"`
	ErrorMessage  *string       `json:"errorMessage"`
	StartedAt     time.Time     `json:"startedAt"`
	CompletedAt   *time.Time    `json:"completedAt"`
}

// NormalizedAdvertiser mirrors an advertisers row — one per distinct
// author/page/creator, unique per (platform, external_id).
type NormalizedAdvertiser struct {
	ID             string    `json:"id"`
	Platform       Platform  `json:"platform"`
	ExternalID     string    `json:"externalId"`
	DisplayName    *string   `json:"displayName"`
	Handle         *string   `json:"handle"`
	ProfileURL     *string   `json:"profileUrl"`
	AvatarURL      *string   `json:"avatarUrl"`
	Bio            *string   `json:"bio"`
	Verified       *bool     `json:"verified"`
	FollowerCount  *int64    `json:"followerCount"`
	FollowingCount *int64    `json:"followingCount"`
	TotalLikes     *int64    `json:"totalLikes"`
	AvgLikes       *float64  `json:"avgLikes"`
	AvgComments    *float64  `json:"avgComments"`
	EngagementRate *float64  `json:"engagementRate"`
	IsTracked      bool      `json:"isTracked"`
	FirstSeenAt    time.Time `json:"firstSeenAt"`
	LastScrapedAt  time.Time `json:"lastScrapedAt"`
}

// NormalizedAd mirrors an ads row — one per distinct ad, video or post.
// ExternalID is nil for providers that expose no stable content id; such
// records are always inserted (they cannot be deduplicated).
type NormalizedAd struct {
	ID         string   `json:"id"`
	Platform   Platform `json:"platform"`
	ExternalID *string  `json:"externalId"`

	// AdvertiserExternalID links the ad to its owner before the local FK is
	// resolved at persist time. Nil when the raw item carried no stable
	// advertiser identity.
	AdvertiserExternalID *string `json:"advertiserExternalId"`
	AdvertiserID         *string `json:"advertiserId"`

	Headline   *string `json:"headline"`
	Body       *string `json:"body"`
	CTAText    *string `json:"ctaText"`
	LandingURL *string `json:"landingUrl"`

	MediaType    MediaType `json:"mediaType"`
	MediaURLs    []string  `json:"mediaUrls"`
	ThumbnailURL *string   `json:"thumbnailUrl"`

	ImpressionsMin *int64   `json:"impressionsMin"`
	ImpressionsMax *int64   `json:"impressionsMax"`
	Likes          *int64   `json:"likes"`
	Comments       *int64   `json:"comments"`
	Shares         *int64   `json:"shares"`
	Views          *int64   `json:"views"`
	EngagementRate *float64 `json:"engagementRate"`

	DaysRunning *int     `json:"daysRunning"`
	Countries   []string `json:"countries"`

	FirstSeenAt *time.Time `json:"firstSeenAt"`
	LastSeenAt  *time.Time `json:"lastSeenAt"`
	ScrapedAt   time.Time  `json:"scrapedAt"`

	// Analysis is filled in later by the creative-analysis service; the
	// scraper only carries it through.
	Analysis json.RawMessage `json:"analysis,omitempty"`
}

// NormalizeResult is the output of a platform adapter's Normalize step.
type NormalizeResult struct {
	Ads         []NormalizedAd
	Advertisers []NormalizedAdvertiser
	Skipped     int // raw items dropped as unparseable
}
