package platform

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bojodanchev/ad-scraper-sub000/internal/model"
	"github.com/bojodanchev/ad-scraper-sub000/internal/provider"
)

// TikTokAdapter scrapes short-video posts via an Apify actor.
type TikTokAdapter struct {
	runs    *provider.Client
	actorID string
}

// NewTikTokAdapter constructs the short-video adapter.
func NewTikTokAdapter(runs *provider.Client, actorID string) *TikTokAdapter {
	return &TikTokAdapter{runs: runs, actorID: actorID}
}

func (a *TikTokAdapter) Platform() model.Platform { return model.PlatformTikTok }

// StartJob maps the request onto the scraper actor input. The actor accepts
// an oldest-post date, used here as provider-side recency narrowing.
func (a *TikTokAdapter) StartJob(ctx context.Context, req model.ScrapeRequest) (string, error) {
	input := map[string]any{
		"resultsPerPage": maxItemsOrDefault(req.Filters.MaxItems),
	}

	switch req.Mode {
	case model.ModeHashtag:
		input["hashtags"] = []string{req.Query}
	case model.ModeProfile, model.ModeID:
		input["profiles"] = []string{req.Query}
	default:
		input["searchQueries"] = []string{req.Query}
	}

	if req.Filters.RecencyDays != nil {
		input["oldestPostDate"] = time.Now().AddDate(0, 0, -*req.Filters.RecencyDays).Format("2006-01-02")
	}

	return a.runs.StartRun(ctx, a.actorID, input)
}

func (a *TikTokAdapter) AwaitAndFetch(ctx context.Context, runID string) (*provider.RunResult, error) {
	return a.runs.AwaitRun(ctx, runID)
}

// ─── Raw dataset shape ────────────────────────────────────────────────────────

type tiktokItem struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	CreateTimeISO string `json:"createTimeISO"`
	WebVideoURL   string `json:"webVideoUrl"`

	AuthorMeta struct {
		ID        string `json:"id"`
		Name      string `json:"name"` // unique username
		NickName  string `json:"nickName"`
		Verified  bool   `json:"verified"`
		Signature string `json:"signature"`
		Avatar    string `json:"avatar"`
		Fans      *int64 `json:"fans"`
		Following *int64 `json:"following"`
		Heart     *int64 `json:"heart"` // lifetime likes received
		Video     *int64 `json:"video"` // lifetime post count
	} `json:"authorMeta"`

	VideoMeta struct {
		CoverURL     string `json:"coverUrl"`
		DownloadAddr string `json:"downloadAddr"`
		Duration     int    `json:"duration"`
	} `json:"videoMeta"`

	DiggCount    *int64 `json:"diggCount"`
	CommentCount *int64 `json:"commentCount"`
	ShareCount   *int64 `json:"shareCount"`
	PlayCount    *int64 `json:"playCount"`
}

// ─── Normalization ────────────────────────────────────────────────────────────

// Normalize maps raw short-video items to catalog shapes. Every item is a
// single video; the author's numeric id is preferred over the username as
// advertiser identity.
func (a *TikTokAdapter) Normalize(items []json.RawMessage) model.NormalizeResult {
	var res model.NormalizeResult
	now := time.Now().UTC()
	seenAuthors := make(map[string]bool)

	for _, raw := range items {
		var item tiktokItem
		if err := json.Unmarshal(raw, &item); err != nil || item.ID == "" {
			res.Skipped++
			continue
		}

		ad := model.NormalizedAd{
			Platform:   model.PlatformTikTok,
			ExternalID: strPtr(item.ID),
			Body:       strPtr(item.Text),
			LandingURL: strPtr(item.WebVideoURL),
			MediaType:  model.MediaVideo,
			Likes:      item.DiggCount,
			Comments:   item.CommentCount,
			Shares:     item.ShareCount,
			Views:      item.PlayCount,
			ScrapedAt:  now,
		}

		if item.VideoMeta.DownloadAddr != "" {
			ad.MediaURLs = []string{item.VideoMeta.DownloadAddr}
		} else if item.WebVideoURL != "" {
			ad.MediaURLs = []string{item.WebVideoURL}
		}
		ad.ThumbnailURL = strPtr(item.VideoMeta.CoverURL)
		ad.EngagementRate = engagementRate(item.DiggCount, item.CommentCount, item.ShareCount, item.PlayCount)

		if posted, err := time.Parse(time.RFC3339, item.CreateTimeISO); err == nil {
			postedUTC := posted.UTC()
			ad.FirstSeenAt = &postedUTC
			days := daysSince(postedUTC, now)
			ad.DaysRunning = &days
		}

		// Identity: opaque author id first, unique username as fallback.
		authorID := item.AuthorMeta.ID
		if authorID == "" {
			authorID = item.AuthorMeta.Name
		}
		if authorID != "" {
			ad.AdvertiserExternalID = strPtr(authorID)
			if !seenAuthors[authorID] {
				seenAuthors[authorID] = true
				res.Advertisers = append(res.Advertisers, normalizeTikTokAuthor(item, authorID, now))
			}
		}

		res.Ads = append(res.Ads, ad)
	}

	return res
}

func normalizeTikTokAuthor(item tiktokItem, authorID string, now time.Time) model.NormalizedAdvertiser {
	adv := model.NormalizedAdvertiser{
		Platform:       model.PlatformTikTok,
		ExternalID:     authorID,
		DisplayName:    strPtr(item.AuthorMeta.NickName),
		Handle:         strPtr(item.AuthorMeta.Name),
		Bio:            strPtr(item.AuthorMeta.Signature),
		AvatarURL:      strPtr(item.AuthorMeta.Avatar),
		Verified:       boolPtr(item.AuthorMeta.Verified),
		FollowerCount:  item.AuthorMeta.Fans,
		FollowingCount: item.AuthorMeta.Following,
		TotalLikes:     item.AuthorMeta.Heart,
		FirstSeenAt:    now,
		LastScrapedAt:  now,
	}
	if item.AuthorMeta.Name != "" {
		url := "https://www.tiktok.com/@" + item.AuthorMeta.Name
		adv.ProfileURL = &url
	}
	// Lifetime likes over lifetime posts gives the per-post average.
	if item.AuthorMeta.Heart != nil && item.AuthorMeta.Video != nil && *item.AuthorMeta.Video > 0 {
		avg := float64(*item.AuthorMeta.Heart) / float64(*item.AuthorMeta.Video)
		adv.AvgLikes = &avg
	}
	return adv
}
