package platform

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bojodanchev/ad-scraper-sub000/internal/model"
	"github.com/bojodanchev/ad-scraper-sub000/internal/provider"
)

// InstagramAdapter scrapes photo/video posts via an Apify actor.
type InstagramAdapter struct {
	runs    *provider.Client
	actorID string
}

// NewInstagramAdapter constructs the photo/video-post adapter.
func NewInstagramAdapter(runs *provider.Client, actorID string) *InstagramAdapter {
	return &InstagramAdapter{runs: runs, actorID: actorID}
}

func (a *InstagramAdapter) Platform() model.Platform { return model.PlatformInstagram }

// StartJob maps the request onto the scraper actor input.
func (a *InstagramAdapter) StartJob(ctx context.Context, req model.ScrapeRequest) (string, error) {
	input := map[string]any{
		"resultsType":  "posts",
		"resultsLimit": maxItemsOrDefault(req.Filters.MaxItems),
		"search":       req.Query,
	}

	switch req.Mode {
	case model.ModeHashtag:
		input["searchType"] = "hashtag"
	case model.ModeProfile, model.ModeID:
		input["searchType"] = "user"
	default:
		input["searchType"] = "hashtag" // the actor has no free-text search
	}

	if req.Filters.RecencyDays != nil {
		input["onlyPostsNewerThan"] = time.Now().AddDate(0, 0, -*req.Filters.RecencyDays).Format("2006-01-02")
	}

	return a.runs.StartRun(ctx, a.actorID, input)
}

func (a *InstagramAdapter) AwaitAndFetch(ctx context.Context, runID string) (*provider.RunResult, error) {
	return a.runs.AwaitRun(ctx, runID)
}

// ─── Raw dataset shape ────────────────────────────────────────────────────────

type instagramItem struct {
	ID         string `json:"id"`
	Type       string `json:"type"` // "Image" | "Video" | "Sidecar"
	ShortCode  string `json:"shortCode"`
	Caption    string `json:"caption"`
	URL        string `json:"url"`
	DisplayURL string `json:"displayUrl"`
	VideoURL   string `json:"videoUrl"`
	Timestamp  string `json:"timestamp"`

	ChildPosts []struct {
		Type       string `json:"type"`
		DisplayURL string `json:"displayUrl"`
		VideoURL   string `json:"videoUrl"`
	} `json:"childPosts"`

	LikesCount     *int64 `json:"likesCount"`
	CommentsCount  *int64 `json:"commentsCount"`
	VideoViewCount *int64 `json:"videoViewCount"`

	OwnerID       string `json:"ownerId"`
	OwnerUsername string `json:"ownerUsername"`
	OwnerFullName string `json:"ownerFullName"`
}

// ─── Normalization ────────────────────────────────────────────────────────────

// Normalize maps raw post items to catalog shapes. Sidecar posts holding any
// video child classify as video; otherwise two or more children make a
// carousel.
func (a *InstagramAdapter) Normalize(items []json.RawMessage) model.NormalizeResult {
	var res model.NormalizeResult
	now := time.Now().UTC()
	seenOwners := make(map[string]bool)

	for _, raw := range items {
		var item instagramItem
		if err := json.Unmarshal(raw, &item); err != nil || item.ID == "" && item.ShortCode == "" {
			res.Skipped++
			continue
		}

		externalID := item.ID
		if externalID == "" {
			externalID = item.ShortCode
		}

		ad := model.NormalizedAd{
			Platform:   model.PlatformInstagram,
			ExternalID: strPtr(externalID),
			Body:       strPtr(item.Caption),
			LandingURL: strPtr(item.URL),
			Likes:      item.LikesCount,
			Comments:   item.CommentsCount,
			Views:      item.VideoViewCount,
			ScrapedAt:  now,
		}

		ad.MediaType, ad.MediaURLs, ad.ThumbnailURL = classifyInstagramMedia(item)
		ad.EngagementRate = engagementRate(item.LikesCount, item.CommentsCount, nil, item.VideoViewCount)

		if posted, err := time.Parse(time.RFC3339, item.Timestamp); err == nil {
			postedUTC := posted.UTC()
			ad.FirstSeenAt = &postedUTC
			days := daysSince(postedUTC, now)
			ad.DaysRunning = &days
		}

		// Identity: opaque owner id first, username as fallback; a full name
		// alone never makes an advertiser.
		ownerID := item.OwnerID
		if ownerID == "" {
			ownerID = item.OwnerUsername
		}
		if ownerID != "" {
			ad.AdvertiserExternalID = strPtr(ownerID)
			if !seenOwners[ownerID] {
				seenOwners[ownerID] = true
				adv := model.NormalizedAdvertiser{
					Platform:      model.PlatformInstagram,
					ExternalID:    ownerID,
					DisplayName:   strPtr(item.OwnerFullName),
					Handle:        strPtr(item.OwnerUsername),
					FirstSeenAt:   now,
					LastScrapedAt: now,
				}
				if item.OwnerUsername != "" {
					url := "https://www.instagram.com/" + item.OwnerUsername
					adv.ProfileURL = &url
				}
				res.Advertisers = append(res.Advertisers, adv)
			}
		}

		res.Ads = append(res.Ads, ad)
	}

	return res
}

// classifyInstagramMedia applies the media priority to a post: an explicit
// Video type (or any video child of a Sidecar) wins, a Sidecar with two or
// more visual children is a carousel, anything else is a single image.
func classifyInstagramMedia(item instagramItem) (model.MediaType, []string, *string) {
	var videoURLs, imageURLs []string

	if item.VideoURL != "" {
		videoURLs = append(videoURLs, item.VideoURL)
	}
	for _, child := range item.ChildPosts {
		if child.VideoURL != "" {
			videoURLs = append(videoURLs, child.VideoURL)
		} else if child.DisplayURL != "" {
			imageURLs = append(imageURLs, child.DisplayURL)
		}
	}
	if len(item.ChildPosts) == 0 && item.DisplayURL != "" && item.VideoURL == "" {
		imageURLs = append(imageURLs, item.DisplayURL)
	}

	// A video post never ships without a thumbnail when the display image
	// is available.
	thumb := strPtr(item.DisplayURL)
	if thumb == nil && len(imageURLs) > 0 {
		thumb = &imageURLs[0]
	}

	switch {
	case len(videoURLs) > 0:
		return model.MediaVideo, videoURLs, thumb
	case len(imageURLs) >= 2:
		return model.MediaCarousel, imageURLs, thumb
	default:
		return model.MediaImage, imageURLs, thumb
	}
}
