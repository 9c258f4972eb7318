package platform

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bojodanchev/ad-scraper-sub000/internal/model"
	"github.com/bojodanchev/ad-scraper-sub000/internal/provider"
)

// MetaAdsAdapter scrapes the Meta Ad Library via an Apify actor.
type MetaAdsAdapter struct {
	runs    *provider.Client
	actorID string
}

// NewMetaAdsAdapter constructs the ad-library adapter.
func NewMetaAdsAdapter(runs *provider.Client, actorID string) *MetaAdsAdapter {
	return &MetaAdsAdapter{runs: runs, actorID: actorID}
}

func (a *MetaAdsAdapter) Platform() model.Platform { return model.PlatformMetaAds }

// StartJob maps the request onto the ad-library actor input. Keyword and
// hashtag searches become search terms; profile and id searches target page
// ids directly. Recency and country narrowing are passed through when set.
func (a *MetaAdsAdapter) StartJob(ctx context.Context, req model.ScrapeRequest) (string, error) {
	input := map[string]any{
		"activeStatus": "all",
		"count":        maxItemsOrDefault(req.Filters.MaxItems),
	}

	switch req.Mode {
	case model.ModeProfile, model.ModeID:
		input["pageIds"] = []string{req.Query}
	default:
		input["searchTerms"] = []string{req.Query}
	}

	if len(req.Filters.Countries) > 0 {
		input["countries"] = req.Filters.Countries
	}
	if req.Filters.MediaType != "" {
		input["mediaType"] = req.Filters.MediaType
	}
	if req.Filters.RecencyDays != nil {
		// Provider-side narrowing only; the filter engine re-applies recency.
		input["startDate"] = time.Now().AddDate(0, 0, -*req.Filters.RecencyDays).Format("2006-01-02")
	}

	return a.runs.StartRun(ctx, a.actorID, input)
}

func (a *MetaAdsAdapter) AwaitAndFetch(ctx context.Context, runID string) (*provider.RunResult, error) {
	return a.runs.AwaitRun(ctx, runID)
}

// ─── Raw dataset shape ────────────────────────────────────────────────────────

type metaAdItem struct {
	AdArchiveID           string `json:"adArchiveID"`
	PageID                string `json:"pageID"`
	PageName              string `json:"pageName"`
	PageProfileURI        string `json:"pageProfileURI"`
	PageProfilePictureURL string `json:"pageProfilePictureURL"`
	PageLikeCount         *int64 `json:"pageLikeCount"`
	IsActive              bool   `json:"isActive"`
	StartDate             int64  `json:"startDate"` // unix seconds, 0 when absent
	EndDate               int64  `json:"endDate"`

	Impressions *struct {
		LowerBound int64 `json:"lowerBound"`
		UpperBound int64 `json:"upperBound"`
	} `json:"impressions"`

	TargetedOrReachedCountries []string `json:"targetedOrReachedCountries"`

	Snapshot struct {
		Title string `json:"title"`
		Body  struct {
			Text string `json:"text"`
		} `json:"body"`
		CTAText string      `json:"ctaText"`
		LinkURL string      `json:"linkUrl"`
		Cards   []metaCard  `json:"cards"`
		Videos  []metaVideo `json:"videos"`
		Images  []metaImage `json:"images"`
	} `json:"snapshot"`
}

type metaCard struct {
	Title                string `json:"title"`
	Body                 string `json:"body"`
	LinkURL              string `json:"linkUrl"`
	VideoHDURL           string `json:"videoHdUrl"`
	VideoSDURL           string `json:"videoSdUrl"`
	VideoPreviewImageURL string `json:"videoPreviewImageUrl"`
	ResizedImageURL      string `json:"resizedImageUrl"`
	OriginalImageURL     string `json:"originalImageUrl"`
}

type metaVideo struct {
	VideoHDURL           string `json:"videoHdUrl"`
	VideoSDURL           string `json:"videoSdUrl"`
	VideoPreviewImageURL string `json:"videoPreviewImageUrl"`
}

type metaImage struct {
	ResizedImageURL  string `json:"resizedImageUrl"`
	OriginalImageURL string `json:"originalImageUrl"`
}

// ─── Normalization ────────────────────────────────────────────────────────────

// Normalize maps raw ad-library items to catalog shapes. Ads without a page
// id are kept but left unlinked — an identity is never synthesized.
func (a *MetaAdsAdapter) Normalize(items []json.RawMessage) model.NormalizeResult {
	var res model.NormalizeResult
	now := time.Now().UTC()
	seenPages := make(map[string]bool)

	for _, raw := range items {
		var item metaAdItem
		if err := json.Unmarshal(raw, &item); err != nil || item.AdArchiveID == "" && item.PageID == "" {
			res.Skipped++
			continue
		}

		ad := model.NormalizedAd{
			Platform:   model.PlatformMetaAds,
			ExternalID: strPtr(item.AdArchiveID),
			Headline:   strPtr(item.Snapshot.Title),
			Body:       strPtr(item.Snapshot.Body.Text),
			CTAText:    strPtr(item.Snapshot.CTAText),
			LandingURL: strPtr(item.Snapshot.LinkURL),
			Countries:  item.TargetedOrReachedCountries,
			ScrapedAt:  now,
		}

		ad.MediaType, ad.MediaURLs, ad.ThumbnailURL = classifyMetaMedia(item)

		if item.Impressions != nil {
			ad.ImpressionsMin = i64Ptr(item.Impressions.LowerBound)
			ad.ImpressionsMax = i64Ptr(item.Impressions.UpperBound)
		}

		if item.StartDate > 0 {
			start := time.Unix(item.StartDate, 0).UTC()
			ad.FirstSeenAt = &start
			if item.EndDate > 0 {
				end := time.Unix(item.EndDate, 0).UTC()
				ad.LastSeenAt = &end
				days := daysBetween(start, end)
				ad.DaysRunning = &days
			} else {
				days := daysSince(start, now)
				ad.DaysRunning = &days
			}
		}

		// The page id is the only stable advertiser identity the ad library
		// exposes; a page name alone is not enough to link.
		if item.PageID != "" {
			ad.AdvertiserExternalID = strPtr(item.PageID)
			if !seenPages[item.PageID] {
				seenPages[item.PageID] = true
				res.Advertisers = append(res.Advertisers, model.NormalizedAdvertiser{
					Platform:      model.PlatformMetaAds,
					ExternalID:    item.PageID,
					DisplayName:   strPtr(item.PageName),
					ProfileURL:    strPtr(item.PageProfileURI),
					AvatarURL:     strPtr(item.PageProfilePictureURL),
					FollowerCount: item.PageLikeCount,
					FirstSeenAt:   now,
					LastScrapedAt: now,
				})
			}
		}

		res.Ads = append(res.Ads, ad)
	}

	return res
}

// classifyMetaMedia flattens the snapshot's cards/videos/images and applies
// the deterministic priority: any video variant wins, then two or more
// visuals make a carousel, then a single image.
func classifyMetaMedia(item metaAdItem) (model.MediaType, []string, *string) {
	var videoURLs, imageURLs, previews []string

	addVideo := func(hd, sd, preview string) {
		if hd != "" {
			videoURLs = append(videoURLs, hd)
		} else if sd != "" {
			videoURLs = append(videoURLs, sd)
		}
		if preview != "" {
			previews = append(previews, preview)
		}
	}
	addImage := func(original, resized string) {
		if original != "" {
			imageURLs = append(imageURLs, original)
		} else if resized != "" {
			imageURLs = append(imageURLs, resized)
		}
	}

	for _, card := range item.Snapshot.Cards {
		addVideo(card.VideoHDURL, card.VideoSDURL, card.VideoPreviewImageURL)
		addImage(card.OriginalImageURL, card.ResizedImageURL)
	}
	for _, v := range item.Snapshot.Videos {
		addVideo(v.VideoHDURL, v.VideoSDURL, v.VideoPreviewImageURL)
	}
	for _, img := range item.Snapshot.Images {
		addImage(img.OriginalImageURL, img.ResizedImageURL)
	}

	// Thumbnail: dedicated preview first, then the first resolved image.
	var thumb *string
	if len(previews) > 0 {
		thumb = &previews[0]
	} else if len(imageURLs) > 0 {
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

func maxItemsOrDefault(n int) int {
	if n <= 0 {
		return 100
	}
	return n
}
