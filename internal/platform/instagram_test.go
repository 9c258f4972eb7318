package platform

import (
	"testing"

	"github.com/bojodanchev/ad-scraper-sub000/internal/model"
)

func TestInstagramNormalize_SidecarWithVideoChildIsVideo(t *testing.T) {
	a := NewInstagramAdapter(nil, DefaultInstagramActorID)

	res := a.Normalize(rawItems(t, `{
		"id": "post-1",
		"type": "Sidecar",
		"displayUrl": "https://cdn/display.jpg",
		"childPosts": [
			{"type": "Video", "videoUrl": "https://cdn/clip.mp4"},
			{"type": "Image", "displayUrl": "https://cdn/img-1.jpg"},
			{"type": "Image", "displayUrl": "https://cdn/img-2.jpg"}
		],
		"ownerId": "owner-1"
	}`))

	ad := res.Ads[0]
	if ad.MediaType != model.MediaVideo {
		t.Errorf("mediaType = %s, want video (video child wins)", ad.MediaType)
	}
	if ad.ThumbnailURL == nil || *ad.ThumbnailURL != "https://cdn/display.jpg" {
		t.Errorf("video post should keep the display image as thumbnail, got %v", ad.ThumbnailURL)
	}
}

func TestInstagramNormalize_SidecarImagesIsCarousel(t *testing.T) {
	a := NewInstagramAdapter(nil, DefaultInstagramActorID)

	res := a.Normalize(rawItems(t, `{
		"id": "post-2",
		"type": "Sidecar",
		"displayUrl": "https://cdn/display.jpg",
		"childPosts": [
			{"type": "Image", "displayUrl": "https://cdn/img-1.jpg"},
			{"type": "Image", "displayUrl": "https://cdn/img-2.jpg"}
		],
		"ownerId": "owner-1"
	}`))

	ad := res.Ads[0]
	if ad.MediaType != model.MediaCarousel {
		t.Errorf("mediaType = %s, want carousel", ad.MediaType)
	}
	if len(ad.MediaURLs) != 2 {
		t.Errorf("mediaUrls = %v, want both children", ad.MediaURLs)
	}
}

func TestInstagramNormalize_SingleImagePost(t *testing.T) {
	a := NewInstagramAdapter(nil, DefaultInstagramActorID)

	res := a.Normalize(rawItems(t, `{
		"id": "post-3",
		"type": "Image",
		"displayUrl": "https://cdn/img.jpg",
		"ownerId": "owner-1"
	}`))

	ad := res.Ads[0]
	if ad.MediaType != model.MediaImage {
		t.Errorf("mediaType = %s, want image", ad.MediaType)
	}
	if len(ad.MediaURLs) != 1 || ad.MediaURLs[0] != "https://cdn/img.jpg" {
		t.Errorf("mediaUrls = %v, want the display url", ad.MediaURLs)
	}
}

func TestInstagramNormalize_ShortCodeFallbackID(t *testing.T) {
	a := NewInstagramAdapter(nil, DefaultInstagramActorID)

	res := a.Normalize(rawItems(t, `{
		"type": "Image",
		"shortCode": "Cxy123",
		"displayUrl": "https://cdn/img.jpg",
		"ownerUsername": "acme"
	}`))

	if len(res.Ads) != 1 {
		t.Fatalf("ads = %d, want 1", len(res.Ads))
	}
	if res.Ads[0].ExternalID == nil || *res.Ads[0].ExternalID != "Cxy123" {
		t.Errorf("externalId = %v, want the short code fallback", res.Ads[0].ExternalID)
	}
	// Username fallback identity.
	if len(res.Advertisers) != 1 || res.Advertisers[0].ExternalID != "acme" {
		t.Errorf("advertiser identity should fall back to the username")
	}
}

func TestInstagramNormalize_NoOwnerMeansUnlinkedAd(t *testing.T) {
	a := NewInstagramAdapter(nil, DefaultInstagramActorID)

	res := a.Normalize(rawItems(t, `{
		"id": "post-4",
		"type": "Image",
		"displayUrl": "https://cdn/img.jpg",
		"ownerFullName": "Somebody"
	}`))

	if len(res.Ads) != 1 {
		t.Fatalf("ads = %d, want 1", len(res.Ads))
	}
	if res.Ads[0].AdvertiserExternalID != nil {
		t.Error("a full name alone must not link the ad to an advertiser")
	}
	if len(res.Advertisers) != 0 {
		t.Errorf("advertisers = %d, want 0", len(res.Advertisers))
	}
}

func TestInstagramNormalize_EngagementRateUsesVideoViews(t *testing.T) {
	a := NewInstagramAdapter(nil, DefaultInstagramActorID)

	res := a.Normalize(rawItems(t, `{
		"id": "post-5",
		"type": "Video",
		"videoUrl": "https://cdn/clip.mp4",
		"displayUrl": "https://cdn/cover.jpg",
		"likesCount": 80,
		"commentsCount": 20,
		"videoViewCount": 1000,
		"ownerId": "owner-1"
	}`))

	// (80 + 20) / 1000 * 100 = 10%
	if got := res.Ads[0].EngagementRate; got == nil || *got != 10 {
		t.Errorf("engagementRate = %v, want 10", got)
	}
}

func TestRegistry_ForPlatform(t *testing.T) {
	r := NewRegistry(nil, ActorConfig{})

	for _, p := range []model.Platform{model.PlatformMetaAds, model.PlatformTikTok, model.PlatformInstagram} {
		a, err := r.ForPlatform(p)
		if err != nil {
			t.Errorf("ForPlatform(%s): %v", p, err)
			continue
		}
		if a.Platform() != p {
			t.Errorf("adapter platform = %s, want %s", a.Platform(), p)
		}
	}

	if _, err := r.ForPlatform(model.Platform("youtube")); err == nil {
		t.Error("ForPlatform(youtube) expected error, got nil")
	}
}
