package platform

import (
	"encoding/json"
	"testing"

	"github.com/bojodanchev/ad-scraper-sub000/internal/model"
)

func rawItems(t *testing.T, docs ...string) []json.RawMessage {
	t.Helper()
	items := make([]json.RawMessage, 0, len(docs))
	for _, d := range docs {
		items = append(items, json.RawMessage(d))
	}
	return items
}

func TestMetaAdsNormalize_VideoWinsOverImages(t *testing.T) {
	a := NewMetaAdsAdapter(nil, DefaultMetaAdsActorID)

	// One video variant plus two image variants — video priority wins.
	res := a.Normalize(rawItems(t, `{
		"adArchiveID": "ad-1",
		"pageID": "page-1",
		"pageName": "Acme",
		"snapshot": {
			"videos": [{"videoHdUrl": "https://cdn/video-hd.mp4", "videoPreviewImageUrl": "https://cdn/preview.jpg"}],
			"images": [
				{"originalImageUrl": "https://cdn/img-1.jpg"},
				{"originalImageUrl": "https://cdn/img-2.jpg"}
			]
		}
	}`))

	if len(res.Ads) != 1 {
		t.Fatalf("ads = %d, want 1", len(res.Ads))
	}
	ad := res.Ads[0]
	if ad.MediaType != model.MediaVideo {
		t.Errorf("mediaType = %s, want video", ad.MediaType)
	}
	if len(ad.MediaURLs) != 1 || ad.MediaURLs[0] != "https://cdn/video-hd.mp4" {
		t.Errorf("mediaUrls = %v, want the HD video url", ad.MediaURLs)
	}
	if ad.ThumbnailURL == nil || *ad.ThumbnailURL != "https://cdn/preview.jpg" {
		t.Errorf("thumbnail should prefer the dedicated preview, got %v", ad.ThumbnailURL)
	}
}

func TestMetaAdsNormalize_TwoImagesIsCarousel(t *testing.T) {
	a := NewMetaAdsAdapter(nil, DefaultMetaAdsActorID)

	res := a.Normalize(rawItems(t, `{
		"adArchiveID": "ad-2",
		"pageID": "page-1",
		"snapshot": {
			"images": [
				{"originalImageUrl": "https://cdn/img-1.jpg"},
				{"resizedImageUrl": "https://cdn/img-2.jpg"}
			]
		}
	}`))

	ad := res.Ads[0]
	if ad.MediaType != model.MediaCarousel {
		t.Errorf("mediaType = %s, want carousel", ad.MediaType)
	}
	if len(ad.MediaURLs) != 2 {
		t.Errorf("mediaUrls = %v, want 2 entries", ad.MediaURLs)
	}
	if ad.ThumbnailURL == nil || *ad.ThumbnailURL != "https://cdn/img-1.jpg" {
		t.Errorf("thumbnail should fall back to the first image, got %v", ad.ThumbnailURL)
	}
}

func TestMetaAdsNormalize_SingleImage(t *testing.T) {
	a := NewMetaAdsAdapter(nil, DefaultMetaAdsActorID)

	res := a.Normalize(rawItems(t, `{
		"adArchiveID": "ad-3",
		"pageID": "page-1",
		"snapshot": {"images": [{"originalImageUrl": "https://cdn/img-1.jpg"}]}
	}`))

	if got := res.Ads[0].MediaType; got != model.MediaImage {
		t.Errorf("mediaType = %s, want image", got)
	}
}

func TestMetaAdsNormalize_DaysRunning(t *testing.T) {
	a := NewMetaAdsAdapter(nil, DefaultMetaAdsActorID)

	// Start and end both present: delta between them (10 days apart).
	res := a.Normalize(rawItems(t, `{
		"adArchiveID": "ad-4",
		"pageID": "page-1",
		"startDate": 1700000000,
		"endDate": 1700864000,
		"snapshot": {}
	}`))

	ad := res.Ads[0]
	if ad.DaysRunning == nil || *ad.DaysRunning != 10 {
		t.Fatalf("daysRunning = %v, want 10", ad.DaysRunning)
	}
	if ad.FirstSeenAt == nil || ad.LastSeenAt == nil {
		t.Error("start/end timestamps should both be set")
	}
}

func TestMetaAdsNormalize_NoPageIDMeansNoAdvertiser(t *testing.T) {
	a := NewMetaAdsAdapter(nil, DefaultMetaAdsActorID)

	res := a.Normalize(rawItems(t, `{
		"adArchiveID": "ad-5",
		"pageName": "Unlinked Brand",
		"snapshot": {}
	}`))

	if len(res.Ads) != 1 {
		t.Fatalf("ads = %d, want 1 (ad is kept even without an identity)", len(res.Ads))
	}
	if res.Ads[0].AdvertiserExternalID != nil {
		t.Error("ad without a page id must not be linked to an advertiser")
	}
	if len(res.Advertisers) != 0 {
		t.Errorf("advertisers = %d, want 0 — identity is never synthesized", len(res.Advertisers))
	}
}

func TestMetaAdsNormalize_DeduplicatesPagesInBatch(t *testing.T) {
	a := NewMetaAdsAdapter(nil, DefaultMetaAdsActorID)

	res := a.Normalize(rawItems(t,
		`{"adArchiveID": "ad-6", "pageID": "page-1", "pageName": "Acme", "snapshot": {}}`,
		`{"adArchiveID": "ad-7", "pageID": "page-1", "pageName": "Acme", "snapshot": {}}`,
	))

	if len(res.Ads) != 2 {
		t.Errorf("ads = %d, want 2", len(res.Ads))
	}
	if len(res.Advertisers) != 1 {
		t.Errorf("advertisers = %d, want 1 distinct page", len(res.Advertisers))
	}
}

func TestMetaAdsNormalize_SkipsUnparseable(t *testing.T) {
	a := NewMetaAdsAdapter(nil, DefaultMetaAdsActorID)

	res := a.Normalize(rawItems(t,
		`not json at all`,
		`{"adArchiveID": "ad-8", "pageID": "page-1", "snapshot": {}}`,
	))

	if res.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", res.Skipped)
	}
	if len(res.Ads) != 1 {
		t.Errorf("ads = %d, want 1", len(res.Ads))
	}
}

func TestMetaAdsNormalize_Impressions(t *testing.T) {
	a := NewMetaAdsAdapter(nil, DefaultMetaAdsActorID)

	res := a.Normalize(rawItems(t, `{
		"adArchiveID": "ad-9",
		"pageID": "page-1",
		"impressions": {"lowerBound": 1000, "upperBound": 5000},
		"targetedOrReachedCountries": ["US", "CA"],
		"snapshot": {}
	}`))

	ad := res.Ads[0]
	if ad.ImpressionsMin == nil || *ad.ImpressionsMin != 1000 {
		t.Errorf("impressionsMin = %v, want 1000", ad.ImpressionsMin)
	}
	if ad.ImpressionsMax == nil || *ad.ImpressionsMax != 5000 {
		t.Errorf("impressionsMax = %v, want 5000", ad.ImpressionsMax)
	}
	if len(ad.Countries) != 2 {
		t.Errorf("countries = %v, want [US CA]", ad.Countries)
	}
}
