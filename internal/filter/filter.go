// Package filter narrows a normalized result set after scraping. Every
// predicate is pure and order-independent; Apply composes them by
// intersection, so a record must satisfy every active filter.
//
// Missing-data policy, decided per field:
//   - recency: an item with no timestamp cannot be proven recent — dropped;
//   - engagement rate and follower count: absence of data is not a failure —
//     passed (otherwise image-only content on platforms without view counts
//     would silently vanish);
//   - impressions/likes/views: the relevant platforms always report these, so
//     a missing value is evaluated as zero against the bounds.
package filter

import (
	"time"

	"github.com/bojodanchev/ad-scraper-sub000/internal/model"
)

// Apply returns the ads satisfying every active filter. followerCounts maps
// an advertiser external id to its follower count, for the follower-range
// filter; ads with no advertiser or no known count pass that filter.
func Apply(ads []model.NormalizedAd, followerCounts map[string]*int64, f model.ScrapeFilters, now time.Time) []model.NormalizedAd {
	kept := make([]model.NormalizedAd, 0, len(ads))
	for _, ad := range ads {
		if !Keep(ad, followerCounts, f, now) {
			continue
		}
		kept = append(kept, ad)
	}
	return kept
}

// Keep evaluates a single ad against every active filter.
func Keep(ad model.NormalizedAd, followerCounts map[string]*int64, f model.ScrapeFilters, now time.Time) bool {
	if f.RecencyDays != nil && !Recent(ad, *f.RecencyDays, now) {
		return false
	}
	if f.MinEngagement != nil && !MeetsEngagementFloor(ad, *f.MinEngagement) {
		return false
	}
	if !InFollowerRange(lookupFollowers(ad, followerCounts), f.MinFollowers, f.MaxFollowers) {
		return false
	}
	if !inStrictRange(maxOfBounds(ad.ImpressionsMin, ad.ImpressionsMax), f.MinImpressions, f.MaxImpressions) {
		return false
	}
	if !inStrictRange(ad.Likes, f.MinLikes, f.MaxLikes) {
		return false
	}
	if !inStrictRange(ad.Views, f.MinViews, f.MaxViews) {
		return false
	}
	return true
}

// Recent keeps items first seen on or after now - days. Items with no
// timestamp are dropped: they cannot be proven recent.
func Recent(ad model.NormalizedAd, days int, now time.Time) bool {
	if ad.FirstSeenAt == nil {
		return false
	}
	cutoff := now.AddDate(0, 0, -days)
	return !ad.FirstSeenAt.Before(cutoff)
}

// MeetsEngagementFloor keeps items whose rate is at or above min, or whose
// rate is undefined.
func MeetsEngagementFloor(ad model.NormalizedAd, min float64) bool {
	if ad.EngagementRate == nil {
		return true
	}
	return *ad.EngagementRate >= min
}

// InFollowerRange checks the inclusive bounds; an unknown follower count
// passes.
func InFollowerRange(count *int64, min, max *int64) bool {
	if count == nil {
		return true
	}
	if min != nil && *count < *min {
		return false
	}
	if max != nil && *count > *max {
		return false
	}
	return true
}

// inStrictRange checks inclusive bounds treating a missing value as zero.
func inStrictRange(v *int64, min, max *int64) bool {
	val := int64(0)
	if v != nil {
		val = *v
	}
	if min != nil && val < *min {
		return false
	}
	if max != nil && val > *max {
		return false
	}
	return true
}

// maxOfBounds collapses an impression range to its upper bound, falling back
// to the lower bound.
func maxOfBounds(lower, upper *int64) *int64 {
	if upper != nil {
		return upper
	}
	return lower
}

func lookupFollowers(ad model.NormalizedAd, counts map[string]*int64) *int64 {
	if ad.AdvertiserExternalID == nil {
		return nil
	}
	return counts[*ad.AdvertiserExternalID]
}
