// Package catalog persists the normalized ad/advertiser records and the
// scrape job rows. Upserts are idempotent on the receiving side: advertisers
// merge without regressing enrichment, ads deduplicate on their external id.
package catalog

import "github.com/bojodanchev/ad-scraper-sub000/internal/model"

// MergeAdvertiser folds a fresh observation into an existing advertiser row.
// The merge-not-overwrite rule is an invariant, not an implementation detail:
// a field the new observation lacks must never erase a previously captured
// value. LastScrapedAt always advances; FirstSeenAt and the manual IsTracked
// flag always keep the stored value.
func MergeAdvertiser(existing, incoming *model.NormalizedAdvertiser) *model.NormalizedAdvertiser {
	merged := *existing
	merged.LastScrapedAt = incoming.LastScrapedAt

	merged.DisplayName = pickStr(incoming.DisplayName, existing.DisplayName)
	merged.Handle = pickStr(incoming.Handle, existing.Handle)
	merged.ProfileURL = pickStr(incoming.ProfileURL, existing.ProfileURL)
	merged.AvatarURL = pickStr(incoming.AvatarURL, existing.AvatarURL)
	merged.Bio = pickStr(incoming.Bio, existing.Bio)

	if incoming.Verified != nil {
		merged.Verified = incoming.Verified
	}
	merged.FollowerCount = pickI64(incoming.FollowerCount, existing.FollowerCount)
	merged.FollowingCount = pickI64(incoming.FollowingCount, existing.FollowingCount)
	merged.TotalLikes = pickI64(incoming.TotalLikes, existing.TotalLikes)
	merged.AvgLikes = pickF64(incoming.AvgLikes, existing.AvgLikes)
	merged.AvgComments = pickF64(incoming.AvgComments, existing.AvgComments)
	merged.EngagementRate = pickF64(incoming.EngagementRate, existing.EngagementRate)

	return &merged
}

func pickStr(incoming, existing *string) *string {
	if incoming != nil {
		return incoming
	}
	return existing
}

func pickI64(incoming, existing *int64) *int64 {
	if incoming != nil {
		return incoming
	}
	return existing
}

func pickF64(incoming, existing *float64) *float64 {
	if incoming != nil {
		return incoming
	}
	return existing
}
