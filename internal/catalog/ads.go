package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bojodanchev/ad-scraper-sub000/internal/model"
)

// InsertAdIfNew persists an ad, skipping it when the same
// (platform, external id) was already seen. Ads without an external id are
// always inserted — they cannot be deduplicated, and completeness wins over
// strict dedup when provider data is incomplete.
// Returns false when the ad was a duplicate.
func (s *Store) InsertAdIfNew(ctx context.Context, ad *model.NormalizedAd) (bool, error) {
	if ad.ID == "" {
		ad.ID = uuid.NewString()
	}

	if ad.ExternalID == nil {
		if err := s.insertAd(ctx, ad); err != nil {
			return false, err
		}
		return true, nil
	}

	// Dedup insert, same shape as the unique-source guard on job ingestion:
	// the WHERE NOT EXISTS makes re-processing the same provider result set
	// a no-op.
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO ads (id, platform, external_id, advertiser_id, headline, body,
		   cta_text, landing_url, media_type, media_urls, thumbnail_url,
		   impressions_min, impressions_max, likes, comments, shares, views,
		   engagement_rate, days_running, countries, first_seen_at, last_seen_at, scraped_at)
		 SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23
		 WHERE NOT EXISTS (
		   SELECT 1 FROM ads WHERE platform = $2 AND external_id = $3
		 )`,
		ad.ID, ad.Platform, ad.ExternalID, ad.AdvertiserID, ad.Headline, ad.Body,
		ad.CTAText, ad.LandingURL, ad.MediaType, ad.MediaURLs, ad.ThumbnailURL,
		ad.ImpressionsMin, ad.ImpressionsMax, ad.Likes, ad.Comments, ad.Shares, ad.Views,
		ad.EngagementRate, ad.DaysRunning, ad.Countries, ad.FirstSeenAt, ad.LastSeenAt, ad.ScrapedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert ad: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (s *Store) insertAd(ctx context.Context, ad *model.NormalizedAd) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO ads (id, platform, external_id, advertiser_id, headline, body,
		   cta_text, landing_url, media_type, media_urls, thumbnail_url,
		   impressions_min, impressions_max, likes, comments, shares, views,
		   engagement_rate, days_running, countries, first_seen_at, last_seen_at, scraped_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`,
		ad.ID, ad.Platform, ad.ExternalID, ad.AdvertiserID, ad.Headline, ad.Body,
		ad.CTAText, ad.LandingURL, ad.MediaType, ad.MediaURLs, ad.ThumbnailURL,
		ad.ImpressionsMin, ad.ImpressionsMax, ad.Likes, ad.Comments, ad.Shares, ad.Views,
		ad.EngagementRate, ad.DaysRunning, ad.Countries, ad.FirstSeenAt, ad.LastSeenAt, ad.ScrapedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ad: %w", err)
	}
	return nil
}
