package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/Jrogbaaa/Project-X-sub001/internal/domain/influencer"
)

func ptr(v float64) *float64 { return &v }

// UniqueName returns a username that will not collide across tests sharing a database.
func UniqueName(prefix string) string {
	return prefix + "_" + uuid.NewString()[:8]
}

// Profile builds an eligible, fresh padel profile with a Spanish, mostly female audience.
func Profile(username string, now time.Time) *types.CandidateProfile {
	return &types.CandidateProfile{
		Platform:         "instagram",
		Username:         username,
		DisplayName:      username,
		Country:          "ES",
		FollowerCount:    80_000,
		CredibilityScore: ptr(82),
		EngagementRate:   ptr(4.5),
		GrowthRate:       ptr(12),
		AudienceGeo:      datatypes.NewJSONType(types.Distribution{"ES": 71, "AR": 9}),
		AudienceGender:   datatypes.NewJSONType(types.Distribution{"female": 66, "male": 34}),
		AudienceAge:      datatypes.NewJSONType(types.Distribution{"18-24": 38, "25-34": 41, "35-44": 21}),
		DetectedNiche:    "padel",
		NicheConfidence:  0.85,
		BrandMentions:    datatypes.NewJSONType([]string{"bullpadel"}),
		ContentThemes:    datatypes.NewJSONType([]string{"padel", "training"}),
		SponsoredRatio:   0.1,
		Tier:             types.TierFor(80_000),
		ProfileActive:    true,
		CachedAt:         now,
		CacheExpiresAt:   now.Add(24 * time.Hour),
	}
}

func SeedProfile(tb testing.TB, ctx context.Context, db *gorm.DB, p *types.CandidateProfile) *types.CandidateProfile {
	tb.Helper()
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed profile: %v", err)
	}
	return p
}

func SeedBrand(tb testing.TB, ctx context.Context, db *gorm.DB, name, key string, related ...string) *types.BrandEntry {
	tb.Helper()
	b := &types.BrandEntry{
		Name:          name,
		NormalizedKey: key,
		Related:       datatypes.NewJSONType(related),
		Aliases:       datatypes.NewJSONType([]string{}),
	}
	if err := db.WithContext(ctx).Create(b).Error; err != nil {
		tb.Fatalf("seed brand: %v", err)
	}
	return b
}
