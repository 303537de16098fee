package provider

import (
	"strings"

	"gorm.io/datatypes"

	types "github.com/Jrogbaaa/Project-X-sub001/internal/domain/influencer"
	"github.com/Jrogbaaa/Project-X-sub001/internal/normalization"
)

type profilePayload struct {
	Username       string   `json:"username"`
	DisplayName    string   `json:"display_name"`
	Bio            string   `json:"bio"`
	AvatarURL      string   `json:"avatar_url"`
	Country        string   `json:"country"`
	Followers      int64    `json:"followers"`
	Credibility    *float64 `json:"credibility"`
	EngagementRate *float64 `json:"engagement_rate"`
	Growth6M       *float64 `json:"growth_6m"`
	Audience       struct {
		Geo    map[string]float64 `json:"geo"`
		Gender map[string]float64 `json:"gender"`
		Age    map[string]float64 `json:"age"`
	} `json:"audience"`
	Niche           string         `json:"niche"`
	NicheConfidence float64        `json:"niche_confidence"`
	BrandMentions   []string       `json:"brand_mentions"`
	Themes          []string       `json:"themes"`
	SponsoredRatio  float64        `json:"sponsored_ratio"`
	IsActive        *bool          `json:"is_active"`
	Extra           map[string]any `json:"extra"`
}

func distribution(in map[string]float64, upper bool) types.Distribution {
	if len(in) == 0 {
		return nil
	}
	out := make(types.Distribution, len(in))
	for k, v := range in {
		k = strings.TrimSpace(k)
		if upper {
			k = strings.ToUpper(k)
		} else {
			k = strings.ToLower(k)
		}
		if k == "" {
			continue
		}
		out[k] = v
	}
	return out
}

func (p *profilePayload) toProfile(platform, username string) *types.CandidateProfile {
	active := true
	if p.IsActive != nil {
		active = *p.IsActive
	}
	return &types.CandidateProfile{
		Platform:         platform,
		Username:         username,
		DisplayName:      strings.TrimSpace(p.DisplayName),
		Bio:              p.Bio,
		AvatarURL:        p.AvatarURL,
		Country:          strings.ToUpper(strings.TrimSpace(p.Country)),
		FollowerCount:    p.Followers,
		CredibilityScore: p.Credibility,
		EngagementRate:   p.EngagementRate,
		GrowthRate:       p.Growth6M,
		AudienceGeo:      datatypes.NewJSONType(distribution(p.Audience.Geo, true)),
		AudienceGender:   datatypes.NewJSONType(distribution(p.Audience.Gender, false)),
		AudienceAge:      datatypes.NewJSONType(distribution(p.Audience.Age, false)),
		DetectedNiche:    normalization.ParseInputString(p.Niche),
		NicheConfidence:  p.NicheConfidence,
		BrandMentions:    datatypes.NewJSONType(normalization.BrandKeys(p.BrandMentions)),
		ContentThemes:    datatypes.NewJSONType(normalization.ParseInputList(p.Themes)),
		SponsoredRatio:   p.SponsoredRatio,
		Tier:             types.TierFor(p.Followers),
		Extra:            datatypes.NewJSONType(types.ExtraFromJSON(p.Extra)),
		ProfileActive:    active,
	}
}
