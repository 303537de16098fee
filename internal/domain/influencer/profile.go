package influencer

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const DefaultPlatform = "instagram"

// Distribution maps a bucket (country code, gender, age range) to its share of
// the audience in percent.
type Distribution map[string]float64

// Share returns the percentage for key, matching case-insensitively.
func (d Distribution) Share(key string) (float64, bool) {
	if len(d) == 0 {
		return 0, false
	}
	if v, ok := d[key]; ok {
		return v, true
	}
	want := strings.ToLower(strings.TrimSpace(key))
	for _, k := range d.Keys() {
		if strings.ToLower(k) == want {
			return d[k], true
		}
	}
	return 0, false
}

// Keys returns the buckets in sorted order so that sums over a distribution
// are reproducible.
func (d Distribution) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CandidateProfile is the cached view of one account on one platform.
// (Platform, Username) is unique; rows are refreshed in place and never
// hard-deleted by the search path.
type CandidateProfile struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Platform string    `gorm:"column:platform;size:32;not null;uniqueIndex:idx_candidate_profile_key,priority:1" json:"platform"`
	Username string    `gorm:"column:username;size:255;not null;uniqueIndex:idx_candidate_profile_key,priority:2" json:"username"`

	DisplayName string `gorm:"column:display_name" json:"display_name,omitempty"`
	Bio         string `gorm:"column:bio;type:text" json:"bio,omitempty"`
	AvatarURL   string `gorm:"column:avatar_url" json:"avatar_url,omitempty"`
	Country     string `gorm:"column:country;size:8" json:"country,omitempty"`

	FollowerCount    int64    `gorm:"column:follower_count;not null;index" json:"follower_count"`
	CredibilityScore *float64 `gorm:"column:credibility_score" json:"credibility_score,omitempty"`
	EngagementRate   *float64 `gorm:"column:engagement_rate" json:"engagement_rate,omitempty"`
	GrowthRate       *float64 `gorm:"column:growth_rate" json:"growth_rate,omitempty"`

	AudienceGeo    datatypes.JSONType[Distribution] `gorm:"column:audience_geo" json:"audience_geo"`
	AudienceGender datatypes.JSONType[Distribution] `gorm:"column:audience_gender" json:"audience_gender"`
	AudienceAge    datatypes.JSONType[Distribution] `gorm:"column:audience_age" json:"audience_age"`

	DetectedNiche   string                       `gorm:"column:detected_niche;index" json:"detected_niche,omitempty"`
	NicheConfidence float64                      `gorm:"column:niche_confidence;not null" json:"niche_confidence"`
	BrandMentions   datatypes.JSONType[[]string] `gorm:"column:brand_mentions" json:"brand_mentions"`
	ContentThemes   datatypes.JSONType[[]string] `gorm:"column:content_themes" json:"content_themes"`
	SponsoredRatio  float64                      `gorm:"column:sponsored_ratio;not null" json:"sponsored_ratio"`
	Tier            Tier                         `gorm:"column:tier;size:16;not null;index" json:"tier"`
	Extra           datatypes.JSONType[Extra]    `gorm:"column:extra" json:"extra"`

	ProfileActive      bool       `gorm:"column:profile_active;not null;index" json:"profile_active"`
	CachedAt           time.Time  `gorm:"column:cached_at;not null" json:"cached_at"`
	CacheExpiresAt     time.Time  `gorm:"column:cache_expires_at;not null;index" json:"cache_expires_at"`
	ContentRefreshedAt *time.Time `gorm:"column:content_refreshed_at;index" json:"content_refreshed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (CandidateProfile) TableName() string { return "candidate_profile" }

func (p *CandidateProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// IsFresh reports whether the cached row can be trusted without a refetch.
func (p *CandidateProfile) IsFresh(now time.Time) bool {
	return p != nil && p.ProfileActive && now.Before(p.CacheExpiresAt)
}

func (p *CandidateProfile) Key() string {
	return ProfileKey(p.Platform, p.Username)
}

func (p *CandidateProfile) Geo() Distribution     { return p.AudienceGeo.Data() }
func (p *CandidateProfile) Genders() Distribution { return p.AudienceGender.Data() }
func (p *CandidateProfile) Ages() Distribution    { return p.AudienceAge.Data() }
func (p *CandidateProfile) Brands() []string      { return p.BrandMentions.Data() }
func (p *CandidateProfile) Themes() []string      { return p.ContentThemes.Data() }

// ProfileKey is the canonical identity string for (platform, username).
func ProfileKey(platform, username string) string {
	return NormalizePlatform(platform) + ":" + NormalizeUsername(username)
}

func NormalizePlatform(platform string) string {
	p := strings.ToLower(strings.TrimSpace(platform))
	if p == "" {
		return DefaultPlatform
	}
	return p
}

func NormalizeUsername(username string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(username)), "@")
}

// ProfileSignals are the aggregates derived from a profile's content units.
type ProfileSignals struct {
	DetectedNiche   string
	NicheConfidence float64
	BrandMentions   []string
	ContentThemes   []string
	SponsoredRatio  float64
}
