package influencer

import "github.com/google/uuid"

// FilterRule identifies a hard eligibility check, in evaluation order.
type FilterRule string

const (
	RuleProfileInactive   FilterRule = "profile_inactive"
	RuleAudienceGeography FilterRule = "audience_geography"
	RuleCredibility       FilterRule = "credibility"
	RuleEngagement        FilterRule = "engagement"
	RuleGrowth            FilterRule = "growth"
	RuleGender            FilterRule = "gender"
	RuleNicheExclusion    FilterRule = "niche_exclusion"
)

// Rejection records the first rule a candidate failed. Diagnostic only.
type Rejection struct {
	ProfileID uuid.UUID  `json:"profile_id"`
	Platform  string     `json:"platform"`
	Username  string     `json:"username"`
	Rule      FilterRule `json:"rule"`
	Detail    string     `json:"detail"`
}
