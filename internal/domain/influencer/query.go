package influencer

import (
	"errors"
	"fmt"
	"strings"
)

type Gender string

const (
	GenderAny    Gender = "any"
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

func ParseGender(s string) (Gender, error) {
	switch Gender(strings.ToLower(strings.TrimSpace(s))) {
	case "", GenderAny:
		return GenderAny, nil
	case GenderMale:
		return GenderMale, nil
	case GenderFemale:
		return GenderFemale, nil
	}
	return "", fmt.Errorf("invalid gender %q", s)
}

const MaxTargetCount = 100

// StructuredQuery is the validated form of a campaign brief. It is produced
// once by the parser and never mutated afterwards.
type StructuredQuery struct {
	BrandName       string   `json:"brand_name"`
	Niche           string   `json:"niche"`
	Topics          []string `json:"topics"`
	Platform        string   `json:"platform"`
	Gender          Gender   `json:"gender"`
	TargetAgeRanges []string `json:"target_age_ranges"`
	TargetCount     int      `json:"target_count"`
	TargetCountry   string   `json:"target_country"`

	MinAudiencePct float64  `json:"min_audience_pct"`
	MinCredibility float64  `json:"min_credibility"`
	MinEngagement  *float64 `json:"min_engagement,omitempty"`
	MinGrowth      *float64 `json:"min_growth,omitempty"`

	ExcludeNiches []string `json:"exclude_niches"`
	ExcludeBrands []string `json:"exclude_brands"`

	CreativeConcept string `json:"creative_concept"`
	Tone            string `json:"tone"`
}

var ErrInvalidQuery = errors.New("invalid structured query")

func (q *StructuredQuery) Validate() error {
	if q == nil {
		return fmt.Errorf("%w: nil query", ErrInvalidQuery)
	}
	if _, err := ParseGender(string(q.Gender)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	if q.TargetCount < 1 || q.TargetCount > MaxTargetCount {
		return fmt.Errorf("%w: target_count %d outside [1,%d]", ErrInvalidQuery, q.TargetCount, MaxTargetCount)
	}
	if err := percentInRange("min_audience_pct", q.MinAudiencePct); err != nil {
		return err
	}
	if err := percentInRange("min_credibility", q.MinCredibility); err != nil {
		return err
	}
	if q.MinEngagement != nil && (*q.MinEngagement < 0 || *q.MinEngagement > 100) {
		return fmt.Errorf("%w: min_engagement %v outside [0,100]", ErrInvalidQuery, *q.MinEngagement)
	}
	if q.MinGrowth != nil && *q.MinGrowth < -100 {
		return fmt.Errorf("%w: min_growth %v below -100", ErrInvalidQuery, *q.MinGrowth)
	}
	if q.MinAudiencePct > 0 && strings.TrimSpace(q.TargetCountry) == "" {
		return fmt.Errorf("%w: min_audience_pct set without target_country", ErrInvalidQuery)
	}
	if strings.TrimSpace(q.Platform) == "" {
		return fmt.Errorf("%w: missing platform", ErrInvalidQuery)
	}
	return nil
}

func percentInRange(field string, v float64) error {
	if v < 0 || v > 100 {
		return fmt.Errorf("%w: %s %v outside [0,100]", ErrInvalidQuery, field, v)
	}
	return nil
}

// FilterThresholds is the snapshot of hard eligibility criteria a search ran with.
type FilterThresholds struct {
	TargetCountry  string   `json:"target_country"`
	MinAudiencePct float64  `json:"min_audience_pct"`
	MinCredibility float64  `json:"min_credibility"`
	MinEngagement  *float64 `json:"min_engagement,omitempty"`
	MinGrowth      *float64 `json:"min_growth,omitempty"`
	Gender         Gender   `json:"gender"`
	ExcludeNiches  []string `json:"exclude_niches,omitempty"`
	ExcludeBrands  []string `json:"exclude_brands,omitempty"`
}

func (q *StructuredQuery) Thresholds() FilterThresholds {
	return FilterThresholds{
		TargetCountry:  q.TargetCountry,
		MinAudiencePct: q.MinAudiencePct,
		MinCredibility: q.MinCredibility,
		MinEngagement:  q.MinEngagement,
		MinGrowth:      q.MinGrowth,
		Gender:         q.Gender,
		ExcludeNiches:  append([]string(nil), q.ExcludeNiches...),
		ExcludeBrands:  append([]string(nil), q.ExcludeBrands...),
	}
}
