// Package filter applies the hard eligibility rules to discovered candidates.
package filter

import (
	"fmt"
	"strings"

	types "github.com/Jrogbaaa/Project-X-sub001/internal/domain/influencer"
	"github.com/Jrogbaaa/Project-X-sub001/internal/normalization"
)

// GenderShareFloor is the minimum audience share, in percent, the requested
// gender must hold for a candidate to pass the gender rule.
const GenderShareFloor = 50.0

type rule struct {
	id    types.FilterRule
	check func(p *types.CandidateProfile, q *types.StructuredQuery) (ok bool, detail string)
}

// Rules run in this order; a candidate is rejected by the first that fails.
var rules = []rule{
	{types.RuleProfileInactive, checkActive},
	{types.RuleAudienceGeography, checkGeography},
	{types.RuleCredibility, checkCredibility},
	{types.RuleEngagement, checkEngagement},
	{types.RuleGrowth, checkGrowth},
	{types.RuleGender, checkGender},
	{types.RuleNicheExclusion, checkExclusions},
}

// Apply splits candidates into those passing every rule, in input order, and
// one Rejection per failing candidate naming the first rule it failed.
// Missing data never passes a threshold that is set.
func Apply(candidates []*types.CandidateProfile, q *types.StructuredQuery) ([]*types.CandidateProfile, []types.Rejection) {
	passed := make([]*types.CandidateProfile, 0, len(candidates))
	var rejected []types.Rejection
	for _, p := range candidates {
		if p == nil {
			continue
		}
		if r, failed := firstFailure(p, q); failed {
			rejected = append(rejected, r)
			continue
		}
		passed = append(passed, p)
	}
	return passed, rejected
}

func firstFailure(p *types.CandidateProfile, q *types.StructuredQuery) (types.Rejection, bool) {
	for _, r := range rules {
		if ok, detail := r.check(p, q); !ok {
			return types.Rejection{
				ProfileID: p.ID,
				Platform:  p.Platform,
				Username:  p.Username,
				Rule:      r.id,
				Detail:    detail,
			}, true
		}
	}
	return types.Rejection{}, false
}

func checkActive(p *types.CandidateProfile, _ *types.StructuredQuery) (bool, string) {
	if !p.ProfileActive {
		return false, "profile inactive"
	}
	return true, ""
}

func checkGeography(p *types.CandidateProfile, q *types.StructuredQuery) (bool, string) {
	if q.MinAudiencePct <= 0 {
		return true, ""
	}
	country := strings.ToUpper(strings.TrimSpace(q.TargetCountry))
	share, ok := p.Geo().Share(country)
	if !ok {
		return false, fmt.Sprintf("no audience data for %s", country)
	}
	if share < q.MinAudiencePct {
		return false, fmt.Sprintf("%s audience %.1f%% below %.1f%%", country, share, q.MinAudiencePct)
	}
	return true, ""
}

func checkCredibility(p *types.CandidateProfile, q *types.StructuredQuery) (bool, string) {
	if p.CredibilityScore == nil {
		return false, "no credibility score"
	}
	if *p.CredibilityScore < q.MinCredibility {
		return false, fmt.Sprintf("credibility %.1f below %.1f", *p.CredibilityScore, q.MinCredibility)
	}
	return true, ""
}

func checkEngagement(p *types.CandidateProfile, q *types.StructuredQuery) (bool, string) {
	if q.MinEngagement == nil {
		return true, ""
	}
	if p.EngagementRate == nil {
		return false, "no engagement rate"
	}
	if *p.EngagementRate < *q.MinEngagement {
		return false, fmt.Sprintf("engagement %.2f%% below %.2f%%", *p.EngagementRate, *q.MinEngagement)
	}
	return true, ""
}

func checkGrowth(p *types.CandidateProfile, q *types.StructuredQuery) (bool, string) {
	if q.MinGrowth == nil {
		return true, ""
	}
	if p.GrowthRate == nil {
		return false, "no growth rate"
	}
	if *p.GrowthRate < *q.MinGrowth {
		return false, fmt.Sprintf("growth %.2f%% below %.2f%%", *p.GrowthRate, *q.MinGrowth)
	}
	return true, ""
}

func checkGender(p *types.CandidateProfile, q *types.StructuredQuery) (bool, string) {
	if q.Gender == "" || q.Gender == types.GenderAny {
		return true, ""
	}
	share, ok := p.Genders().Share(string(q.Gender))
	if !ok {
		return false, "no audience gender data"
	}
	if share < GenderShareFloor {
		return false, fmt.Sprintf("%s audience %.1f%% below %.0f%%", q.Gender, share, GenderShareFloor)
	}
	return true, ""
}

func checkExclusions(p *types.CandidateProfile, q *types.StructuredQuery) (bool, string) {
	if len(q.ExcludeNiches) > 0 && p.DetectedNiche != "" {
		niche := normalization.ParseInputString(p.DetectedNiche)
		for _, n := range q.ExcludeNiches {
			if normalization.ParseInputString(n) == niche {
				return false, fmt.Sprintf("excluded niche %q", niche)
			}
		}
	}
	if len(q.ExcludeBrands) > 0 {
		excluded := make(map[string]struct{}, len(q.ExcludeBrands))
		for _, b := range q.ExcludeBrands {
			excluded[normalization.BrandKey(b)] = struct{}{}
		}
		for _, m := range p.Brands() {
			if _, hit := excluded[normalization.BrandKey(m)]; hit {
				return false, fmt.Sprintf("mentions excluded brand %q", m)
			}
		}
	}
	return true, ""
}
