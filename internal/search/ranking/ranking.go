// Package ranking scores eligible candidates on eight normalized factors and
// orders them deterministically.
package ranking

import (
	"math"
	"sort"
	"strings"

	types "github.com/Jrogbaaa/Project-X-sub001/internal/domain/influencer"
	"github.com/Jrogbaaa/Project-X-sub001/internal/normalization"
)

// Neutral is the score of a factor whose criterion the brief did not state.
const Neutral = 0.5

// overlapCap bounds the denominator of set-overlap factors so a large
// affinity set does not dilute a few strong matches.
const overlapCap = 3

type Options struct {
	// EngagementCeiling is the engagement rate, in percent, that scores 1.
	EngagementCeiling float64
	// GrowthCeiling is the 6-month growth, in percent, that scores 1.
	GrowthCeiling float64
	// Affinity holds brand keys related to the target brand (competitors,
	// partners) from the knowledge base.
	Affinity []string
}

func (o Options) withDefaults() Options {
	if o.EngagementCeiling <= 0 {
		o.EngagementCeiling = 10
	}
	if o.GrowthCeiling <= 0 {
		o.GrowthCeiling = 50
	}
	return o
}

// Rank scores every candidate, sorts by relevance descending and returns at
// most q.TargetCount results with 1-based positions. Ties fall back to
// follower count descending, then platform and username ascending.
func Rank(candidates []*types.CandidateProfile, q *types.StructuredQuery, w types.RankingWeights, opts Options) []types.RankedResult {
	opts = opts.withDefaults()
	t := newTarget(q, opts)

	out := make([]types.RankedResult, 0, len(candidates))
	for _, p := range candidates {
		if p == nil {
			continue
		}
		f := t.factors(p)
		out = append(out, types.RankedResult{
			Profile:        p,
			RelevanceScore: w.Score(f),
			Factors:        f,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })

	if q != nil && q.TargetCount > 0 && len(out) > q.TargetCount {
		out = out[:q.TargetCount]
	}
	for i := range out {
		out[i].Position = i + 1
	}
	return out
}

func less(a, b types.RankedResult) bool {
	if a.RelevanceScore != b.RelevanceScore {
		return a.RelevanceScore > b.RelevanceScore
	}
	if a.Profile.FollowerCount != b.Profile.FollowerCount {
		return a.Profile.FollowerCount > b.Profile.FollowerCount
	}
	if a.Profile.Platform != b.Profile.Platform {
		return a.Profile.Platform < b.Profile.Platform
	}
	return a.Profile.Username < b.Profile.Username
}

// target is the query side of every factor, precomputed once per ranking.
type target struct {
	opts     Options
	country  string
	gender   types.Gender
	ages     []string
	niche    string
	brandSet map[string]struct{}
	concept  []string
	hasBrand bool
}

func newTarget(q *types.StructuredQuery, opts Options) target {
	t := target{opts: opts}
	if q == nil {
		return t
	}
	t.country = strings.ToUpper(strings.TrimSpace(q.TargetCountry))
	t.gender = q.Gender
	t.ages = append([]string(nil), q.TargetAgeRanges...)
	sort.Strings(t.ages)
	t.niche = normalization.ParseInputString(q.Niche)

	if key := normalization.BrandKey(q.BrandName); key != "" {
		t.hasBrand = true
		t.brandSet = map[string]struct{}{key: {}}
		for _, k := range normalization.BrandKeys(opts.Affinity) {
			t.brandSet[k] = struct{}{}
		}
	}
	t.concept = normalization.Tokens(q.CreativeConcept + " " + q.Tone)
	return t
}

func (t target) factors(p *types.CandidateProfile) types.FactorScores {
	return types.FactorScores{
		Credibility:   credibility(p),
		Engagement:    scaled(p.EngagementRate, t.opts.EngagementCeiling),
		AudienceMatch: t.audienceMatch(p),
		Growth:        scaled(p.GrowthRate, t.opts.GrowthCeiling),
		Geography:     t.geography(p),
		BrandAffinity: t.brandAffinity(p),
		CreativeFit:   t.creativeFit(p),
		NicheMatch:    t.nicheMatch(p),
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func credibility(p *types.CandidateProfile) float64 {
	if p.CredibilityScore == nil {
		return 0
	}
	return clamp01(*p.CredibilityScore / 100)
}

func scaled(v *float64, ceiling float64) float64 {
	if v == nil {
		return 0
	}
	return clamp01(*v / ceiling)
}

func (t target) geography(p *types.CandidateProfile) float64 {
	if t.country == "" {
		return Neutral
	}
	share, ok := p.Geo().Share(t.country)
	if !ok {
		return 0
	}
	return clamp01(share / 100)
}

// audienceMatch averages, over the demographics the brief targets, one minus
// the total variation distance between the candidate's audience and the target.
func (t target) audienceMatch(p *types.CandidateProfile) float64 {
	var parts []float64
	if t.gender != "" && t.gender != types.GenderAny {
		parts = append(parts, similarity(p.Genders(), []string{string(t.gender)}))
	}
	if len(t.ages) > 0 {
		parts = append(parts, similarity(p.Ages(), t.ages))
	}
	if len(parts) == 0 {
		return Neutral
	}
	var sum float64
	for _, v := range parts {
		sum += v
	}
	return clamp01(sum / float64(len(parts)))
}

// similarity compares dist, normalized to 1, with a uniform distribution over
// want. Keys are visited in sorted order so the result is reproducible.
func similarity(dist types.Distribution, want []string) float64 {
	var total float64
	keys := dist.Keys()
	for _, k := range keys {
		if v := dist[k]; v > 0 {
			total += v
		}
	}
	if total <= 0 || len(want) == 0 {
		return 0
	}
	target := make(map[string]float64, len(want))
	for _, w := range want {
		target[strings.ToLower(strings.TrimSpace(w))] = 1 / float64(len(want))
	}
	seen := make(map[string]struct{}, len(keys))
	var diff float64
	for _, k := range keys {
		lk := strings.ToLower(strings.TrimSpace(k))
		seen[lk] = struct{}{}
		v := dist[k]
		if v < 0 {
			v = 0
		}
		diff += math.Abs(v/total - target[lk])
	}
	targetKeys := make([]string, 0, len(target))
	for k := range target {
		targetKeys = append(targetKeys, k)
	}
	sort.Strings(targetKeys)
	for _, k := range targetKeys {
		if _, ok := seen[k]; !ok {
			diff += target[k]
		}
	}
	return clamp01(1 - diff/2)
}

func (t target) brandAffinity(p *types.CandidateProfile) float64 {
	if !t.hasBrand {
		return Neutral
	}
	hits := 0
	for _, m := range normalization.BrandKeys(p.Brands()) {
		if _, ok := t.brandSet[m]; ok {
			hits++
		}
	}
	return clamp01(float64(hits) / float64(minInt(len(t.brandSet), overlapCap)))
}

func (t target) creativeFit(p *types.CandidateProfile) float64 {
	if len(t.concept) == 0 {
		return Neutral
	}
	have := map[string]struct{}{}
	for _, theme := range p.Themes() {
		for _, tok := range normalization.Tokens(theme) {
			have[tok] = struct{}{}
		}
	}
	for _, tok := range normalization.Tokens(p.DetectedNiche) {
		have[tok] = struct{}{}
	}
	hits := 0
	for _, tok := range t.concept {
		if _, ok := have[tok]; ok {
			hits++
		}
	}
	return clamp01(float64(hits) / float64(minInt(len(t.concept), overlapCap)))
}

// nicheMatch is 1 on an exact niche match. Otherwise a confidently detected
// different niche scores towards 0 and an uncertain one towards Neutral.
func (t target) nicheMatch(p *types.CandidateProfile) float64 {
	if t.niche == "" {
		return Neutral
	}
	niche := normalization.ParseInputString(p.DetectedNiche)
	if niche == t.niche {
		return 1
	}
	return clamp01(Neutral * (1 - clamp01(p.NicheConfidence)))
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
