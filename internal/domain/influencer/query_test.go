package influencer

import (
	"errors"
	"testing"
	"time"
)

func validQuery() StructuredQuery {
	return StructuredQuery{
		Niche:          "padel",
		Platform:       DefaultPlatform,
		Gender:         GenderFemale,
		TargetCount:    5,
		TargetCountry:  "ES",
		MinAudiencePct: 60,
		MinCredibility: 70,
	}
}

func TestStructuredQueryValidate(t *testing.T) {
	neg := -1.0
	cases := []struct {
		name   string
		mutate func(*StructuredQuery)
		ok     bool
	}{
		{"valid", func(q *StructuredQuery) {}, true},
		{"bad gender", func(q *StructuredQuery) { q.Gender = "robots" }, false},
		{"zero count", func(q *StructuredQuery) { q.TargetCount = 0 }, false},
		{"count too large", func(q *StructuredQuery) { q.TargetCount = MaxTargetCount + 1 }, false},
		{"audience over 100", func(q *StructuredQuery) { q.MinAudiencePct = 120 }, false},
		{"negative credibility", func(q *StructuredQuery) { q.MinCredibility = -5 }, false},
		{"negative engagement", func(q *StructuredQuery) { q.MinEngagement = &neg }, false},
		{"no country with threshold", func(q *StructuredQuery) { q.TargetCountry = "" }, false},
		{"no platform", func(q *StructuredQuery) { q.Platform = "" }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := validQuery()
			tc.mutate(&q)
			err := q.Validate()
			if tc.ok && err != nil {
				t.Fatalf("Validate: unexpected error %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrInvalidQuery) {
				t.Fatalf("Validate: want ErrInvalidQuery got %v", err)
			}
		})
	}
}

func TestProfileFreshness(t *testing.T) {
	cachedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := &CandidateProfile{
		ProfileActive:  true,
		CachedAt:       cachedAt,
		CacheExpiresAt: cachedAt.Add(24 * time.Hour),
	}
	if !p.IsFresh(cachedAt.Add(time.Hour)) {
		t.Fatalf("expected fresh at T+1h")
	}
	if p.IsFresh(cachedAt.Add(25 * time.Hour)) {
		t.Fatalf("expected stale at T+25h")
	}
	p.ProfileActive = false
	if p.IsFresh(cachedAt.Add(time.Hour)) {
		t.Fatalf("inactive profile must never be fresh")
	}
}

func TestDistributionShareAndKeys(t *testing.T) {
	d := Distribution{"ES": 62.5, "FR": 10, "AR": 5}
	if v, ok := d.Share("es"); !ok || v != 62.5 {
		t.Fatalf("Share(es): got %v %v", v, ok)
	}
	if _, ok := d.Share("DE"); ok {
		t.Fatalf("Share(DE): expected missing")
	}
	keys := d.Keys()
	if len(keys) != 3 || keys[0] != "AR" || keys[2] != "FR" {
		t.Fatalf("Keys: unexpected order %v", keys)
	}
}

func TestExtraFromJSON(t *testing.T) {
	extra := ExtraFromJSON(map[string]any{
		"verified": true,
		"category": "sports",
		"posts":    float64(412),
		"avg_rate": 3.25,
		"nested":   map[string]any{"x": 1},
	})
	if extra["verified"].Kind != ExtraBool || !extra["verified"].Bool {
		t.Fatalf("verified: %+v", extra["verified"])
	}
	if extra["posts"].Kind != ExtraInt || extra["posts"].Int != 412 {
		t.Fatalf("posts: %+v", extra["posts"])
	}
	if extra["avg_rate"].Kind != ExtraFloat {
		t.Fatalf("avg_rate: %+v", extra["avg_rate"])
	}
	if _, ok := extra["nested"]; ok {
		t.Fatalf("nested values must be dropped")
	}
}
