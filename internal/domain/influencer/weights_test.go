package influencer

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultWeightsAreValid(t *testing.T) {
	w := DefaultWeights()
	require.NoError(t, w.Validate())
	assert.InDelta(t, 1.0, w.Sum(), 1e-9)
}

func TestNewRankingWeightsSumInvariant(t *testing.T) {
	base := DefaultWeights()

	cases := []struct {
		name    string
		mutate  func(*RankingWeights)
		wantErr bool
	}{
		{"exact", func(w *RankingWeights) {}, false},
		{"within lower tolerance", func(w *RankingWeights) { w.Credibility -= 0.005 }, false},
		{"within upper tolerance", func(w *RankingWeights) { w.Credibility += 0.005 }, false},
		{"below", func(w *RankingWeights) { w.Credibility -= 0.02 }, true},
		{"above", func(w *RankingWeights) { w.NicheMatch += 0.05 }, true},
		{"negative", func(w *RankingWeights) { w.Growth = -0.1; w.Credibility += 0.2 }, true},
		{"nan", func(w *RankingWeights) { w.Engagement = math.NaN() }, true},
		{"all zero", func(w *RankingWeights) { *w = RankingWeights{} }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := base
			tc.mutate(&w)
			_, err := NewRankingWeights(w)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidWeights))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestScoreIsWeightedSum(t *testing.T) {
	w := DefaultWeights()
	f := FactorScores{
		Credibility:   0.9,
		Engagement:    0.4,
		AudienceMatch: 0.5,
		Growth:        0.2,
		Geography:     0.7,
		BrandAffinity: 0.5,
		CreativeFit:   0.5,
		NicheMatch:    1,
	}
	want := 0.20*0.9 + 0.15*0.4 + 0.15*0.5 + 0.10*0.2 + 0.15*0.7 + 0.10*0.5 + 0.05*0.5 + 0.10*1
	assert.InDelta(t, want, w.Score(f), 1e-12)
}
