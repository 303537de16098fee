package influencer

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	WeightSumMin = 0.99
	WeightSumMax = 1.01
)

var ErrInvalidWeights = errors.New("invalid ranking weights")

// ErrProtectedPreset is returned when deleting a system preset.
var ErrProtectedPreset = errors.New("weight preset is system-protected")

// SystemPresetName is the built-in preset seeded at start.
const SystemPresetName = "balanced"

// RankingWeights are the per-factor multipliers of the relevance score.
// Every weight is non-negative and the eight sum to 1 (within WeightSumMin/Max).
type RankingWeights struct {
	Credibility   float64 `gorm:"column:credibility;not null" json:"credibility" yaml:"credibility"`
	Engagement    float64 `gorm:"column:engagement;not null" json:"engagement" yaml:"engagement"`
	AudienceMatch float64 `gorm:"column:audience_match;not null" json:"audience_match" yaml:"audience_match"`
	Growth        float64 `gorm:"column:growth;not null" json:"growth" yaml:"growth"`
	Geography     float64 `gorm:"column:geography;not null" json:"geography" yaml:"geography"`
	BrandAffinity float64 `gorm:"column:brand_affinity;not null" json:"brand_affinity" yaml:"brand_affinity"`
	CreativeFit   float64 `gorm:"column:creative_fit;not null" json:"creative_fit" yaml:"creative_fit"`
	NicheMatch    float64 `gorm:"column:niche_match;not null" json:"niche_match" yaml:"niche_match"`
}

// DefaultWeights is the built-in "balanced" preset.
func DefaultWeights() RankingWeights {
	return RankingWeights{
		Credibility:   0.20,
		Engagement:    0.15,
		AudienceMatch: 0.15,
		Growth:        0.10,
		Geography:     0.15,
		BrandAffinity: 0.10,
		CreativeFit:   0.05,
		NicheMatch:    0.10,
	}
}

// NewRankingWeights validates w before handing it back.
func NewRankingWeights(w RankingWeights) (RankingWeights, error) {
	if err := w.Validate(); err != nil {
		return RankingWeights{}, err
	}
	return w, nil
}

func (w RankingWeights) values() [8]float64 {
	return [8]float64{
		w.Credibility,
		w.Engagement,
		w.AudienceMatch,
		w.Growth,
		w.Geography,
		w.BrandAffinity,
		w.CreativeFit,
		w.NicheMatch,
	}
}

func (w RankingWeights) Sum() float64 {
	var s float64
	for _, v := range w.values() {
		s += v
	}
	return s
}

func (w RankingWeights) Validate() error {
	names := FactorNames()
	for i, v := range w.values() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not a finite number", ErrInvalidWeights, names[i])
		}
		if v < 0 {
			return fmt.Errorf("%w: %s is negative (%v)", ErrInvalidWeights, names[i], v)
		}
	}
	if s := w.Sum(); s < WeightSumMin || s > WeightSumMax {
		return fmt.Errorf("%w: weights sum to %.4f, want [%.2f, %.2f]", ErrInvalidWeights, s, WeightSumMin, WeightSumMax)
	}
	return nil
}

// Score is the weighted sum of f, accumulated in factor order.
func (w RankingWeights) Score(f FactorScores) float64 {
	wv := w.values()
	fv := f.values()
	var s float64
	for i := range wv {
		s += wv[i] * fv[i]
	}
	return s
}

// FactorNames lists the ranking factors in their canonical order.
func FactorNames() [8]string {
	return [8]string{
		"credibility",
		"engagement",
		"audience_match",
		"growth",
		"geography",
		"brand_affinity",
		"creative_fit",
		"niche_match",
	}
}

// FactorScores is the per-factor breakdown of one ranked candidate, each in [0,1].
type FactorScores struct {
	Credibility   float64 `gorm:"column:credibility;not null" json:"credibility"`
	Engagement    float64 `gorm:"column:engagement;not null" json:"engagement"`
	AudienceMatch float64 `gorm:"column:audience_match;not null" json:"audience_match"`
	Growth        float64 `gorm:"column:growth;not null" json:"growth"`
	Geography     float64 `gorm:"column:geography;not null" json:"geography"`
	BrandAffinity float64 `gorm:"column:brand_affinity;not null" json:"brand_affinity"`
	CreativeFit   float64 `gorm:"column:creative_fit;not null" json:"creative_fit"`
	NicheMatch    float64 `gorm:"column:niche_match;not null" json:"niche_match"`
}

func (f FactorScores) values() [8]float64 {
	return [8]float64{
		f.Credibility,
		f.Engagement,
		f.AudienceMatch,
		f.Growth,
		f.Geography,
		f.BrandAffinity,
		f.CreativeFit,
		f.NicheMatch,
	}
}

// WeightPreset is a named, stored RankingWeights.
type WeightPreset struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string         `gorm:"column:name;size:128;not null;uniqueIndex" json:"name"`
	Description string         `gorm:"column:description" json:"description,omitempty"`
	Weights     RankingWeights `gorm:"embedded;embeddedPrefix:w_" json:"weights"`
	IsDefault   bool           `gorm:"column:is_default;not null;index" json:"is_default"`
	IsSystem    bool           `gorm:"column:is_system;not null" json:"is_system"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
}

func (WeightPreset) TableName() string { return "weight_preset" }

func (p *WeightPreset) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
