package influencer

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrImmutable is returned by hooks guarding rows that may only be inserted.
var ErrImmutable = errors.New("record is immutable")

// SearchRun is one executed search. It is written once, together with its
// results, and never updated: re-running a brief produces a new run.
type SearchRun struct {
	ID         uuid.UUID                            `gorm:"type:uuid;primaryKey" json:"id"`
	RawBrief   string                               `gorm:"column:raw_brief;type:text;not null" json:"raw_brief"`
	BriefHash  string                               `gorm:"column:brief_hash;size:64;not null;index" json:"brief_hash"`
	Query      datatypes.JSONType[StructuredQuery]  `gorm:"column:query;not null" json:"query"`
	PresetName string                               `gorm:"column:preset_name" json:"preset_name"`
	Weights    datatypes.JSONType[RankingWeights]   `gorm:"column:weights;not null" json:"weights"`
	Thresholds datatypes.JSONType[FilterThresholds] `gorm:"column:thresholds;not null" json:"thresholds"`
	Rejections datatypes.JSONType[[]Rejection]      `gorm:"column:rejections" json:"-"`

	CandidateCount int   `gorm:"column:candidate_count;not null" json:"candidate_count"`
	RejectedCount  int   `gorm:"column:rejected_count;not null" json:"rejected_count"`
	ResultCount    int   `gorm:"column:result_count;not null" json:"result_count"`
	Partial        bool  `gorm:"column:partial;not null" json:"partial"`
	DurationMs     int64 `gorm:"column:duration_ms;not null" json:"duration_ms"`

	Results []SearchResult `gorm:"foreignKey:SearchRunID" json:"results"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (SearchRun) TableName() string { return "search_run" }

func (r *SearchRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (r *SearchRun) BeforeUpdate(tx *gorm.DB) error { return ErrImmutable }
func (r *SearchRun) BeforeDelete(tx *gorm.DB) error { return ErrImmutable }

// SearchResult is the snapshot of one ranked candidate inside a SearchRun.
type SearchResult struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	SearchRunID    uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_search_result_position,priority:1" json:"search_run_id"`
	Position       int          `gorm:"column:position;not null;uniqueIndex:idx_search_result_position,priority:2" json:"position"`
	ProfileID      uuid.UUID    `gorm:"type:uuid;not null;index" json:"profile_id"`
	Platform       string       `gorm:"column:platform;not null" json:"platform"`
	Username       string       `gorm:"column:username;not null" json:"username"`
	FollowerCount  int64        `gorm:"column:follower_count;not null" json:"follower_count"`
	Tier           Tier         `gorm:"column:tier;not null" json:"tier"`
	RelevanceScore float64      `gorm:"column:relevance_score;not null" json:"relevance_score"`
	Factors        FactorScores `gorm:"embedded;embeddedPrefix:f_" json:"factors"`
	CreatedAt      time.Time    `gorm:"not null" json:"created_at"`
}

func (SearchResult) TableName() string { return "search_result" }

func (r *SearchResult) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (r *SearchResult) BeforeUpdate(tx *gorm.DB) error { return ErrImmutable }

// RankedResult is the in-memory output of the ranking engine.
type RankedResult struct {
	Profile        *CandidateProfile `json:"profile"`
	Position       int               `json:"position"`
	RelevanceScore float64           `json:"relevance_score"`
	Factors        FactorScores      `json:"factors"`
}

func (r RankedResult) Snapshot(runID uuid.UUID) SearchResult {
	return SearchResult{
		SearchRunID:    runID,
		Position:       r.Position,
		ProfileID:      r.Profile.ID,
		Platform:       r.Profile.Platform,
		Username:       r.Profile.Username,
		FollowerCount:  r.Profile.FollowerCount,
		Tier:           r.Profile.Tier,
		RelevanceScore: r.RelevanceScore,
		Factors:        r.Factors,
	}
}
