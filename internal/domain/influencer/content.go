package influencer

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ContentUnit is one post owned by a CandidateProfile. Rows are removed with
// their profile; nothing else deletes them.
type ContentUnit struct {
	ID          uuid.UUID                    `gorm:"type:uuid;primaryKey" json:"id"`
	ProfileID   uuid.UUID                    `gorm:"type:uuid;not null;index;uniqueIndex:idx_content_unit_external,priority:1" json:"profile_id"`
	ExternalID  string                       `gorm:"column:external_id;not null;uniqueIndex:idx_content_unit_external,priority:2" json:"external_id"`
	Caption     string                       `gorm:"column:caption;type:text" json:"caption"`
	Hashtags    datatypes.JSONType[[]string] `gorm:"column:hashtags" json:"hashtags"`
	Mentions    datatypes.JSONType[[]string] `gorm:"column:mentions" json:"mentions"`
	IsSponsored bool                         `gorm:"column:is_sponsored;not null" json:"is_sponsored"`
	Likes       int64                        `gorm:"column:likes;not null" json:"likes"`
	Comments    int64                        `gorm:"column:comments;not null" json:"comments"`
	Views       int64                        `gorm:"column:views;not null" json:"views"`
	PostedAt    *time.Time                   `gorm:"column:posted_at;index" json:"posted_at,omitempty"`
	CreatedAt   time.Time                    `gorm:"not null" json:"created_at"`
}

func (ContentUnit) TableName() string { return "content_unit" }

func (c *ContentUnit) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
