package influencer

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BrandEntry is a knowledge-base brand. NormalizedKey is unique and is the
// only identity used for matching and import de-duplication.
type BrandEntry struct {
	ID            uuid.UUID                    `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string                       `gorm:"column:name;not null" json:"name"`
	NormalizedKey string                       `gorm:"column:normalized_key;size:255;not null;uniqueIndex" json:"normalized_key"`
	Category      string                       `gorm:"column:category;index" json:"category,omitempty"`
	Related       datatypes.JSONType[[]string] `gorm:"column:related" json:"related"`
	Aliases       datatypes.JSONType[[]string] `gorm:"column:aliases" json:"aliases"`
	CreatedAt     time.Time                    `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time                    `gorm:"not null" json:"updated_at"`
}

func (BrandEntry) TableName() string { return "brand_entry" }

func (b *BrandEntry) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
