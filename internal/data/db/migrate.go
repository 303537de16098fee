package db

import (
	"gorm.io/gorm"

	types "github.com/Jrogbaaa/Project-X-sub001/internal/domain/influencer"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Candidate cache + enrichment
		&types.CandidateProfile{},
		&types.ContentUnit{},

		// Knowledge base
		&types.BrandEntry{},
		&types.WeightPreset{},

		// Search history (insert-only)
		&types.SearchRun{},
		&types.SearchResult{},
		&types.AuditRecord{},
	)
}
