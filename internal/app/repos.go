package app

import (
	"gorm.io/gorm"

	"github.com/Jrogbaaa/Project-X-sub001/internal/data/repos"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/logger"
)

type Repos struct {
	Profile      repos.CandidateProfileRepo
	Content      repos.ContentUnitRepo
	Brand        repos.BrandEntryRepo
	WeightPreset repos.WeightPresetRepo
	SearchRun    repos.SearchRunRepo
	Audit        repos.AuditRecordRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Profile:      repos.NewCandidateProfileRepo(db, log),
		Content:      repos.NewContentUnitRepo(db, log),
		Brand:        repos.NewBrandEntryRepo(db, log),
		WeightPreset: repos.NewWeightPresetRepo(db, log),
		SearchRun:    repos.NewSearchRunRepo(db, log),
		Audit:        repos.NewAuditRecordRepo(db, log),
	}
}
