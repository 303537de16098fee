package repos

import (
	"gorm.io/gorm"

	"github.com/Jrogbaaa/Project-X-sub001/internal/data/repos/influencer"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/logger"
)

type CandidateProfileRepo = influencer.CandidateProfileRepo
type ContentUnitRepo = influencer.ContentUnitRepo
type BrandEntryRepo = influencer.BrandEntryRepo
type WeightPresetRepo = influencer.WeightPresetRepo
type SearchRunRepo = influencer.SearchRunRepo
type AuditRecordRepo = influencer.AuditRecordRepo

func NewCandidateProfileRepo(db *gorm.DB, baseLog *logger.Logger) CandidateProfileRepo {
	return influencer.NewCandidateProfileRepo(db, baseLog)
}

func NewContentUnitRepo(db *gorm.DB, baseLog *logger.Logger) ContentUnitRepo {
	return influencer.NewContentUnitRepo(db, baseLog)
}

func NewBrandEntryRepo(db *gorm.DB, baseLog *logger.Logger) BrandEntryRepo {
	return influencer.NewBrandEntryRepo(db, baseLog)
}

func NewWeightPresetRepo(db *gorm.DB, baseLog *logger.Logger) WeightPresetRepo {
	return influencer.NewWeightPresetRepo(db, baseLog)
}

func NewSearchRunRepo(db *gorm.DB, baseLog *logger.Logger) SearchRunRepo {
	return influencer.NewSearchRunRepo(db, baseLog)
}

func NewAuditRecordRepo(db *gorm.DB, baseLog *logger.Logger) AuditRecordRepo {
	return influencer.NewAuditRecordRepo(db, baseLog)
}
