package influencer

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/Jrogbaaa/Project-X-sub001/internal/domain/influencer"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/dbctx"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/logger"
)

type BrandEntryRepo interface {
	// Upsert inserts entries keyed by NormalizedKey; existing keys are refreshed.
	Upsert(dbc dbctx.Context, entries []*types.BrandEntry) (int, error)
	GetByKey(dbc dbctx.Context, key string) (*types.BrandEntry, error)
	List(dbc dbctx.Context) ([]*types.BrandEntry, error)
}

type brandEntryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBrandEntryRepo(db *gorm.DB, baseLog *logger.Logger) BrandEntryRepo {
	return &brandEntryRepo{
		db:  db,
		log: baseLog.With("repo", "BrandEntryRepo"),
	}
}

func (r *brandEntryRepo) Upsert(dbc dbctx.Context, entries []*types.BrandEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	res := dbc.Conn(r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "normalized_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "category", "related", "aliases", "updated_at"}),
	}).Create(&entries)
	if res.Error != nil {
		return 0, res.Error
	}
	return len(entries), nil
}

func (r *brandEntryRepo) GetByKey(dbc dbctx.Context, key string) (*types.BrandEntry, error) {
	var b types.BrandEntry
	err := dbc.Conn(r.db).Where("normalized_key = ?", key).Limit(1).Find(&b).Error
	if err != nil {
		return nil, err
	}
	if b.NormalizedKey == "" {
		return nil, nil
	}
	return &b, nil
}

func (r *brandEntryRepo) List(dbc dbctx.Context) ([]*types.BrandEntry, error) {
	var out []*types.BrandEntry
	if err := dbc.Conn(r.db).Order("normalized_key ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
