package influencer

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/Jrogbaaa/Project-X-sub001/internal/domain/influencer"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/dbctx"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/logger"
)

type SearchRunRepo interface {
	// Create inserts the run and its results atomically.
	Create(dbc dbctx.Context, run *types.SearchRun) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.SearchRun, error)
	ListRecent(dbc dbctx.Context, limit int) ([]*types.SearchRun, error)
}

type searchRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSearchRunRepo(db *gorm.DB, baseLog *logger.Logger) SearchRunRepo {
	return &searchRunRepo{
		db:  db,
		log: baseLog.With("repo", "SearchRunRepo"),
	}
}

func (r *searchRunRepo) Create(dbc dbctx.Context, run *types.SearchRun) error {
	if run == nil {
		return errors.New("nil search run")
	}
	return dbc.Conn(r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(run).Error; err != nil {
			return err
		}
		if len(run.Results) == 0 {
			return nil
		}
		for i := range run.Results {
			run.Results[i].SearchRunID = run.ID
		}
		return tx.Create(&run.Results).Error
	})
}

func (r *searchRunRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.SearchRun, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var run types.SearchRun
	err := dbc.Conn(r.db).
		Preload("Results", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id = ?", id).
		Limit(1).
		Find(&run).Error
	if err != nil {
		return nil, err
	}
	if run.ID == uuid.Nil {
		return nil, nil
	}
	return &run, nil
}

func (r *searchRunRepo) ListRecent(dbc dbctx.Context, limit int) ([]*types.SearchRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []*types.SearchRun
	err := dbc.Conn(r.db).
		Omit("rejections").
		Order("created_at DESC, id ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
