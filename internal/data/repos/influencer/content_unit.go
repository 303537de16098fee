package influencer

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/Jrogbaaa/Project-X-sub001/internal/domain/influencer"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/dbctx"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/logger"
)

type ContentUnitRepo interface {
	ReplaceForProfile(dbc dbctx.Context, profileID uuid.UUID, units []types.ContentUnit) error
	ListByProfile(dbc dbctx.Context, profileID uuid.UUID) ([]*types.ContentUnit, error)
}

type contentUnitRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContentUnitRepo(db *gorm.DB, baseLog *logger.Logger) ContentUnitRepo {
	return &contentUnitRepo{
		db:  db,
		log: baseLog.With("repo", "ContentUnitRepo"),
	}
}

// ReplaceForProfile swaps the profile's posts for units in one transaction.
func (r *contentUnitRepo) ReplaceForProfile(dbc dbctx.Context, profileID uuid.UUID, units []types.ContentUnit) error {
	if profileID == uuid.Nil {
		return nil
	}
	return dbc.Conn(r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("profile_id = ?", profileID).Delete(&types.ContentUnit{}).Error; err != nil {
			return err
		}
		if len(units) == 0 {
			return nil
		}
		rows := make([]types.ContentUnit, 0, len(units))
		seen := make(map[string]struct{}, len(units))
		for _, u := range units {
			if _, dup := seen[u.ExternalID]; dup || u.ExternalID == "" {
				continue
			}
			seen[u.ExternalID] = struct{}{}
			u.ID = uuid.Nil
			u.ProfileID = profileID
			rows = append(rows, u)
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

func (r *contentUnitRepo) ListByProfile(dbc dbctx.Context, profileID uuid.UUID) ([]*types.ContentUnit, error) {
	var out []*types.ContentUnit
	if profileID == uuid.Nil {
		return out, nil
	}
	err := dbc.Conn(r.db).
		Where("profile_id = ?", profileID).
		Order("posted_at DESC, external_id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
