package influencer

import (
	"strings"
	"time"

	"gorm.io/gorm"

	types "github.com/Jrogbaaa/Project-X-sub001/internal/domain/influencer"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/dbctx"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/logger"
)

type WeightPresetRepo interface {
	List(dbc dbctx.Context) ([]*types.WeightPreset, error)
	GetByName(dbc dbctx.Context, name string) (*types.WeightPreset, error)
	GetDefault(dbc dbctx.Context) (*types.WeightPreset, error)
	// Save creates or replaces the named preset. A preset saved as default
	// clears the flag on every other preset.
	Save(dbc dbctx.Context, p *types.WeightPreset) (*types.WeightPreset, error)
	// Delete refuses system presets with types.ErrProtectedPreset. It reports
	// whether a row was removed.
	Delete(dbc dbctx.Context, name string) (bool, error)
}

type weightPresetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWeightPresetRepo(db *gorm.DB, baseLog *logger.Logger) WeightPresetRepo {
	return &weightPresetRepo{
		db:  db,
		log: baseLog.With("repo", "WeightPresetRepo"),
	}
}

func normalizePresetName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (r *weightPresetRepo) List(dbc dbctx.Context) ([]*types.WeightPreset, error) {
	var out []*types.WeightPreset
	if err := dbc.Conn(r.db).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func getPreset(tx *gorm.DB, name string) (*types.WeightPreset, error) {
	var p types.WeightPreset
	if err := tx.Where("name = ?", normalizePresetName(name)).Limit(1).Find(&p).Error; err != nil {
		return nil, err
	}
	if p.Name == "" {
		return nil, nil
	}
	return &p, nil
}

func (r *weightPresetRepo) GetByName(dbc dbctx.Context, name string) (*types.WeightPreset, error) {
	return getPreset(dbc.Conn(r.db), name)
}

func (r *weightPresetRepo) GetDefault(dbc dbctx.Context) (*types.WeightPreset, error) {
	var p types.WeightPreset
	if err := dbc.Conn(r.db).Where("is_default = ?", true).Order("updated_at DESC").Limit(1).Find(&p).Error; err != nil {
		return nil, err
	}
	if p.Name == "" {
		return nil, nil
	}
	return &p, nil
}

func (r *weightPresetRepo) Save(dbc dbctx.Context, p *types.WeightPreset) (*types.WeightPreset, error) {
	if err := p.Weights.Validate(); err != nil {
		return nil, err
	}
	p.Name = normalizePresetName(p.Name)

	var saved *types.WeightPreset
	err := dbc.Conn(r.db).Transaction(func(tx *gorm.DB) error {
		if p.IsDefault {
			if err := tx.Model(&types.WeightPreset{}).
				Where("is_default = ? AND name <> ?", true, p.Name).
				Updates(map[string]interface{}{"is_default": false, "updated_at": time.Now()}).Error; err != nil {
				return err
			}
		}
		existing, err := getPreset(tx, p.Name)
		if err != nil {
			return err
		}
		if existing == nil {
			if err := tx.Create(p).Error; err != nil {
				return err
			}
		} else {
			updates := map[string]interface{}{
				"description":      p.Description,
				"w_credibility":    p.Weights.Credibility,
				"w_engagement":     p.Weights.Engagement,
				"w_audience_match": p.Weights.AudienceMatch,
				"w_growth":         p.Weights.Growth,
				"w_geography":      p.Weights.Geography,
				"w_brand_affinity": p.Weights.BrandAffinity,
				"w_creative_fit":   p.Weights.CreativeFit,
				"w_niche_match":    p.Weights.NicheMatch,
				"is_default":       p.IsDefault,
				"is_system":        p.IsSystem || existing.IsSystem,
				"updated_at":       time.Now(),
			}
			if err := tx.Model(&types.WeightPreset{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
				return err
			}
		}
		saved, err = getPreset(tx, p.Name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (r *weightPresetRepo) Delete(dbc dbctx.Context, name string) (bool, error) {
	removed := false
	err := dbc.Conn(r.db).Transaction(func(tx *gorm.DB) error {
		existing, err := getPreset(tx, name)
		if err != nil || existing == nil {
			return err
		}
		if existing.IsSystem {
			return types.ErrProtectedPreset
		}
		res := tx.Where("id = ?", existing.ID).Delete(&types.WeightPreset{})
		removed = res.RowsAffected > 0
		return res.Error
	})
	return removed, err
}
