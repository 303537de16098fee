package influencer

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/Jrogbaaa/Project-X-sub001/internal/domain/influencer"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/dbctx"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/logger"
)

type CandidateProfileRepo interface {
	GetByKey(dbc dbctx.Context, platform, username string) (*types.CandidateProfile, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.CandidateProfile, error)
	Upsert(dbc dbctx.Context, p *types.CandidateProfile) (*types.CandidateProfile, error)
	MarkInactive(dbc dbctx.Context, platform, username string) error
	ListContentStale(dbc dbctx.Context, refreshedBefore time.Time, limit int) ([]*types.CandidateProfile, error)
	UpdateSignals(dbc dbctx.Context, id uuid.UUID, s types.ProfileSignals, refreshedAt time.Time) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type candidateProfileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCandidateProfileRepo(db *gorm.DB, baseLog *logger.Logger) CandidateProfileRepo {
	return &candidateProfileRepo{
		db:  db,
		log: baseLog.With("repo", "CandidateProfileRepo"),
	}
}

func (r *candidateProfileRepo) GetByKey(dbc dbctx.Context, platform, username string) (*types.CandidateProfile, error) {
	return getByKey(dbc.Conn(r.db), platform, username)
}

func getByKey(tx *gorm.DB, platform, username string) (*types.CandidateProfile, error) {
	var p types.CandidateProfile
	err := tx.
		Where("platform = ? AND username = ?", types.NormalizePlatform(platform), types.NormalizeUsername(username)).
		Limit(1).
		Find(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		return nil, nil
	}
	return &p, nil
}

func (r *candidateProfileRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.CandidateProfile, error) {
	var out []*types.CandidateProfile
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.Conn(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// upsertColumns are overwritten when the (platform, username) row exists.
var upsertColumns = []string{
	"display_name", "bio", "avatar_url", "country",
	"follower_count", "credibility_score", "engagement_rate", "growth_rate",
	"audience_geo", "audience_gender", "audience_age",
	"detected_niche", "niche_confidence", "brand_mentions", "content_themes", "sponsored_ratio",
	"tier", "extra", "profile_active", "cached_at", "cache_expires_at", "updated_at",
}

// Upsert writes p keyed by (platform, username), last write wins. Signals the
// provider left empty keep the values derived by enrichment.
func (r *candidateProfileRepo) Upsert(dbc dbctx.Context, p *types.CandidateProfile) (*types.CandidateProfile, error) {
	if p == nil {
		return nil, errors.New("nil profile")
	}
	p.Platform = types.NormalizePlatform(p.Platform)
	p.Username = types.NormalizeUsername(p.Username)
	if p.Username == "" {
		return nil, errors.New("profile username required")
	}
	p.Tier = types.TierFor(p.FollowerCount)

	var saved *types.CandidateProfile
	err := dbc.Conn(r.db).Transaction(func(tx *gorm.DB) error {
		existing, err := getByKey(tx, p.Platform, p.Username)
		if err != nil {
			return err
		}
		row := *p
		// the conflict target is (platform, username); the stored id survives
		row.ID = uuid.Nil
		if existing != nil {
			row.CreatedAt = existing.CreatedAt
			row.ContentRefreshedAt = existing.ContentRefreshedAt
			keepDerivedSignals(&row, existing)
		}
		row.UpdatedAt = time.Now()
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "platform"}, {Name: "username"}},
			DoUpdates: clause.AssignmentColumns(upsertColumns),
		}).Create(&row).Error; err != nil {
			return err
		}
		saved, err = getByKey(tx, p.Platform, p.Username)
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func keepDerivedSignals(row, existing *types.CandidateProfile) {
	if row.DetectedNiche == "" {
		row.DetectedNiche = existing.DetectedNiche
		row.NicheConfidence = existing.NicheConfidence
	}
	if len(row.Brands()) == 0 {
		row.BrandMentions = existing.BrandMentions
	}
	if len(row.Themes()) == 0 {
		row.ContentThemes = existing.ContentThemes
	}
	if row.SponsoredRatio == 0 {
		row.SponsoredRatio = existing.SponsoredRatio
	}
}

func (r *candidateProfileRepo) MarkInactive(dbc dbctx.Context, platform, username string) error {
	return dbc.Conn(r.db).
		Model(&types.CandidateProfile{}).
		Where("platform = ? AND username = ?", types.NormalizePlatform(platform), types.NormalizeUsername(username)).
		Updates(map[string]interface{}{
			"profile_active": false,
			"updated_at":     time.Now(),
		}).Error
}

// ListContentStale returns active profiles whose content was never pulled or
// was last pulled before refreshedBefore, oldest first.
func (r *candidateProfileRepo) ListContentStale(dbc dbctx.Context, refreshedBefore time.Time, limit int) ([]*types.CandidateProfile, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []*types.CandidateProfile
	err := dbc.Conn(r.db).
		Where("profile_active = ?", true).
		Where("content_refreshed_at IS NULL OR content_refreshed_at < ?", refreshedBefore).
		Order("content_refreshed_at IS NOT NULL, content_refreshed_at ASC, id ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *candidateProfileRepo) UpdateSignals(dbc dbctx.Context, id uuid.UUID, s types.ProfileSignals, refreshedAt time.Time) error {
	if id == uuid.Nil {
		return nil
	}
	brands := datatypes.NewJSONType(s.BrandMentions)
	themes := datatypes.NewJSONType(s.ContentThemes)
	return dbc.Conn(r.db).
		Model(&types.CandidateProfile{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"detected_niche":       s.DetectedNiche,
			"niche_confidence":     s.NicheConfidence,
			"brand_mentions":       brands,
			"content_themes":       themes,
			"sponsored_ratio":      s.SponsoredRatio,
			"content_refreshed_at": refreshedAt,
			"updated_at":           time.Now(),
		}).Error
}

// Delete removes a profile and the content units it owns in one transaction.
// Search history keeps its snapshots.
func (r *candidateProfileRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	return dbc.Conn(r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("profile_id = ?", id).Delete(&types.ContentUnit{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&types.CandidateProfile{}).Error
	})
}
