package influencer

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/Jrogbaaa/Project-X-sub001/internal/domain/influencer"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/dbctx"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/logger"
)

// AuditRecordRepo is append-only.
type AuditRecordRepo interface {
	Create(dbc dbctx.Context, rec *types.AuditRecord) error
	ListBySearchRun(dbc dbctx.Context, searchRunID uuid.UUID) ([]*types.AuditRecord, error)
}

type auditRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAuditRecordRepo(db *gorm.DB, baseLog *logger.Logger) AuditRecordRepo {
	return &auditRecordRepo{
		db:  db,
		log: baseLog.With("repo", "AuditRecordRepo"),
	}
}

func (r *auditRecordRepo) Create(dbc dbctx.Context, rec *types.AuditRecord) error {
	return dbc.Conn(r.db).Create(rec).Error
}

func (r *auditRecordRepo) ListBySearchRun(dbc dbctx.Context, searchRunID uuid.UUID) ([]*types.AuditRecord, error) {
	var out []*types.AuditRecord
	if searchRunID == uuid.Nil {
		return out, nil
	}
	err := dbc.Conn(r.db).
		Where("search_run_id = ?", searchRunID).
		Order("created_at ASC, endpoint ASC, attempt ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
