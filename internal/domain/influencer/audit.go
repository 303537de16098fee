package influencer

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	AuditStatusOK          = "ok"
	AuditStatusNotFound    = "not_found"
	AuditStatusRateLimited = "rate_limited"
	AuditStatusTransient   = "transient_error"
	AuditStatusFailed      = "failed"
)

// AuditRecord is an append-only row per external provider call attempt.
// SearchRunID is the id the owning search was (or would have been) stored
// under; a cancelled search leaves it pointing at no row.
type AuditRecord struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SearchRunID  *uuid.UUID     `gorm:"type:uuid;index" json:"search_run_id,omitempty"`
	Provider     string         `gorm:"column:provider;not null;index" json:"provider"`
	Endpoint     string         `gorm:"column:endpoint;not null;index" json:"endpoint"`
	Params       datatypes.JSON `gorm:"column:params" json:"params"`
	Attempt      int            `gorm:"column:attempt;not null" json:"attempt"`
	Status       string         `gorm:"column:status;not null;index" json:"status"`
	HTTPStatus   int            `gorm:"column:http_status" json:"http_status,omitempty"`
	LatencyMs    int64          `gorm:"column:latency_ms;not null" json:"latency_ms"`
	PayloadBytes int            `gorm:"column:payload_bytes;not null" json:"payload_bytes"`
	Error        string         `gorm:"column:error;type:text" json:"error,omitempty"`
	CreatedAt    time.Time      `gorm:"not null;index" json:"created_at"`
}

func (AuditRecord) TableName() string { return "audit_record" }

func (a *AuditRecord) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (a *AuditRecord) BeforeUpdate(tx *gorm.DB) error { return ErrImmutable }
func (a *AuditRecord) BeforeDelete(tx *gorm.DB) error { return ErrImmutable }
