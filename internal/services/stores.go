package services

import (
	"context"

	"github.com/Jrogbaaa/Project-X-sub001/internal/data/repos"
	types "github.com/Jrogbaaa/Project-X-sub001/internal/domain/influencer"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/dbctx"
	"github.com/Jrogbaaa/Project-X-sub001/internal/search/candidatecache"
	"github.com/Jrogbaaa/Project-X-sub001/internal/search/discovery"
)

// ProfileStore exposes the profile repo to the candidate cache.
type ProfileStore struct {
	repo repos.CandidateProfileRepo
}

var _ candidatecache.Store = (*ProfileStore)(nil)

func NewProfileStore(repo repos.CandidateProfileRepo) *ProfileStore {
	return &ProfileStore{repo: repo}
}

func (s *ProfileStore) GetByKey(ctx context.Context, platform, username string) (*types.CandidateProfile, error) {
	return s.repo.GetByKey(dbctx.Context{Ctx: ctx}, platform, username)
}

func (s *ProfileStore) Upsert(ctx context.Context, p *types.CandidateProfile) (*types.CandidateProfile, error) {
	return s.repo.Upsert(dbctx.Context{Ctx: ctx}, p)
}

func (s *ProfileStore) MarkInactive(ctx context.Context, platform, username string) error {
	return s.repo.MarkInactive(dbctx.Context{Ctx: ctx}, platform, username)
}

// AuditSink appends discovery audit records to the audit table.
type AuditSink struct {
	repo repos.AuditRecordRepo
}

var _ discovery.AuditSink = (*AuditSink)(nil)

func NewAuditSink(repo repos.AuditRecordRepo) *AuditSink {
	return &AuditSink{repo: repo}
}

func (s *AuditSink) Record(ctx context.Context, rec *types.AuditRecord) error {
	return s.repo.Create(dbctx.Context{Ctx: ctx}, rec)
}
