package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Jrogbaaa/Project-X-sub001/internal/data/repos"
	types "github.com/Jrogbaaa/Project-X-sub001/internal/domain/influencer"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/dbctx"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/logger"
	"github.com/Jrogbaaa/Project-X-sub001/internal/search/searcherr"
)

var ErrPresetNotFound = errors.New("weight preset not found")

type WeightService interface {
	List(ctx context.Context) ([]*types.WeightPreset, error)
	// Resolve picks the weights for a search: an explicit override, else the
	// named preset, else the stored default, else the built-in balanced set.
	Resolve(ctx context.Context, name string, override *types.RankingWeights) (string, types.RankingWeights, error)
	Save(ctx context.Context, p *types.WeightPreset) (*types.WeightPreset, error)
	Delete(ctx context.Context, name string) error
	// EnsureSystem seeds the protected balanced preset.
	EnsureSystem(ctx context.Context) error
	SeedFile(ctx context.Context, path string) (int, error)
}

type weightService struct {
	log  *logger.Logger
	repo repos.WeightPresetRepo
}

func NewWeightService(log *logger.Logger, repo repos.WeightPresetRepo) WeightService {
	return &weightService{
		log:  log.With("service", "WeightService"),
		repo: repo,
	}
}

func (s *weightService) List(ctx context.Context) ([]*types.WeightPreset, error) {
	return s.repo.List(dbctx.Context{Ctx: ctx})
}

func (s *weightService) Resolve(ctx context.Context, name string, override *types.RankingWeights) (string, types.RankingWeights, error) {
	const op = "weights.Resolve"
	if override != nil {
		w, err := types.NewRankingWeights(*override)
		if err != nil {
			return "", types.RankingWeights{}, searcherr.Validation(op, err)
		}
		return "custom", w, nil
	}

	dbc := dbctx.Context{Ctx: ctx}
	if name = strings.TrimSpace(name); name != "" {
		p, err := s.repo.GetByName(dbc, name)
		if err != nil {
			return "", types.RankingWeights{}, searcherr.Persistence(op, err)
		}
		if p == nil {
			return "", types.RankingWeights{}, searcherr.Validation(op, fmt.Errorf("%w: %q", ErrPresetNotFound, name))
		}
		return p.Name, p.Weights, s.validate(op, p)
	}

	p, err := s.repo.GetDefault(dbc)
	if err != nil {
		return "", types.RankingWeights{}, searcherr.Persistence(op, err)
	}
	if p != nil {
		return p.Name, p.Weights, s.validate(op, p)
	}
	return types.SystemPresetName, types.DefaultWeights(), nil
}

func (s *weightService) validate(op string, p *types.WeightPreset) error {
	if err := p.Weights.Validate(); err != nil {
		return searcherr.Validation(op, fmt.Errorf("preset %q: %w", p.Name, err))
	}
	return nil
}

func (s *weightService) Save(ctx context.Context, p *types.WeightPreset) (*types.WeightPreset, error) {
	const op = "weights.Save"
	if p == nil || strings.TrimSpace(p.Name) == "" {
		return nil, searcherr.Validation(op, errors.New("preset name required"))
	}
	if err := p.Weights.Validate(); err != nil {
		return nil, searcherr.Validation(op, err)
	}
	existing, err := s.repo.GetByName(dbctx.Context{Ctx: ctx}, p.Name)
	if err != nil {
		return nil, searcherr.Persistence(op, err)
	}
	if existing != nil && existing.IsSystem && !p.IsSystem {
		return nil, types.ErrProtectedPreset
	}
	saved, err := s.repo.Save(dbctx.Context{Ctx: ctx}, p)
	if err != nil {
		return nil, searcherr.Persistence(op, err)
	}
	s.log.Info("Weight preset saved", "name", saved.Name, "is_default", saved.IsDefault)
	return saved, nil
}

func (s *weightService) Delete(ctx context.Context, name string) error {
	removed, err := s.repo.Delete(dbctx.Context{Ctx: ctx}, name)
	if err != nil {
		if errors.Is(err, types.ErrProtectedPreset) {
			return err
		}
		return searcherr.Persistence("weights.Delete", err)
	}
	if !removed {
		return fmt.Errorf("%w: %q", ErrPresetNotFound, name)
	}
	s.log.Info("Weight preset deleted", "name", name)
	return nil
}

func (s *weightService) EnsureSystem(ctx context.Context) error {
	dbc := dbctx.Context{Ctx: ctx}
	existing, err := s.repo.GetByName(dbc, types.SystemPresetName)
	if err != nil {
		return err
	}
	if existing != nil && existing.IsSystem {
		return nil
	}
	def, err := s.repo.GetDefault(dbc)
	if err != nil {
		return err
	}
	_, err = s.repo.Save(dbc, &types.WeightPreset{
		Name:        types.SystemPresetName,
		Description: "Built-in balanced weighting",
		Weights:     types.DefaultWeights(),
		IsDefault:   def == nil,
		IsSystem:    true,
	})
	if err != nil {
		return err
	}
	s.log.Info("Seeded system weight preset", "name", types.SystemPresetName)
	return nil
}

type presetFile struct {
	Presets []struct {
		Name        string               `yaml:"name"`
		Description string               `yaml:"description"`
		Default     bool                 `yaml:"default"`
		Weights     types.RankingWeights `yaml:"weights"`
	} `yaml:"presets"`
}

func (s *weightService) SeedFile(ctx context.Context, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read presets file: %w", err)
	}
	var f presetFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return 0, fmt.Errorf("parse presets file: %w", err)
	}
	n := 0
	for _, p := range f.Presets {
		if strings.EqualFold(strings.TrimSpace(p.Name), types.SystemPresetName) {
			continue
		}
		_, err := s.Save(ctx, &types.WeightPreset{
			Name:        p.Name,
			Description: p.Description,
			Weights:     p.Weights,
			IsDefault:   p.Default,
		})
		if err != nil {
			return n, fmt.Errorf("preset %q: %w", p.Name, err)
		}
		n++
	}
	return n, nil
}
