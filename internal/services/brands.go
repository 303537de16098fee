package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"

	"github.com/Jrogbaaa/Project-X-sub001/internal/data/repos"
	types "github.com/Jrogbaaa/Project-X-sub001/internal/domain/influencer"
	"github.com/Jrogbaaa/Project-X-sub001/internal/normalization"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/dbctx"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/logger"
	"github.com/Jrogbaaa/Project-X-sub001/internal/search/searcherr"
)

// BrandInput is one knowledge-base row as supplied by an import.
type BrandInput struct {
	Name     string   `json:"name" yaml:"name"`
	Category string   `json:"category" yaml:"category"`
	Related  []string `json:"related" yaml:"related"`
	Aliases  []string `json:"aliases" yaml:"aliases"`
}

type ImportResult struct {
	Received   int `json:"received"`
	Stored     int `json:"stored"`
	Duplicates int `json:"duplicates"`
	Skipped    int `json:"skipped"`
}

type BrandService interface {
	// Import stores entries deduplicated by normalized key. Rows sharing a key
	// are merged: the first name and category win, related and aliases union.
	Import(ctx context.Context, in []BrandInput) (*ImportResult, error)
	List(ctx context.Context) ([]*types.BrandEntry, error)
	// AffinitySet returns the brand's key followed by its related keys.
	AffinitySet(ctx context.Context, brandName string) ([]string, error)
	// Matcher returns a lookup from compact brand and alias keys to the brand key.
	Matcher(ctx context.Context) (BrandMatcher, error)
	SeedFile(ctx context.Context, path string) (*ImportResult, error)
}

type brandService struct {
	log  *logger.Logger
	repo repos.BrandEntryRepo
}

func NewBrandService(log *logger.Logger, repo repos.BrandEntryRepo) BrandService {
	return &brandService{
		log:  log.With("service", "BrandService"),
		repo: repo,
	}
}

// DecodeBrandInputs reads a JSON array, or YAML (a list, or a "brands:" map)
// when the body is not JSON.
func DecodeBrandInputs(body []byte) ([]BrandInput, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errors.New("empty brand import")
	}
	if trimmed[0] == '[' {
		var out []BrandInput
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, fmt.Errorf("decode brand json: %w", err)
		}
		return out, nil
	}
	var list []BrandInput
	if err := yaml.Unmarshal(trimmed, &list); err == nil {
		return list, nil
	}
	var doc struct {
		Brands []BrandInput `yaml:"brands"`
	}
	if err := yaml.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("decode brand yaml: %w", err)
	}
	return doc.Brands, nil
}

func (s *brandService) Import(ctx context.Context, in []BrandInput) (*ImportResult, error) {
	res := &ImportResult{Received: len(in)}
	byKey := make(map[string]*types.BrandEntry, len(in))
	order := make([]string, 0, len(in))
	for _, b := range in {
		key := normalization.BrandKey(b.Name)
		if key == "" {
			res.Skipped++
			continue
		}
		related := normalization.BrandKeys(b.Related)
		aliases := normalization.BrandKeys(b.Aliases)
		if e, dup := byKey[key]; dup {
			res.Duplicates++
			if e.Category == "" {
				e.Category = strings.TrimSpace(b.Category)
			}
			e.Related = datatypes.NewJSONType(union(e.Related.Data(), related, key))
			e.Aliases = datatypes.NewJSONType(union(e.Aliases.Data(), aliases, key))
			continue
		}
		byKey[key] = &types.BrandEntry{
			Name:          strings.TrimSpace(b.Name),
			NormalizedKey: key,
			Category:      strings.TrimSpace(b.Category),
			Related:       datatypes.NewJSONType(union(nil, related, key)),
			Aliases:       datatypes.NewJSONType(union(nil, aliases, key)),
		}
		order = append(order, key)
	}

	entries := make([]*types.BrandEntry, 0, len(order))
	for _, k := range order {
		entries = append(entries, byKey[k])
	}
	n, err := s.repo.Upsert(dbctx.Context{Ctx: ctx}, entries)
	if err != nil {
		return nil, searcherr.Persistence("brands.Import", err)
	}
	res.Stored = n
	s.log.Info("Brand import finished", "received", res.Received, "stored", res.Stored, "duplicates", res.Duplicates, "skipped", res.Skipped)
	return res, nil
}

// union appends the keys of add missing from base, never including self.
func union(base, add []string, self string) []string {
	out := make([]string, 0, len(base)+len(add))
	seen := map[string]struct{}{self: {}}
	for _, list := range [][]string{base, add} {
		for _, k := range list {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	return out
}

func (s *brandService) List(ctx context.Context) ([]*types.BrandEntry, error) {
	return s.repo.List(dbctx.Context{Ctx: ctx})
}

func (s *brandService) AffinitySet(ctx context.Context, brandName string) ([]string, error) {
	key := normalization.BrandKey(brandName)
	if key == "" {
		return nil, nil
	}
	e, err := s.repo.GetByKey(dbctx.Context{Ctx: ctx}, key)
	if err != nil {
		return nil, err
	}
	out := []string{key}
	if e != nil {
		out = append(out, union(nil, e.Related.Data(), key)...)
	}
	return out, nil
}

// BrandMatcher resolves free-form tags (hashtags, mentions) to brand keys.
type BrandMatcher map[string]string

// Match returns the brand key for tag, or "".
func (m BrandMatcher) Match(tag string) string {
	return m[normalization.CompactKey(tag)]
}

func (s *brandService) Matcher(ctx context.Context) (BrandMatcher, error) {
	entries, err := s.repo.List(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, err
	}
	m := make(BrandMatcher, len(entries)*2)
	for _, e := range entries {
		m[normalization.CompactKey(e.NormalizedKey)] = e.NormalizedKey
	}
	// aliases never shadow a brand's own key
	for _, e := range entries {
		for _, a := range e.Aliases.Data() {
			ck := normalization.CompactKey(a)
			if _, taken := m[ck]; !taken && ck != "" {
				m[ck] = e.NormalizedKey
			}
		}
	}
	return m, nil
}

func (s *brandService) SeedFile(ctx context.Context, path string) (*ImportResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read brands file: %w", err)
	}
	in, err := DecodeBrandInputs(raw)
	if err != nil {
		return nil, err
	}
	return s.Import(ctx, in)
}

func sortedKeys(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
