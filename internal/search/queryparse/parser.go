package queryparse

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	types "github.com/Jrogbaaa/Project-X-sub001/internal/domain/influencer"
	"github.com/Jrogbaaa/Project-X-sub001/internal/normalization"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/logger"
	"github.com/Jrogbaaa/Project-X-sub001/internal/search/searcherr"
)

const op = "queryparse.Parse"

// Extractor is the language-model capability: one prompt in, one JSON object out.
type Extractor interface {
	GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error)
}

// Store is the short-lived brief cache. Get returns (nil, nil) on a miss.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Defaults fill thresholds the brief leaves unstated. MinAudiencePct only
// applies once a target country is known.
type Defaults struct {
	MinAudiencePct float64
	MinCredibility float64
	TargetCount    int
	TargetCountry  string
	Platform       string
}

var ErrInvalidDefaults = errors.New("invalid query defaults")

func (d Defaults) validate() error {
	if d.TargetCount < 1 || d.TargetCount > types.MaxTargetCount {
		return fmt.Errorf("%w: target_count %d outside [1,%d]", ErrInvalidDefaults, d.TargetCount, types.MaxTargetCount)
	}
	if d.MinAudiencePct < 0 || d.MinAudiencePct > 100 {
		return fmt.Errorf("%w: min_audience_pct %v outside [0,100]", ErrInvalidDefaults, d.MinAudiencePct)
	}
	if d.MinCredibility < 0 || d.MinCredibility > 100 {
		return fmt.Errorf("%w: min_credibility %v outside [0,100]", ErrInvalidDefaults, d.MinCredibility)
	}
	if c := strings.ToUpper(strings.TrimSpace(d.TargetCountry)); c != "" && !isAlpha2(c) {
		return fmt.Errorf("%w: target_country %q is not an ISO alpha-2 code", ErrInvalidDefaults, d.TargetCountry)
	}
	return nil
}

type Config struct {
	Defaults Defaults
	// Timeout bounds a single extraction call.
	Timeout time.Duration
	// CacheTTL is how long identical briefs reuse a previous parse.
	CacheTTL time.Duration
}

type Parser struct {
	log   *logger.Logger
	llm   Extractor
	store Store
	cfg   Config
}

func New(log *logger.Logger, llm Extractor, store Store, cfg Config) *Parser {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 15 * time.Minute
	}
	if cfg.Defaults.TargetCount <= 0 {
		cfg.Defaults.TargetCount = 10
	}
	if strings.TrimSpace(cfg.Defaults.Platform) == "" {
		cfg.Defaults.Platform = types.DefaultPlatform
	}
	return &Parser{
		log:   log.With("component", "QueryParser"),
		llm:   llm,
		store: store,
		cfg:   cfg,
	}
}

// BriefHash fingerprints a brief after case and whitespace folding.
func BriefHash(brief string) string {
	folded := strings.Join(strings.Fields(strings.ToLower(brief)), " ")
	sum := sha256.Sum256([]byte(folded))
	return hex.EncodeToString(sum[:])
}

func cacheKey(hash string) string { return "query:" + hash }

// Parse turns a free-text brief into a validated StructuredQuery. The
// extraction is attempted once more with a stricter instruction when the
// first call errors, times out or yields output that does not validate.
func (p *Parser) Parse(ctx context.Context, brief string) (*types.StructuredQuery, error) {
	brief = strings.TrimSpace(brief)
	if brief == "" {
		return nil, searcherr.Parsef(op, "empty brief")
	}
	if p.llm == nil {
		return nil, searcherr.Parsef(op, "no extractor configured")
	}
	if err := p.cfg.Defaults.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	hash := BriefHash(brief)
	if q := p.cached(ctx, hash); q != nil {
		return q, nil
	}

	q, err := p.attempt(ctx, brief, false)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.log.Warn("Brief extraction failed, retrying with strict instruction", "error", err)
		q, err = p.attempt(ctx, brief, true)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, searcherr.Parse(op, err)
		}
	}
	p.remember(ctx, hash, q)
	return q, nil
}

func (p *Parser) attempt(ctx context.Context, brief string, strict bool) (*types.StructuredQuery, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	system := systemPrompt
	if strict {
		system += strictSuffix
	}
	raw, err := p.llm.GenerateJSON(callCtx, system, brief, schemaName, querySchema())
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	ext, err := decodeExtraction(raw)
	if err != nil {
		return nil, err
	}
	q, err := ext.toQuery(p.cfg.Defaults)
	if err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

func (p *Parser) cached(ctx context.Context, hash string) *types.StructuredQuery {
	if p.store == nil {
		return nil
	}
	raw, err := p.store.Get(ctx, cacheKey(hash))
	if err != nil {
		p.log.Warn("Query cache read failed", "error", err)
		return nil
	}
	if len(raw) == 0 {
		return nil
	}
	var q types.StructuredQuery
	if err := json.Unmarshal(raw, &q); err != nil || q.Validate() != nil {
		p.log.Warn("Discarding unusable cached query", "brief_hash", hash)
		return nil
	}
	p.log.Debug("Query cache hit", "brief_hash", hash)
	return &q
}

func (p *Parser) remember(ctx context.Context, hash string, q *types.StructuredQuery) {
	if p.store == nil {
		return
	}
	raw, err := json.Marshal(q)
	if err != nil {
		return
	}
	if err := p.store.Set(ctx, cacheKey(hash), raw, p.cfg.CacheTTL); err != nil {
		p.log.Warn("Query cache write failed", "error", err)
	}
}

type extraction struct {
	BrandName       *string  `json:"brand_name"`
	Niche           *string  `json:"niche"`
	Topics          []string `json:"topics"`
	Platform        *string  `json:"platform"`
	Gender          *string  `json:"gender"`
	TargetAgeRanges []string `json:"target_age_ranges"`
	TargetCount     *float64 `json:"target_count"`
	TargetCountry   *string  `json:"target_country"`
	MinAudiencePct  *float64 `json:"min_audience_pct"`
	MinCredibility  *float64 `json:"min_credibility"`
	MinEngagement   *float64 `json:"min_engagement"`
	MinGrowth       *float64 `json:"min_growth"`
	ExcludeNiches   []string `json:"exclude_niches"`
	ExcludeBrands   []string `json:"exclude_brands"`
	CreativeConcept *string  `json:"creative_concept"`
	Tone            *string  `json:"tone"`
}

var errMalformed = errors.New("malformed extraction")

func decodeExtraction(raw map[string]any) (*extraction, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: empty object", errMalformed)
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformed, err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	var ext extraction
	if err := dec.Decode(&ext); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformed, err)
	}
	return &ext, nil
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

func (e *extraction) toQuery(d Defaults) (*types.StructuredQuery, error) {
	gender, err := types.ParseGender(str(e.Gender))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformed, err)
	}

	count := d.TargetCount
	if e.TargetCount != nil {
		v := *e.TargetCount
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("%w: target_count %v is not an integer", errMalformed, v)
		}
		count = int(v)
	}

	country := strings.ToUpper(str(e.TargetCountry))
	if country == "" {
		country = strings.ToUpper(strings.TrimSpace(d.TargetCountry))
	}
	if country != "" && !isAlpha2(country) {
		return nil, fmt.Errorf("%w: target_country %q is not an ISO alpha-2 code", errMalformed, country)
	}

	ages := make([]string, 0, len(e.TargetAgeRanges))
	for _, a := range e.TargetAgeRanges {
		a = strings.TrimSpace(a)
		if _, ok := ageBuckets[a]; !ok {
			return nil, fmt.Errorf("%w: unknown age range %q", errMalformed, a)
		}
		ages = append(ages, a)
	}

	platform := types.NormalizePlatform(str(e.Platform))
	if str(e.Platform) == "" {
		platform = types.NormalizePlatform(d.Platform)
	}

	audiencePct := orDefault(e.MinAudiencePct, d.MinAudiencePct)
	if e.MinAudiencePct == nil && country == "" {
		audiencePct = 0
	}

	q := &types.StructuredQuery{
		BrandName:       str(e.BrandName),
		Niche:           normalization.ParseInputString(str(e.Niche)),
		Topics:          normalization.ParseInputList(e.Topics),
		Platform:        platform,
		Gender:          gender,
		TargetAgeRanges: ages,
		TargetCount:     count,
		TargetCountry:   country,
		MinAudiencePct:  audiencePct,
		MinCredibility:  orDefault(e.MinCredibility, d.MinCredibility),
		MinEngagement:   e.MinEngagement,
		MinGrowth:       e.MinGrowth,
		ExcludeNiches:   normalization.ParseInputList(e.ExcludeNiches),
		ExcludeBrands:   normalization.BrandKeys(e.ExcludeBrands),
		CreativeConcept: str(e.CreativeConcept),
		Tone:            str(e.Tone),
	}
	return q, nil
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func isAlpha2(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
