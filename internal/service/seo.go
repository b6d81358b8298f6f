package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/timmy/vendorseo/internal/domain"
	"github.com/timmy/vendorseo/internal/logger"
	"github.com/timmy/vendorseo/internal/prompts"
	"github.com/timmy/vendorseo/internal/repository"
	"github.com/timmy/vendorseo/internal/storage"
	"github.com/timmy/vendorseo/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// LocationResolver geocodes a city. nil, nil means no match.
type LocationResolver interface {
	Resolve(ctx context.Context, city string) (*domain.EnrichedLocation, error)
}

// CompetitorSource finds competitors near a point. It never fails.
type CompetitorSource interface {
	Find(ctx context.Context, city, niche string, lat, lon float64) *domain.CompetitorSet
}

// SeedExpander expands seed terms into autosuggest phrases.
type SeedExpander interface {
	ExpandSeeds(ctx context.Context, terms []string) []domain.AutosuggestSeed
}

// KeywordGenerator produces keywords from a prompt pair.
type KeywordGenerator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (*KeywordResult, error)
}

// RunArchiver stores full run reports and reads them back. Optional.
type RunArchiver interface {
	Archive(ctx context.Context, vendorID string, report interface{}) (string, error)
	Load(ctx context.Context, vendorID, key string) ([]byte, error)
}

// SEORequest is the keyword generation input.
type SEORequest struct {
	VendorID      string   `json:"vendorId" validate:"required"`
	BusinessType  string   `json:"businessType" validate:"required"`
	BusinessModel string   `json:"businessModel" validate:"required"`
	Niche         string   `json:"niche" validate:"required"`
	Location      string   `json:"location" validate:"required"`
	NearestAreas  []string `json:"nearestAreas"`
	TargetGender  string   `json:"targetGender"`
	PriceTier     string   `json:"priceTier"`
	StyleTags     []string `json:"styleTags"`
}

// SEOResponse is the keyword generation output.
type SEOResponse struct {
	VendorID string   `json:"vendorId"`
	Keywords []string `json:"keywords"`
}

// CompetitorReport backs the competitor debug endpoint.
type CompetitorReport struct {
	City        string                   `json:"city"`
	Niche       string                   `json:"niche"`
	Location    *domain.EnrichedLocation `json:"location"`
	Competitors []domain.Competitor      `json:"competitors"`
	Tier        domain.CompetitorTier    `json:"tier"`
}

// RunReport is what gets archived for each successful generation.
type RunReport struct {
	Request     *SEORequest              `json:"request"`
	Location    *domain.EnrichedLocation `json:"location"`
	Competitors *domain.CompetitorSet    `json:"competitors,omitempty"`
	Seeds       []domain.AutosuggestSeed `json:"seeds"`
	Prompt      string                   `json:"prompt"`
	Raw         string                   `json:"raw"`
	ParseMode   ParseMode                `json:"parseMode"`
	Model       string                   `json:"model"`
	Keywords    []string                 `json:"keywords"`
	GeneratedAt time.Time                `json:"generatedAt"`
}

// SEODeps wires SEOService. Archive and Metrics may be nil.
type SEODeps struct {
	Geocoder    LocationResolver
	Competitors CompetitorSource
	Seeds       SeedExpander
	Gateway     KeywordGenerator
	Keywords    repository.KeywordStore
	Audit       repository.AuditLog
	Archive     RunArchiver
	Metrics     *telemetry.Metrics
}

// SEOService orchestrates enrichment, prompting, generation and persistence.
type SEOService struct {
	geocoder    LocationResolver
	competitors CompetitorSource
	seeds       SeedExpander
	gateway     KeywordGenerator
	keywords    repository.KeywordStore
	audit       repository.AuditLog
	archive     RunArchiver
	metrics     *telemetry.Metrics
	validate    *validator.Validate
	now         func() time.Time
}

func NewSEOService(deps SEODeps) *SEOService {
	return &SEOService{
		geocoder:    deps.Geocoder,
		competitors: deps.Competitors,
		seeds:       deps.Seeds,
		gateway:     deps.Gateway,
		keywords:    deps.Keywords,
		audit:       deps.Audit,
		archive:     deps.Archive,
		metrics:     deps.Metrics,
		validate:    newValidator(),
		now:         time.Now,
	}
}

// Generate runs the full pipeline for one vendor.
func (s *SEOService) Generate(ctx context.Context, req *SEORequest) (*SEOResponse, error) {
	if req == nil {
		req = &SEORequest{}
	}
	normalizeRequest(req)
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldVendorID:  req.VendorID,
		logger.FieldComponent: "seo",
	})
	ctx, span := telemetry.StartSpan(ctx, "seo.generate")
	defer span.End()
	span.SetAttributes(attribute.String("vendor.id", req.VendorID), attribute.String("vendor.location", req.Location))

	start := time.Now()

	loc, err := s.geocoder.Resolve(ctx, req.Location)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Error("Location lookup failed")
		return nil, err
	}

	var (
		set   *domain.CompetitorSet
		seeds []domain.AutosuggestSeed
	)
	if loc != nil {
		var g errgroup.Group
		g.Go(func() error {
			set = s.competitors.Find(ctx, loc.City, req.Niche, loc.Lat, loc.Lon)
			return nil
		})
		g.Go(func() error {
			seeds = s.seeds.ExpandSeeds(ctx, seedTerms(req, loc.City))
			return nil
		})
		_ = g.Wait()

		if set != nil && len(set.Neighborhoods) > 0 {
			loc.Neighborhoods = set.Neighborhoods
		}
	}

	userPrompt := prompts.BuildSEOUserPrompt(prompts.SEOPromptInput{
		BusinessType:  req.BusinessType,
		BusinessModel: req.BusinessModel,
		Niche:         req.Niche,
		Location:      req.Location,
		NearestAreas:  req.NearestAreas,
		Competitors:   set.Names(),
		Autosuggest:   suggestionPhrases(seeds),
		TargetGender:  req.TargetGender,
		PriceTier:     req.PriceTier,
		StyleTags:     req.StyleTags,
		Now:           s.now(),
	})

	inputs := domain.JSONMap{"vendorId": req.VendorID, "niche": req.Niche, "location": req.Location}

	result, err := s.gateway.Generate(ctx, prompts.SEOSystemPrompt, userPrompt)
	if err != nil {
		s.appendAudit(ctx, req.VendorID, domain.ActionGenerateFailed, inputs, domain.JSONMap{"error": err.Error()})
		logger.FromContext(ctx).WithError(err).Error("Keyword generation failed")
		return nil, err
	}

	s.appendAudit(ctx, req.VendorID, domain.ActionDebugAIOutput, inputs, domain.JSONMap{
		"rawResult": result.Raw,
		"parseMode": string(result.Mode),
		"model":     result.Model,
	})

	keywords := cleanList(result.Keywords)

	rec := &domain.VendorSEOKeywords{
		VendorID:      req.VendorID,
		BusinessType:  req.BusinessType,
		BusinessModel: req.BusinessModel,
		Niche:         req.Niche,
		Location:      req.Location,
		NearestAreas:  domain.StringArray(req.NearestAreas),
		TargetGender:  req.TargetGender,
		PriceTier:     req.PriceTier,
		StyleTags:     domain.StringArray(req.StyleTags),
		Keywords:      domain.StringArray(keywords),
	}
	if err := s.keywords.Upsert(ctx, rec); err != nil {
		logger.FromContext(ctx).WithError(err).Error("Failed to save vendor keywords")
		return nil, fmt.Errorf("save vendor keywords: %w", err)
	}

	archiveKey := s.archiveRun(ctx, &RunReport{
		Request:     req,
		Location:    loc,
		Competitors: set,
		Seeds:       seeds,
		Prompt:      userPrompt,
		Raw:         result.Raw,
		ParseMode:   result.Mode,
		Model:       result.Model,
		Keywords:    keywords,
		GeneratedAt: s.now().UTC(),
	})
	outputs := domain.JSONMap{"keywords": keywords}
	if archiveKey != "" {
		outputs["archiveKey"] = archiveKey
	}
	s.appendAudit(ctx, req.VendorID, domain.ActionGenerate, inputs, outputs)

	s.metrics.ObserveKeywords(len(keywords))
	logger.With(logger.Fields{logger.FieldModel: result.Model}).
		WithCount(len(keywords)).
		WithDuration(time.Since(start).Milliseconds()).
		Info(ctx, "SEO keywords generated")

	return &SEOResponse{VendorID: req.VendorID, Keywords: keywords}, nil
}

// DebugCompetitors geocodes city and runs competitor discovery. A nil report
// with nil error means the city did not resolve.
func (s *SEOService) DebugCompetitors(ctx context.Context, city, niche string) (*CompetitorReport, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, &ValidationError{Fields: []string{"city"}, Message: "Missing city parameter"}
	}
	niche = strings.TrimSpace(niche)
	if niche == "" {
		niche = "fashion"
	}

	loc, err := s.geocoder.Resolve(ctx, city)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, nil
	}

	set := s.competitors.Find(ctx, city, niche, loc.Lat, loc.Lon)
	loc.Neighborhoods = set.Neighborhoods
	return &CompetitorReport{
		City:        city,
		Niche:       niche,
		Location:    loc,
		Competitors: set.Competitors,
		Tier:        set.Tier,
	}, nil
}

// GetKeywords returns the stored keyword record for a vendor.
func (s *SEOService) GetKeywords(ctx context.Context, vendorID string) (*domain.VendorSEOKeywords, error) {
	return s.keywords.GetByVendorID(ctx, vendorID)
}

// ListLogs returns the vendor's audit trail, newest first.
func (s *SEOService) ListLogs(ctx context.Context, vendorID string, limit int) ([]domain.SEOLogEntry, error) {
	return s.audit.ListByEntity(ctx, domain.EntityVendor, vendorID, limit)
}

func (s *SEOService) appendAudit(ctx context.Context, vendorID, action string, inputs, outputs domain.JSONMap) {
	err := s.audit.Append(ctx, &domain.SEOLogEntry{
		Entity:   domain.EntityVendor,
		EntityID: vendorID,
		Action:   action,
		Inputs:   inputs,
		Outputs:  outputs,
	})
	if err != nil {
		logger.FromContext(ctx).WithError(err).Warnf("Failed to write %s audit entry", action)
	}
}

// GetRun returns an archived run report as raw JSON. Keys come from the
// archiveKey output of the vendor's generate audit entries.
func (s *SEOService) GetRun(ctx context.Context, vendorID, key string) ([]byte, error) {
	if s.archive == nil {
		return nil, fmt.Errorf("run archive disabled: %w", repository.ErrNotFound)
	}
	body, err := s.archive.Load(ctx, vendorID, key)
	if errors.Is(err, storage.ErrRunNotFound) {
		return nil, fmt.Errorf("run report %s: %w", key, repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load run report: %w", err)
	}
	return body, nil
}

// archiveRun returns the object key, or "" when archiving is off or failed.
func (s *SEOService) archiveRun(ctx context.Context, report *RunReport) string {
	if s.archive == nil {
		return ""
	}
	key, err := s.archive.Archive(ctx, report.Request.VendorID, report)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Warn("Failed to archive run report")
		return ""
	}
	logger.CtxDebug(ctx, "Run report archived at %s", key)
	return key
}

func normalizeRequest(req *SEORequest) {
	req.VendorID = strings.TrimSpace(req.VendorID)
	req.BusinessType = strings.TrimSpace(req.BusinessType)
	req.BusinessModel = strings.TrimSpace(req.BusinessModel)
	req.Niche = strings.TrimSpace(req.Niche)
	req.Location = strings.TrimSpace(req.Location)
	req.TargetGender = strings.TrimSpace(req.TargetGender)
	req.PriceTier = strings.TrimSpace(req.PriceTier)
	req.NearestAreas = cleanList(req.NearestAreas)
	req.StyleTags = cleanList(req.StyleTags)
}

func seedTerms(req *SEORequest, city string) []string {
	return []string{
		req.Niche + " " + city,
		req.BusinessType + " " + city,
		strings.TrimSpace(req.BusinessType + " " + city + " " + req.TargetGender),
	}
}

func suggestionPhrases(seeds []domain.AutosuggestSeed) []string {
	out := make([]string, 0, len(seeds))
	for _, s := range seeds {
		out = append(out, s.Suggestion)
	}
	return out
}
