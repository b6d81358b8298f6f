package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/timmy/vendorseo/internal/domain"
	"github.com/timmy/vendorseo/internal/service"
)

// VendorKeywordsResponse is the read-back shape of a vendor's keyword record.
type VendorKeywordsResponse struct {
	VendorID      string    `json:"vendorId"`
	BusinessType  string    `json:"businessType"`
	BusinessModel string    `json:"businessModel"`
	Niche         string    `json:"niche"`
	Location      string    `json:"location"`
	NearestAreas  []string  `json:"nearestAreas"`
	TargetGender  string    `json:"targetGender"`
	PriceTier     string    `json:"priceTier"`
	StyleTags     []string  `json:"styleTags"`
	Keywords      []string  `json:"keywords"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// SEOLogResponse is one audit entry as served by the logs endpoint.
type SEOLogResponse struct {
	ID        string         `json:"id"`
	Entity    string         `json:"entity"`
	EntityID  string         `json:"entityId"`
	Action    string         `json:"action"`
	Inputs    domain.JSONMap `json:"inputs"`
	Outputs   domain.JSONMap `json:"outputs"`
	CreatedAt time.Time      `json:"createdAt"`
}

func toVendorKeywordsResponse(rec *domain.VendorSEOKeywords) VendorKeywordsResponse {
	return VendorKeywordsResponse{
		VendorID:      rec.VendorID,
		BusinessType:  rec.BusinessType,
		BusinessModel: rec.BusinessModel,
		Niche:         rec.Niche,
		Location:      rec.Location,
		NearestAreas:  nonNil(rec.NearestAreas),
		TargetGender:  rec.TargetGender,
		PriceTier:     rec.PriceTier,
		StyleTags:     nonNil(rec.StyleTags),
		Keywords:      nonNil(rec.Keywords),
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
	}
}

func toSEOLogResponses(entries []domain.SEOLogEntry) []SEOLogResponse {
	out := make([]SEOLogResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, SEOLogResponse{
			ID:        e.ID,
			Entity:    e.Entity,
			EntityID:  e.EntityID,
			Action:    e.Action,
			Inputs:    e.Inputs,
			Outputs:   e.Outputs,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}

func nonNil(a domain.StringArray) []string {
	if a == nil {
		return []string{}
	}
	return a
}

// SEOHandler handles keyword generation and vendor read-back endpoints.
type SEOHandler struct {
	seoService *service.SEOService
}

// NewSEOHandler creates a new SEO handler.
func NewSEOHandler(seoService *service.SEOService) *SEOHandler {
	return &SEOHandler{seoService: seoService}
}

// GenerateKeywords handles POST /api/ai/seo-keywords.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *SEOHandler) GenerateKeywords(c *gin.Context) {
	var req service.SEORequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	resp, err := h.seoService.Generate(c.Request.Context(), &req)
	if err != nil {
		respondError(c, "Keyword generation", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// DebugCompetitors handles GET /api/debug/competitors.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *SEOHandler) DebugCompetitors(c *gin.Context) {
	city := c.Query("city")
	if city == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing city parameter"})
		return
	}

	report, err := h.seoService.DebugCompetitors(c.Request.Context(), city, c.Query("niche"))
	if err != nil {
		respondError(c, "Competitor lookup", err)
		return
	}
	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Location not found"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetVendorKeywords handles GET /api/vendors/:vendorId/seo-keywords.
func (h *SEOHandler) GetVendorKeywords(c *gin.Context) {
	rec, err := h.seoService.GetKeywords(c.Request.Context(), c.Param("vendorId"))
	if err != nil {
		respondError(c, "Keyword lookup", err)
		return
	}
	c.JSON(http.StatusOK, toVendorKeywordsResponse(rec))
}

// GetVendorRun handles GET /api/vendors/:vendorId/runs/*key and returns the
// archived run report stored under key.
func (h *SEOHandler) GetVendorRun(c *gin.Context) {
	body, err := h.seoService.GetRun(c.Request.Context(), c.Param("vendorId"), c.Param("key"))
	if err != nil {
		respondError(c, "Run report lookup", err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// ListVendorLogs handles GET /api/vendors/:vendorId/seo-logs.
func (h *SEOHandler) ListVendorLogs(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
			return
		}
		limit = n
	}

	logs, err := h.seoService.ListLogs(c.Request.Context(), c.Param("vendorId"), limit)
	if err != nil {
		respondError(c, "Audit log lookup", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":  toSEOLogResponses(logs),
		"total": len(logs),
	})
}
