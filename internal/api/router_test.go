package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/vendorseo/internal/config"
	"github.com/timmy/vendorseo/internal/domain"
	"github.com/timmy/vendorseo/internal/repository"
	"github.com/timmy/vendorseo/internal/service"
	"github.com/timmy/vendorseo/internal/storage"
	"github.com/timmy/vendorseo/internal/telemetry"
)

type memObjects struct{ objects map[string][]byte }

func (m *memObjects) Upload(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = b
	return nil
}

func (m *memObjects) Download(_ context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(m.objects[key])), nil
}

func (m *memObjects) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.objects[key]
	return ok, nil
}

type stubResolver struct {
	loc   *domain.EnrichedLocation
	calls int
}

func (s *stubResolver) Resolve(context.Context, string) (*domain.EnrichedLocation, error) {
	s.calls++
	if s.loc == nil {
		return nil, nil
	}
	loc := *s.loc
	return &loc, nil
}

type stubCompetitors struct{ calls int }

func (s *stubCompetitors) Find(_ context.Context, city, niche string, _, _ float64) *domain.CompetitorSet {
	s.calls++
	return &domain.CompetitorSet{
		Competitors:   []domain.Competitor{{Name: niche + " shops in " + city, Type: domain.CompetitorTypeGeneric}},
		Neighborhoods: []string{},
		Tier:          domain.TierGeneric,
	}
}

type stubSeeds struct{ calls int }

func (s *stubSeeds) ExpandSeeds(context.Context, []string) []domain.AutosuggestSeed {
	s.calls++
	return nil
}

type stubGateway struct {
	calls int
	err   error
}

func (s *stubGateway) Generate(context.Context, string, string) (*service.KeywordResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &service.KeywordResult{
		Keywords: []string{"bridal gowns owerri", "lace owerri"},
		Raw:      `["bridal gowns owerri","lace owerri"]`,
		Mode:     service.ParseModeStrict,
		Model:    "m1",
	}, nil
}

type testServer struct {
	router  *gin.Engine
	geo     *stubResolver
	comp    *stubCompetitors
	seeds   *stubSeeds
	gateway *stubGateway
	stores  *repository.Stores
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := repository.InitDB(&config.DatabaseConfig{
		Driver:       "sqlite",
		Path:         fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
		MaxOpenConns: 1,
		AutoMigrate:  true,
	})
	require.NoError(t, err)
	stores := repository.NewGormStores(db)
	t.Cleanup(func() { _ = stores.Close() })

	ts := &testServer{
		geo:     &stubResolver{loc: &domain.EnrichedLocation{City: "Owerri", Lat: 5.48, Lon: 7.03, Neighborhoods: []string{}}},
		comp:    &stubCompetitors{},
		seeds:   &stubSeeds{},
		gateway: &stubGateway{},
		stores:  stores,
	}
	seo := service.NewSEOService(service.SEODeps{
		Geocoder:    ts.geo,
		Competitors: ts.comp,
		Seeds:       ts.seeds,
		Gateway:     ts.gateway,
		Keywords:    stores.Keywords,
		Audit:       stores.Audit,
		Archive:     storage.NewRunArchive(&memObjects{objects: map[string][]byte{}}, "seo-runs"),
	})
	ts.router = SetupRouter(RouterDeps{
		SEO:       seo,
		Locations: service.NewLocationService(stores.Locations),
		Metrics:   telemetry.NewMetrics(),
		Ping:      stores.Ping,
		Server:    config.ServerConfig{Mode: "test", CORS: config.CORSConfig{AllowAllOrigins: true}},
	})
	return ts
}

func (ts *testServer) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func seoBody() map[string]interface{} {
	return map[string]interface{}{
		"vendorId":      "v-1",
		"businessType":  "Fashion Designer",
		"businessModel": "physical store",
		"niche":         "bridal gowns",
		"location":      "Owerri",
		"nearestAreas":  []string{"Ikenegbu"},
		"styleTags":     []string{},
	}
}

func TestSEOKeywordsMissingLocation(t *testing.T) {
	ts := newTestServer(t)
	body := seoBody()
	delete(body, "location")

	w := ts.do(http.MethodPost, "/api/ai/seo-keywords", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, decode(t, w)["error"])
	assert.Zero(t, ts.geo.calls+ts.comp.calls+ts.seeds.calls+ts.gateway.calls)

	logs, err := ts.stores.Audit.ListByEntity(context.Background(), domain.EntityVendor, "v-1", 0)
	require.NoError(t, err)
	assert.Empty(t, logs)
	_, err = ts.stores.Keywords.GetByVendorID(context.Background(), "v-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSEOKeywordsMalformedBody(t *testing.T) {
	ts := newTestServer(t)
	body := seoBody()
	body["nearestAreas"] = "Ikenegbu"

	w := ts.do(http.MethodPost, "/api/ai/seo-keywords", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSEOKeywordsRoundTrip(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/api/ai/seo-keywords", seoBody())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode(t, w)
	assert.Equal(t, "v-1", out["vendorId"])
	assert.Len(t, out["keywords"], 2)

	w = ts.do(http.MethodGet, "/api/vendors/v-1/seo-keywords", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rec := decode(t, w)
	assert.Equal(t, "bridal gowns", rec["niche"])
	assert.Equal(t, "v-1", rec["vendorId"])
	assert.Equal(t, "Fashion Designer", rec["businessType"])
	assert.Equal(t, []interface{}{"Ikenegbu"}, rec["nearestAreas"])
	assert.NotContains(t, rec, "vendor_id")

	w = ts.do(http.MethodGet, "/api/vendors/v-1/seo-logs?limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	logs := decode(t, w)
	assert.EqualValues(t, 2, logs["total"])

	var archiveKey string
	for _, raw := range logs["logs"].([]interface{}) {
		entry := raw.(map[string]interface{})
		assert.Equal(t, "v-1", entry["entityId"])
		if entry["action"] == domain.ActionGenerate {
			archiveKey, _ = entry["outputs"].(map[string]interface{})["archiveKey"].(string)
		}
	}
	require.NotEmpty(t, archiveKey)

	w = ts.do(http.MethodGet, "/api/vendors/v-1/runs/"+archiveKey, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	run := decode(t, w)
	assert.Equal(t, "m1", run["model"])
	assert.Len(t, run["keywords"], 2)

	w = ts.do(http.MethodGet, "/api/vendors/v-2/runs/"+archiveKey, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(http.MethodGet, "/api/vendors/v-1/seo-logs?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSEOKeywordsGatewayFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.gateway.err = &service.ExhaustedProvidersError{Models: 4, Keys: 2, Attempts: 8}

	w := ts.do(http.MethodPost, "/api/ai/seo-keywords", seoBody())
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, decode(t, w)["error"], "all keys and models failed")
}

func TestVendorKeywordsNotFound(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(http.MethodGet, "/api/vendors/nobody/seo-keywords", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDebugCompetitors(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/api/debug/competitors?city=Owerri&niche=bridal+gowns", nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, "bridal gowns", out["niche"])
	assert.NotNil(t, out["location"])

	w = ts.do(http.MethodGet, "/api/debug/competitors", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	ts.geo.loc = nil
	w = ts.do(http.MethodGet, "/api/debug/competitors?city=Atlantis", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLocationsEndpoints(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/api/locations", map[string]interface{}{
		"city": "Owerri", "category": "market", "areas": []string{"Relief Market", " "},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decode(t, w)["success"])

	w = ts.do(http.MethodPost, "/api/locations", map[string]interface{}{
		"city": "Owerri", "category": "planet", "areas": []string{"Mars"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodGet, "/api/locations?city=owerri", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["total"])
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "vendorseo_")
}
