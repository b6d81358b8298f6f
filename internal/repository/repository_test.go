package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/vendorseo/internal/config"
	"github.com/timmy/vendorseo/internal/domain"
)

func newTestStores(t *testing.T) *Stores {
	t.Helper()
	db, err := InitDB(&config.DatabaseConfig{
		Driver:       "sqlite",
		Path:         fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
		MaxOpenConns: 1,
		AutoMigrate:  true,
	})
	require.NoError(t, err)

	stores := NewGormStores(db)
	t.Cleanup(func() { _ = stores.Close() })
	return stores
}

func TestLocationMergeAreas(t *testing.T) {
	ctx := context.Background()
	stores := newTestStores(t)

	first, err := stores.Locations.MergeAreas(ctx, "Owerri", domain.CategoryMarket, []string{"Relief Market", "Eke Ukwu"})
	require.NoError(t, err)
	assert.Equal(t, domain.StringArray{"Relief Market", "Eke Ukwu"}, first.Name)

	second, err := stores.Locations.MergeAreas(ctx, "Owerri", domain.CategoryMarket, []string{"Eke Ukwu", "Ekeonunwa"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, domain.StringArray{"Relief Market", "Eke Ukwu", "Ekeonunwa"}, second.Name)

	_, err = stores.Locations.MergeAreas(ctx, "Owerri", domain.CategoryStreet, []string{"Wetheral Road"})
	require.NoError(t, err)

	all, err := stores.Locations.List(ctx, LocationFilter{City: "owerri"})
	require.NoError(t, err)
	assert.Len(t, all, 2, "one row per (city, category)")

	markets, err := stores.Locations.List(ctx, LocationFilter{Category: domain.CategoryMarket})
	require.NoError(t, err)
	require.Len(t, markets, 1)
	assert.Equal(t, domain.StringArray{"Relief Market", "Eke Ukwu", "Ekeonunwa"}, markets[0].Name)
}

func TestKeywordUpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	stores := newTestStores(t)

	_, err := stores.Keywords.GetByVendorID(ctx, "v1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, stores.Keywords.Upsert(ctx, &domain.VendorSEOKeywords{
		VendorID: "v1", Niche: "bridal gowns", Location: "Owerri",
		Keywords: domain.StringArray{"a", "b"},
	}))
	require.NoError(t, stores.Keywords.Upsert(ctx, &domain.VendorSEOKeywords{
		VendorID: "v1", Niche: "aso ebi", Location: "Lagos",
		Keywords: domain.StringArray{"c"},
	}))

	got, err := stores.Keywords.GetByVendorID(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, "aso ebi", got.Niche)
	assert.Equal(t, "Lagos", got.Location)
	assert.Equal(t, domain.StringArray{"c"}, got.Keywords)
}

func TestAuditListNewestFirst(t *testing.T) {
	ctx := context.Background()
	stores := newTestStores(t)

	base := time.Now().Add(-time.Hour)
	for i, action := range []string{domain.ActionDebugAIOutput, domain.ActionGenerate} {
		require.NoError(t, stores.Audit.Append(ctx, &domain.SEOLogEntry{
			Entity:    domain.EntityVendor,
			EntityID:  "v1",
			Action:    action,
			Inputs:    domain.JSONMap{"vendorId": "v1"},
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, stores.Audit.Append(ctx, &domain.SEOLogEntry{
		Entity: domain.EntityVendor, EntityID: "other", Action: domain.ActionGenerate,
	}))

	entries, err := stores.Audit.ListByEntity(ctx, domain.EntityVendor, "v1", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.ActionGenerate, entries[0].Action)
	assert.Equal(t, domain.ActionDebugAIOutput, entries[1].Action)
	assert.NotEmpty(t, entries[0].ID)
	assert.Equal(t, "v1", entries[1].Inputs["vendorId"])

	limited, err := stores.Audit.ListByEntity(ctx, domain.EntityVendor, "v1", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
