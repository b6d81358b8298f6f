package repository

import (
	"context"
	"fmt"

	"github.com/timmy/vendorseo/internal/config"
	"gorm.io/gorm"
)

// Stores groups the persistence backends the services depend on.
type Stores struct {
	Keywords  KeywordStore
	Audit     AuditLog
	Locations LocationStore

	ping  func(ctx context.Context) error
	close func() error
}

// NewStores opens the backend selected by cfg.Driver: postgres or sqlite
// through gorm, or supabase through PostgREST.
func NewStores(cfg *config.DatabaseConfig) (*Stores, error) {
	if cfg.Driver == "supabase" {
		if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
			return nil, fmt.Errorf("supabase driver requires SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY")
		}
		sb, err := NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseKey)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Keywords:  sb,
			Audit:     sb,
			Locations: sb,
			ping:      sb.Ping,
			close:     func() error { return nil },
		}, nil
	}

	db, err := InitDB(cfg)
	if err != nil {
		return nil, err
	}
	return NewGormStores(db), nil
}

// NewGormStores wraps an open gorm handle.
func NewGormStores(db *gorm.DB) *Stores {
	return &Stores{
		Keywords:  NewKeywordRepository(db),
		Audit:     NewAuditRepository(db),
		Locations: NewLocationRepository(db),
		ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		close: func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}
}

// Ping checks the backend is reachable.
func (s *Stores) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

// Close releases the backend connection.
func (s *Stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}
