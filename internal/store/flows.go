package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rlemke/agentflow-sub002/internal/domain/afl"
	"github.com/rlemke/agentflow-sub002/internal/platform/dbctx"
)

// SaveFlow inserts a new immutable Flow row.
func (s *Store) SaveFlow(ctx context.Context, flow *afl.Flow) error {
	if err := s.db.WithContext(ctx).Create(flow).Error; err != nil {
		return mapError("store.SaveFlow", err)
	}
	return nil
}

// GetFlow loads a Flow by ID.
func (s *Store) GetFlow(ctx context.Context, id uuid.UUID) (*afl.Flow, error) {
	var flow afl.Flow
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&flow).Error; err != nil {
		return nil, mapError("store.GetFlow", err)
	}
	return &flow, nil
}

// SavePublishedSource records a namespace/version publish inside dbc's
// transaction, so the caller can roll the whole publish back (flow +
// published_source + workflow rows) on conflict.
func (s *Store) SavePublishedSource(dbc dbctx.Context, rec *afl.PublishedSource) error {
	if err := s.tx(dbc).Create(rec).Error; err != nil {
		return mapError("store.SavePublishedSource", err)
	}
	return nil
}

// PublishedSourceExists reports whether namespace+version was already
// published, used to reject a re-publish unless the caller forces it.
func (s *Store) PublishedSourceExists(ctx context.Context, namespace, version string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&afl.PublishedSource{}).
		Where("namespace_name = ? AND version = ?", namespace, version).
		Count(&count).Error
	if err != nil {
		return false, mapError("store.PublishedSourceExists", err)
	}
	return count > 0, nil
}

func (s *Store) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return s.db.WithContext(dbc.Ctx)
}
