package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rlemke/agentflow-sub002/internal/domain/afl"
	"github.com/rlemke/agentflow-sub002/internal/engineerr"
)

// PublishSource records a new (namespace, version) publish atomically
// with the Flow it points at, rejecting a re-publish at an already-used
// version unless force is set. A forced republish still leaves the
// prior Flow row untouched — flows are never updated in place.
func (s *Store) PublishSource(ctx context.Context, namespace, version, source string, flow *afl.Flow, force bool) (*afl.PublishedSource, error) {
	var rec afl.PublishedSource
	err := s.db.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		if !force {
			var count int64
			if err := txx.Model(&afl.PublishedSource{}).
				Where("namespace_name = ? AND version = ?", namespace, version).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return engineerr.New(engineerr.KindConcurrency, "store.PublishSource",
					"namespace/version already published", nil)
			}
		}
		if err := txx.Create(flow).Error; err != nil {
			return err
		}
		rec = afl.PublishedSource{
			ID:            uuid.New(),
			NamespaceName: namespace,
			Version:       version,
			Source:        source,
			FlowID:        flow.ID,
			CreatedAt:     afl.NowMillis(time.Now()),
		}
		return txx.Create(&rec).Error
	})
	if err != nil {
		return nil, mapError("store.PublishSource", err)
	}
	return &rec, nil
}
