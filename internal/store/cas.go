package store

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rlemke/agentflow-sub002/internal/engineerr"
	"github.com/rlemke/agentflow-sub002/internal/platform/dbctx"
)

// CASGuard guards conditional updates to steps and tasks: a write only
// lands if the row's version (or state/status) still matches what the
// caller last observed. This is the store's only concurrency primitive —
// no distributed lock, no consensus round, just a conditional UPDATE.
type CASGuard struct {
	db *gorm.DB
}

func NewCASGuard(db *gorm.DB) *CASGuard {
	return &CASGuard{db: db}
}

func (g *CASGuard) baseDB(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return g.db.WithContext(dbc.Ctx)
}

// UpdateByVersion applies updates to table/id only if the row's current
// version equals expectedVersion. Callers are expected to include a
// "version" bump in updates themselves.
func (g *CASGuard) UpdateByVersion(dbc dbctx.Context, table string, id uuid.UUID, expectedVersion int64, updates map[string]any) (bool, error) {
	table = strings.TrimSpace(table)
	if table == "" || id == uuid.Nil {
		return false, engineerr.New(engineerr.KindInternal, "store.UpdateByVersion", "table and id are required", nil)
	}
	res := g.baseDB(dbc).Table(table).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// UpdateByState applies updates only if the row's current state is one
// of allowed.
func (g *CASGuard) UpdateByState(dbc dbctx.Context, table string, id uuid.UUID, allowed []string, updates map[string]any) (bool, error) {
	table = strings.TrimSpace(table)
	if table == "" || id == uuid.Nil {
		return false, engineerr.New(engineerr.KindInternal, "store.UpdateByState", "table and id are required", nil)
	}
	if len(allowed) == 0 {
		return false, engineerr.New(engineerr.KindInternal, "store.UpdateByState", "allowed states must not be empty", nil)
	}
	res := g.baseDB(dbc).Table(table).
		Where("id = ? AND state IN ?", id, allowed).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RequireCASSuccess converts a failed conditional update into a
// KindConcurrency error.
func RequireCASSuccess(ok bool, op, message string) error {
	if ok {
		return nil
	}
	return engineerr.New(engineerr.KindConcurrency, op, message, nil)
}
