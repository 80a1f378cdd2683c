// Package store is the durable document store: every step, task, and
// runner transition is persisted here before the engine acts on it, so
// a crashed process resumes from exactly what the store last recorded.
package store

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/rlemke/agentflow-sub002/internal/platform/envutil"
	"github.com/rlemke/agentflow-sub002/internal/platform/logger"
)

// Store wraps the GORM handle used by every collection in this package.
type Store struct {
	db  *gorm.DB
	log *logger.Logger
	cas *CASGuard
}

// Open connects to Postgres using POSTGRES_* environment variables and
// wires the uuid-ossp extension needed for server-side ID generation in
// tests and ad-hoc SQL.
func Open(baseLog *logger.Logger) (*Store, error) {
	log := baseLog.With("component", "store")

	host := envutil.String("POSTGRES_HOST", "localhost")
	port := envutil.String("POSTGRES_PORT", "5432")
	user := envutil.String("POSTGRES_USER", "postgres")
	password := envutil.String("POSTGRES_PASSWORD", "")
	name := envutil.String("POSTGRES_NAME", "agentflow")

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		user, password, host, port, name,
	)

	return OpenDSN(dsn, log)
}

// OpenDSN connects to an explicit DSN, bypassing environment discovery.
// Tests use this to point at a disposable database.
func OpenDSN(dsn string, log *logger.Logger) (*Store, error) {
	gormLog := gormLogger.New(
		stdLogWriter(),
		gormLogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return nil, fmt.Errorf("enable uuid-ossp extension: %w", err)
	}

	return &Store{db: db, log: log, cas: NewCASGuard(db)}, nil
}

// New wraps an already-open *gorm.DB, for callers that manage the
// connection (or a test transaction) themselves rather than going
// through Open/OpenDSN.
func New(db *gorm.DB, log *logger.Logger) *Store {
	return &Store{db: db, log: log, cas: NewCASGuard(db)}
}

func stdLogWriter() *log.Logger {
	return log.New(os.Stdout, "\r\n", log.LstdFlags)
}

// DB exposes the raw handle for migrations and test fixtures.
func (s *Store) DB() *gorm.DB { return s.db }
