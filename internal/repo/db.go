// Package repo is the persistence layer: GORM queries over uploads,
// analyses, feedback, profiles and idempotency records. Functions take the
// *gorm.DB explicitly so services can pass a transaction instead.
package repo

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/safestudent/safe-student-backend/internal/domain"
)

// Supported DB_DRIVER values.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// slowQuery is the threshold above which GORM statements are logged at warn.
const slowQuery = 250 * time.Millisecond

// sqlitePragmas are passed through the DSN so the driver applies them to
// every pooled connection, not only the first one.
var sqlitePragmas = []string{
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"foreign_keys(ON)",
	"busy_timeout(5000)",
}

type poolSettings struct {
	maxOpen     int
	maxIdle     int
	idleTime    time.Duration
	maxLifetime time.Duration
}

var pools = map[string]poolSettings{
	// SQLite serialises writers; a small pool keeps busy_timeout waits short.
	DriverSQLite:   {maxOpen: 8, maxIdle: 4, idleTime: 5 * time.Minute, maxLifetime: time.Hour},
	DriverPostgres: {maxOpen: 20, maxIdle: 10, idleTime: 5 * time.Minute, maxLifetime: 30 * time.Minute},
}

// Open connects to the configured database, verifies it answers a ping and
// installs query tracing. path is used by sqlite, dsn by postgres.
func Open(driver, path, dsn string) (*gorm.DB, error) {
	name := strings.ToLower(strings.TrimSpace(driver))
	if name == "" {
		name = DriverSQLite
	}

	var (
		db  *gorm.DB
		err error
	)
	switch name {
	case DriverSQLite:
		db, err = OpenSQLite(path)
	case DriverPostgres:
		db, err = OpenPostgres(dsn)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
	if err != nil {
		return nil, err
	}

	if err := ping(db); err != nil {
		return nil, fmt.Errorf("%s ping: %w", name, err)
	}
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, fmt.Errorf("install gorm tracing: %w", err)
	}
	return db, nil
}

// OpenSQLite opens (or creates) the database file at path. The parent
// directory must already exist.
func OpenSQLite(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("sqlite directory: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(sqliteDSN(path)), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := applyPool(db, pools[DriverSQLite]); err != nil {
		return nil, err
	}
	return db, nil
}

// OpenPostgres connects to PostgreSQL (e.g. a hosted Supabase database).
func OpenPostgres(dsn string) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres dsn is empty")
	}
	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := applyPool(db, pools[DriverPostgres]); err != nil {
		return nil, err
	}
	return db, nil
}

// sqliteDSN appends the _pragma query parameters to path, keeping any query
// the caller already supplied.
func sqliteDSN(path string) string {
	q := url.Values{}
	for _, p := range sqlitePragmas {
		q.Add("_pragma", p)
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + q.Encode()
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(gormLogWriter{}, gormlogger.Config{
			SlowThreshold:             slowQuery,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}
}

// gormLogWriter routes GORM's slow-query and error lines into zerolog.
type gormLogWriter struct{}

func (gormLogWriter) Printf(format string, args ...any) {
	log.Warn().Str("component", "gorm").Msgf(format, args...)
}

func applyPool(db *gorm.DB, p poolSettings) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(p.maxOpen)
	sqlDB.SetMaxIdleConns(p.maxIdle)
	sqlDB.SetConnMaxIdleTime(p.idleTime)
	sqlDB.SetConnMaxLifetime(p.maxLifetime)
	return nil
}

func ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// AutoMigrate creates or updates every table the service owns. Order
// matters: referenced tables come before the rows that point at them.
func AutoMigrate(db *gorm.DB) error {
	models := []any{
		&domain.Upload{},
		&domain.Analysis{},
		&domain.Feedback{},
		&domain.Profile{},
		&domain.Idempotency{},
	}
	for _, m := range models {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("migrate %T: %w", m, err)
		}
	}
	return nil
}
