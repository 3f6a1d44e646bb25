package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"guestbook/backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Config holds what is needed to build a Pool
type Config struct {
	URL             string
	SSLMode         string
	MinConns        int
	MaxConns        int
	ConnectTimeout  time.Duration
	ConnMaxLifetime time.Duration
	// Debug switches gorm's statement logging to info level
	Debug bool
}

// Pool is a bounded set of PostgreSQL connections shared by all requests
type Pool struct {
	pgx   *pgxpool.Pool
	sqlDB *sql.DB
	db    *gorm.DB
}

// Open builds the pool and checks that the database is reachable
func Open(ctx context.Context, cfg Config) (*Pool, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database URL is empty")
	}

	pgxConfig, err := pgxpool.ParseConfig(withSSLMode(cfg.URL, cfg.SSLMode))
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	pgxConfig.MinConns = int32(cfg.MinConns)
	pgxConfig.MaxConns = int32(cfg.MaxConns)
	if cfg.ConnMaxLifetime > 0 {
		pgxConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnectTimeout > 0 {
		pgxConfig.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	// the pool outlives the request that happens to build it
	pgxPool, err := pgxpool.NewWithConfig(context.WithoutCancel(ctx), pgxConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// database/sql only borrows from pgxpool, so keep its limits in step
	sqlDB := stdlib.OpenDBFromPool(pgxPool)
	sqlDB.SetMaxOpenConns(cfg.MaxConns)
	sqlDB.SetMaxIdleConns(cfg.MaxConns)
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pool, err := newPool(sqlDB, cfg.Debug)
	if err != nil {
		sqlDB.Close()
		pgxPool.Close()
		return nil, err
	}
	pool.pgx = pgxPool

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// NewFromSQL wraps an existing *sql.DB, e.g. one from sqlmock
func NewFromSQL(sqlDB *sql.DB) (*Pool, error) {
	return newPool(sqlDB, false)
}

func newPool(sqlDB *sql.DB, debug bool) (*Pool, error) {
	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Error),
	}
	if debug {
		gormConfig.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("open gorm: %w", err)
	}

	return &Pool{sqlDB: sqlDB, db: db}, nil
}

// WithConn checks out one connection for the duration of fn and always
// returns it to the pool, whatever fn does
func (p *Pool) WithConn(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return p.db.WithContext(ctx).Connection(fn)
}

// WithTx runs fn inside a transaction on a single checked-out connection.
// The transaction commits when fn returns nil and rolls back otherwise.
func (p *Pool) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return p.WithConn(ctx, func(conn *gorm.DB) error {
		return conn.Transaction(fn)
	})
}

// Migrate creates the guestbook table if it does not exist
func (p *Pool) Migrate(ctx context.Context) error {
	return p.db.WithContext(ctx).AutoMigrate(&models.Entry{})
}

// Ping verifies a connection to the database is still alive
func (p *Pool) Ping(ctx context.Context) error {
	return p.sqlDB.PingContext(ctx)
}

// Stats returns database/sql pool statistics
func (p *Pool) Stats() sql.DBStats {
	return p.sqlDB.Stats()
}

// SQL exposes the underlying handle for collectors
func (p *Pool) SQL() *sql.DB {
	return p.sqlDB
}

// Close releases every connection
func (p *Pool) Close() {
	p.sqlDB.Close()
	if p.pgx != nil {
		p.pgx.Close()
	}
}

// withSSLMode adds sslmode to the connection string unless it already sets one
func withSSLMode(dsn, mode string) string {
	if mode == "" {
		return dsn
	}

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return dsn
		}
		q := u.Query()
		if q.Has("sslmode") {
			return dsn
		}
		q.Set("sslmode", mode)
		u.RawQuery = q.Encode()
		return u.String()
	}

	if hasKeyword(dsn, "sslmode") {
		return dsn
	}
	return strings.TrimSpace(dsn) + " sslmode=" + mode
}

// hasKeyword reports whether a keyword/value connection string sets key.
// Values may be single-quoted with backslash escapes, as in libpq.
func hasKeyword(dsn, key string) bool {
	i := 0
	for i < len(dsn) {
		for i < len(dsn) && (dsn[i] == ' ' || dsn[i] == '\t' || dsn[i] == '\n') {
			i++
		}

		start := i
		for i < len(dsn) && dsn[i] != '=' && dsn[i] != ' ' {
			i++
		}
		name := dsn[start:i]

		for i < len(dsn) && dsn[i] == ' ' {
			i++
		}
		if i >= len(dsn) || dsn[i] != '=' {
			continue
		}
		if name == key {
			return true
		}
		i++
		for i < len(dsn) && dsn[i] == ' ' {
			i++
		}

		// skip the value
		if i < len(dsn) && dsn[i] == '\'' {
			i++
			for i < len(dsn) && dsn[i] != '\'' {
				if dsn[i] == '\\' {
					i++
				}
				i++
			}
			i++
			continue
		}
		for i < len(dsn) && dsn[i] != ' ' && dsn[i] != '\t' && dsn[i] != '\n' {
			i++
		}
	}
	return false
}
