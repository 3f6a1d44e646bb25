package repository

import (
	"context"

	"guestbook/backend/internal/models"
	"guestbook/backend/pkg/database"
	"guestbook/backend/pkg/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// RecentLimit is the maximum number of entries shown on the guestbook page
const RecentLimit = 50

const (
	insertEntrySQL = "INSERT INTO guestbook (name, message) VALUES (?, ?)"
	recentEntrySQL = "SELECT name, message, created_at FROM guestbook ORDER BY created_at DESC LIMIT ?"
)

// EntryRepository persists guestbook entries
type EntryRepository interface {
	Insert(ctx context.Context, name, message string) error
	ListRecent(ctx context.Context) ([]models.Entry, error)
}

// PoolProvider hands out the shared connection pool
type PoolProvider interface {
	Get(ctx context.Context) (*database.Pool, error)
}

// GormEntryRepository runs each operation on one connection borrowed from the pool
type GormEntryRepository struct {
	pools  PoolProvider
	tracer trace.Tracer
}

// NewGormEntryRepository creates a repository backed by the given pool provider
func NewGormEntryRepository(pools PoolProvider) *GormEntryRepository {
	return &GormEntryRepository{
		pools:  pools,
		tracer: otel.Tracer("guestbook/backend/internal/repository"),
	}
}

// Insert stores a new entry and commits. created_at is set by the database.
func (r *GormEntryRepository) Insert(ctx context.Context, name, message string) (err error) {
	ctx, span := r.tracer.Start(ctx, "guestbook.insert_entry")
	defer func() { endSpan(span, err) }()

	pool, err := r.pools.Get(ctx)
	if err != nil {
		return errors.NewDatabaseError("acquire pool", err)
	}

	err = pool.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Exec(insertEntrySQL, name, message).Error
	})
	return errors.NewDatabaseError("insert_entry", err)
}

// ListRecent returns at most RecentLimit entries, newest first
func (r *GormEntryRepository) ListRecent(ctx context.Context) (entries []models.Entry, err error) {
	ctx, span := r.tracer.Start(ctx, "guestbook.list_recent_entries")
	defer func() { endSpan(span, err) }()

	pool, err := r.pools.Get(ctx)
	if err != nil {
		return nil, errors.NewDatabaseError("acquire pool", err)
	}

	err = pool.WithConn(ctx, func(conn *gorm.DB) error {
		return conn.Raw(recentEntrySQL, RecentLimit).Scan(&entries).Error
	})
	if err != nil {
		return nil, errors.NewDatabaseError("list_recent_entries", err)
	}

	span.SetAttributes(attribute.Int("guestbook.entries", len(entries)))
	return entries, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
