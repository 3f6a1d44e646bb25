package service

import (
	"context"

	"guestbook/backend/internal/models"
	"guestbook/backend/internal/repository"
	"guestbook/backend/pkg/cache"
	"guestbook/backend/pkg/logger"
	"guestbook/backend/pkg/metrics"
)

// GuestbookService reads and signs the guestbook
type GuestbookService struct {
	repo    repository.EntryRepository
	cache   cache.EntryCache
	metrics *metrics.Metrics
	log     *logger.Logger
}

// NewGuestbookService creates a new guestbook service. A nil cache disables caching.
func NewGuestbookService(repo repository.EntryRepository, c cache.EntryCache, m *metrics.Metrics, log *logger.Logger) *GuestbookService {
	if c == nil {
		c = cache.Noop{}
	}
	return &GuestbookService{
		repo:    repo,
		cache:   c,
		metrics: m,
		log:     log,
	}
}

// ListRecent returns the newest entries, from the cache when it holds them.
// Cache failures are logged and fall through to the database.
func (s *GuestbookService) ListRecent(ctx context.Context) ([]models.Entry, error) {
	entries, hit, err := s.cache.GetRecent(ctx)
	if err != nil {
		s.log.LogError(err, "Failed to read recent entries from cache")
	}
	s.metrics.RecordCacheLookup(hit)
	if hit {
		return entries, nil
	}

	// taken before the query so an insert that lands meanwhile keeps this
	// snapshot out of the cache
	gen, genErr := s.cache.Generation(ctx)
	if genErr != nil {
		s.log.LogError(genErr, "Failed to read cache generation")
	}

	entries, err = s.repo.ListRecent(ctx)
	if err != nil {
		return nil, err
	}

	if genErr == nil {
		if err := s.cache.SetRecent(ctx, gen, entries); err != nil {
			s.log.LogError(err, "Failed to cache recent entries")
		}
	}
	return entries, nil
}

// Sign stores a submission and invalidates the cached list
func (s *GuestbookService) Sign(ctx context.Context, req models.SignRequest) error {
	if err := s.repo.Insert(ctx, req.Name, req.Message); err != nil {
		s.metrics.RecordSubmission(metrics.ResultFailed)
		return err
	}
	s.metrics.RecordSubmission(metrics.ResultInserted)

	if err := s.cache.InvalidateRecent(ctx); err != nil {
		s.log.LogError(err, "Failed to invalidate recent entries cache")
	}
	return nil
}

// Skip records a submission that was dropped for missing fields
func (s *GuestbookService) Skip(ctx context.Context, reason error) {
	s.metrics.RecordSubmission(metrics.ResultSkipped)
	s.log.Debug("Skipping incomplete submission", "reason", reason.Error())
}
