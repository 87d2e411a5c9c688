package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kaaboura12/backend-hackathon-sos-V0.1/internal/repository"
	appErrors "github.com/kaaboura12/backend-hackathon-sos-V0.1/pkg/errors"
)

const dashboardCacheKey = "stats:dashboard"

type statsRepository interface {
	CountReportsByStatus(ctx context.Context) ([]repository.StatusCount, error)
	CountReportsByUrgency(ctx context.Context) ([]repository.StatusCount, error)
	CountReportsByVillage(ctx context.Context) ([]repository.StatusCount, error)
	CountPendingUsers(ctx context.Context) (int, error)
}

type statsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// DashboardStats aggregates the counters shown on the oversight dashboard.
type DashboardStats struct {
	ReportsByStatus  []repository.StatusCount `json:"reports_by_status"`
	ReportsByUrgency []repository.StatusCount `json:"reports_by_urgency"`
	ReportsByVillage []repository.StatusCount `json:"reports_by_village"`
	PendingUsers     int                      `json:"pending_users"`
	GeneratedAt      time.Time                `json:"generated_at"`
}

// StatsService computes dashboard aggregates with a short Redis cache in
// front of the aggregation queries.
type StatsService struct {
	repo     statsRepository
	cache    statsCache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewStatsService constructs the stats service.
func NewStatsService(repo statsRepository, cache statsCache, cacheTTL time.Duration, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &StatsService{repo: repo, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// Dashboard returns the dashboard aggregates, served from cache when fresh.
func (s *StatsService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	var cached DashboardStats
	if err := s.cache.Get(ctx, dashboardCacheKey, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("dashboard cache read failed", zap.Error(err))
	}

	stats, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, dashboardCacheKey, stats, s.cacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.Error(err))
	}
	return stats, nil
}

// Invalidate drops the cached dashboard after a report mutation.
func (s *StatsService) Invalidate(ctx context.Context) {
	if err := s.cache.DeleteByPattern(ctx, "stats:*"); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

func (s *StatsService) compute(ctx context.Context) (*DashboardStats, error) {
	byStatus, err := s.repo.CountReportsByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate reports by status")
	}
	byUrgency, err := s.repo.CountReportsByUrgency(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate reports by urgency")
	}
	byVillage, err := s.repo.CountReportsByVillage(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate reports by village")
	}
	pendingUsers, err := s.repo.CountPendingUsers(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending registrations")
	}

	return &DashboardStats{
		ReportsByStatus:  byStatus,
		ReportsByUrgency: byUrgency,
		ReportsByVillage: byVillage,
		PendingUsers:     pendingUsers,
		GeneratedAt:      time.Now().UTC(),
	}, nil
}
