package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// StatusCount pairs a grouping key with its report count.
type StatusCount struct {
	Key   string `db:"key" json:"key"`
	Count int    `db:"count" json:"count"`
}

// StatsRepository runs the dashboard aggregation queries.
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository creates a new instance of StatsRepository.
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// CountReportsByStatus groups non-deleted reports by workflow status.
func (r *StatsRepository) CountReportsByStatus(ctx context.Context) ([]StatusCount, error) {
	const query = `SELECT status AS key, COUNT(*) AS count FROM reports GROUP BY status ORDER BY status`
	var rows []StatusCount
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count reports by status: %w", err)
	}
	return rows, nil
}

// CountReportsByUrgency groups reports by declared urgency.
func (r *StatsRepository) CountReportsByUrgency(ctx context.Context) ([]StatusCount, error) {
	const query = `SELECT urgency AS key, COUNT(*) AS count FROM reports GROUP BY urgency ORDER BY urgency`
	var rows []StatusCount
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count reports by urgency: %w", err)
	}
	return rows, nil
}

// CountReportsByVillage groups reports by village name.
func (r *StatsRepository) CountReportsByVillage(ctx context.Context) ([]StatusCount, error) {
	const query = `SELECT v.name AS key, COUNT(*) AS count FROM reports r JOIN villages v ON v.id = r.village_id GROUP BY v.name ORDER BY v.name`
	var rows []StatusCount
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count reports by village: %w", err)
	}
	return rows, nil
}

// CountPendingUsers returns how many registrations are awaiting approval.
func (r *StatsRepository) CountPendingUsers(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM users WHERE status = 'PENDING'`
	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count pending users: %w", err)
	}
	return count, nil
}
