package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kaaboura12/backend-hackathon-sos-V0.1/internal/models"
)

// VillageRepository provides database access for village administration.
type VillageRepository struct {
	db *sqlx.DB
}

// NewVillageRepository creates a new instance of VillageRepository.
func NewVillageRepository(db *sqlx.DB) *VillageRepository {
	return &VillageRepository{db: db}
}

// FindByID returns a village by identifier.
func (r *VillageRepository) FindByID(ctx context.Context, id string) (*models.Village, error) {
	const query = `SELECT id, name, description, created_at, updated_at FROM villages WHERE id = $1 LIMIT 1`
	var village models.Village
	if err := r.db.GetContext(ctx, &village, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find village by id: %w", err)
	}
	return &village, nil
}

// FindByName returns a village by its unique name.
func (r *VillageRepository) FindByName(ctx context.Context, name string) (*models.Village, error) {
	const query = `SELECT id, name, description, created_at, updated_at FROM villages WHERE name = $1 LIMIT 1`
	var village models.Village
	if err := r.db.GetContext(ctx, &village, query, name); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find village by name: %w", err)
	}
	return &village, nil
}

// List returns every village ordered by name.
func (r *VillageRepository) List(ctx context.Context) ([]models.Village, error) {
	const query = `SELECT id, name, description, created_at, updated_at FROM villages ORDER BY name ASC`
	var villages []models.Village
	if err := r.db.SelectContext(ctx, &villages, query); err != nil {
		return nil, fmt.Errorf("list villages: %w", err)
	}
	return villages, nil
}

// Create inserts a new village.
func (r *VillageRepository) Create(ctx context.Context, village *models.Village) error {
	if village.ID == "" {
		village.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	village.CreatedAt = now
	village.UpdatedAt = now

	const query = `INSERT INTO villages (id, name, description, created_at, updated_at) VALUES (:id, :name, :description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, village); err != nil {
		return fmt.Errorf("create village: %w", err)
	}
	return nil
}

// Update persists mutable fields of a village.
func (r *VillageRepository) Update(ctx context.Context, village *models.Village) error {
	village.UpdatedAt = time.Now().UTC()
	const query = `UPDATE villages SET name = :name, description = :description, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, village); err != nil {
		return fmt.Errorf("update village: %w", err)
	}
	return nil
}

// Delete removes a village permanently.
func (r *VillageRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM villages WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete village: %w", err)
	}
	return nil
}

// CountReferences returns how many users and reports still reference the
// village. Deletion is blocked while either count is non-zero.
func (r *VillageRepository) CountReferences(ctx context.Context, villageID string) (int, error) {
	const query = `SELECT (SELECT COUNT(*) FROM users WHERE village_id = $1) + (SELECT COUNT(*) FROM reports WHERE village_id = $1)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, villageID); err != nil {
		return 0, fmt.Errorf("count village references: %w", err)
	}
	return count, nil
}
