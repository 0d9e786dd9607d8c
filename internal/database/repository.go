package database

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/ZanzyTHEbar/pontos-doacao/internal/errors"
	"github.com/ZanzyTHEbar/pontos-doacao/internal/types"
)

// Repository handles database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) queryPoints(ctx context.Context, name string, args ...interface{}) ([]types.DonationPoint, error) {
	stmt, err := r.db.GetPreparedStatement(name)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query donation points: %w", err)
	}
	defer rows.Close()

	points := make([]types.DonationPoint, 0)
	for rows.Next() {
		p, err := scanPoint(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan donation point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read donation points: %w", err)
	}

	return points, nil
}

// ListPoints returns every stored donation point ordered by id
func (r *Repository) ListPoints(ctx context.Context) ([]types.DonationPoint, error) {
	return r.queryPoints(ctx, stmtListPoints)
}

// ListPointsByCity returns the points whose city matches case-insensitively
func (r *Repository) ListPointsByCity(ctx context.Context, city string) ([]types.DonationPoint, error) {
	return r.queryPoints(ctx, stmtListPointsByCity, city)
}

// ListPointsMissingCoordinates returns up to limit points without latitude or longitude
func (r *Repository) ListPointsMissingCoordinates(ctx context.Context, limit int) ([]types.DonationPoint, error) {
	return r.queryPoints(ctx, stmtListMissingCoordinates, limit)
}

// GetPoint loads one point
func (r *Repository) GetPoint(ctx context.Context, id int64) (*types.DonationPoint, error) {
	stmt, err := r.db.GetPreparedStatement(stmtGetPoint)
	if err != nil {
		return nil, err
	}

	p, err := scanPoint(stmt.QueryRowContext(ctx, id))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("donation point %d: %w", id, errors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get donation point: %w", err)
	}

	return &p, nil
}

// CreatePoint inserts p and fills in its id and timestamps
func (r *Repository) CreatePoint(ctx context.Context, p *types.DonationPoint) error {
	stmt, err := r.db.GetPreparedStatement(stmtInsertPoint)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	p.CreatedAt = now
	p.UpdatedAt = now

	err = stmt.QueryRowContext(ctx,
		p.Name, p.Address, p.City, p.DonationTypes, p.UrgentItems,
		p.OpeningHours, p.Contact, p.Latitude, p.Longitude,
		p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to create donation point: %w", err)
	}

	return nil
}

// UpdatePoint overwrites every editable column of p
func (r *Repository) UpdatePoint(ctx context.Context, p *types.DonationPoint) error {
	stmt, err := r.db.GetPreparedStatement(stmtUpdatePoint)
	if err != nil {
		return err
	}

	p.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)

	result, err := stmt.ExecContext(ctx,
		p.Name, p.Address, p.City, p.DonationTypes, p.UrgentItems,
		p.OpeningHours, p.Contact, p.Latitude, p.Longitude,
		p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update donation point: %w", err)
	}

	return expectAffected(result, p.ID)
}

// DeletePoint removes one point
func (r *Repository) DeletePoint(ctx context.Context, id int64) error {
	stmt, err := r.db.GetPreparedStatement(stmtDeletePoint)
	if err != nil {
		return err
	}

	result, err := stmt.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete donation point: %w", err)
	}

	return expectAffected(result, id)
}

// UpdateCoordinates stores geocoded coordinates for one point
func (r *Repository) UpdateCoordinates(ctx context.Context, id int64, lat, lng float64) error {
	stmt, err := r.db.GetPreparedStatement(stmtUpdateCoordinates)
	if err != nil {
		return err
	}

	result, err := stmt.ExecContext(ctx, lat, lng, time.Now().UTC().Truncate(time.Microsecond), id)
	if err != nil {
		return fmt.Errorf("failed to update coordinates: %w", err)
	}

	return expectAffected(result, id)
}

// CountPoints returns the number of stored points
func (r *Repository) CountPoints(ctx context.Context) (int, error) {
	stmt, err := r.db.GetPreparedStatement(stmtCountPoints)
	if err != nil {
		return 0, err
	}

	var count int
	if err := stmt.QueryRowContext(ctx).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count donation points: %w", err)
	}

	return count, nil
}

func expectAffected(result sql.Result, id int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("donation point %d: %w", id, errors.ErrNotFound)
	}
	return nil
}
