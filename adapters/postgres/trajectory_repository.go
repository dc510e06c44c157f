// Package postgres loads trajectory tables from a Postgres database for
// callers that persist simulation output there.
package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/guhjy/BFDA/domain/trajectory"
	"github.com/guhjy/BFDA/internal/errors"
)

// trajectoryRow mirrors the five-column simulation output schema.
type trajectoryRow struct {
	ID       int     `db:"id"`
	N        int     `db:"n"`
	LogBF    float64 `db:"log_bf"`
	Boundary float64 `db:"boundary"`
	PValue   float64 `db:"p_value"`
}

// TrajectoryRepository reads simulated trajectory rows from Postgres.
type TrajectoryRepository struct {
	db *sqlx.DB
}

// NewTrajectoryRepository creates a new trajectory repository.
func NewTrajectoryRepository(db *sqlx.DB) *TrajectoryRepository {
	return &TrajectoryRepository{db: db}
}

// Connect opens a Postgres connection pool from a DSN.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to Postgres", err)
	}
	return db, nil
}

// LoadTable selects every trajectory row from the named table, ordered by
// trajectory id and sample size so the first-crossing scan sees rows in
// increasing n order.
func (r *TrajectoryRepository) LoadTable(ctx context.Context, tableName string) (trajectory.Table, error) {
	query := fmt.Sprintf(
		`SELECT id, n, log_bf, boundary, p_value FROM %s ORDER BY id, n`,
		pq.QuoteIdentifier(tableName),
	)

	var rows []trajectoryRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.DatabaseError("failed to load trajectory table", err)
	}
	if len(rows) == 0 {
		return nil, errors.NotFound("trajectory rows in " + tableName)
	}

	table := make(trajectory.Table, 0, len(rows))
	for _, row := range rows {
		table = append(table, trajectory.Row{
			ID:       row.ID,
			N:        row.N,
			LogBF:    row.LogBF,
			Boundary: row.Boundary,
			PValue:   row.PValue,
		})
	}
	return table, nil
}
