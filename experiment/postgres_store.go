package experiment

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore implements Store backed by PostgreSQL. The schema is
// managed by cmd/migrate.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed experiment store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Add inserts a new experiment into the database.
func (s *PostgresStore) Add(e *Experiment) error {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM experiments WHERE id = $1)
	`, e.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check experiment existence: %w", err)
	}
	if exists {
		return fmt.Errorf("experiment with ID %s already exists", e.ID)
	}

	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now

	_, err = s.db.Exec(`
		INSERT INTO experiments (
			id, name,
			successes_a, trials_a, successes_b, trials_b,
			prior_a_lower, prior_a_upper, prior_b_lower, prior_b_upper,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, e.ID, e.Name,
		e.GroupA.Successes, e.GroupA.Trials, e.GroupB.Successes, e.GroupB.Trials,
		e.PriorA.Lower, e.PriorA.Upper, e.PriorB.Lower, e.PriorB.Upper,
		e.CreatedAt, e.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert experiment: %w", err)
	}

	return nil
}

// Get retrieves an experiment by ID.
func (s *PostgresStore) Get(id string) (*Experiment, error) {
	var e Experiment
	err := s.db.QueryRow(`
		SELECT id, name,
		       successes_a, trials_a, successes_b, trials_b,
		       prior_a_lower, prior_a_upper, prior_b_lower, prior_b_upper,
		       created_at, updated_at
		FROM experiments
		WHERE id = $1
	`, id).Scan(
		&e.ID, &e.Name,
		&e.GroupA.Successes, &e.GroupA.Trials, &e.GroupB.Successes, &e.GroupB.Trials,
		&e.PriorA.Lower, &e.PriorA.Upper, &e.PriorB.Lower, &e.PriorB.Upper,
		&e.CreatedAt, &e.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("experiment %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get experiment: %w", err)
	}

	return &e, nil
}

// List returns all experiments, newest first.
func (s *PostgresStore) List() ([]*Experiment, error) {
	rows, err := s.db.Query(`
		SELECT id, name,
		       successes_a, trials_a, successes_b, trials_b,
		       prior_a_lower, prior_a_upper, prior_b_lower, prior_b_upper,
		       created_at, updated_at
		FROM experiments
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiments: %w", err)
	}
	defer rows.Close()

	var out []*Experiment
	for rows.Next() {
		var e Experiment
		if err := rows.Scan(
			&e.ID, &e.Name,
			&e.GroupA.Successes, &e.GroupA.Trials, &e.GroupB.Successes, &e.GroupB.Trials,
			&e.PriorA.Lower, &e.PriorA.Upper, &e.PriorB.Lower, &e.PriorB.Upper,
			&e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan experiment: %w", err)
		}
		out = append(out, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating experiments: %w", err)
	}

	return out, nil
}

// Update modifies an existing experiment's design.
func (s *PostgresStore) Update(e *Experiment) error {
	e.UpdatedAt = time.Now()

	result, err := s.db.Exec(`
		UPDATE experiments
		SET name = $1,
		    successes_a = $2, trials_a = $3, successes_b = $4, trials_b = $5,
		    prior_a_lower = $6, prior_a_upper = $7, prior_b_lower = $8, prior_b_upper = $9,
		    updated_at = $10
		WHERE id = $11
	`, e.Name,
		e.GroupA.Successes, e.GroupA.Trials, e.GroupB.Successes, e.GroupB.Trials,
		e.PriorA.Lower, e.PriorA.Upper, e.PriorB.Lower, e.PriorB.Upper,
		e.UpdatedAt, e.ID)

	if err != nil {
		return fmt.Errorf("failed to update experiment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("experiment %s not found", e.ID)
	}

	return nil
}

// Delete removes an experiment from the database.
func (s *PostgresStore) Delete(id string) error {
	result, err := s.db.Exec(`
		DELETE FROM experiments
		WHERE id = $1
	`, id)

	if err != nil {
		return fmt.Errorf("failed to delete experiment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("experiment %s not found", id)
	}

	return nil
}
