package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/hiring-agent/internal/types"
)

// -----------------------------------------------------------------------------
// Employee Methods
// -----------------------------------------------------------------------------

// GetEmployeeByRecoveryEmail retrieves the employee an applicant became.
func (db *DB) GetEmployeeByRecoveryEmail(ctx context.Context, email string) (*types.Employee, error) {
	var e types.Employee
	err := db.pool.QueryRow(ctx,
		`SELECT id, username, recovery_email, home_address_street_1, home_address_city,
		        home_address_state, home_address_zipcode, home_address_country, start_date
		 FROM employees WHERE LOWER(recovery_email) = LOWER($1)
		 ORDER BY id LIMIT 1`,
		email,
	).Scan(&e.ID, &e.Username, &e.RecoveryEmail, &e.Street, &e.City,
		&e.State, &e.Zipcode, &e.Country, &e.StartDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return &e, nil
}

// UpdateEmployee writes the home address and start date of e.
func (db *DB) UpdateEmployee(ctx context.Context, e *types.Employee) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE employees SET
		     home_address_street_1 = $1,
		     home_address_city = $2,
		     home_address_state = $3,
		     home_address_zipcode = $4,
		     home_address_country = $5,
		     start_date = $6
		 WHERE id = $7`,
		e.Street, e.City, e.State, e.Zipcode, e.Country, e.StartDate, e.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update employee: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("employee not found: %d", e.ID)
	}
	return nil
}

// UsernameTaken reports whether an employee already has username.
func (db *DB) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var taken bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM employees WHERE username = $1)`,
		username,
	).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return taken, nil
}
