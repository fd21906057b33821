package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/employee-service/internal/domain"
)

const uniqueViolationCode = "23505"

// EmployeeRepository encapsulates employee persistence.
type EmployeeRepository interface {
	List(ctx context.Context) ([]domain.Employee, error)
	GetByID(ctx context.Context, id string) (*domain.Employee, error)
	GetByEmail(ctx context.Context, email string) (*domain.Employee, error)
	Create(ctx context.Context, employee *domain.Employee) error
	Update(ctx context.Context, id string, update domain.EmployeeUpdate) (*domain.Employee, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type employeeRepository struct {
	pool *pgxpool.Pool
}

// NewEmployeeRepository instantiates repository.
func NewEmployeeRepository(pool *pgxpool.Pool) EmployeeRepository {
	return &employeeRepository{pool: pool}
}

const employeeColumns = `id, first_name, last_name, email, address, gender, mobile, COALESCE(image, ''), created_at, updated_at`

func (r *employeeRepository) List(ctx context.Context) ([]domain.Employee, error) {
	query := fmt.Sprintf(`SELECT %s FROM employees`, employeeColumns)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEmployees(rows)
}

func (r *employeeRepository) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	query := fmt.Sprintf(`SELECT %s FROM employees WHERE id=$1`, employeeColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *employeeRepository) GetByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	query := fmt.Sprintf(`SELECT %s FROM employees WHERE email=$1`, employeeColumns)
	return r.fetchSingle(ctx, query, email)
}

func (r *employeeRepository) Create(ctx context.Context, employee *domain.Employee) error {
	const query = `
        INSERT INTO employees (first_name, last_name, email, address, gender, mobile, image)
        VALUES ($1,$2,$3,$4,$5,$6,NULLIF($7,''))
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		employee.FirstName,
		employee.LastName,
		employee.Email,
		employee.Address,
		employee.Gender,
		employee.Mobile,
		employee.Image,
	).Scan(&employee.ID, &employee.CreatedAt, &employee.UpdatedAt)
}

func (r *employeeRepository) Update(ctx context.Context, id string, update domain.EmployeeUpdate) (*domain.Employee, error) {
	clauses := []string{}
	args := []any{}

	appendClause := func(column string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf("%s=$%d", column, len(args)))
	}

	if update.FirstName != nil {
		appendClause("first_name", *update.FirstName)
	}
	if update.LastName != nil {
		appendClause("last_name", *update.LastName)
	}
	if update.Email != nil {
		appendClause("email", *update.Email)
	}
	if update.Address != nil {
		appendClause("address", *update.Address)
	}
	if update.Gender != nil {
		appendClause("gender", *update.Gender)
	}
	if update.Mobile != nil {
		appendClause("mobile", *update.Mobile)
	}

	if len(clauses) == 0 {
		return r.GetByID(ctx, id)
	}

	clauses = append(clauses, "updated_at=NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE employees SET %s WHERE id=$%d RETURNING %s`,
		strings.Join(clauses, ", "), len(args), employeeColumns)

	return scanEmployeeRow(r.pool.QueryRow(ctx, query, args...))
}

// Delete reports whether a row was actually removed so callers can tell a
// real deletion from a no-op on an unknown id.
func (r *employeeRepository) Delete(ctx context.Context, id string) (bool, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM employees WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *employeeRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Employee, error) {
	return scanEmployeeRow(r.pool.QueryRow(ctx, query, arg))
}

func scanEmployeeRow(row pgx.Row) (*domain.Employee, error) {
	var employee domain.Employee
	if err := row.Scan(
		&employee.ID,
		&employee.FirstName,
		&employee.LastName,
		&employee.Email,
		&employee.Address,
		&employee.Gender,
		&employee.Mobile,
		&employee.Image,
		&employee.CreatedAt,
		&employee.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &employee, nil
}

func scanEmployees(rows pgx.Rows) ([]domain.Employee, error) {
	var result []domain.Employee
	for rows.Next() {
		var employee domain.Employee
		if err := rows.Scan(
			&employee.ID,
			&employee.FirstName,
			&employee.LastName,
			&employee.Email,
			&employee.Address,
			&employee.Gender,
			&employee.Mobile,
			&employee.Image,
			&employee.CreatedAt,
			&employee.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, employee)
	}
	return result, rows.Err()
}

// IsUniqueViolation reports whether err is a unique constraint violation,
// the losing side of a concurrent create with the same email.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
