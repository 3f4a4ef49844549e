package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/artbox-backend/internal/model"
)

const classColumns = `id, display_name, grade, owner_teacher_id, join_code, created_at`

// ClassRepository handles class data access.
type ClassRepository struct {
	pool *pgxpool.Pool
}

// NewClassRepository creates a new ClassRepository.
func NewClassRepository(pool *pgxpool.Pool) *ClassRepository {
	return &ClassRepository{pool: pool}
}

func scanClass(row scanner) (*model.ClassGroup, error) {
	c := &model.ClassGroup{}
	if err := row.Scan(&c.ID, &c.DisplayName, &c.Grade, &c.OwnerTeacherID, &c.JoinCode, &c.CreatedAt); err != nil {
		return nil, translate(err)
	}
	return c, nil
}

func (r *ClassRepository) list(ctx context.Context, query string, args ...any) ([]model.ClassGroup, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var classes []model.ClassGroup
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		classes = append(classes, *c)
	}
	return classes, rows.Err()
}

// GetByID retrieves a class by its ID.
func (r *ClassRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ClassGroup, error) {
	return scanClass(r.pool.QueryRow(ctx,
		`SELECT `+classColumns+` FROM classes WHERE id = $1`, id))
}

// GetByJoinCode retrieves the class students join with code.
func (r *ClassRepository) GetByJoinCode(ctx context.Context, code string) (*model.ClassGroup, error) {
	return scanClass(r.pool.QueryRow(ctx,
		`SELECT `+classColumns+` FROM classes WHERE join_code = $1`, code))
}

// ListByOwner retrieves all classes a teacher owns.
func (r *ClassRepository) ListByOwner(ctx context.Context, teacherID uuid.UUID) ([]model.ClassGroup, error) {
	return r.list(ctx,
		`SELECT `+classColumns+` FROM classes WHERE owner_teacher_id = $1 ORDER BY display_name`, teacherID)
}

// ListByIDs retrieves the classes among ids that still exist.
func (r *ClassRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.ClassGroup, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.list(ctx,
		`SELECT `+classColumns+` FROM classes WHERE id = ANY($1) ORDER BY display_name`, ids)
}

// Create inserts a new class. A join code collision yields ErrDuplicate.
func (r *ClassRepository) Create(ctx context.Context, c *model.ClassGroup) error {
	return translate(r.pool.QueryRow(ctx,
		`INSERT INTO classes (display_name, grade, owner_teacher_id, join_code)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		c.DisplayName, c.Grade, c.OwnerTeacherID, c.JoinCode,
	).Scan(&c.ID, &c.CreatedAt))
}

// Update renames an existing class.
func (r *ClassRepository) Update(ctx context.Context, c *model.ClassGroup) error {
	return affected(r.pool.Exec(ctx,
		`UPDATE classes SET display_name = $1, grade = $2 WHERE id = $3`,
		c.DisplayName, c.Grade, c.ID,
	))
}

// Delete removes a class by its ID. Students, tasks and works referencing
// it are left in place.
func (r *ClassRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return affected(r.pool.Exec(ctx, `DELETE FROM classes WHERE id = $1`, id))
}
