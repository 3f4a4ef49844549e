package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/artbox-backend/internal/model"
)

const taskColumns = `id, title, unit_name, class_id, owner_teacher_id, deadline, created_at`

// TaskRepository handles task box data access.
type TaskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

func scanTask(row scanner) (*model.Task, error) {
	t := &model.Task{}
	if err := row.Scan(&t.ID, &t.Title, &t.UnitName, &t.ClassID, &t.OwnerTeacherID, &t.Deadline, &t.CreatedAt); err != nil {
		return nil, translate(err)
	}
	return t, nil
}

func (r *TaskRepository) list(ctx context.Context, query string, args ...any) ([]model.Task, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// GetByID retrieves a task by its ID.
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	return scanTask(r.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
}

// ListByOwner retrieves every task a teacher created, newest first.
func (r *TaskRepository) ListByOwner(ctx context.Context, teacherID uuid.UUID) ([]model.Task, error) {
	return r.list(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE owner_teacher_id = $1 ORDER BY created_at DESC`, teacherID)
}

// ListByClass retrieves the task boxes of a class, newest first.
func (r *TaskRepository) ListByClass(ctx context.Context, classID uuid.UUID) ([]model.Task, error) {
	return r.list(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE class_id = $1 ORDER BY created_at DESC`, classID)
}

// Create inserts a new task.
func (r *TaskRepository) Create(ctx context.Context, t *model.Task) error {
	return translate(r.pool.QueryRow(ctx,
		`INSERT INTO tasks (title, unit_name, class_id, owner_teacher_id, deadline)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		t.Title, t.UnitName, t.ClassID, t.OwnerTeacherID, t.Deadline,
	).Scan(&t.ID, &t.CreatedAt))
}

// Update modifies title, unit, class and deadline of a task.
func (r *TaskRepository) Update(ctx context.Context, t *model.Task) error {
	return affected(r.pool.Exec(ctx,
		`UPDATE tasks SET title = $1, unit_name = $2, class_id = $3, deadline = $4 WHERE id = $5`,
		t.Title, t.UnitName, t.ClassID, t.Deadline, t.ID,
	))
}

// Delete removes a task by ID. Works submitted to it remain and dangle.
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return affected(r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id))
}
