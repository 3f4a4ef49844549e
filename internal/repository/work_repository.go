package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/artbox-backend/internal/model"
)

const workColumns = `id, student_id, student_name, student_number, class_id, task_id, task_title,
	unit_name, portfolio_title, images, comment, teacher_feedback, brightness, status, created_at`

// WorkRepository handles submitted works. Lookups are equality filters on at
// most two fields; joins against tasks and classes happen in memory.
type WorkRepository struct {
	pool *pgxpool.Pool
}

// NewWorkRepository creates a new WorkRepository.
func NewWorkRepository(pool *pgxpool.Pool) *WorkRepository {
	return &WorkRepository{pool: pool}
}

func scanWork(row scanner) (*model.Work, error) {
	w := &model.Work{}
	var studentID *uuid.UUID
	var images []byte
	err := row.Scan(&w.ID, &studentID, &w.StudentName, &w.StudentNumber, &w.ClassID, &w.TaskID,
		&w.TaskTitle, &w.UnitName, &w.PortfolioTitle, &images, &w.Comment, &w.TeacherFeedback,
		&w.Brightness, &w.Status, &w.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	if studentID != nil {
		w.StudentID = *studentID
	}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &w.Images); err != nil {
			return nil, fmt.Errorf("decode images of work %s: %w", w.ID, err)
		}
	}
	if w.Images == nil {
		w.Images = []model.ImageRef{}
	}
	return w, nil
}

func (r *WorkRepository) list(ctx context.Context, query string, args ...any) ([]model.Work, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var works []model.Work
	for rows.Next() {
		w, err := scanWork(rows)
		if err != nil {
			return nil, err
		}
		works = append(works, *w)
	}
	return works, rows.Err()
}

// nullableID stores uuid.Nil as NULL.
func nullableID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

// GetByID retrieves a work by its ID.
func (r *WorkRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Work, error) {
	return scanWork(r.pool.QueryRow(ctx,
		`SELECT `+workColumns+` FROM works WHERE id = $1`, id))
}

// ListByTask retrieves every work submitted to a task, oldest first.
func (r *WorkRepository) ListByTask(ctx context.Context, taskID uuid.UUID) ([]model.Work, error) {
	return r.list(ctx,
		`SELECT `+workColumns+` FROM works WHERE task_id = $1 ORDER BY created_at NULLS FIRST`, taskID)
}

// ListByTasks retrieves the works of several tasks in one round trip.
func (r *WorkRepository) ListByTasks(ctx context.Context, taskIDs []uuid.UUID) ([]model.Work, error) {
	if len(taskIDs) == 0 {
		return nil, nil
	}
	return r.list(ctx,
		`SELECT `+workColumns+` FROM works WHERE task_id = ANY($1) ORDER BY created_at NULLS FIRST`, taskIDs)
}

// ListByClass retrieves every work carrying a class id.
func (r *WorkRepository) ListByClass(ctx context.Context, classID uuid.UUID) ([]model.Work, error) {
	return r.list(ctx,
		`SELECT `+workColumns+` FROM works WHERE class_id = $1 ORDER BY created_at NULLS FIRST`, classID)
}

// ListByStudent retrieves a student's own works, oldest first.
func (r *WorkRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]model.Work, error) {
	return r.list(ctx,
		`SELECT `+workColumns+` FROM works WHERE student_id = $1 ORDER BY created_at NULLS FIRST`, studentID)
}

// ListByTaskAndStudent retrieves one student's submissions to one task.
func (r *WorkRepository) ListByTaskAndStudent(ctx context.Context, taskID, studentID uuid.UUID) ([]model.Work, error) {
	return r.list(ctx,
		`SELECT `+workColumns+` FROM works WHERE task_id = $1 AND student_id = $2
		 ORDER BY created_at NULLS FIRST`, taskID, studentID)
}

// Create inserts a new work. ID, status and created_at come back from the database.
func (r *WorkRepository) Create(ctx context.Context, w *model.Work) error {
	images, err := json.Marshal(w.Images)
	if err != nil {
		return fmt.Errorf("encode images: %w", err)
	}
	return translate(r.pool.QueryRow(ctx,
		`INSERT INTO works (student_id, student_name, student_number, class_id, task_id, task_title,
		                    unit_name, portfolio_title, images, comment, brightness)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, status, created_at`,
		nullableID(w.StudentID), w.StudentName, w.StudentNumber, w.ClassID, w.TaskID, w.TaskTitle,
		w.UnitName, w.PortfolioTitle, images, w.Comment, w.Brightness,
	).Scan(&w.ID, &w.Status, &w.CreatedAt))
}

// SetFeedback stores teacher feedback and marks the work as checked.
func (r *WorkRepository) SetFeedback(ctx context.Context, id uuid.UUID, feedback string) error {
	return affected(r.pool.Exec(ctx,
		`UPDATE works SET teacher_feedback = $1, status = $2 WHERE id = $3`,
		feedback, model.WorkStatusChecked, id,
	))
}

// SetThumbnail records the thumbnail url of the image at index.
func (r *WorkRepository) SetThumbnail(ctx context.Context, id uuid.UUID, index int, url string) error {
	path := []string{fmt.Sprint(index), "thumbnail_url"}
	return affected(r.pool.Exec(ctx,
		`UPDATE works SET images = jsonb_set(images, $1, to_jsonb($2::text))
		 WHERE id = $3 AND jsonb_array_length(images) > $4`,
		path, url, id, index,
	))
}

// Delete removes a work by ID.
func (r *WorkRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return affected(r.pool.Exec(ctx, `DELETE FROM works WHERE id = $1`, id))
}
