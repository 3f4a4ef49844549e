package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/artbox-backend/internal/model"
)

const resourceColumns = `id, title, kind, image_url, image_key, work_id, class_id, teacher_id, created_at`

// ResourceRepository handles shared resources.
type ResourceRepository struct {
	pool *pgxpool.Pool
}

// NewResourceRepository creates a new ResourceRepository.
func NewResourceRepository(pool *pgxpool.Pool) *ResourceRepository {
	return &ResourceRepository{pool: pool}
}

func scanResource(row scanner) (*model.SharedResource, error) {
	res := &model.SharedResource{}
	err := row.Scan(&res.ID, &res.Title, &res.Source.Kind, &res.Source.ImageURL, &res.Source.ImageKey, &res.Source.WorkID,
		&res.ClassID, &res.TeacherID, &res.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return res, nil
}

func (r *ResourceRepository) list(ctx context.Context, query string, args ...any) ([]model.SharedResource, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var resources []model.SharedResource
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		resources = append(resources, *res)
	}
	return resources, rows.Err()
}

// GetByID retrieves a resource by its ID.
func (r *ResourceRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.SharedResource, error) {
	return scanResource(r.pool.QueryRow(ctx,
		`SELECT `+resourceColumns+` FROM shared_resources WHERE id = $1`, id))
}

// ListByClass retrieves the resources shared with a class, newest first.
func (r *ResourceRepository) ListByClass(ctx context.Context, classID uuid.UUID) ([]model.SharedResource, error) {
	return r.list(ctx,
		`SELECT `+resourceColumns+` FROM shared_resources WHERE class_id = $1 ORDER BY created_at DESC`, classID)
}

// ListByTeacher retrieves the resources a teacher authored, newest first.
func (r *ResourceRepository) ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]model.SharedResource, error) {
	return r.list(ctx,
		`SELECT `+resourceColumns+` FROM shared_resources WHERE teacher_id = $1 ORDER BY created_at DESC`, teacherID)
}

// Create inserts a new resource.
func (r *ResourceRepository) Create(ctx context.Context, res *model.SharedResource) error {
	return translate(r.pool.QueryRow(ctx,
		`INSERT INTO shared_resources (title, kind, image_url, image_key, work_id, class_id, teacher_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		res.Title, res.Source.Kind, res.Source.ImageURL, res.Source.ImageKey, res.Source.WorkID, res.ClassID, res.TeacherID,
	).Scan(&res.ID, &res.CreatedAt))
}

// Delete removes a resource by ID.
func (r *ResourceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return affected(r.pool.Exec(ctx, `DELETE FROM shared_resources WHERE id = $1`, id))
}
