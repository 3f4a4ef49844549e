package aggregate

import (
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/artbox-backend/internal/model"
)

func ptr[T any](v T) *T { return &v }

func at(sec int64) *time.Time {
	t := time.Unix(sec, 0).UTC()
	return &t
}

func work(id string, student uuid.UUID, name, number string, task uuid.UUID, created *time.Time, images ...string) model.Work {
	w := model.Work{
		ID:            uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)),
		StudentID:     student,
		StudentName:   name,
		StudentNumber: number,
		TaskID:        task,
		CreatedAt:     created,
		Images:        []model.ImageRef{},
		Status:        model.WorkStatusPending,
	}
	for _, img := range images {
		w.Images = append(w.Images, model.ImageRef{URL: img})
	}
	return w
}

func ids(works []model.Work) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(works))
	for _, w := range works {
		out = append(out, w.ID)
	}
	return out
}
