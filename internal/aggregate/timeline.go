package aggregate

import (
	"github.com/google/uuid"
	"github.com/stemsi/artbox-backend/internal/model"
)

// StudentFilter selects one student's works. The id is preferred; the name
// is used for works recorded without one. A zero filter matches everyone.
type StudentFilter struct {
	ID   uuid.UUID
	Name string
}

func (f StudentFilter) matches(w *model.Work) bool {
	switch {
	case f.ID != uuid.Nil && w.StudentID != uuid.Nil:
		return w.StudentID == f.ID
	case f.Name != "":
		return w.StudentName == f.Name
	default:
		return f.ID == uuid.Nil
	}
}

// Timeline is the ordered work sequence behind the journey viewer. Index is
// the caller-managed playback position.
type Timeline struct {
	Works []model.Work `json:"works"`
	Index int          `json:"index"`
}

// BuildPortfolioTimeline keeps the works whose unit name or task title equals
// unit (an empty unit keeps all) and that belong to the student, oldest
// first, with playback at the start.
func BuildPortfolioTimeline(works []model.Work, unit string, student StudentFilter) Timeline {
	out := make([]model.Work, 0, len(works))
	for i := range works {
		w := &works[i]
		if unit != "" && w.UnitName != unit && w.TaskTitle != unit {
			continue
		}
		if !student.matches(w) {
			continue
		}
		out = append(out, *w)
	}
	sortByCreated(out)
	return Timeline{Works: out}
}

// Current returns the work at the playback position.
func (t Timeline) Current() (model.Work, bool) {
	if t.Index < 0 || t.Index >= len(t.Works) {
		return model.Work{}, false
	}
	return t.Works[t.Index], true
}

// Next advances playback by one, stopping at the last work.
func (t Timeline) Next() Timeline {
	if t.Index < len(t.Works)-1 {
		t.Index++
	}
	return t
}

// Prev steps playback back by one, stopping at the first work.
func (t Timeline) Prev() Timeline {
	if t.Index > 0 {
		t.Index--
	}
	return t
}

// AtEnd reports whether playback reached the most recent work.
func (t Timeline) AtEnd() bool {
	return t.Index >= len(t.Works)-1
}
