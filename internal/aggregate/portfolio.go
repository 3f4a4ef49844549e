package aggregate

import (
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/stemsi/artbox-backend/internal/model"
)

// Portfolio is one student's works within a group, oldest first.
type Portfolio struct {
	StudentID     uuid.UUID    `json:"student_id"`
	StudentName   string       `json:"student_name"`
	StudentNumber string       `json:"student_number"`
	Works         []model.Work `json:"works"`
	// LatestImage is the first image of the most recent work; empty renders
	// as a placeholder slot.
	LatestImage string `json:"latest_image"`
}

// UnitGroup holds the portfolios of every student who submitted to a unit.
type UnitGroup struct {
	UnitLabel  string      `json:"unit_label"`
	Portfolios []Portfolio `json:"portfolios"`
}

// ClassView holds the portfolios of one class across all its tasks.
type ClassView struct {
	ClassID    uuid.UUID   `json:"class_id"`
	ClassName  string      `json:"class_name"`
	Grade      *int        `json:"grade,omitempty"`
	Portfolios []Portfolio `json:"portfolios"`
}

// GroupByUnit groups works by the unit label of their task and then by
// student. Works whose task is not among tasks are left out. Units are
// ordered lexically, portfolios by roster number.
func GroupByUnit(tasks []model.Task, works []model.Work) []UnitGroup {
	labels := make(map[uuid.UUID]string, len(tasks))
	for i := range tasks {
		labels[tasks[i].ID] = tasks[i].UnitLabel()
	}

	byUnit := make(map[string]*studentBuckets)
	for i := range works {
		label, ok := labels[works[i].TaskID]
		if !ok {
			continue
		}
		b, ok := byUnit[label]
		if !ok {
			b = newStudentBuckets()
			byUnit[label] = b
		}
		b.add(works[i])
	}

	units := make([]string, 0, len(byUnit))
	for label := range byUnit {
		units = append(units, label)
	}
	slices.Sort(units)

	groups := make([]UnitGroup, 0, len(units))
	for _, label := range units {
		groups = append(groups, UnitGroup{
			UnitLabel:  label,
			Portfolios: byUnit[label].portfolios(),
		})
	}
	return groups
}

// GroupByClass joins works to their class display name and groups them by
// student. Works failing the read-time consistency check, or whose class is
// not among classes, are excluded. Classes are ordered by display name.
func GroupByClass(classes []model.ClassGroup, tasks []model.Task, works []model.Work) []ClassView {
	known := make(map[uuid.UUID]*model.ClassGroup, len(classes))
	for i := range classes {
		known[classes[i].ID] = &classes[i]
	}

	byClass := make(map[uuid.UUID]*studentBuckets)
	for _, w := range FilterConsistent(tasks, works) {
		if _, ok := known[w.ClassID]; !ok {
			continue
		}
		b, ok := byClass[w.ClassID]
		if !ok {
			b = newStudentBuckets()
			byClass[w.ClassID] = b
		}
		b.add(w)
	}

	views := make([]ClassView, 0, len(classes))
	for i := range classes {
		c := &classes[i]
		view := ClassView{ClassID: c.ID, ClassName: c.DisplayName, Grade: c.Grade, Portfolios: []Portfolio{}}
		if b, ok := byClass[c.ID]; ok {
			view.Portfolios = b.portfolios()
		}
		views = append(views, view)
	}
	slices.SortStableFunc(views, func(a, b ClassView) int {
		return strings.Compare(a.ClassName, b.ClassName)
	})
	return views
}

// studentBuckets collects works per student in discovery order.
type studentBuckets struct {
	order []studentKey
	works map[studentKey][]model.Work
}

func newStudentBuckets() *studentBuckets {
	return &studentBuckets{works: make(map[studentKey][]model.Work)}
}

func (b *studentBuckets) add(w model.Work) {
	key := workStudent(&w)
	if _, ok := b.works[key]; !ok {
		b.order = append(b.order, key)
	}
	b.works[key] = append(b.works[key], w)
}

func (b *studentBuckets) portfolios() []Portfolio {
	out := make([]Portfolio, 0, len(b.order))
	for _, key := range b.order {
		out = append(out, newPortfolio(b.works[key]))
	}
	slices.SortStableFunc(out, func(a, b Portfolio) int {
		return compareStudents(a.StudentNumber, a.StudentName, b.StudentNumber, b.StudentName)
	})
	return out
}

func newPortfolio(works []model.Work) Portfolio {
	sorted := slices.Clone(works)
	sortByCreated(sorted)

	latest := &sorted[len(sorted)-1]
	return Portfolio{
		StudentID:     latest.StudentID,
		StudentName:   latest.StudentName,
		StudentNumber: latest.StudentNumber,
		Works:         sorted,
		LatestImage:   latest.FirstImage(),
	}
}
