package aggregate

import (
	"math"

	"github.com/google/uuid"
	"github.com/stemsi/artbox-backend/internal/model"
)

// Tier buckets a submission percentage for display.
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// RateTier maps a percentage to its tier: below 70 is low, 70 to 89 is
// medium, 90 and above is high.
func RateTier(percentage int) Tier {
	switch {
	case percentage >= 90:
		return TierHigh
	case percentage >= 70:
		return TierMedium
	default:
		return TierLow
	}
}

// StudentSubmission is one roster row of a submission status table.
type StudentSubmission struct {
	StudentID     uuid.UUID   `json:"student_id"`
	StudentNumber string      `json:"student_number"`
	StudentName   string      `json:"student_name"`
	IsSubmitted   bool        `json:"is_submitted"`
	Work          *model.Work `json:"work,omitempty"`
}

// SubmissionRate summarises how much of a roster has submitted to one task.
type SubmissionRate struct {
	SubmittedCount int                 `json:"submitted_count"`
	TotalCount     int                 `json:"total_count"`
	Percentage     int                 `json:"percentage"`
	Tier           Tier                `json:"tier"`
	PerStudent     []StudentSubmission `json:"per_student"`
}

// ComputeSubmissionRate correlates works for one task with the class roster.
// Entries are matched by student id; works or entries without an id fall
// back to display-name equality. When a student has several works the
// latest one is referenced. An empty roster yields 0 percent.
func ComputeSubmissionRate(roster []model.RosterEntry, works []model.Work) SubmissionRate {
	byID := make(map[uuid.UUID]*model.Work)
	byName := make(map[string]*model.Work)
	for _, w := range LatestPerStudentTask(works) {
		if w.StudentID != uuid.Nil {
			byID[w.StudentID] = &w
		}
		if prev, ok := byName[w.StudentName]; !ok || !w.SubmittedAt().Before(prev.SubmittedAt()) {
			byName[w.StudentName] = &w
		}
	}

	sorted := SortRoster(roster)
	rate := SubmissionRate{
		TotalCount: len(sorted),
		PerStudent: make([]StudentSubmission, 0, len(sorted)),
	}
	for _, e := range sorted {
		row := StudentSubmission{
			StudentID:     e.StudentID,
			StudentNumber: e.StudentNumber,
			StudentName:   e.Name,
		}
		if w := matchWork(e, byID, byName); w != nil {
			row.IsSubmitted = true
			row.Work = w
			rate.SubmittedCount++
		}
		rate.PerStudent = append(rate.PerStudent, row)
	}

	if rate.TotalCount > 0 {
		rate.Percentage = int(math.Round(float64(rate.SubmittedCount) / float64(rate.TotalCount) * 100))
	}
	rate.Tier = RateTier(rate.Percentage)
	return rate
}

func matchWork(e model.RosterEntry, byID map[uuid.UUID]*model.Work, byName map[string]*model.Work) *model.Work {
	if e.StudentID != uuid.Nil {
		if w, ok := byID[e.StudentID]; ok {
			return w
		}
	}
	w, ok := byName[e.Name]
	if !ok {
		return nil
	}
	// A work carrying a different student's id is not a name match.
	if e.StudentID != uuid.Nil && w.StudentID != uuid.Nil {
		return nil
	}
	return w
}
