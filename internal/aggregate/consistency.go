package aggregate

import (
	"github.com/google/uuid"
	"github.com/stemsi/artbox-backend/internal/model"
)

// FilterConsistent drops works whose task is unknown or whose class id
// disagrees with the task's. Inconsistent rows are excluded, never reported.
func FilterConsistent(tasks []model.Task, works []model.Work) []model.Work {
	classOf := make(map[uuid.UUID]uuid.UUID, len(tasks))
	for i := range tasks {
		classOf[tasks[i].ID] = tasks[i].ClassID
	}

	out := make([]model.Work, 0, len(works))
	for i := range works {
		classID, ok := classOf[works[i].TaskID]
		if !ok || classID != works[i].ClassID {
			continue
		}
		out = append(out, works[i])
	}
	return out
}

// LatestPerStudentTask keeps the most recent work of every (student, task)
// pair, oldest first. Equal timestamps keep the later entry of the input.
func LatestPerStudentTask(works []model.Work) []model.Work {
	type pair struct {
		student studentKey
		task    uuid.UUID
	}

	latest := make(map[pair]int, len(works))
	for i := range works {
		p := pair{student: workStudent(&works[i]), task: works[i].TaskID}
		if j, ok := latest[p]; ok && works[i].SubmittedAt().Before(works[j].SubmittedAt()) {
			continue
		}
		latest[p] = i
	}

	out := make([]model.Work, 0, len(latest))
	for i := range works {
		p := pair{student: workStudent(&works[i]), task: works[i].TaskID}
		if latest[p] == i {
			out = append(out, works[i])
		}
	}
	sortByCreated(out)
	return out
}
