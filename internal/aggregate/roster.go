// Package aggregate turns flat, independently fetched collections (roster
// entries, tasks, works) into the ordered and grouped structures the views
// render. Every function is pure: no I/O, inputs are never mutated, and all
// sorts are stable so identical inputs always produce identical outputs.
package aggregate

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/stemsi/artbox-backend/internal/model"
)

// MissingRosterNumber is the sort position of entries whose roster number is
// missing or not numeric. It puts them after every real roster number.
const MissingRosterNumber = 999

// RosterNumber parses a roster number, returning MissingRosterNumber when it
// is empty or not an integer.
func RosterNumber(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return MissingRosterNumber
	}
	return n
}

// SortRoster returns the entries ordered by roster number, ties by name.
func SortRoster(entries []model.RosterEntry) []model.RosterEntry {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, func(a, b model.RosterEntry) int {
		return compareStudents(a.StudentNumber, a.Name, b.StudentNumber, b.Name)
	})
	return out
}

func compareStudents(numA, nameA, numB, nameB string) int {
	if c := cmp.Compare(RosterNumber(numA), RosterNumber(numB)); c != 0 {
		return c
	}
	return strings.Compare(nameA, nameB)
}

// studentKey identifies a student across works. The stable id wins; rows
// written before ids were recorded fall back to the display name.
type studentKey struct {
	id   uuid.UUID
	name string
}

func workStudent(w *model.Work) studentKey {
	if w.StudentID != uuid.Nil {
		return studentKey{id: w.StudentID}
	}
	return studentKey{name: w.StudentName}
}

// sortByCreated orders works ascending by created_at. Missing timestamps are
// the zero time and therefore sort first.
func sortByCreated(works []model.Work) {
	slices.SortStableFunc(works, func(a, b model.Work) int {
		return a.SubmittedAt().Compare(b.SubmittedAt())
	})
}
