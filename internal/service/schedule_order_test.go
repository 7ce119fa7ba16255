package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KotaSaiGoutham/academy-api/internal/models"
	"github.com/KotaSaiGoutham/academy-api/internal/schedule"
)

func TestRankStudentsEarliestFirstWithTieBreaks(t *testing.T) {
	students := []models.Student{
		{ID: "a", FullName: "Anita", WeeklyAvailability: []string{"Monday-09:00am"}},
		{ID: "b", FullName: "Badri", WeeklyAvailability: []string{"Monday-09:00am", "Tuesday-10:00am"}},
		{ID: "c", FullName: "Chitra", WeeklyAvailability: []string{"Monday-09:00am", "Wednesday-09:30am"}},
		{ID: "d", FullName: "Divya", WeeklyAvailability: nil},
	}

	ordered := RankStudents(students, schedule.Weekdays)

	ids := make([]string, len(ordered))
	for i, s := range ordered {
		ids[i] = s.ID
	}
	// all share the 09:00 earliest slot; the second-earliest breaks the tie,
	// a student without a second slot sorts after those with one, and the
	// slotless student comes last
	assert.Equal(t, []string{"c", "b", "a", "d"}, ids)
}

func TestRankStudentsFallsBackToName(t *testing.T) {
	students := []models.Student{
		{ID: "z", FullName: "zoya", WeeklyAvailability: []string{"Monday-09:00am"}},
		{ID: "a", FullName: "Amar", WeeklyAvailability: []string{"Friday-09:00am"}},
	}

	ordered := RankStudents(students, schedule.Weekdays)
	assert.Equal(t, "a", ordered[0].ID)
	assert.Equal(t, "z", ordered[1].ID)
}

func TestRankStudentsIgnoresSlotsOutsideRange(t *testing.T) {
	students := []models.Student{
		{ID: "a", FullName: "Anita", WeeklyAvailability: []string{"Sunday-08:00am"}},
		{ID: "b", FullName: "Badri", WeeklyAvailability: []string{"Monday-09:00am"}},
	}

	ordered := RankStudents(students, []time.Weekday{time.Monday})
	// Anita only has a Sunday slot, outside the range, so she ranks last
	assert.Equal(t, "b", ordered[0].ID)
	assert.Equal(t, "a", ordered[1].ID)
}

func TestOrderEntriesGroupsByStudentRank(t *testing.T) {
	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	entries := []models.TimetableEntry{
		entryAt("b", "Badri", day, 9, 0),
		entryAt("b", "Badri", day, 10, 0),
		entryAt("c", "Chitra", day, 9, 0),
		entryAt("c", "Chitra", day, 9, 30),
		entryAt("a", "Anita", day, 9, 0),
	}

	ordered := OrderEntries(entries)
	require.Len(t, ordered, 5)

	got := make([]string, len(ordered))
	for i, e := range ordered {
		got[i] = e.StudentID
	}
	assert.Equal(t, []string{"c", "c", "b", "b", "a"}, got)

	// a student's own entries stay ascending by start time
	assert.True(t, ordered[0].StartAt.Before(ordered[1].StartAt))
	assert.True(t, ordered[2].StartAt.Before(ordered[3].StartAt))
}

func TestOrderEntriesEmpty(t *testing.T) {
	assert.Empty(t, OrderEntries(nil))
}

func entryAt(studentID, name string, day time.Time, hour, minute int) models.TimetableEntry {
	start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC)
	return models.TimetableEntry{
		StudentID:   studentID,
		StudentName: name,
		ClassDate:   day,
		StartAt:     start,
		EndAt:       start.Add(time.Hour),
	}
}
