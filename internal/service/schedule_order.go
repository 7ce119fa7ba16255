package service

import (
	"sort"
	"strings"
	"time"

	"github.com/KotaSaiGoutham/academy-api/internal/models"
	"github.com/KotaSaiGoutham/academy-api/internal/schedule"
)

// noSlotRank sorts students without any matching slot after everyone else.
const noSlotRank = 1 << 30

type studentRank struct {
	first  int
	second int
	name   string
}

// RankStudents orders the roster by each student's earliest weekly class
// time within the given day range, tie-broken by the second-earliest time
// and then by name (case-insensitive). Students with no parseable slot in
// the range come last. The input slice is not modified.
func RankStudents(students []models.Student, days []time.Weekday) []models.Student {
	ranks := weekRanks(students, days)
	ordered := make([]models.Student, len(students))
	copy(ordered, students)
	sort.SliceStable(ordered, func(i, j int) bool {
		return lessRank(ranks[ordered[i].ID], ranks[ordered[j].ID])
	})
	return ordered
}

// weekRanks computes each student's rank across every day in the range.
// The weekly grid shares one rank map across all of its cells, so a day
// column is ordered by the student's earliest class anywhere in the week,
// not just on that day.
func weekRanks(students []models.Student, days []time.Weekday) map[string]studentRank {
	allowed := make(map[time.Weekday]bool, len(days))
	for _, day := range days {
		allowed[day] = true
	}
	ranks := make(map[string]studentRank, len(students))
	for _, student := range students {
		ranks[student.ID] = rankOf(student, allowed)
	}
	return ranks
}

// OrderEntries sorts a day's (or range's) entries so the students with the
// earliest weekly classes appear first. Each student's rank is derived from
// their own entries within the input: earliest start time, then second
// earliest, then name. Entries of the same student stay ascending by time.
func OrderEntries(entries []models.TimetableEntry) []models.TimetableEntry {
	times := make(map[string][]int)
	names := make(map[string]string)
	for _, entry := range entries {
		minutes := entry.StartAt.Hour()*60 + entry.StartAt.Minute()
		times[entry.StudentID] = append(times[entry.StudentID], minutes)
		names[entry.StudentID] = entry.StudentName
	}

	ranks := make(map[string]studentRank, len(times))
	for id, minutes := range times {
		sort.Ints(minutes)
		rank := studentRank{first: minutes[0], second: noSlotRank, name: strings.ToLower(names[id])}
		if len(minutes) > 1 {
			rank.second = minutes[1]
		}
		ranks[id] = rank
	}

	ordered := make([]models.TimetableEntry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		ri, rj := ranks[ordered[i].StudentID], ranks[ordered[j].StudentID]
		if ri != rj {
			return lessRank(ri, rj)
		}
		return ordered[i].StartAt.Before(ordered[j].StartAt)
	})
	return ordered
}

// orderEntriesRanked sorts entries by a precomputed rank map instead of
// re-deriving ranks from the entries themselves. Same-student entries stay
// ascending by time; ids missing from the map sort last by name.
func orderEntriesRanked(entries []models.TimetableEntry, ranks map[string]studentRank) []models.TimetableEntry {
	ordered := make([]models.TimetableEntry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		ri, rj := rankOrLast(ranks, ordered[i]), rankOrLast(ranks, ordered[j])
		if ri != rj {
			return lessRank(ri, rj)
		}
		return ordered[i].StartAt.Before(ordered[j].StartAt)
	})
	return ordered
}

func rankOrLast(ranks map[string]studentRank, entry models.TimetableEntry) studentRank {
	if rank, ok := ranks[entry.StudentID]; ok {
		return rank
	}
	return studentRank{first: noSlotRank, second: noSlotRank, name: strings.ToLower(entry.StudentName)}
}

func rankOf(student models.Student, allowed map[time.Weekday]bool) studentRank {
	var minutes []int
	for _, raw := range student.WeeklyAvailability {
		slot, ok := schedule.Parse(raw)
		if !ok || !allowed[slot.Weekday] {
			continue
		}
		minutes = append(minutes, slot.Minutes())
	}
	rank := studentRank{first: noSlotRank, second: noSlotRank, name: strings.ToLower(student.FullName)}
	if len(minutes) > 0 {
		sort.Ints(minutes)
		rank.first = minutes[0]
		if len(minutes) > 1 {
			rank.second = minutes[1]
		}
	}
	return rank
}

func lessRank(a, b studentRank) bool {
	if a.first != b.first {
		return a.first < b.first
	}
	if a.second != b.second {
		return a.second < b.second
	}
	return a.name < b.name
}
