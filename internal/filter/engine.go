// Package filter projects schedules down to the lessons of one user.
package filter

import (
	"schedule_bot/internal/model"
)

// Match checks whether a lesson belongs to the user's group and subgroup.
// Lessons without a subgroup match every subgroup of their group.
func Match(l model.Lesson, s model.Settings) bool {
	if l.Group != s.Group {
		return false
	}
	if l.SubGroup != nil {
		return *l.SubGroup == s.SubGroup
	}
	return true
}

// ForUser returns a copy of every schedule holding only the lessons that
// match the settings. Schedules left without lessons are kept.
// The input is only read, so concurrent calls may share it.
func ForUser(schedules []model.Schedule, s model.Settings) []model.Schedule {
	out := make([]model.Schedule, 0, len(schedules))
	for _, sch := range schedules {
		var kept []model.Lesson
		for _, l := range sch.Lessons {
			if Match(l, s) {
				kept = append(kept, l)
			}
		}
		out = append(out, sch.WithLessons(kept))
	}
	return out
}

// CountLessons returns the total number of lessons across schedules.
func CountLessons(schedules []model.Schedule) int {
	n := 0
	for _, s := range schedules {
		n += len(s.Lessons)
	}
	return n
}
