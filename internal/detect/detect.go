// Package detect computes content signatures of schedules and classifies a
// refreshed schedule set against the previous one.
package detect

import (
	"time"

	"github.com/cespare/xxhash/v2"

	"schedule_bot/internal/model"
)

const prime = 31

// Hash returns the content signature of a schedule. It depends only on the
// schedule's fields: the lessons are visited in ascending date order, lessons
// of one date in their sequence order, so equal schedules hash equal in any
// process.
func Hash(s model.Schedule) uint64 {
	var result uint64
	if s.WeekNumber != nil {
		result = uint64(*s.WeekNumber)
	}
	result = prime*result + lessonsHash(s)
	result = prime*result + dateHash(s.WeekStart)
	result = prime*result + dateHash(s.WeekEnd)
	result = prime*result + xxhash.Sum64String(string(s.Type))
	return result
}

// LessonHash returns the content signature of a single lesson.
func LessonHash(l model.Lesson) uint64 {
	result := xxhash.Sum64String(l.Subject)
	result = prime*result + uint64(l.Course)
	result = prime*result + xxhash.Sum64String(l.Programme)
	result = prime*result + xxhash.Sum64String(l.Group)
	result = prime*result + optIntHash(l.SubGroup)
	result = prime*result + dateHash(l.Date)
	result = prime*result + xxhash.Sum64String(l.StartTimeStr)
	result = prime*result + xxhash.Sum64String(l.EndTimeStr)
	result = prime*result + timeHash(l.StartTime)
	result = prime*result + timeHash(l.EndTime)
	result = prime*result + optStringHash(l.Lecturer)
	result = prime*result + optIntHash(l.Building)
	result = prime*result + optStringHash(l.Office)
	result = prime*result + listHash(l.Links)
	result = prime*result + listHash(l.AdditionalInfo)
	result = prime*result + xxhash.Sum64String(string(l.Type))
	result = prime*result + xxhash.Sum64String(string(l.ParentScheduleType))
	return result
}

func lessonsHash(s model.Schedule) uint64 {
	var result uint64
	// Re-canonicalize in case the schedule was not built with NewSchedule.
	for _, day := range s.WithLessons(s.Lessons).Days() {
		result = prime*result + dateHash(day.Date)
		for _, l := range day.Lessons {
			result = prime*result + LessonHash(l)
		}
	}
	return result
}

func dateHash(t time.Time) uint64 {
	return xxhash.Sum64String(t.Format(model.DateLayout))
}

func timeHash(t time.Time) uint64 {
	return uint64(t.UnixNano())
}

func optIntHash(v *int) uint64 {
	if v == nil {
		return 0
	}
	return prime + uint64(*v)
}

func optStringHash(v *string) uint64 {
	if v == nil {
		return 0
	}
	return xxhash.Sum64String(*v)
}

func listHash(items []string) uint64 {
	result := uint64(len(items))
	for _, it := range items {
		result = prime*result + xxhash.Sum64String(it)
	}
	return result
}

// Info returns the lesson-free descriptor of a schedule.
func Info(s model.Schedule) model.ScheduleInfo {
	return model.ScheduleInfo{
		WeekNumber: s.WeekNumber,
		WeekStart:  s.WeekStart,
		WeekEnd:    s.WeekEnd,
		Type:       s.Type,
		Hash:       Hash(s),
	}
}

// Infos returns the descriptors of all schedules in order.
func Infos(schedules []model.Schedule) []model.ScheduleInfo {
	infos := make([]model.ScheduleInfo, 0, len(schedules))
	for _, s := range schedules {
		infos = append(infos, Info(s))
	}
	return infos
}

// Classify compares the current schedules against the descriptors of the
// previous cycle. Schedules are matched by week start, week end and type.
// Results keep the order of current, deleted entries the order of previous.
func Classify(previous []model.ScheduleInfo, current []model.Schedule) model.FilesChanging {
	prevByKey := make(map[model.ScheduleKey]model.ScheduleInfo, len(previous))
	for _, p := range previous {
		prevByKey[p.Key()] = p
	}

	var changes model.FilesChanging
	seen := make(map[model.ScheduleKey]bool, len(current))
	for _, s := range current {
		info := Info(s)
		key := info.Key()
		seen[key] = true

		p, ok := prevByKey[key]
		if !ok || p.Hash != info.Hash {
			changes.AddedOrChanged = append(changes.AddedOrChanged, info)
			continue
		}
		changes.WithoutChanges = append(changes.WithoutChanges, info)
	}

	for _, p := range previous {
		if !seen[p.Key()] {
			changes.Deleted = append(changes.Deleted, p)
		}
	}
	return changes
}
