// Package model defines the domain types used across the application.
package model

import (
	"slices"
	"time"
)

// DateLayout is the canonical text form of a calendar date.
const DateLayout = "2006-01-02"

// LessonType classifies a lesson.
type LessonType string

// Supported lesson types.
const (
	LessonLecture       LessonType = "LECTURE"
	LessonSeminar       LessonType = "SEMINAR"
	LessonPractice      LessonType = "PRACTICE"
	LessonExam          LessonType = "EXAM"
	LessonTest          LessonType = "TEST"
	LessonStatement     LessonType = "STATEMENT"
	LessonEnglish       LessonType = "ENGLISH"
	LessonCommonEnglish LessonType = "COMMON_ENGLISH"
	LessonCommonMinor   LessonType = "COMMON_MINOR"
	LessonMinor         LessonType = "MINOR"
	LessonEvent         LessonType = "EVENT"
	LessonUnknown       LessonType = "UNKNOWN"
)

// EventSubject returns the calendar title of a lesson of this type.
func (t LessonType) EventSubject(subject string) string {
	switch t {
	case LessonLecture:
		return "Lecture: " + subject
	case LessonSeminar:
		return "Seminar: " + subject
	case LessonPractice:
		return "Practice: " + subject
	case LessonExam:
		return "Exam: " + subject
	case LessonTest:
		return "Test: " + subject
	case LessonStatement:
		return "Grade statement: " + subject
	case LessonEvent:
		return "Event: " + subject
	default:
		return subject
	}
}

// ScheduleType classifies a schedule.
type ScheduleType string

// Supported schedule types.
const (
	CommonWeekSchedule ScheduleType = "COMMON_WEEK_SCHEDULE"
	QuarterSchedule    ScheduleType = "QUARTER_SCHEDULE"
	SessionSchedule    ScheduleType = "SESSION_SCHEDULE"
)

// Lesson is a single class session. Values are treated as immutable.
type Lesson struct {
	Subject            string
	Course             int
	Programme          string
	Group              string
	SubGroup           *int
	Date               time.Time
	StartTimeStr       string
	EndTimeStr         string
	StartTime          time.Time
	EndTime            time.Time
	Lecturer           *string
	Office             *string
	Building           *int
	Links              []string
	AdditionalInfo     []string
	Type               LessonType
	ParentScheduleType ScheduleType
}

// Equal reports whether two lessons have identical fields.
func (l Lesson) Equal(o Lesson) bool {
	return l.Subject == o.Subject &&
		l.Course == o.Course &&
		l.Programme == o.Programme &&
		l.Group == o.Group &&
		ptrEqual(l.SubGroup, o.SubGroup) &&
		l.Date.Equal(o.Date) &&
		l.StartTimeStr == o.StartTimeStr &&
		l.EndTimeStr == o.EndTimeStr &&
		l.StartTime.Equal(o.StartTime) &&
		l.EndTime.Equal(o.EndTime) &&
		ptrEqual(l.Lecturer, o.Lecturer) &&
		ptrEqual(l.Office, o.Office) &&
		ptrEqual(l.Building, o.Building) &&
		slices.Equal(l.Links, o.Links) &&
		slices.Equal(l.AdditionalInfo, o.AdditionalInfo) &&
		l.Type == o.Type &&
		l.ParentScheduleType == o.ParentScheduleType
}

// CompareLessons orders lessons by date only. Lessons on the same date
// compare equal, so callers must use a stable sort to keep their input
// order.
func CompareLessons(a, b Lesson) int {
	return a.Date.Compare(b.Date)
}

func ptrEqual[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Day groups the lessons of one calendar date.
type Day struct {
	Date    time.Time
	Lessons []Lesson
}

// Schedule is one week of lessons of a given schedule type.
// Lessons are kept in ascending date order; the slice must not be modified.
type Schedule struct {
	WeekNumber *int
	Lessons    []Lesson
	WeekStart  time.Time
	WeekEnd    time.Time
	Type       ScheduleType
}

// NewSchedule builds a Schedule from a copy of lessons stably sorted by date.
func NewSchedule(weekNumber *int, weekStart, weekEnd time.Time, typ ScheduleType, lessons []Lesson) Schedule {
	sorted := slices.Clone(lessons)
	slices.SortStableFunc(sorted, CompareLessons)
	return Schedule{
		WeekNumber: weekNumber,
		Lessons:    sorted,
		WeekStart:  weekStart,
		WeekEnd:    weekEnd,
		Type:       typ,
	}
}

// WithLessons returns a copy of s holding the given lessons instead.
func (s Schedule) WithLessons(lessons []Lesson) Schedule {
	return NewSchedule(s.WeekNumber, s.WeekStart, s.WeekEnd, s.Type, lessons)
}

// Days derives the date index of the schedule in ascending date order.
func (s Schedule) Days() []Day {
	var days []Day
	for _, l := range s.Lessons {
		if n := len(days); n > 0 && days[n-1].Date.Equal(l.Date) {
			days[n-1].Lessons = append(days[n-1].Lessons, l)
			continue
		}
		days = append(days, Day{Date: l.Date, Lessons: []Lesson{l}})
	}
	return days
}

// Key returns the identity used to match a schedule across refresh cycles.
func (s Schedule) Key() ScheduleKey {
	return newKey(s.WeekStart, s.WeekEnd, s.Type)
}

// ScheduleKey identifies a schedule slot independently of its content.
type ScheduleKey struct {
	WeekStart string
	WeekEnd   string
	Type      ScheduleType
}

func newKey(start, end time.Time, typ ScheduleType) ScheduleKey {
	return ScheduleKey{
		WeekStart: start.Format(DateLayout),
		WeekEnd:   end.Format(DateLayout),
		Type:      typ,
	}
}

// ScheduleInfo describes a schedule without its lessons.
type ScheduleInfo struct {
	WeekNumber *int
	WeekStart  time.Time
	WeekEnd    time.Time
	Type       ScheduleType
	Hash       uint64
}

// Key returns the identity used to match a schedule across refresh cycles.
func (i ScheduleInfo) Key() ScheduleKey {
	return newKey(i.WeekStart, i.WeekEnd, i.Type)
}

// FilesChanging is the difference between two consecutive schedule sets.
type FilesChanging struct {
	AddedOrChanged []ScheduleInfo
	WithoutChanges []ScheduleInfo
	Deleted        []ScheduleInfo
}

// HasChanges reports whether anything was added, changed or deleted.
func (c FilesChanging) HasChanges() bool {
	return len(c.AddedOrChanged) > 0 || len(c.Deleted) > 0
}

// Date returns midnight UTC of the calendar day t falls on in its location.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
