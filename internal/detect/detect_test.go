package detect

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"schedule_bot/internal/model"
)

func ptr[T any](v T) *T { return &v }

func day(d int) time.Time {
	return time.Date(2024, time.September, d, 0, 0, 0, 0, time.UTC)
}

func lesson(subject string, d int) model.Lesson {
	return model.Lesson{
		Subject:            subject,
		Course:             2,
		Programme:          "Software Engineering",
		Group:              "BSE201",
		SubGroup:           ptr(1),
		Date:               day(d),
		StartTimeStr:       "8:10",
		EndTimeStr:         "9:30",
		StartTime:          day(d).Add(8*time.Hour + 10*time.Minute),
		EndTime:            day(d).Add(9*time.Hour + 30*time.Minute),
		Lecturer:           ptr("Ivanova A.A."),
		Office:             ptr("121"),
		Building:           ptr(2),
		Links:              []string{"https://meet.example.com/a"},
		AdditionalInfo:     []string{"bring laptops"},
		Type:               model.LessonSeminar,
		ParentScheduleType: model.CommonWeekSchedule,
	}
}

func week(startDay int, typ model.ScheduleType, lessons ...model.Lesson) model.Schedule {
	return model.NewSchedule(ptr(6), day(startDay), day(startDay+6), typ, lessons)
}

func TestHashStableForEqualSchedules(t *testing.T) {
	a := week(2, model.CommonWeekSchedule, lesson("Algebra", 2), lesson("Physics", 3), lesson("History", 2))
	b := week(2, model.CommonWeekSchedule, lesson("Algebra", 2), lesson("Physics", 3), lesson("History", 2))

	if diff := cmp.Diff(Hash(a), Hash(b)); diff != "" {
		t.Errorf("hash mismatch for equal schedules (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Hash(a), Hash(a)); diff != "" {
		t.Errorf("hash not repeatable (-want +got):\n%s", diff)
	}
}

func TestHashIgnoresDateGroupingOrderOfInput(t *testing.T) {
	// Same date map, different interleaving of dates in the input slice.
	a := week(2, model.CommonWeekSchedule, lesson("Algebra", 2), lesson("Physics", 3), lesson("History", 2))
	b := week(2, model.CommonWeekSchedule, lesson("Physics", 3), lesson("Algebra", 2), lesson("History", 2))

	if Hash(a) != Hash(b) {
		t.Error("schedules with the same date mapping should hash equal")
	}
}

func TestHashCanonicalizesUnsortedLiteral(t *testing.T) {
	sorted := week(2, model.CommonWeekSchedule, lesson("Algebra", 2), lesson("Physics", 3))
	literal := model.Schedule{
		WeekNumber: ptr(6),
		Lessons:    []model.Lesson{lesson("Physics", 3), lesson("Algebra", 2)},
		WeekStart:  day(2),
		WeekEnd:    day(8),
		Type:       model.CommonWeekSchedule,
	}
	if Hash(sorted) != Hash(literal) {
		t.Error("unsorted literal should hash like its canonical form")
	}
}

func TestHashSensitivity(t *testing.T) {
	base := lesson("Algebra", 2)
	baseHash := Hash(week(2, model.CommonWeekSchedule, base))

	tests := []struct {
		name   string
		mutate func(l *model.Lesson)
	}{
		{name: "subject", mutate: func(l *model.Lesson) { l.Subject = "Geometry" }},
		{name: "course", mutate: func(l *model.Lesson) { l.Course = 3 }},
		{name: "programme", mutate: func(l *model.Lesson) { l.Programme = "Economics" }},
		{name: "group", mutate: func(l *model.Lesson) { l.Group = "BSE202" }},
		{name: "subgroup value", mutate: func(l *model.Lesson) { l.SubGroup = ptr(2) }},
		{name: "subgroup removed", mutate: func(l *model.Lesson) { l.SubGroup = nil }},
		{name: "date", mutate: func(l *model.Lesson) { l.Date = day(3) }},
		{name: "start time string", mutate: func(l *model.Lesson) { l.StartTimeStr = "9:40" }},
		{name: "end time string", mutate: func(l *model.Lesson) { l.EndTimeStr = "11:00" }},
		{name: "start time", mutate: func(l *model.Lesson) { l.StartTime = l.StartTime.Add(time.Hour) }},
		{name: "end time", mutate: func(l *model.Lesson) { l.EndTime = l.EndTime.Add(time.Hour) }},
		{name: "lecturer", mutate: func(l *model.Lesson) { l.Lecturer = ptr("Petrov P.P.") }},
		{name: "lecturer removed", mutate: func(l *model.Lesson) { l.Lecturer = nil }},
		{name: "office", mutate: func(l *model.Lesson) { l.Office = ptr("122") }},
		{name: "building", mutate: func(l *model.Lesson) { l.Building = ptr(0) }},
		{name: "building removed", mutate: func(l *model.Lesson) { l.Building = nil }},
		{name: "links", mutate: func(l *model.Lesson) { l.Links = []string{"https://meet.example.com/b"} }},
		{name: "extra link", mutate: func(l *model.Lesson) { l.Links = append(l.Links, "https://x") }},
		{name: "additional info", mutate: func(l *model.Lesson) { l.AdditionalInfo = nil }},
		{name: "lesson type", mutate: func(l *model.Lesson) { l.Type = model.LessonLecture }},
		{name: "parent type", mutate: func(l *model.Lesson) { l.ParentScheduleType = model.QuarterSchedule }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := lesson("Algebra", 2)
			l.Links = append([]string(nil), base.Links...)
			tt.mutate(&l)
			if Hash(week(2, model.CommonWeekSchedule, l)) == baseHash {
				t.Errorf("changing %s did not change the hash", tt.name)
			}
		})
	}
}

func TestHashScheduleFields(t *testing.T) {
	base := week(2, model.CommonWeekSchedule, lesson("Algebra", 2))
	h := Hash(base)

	otherWeek := base
	otherWeek.WeekNumber = ptr(7)
	otherType := base
	otherType.Type = model.QuarterSchedule
	otherEnd := base
	otherEnd.WeekEnd = day(9)

	for name, s := range map[string]model.Schedule{
		"week number": otherWeek,
		"type":        otherType,
		"week end":    otherEnd,
	} {
		if Hash(s) == h {
			t.Errorf("changing %s did not change the hash", name)
		}
	}
}

func TestClassify(t *testing.T) {
	a := week(2, model.CommonWeekSchedule, lesson("Algebra", 2))
	bOld := week(9, model.CommonWeekSchedule, lesson("Physics", 9))
	bNew := week(9, model.CommonWeekSchedule, lesson("Physics", 10))
	c := week(9, model.QuarterSchedule, lesson("History", 11))

	previous := []model.ScheduleInfo{Info(a), Info(bOld)}
	got := Classify(previous, []model.Schedule{a, bNew, c})

	want := model.FilesChanging{
		AddedOrChanged: []model.ScheduleInfo{Info(bNew), Info(c)},
		WithoutChanges: []model.ScheduleInfo{Info(a)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Classify mismatch (-want +got):\n%s", diff)
	}
	if !got.HasChanges() {
		t.Error("expected HasChanges to be true")
	}
}

func TestClassifyDeleted(t *testing.T) {
	a := week(2, model.CommonWeekSchedule, lesson("Algebra", 2))
	b := week(9, model.CommonWeekSchedule, lesson("Physics", 9))

	got := Classify([]model.ScheduleInfo{Info(a), Info(b)}, []model.Schedule{b})

	want := model.FilesChanging{
		WithoutChanges: []model.ScheduleInfo{Info(b)},
		Deleted:        []model.ScheduleInfo{Info(a)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Classify mismatch (-want +got):\n%s", diff)
	}
}

func TestClassifyEmptyPreviousAddsAll(t *testing.T) {
	a := week(2, model.CommonWeekSchedule, lesson("Algebra", 2))
	b := week(9, model.CommonWeekSchedule)

	got := Classify(nil, []model.Schedule{a, b})
	if diff := cmp.Diff(2, len(got.AddedOrChanged)); diff != "" {
		t.Errorf("added count mismatch (-want +got):\n%s", diff)
	}
}

func TestClassifyNoChanges(t *testing.T) {
	a := week(2, model.CommonWeekSchedule, lesson("Algebra", 2))
	got := Classify([]model.ScheduleInfo{Info(a)}, []model.Schedule{a})
	if got.HasChanges() {
		t.Errorf("expected no changes, got %+v", got)
	}
}

func TestClassifyPassesMalformedSchedule(t *testing.T) {
	bad := model.NewSchedule(nil, day(9), day(2), model.SessionSchedule, nil)
	got := Classify(nil, []model.Schedule{bad})
	if diff := cmp.Diff([]model.ScheduleInfo{Info(bad)}, got.AddedOrChanged); diff != "" {
		t.Errorf("malformed schedule should be classified as added (-want +got):\n%s", diff)
	}
}
