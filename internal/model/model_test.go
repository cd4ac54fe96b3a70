package model

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func ptr[T any](v T) *T { return &v }

func TestLessonEqual(t *testing.T) {
	day := time.Date(2024, time.September, 2, 0, 0, 0, 0, time.UTC)
	base := func() Lesson {
		return Lesson{
			Subject:            "Algebra",
			Course:             2,
			Programme:          "Software Engineering",
			Group:              "BSE201",
			SubGroup:           ptr(1),
			Date:               day,
			StartTimeStr:       "8:10",
			EndTimeStr:         "9:30",
			StartTime:          day.Add(8*time.Hour + 10*time.Minute),
			EndTime:            day.Add(9*time.Hour + 30*time.Minute),
			Lecturer:           ptr("Ivanova A.A."),
			Office:             ptr("305"),
			Building:           ptr(2),
			Links:              []string{"https://meet.example.com/a"},
			AdditionalInfo:     []string{"bring a laptop"},
			Type:               LessonSeminar,
			ParentScheduleType: CommonWeekSchedule,
		}
	}

	tests := []struct {
		name   string
		modify func(l *Lesson)
		want   bool
	}{
		{name: "identical", modify: func(*Lesson) {}, want: true},
		{name: "same values behind other pointers", modify: func(l *Lesson) {
			l.SubGroup, l.Lecturer, l.Office, l.Building = ptr(1), ptr("Ivanova A.A."), ptr("305"), ptr(2)
		}, want: true},
		{name: "same instant in another zone", modify: func(l *Lesson) {
			l.StartTime = l.StartTime.In(time.FixedZone("UTC+5", 5*3600))
		}, want: true},
		{name: "subject", modify: func(l *Lesson) { l.Subject = "Geometry" }},
		{name: "course", modify: func(l *Lesson) { l.Course = 3 }},
		{name: "programme", modify: func(l *Lesson) { l.Programme = "Economics" }},
		{name: "group", modify: func(l *Lesson) { l.Group = "BSE202" }},
		{name: "subgroup value", modify: func(l *Lesson) { l.SubGroup = ptr(2) }},
		{name: "subgroup nil", modify: func(l *Lesson) { l.SubGroup = nil }},
		{name: "date", modify: func(l *Lesson) { l.Date = day.AddDate(0, 0, 1) }},
		{name: "start string", modify: func(l *Lesson) { l.StartTimeStr = "8:11" }},
		{name: "end string", modify: func(l *Lesson) { l.EndTimeStr = "9:31" }},
		{name: "start time", modify: func(l *Lesson) { l.StartTime = l.StartTime.Add(time.Minute) }},
		{name: "end time", modify: func(l *Lesson) { l.EndTime = l.EndTime.Add(time.Minute) }},
		{name: "lecturer nil", modify: func(l *Lesson) { l.Lecturer = nil }},
		{name: "office nil", modify: func(l *Lesson) { l.Office = nil }},
		{name: "building nil", modify: func(l *Lesson) { l.Building = nil }},
		{name: "building zero", modify: func(l *Lesson) { l.Building = ptr(0) }},
		{name: "links", modify: func(l *Lesson) { l.Links = nil }},
		{name: "additional info", modify: func(l *Lesson) { l.AdditionalInfo = append(l.AdditionalInfo, "x") }},
		{name: "type", modify: func(l *Lesson) { l.Type = LessonLecture }},
		{name: "parent schedule type", modify: func(l *Lesson) { l.ParentScheduleType = QuarterSchedule }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := base(), base()
			tt.modify(&b)
			if diff := cmp.Diff(tt.want, a.Equal(b)); diff != "" {
				t.Errorf("a.Equal(b) mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.want, b.Equal(a)); diff != "" {
				t.Errorf("b.Equal(a) mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNewScheduleStableByDate(t *testing.T) {
	day := time.Date(2024, time.September, 2, 0, 0, 0, 0, time.UTC)
	in := []Lesson{
		{Subject: "C", Date: day.AddDate(0, 0, 1)},
		{Subject: "A", Date: day},
		{Subject: "D", Date: day.AddDate(0, 0, 1)},
		{Subject: "B", Date: day},
	}
	s := NewSchedule(nil, day, day.AddDate(0, 0, 6), CommonWeekSchedule, in)

	var got []string
	for _, d := range s.Days() {
		for _, l := range d.Lessons {
			got = append(got, d.Date.Format(DateLayout)+" "+l.Subject)
		}
	}
	want := []string{"2024-09-02 A", "2024-09-02 B", "2024-09-03 C", "2024-09-03 D"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("lesson order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("C", in[0].Subject); diff != "" {
		t.Errorf("input modified (-want +got):\n%s", diff)
	}
}
