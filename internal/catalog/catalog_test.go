package catalog

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"schedule_bot/internal/model"
)

func ptr[T any](v T) *T { return &v }

func lesson(course int, programme, group string, subGroup *int) model.Lesson {
	return model.Lesson{
		Subject:   "Algebra",
		Course:    course,
		Programme: programme,
		Group:     group,
		SubGroup:  subGroup,
		Date:      time.Date(2024, time.September, 2, 0, 0, 0, 0, time.UTC),
	}
}

func newTestCatalog() *Catalog {
	start := time.Date(2024, time.September, 2, 0, 0, 0, 0, time.UTC)
	return New([]model.Schedule{
		model.NewSchedule(nil, start, start.AddDate(0, 0, 6), model.CommonWeekSchedule, []model.Lesson{
			lesson(2, "Software Engineering", "BSE201", ptr(1)),
			lesson(2, "Software Engineering", "BSE201", ptr(2)),
			lesson(2, "Software Engineering", "BSE202", nil),
			lesson(2, "Economics", "BEC201", nil),
			lesson(1, "Economics", "BEC241", ptr(1)),
		}),
	})
}

func TestCatalogQueries(t *testing.T) {
	c := newTestCatalog()

	if diff := cmp.Diff([]int{1, 2}, c.Courses()); diff != "" {
		t.Errorf("Courses mismatch (-want +got):\n%s", diff)
	}

	progs, err := c.Programmes(2)
	if err != nil {
		t.Fatalf("programmes: %v", err)
	}
	if diff := cmp.Diff([]string{"Economics", "Software Engineering"}, progs); diff != "" {
		t.Errorf("Programmes mismatch (-want +got):\n%s", diff)
	}

	groups, err := c.Groups(2, "Software Engineering")
	if err != nil {
		t.Fatalf("groups: %v", err)
	}
	if diff := cmp.Diff([]string{"BSE201", "BSE202"}, groups); diff != "" {
		t.Errorf("Groups mismatch (-want +got):\n%s", diff)
	}

	subs, err := c.Subgroups(2, "Software Engineering", "BSE201")
	if err != nil {
		t.Fatalf("subgroups: %v", err)
	}
	if diff := cmp.Diff([]int{1, 2}, subs); diff != "" {
		t.Errorf("Subgroups mismatch (-want +got):\n%s", diff)
	}

	subs, err = c.Subgroups(2, "Software Engineering", "BSE202")
	if err != nil {
		t.Fatalf("subgroups without any: %v", err)
	}
	if diff := cmp.Diff(0, len(subs)); diff != "" {
		t.Errorf("expected no subgroups (-want +got):\n%s", diff)
	}
}

func TestCatalogUnknownCombination(t *testing.T) {
	c := newTestCatalog()

	tests := []struct {
		name string
		call func() error
	}{
		{name: "unknown course", call: func() error { _, err := c.Programmes(5); return err }},
		{name: "unknown programme", call: func() error { _, err := c.Groups(2, "Law"); return err }},
		{name: "programme of other course", call: func() error { _, err := c.Groups(1, "Software Engineering"); return err }},
		{name: "unknown group", call: func() error { _, err := c.Subgroups(2, "Economics", "BSE201"); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if !errors.Is(err, model.ErrInvalidFilter) {
				t.Errorf("expected ErrInvalidFilter, got %v", err)
			}
		})
	}
}

func TestCatalogValidate(t *testing.T) {
	c := newTestCatalog()

	tests := []struct {
		name     string
		settings model.Settings
		wantErr  bool
	}{
		{name: "group and subgroup", settings: model.Settings{Group: "BSE201", SubGroup: 2}},
		{name: "group without subgroup", settings: model.Settings{Group: "BSE202"}},
		{name: "unknown group", settings: model.Settings{Group: "XYZ"}, wantErr: true},
		{name: "unknown subgroup", settings: model.Settings{Group: "BSE201", SubGroup: 3}, wantErr: true},
		{name: "subgroup on group without subgroups", settings: model.Settings{Group: "BSE202", SubGroup: 1}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Validate(tt.settings)
			if tt.wantErr {
				if !errors.Is(err, model.ErrInvalidFilter) {
					t.Fatalf("expected ErrInvalidFilter, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
