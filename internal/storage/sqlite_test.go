package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"

	"schedule_bot/internal/model"
)

var ignoreCreatedAt = cmpopts.IgnoreFields(model.User{}, "CreatedAt")

func ptr[T any](v T) *T { return &v }

func newTestDB(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUserCRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	tests := []struct {
		name string
		user model.User
	}{
		{
			name: "generated id",
			user: model.User{TelegramID: 12345, Settings: model.Settings{Group: "BSE201", SubGroup: 1}},
		},
		{
			name: "preset id without subgroup",
			user: model.User{ID: uuid.New(), TelegramID: 67890, Settings: model.Settings{Group: "BEC201"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := tt.user
			if err := s.CreateUser(ctx, &user); err != nil {
				t.Fatalf("create: %v", err)
			}
			if user.ID == uuid.Nil {
				t.Fatal("expected non-nil ID")
			}
			if user.CreatedAt.IsZero() {
				t.Error("expected CreatedAt to be set")
			}

			got, err := s.GetUser(ctx, user.ID)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if diff := cmp.Diff(user, *got, ignoreCreatedAt); diff != "" {
				t.Errorf("GetUser mismatch (-want +got):\n%s", diff)
			}

			byTG, err := s.GetUserByTelegramID(ctx, user.TelegramID)
			if err != nil {
				t.Fatalf("get by telegram id: %v", err)
			}
			if diff := cmp.Diff(user.ID, byTG.ID); diff != "" {
				t.Errorf("GetUserByTelegramID mismatch (-want +got):\n%s", diff)
			}
		})
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff(2, len(users)); diff != "" {
		t.Errorf("user count mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateUserDuplicateTelegramID(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	if err := s.CreateUser(ctx, &model.User{TelegramID: 1, Settings: model.Settings{Group: "A"}}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreateUser(ctx, &model.User{TelegramID: 1, Settings: model.Settings{Group: "B"}}); err == nil {
		t.Fatal("expected unique constraint error")
	}
}

func TestGetUserNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	if _, err := s.GetUser(ctx, uuid.New()); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("GetUser: expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetUserByTelegramID(ctx, 42); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("GetUserByTelegramID: expected ErrNotFound, got %v", err)
	}
	if err := s.UpdateUserSettings(ctx, uuid.New(), model.Settings{Group: "X"}); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("UpdateUserSettings: expected ErrNotFound, got %v", err)
	}
}

func TestUpdateUserSettings(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	user := model.User{TelegramID: 5, Settings: model.Settings{Group: "BSE201", SubGroup: 1}}
	if err := s.CreateUser(ctx, &user); err != nil {
		t.Fatalf("create: %v", err)
	}

	want := model.Settings{Group: "BSE202", SubGroup: 2}
	if err := s.UpdateUserSettings(ctx, user.ID, want); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff(want, got.Settings); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}
}

func TestReplaceScheduleInfos(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	start := time.Date(2024, time.September, 2, 0, 0, 0, 0, time.UTC)
	first := []model.ScheduleInfo{
		{WeekNumber: ptr(1), WeekStart: start, WeekEnd: start.AddDate(0, 0, 6), Type: model.CommonWeekSchedule, Hash: 1},
		// Hashes above MaxInt64 must survive the signed column.
		{WeekStart: start, WeekEnd: start.AddDate(0, 0, 6), Type: model.QuarterSchedule, Hash: ^uint64(0) - 7},
	}
	if err := s.ReplaceScheduleInfos(ctx, first); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, err := s.ListScheduleInfos(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff(first, got); diff != "" {
		t.Errorf("infos mismatch (-want +got):\n%s", diff)
	}

	second := []model.ScheduleInfo{
		{WeekNumber: ptr(2), WeekStart: start.AddDate(0, 0, 7), WeekEnd: start.AddDate(0, 0, 13), Type: model.CommonWeekSchedule, Hash: 9},
	}
	if err := s.ReplaceScheduleInfos(ctx, second); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, err = s.ListScheduleInfos(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff(second, got); diff != "" {
		t.Errorf("infos mismatch after replace (-want +got):\n%s", diff)
	}
}
