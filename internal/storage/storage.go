// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"

	"github.com/google/uuid"

	"schedule_bot/internal/model"
)

// Storage is the interface for all persistence operations.
type Storage interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUserSettings(ctx context.Context, id uuid.UUID, settings model.Settings) error

	ListScheduleInfos(ctx context.Context) ([]model.ScheduleInfo, error)
	ReplaceScheduleInfos(ctx context.Context, infos []model.ScheduleInfo) error

	Close() error
}
