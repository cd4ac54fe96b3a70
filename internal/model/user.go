package model

import (
	"time"

	"github.com/google/uuid"
)

// Settings holds the user's schedule filter.
// SubGroup 0 means no subgroup was chosen.
type Settings struct {
	Group    string
	SubGroup int
}

// User is a subscriber of personalized calendars.
type User struct {
	ID         uuid.UUID
	TelegramID int64
	Settings   Settings
	CreatedAt  time.Time
}

// ScheduleNotification announces an added or changed schedule to the users
// whose projection of it is non-empty.
type ScheduleNotification struct {
	Schedule         ScheduleInfo
	RecipientUserIDs []uuid.UUID
}

// FileLinks points at a user's calendar file.
type FileLinks struct {
	Download  string
	Subscribe string
}
