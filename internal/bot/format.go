package bot

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"schedule_bot/internal/model"
)

const displayDate = "02.01.2006"

// FormatNotification formats an added or changed schedule as a Telegram
// notification message.
func FormatNotification(info model.ScheduleInfo) string {
	var b strings.Builder
	b.WriteString(ScheduleTypeLabel(info.Type))
	if info.WeekNumber != nil {
		fmt.Fprintf(&b, ", week %d", *info.WeekNumber)
	}
	fmt.Fprintf(&b, " (%s - %s) has been published or changed.",
		info.WeekStart.Format(displayDate), info.WeekEnd.Format(displayDate))
	b.WriteString("\n\nYour calendar has been updated. Subscribed calendar apps pick up the changes on their next sync.")
	return b.String()
}

// ScheduleTypeLabel returns a human-readable schedule type.
func ScheduleTypeLabel(t model.ScheduleType) string {
	switch t {
	case model.CommonWeekSchedule:
		return "Weekly schedule"
	case model.QuarterSchedule:
		return "Quarter schedule"
	case model.SessionSchedule:
		return "Session schedule"
	default:
		return "Schedule"
	}
}

// FormatCourses formats the available courses.
func FormatCourses(courses []int) string {
	if len(courses) == 0 {
		return "The schedule is not loaded yet. Try again in a few minutes."
	}
	items := make([]string, len(courses))
	for i, c := range courses {
		items[i] = strconv.Itoa(c)
	}
	return "Available courses: " + strings.Join(items, ", ") + "\n\nUse /programs <course> to list programmes."
}

// CoursesKeyboard offers one button per course.
func CoursesKeyboard(courses []int) tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(courses))
	for _, c := range courses {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("Course %d", c), fmt.Sprintf("%s:%d", cmdPrograms, c)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

// FormatList formats a titled bullet list followed by a hint.
func FormatList(title string, items []string, hint string) string {
	var b strings.Builder
	b.WriteString(title)
	b.WriteString(":\n")
	for _, it := range items {
		fmt.Fprintf(&b, "  - %s\n", it)
	}
	if hint != "" {
		b.WriteString("\n")
		b.WriteString(hint)
	}
	return b.String()
}

// FormatSubgroups formats the subgroups of a group.
func FormatSubgroups(group string, subgroups []int) string {
	if len(subgroups) == 0 {
		return fmt.Sprintf("Group %s has no subgroups.\n\nUse /setgroup %s to choose it.", group, group)
	}
	items := make([]string, len(subgroups))
	for i, s := range subgroups {
		items[i] = strconv.Itoa(s)
	}
	return FormatList("Subgroups of "+group, items,
		fmt.Sprintf("Use /setgroup %s <subgroup> to choose one.", group))
}

// FormatSettings formats the user's filter settings.
func FormatSettings(s model.Settings) string {
	sub := "none"
	if s.SubGroup != 0 {
		sub = strconv.Itoa(s.SubGroup)
	}
	return fmt.Sprintf("Group: %s\nSubgroup: %s", s.Group, sub)
}

// FormatLinks formats the download and subscribe links of a calendar.
func FormatLinks(links model.FileLinks) string {
	return fmt.Sprintf("Your calendar:\n\nSubscribe: %s\nDownload: %s\n\nSubscribing keeps your calendar app up to date automatically.",
		links.Subscribe, links.Download)
}
