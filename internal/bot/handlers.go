package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"schedule_bot/internal/catalog"
	"schedule_bot/internal/files"
	"schedule_bot/internal/model"
)

const noGroupYet = "You have not chosen a group yet. Use /courses to browse groups and /setgroup <group> [subgroup] to choose one."

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, `Welcome to Schedule Bot!

Get your class schedule as a calendar that updates itself.

Quick start:
1. /courses — find your course, programme and group
2. /setgroup <group> [subgroup] — choose your group
3. /link — subscribe to your calendar

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Browsing:
/courses — list courses
/programs <course> — list programmes of a course
/groups <course> <programme> — list groups of a programme
/subgroups <course> <programme> <group> — list subgroups of a group

Your calendar:
/setgroup <group> [subgroup] — choose your group
/me — show your settings
/link — get subscribe and download links

You will get a message whenever a schedule with your lessons is published or changed.`)
}

func (b *Bot) catalog() *catalog.Catalog {
	return catalog.New(b.calendar.Snapshot())
}

func (b *Bot) handleCourses(chatID int64) {
	courses := b.catalog().Courses()
	msg := tgbotapi.NewMessage(chatID, FormatCourses(courses))
	if len(courses) > 0 {
		msg.ReplyMarkup = CoursesKeyboard(courses)
	}
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send courses", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) handlePrograms(chatID int64, args string) {
	course, err := ParseCourseArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /programs <course>")
		return
	}

	progs, err := b.catalog().Programmes(course)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Course %d not found. Use /courses to list courses.", course))
		return
	}
	b.reply(chatID, FormatList(fmt.Sprintf("Programmes of course %d", course), progs,
		fmt.Sprintf("Use /groups %d <programme> to list groups.", course)))
}

func (b *Bot) handleGroups(chatID int64, args string) {
	parsed, err := ParseGroupsArgs(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}

	groups, err := b.catalog().Groups(parsed.Course, parsed.Programme)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Programme %q of course %d not found. Use /programs %d to list programmes.",
			parsed.Programme, parsed.Course, parsed.Course))
		return
	}
	b.reply(chatID, FormatList(fmt.Sprintf("Groups of %s, course %d", parsed.Programme, parsed.Course), groups,
		"Use /setgroup <group> [subgroup] to choose one."))
}

func (b *Bot) handleSubgroups(chatID int64, args string) {
	parsed, err := ParseSubgroupsArgs(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}

	subs, err := b.catalog().Subgroups(parsed.Course, parsed.Programme, parsed.Group)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Group %s of %q, course %d not found.", parsed.Group, parsed.Programme, parsed.Course))
		return
	}
	b.reply(chatID, FormatSubgroups(parsed.Group, subs))
}

func (b *Bot) handleSetGroup(ctx context.Context, chatID int64, args string) {
	settings, err := ParseSetGroupArgs(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}

	if err := b.catalog().Validate(settings); err != nil {
		if settings.SubGroup != 0 {
			b.reply(chatID, fmt.Sprintf("Group %s has no subgroup %d.", settings.Group, settings.SubGroup))
		} else {
			b.reply(chatID, fmt.Sprintf("Group %s not found. Use /courses to browse groups.", settings.Group))
		}
		return
	}

	user, err := b.store.GetUserByTelegramID(ctx, chatID)
	switch {
	case errors.Is(err, model.ErrNotFound):
		user = &model.User{TelegramID: chatID, Settings: settings}
		if err := b.store.CreateUser(ctx, user); err != nil {
			b.reply(chatID, fmt.Sprintf("Failed to save settings: %v", err))
			return
		}
		err = b.calendar.UserAdded(ctx, *user)
	case err != nil:
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	default:
		if err := b.store.UpdateUserSettings(ctx, user.ID, settings); err != nil {
			b.reply(chatID, fmt.Sprintf("Failed to save settings: %v", err))
			return
		}
		user.Settings = settings
		err = b.calendar.UserEdited(ctx, *user)
	}
	if err != nil {
		b.log.Error("signal user change", "user_id", user.ID, "error", err)
	}

	b.reply(chatID, FormatSettings(settings)+"\n\nSaved. Your calendar is being updated, use /link to subscribe.")
}

func (b *Bot) handleMe(ctx context.Context, chatID int64) {
	user, ok := b.currentUser(ctx, chatID)
	if !ok {
		return
	}
	b.reply(chatID, FormatSettings(user.Settings))
}

func (b *Bot) handleLink(ctx context.Context, chatID int64) {
	user, ok := b.currentUser(ctx, chatID)
	if !ok {
		return
	}

	links, err := b.calendar.Links(ctx, user.ID)
	if errors.Is(err, model.ErrNotFound) {
		b.reply(chatID, fmt.Sprintf("No lessons found for group %s in the current schedule.", user.Settings.Group))
		return
	}
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}

	msg := tgbotapi.NewMessage(chatID, FormatLinks(links))
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Send file", cbFile+":0"),
		),
	)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send links", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) handleFile(ctx context.Context, chatID int64) {
	user, ok := b.currentUser(ctx, chatID)
	if !ok {
		return
	}

	doc, err := b.calendar.Document(ctx, user.ID)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}

	file := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: files.ScheduleFile, Bytes: doc})
	file.Caption = "Import this file into your calendar app. Use /link to subscribe instead."
	if _, err := b.api.Send(file); err != nil {
		b.log.Error("send document", "chat_id", chatID, "error", err)
	}
}

// currentUser replies on its own when the user cannot be resolved.
func (b *Bot) currentUser(ctx context.Context, chatID int64) (*model.User, bool) {
	user, err := b.store.GetUserByTelegramID(ctx, chatID)
	if errors.Is(err, model.ErrNotFound) || (err == nil && strings.TrimSpace(user.Settings.Group) == "") {
		b.reply(chatID, noGroupYet)
		return nil, false
	}
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return nil, false
	}
	return user, true
}
