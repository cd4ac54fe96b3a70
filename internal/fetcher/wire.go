package fetcher

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"schedule_bot/internal/model"
)

const (
	wireDateLayout = "02.01.2006"
	wireTimeLayout = "02.01.2006 15:04"
)

type envelope struct {
	Version   int             `json:"version"`
	Schedules json.RawMessage `json:"schedules"`
}

// Decode reads a versioned schedule document.
func Decode(r io.Reader, loc *time.Location) ([]model.Schedule, error) {
	var env envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("parse envelope: %w", err)
	}
	switch env.Version {
	case 1:
		return decodeV1(env.Schedules, loc)
	default:
		return nil, fmt.Errorf("unsupported schedule format version %d", env.Version)
	}
}

type scheduleV1 struct {
	WeekNumber   *int                  `json:"weekNumber"`
	Lessons      map[string][]lessonV1 `json:"lessons"`
	WeekStart    string                `json:"weekStart"`
	WeekEnd      string                `json:"weekEnd"`
	ScheduleType string                `json:"scheduleType"`
}

type lessonV1 struct {
	Subject            string   `json:"subject"`
	Course             int      `json:"course"`
	Programme          string   `json:"programme"`
	Group              string   `json:"group"`
	SubGroup           *int     `json:"subGroup"`
	Date               string   `json:"date"`
	StartTime          string   `json:"startTime"`
	EndTime            string   `json:"endTime"`
	Lecturer           *string  `json:"lecturer"`
	Office             *string  `json:"office"`
	Building           *int     `json:"building"`
	Links              []string `json:"links"`
	AdditionalInfo     []string `json:"additionalInfo"`
	LessonType         string   `json:"lessonType"`
	ParentScheduleType string   `json:"parentScheduleType"`
}

func decodeV1(raw json.RawMessage, loc *time.Location) ([]model.Schedule, error) {
	var wire []scheduleV1
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("parse v1 schedules: %w", err)
	}

	schedules := make([]model.Schedule, 0, len(wire))
	for i, ws := range wire {
		s, err := ws.toModel(loc)
		if err != nil {
			return nil, fmt.Errorf("schedule %d: %w", i, err)
		}
		schedules = append(schedules, s)
	}
	return schedules, nil
}

func (ws scheduleV1) toModel(loc *time.Location) (model.Schedule, error) {
	start, err := parseDate(ws.WeekStart)
	if err != nil {
		return model.Schedule{}, fmt.Errorf("week start: %w", err)
	}
	end, err := parseDate(ws.WeekEnd)
	if err != nil {
		return model.Schedule{}, fmt.Errorf("week end: %w", err)
	}
	typ, err := parseScheduleType(ws.ScheduleType)
	if err != nil {
		return model.Schedule{}, err
	}

	var lessons []model.Lesson
	for _, key := range slices.Sorted(maps.Keys(ws.Lessons)) {
		for _, wl := range ws.Lessons[key] {
			l, err := wl.toModel(loc)
			if err != nil {
				return model.Schedule{}, fmt.Errorf("lesson %q on %s: %w", wl.Subject, wl.Date, err)
			}
			lessons = append(lessons, l)
		}
	}
	return model.NewSchedule(ws.WeekNumber, start, end, typ, lessons), nil
}

func (wl lessonV1) toModel(loc *time.Location) (model.Lesson, error) {
	date, err := parseDate(wl.Date)
	if err != nil {
		return model.Lesson{}, fmt.Errorf("date: %w", err)
	}
	start, err := time.ParseInLocation(wireTimeLayout, wl.Date+" "+wl.StartTime, loc)
	if err != nil {
		return model.Lesson{}, fmt.Errorf("start time: %w", err)
	}
	end, err := time.ParseInLocation(wireTimeLayout, wl.Date+" "+wl.EndTime, loc)
	if err != nil {
		return model.Lesson{}, fmt.Errorf("end time: %w", err)
	}
	parent, err := parseScheduleType(wl.ParentScheduleType)
	if err != nil {
		return model.Lesson{}, err
	}

	return model.Lesson{
		Subject:            wl.Subject,
		Course:             wl.Course,
		Programme:          wl.Programme,
		Group:              wl.Group,
		SubGroup:           wl.SubGroup,
		Date:               date,
		StartTimeStr:       wl.StartTime,
		EndTimeStr:         wl.EndTime,
		StartTime:          start,
		EndTime:            end,
		Lecturer:           wl.Lecturer,
		Office:             wl.Office,
		Building:           wl.Building,
		Links:              wl.Links,
		AdditionalInfo:     wl.AdditionalInfo,
		Type:               parseLessonType(wl.LessonType),
		ParentScheduleType: parent,
	}, nil
}

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(wireDateLayout, s, time.UTC)
}

func parseScheduleType(s string) (model.ScheduleType, error) {
	switch t := model.ScheduleType(s); t {
	case model.CommonWeekSchedule, model.QuarterSchedule, model.SessionSchedule:
		return t, nil
	}
	return "", fmt.Errorf("unknown schedule type %q", s)
}

func parseLessonType(s string) model.LessonType {
	switch t := model.LessonType(s); t {
	case model.LessonLecture, model.LessonSeminar, model.LessonPractice, model.LessonExam,
		model.LessonTest, model.LessonStatement, model.LessonEnglish, model.LessonCommonEnglish,
		model.LessonCommonMinor, model.LessonMinor, model.LessonEvent:
		return t
	}
	return model.LessonUnknown
}
