// Package calendar converts schedules into iCalendar documents.
package calendar

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"schedule_bot/internal/model"
)

// Title markers.
const (
	AttentionMarker   = "❗"
	OnlineMarker      = "🏠"
	ProvisionalMarker = "*"
)

const (
	productID = "-//schedule_bot//personal schedule//EN"

	minorGuidance       = "Check the time and the link of the minor in the university app or the timetable portal"
	provisionalFootnote = ProvisionalMarker + " - the lesson is taken from the quarter schedule, the actual schedule may differ"
)

// IsOnline reports whether a lesson is held remotely.
func IsOnline(l model.Lesson) bool {
	if l.Building == nil && l.Office == nil {
		return false
	}
	if len(l.Links) > 0 {
		return true
	}
	return (l.Building == nil || *l.Building == 0) && l.Type != model.LessonEnglish
}

// Summary returns the event title of a lesson.
func Summary(l model.Lesson) string {
	var b strings.Builder
	if len(l.AdditionalInfo) > 0 {
		b.WriteString(AttentionMarker)
	}
	if IsOnline(l) {
		b.WriteString(OnlineMarker)
	}
	b.WriteString(l.Type.EventSubject(l.Subject))
	if l.ParentScheduleType == model.QuarterSchedule {
		b.WriteString(ProvisionalMarker)
	}
	return b.String()
}

// Description returns the multi-line event description of a lesson.
func Description(l model.Lesson) string {
	var lines []string
	if l.Lecturer != nil {
		lines = append(lines, "Lecturer: "+*l.Lecturer)
	}

	switch {
	case IsOnline(l):
		if len(l.Links) == 0 {
			lines = append(lines, "Place: online")
			break
		}
		lines = append(lines, "Link: "+l.Links[0])
		if len(l.Links) > 1 {
			lines = append(lines, "Additional links:")
			lines = append(lines, l.Links[1:]...)
		}
	case l.Building == nil && l.Office == nil:
		if l.Type == model.LessonCommonMinor {
			lines = append(lines, minorGuidance)
		} else {
			lines = append(lines, "Place: not specified")
		}
	default:
		lines = append(lines, "Place: "+place(l))
	}

	if len(l.AdditionalInfo) > 0 {
		lines = append(lines, "\nAdditional info: "+strings.Join(l.AdditionalInfo, "\n"))
	}
	if l.ParentScheduleType == model.QuarterSchedule {
		lines = append(lines, "\n"+provisionalFootnote)
	}
	return strings.Join(lines, "\n")
}

// place renders the location part of the place line. A missing building or
// office is left out instead of being printed as empty.
func place(l model.Lesson) string {
	switch {
	case l.Building != nil && l.Office != nil:
		return fmt.Sprintf("%d building - %s", *l.Building, officeDisplay(*l.Office))
	case l.Building != nil:
		return fmt.Sprintf("%d building", *l.Building)
	default:
		return officeDisplay(*l.Office)
	}
}

func officeDisplay(office string) string {
	if _, err := strconv.Atoi(office); err == nil {
		return "room " + office
	}
	if strings.Contains(office, ",") {
		return "rooms " + office
	}
	return office
}

// Export builds a calendar with one event per lesson.
func Export(schedules []model.Schedule) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName("Schedule")

	now := time.Now().UTC()
	for _, s := range schedules {
		for _, l := range s.Lessons {
			event := cal.AddEvent(uuid.NewString())
			event.SetDtStampTime(now)
			event.SetStartAt(l.StartTime)
			event.SetEndAt(l.EndTime)
			event.SetSummary(Summary(l))
			event.SetDescription(Description(l))
		}
	}
	return cal
}

// Encode writes the calendar document of the schedules to w.
func Encode(w io.Writer, schedules []model.Schedule) error {
	if err := Export(schedules).SerializeTo(w); err != nil {
		return fmt.Errorf("serialize calendar: %w", err)
	}
	return nil
}
