package bot

import (
	"fmt"
	"strconv"
	"strings"

	"schedule_bot/internal/model"
)

// GroupArgs holds the parsed arguments of /groups and /subgroups.
type GroupArgs struct {
	Course    int
	Programme string
	Group     string
}

// ParseCourseArg extracts a course number from a command argument string.
func ParseCourseArg(args string) (int, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return 0, fmt.Errorf("course is required")
	}
	course, err := strconv.Atoi(fields[0])
	if err != nil || course < 1 {
		return 0, fmt.Errorf("invalid course %q", fields[0])
	}
	return course, nil
}

// ParseGroupsArgs parses arguments for /groups.
// Format: <course> <programme...>
func ParseGroupsArgs(args string) (GroupArgs, error) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return GroupArgs{}, fmt.Errorf("usage: /groups <course> <programme>")
	}
	course, err := ParseCourseArg(fields[0])
	if err != nil {
		return GroupArgs{}, err
	}
	return GroupArgs{Course: course, Programme: strings.Join(fields[1:], " ")}, nil
}

// ParseSubgroupsArgs parses arguments for /subgroups. The last word is the
// group, everything between the course and the group is the programme.
// Format: <course> <programme...> <group>
func ParseSubgroupsArgs(args string) (GroupArgs, error) {
	fields := strings.Fields(args)
	if len(fields) < 3 {
		return GroupArgs{}, fmt.Errorf("usage: /subgroups <course> <programme> <group>")
	}
	course, err := ParseCourseArg(fields[0])
	if err != nil {
		return GroupArgs{}, err
	}
	last := len(fields) - 1
	return GroupArgs{
		Course:    course,
		Programme: strings.Join(fields[1:last], " "),
		Group:     fields[last],
	}, nil
}

// ParseSetGroupArgs parses arguments for /setgroup.
// Format: <group> [subgroup]
func ParseSetGroupArgs(args string) (model.Settings, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 || len(fields) > 2 {
		return model.Settings{}, fmt.Errorf("usage: /setgroup <group> [subgroup]")
	}
	s := model.Settings{Group: fields[0]}
	if len(fields) == 2 {
		sub, err := strconv.Atoi(fields[1])
		if err != nil || sub < 1 {
			return model.Settings{}, fmt.Errorf("invalid subgroup %q", fields[1])
		}
		s.SubGroup = sub
	}
	return s, nil
}
