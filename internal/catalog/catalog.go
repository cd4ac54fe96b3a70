// Package catalog answers which courses, programmes, groups and subgroups
// exist in a schedule snapshot.
package catalog

import (
	"cmp"
	"fmt"
	"slices"

	"schedule_bot/internal/model"
)

type groupKey struct {
	course    int
	programme string
	group     string
}

// Catalog is an index over one schedule snapshot. It is immutable.
type Catalog struct {
	courses    map[int]map[string]bool
	programmes map[int]map[string]map[string]bool
	subgroups  map[groupKey]map[int]bool
	groups     map[string]bool
}

// New indexes the lessons of the given schedules.
func New(schedules []model.Schedule) *Catalog {
	c := &Catalog{
		courses:    make(map[int]map[string]bool),
		programmes: make(map[int]map[string]map[string]bool),
		subgroups:  make(map[groupKey]map[int]bool),
		groups:     make(map[string]bool),
	}
	for _, s := range schedules {
		for _, l := range s.Lessons {
			c.add(l)
		}
	}
	return c
}

func (c *Catalog) add(l model.Lesson) {
	if c.courses[l.Course] == nil {
		c.courses[l.Course] = make(map[string]bool)
		c.programmes[l.Course] = make(map[string]map[string]bool)
	}
	c.courses[l.Course][l.Programme] = true

	if c.programmes[l.Course][l.Programme] == nil {
		c.programmes[l.Course][l.Programme] = make(map[string]bool)
	}
	c.programmes[l.Course][l.Programme][l.Group] = true
	c.groups[l.Group] = true

	key := groupKey{course: l.Course, programme: l.Programme, group: l.Group}
	if c.subgroups[key] == nil {
		c.subgroups[key] = make(map[int]bool)
	}
	if l.SubGroup != nil {
		c.subgroups[key][*l.SubGroup] = true
	}
}

// Courses returns the available course numbers in ascending order.
func (c *Catalog) Courses() []int {
	return sortedKeys(c.courses)
}

// Programmes returns the programmes of a course.
func (c *Catalog) Programmes(course int) ([]string, error) {
	progs, ok := c.courses[course]
	if !ok {
		return nil, fmt.Errorf("course %d: %w", course, model.ErrInvalidFilter)
	}
	return sortedKeys(progs), nil
}

// Groups returns the groups of a programme of a course.
func (c *Catalog) Groups(course int, programme string) ([]string, error) {
	groups, ok := c.programmes[course][programme]
	if !ok {
		return nil, fmt.Errorf("course %d programme %q: %w", course, programme, model.ErrInvalidFilter)
	}
	return sortedKeys(groups), nil
}

// Subgroups returns the subgroups of a group. A group without subgroups
// yields an empty list.
func (c *Catalog) Subgroups(course int, programme, group string) ([]int, error) {
	subs, ok := c.subgroups[groupKey{course: course, programme: programme, group: group}]
	if !ok {
		return nil, fmt.Errorf("course %d programme %q group %q: %w", course, programme, group, model.ErrInvalidFilter)
	}
	return sortedKeys(subs), nil
}

// Validate checks that the settings name a known group and, when a
// subgroup is set, one of that group's subgroups.
func (c *Catalog) Validate(s model.Settings) error {
	if !c.groups[s.Group] {
		return fmt.Errorf("group %q: %w", s.Group, model.ErrInvalidFilter)
	}
	if s.SubGroup == 0 {
		return nil
	}
	for key, subs := range c.subgroups {
		if key.group == s.Group && subs[s.SubGroup] {
			return nil
		}
	}
	return fmt.Errorf("group %q subgroup %d: %w", s.Group, s.SubGroup, model.ErrInvalidFilter)
}

func sortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
