package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"workplanner/internal/ics"
	"workplanner/internal/planner"
)

// Plan is the typed form of a Config, ready to be handed to the scheduler.
type Plan struct {
	// Vacancies are sorted ascending by priority; config order breaks ties.
	Vacancies   []planner.Vacancy
	Assignments []*planner.Assignment
	Sources     []ics.Source
	Location    *time.Location
}

// Location resolves the configured timezone. "Local" and "" mean the
// system zone.
func (c *Config) Location() (*time.Location, error) {
	switch c.Timezone {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "timezone %q", c.Timezone)
	}
	return loc, nil
}

// Validate checks the settings that Build does not cover: the outer
// surfaces used by the serve mode and the source list.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if _, err := c.Location(); err != nil {
		add("%v", err)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		add("log_level %q: want debug, info, warn or error", c.LogLevel)
	}
	if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		add("refresh %q: %v", c.RefreshCron, err)
	}
	if c.BasicAuth != nil && (c.BasicAuth.Username == "" || c.BasicAuth.Password == "") {
		add("basic_auth: username and password are required")
	}

	if len(c.Sources) == 0 {
		add("sources: at least one source is required")
	}
	seen := make(map[string]bool, len(c.Sources))
	for i, s := range c.Sources {
		switch {
		case s.URL == "" && s.File == "":
			add("sources[%d]: one of url or file is required", i)
		case s.URL != "" && s.File != "":
			add("sources[%d]: url and file are mutually exclusive", i)
		case s.URL != "":
			u, err := url.Parse(s.URL)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
				add("sources[%d]: url must be http(s)", i)
			}
		}
		if seen[s.ID] {
			add("sources[%d]: duplicate id %q", i, s.ID)
		}
		seen[s.ID] = true
	}

	if len(problems) > 0 {
		return errors.Errorf("invalid config:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}

// Build validates the configuration and converts it into scheduler inputs.
func (c *Config) Build() (*Plan, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}

	vacancies, err := c.buildVacancies()
	if err != nil {
		return nil, err
	}
	assignments, err := c.buildAssignments()
	if err != nil {
		return nil, err
	}

	sources := make([]ics.Source, 0, len(c.Sources))
	for _, s := range c.Sources {
		sources = append(sources, ics.Source{ID: s.ID, URL: s.URL, Path: c.ResolvePath(s.File)})
	}

	return &Plan{
		Vacancies:   vacancies,
		Assignments: assignments,
		Sources:     sources,
		Location:    loc,
	}, nil
}

func (c *Config) buildVacancies() ([]planner.Vacancy, error) {
	out := make([]planner.Vacancy, 0, len(c.Vacancies))
	for i, vc := range c.Vacancies {
		prio := planner.DefaultPriority
		if vc.Priority != nil {
			prio = *vc.Priority
		}
		v, err := planner.NewVacancy(vc.Day, vc.From, vc.To, prio)
		if err != nil {
			return nil, errors.Wrapf(err, "vacancies[%d]", i)
		}
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})
	return out, nil
}

func (c *Config) buildAssignments() ([]*planner.Assignment, error) {
	out := make([]*planner.Assignment, 0, len(c.Assignments))
	for i, ac := range c.Assignments {
		tasks := make([]planner.Task, 0, len(ac.Tasks))
		for j, tc := range ac.Tasks {
			var before bool
			switch strings.ToLower(strings.TrimSpace(tc.Type)) {
			case "before":
				before = true
			case "after":
			default:
				return nil, errors.Errorf("assignments[%d].tasks[%d]: type must be before or after, got %q", i, j, tc.Type)
			}
			t, err := planner.NewTask(tc.Name, before, tc.Hours)
			if err != nil {
				return nil, errors.Wrapf(err, "assignments[%d].tasks[%d]", i, j)
			}
			tasks = append(tasks, t)
		}
		a, err := planner.NewAssignment(ac.Pattern, ac.TravelHours, tasks...)
		if err != nil {
			return nil, errors.Wrapf(err, "assignments[%d]", i)
		}
		out = append(out, a)
	}
	return out, nil
}
