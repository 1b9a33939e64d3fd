package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/courthive/dayplan/internal/clock"
	"github.com/courthive/dayplan/internal/ordering"
	"github.com/courthive/dayplan/internal/tournament"
)

// Defaults applied when the config leaves a value unset.
const (
	DefaultPeriodLength          = 30
	DefaultAverageMatchUpMinutes = 90
)

// Date is a wrapper around time.Time for YAML date parsing.
type Date struct {
	Time time.Time
}

func (d *Date) UnmarshalYAML(value *yaml.Node) error {
	t, err := time.Parse("2006-01-02", value.Value)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", value.Value, err)
	}
	d.Time = t
	return nil
}

func (d Date) MarshalYAML() (any, error) {
	if d.Time.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// String formats the date as YYYY-MM-DD, or "" when unset.
func (d Date) String() string {
	if d.Time.IsZero() {
		return ""
	}
	return d.Time.Format("2006-01-02")
}

// IsZero lets yaml omit unset dates.
func (d Date) IsZero() bool {
	return d.Time.IsZero()
}

// DailyLimits caps matchUps per individual per day. Zero means no limit.
type DailyLimits struct {
	Singles int `yaml:"singles,omitempty"`
	Doubles int `yaml:"doubles,omitempty"`
	Team    int `yaml:"team,omitempty"`
	Total   int `yaml:"total,omitempty"`
}

// Map keys the limits the way participant counters are keyed.
func (l DailyLimits) Map() map[string]int {
	m := make(map[string]int)
	if l.Singles > 0 {
		m[tournament.Singles] = l.Singles
	}
	if l.Doubles > 0 {
		m[tournament.Doubles] = l.Doubles
	}
	if l.Team > 0 {
		m[tournament.Team] = l.Team
	}
	if l.Total > 0 {
		m["TOTAL"] = l.Total
	}
	return m
}

// Settings are the parameters of one scheduling pass.
type Settings struct {
	Date                           Date           `yaml:"date,omitempty"`
	StartTime                      string         `yaml:"start_time,omitempty"`
	EndTime                        string         `yaml:"end_time,omitempty"`
	PeriodLength                   int            `yaml:"period_length"`
	AverageMatchUpMinutes          int            `yaml:"average_matchup_minutes"`
	RecoveryMinutes                int            `yaml:"recovery_minutes"`
	EventAverageMinutes            map[string]int `yaml:"event_average_minutes,omitempty"`
	MatchUpAverageMinutes          map[string]int `yaml:"matchup_average_minutes,omitempty"`
	MatchUpRecoveryMinutes         map[string]int `yaml:"matchup_recovery_minutes,omitempty"`
	DailyLimits                    DailyLimits    `yaml:"daily_limits,omitempty"`
	CheckPotentialRequestConflicts *bool          `yaml:"check_potential_request_conflicts,omitempty"`
	VenueIDs                       []string       `yaml:"venue_ids,omitempty"`
	MatchUpIDs                     []string       `yaml:"matchup_ids,omitempty"`
	Ordering                       string         `yaml:"ordering,omitempty"`
	Days                           []Day          `yaml:"days,omitempty"`
}

// Day names the matchUps to place on one date of a multi-day run.
type Day struct {
	Date       Date     `yaml:"date"`
	MatchUpIDs []string `yaml:"matchup_ids"`
}

// PotentialRequestConflicts reports whether potential participants'
// requests are checked. Defaults to true.
func (s Settings) PotentialRequestConflicts() bool {
	return s.CheckPotentialRequestConflicts == nil || *s.CheckPotentialRequestConflicts
}

type Config struct {
	Schedule    Settings             `yaml:"schedule"`
	Tournaments []*tournament.Record `yaml:"tournaments"`
}

// LoadFromBytes parses YAML bytes into a Config and validates it.
func LoadFromBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromFile reads and parses a YAML config file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromBytes(data)
}

// SaveToFile writes the config, including any schedules committed to its
// tournaments, back to path.
func SaveToFile(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Schedule.PeriodLength == 0 {
		c.Schedule.PeriodLength = DefaultPeriodLength
	}
	if c.Schedule.AverageMatchUpMinutes == 0 {
		c.Schedule.AverageMatchUpMinutes = DefaultAverageMatchUpMinutes
	}
}

func (c *Config) validate() error {
	s := c.Schedule
	if s.PeriodLength < 0 || s.AverageMatchUpMinutes < 0 || s.RecoveryMinutes < 0 {
		return fmt.Errorf("period_length, average_matchup_minutes and recovery_minutes must not be negative")
	}
	for _, t := range []string{s.StartTime, s.EndTime} {
		if t == "" {
			continue
		}
		if _, err := clock.ToMinutes(t); err != nil {
			return fmt.Errorf("schedule: %w", err)
		}
	}
	if s.StartTime != "" && s.EndTime != "" && clock.MustMinutes(s.EndTime) <= clock.MustMinutes(s.StartTime) {
		return fmt.Errorf("end_time %s must be after start_time %s", s.EndTime, s.StartTime)
	}
	l := s.DailyLimits
	if l.Singles < 0 || l.Doubles < 0 || l.Team < 0 || l.Total < 0 {
		return fmt.Errorf("daily_limits must not be negative")
	}
	if _, err := ordering.Get(s.Ordering); err != nil {
		return err
	}
	days := make(map[string]bool)
	for i, d := range s.Days {
		if d.Date.IsZero() {
			return fmt.Errorf("days[%d]: date is required", i)
		}
		if len(d.MatchUpIDs) == 0 {
			return fmt.Errorf("days[%d]: matchup_ids is required", i)
		}
		if days[d.Date.String()] {
			return fmt.Errorf("days[%d]: %s listed more than once", i, d.Date)
		}
		days[d.Date.String()] = true
	}

	if len(c.Tournaments) == 0 {
		return fmt.Errorf("at least one tournament is required")
	}

	seen := make(map[string]bool)
	for _, t := range c.Tournaments {
		if t == nil || t.TournamentID == "" {
			return fmt.Errorf("every tournament needs a tournament_id")
		}
		if seen[t.TournamentID] {
			return fmt.Errorf("tournament %q appears more than once", t.TournamentID)
		}
		seen[t.TournamentID] = true

		for _, v := range t.Venues {
			for _, court := range v.Courts {
				for _, a := range court.Availability {
					if _, err := clock.ToMinutes(a.StartTime); err != nil {
						return fmt.Errorf("venue %q court %q: %w", v.VenueID, court.CourtID, err)
					}
					if _, err := clock.ToMinutes(a.EndTime); err != nil {
						return fmt.Errorf("venue %q court %q: %w", v.VenueID, court.CourtID, err)
					}
					if a.Date != "" && !clock.ValidDate(a.Date) {
						return fmt.Errorf("venue %q court %q: invalid date %q", v.VenueID, court.CourtID, a.Date)
					}
				}
			}
		}

		matchUpIDs := make(map[string]bool)
		for _, ev := range t.Events {
			for _, d := range ev.Draws {
				for _, m := range d.MatchUps {
					if m.MatchUpID == "" {
						return fmt.Errorf("tournament %q draw %q: matchUp without matchup_id", t.TournamentID, d.DrawID)
					}
					if matchUpIDs[m.MatchUpID] {
						return fmt.Errorf("tournament %q: matchUp %q appears more than once", t.TournamentID, m.MatchUpID)
					}
					matchUpIDs[m.MatchUpID] = true
				}
			}
		}

		for personID, reqs := range t.PersonRequests {
			for _, r := range reqs {
				if _, err := clock.ToMinutes(r.StartTime); err != nil {
					return fmt.Errorf("request for person %q: %w", personID, err)
				}
				if _, err := clock.ToMinutes(r.EndTime); err != nil {
					return fmt.Errorf("request for person %q: %w", personID, err)
				}
			}
		}
	}

	return nil
}
