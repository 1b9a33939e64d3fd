package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/courthive/dayplan/internal/clock"
	"github.com/courthive/dayplan/internal/config"
	"github.com/courthive/dayplan/internal/excel"
	"github.com/courthive/dayplan/internal/schedule"
	"github.com/courthive/dayplan/internal/tournament"
)

// Violation represents a constraint violation found during validation.
type Violation struct {
	Row     int
	Type    string // "error" or "warning"
	Message string
}

// Validate reads a plan workbook and checks it against the config's daily
// limits and the tournaments' draw structure.
func Validate(cfg *config.Config, path string) ([]Violation, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	entries, err := readPlan(f)
	if err != nil {
		return nil, fmt.Errorf("reading plan: %w", err)
	}

	var violations []Violation

	// Hard constraints
	violations = append(violations, checkCourtDoubleBooking(entries)...)
	violations = append(violations, checkRecoveryOverlap(entries)...)
	violations = append(violations, checkDailyLimits(cfg.Schedule.DailyLimits.Map(), entries)...)
	violations = append(violations, checkDependencyOrder(cfg, entries)...)

	// Left over work
	violations = append(violations, checkUnscheduled(f)...)

	return violations, nil
}

type planEntry struct {
	Row               int
	Date              string
	Time              string
	VenueID           string
	CourtID           string
	MatchUpID         string
	DrawID            string
	MatchUpType       string
	Participants      []string
	TimeAfterRecovery string
}

func (e planEntry) interval() (clock.Interval, bool) {
	start, err := clock.ToMinutes(e.Time)
	if err != nil {
		return clock.Interval{}, false
	}
	end, err := clock.ToMinutes(e.TimeAfterRecovery)
	if err != nil || end <= start {
		return clock.Interval{}, false
	}
	return clock.Interval{Start: start, End: end}, true
}

func readPlan(f *excelize.File) ([]planEntry, error) {
	rows, err := f.GetRows(excel.PlanSheet)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", excel.PlanSheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s is empty", excel.PlanSheet)
	}

	// Columns are located by header so reordered sheets still validate.
	col := make(map[string]int)
	for i, h := range rows[0] {
		col[h] = i
	}
	for _, h := range excel.PlanHeaders {
		if _, ok := col[h]; !ok {
			return nil, fmt.Errorf("%s is missing column %q", excel.PlanSheet, h)
		}
	}
	cell := func(row []string, name string) string {
		i := col[name]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var entries []planEntry
	for i, row := range rows {
		if i == 0 {
			continue
		}
		matchUpID := cell(row, "MatchUp")
		if matchUpID == "" {
			continue
		}
		var participants []string
		for _, p := range strings.Split(cell(row, "Participants"), ",") {
			if p = strings.TrimSpace(p); p != "" {
				participants = append(participants, p)
			}
		}
		entries = append(entries, planEntry{
			Row:               i + 1,
			Date:              cell(row, "Date"),
			Time:              clockTime(cell(row, "Time")),
			VenueID:           cell(row, "Venue"),
			CourtID:           cell(row, "Court"),
			MatchUpID:         matchUpID,
			DrawID:            cell(row, "Draw"),
			MatchUpType:       cell(row, "Type"),
			Participants:      participants,
			TimeAfterRecovery: clockTime(cell(row, "After Recovery")),
		})
	}
	return entries, nil
}

// clockTime pads a readable cell time to "HH:MM" so times order as strings.
// Anything else is kept as written.
func clockTime(s string) string {
	if t, err := clock.Normalize(s); err == nil {
		return t
	}
	return clock.ExtractTime(s)
}

func checkCourtDoubleBooking(entries []planEntry) []Violation {
	type courtKey struct {
		date, time, venue, court string
	}
	first := make(map[courtKey]planEntry)
	var violations []Violation
	for _, e := range entries {
		if e.CourtID == "" {
			continue
		}
		k := courtKey{e.Date, e.Time, e.VenueID, e.CourtID}
		if prev, ok := first[k]; ok {
			violations = append(violations, Violation{
				Row:     e.Row,
				Type:    "error",
				Message: fmt.Sprintf("court %s at %s %s holds both %s and %s", e.CourtID, e.Date, e.Time, prev.MatchUpID, e.MatchUpID),
			})
			continue
		}
		first[k] = e
	}
	return violations
}

func checkRecoveryOverlap(entries []planEntry) []Violation {
	type personDay struct {
		participant, date string
	}
	byPerson := make(map[personDay][]planEntry)
	for _, e := range entries {
		for _, p := range e.Participants {
			k := personDay{p, e.Date}
			byPerson[k] = append(byPerson[k], e)
		}
	}

	var violations []Violation
	for k, list := range byPerson {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Time < list[j].Time })
		for i := 1; i < len(list); i++ {
			b, ok := list[i].interval()
			if !ok {
				continue
			}
			for j := 0; j < i; j++ {
				a, ok := list[j].interval()
				if !ok || !clock.Overlaps(a, b) {
					continue
				}
				violations = append(violations, Violation{
					Row:  list[i].Row,
					Type: "error",
					Message: fmt.Sprintf("%s plays %s at %s before recovering from %s (until %s)",
						k.participant, list[i].MatchUpID, list[i].Time, list[j].MatchUpID, list[j].TimeAfterRecovery),
				})
			}
		}
	}
	sortViolations(violations)
	return violations
}

func checkDailyLimits(limits map[string]int, entries []planEntry) []Violation {
	if len(limits) == 0 {
		return nil
	}
	type personDay struct {
		participant, date string
	}
	counts := make(map[personDay]map[string]int)
	last := make(map[personDay]int)
	for _, e := range entries {
		for _, p := range e.Participants {
			k := personDay{p, e.Date}
			if counts[k] == nil {
				counts[k] = make(map[string]int)
			}
			counts[k][e.MatchUpType]++
			counts[k][schedule.TotalKey]++
			last[k] = e.Row
		}
	}

	var violations []Violation
	for k, c := range counts {
		for key, limit := range limits {
			if limit > 0 && c[key] > limit {
				violations = append(violations, Violation{
					Row:     last[k],
					Type:    "error",
					Message: fmt.Sprintf("%s plays %d %s matchUps on %s (max %d)", k.participant, c[key], strings.ToLower(key), k.date, limit),
				})
			}
		}
	}
	sortViolations(violations)
	return violations
}

// checkDependencyOrder flags matchUps that start before a feeder on the same
// day has finished and recovered. The config is only read.
func checkDependencyOrder(cfg *config.Config, entries []planEntry) []Violation {
	planned := make(map[string]planEntry)
	for _, e := range entries {
		planned[e.MatchUpID] = e
	}

	var violations []Violation
	for _, t := range cfg.Tournaments {
		for _, ev := range t.Events {
			for _, d := range ev.Draws {
				for i := range d.MatchUps {
					violations = append(violations, feederViolations(&d.MatchUps[i], planned)...)
				}
			}
		}
	}
	sortViolations(violations)
	return violations
}

func feederViolations(m *tournament.MatchUp, planned map[string]planEntry) []Violation {
	feeder, ok := planned[m.MatchUpID]
	if !ok || feeder.TimeAfterRecovery == "" {
		return nil
	}
	var violations []Violation
	for _, target := range m.Targets() {
		next, ok := planned[target]
		if !ok || next.Date != feeder.Date {
			continue
		}
		if next.Time < feeder.TimeAfterRecovery {
			violations = append(violations, Violation{
				Row:  next.Row,
				Type: "error",
				Message: fmt.Sprintf("%s starts at %s before feeder %s has recovered (%s)",
					target, next.Time, m.MatchUpID, feeder.TimeAfterRecovery),
			})
		}
	}
	return violations
}

func checkUnscheduled(f *excelize.File) []Violation {
	rows, err := f.GetRows(excel.UnscheduledSheet)
	if err != nil {
		return nil
	}
	var violations []Violation
	for i, row := range rows {
		if i == 0 || len(row) < 2 || row[1] == "" {
			continue
		}
		detail := ""
		if len(row) > 4 {
			detail = row[4]
		}
		status := ""
		if len(row) > 3 {
			status = row[3]
		}
		violations = append(violations, Violation{
			Row:     i + 1,
			Type:    "warning",
			Message: fmt.Sprintf("%s left unscheduled (%s): %s", row[1], status, detail),
		})
	}
	return violations
}

func sortViolations(v []Violation) {
	sort.SliceStable(v, func(i, j int) bool {
		if v[i].Row != v[j].Row {
			return v[i].Row < v[j].Row
		}
		return v[i].Message < v[j].Message
	})
}
