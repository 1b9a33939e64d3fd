package validator

import (
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/courthive/dayplan/internal/config"
	"github.com/courthive/dayplan/internal/excel"
	"github.com/courthive/dayplan/internal/schedule"
	"github.com/courthive/dayplan/internal/tournament"
)

const testDate = "2026-06-01"

func side(n int, id string) tournament.Side {
	return tournament.Side{SideNumber: n, ParticipantID: id}
}

func testConfig() *config.Config {
	return &config.Config{
		Schedule: config.Settings{
			PeriodLength:          30,
			AverageMatchUpMinutes: 60,
			RecoveryMinutes:       30,
			DailyLimits:           config.DailyLimits{Total: 2},
		},
		Tournaments: []*tournament.Record{{
			TournamentID: "t1",
			Participants: []tournament.Participant{
				{ParticipantID: "p1", ParticipantType: tournament.Individual},
				{ParticipantID: "p2", ParticipantType: tournament.Individual},
				{ParticipantID: "p3", ParticipantType: tournament.Individual},
				{ParticipantID: "p4", ParticipantType: tournament.Individual},
			},
			Venues: []tournament.Venue{{
				VenueID: "v1",
				Courts: []tournament.Court{
					{CourtID: "c1", Availability: []tournament.Availability{{StartTime: "09:00", EndTime: "18:00"}}},
					{CourtID: "c2", Availability: []tournament.Availability{{StartTime: "09:00", EndTime: "18:00"}}},
				},
			}},
			Events: []tournament.Event{{
				EventID: "e1",
				Draws: []tournament.Draw{{
					DrawID: "d1",
					MatchUps: []tournament.MatchUp{
						{MatchUpID: "sf1", MatchUpType: tournament.Singles, RoundNumber: 1, RoundPosition: 1, WinnerMatchUpID: "f", Sides: []tournament.Side{side(1, "p1"), side(2, "p2")}},
						{MatchUpID: "sf2", MatchUpType: tournament.Singles, RoundNumber: 1, RoundPosition: 2, WinnerMatchUpID: "f", Sides: []tournament.Side{side(1, "p3"), side(2, "p4")}},
						{MatchUpID: "f", MatchUpType: tournament.Singles, RoundNumber: 2, RoundPosition: 1},
					},
				}},
			}},
		}},
	}
}

func TestValidateGeneratedPlan(t *testing.T) {
	cfg := testConfig()
	records := tournament.NewRecords(cfg.Tournaments...)
	res, err := schedule.New(records, schedule.Options{}).Plan(schedule.Request{
		ScheduleDate:          testDate,
		MatchUpIDs:            []string{"sf1", "sf2", "f"},
		PeriodLength:          cfg.Schedule.PeriodLength,
		AverageMatchUpMinutes: cfg.Schedule.AverageMatchUpMinutes,
		RecoveryMinutes:       cfg.Schedule.RecoveryMinutes,
		MatchUpDailyLimits:    cfg.Schedule.DailyLimits.Map(),
	})
	if err != nil {
		t.Fatalf("Plan() error: %v", err)
	}

	f, err := excel.Generate([]*schedule.Result{res}, records)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	path := t.TempDir() + "/plan.xlsx"
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs error: %v", err)
	}

	violations, err := Validate(cfg, path)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	for _, v := range violations {
		t.Errorf("unexpected violation: %s", v.Message)
	}
}

// writePlan saves a plan sheet with the given rows under the standard
// headers.
func writePlan(t *testing.T, rows [][]string) string {
	t.Helper()
	f := excelize.NewFile()
	if _, err := f.NewSheet(excel.PlanSheet); err != nil {
		t.Fatalf("NewSheet error: %v", err)
	}
	for i, h := range excel.PlanHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(excel.PlanSheet, cell, h)
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			f.SetCellValue(excel.PlanSheet, cell, v)
		}
	}
	path := t.TempDir() + "/plan.xlsx"
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs error: %v", err)
	}
	return path
}

func planRow(time, court, matchUpID, participants, after string) []string {
	return []string{testDate, time, "v1", court, matchUpID, "d1", tournament.Singles, participants, after}
}

func errorsOf(violations []Violation) []string {
	var out []string
	for _, v := range violations {
		if v.Type == "error" {
			out = append(out, v.Message)
		}
	}
	return out
}

func TestValidateViolations(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
		want string
	}{
		{
			name: "court holds two matchUps",
			rows: [][]string{
				planRow("09:00", "c1", "sf1", "p1, p2", "10:30"),
				planRow("09:00", "c1", "sf2", "p3, p4", "10:30"),
			},
			want: "court c1 at 2026-06-01 09:00 holds both sf1 and sf2",
		},
		{
			name: "participant without recovery",
			rows: [][]string{
				planRow("09:00", "c1", "sf1", "p1, p2", "10:30"),
				planRow("10:00", "c2", "x1", "p1, p3", "11:30"),
			},
			want: "p1 plays x1 at 10:00 before recovering from sf1 (until 10:30)",
		},
		{
			name: "daily limit exceeded",
			rows: [][]string{
				planRow("09:00", "c1", "x1", "p1, p2", "10:30"),
				planRow("11:00", "c1", "x2", "p1, p3", "12:30"),
				planRow("13:00", "c1", "x3", "p1, p4", "14:30"),
			},
			want: "p1 plays 3 total matchUps on 2026-06-01 (max 2)",
		},
		{
			name: "final before its semifinal recovered",
			rows: [][]string{
				planRow("09:00", "c1", "sf1", "p1, p2", "10:30"),
				planRow("09:00", "c2", "sf2", "p3, p4", "10:30"),
				planRow("10:00", "c1", "f", "", "11:30"),
			},
			want: "f starts at 10:00 before feeder sf1 has recovered (10:30)",
		},
		{
			name: "long booking overlaps a later non-adjacent entry",
			rows: [][]string{
				planRow("09:00", "c1", "x1", "p1, p2", "13:00"),
				planRow("10:00", "c2", "x2", "p1, p3", "11:30"),
				planRow("12:00", "c2", "x3", "p1, p4", "13:30"),
			},
			want: "p1 plays x3 at 12:00 before recovering from x1 (until 13:00)",
		},
		{
			name: "unpadded times order by value",
			rows: [][]string{
				planRow("9:00", "c1", "sf1", "p1, p2", "10:30"),
				planRow("10:00", "c2", "x1", "p1, p3", "11:30"),
			},
			want: "p1 plays x1 at 10:00 before recovering from sf1 (until 10:30)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violations, err := Validate(testConfig(), writePlan(t, tt.rows))
			if err != nil {
				t.Fatalf("Validate() error: %v", err)
			}
			found := false
			for _, msg := range errorsOf(violations) {
				if msg == tt.want {
					found = true
				}
			}
			if !found {
				t.Errorf("missing violation %q in %v", tt.want, errorsOf(violations))
			}
		})
	}
}

func TestValidateTouchingIntervals(t *testing.T) {
	path := writePlan(t, [][]string{
		planRow("09:00", "c1", "x1", "p1, p2", "10:30"),
		planRow("10:30", "c1", "x2", "p1, p3", "12:00"),
	})
	violations, err := Validate(testConfig(), path)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if errs := errorsOf(violations); len(errs) != 0 {
		t.Errorf("unexpected errors: %v", errs)
	}
}

func TestValidateReportsUnscheduled(t *testing.T) {
	cfg := testConfig()
	cfg.Schedule.DailyLimits = config.DailyLimits{}
	cfg.Tournaments[0].Venues[0].Courts = cfg.Tournaments[0].Venues[0].Courts[:1]
	cfg.Tournaments[0].Venues[0].Courts[0].Availability[0].EndTime = "10:00"
	records := tournament.NewRecords(cfg.Tournaments...)

	res, err := schedule.New(records, schedule.Options{}).Plan(schedule.Request{
		ScheduleDate:          testDate,
		MatchUpIDs:            []string{"sf1", "sf2"},
		PeriodLength:          30,
		AverageMatchUpMinutes: 60,
	})
	if err != nil {
		t.Fatalf("Plan() error: %v", err)
	}
	f, err := excel.Generate([]*schedule.Result{res}, records)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	path := t.TempDir() + "/plan.xlsx"
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs error: %v", err)
	}

	violations, err := Validate(cfg, path)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if len(violations) != 1 || violations[0].Type != "warning" {
		t.Fatalf("violations = %+v, want one warning", violations)
	}
	if !strings.HasPrefix(violations[0].Message, "sf2 left unscheduled") {
		t.Errorf("message = %q", violations[0].Message)
	}
}

func TestValidateLeavesConfigUntouched(t *testing.T) {
	cfg := testConfig()
	cfg.Tournaments[0].PersonRequests = map[string][]tournament.PersonRequest{
		"person-1": {{RequestType: tournament.DoNotSchedule, Date: testDate, StartTime: "09:00", EndTime: "10:00"}},
	}
	path := writePlan(t, [][]string{
		planRow("09:00", "c1", "sf1", "p1, p2", "10:30"),
		planRow("10:00", "c1", "f", "", "11:30"),
	})

	violations, err := Validate(cfg, path)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if len(errorsOf(violations)) != 1 {
		t.Errorf("violations = %+v, want the dependency error", violations)
	}
	if id := cfg.Tournaments[0].PersonRequests["person-1"][0].RequestID; id != "" {
		t.Errorf("request id = %q, want it left empty", id)
	}
	if m := cfg.Tournaments[0].Events[0].Draws[0].MatchUps[0]; m.TournamentID != "" || m.DrawID != "" {
		t.Errorf("matchUp stamped with %q/%q", m.TournamentID, m.DrawID)
	}
}

func TestValidateRejectsMalformedWorkbook(t *testing.T) {
	f := excelize.NewFile()
	f.NewSheet(excel.PlanSheet)
	f.SetCellValue(excel.PlanSheet, "A1", "Date")
	path := t.TempDir() + "/bad.xlsx"
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs error: %v", err)
	}

	if _, err := Validate(testConfig(), path); err == nil {
		t.Error("expected an error for a plan sheet without its columns")
	}
	if _, err := Validate(testConfig(), t.TempDir()+"/missing.xlsx"); err == nil {
		t.Error("expected an error for a missing file")
	}
}
