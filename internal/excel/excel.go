package excel

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/courthive/dayplan/internal/schedule"
	"github.com/courthive/dayplan/internal/tournament"
)

// Sheet names shared with the validator.
const (
	PlanSheet         = "Plan"
	UnscheduledSheet  = "Unscheduled"
	ParticipantsSheet = "Participants"
)

// PlanHeaders are the columns of the plan sheet.
var PlanHeaders = []string{"Date", "Time", "Venue", "Court", "MatchUp", "Draw", "Type", "Participants", "After Recovery"}

// Generate creates a workbook for one or more planned days: every
// assignment, the matchUps left unscheduled, and each individual's bookings.
func Generate(results []*schedule.Result, records *tournament.Records) (*excelize.File, error) {
	f := excelize.NewFile()

	f.SetDefaultFont("Arial")

	matchUps := make(map[string]*tournament.MatchUp)
	for _, m := range records.AllMatchUps() {
		matchUps[m.MatchUpID] = m
	}
	participants := records.Participants()

	if err := writePlanSheet(f, results, matchUps, participants); err != nil {
		return nil, fmt.Errorf("writing plan sheet: %w", err)
	}
	if err := writeUnscheduledSheet(f, results, matchUps); err != nil {
		return nil, fmt.Errorf("writing unscheduled sheet: %w", err)
	}
	if err := writeParticipantsSheet(f, results); err != nil {
		return nil, fmt.Errorf("writing participants sheet: %w", err)
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

type styles struct {
	header int
	cell   int
	center int
	red    int
}

func newStyles(f *excelize.File) styles {
	var s styles
	s.header, _ = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 12, Family: "Arial"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	s.cell, _ = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 12, Family: "Arial"},
	})
	s.center, _ = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 12, Family: "Arial"},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	s.red, _ = f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#FFC7CE"}},
		Font: &excelize.Font{Size: 12, Family: "Arial"},
	})
	return s
}

func writeHeaders(f *excelize.File, sheet string, headers []string, style int) {
	for i, h := range headers {
		f.SetCellValue(sheet, cellRef(i+1, 1), h)
	}
	if style != 0 {
		f.SetCellStyle(sheet, cellRef(1, 1), cellRef(len(headers), 1), style)
	}
}

func writePlanSheet(f *excelize.File, results []*schedule.Result, matchUps map[string]*tournament.MatchUp, participants map[string]*tournament.Participant) error {
	sheet := PlanSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	st := newStyles(f)
	writeHeaders(f, sheet, PlanHeaders, st.header)

	type row struct {
		date string
		a    schedule.Assignment
	}
	var rows []row
	for _, res := range results {
		for _, a := range res.Assignments {
			rows = append(rows, row{res.ScheduleDate, a})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].date != rows[j].date {
			return rows[i].date < rows[j].date
		}
		if rows[i].a.ScheduleTime != rows[j].a.ScheduleTime {
			return rows[i].a.ScheduleTime < rows[j].a.ScheduleTime
		}
		return rows[i].a.CourtID < rows[j].a.CourtID
	})

	for i, r := range rows {
		n := i + 2
		var matchUpType string
		var individuals []string
		if m := matchUps[r.a.MatchUpID]; m != nil {
			matchUpType = m.MatchUpType
			individuals = tournament.IndividualParticipantIDs(m, participants)
		}
		values := []any{
			r.date,
			r.a.ScheduleTime,
			r.a.VenueID,
			r.a.CourtID,
			r.a.MatchUpID,
			r.a.DrawID,
			matchUpType,
			strings.Join(individuals, ", "),
			r.a.TimeAfterRecovery,
		}
		for col, v := range values {
			f.SetCellValue(sheet, cellRef(col+1, n), v)
		}
		if st.cell != 0 {
			f.SetCellStyle(sheet, cellRef(1, n), cellRef(4, n), st.center)
			f.SetCellStyle(sheet, cellRef(5, n), cellRef(8, n), st.cell)
			f.SetCellStyle(sheet, cellRef(9, n), cellRef(9, n), st.center)
		}
	}

	widths := map[string]float64{"A": 14, "B": 8, "C": 14, "D": 12, "E": 18, "F": 14, "G": 10, "H": 36, "I": 14}
	for col, w := range widths {
		f.SetColWidth(sheet, col, col, w)
	}
	return nil
}

// unscheduledReason explains why a matchUp was not placed, most specific
// first.
func unscheduledReason(res *schedule.Result, matchUpID string) string {
	if deps := res.DependencyDeferred[matchUpID]; len(deps) > 0 {
		return "waiting on " + strings.Join(deps, ", ")
	}
	if conflicts := res.RequestConflicts[matchUpID]; len(conflicts) > 0 {
		var ids []string
		for _, c := range conflicts {
			if !contains(ids, c.RequestID) {
				ids = append(ids, c.RequestID)
			}
		}
		return "blocked by request " + strings.Join(ids, ", ")
	}
	if t := res.RecoveryTimeDeferred[matchUpID]; t != "" {
		return "recovery time at " + t
	}
	return "no court time"
}

func writeUnscheduledSheet(f *excelize.File, results []*schedule.Result, matchUps map[string]*tournament.MatchUp) error {
	sheet := UnscheduledSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	st := newStyles(f)
	headers := []string{"Date", "MatchUp", "Draw", "Status", "Detail"}
	writeHeaders(f, sheet, headers, st.header)

	n := 2
	write := func(date, matchUpID, status, detail string) {
		var drawID string
		if m := matchUps[matchUpID]; m != nil {
			drawID = m.DrawID
		}
		for col, v := range []string{date, matchUpID, drawID, status, detail} {
			f.SetCellValue(sheet, cellRef(col+1, n), v)
		}
		if st.cell != 0 {
			f.SetCellStyle(sheet, cellRef(1, n), cellRef(len(headers), n), st.cell)
		}
		n++
	}
	for _, res := range results {
		for _, id := range res.OverLimitMatchUpIDs {
			write(res.ScheduleDate, id, "over limit", "at limit: "+strings.Join(res.ParticipantIDsAtLimit, ", "))
		}
		for _, id := range res.NoTimeMatchUpIDs {
			write(res.ScheduleDate, id, "no time", unscheduledReason(res, id))
		}
	}

	widths := map[string]float64{"A": 14, "B": 18, "C": 14, "D": 12, "E": 48}
	for col, w := range widths {
		f.SetColWidth(sheet, col, col, w)
	}

	if n > 2 {
		cellRange := fmt.Sprintf("D2:D%d", n-1)
		f.SetConditionalFormat(sheet, cellRange, []excelize.ConditionalFormatOptions{
			{
				Type:     "formula",
				Criteria: `$D2="over limit"`,
				Format:   &st.red,
			},
		})
	}
	return nil
}

func writeParticipantsSheet(f *excelize.File, results []*schedule.Result) error {
	sheet := ParticipantsSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	st := newStyles(f)
	headers := []string{"Date", "Participant", "MatchUps", "Times", "Available From"}
	writeHeaders(f, sheet, headers, st.header)

	n := 2
	for _, res := range results {
		ids := make([]string, 0, len(res.IndividualParticipantProfiles))
		for id, p := range res.IndividualParticipantProfiles {
			if len(p.Bookings) > 0 {
				ids = append(ids, id)
			}
		}
		sort.Strings(ids)

		for _, id := range ids {
			p := res.IndividualParticipantProfiles[id]
			bookings := append([]schedule.Booking(nil), p.Bookings...)
			sort.SliceStable(bookings, func(i, j int) bool {
				return bookings[i].ScheduleTime < bookings[j].ScheduleTime
			})
			var matchUpIDs, times []string
			for _, b := range bookings {
				matchUpIDs = append(matchUpIDs, b.MatchUpID)
				times = append(times, b.ScheduleTime)
			}
			values := []any{res.ScheduleDate, id, strings.Join(matchUpIDs, ", "), strings.Join(times, ", "), p.TimeAfterRecovery}
			for col, v := range values {
				f.SetCellValue(sheet, cellRef(col+1, n), v)
			}
			if st.cell != 0 {
				f.SetCellStyle(sheet, cellRef(1, n), cellRef(len(headers), n), st.cell)
			}
			n++
		}
	}

	widths := map[string]float64{"A": 14, "B": 16, "C": 30, "D": 24, "E": 16}
	for col, w := range widths {
		f.SetColWidth(sheet, col, col, w)
	}
	return nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func cellRef(col, row int) string {
	return fmt.Sprintf("%s%d", colLetter(col), row)
}

func colLetter(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}
