package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/courthive/dayplan/internal/clock"
	"github.com/courthive/dayplan/internal/config"
	"github.com/courthive/dayplan/internal/excel"
	"github.com/courthive/dayplan/internal/logging"
	"github.com/courthive/dayplan/internal/ordering"
	"github.com/courthive/dayplan/internal/schedule"
	"github.com/courthive/dayplan/internal/tournament"
	"github.com/courthive/dayplan/internal/validator"
)

const defaultConfigFile = "tournament.yaml"

func resolveConfigPath(configFlag string) (string, error) {
	if configFlag != "" {
		return configFlag, nil
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile, nil
	}
	return "", fmt.Errorf("no config file found. Either create %s in the current directory or pass --config", defaultConfigFile)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	var logLevel, logFormat string
	rootCmd := &cobra.Command{
		Use:   "dayplan",
		Short: "Court and time planner for tournament matchUps",
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", envOr("DAYPLAN_LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", envOr("DAYPLAN_LOG_FORMAT", "text"), "Log format: text or json")
	newLogger := func() *slog.Logger {
		return logging.NewLogger(logging.ParseLevel(logLevel), logFormat)
	}

	var initOutputPath string
	initCmd := &cobra.Command{
		Use:          "init",
		Short:        "Create a starter tournament.yaml in the current directory",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(initOutputPath)
		},
	}
	initCmd.Flags().StringVarP(&initOutputPath, "output", "o", defaultConfigFile, "Output path for the config file")

	var configFile string
	var opts scheduleOptions
	scheduleCmd := &cobra.Command{
		Use:          "schedule",
		Short:        "Plan matchUps into court slots and write the plan workbook",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath(configFile)
			if err != nil {
				return err
			}
			return runSchedule(cmd.Context(), configPath, opts, newLogger())
		},
	}
	scheduleCmd.Flags().StringVar(&configFile, "config", "", "Path to config file (default: tournament.yaml in current directory)")
	scheduleCmd.Flags().StringVar(&opts.date, "date", "", "Schedule date (YYYY-MM-DD); overrides the config")
	scheduleCmd.Flags().StringVarP(&opts.output, "output", "o", "plan.xlsx", "Output Excel file path")
	scheduleCmd.Flags().BoolVar(&opts.write, "write", false, "Write the scheduled times back to the config file")

	validateCmd := &cobra.Command{
		Use:          "validate <plan.xlsx>",
		Short:        "Check a plan workbook for double bookings, limits and draw order",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath(configFile)
			if err != nil {
				return err
			}
			return runValidate(configPath, args[0])
		},
	}
	validateCmd.Flags().StringVar(&configFile, "config", "", "Path to config file (default: tournament.yaml in current directory)")

	rootCmd.AddCommand(initCmd, scheduleCmd, validateCmd)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func runInit(outputPath string) error {
	if _, err := os.Stat(outputPath); err == nil {
		return fmt.Errorf("%s already exists; remove it first or use -o to write elsewhere", outputPath)
	}

	if err := os.WriteFile(outputPath, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("✓ Created %s\n", outputPath)
	return nil
}

const configTemplate = `# Day plan configuration
# ======================
# The schedule section sets the parameters of a scheduling pass; the
# tournaments section holds the records the pass reads and, with --write,
# updates.

schedule:
  # The day to plan. Can be overridden with --date.
  date: "2026-06-01"

  # Optional bounds on the day. When omitted the courts' own availability
  # sets the first and last start times.
  start_time: "09:00"
  end_time: "20:00"

  # Minutes between candidate start times on a court.
  period_length: 30

  # Expected matchUp length, with optional per-event and per-matchUp overrides.
  average_matchup_minutes: 90
  # event_average_minutes:
  #   doubles: 60
  # matchup_average_minutes:
  #   sf-1: 120

  # Minutes an individual rests after a matchUp before the next may start.
  recovery_minutes: 60
  # matchup_recovery_minutes:
  #   qf-1: 30

  # Most matchUps one individual plays in a day. Zero or omitted is unlimited.
  daily_limits:
    singles: 2
    doubles: 2
    total: 3

  # Also honor do-not-schedule requests of players who may reach a matchUp.
  check_potential_request_conflicts: true

  # Bracket order used to resolve draw dependencies: round_position or
  # schedule_order.
  ordering: round_position

  # MatchUps to place, highest priority first. Omit to plan every matchUp
  # not yet scheduled.
  # matchup_ids: [qf-1, qf-2, sf-1]

  # Plan several days at once instead. Each day needs its own matchUps.
  # days:
  #   - date: "2026-06-01"
  #     matchup_ids: [qf-1, qf-2]
  #   - date: "2026-06-02"
  #     matchup_ids: [sf-1]

tournaments:
  - tournament_id: club-open
    participants:
      - { participant_id: anna, participant_type: INDIVIDUAL, person_id: person-anna }
      - { participant_id: ben, participant_type: INDIVIDUAL, person_id: person-ben }
      - { participant_id: carla, participant_type: INDIVIDUAL, person_id: person-carla }
      - { participant_id: dev, participant_type: INDIVIDUAL, person_id: person-dev }

    venues:
      - venue_id: main
        courts:
          - court_id: court-1
            availability:
              - { start_time: "08:00", end_time: "21:00" }
          - court_id: court-2
            availability:
              - { start_time: "08:00", end_time: "21:00" }
              # A date entry replaces the default window on that date.
              - { date: "2026-06-01", start_time: "12:00", end_time: "18:00" }

    # Requests keyed by person id. DO_NOT_SCHEDULE blocks the window.
    person_requests:
      person-carla:
        - { request_type: DO_NOT_SCHEDULE, date: "2026-06-01", start_time: "09:00", end_time: "11:00" }

    events:
      - event_id: singles
        draws:
          - draw_id: main-draw
            matchups:
              - matchup_id: sf-1
                matchup_type: SINGLES
                round_number: 1
                round_position: 1
                winner_matchup_id: final
                sides:
                  - { side_number: 1, participant_id: anna }
                  - { side_number: 2, participant_id: ben }
              - matchup_id: sf-2
                matchup_type: SINGLES
                round_number: 1
                round_position: 2
                winner_matchup_id: final
                sides:
                  - { side_number: 1, participant_id: carla }
                  - { side_number: 2, participant_id: dev }
              - matchup_id: final
                matchup_type: SINGLES
                round_number: 2
                round_position: 1
`

type scheduleOptions struct {
	date   string
	output string
	write  bool
}

// buildRequests turns the config's settings into one request per day.
func buildRequests(cfg *config.Config, date string, records *tournament.Records) ([]schedule.Request, error) {
	s := cfg.Schedule
	newRequest := func(date string, ids []string) schedule.Request {
		if len(ids) == 0 {
			ids = pendingMatchUpIDs(records)
		}
		return schedule.Request{
			ScheduleDate:                   date,
			MatchUpIDs:                     ids,
			VenueIDs:                       s.VenueIDs,
			StartTime:                      s.StartTime,
			EndTime:                        s.EndTime,
			PeriodLength:                   s.PeriodLength,
			AverageMatchUpMinutes:          s.AverageMatchUpMinutes,
			RecoveryMinutes:                s.RecoveryMinutes,
			EventAverageMinutes:            s.EventAverageMinutes,
			MatchUpAverageMinutes:          s.MatchUpAverageMinutes,
			MatchUpRecoveryMinutes:         s.MatchUpRecoveryMinutes,
			MatchUpDailyLimits:             s.DailyLimits.Map(),
			CheckPotentialRequestConflicts: s.PotentialRequestConflicts(),
		}
	}

	switch {
	case date != "":
		if !clock.ValidDate(date) {
			return nil, fmt.Errorf("invalid --date %q, want YYYY-MM-DD", date)
		}
		return []schedule.Request{newRequest(date, s.MatchUpIDs)}, nil
	case len(s.Days) > 0:
		var reqs []schedule.Request
		for _, d := range s.Days {
			reqs = append(reqs, newRequest(d.Date.String(), d.MatchUpIDs))
		}
		return reqs, nil
	case !s.Date.IsZero():
		return []schedule.Request{newRequest(s.Date.String(), s.MatchUpIDs)}, nil
	default:
		return nil, fmt.Errorf("no date to schedule: set schedule.date, schedule.days or pass --date")
	}
}

// pendingMatchUpIDs lists every matchUp that could still be placed, in
// record order.
func pendingMatchUpIDs(records *tournament.Records) []string {
	ids := []string{}
	for _, m := range records.AllMatchUps() {
		if m.IsScheduled() || tournament.IsTerminalStatus(m.Status) || m.WinningSide != 0 {
			continue
		}
		ids = append(ids, m.MatchUpID)
	}
	return ids
}

func runSchedule(ctx context.Context, configPath string, opts scheduleOptions, logger *slog.Logger) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cmp, err := ordering.Get(cfg.Schedule.Ordering)
	if err != nil {
		return err
	}

	records := tournament.NewRecords(cfg.Tournaments...)
	reqs, err := buildRequests(cfg, opts.date, records)
	if err != nil {
		return err
	}

	scheduler := schedule.New(records, schedule.Options{Logger: logger, Ordering: cmp})
	results, err := scheduler.PlanDays(ctx, reqs)
	if err != nil {
		return err
	}

	unplaced := 0
	for i, res := range results {
		printReport(res, len(reqs[i].MatchUpIDs))
		unplaced += len(res.NoTimeMatchUpIDs) + len(res.OverLimitMatchUpIDs)
	}

	f, err := excel.Generate(results, records)
	if err != nil {
		return fmt.Errorf("generating Excel: %w", err)
	}
	if err := f.SaveAs(opts.output); err != nil {
		return fmt.Errorf("saving file: %w", err)
	}
	fmt.Printf("\n✓ Plan saved to %s\n", opts.output)

	if opts.write {
		if err := scheduler.CommitDays(results, records); err != nil {
			return fmt.Errorf("committing plan: %w", err)
		}
		if err := config.SaveToFile(cfg, configPath); err != nil {
			return err
		}
		fmt.Printf("✓ Scheduled times written to %s\n", configPath)
	}

	if unplaced > 0 {
		fmt.Printf("\n⚠ %d matchUp(s) could not be placed\n", unplaced)
	}
	return nil
}

func printReport(res *schedule.Result, requested int) {
	fmt.Printf("\n%s: placed %d of %d matchUps (plan %s)\n", res.ScheduleDate, len(res.ScheduledMatchUpIDs), requested, res.PlanID)

	if len(res.Assignments) > 0 {
		fmt.Printf("  %-6s %-12s %-12s %s\n", "Time", "Venue", "Court", "MatchUp")
		for _, a := range res.Assignments {
			fmt.Printf("  %-6s %-12s %-12s %s\n", a.ScheduleTime, a.VenueID, a.CourtID, a.MatchUpID)
		}
	}

	if len(res.OverLimitMatchUpIDs) > 0 {
		fmt.Printf("\nOver daily limit (%d): %s\n", len(res.OverLimitMatchUpIDs), strings.Join(res.OverLimitMatchUpIDs, ", "))
		fmt.Printf("  participants at limit: %s\n", strings.Join(res.ParticipantIDsAtLimit, ", "))
	}
	if len(res.NoTimeMatchUpIDs) > 0 {
		fmt.Printf("\nNo time found (%d):\n", len(res.NoTimeMatchUpIDs))
		for _, id := range res.NoTimeMatchUpIDs {
			fmt.Printf("  ⚠ %s%s\n", id, deferral(res, id))
		}
	}

	if len(res.RequestConflicts) > 0 {
		ids := make([]string, 0, len(res.RequestConflicts))
		for id := range res.RequestConflicts {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		fmt.Println("\nRequest conflicts:")
		for _, id := range ids {
			for _, c := range res.RequestConflicts[id] {
				fmt.Printf("  %s at %s: %s blocked %s-%s\n", id, c.ScheduleTime, c.PersonID, c.StartTime, c.EndTime)
			}
		}
	}

	fmt.Printf("\n%d slot(s) left open\n", len(res.RemainingScheduleTimes))
}

func deferral(res *schedule.Result, id string) string {
	if deps := res.DependencyDeferred[id]; len(deps) > 0 {
		return " (waiting on " + strings.Join(deps, ", ") + ")"
	}
	if t := res.RecoveryTimeDeferred[id]; t != "" {
		return " (last refused for recovery at " + t + ")"
	}
	return ""
}

func runValidate(configPath, planPath string) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	violations, err := validator.Validate(cfg, planPath)
	if err != nil {
		return fmt.Errorf("validating: %w", err)
	}

	errors := 0
	warnings := 0
	for _, v := range violations {
		switch v.Type {
		case "error":
			errors++
			fmt.Printf("✗ Row %d: %s\n", v.Row, v.Message)
		case "warning":
			warnings++
			fmt.Printf("⚠ %s\n", v.Message)
		}
	}

	fmt.Printf("\nValidation complete: %d violations, %d warnings\n", errors, warnings)

	if errors > 0 {
		return fmt.Errorf("%d constraint violations found", errors)
	}
	return nil
}
