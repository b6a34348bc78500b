package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/okian/liftboard/internal/domain/model"
	"github.com/okian/liftboard/internal/domain/privacy"
	"github.com/okian/liftboard/internal/domain/ranking"
	"github.com/okian/liftboard/internal/domain/scoring"
)

var (
	lbEventFile    string
	lbWorkoutsFile string
	lbProfilesFile string
	lbSession      bool
	lbLimit        int
)

var leaderboardCmd = &cobra.Command{
	Use:     "leaderboard",
	Aliases: []string{"lb"},
	Short:   "Rank workouts for an event",
	Long: `Score every workout against the event's rules and print the ranking.

Workouts created outside the event window are ignored. Workouts without an
id get a random one, so they never collapse into each other.

MODES:

  cumulative (default)  one row per participant, summing their workouts
  --session             one row per workout

EXAMPLES:

  liftctl leaderboard --event march.json --workouts workouts.json
  liftctl lb --event march.json --workouts workouts.json --profiles people.json -n 3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var event model.Event
		if err := readJSON(lbEventFile, &event); err != nil {
			return err
		}
		var workouts []model.WorkoutSubmission
		if err := readJSON(lbWorkoutsFile, &workouts); err != nil {
			return err
		}
		opts := []ranking.Option{
			ranking.WithLimit(lbLimit),
			ranking.WithViewer(privacy.Stranger),
			ranking.WithMalformedHook(func(w model.WorkoutSubmission, err error) {
				color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(), "warning: workout %s: %s\n", w.ID, scoring.Reason(err))
			}),
		}
		if lbProfilesFile != "" {
			var profiles []model.Profile
			if err := readJSON(lbProfilesFile, &profiles); err != nil {
				return err
			}
			byID := make(map[string]model.Profile, len(profiles))
			for _, p := range profiles {
				byID[p.ID] = p
			}
			opts = append(opts, ranking.WithProfiles(byID))
		}

		workouts = inWindow(event, workouts)
		var entries []model.LeaderboardEntry
		if lbSession {
			entries = ranking.BuildSessionLeaderboard(event, workouts, opts...)
		} else {
			entries = ranking.BuildLeaderboard(event, workouts, opts...)
		}
		printLeaderboard(cmd.OutOrStdout(), entries, lbSession)
		return nil
	},
}

// inWindow assigns missing ids and drops workouts the event does not accept.
func inWindow(event model.Event, workouts []model.WorkoutSubmission) []model.WorkoutSubmission {
	out := make([]model.WorkoutSubmission, 0, len(workouts))
	for _, w := range workouts {
		if w.ID == "" {
			w.ID = uuid.NewString()
		}
		if w.CreatedAt.IsZero() || event.Accepts(w.CreatedAt) {
			out = append(out, w)
		}
	}
	return out
}

func printLeaderboard(out io.Writer, entries []model.LeaderboardEntry, session bool) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No entries.")
		return
	}
	faint := color.New(color.Faint)
	bold := color.New(color.Bold)
	done := color.New(color.FgGreen)
	for _, e := range entries {
		name := e.Participant.DisplayName
		if name == "" {
			name = e.Participant.ID
		}
		rank := fmt.Sprintf("%3d.", e.Rank)
		if e.Rank <= 3 {
			rank = bold.Sprint(rank)
		}
		line := fmt.Sprintf("%s %s %10.2f", rank, padRight(name, 20), e.TotalPoints)
		if session {
			line += faint.Sprintf("  %s", e.WorkoutID)
		}
		switch {
		case e.GoalReached:
			line += done.Sprint("  goal reached")
		case e.GoalProgressPercent != nil:
			line += faint.Sprintf("  %d%% (%.2f to go)", *e.GoalProgressPercent, *e.Remaining)
		}
		fmt.Fprintln(out, line)
	}
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

func init() {
	leaderboardCmd.Flags().StringVar(&lbEventFile, "event", "", "event JSON file")
	leaderboardCmd.Flags().StringVar(&lbWorkoutsFile, "workouts", "", "workout submissions JSON file")
	leaderboardCmd.Flags().StringVar(&lbProfilesFile, "profiles", "", "participant profiles JSON file")
	leaderboardCmd.Flags().BoolVar(&lbSession, "session", false, "rank single workouts instead of participants")
	leaderboardCmd.Flags().IntVarP(&lbLimit, "limit", "n", 0, "max number of rows, 0 for all")
	_ = leaderboardCmd.MarkFlagRequired("event")
	_ = leaderboardCmd.MarkFlagRequired("workouts")
	rootCmd.AddCommand(leaderboardCmd)
}
