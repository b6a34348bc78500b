package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "liftctl",
	Short: "Offline leaderboard and exercise search tool",
	Long: `liftctl runs the liftboard scoring and search engines over local JSON files.

QUICK START:

  $ liftctl leaderboard --event march.json --workouts workouts.json
  $ liftctl leaderboard --event march.json --workouts workouts.json --session -n 10
  $ liftctl search --catalog exercises.json squat
  $ liftctl search --catalog exercises.json --tag legs press

FILES:

  event     one event object, as accepted by PUT /events/{id}
  workouts  an array of workout submissions, as posted to /workouts
  profiles  optional array of participant profiles
  catalog   an array of exercises, as accepted by PUT /exercises`,
	SilenceUsage: true,
}

// readJSON decodes the file at path into v.
func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
