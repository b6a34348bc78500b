package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/okian/liftboard/internal/domain/model"
	"github.com/okian/liftboard/internal/domain/search"
)

var (
	searchCatalogFile string
	searchTags        []string
	searchLimit       int
)

var searchCmd = &cobra.Command{
	Use:   "search [QUERY...]",
	Short: "Search an exercise catalog",
	Long: `Rank catalog exercises and their tags against a query.

Words that are rare in the catalog weigh more than common ones, and matches
on tag names count double. With --tag, only exercises carrying one of the
given tag ids are kept.

EXAMPLES:

  liftctl search --catalog exercises.json squat
  liftctl search --catalog exercises.json --tag legs --tag glutes front squat`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var catalog []model.Exercise
		if err := readJSON(searchCatalogFile, &catalog); err != nil {
			return err
		}
		results := search.Rank(strings.Join(args, " "), search.FromCatalog(catalog), searchTags)
		if searchLimit > 0 && len(results) > searchLimit {
			results = results[:searchLimit]
		}
		printResults(cmd.OutOrStdout(), results)
		return nil
	},
}

func printResults(out io.Writer, results []search.Result) {
	if len(results) == 0 {
		fmt.Fprintln(out, "No matches.")
		return
	}
	faint := color.New(color.Faint)
	tag := color.New(color.FgCyan)
	for _, r := range results {
		name := r.Item.Name
		if r.Item.IsTag {
			name = tag.Sprint("#" + name)
		}
		fmt.Fprintf(out, "%5d  %s %s\n", r.Score, padRight(name, 30), faint.Sprint(r.Item.ID))
	}
}

func init() {
	searchCmd.Flags().StringVar(&searchCatalogFile, "catalog", "", "exercise catalog JSON file")
	searchCmd.Flags().StringArrayVar(&searchTags, "tag", nil, "keep only exercises with this tag id (repeatable)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 20, "max number of results, 0 for all")
	_ = searchCmd.MarkFlagRequired("catalog")
	rootCmd.AddCommand(searchCmd)
}
