package commands

import (
	"context"
	"fmt"
	"log"
	"time"

	"clantrack-backend/lib/timezone"
	"clantrack-backend/services/tracker"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var compareSince *string

func init() {
	compareSince = compareCmd.Flags().String("since", "", "baseline instant, RFC 3339 (defaults to 24h before the latest snapshot)")
	rootCmd.AddCommand(compareCmd)
}

var compareCmd = &cobra.Command{
	Use:   "compare [--since <instant>]",
	Short: "Diffs the latest stored snapshot against a stored baseline.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Second*10)
		defer cancel()

		store, closeStore, err := openStore()
		if err != nil {
			log.Fatal(err)
		}
		defer closeStore()

		latest, err := store.Latest(ctx)
		if err != nil {
			log.Fatal(err)
		}

		since := latest.Time.Add(-24 * time.Hour)
		if *compareSince != "" {
			since, err = time.ParseInLocation(time.RFC3339, *compareSince, timezone.Location)
			if err != nil {
				log.Fatal(err)
			}
		}

		baseline, err := store.AtOrBefore(ctx, since)
		if err != nil {
			log.Fatal(err)
		}

		report := tracker.BuildReport(baseline, latest, timezone.Now(), 0)
		fmt.Println(report.Description())
		if len(report.Entries) == 0 {
			fmt.Println("No rating changes.")
			return
		}

		t := newTable()
		t.AppendHeader(table.Row{"Member", "Rating", "Change"})
		for _, e := range report.Entries {
			change := fmt.Sprintf("%+d", e.Change)
			if e.Left {
				change += " (left)"
			}
			t.AppendRow(table.Row{e.Name, e.CurrentRating, change})
		}
		t.Render()
	},
}
