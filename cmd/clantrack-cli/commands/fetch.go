package commands

import (
	"context"
	"log"
	"time"

	"clantrack-backend/lib/scrapers/warthunder"
	"clantrack-backend/lib/timezone"
	"clantrack-backend/services/snapshots"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var fetchStore *bool

func init() {
	fetchStore = fetchCmd.Flags().Bool("store", false, "append the fetched snapshot to the database")
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <clan name>",
	Short: "Scrapes the live leaderboard page of a clan and prints it.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Second*60)
		defer cancel()

		client, err := warthunder.NewClient()
		if err != nil {
			log.Fatal(err)
		}

		page, err := client.FetchClan(ctx, args[0])
		if err != nil {
			log.Fatal(err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"#", "Member", "Rating"})
		for i, m := range page.Members {
			t.AppendRow(table.Row{i + 1, m.Name, m.Rating})
		}
		t.AppendFooter(table.Row{"", "Total", page.TotalRating})
		t.Render()

		if !*fetchStore {
			return
		}

		store, closeStore, err := openStore()
		if err != nil {
			log.Fatal(err)
		}
		defer closeStore()

		members := make([]snapshots.Member, len(page.Members))
		for i, m := range page.Members {
			members[i] = snapshots.Member{Name: m.Name, Rating: m.Rating}
		}
		err = store.Append(ctx, snapshots.Snapshot{
			Time:        timezone.Now().Truncate(time.Second),
			TotalRating: page.TotalRating,
			Members:     members,
		})
		if err != nil {
			log.Fatal(err)
		}
	},
}
