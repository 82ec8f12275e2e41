package commands

import (
	"context"
	"log"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(latestCmd)
}

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Prints the most recent snapshot in the database.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Second*10)
		defer cancel()

		store, closeStore, err := openStore()
		if err != nil {
			log.Fatal(err)
		}
		defer closeStore()

		snap, err := store.Latest(ctx)
		if err != nil {
			log.Fatal(err)
		}

		t := newTable()
		t.SetTitle(snap.Time.Format("15:04 02.01.2006"))
		t.AppendHeader(table.Row{"#", "Member", "Rating"})
		for i, m := range snap.Members {
			t.AppendRow(table.Row{i + 1, m.Name, m.Rating})
		}
		t.AppendFooter(table.Row{"", "Total", snap.TotalRating})
		t.Render()
	},
}
