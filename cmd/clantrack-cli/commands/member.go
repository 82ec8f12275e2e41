package commands

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/antzucaro/matchr"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var memberLimit *int

func init() {
	memberLimit = memberCmd.Flags().Int("limit", 5, "how many candidates to print")
	rootCmd.AddCommand(memberCmd)
}

var memberCmd = &cobra.Command{
	Use:   "member <name>",
	Short: "Fuzzy-finds a member in the latest snapshot by name.",
	Args:  cobra.ExactArgs(1),
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

		type candidate struct {
			name       string
			rating     int
			similarity float64
		}
		candidates := make([]candidate, len(snap.Members))
		for i, m := range snap.Members {
			candidates[i] = candidate{
				name:       m.Name,
				rating:     m.Rating,
				similarity: matchr.JaroWinkler(args[0], m.Name, true),
			}
		}
		sort.SliceStable(candidates, func(a, b int) bool {
			return candidates[a].similarity > candidates[b].similarity
		})
		if len(candidates) > *memberLimit {
			candidates = candidates[:*memberLimit]
		}

		t := newTable()
		t.AppendHeader(table.Row{"Member", "Rating", "Similarity"})
		for _, c := range candidates {
			t.AppendRow(table.Row{c.name, c.rating, c.similarity})
		}
		t.Render()
	},
}
