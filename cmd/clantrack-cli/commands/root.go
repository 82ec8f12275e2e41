package commands

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"clantrack-backend/services/snapshots"
	snapshotsdb "clantrack-backend/services/snapshots/db"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	_ "modernc.org/sqlite"
)

var dbPath string

var rootCmd = &cobra.Command{
	Use:   "clantrack-cli",
	Short: "clantrack-cli inspects the clan snapshot database and the live leaderboard.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "clan_ratings.db", "path to the snapshot database")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openStore() (snapshots.Store, func(), error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return snapshots.Store{}, nil, fmt.Errorf("open %s: %w", dbPath, err)
	}
	_, err = db.Exec(snapshotsdb.Schema)
	if err != nil {
		db.Close()
		return snapshots.Store{}, nil, fmt.Errorf("apply schema: %w", err)
	}
	return snapshots.NewStore(db), func() { db.Close() }, nil
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	return t
}
