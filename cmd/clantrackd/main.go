package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"

	"clantrack-backend/lib/configutil"
	"clantrack-backend/lib/restyutil"
	"clantrack-backend/lib/scrapers/warthunder"
	"clantrack-backend/lib/serviceutil"
	"clantrack-backend/lib/telemetry"
	"clantrack-backend/lib/timezone"
	"clantrack-backend/services/snapshots"
	snapshotsdb "clantrack-backend/services/snapshots/db"
	"clantrack-backend/services/tracker"

	"github.com/robfig/cron/v3"

	_ "modernc.org/sqlite"
)

type DiscordConfig struct {
	Token     string `json:"token"`
	ChannelId string `json:"channel_id"`
}

type Config struct {
	ClanName string        `json:"clan_name"`
	Discord  DiscordConfig `json:"discord"`
	DbFile   string        `json:"db_file"`
	// TimezoneOffset is the clan timezone as whole hours from UTC.
	// Zero keeps the default of UTC+3.
	TimezoneOffset int `json:"timezone_offset"`
	// ReportIntervalMinutes is the silent ingest cadence; must divide the
	// hour evenly.
	ReportIntervalMinutes int                `json:"report_interval_minutes"`
	DayStart              tracker.HourMinute `json:"day_start"`
	EndOfDayReport        tracker.HourMinute `json:"end_of_day_report"`
	MaxReportEntries      int                `json:"max_report_entries"`
}

func main() {
	verbose := flag.Bool("verbose", false, "enable debug logging and resty transcripts")
	configPath := flag.String("config", "config.json5", "path to the configuration file")
	flag.Parse()

	telemetry.InitSlog(*verbose)

	ctx := serviceutil.SignalContext()

	config, err := configutil.ReadConfig[Config](*configPath)
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	if config.ClanName == "" {
		slog.Warn("clan name not set, nothing to track")
	}
	if config.TimezoneOffset != 0 {
		timezone.SetOffset(config.TimezoneOffset)
	}
	if config.DbFile == "" {
		config.DbFile = "clan_ratings.db"
	}
	if config.ReportIntervalMinutes == 0 {
		config.ReportIntervalMinutes = 30
	}

	t, err := telemetry.SetupFromEnv(ctx, "clantrackd")
	if err != nil {
		slog.Warn("telemetry disabled", "err", err)
	} else {
		defer t.Shutdown(context.Background())
		telemetry.InstrumentPerfStats(ctx)
	}

	db, err := sql.Open("sqlite", config.DbFile)
	if err != nil {
		serviceutil.Fatal("failed to open database", err)
	}
	defer db.Close()
	_, err = db.Exec(snapshotsdb.Schema)
	if err != nil {
		serviceutil.Fatal("failed to apply schema", err)
	}

	if *verbose {
		warthunder.SetRestyInstrumentOutput(
			restyutil.NewFilesystemOutput(".dev/resty/warthunder"),
		)
	}
	scraper, err := warthunder.NewClient()
	if err != nil {
		serviceutil.Fatal("failed to initialize scraper", err)
	}

	session, err := tracker.NewSession(config.Discord.Token)
	if err != nil {
		serviceutil.Fatal("failed to create discord session", err)
	}
	notifier := tracker.NewChannelNotifier(session, config.Discord.ChannelId)

	store := snapshots.NewStore(db)
	service := tracker.NewService(store, scraper, notifier, tracker.Options{
		ClanName:         config.ClanName,
		DayStartHour:     config.DayStart.Hour,
		DayStartMinute:   config.DayStart.Minute,
		MaxReportEntries: config.MaxReportEntries,
	})

	bot := tracker.NewBot(session, service, config.DbFile)
	if err := bot.Start(ctx); err != nil {
		serviceutil.Fatal("failed to start discord bot", err)
	}
	defer bot.Close()

	runner := cron.New(cron.WithLocation(timezone.Location))
	err = tracker.Schedule(runner, service, config.ReportIntervalMinutes, config.EndOfDayReport)
	if err != nil {
		serviceutil.Fatal("failed to schedule reports", err)
	}
	runner.Start()
	defer runner.Stop()

	slog.Info("clantrackd running",
		"clan", config.ClanName,
		"db", config.DbFile,
		"interval_minutes", config.ReportIntervalMinutes,
	)

	<-ctx.Done()
}
