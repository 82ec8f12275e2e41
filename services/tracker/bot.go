package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"clantrack-backend/lib/timezone"
	"clantrack-backend/services/snapshots"

	"github.com/bwmarrin/discordgo"
)

const defaultCompareTime = "02:00"

// NewSession creates the shared Discord gateway session. The same session
// backs both the slash command surface (Bot) and the scheduled report sink
// (ChannelNotifier).
func NewSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return session, nil
}

// ChannelNotifier posts reports and notices to a fixed channel.
type ChannelNotifier struct {
	session   *discordgo.Session
	channelId string
}

func NewChannelNotifier(session *discordgo.Session, channelId string) ChannelNotifier {
	return ChannelNotifier{session: session, channelId: channelId}
}

func (n ChannelNotifier) SendReport(ctx context.Context, report Report) error {
	_, err := n.session.ChannelMessageSendEmbed(n.channelId, reportEmbed(report))
	if err != nil {
		return fmt.Errorf("send report to channel %s: %w", n.channelId, err)
	}
	return nil
}

func (n ChannelNotifier) SendNotice(ctx context.Context, text string) error {
	_, err := n.session.ChannelMessageSend(n.channelId, text)
	if err != nil {
		return fmt.Errorf("send notice to channel %s: %w", n.channelId, err)
	}
	return nil
}

// Bot is the slash command surface.
type Bot struct {
	session *discordgo.Session
	service *Service
	// dbPath is exposed through the /dbfile command so the raw history can
	// be pulled out of the chat without shell access to the host.
	dbPath string
}

func NewBot(session *discordgo.Session, service *Service, dbPath string) *Bot {
	return &Bot{
		session: session,
		service: service,
		dbPath:  dbPath,
	}
}

var commands = []*discordgo.ApplicationCommand{
	{
		Name:        "today",
		Description: "Rating changes from the start of the day until now",
	},
	{
		Name:        "compare",
		Description: "Compare the current rating against a past date and time",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "date",
				Description: "Date in DD.MM.YYYY format (year may be omitted)",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "time",
				Description: "Time in HH:MM format (defaults to " + defaultCompareTime + ")",
				Required:    false,
			},
		},
	},
	{
		Name:        "dbfile",
		Description: "Upload the snapshot database file to the channel",
	},
}

// Start opens the gateway connection and registers the slash commands.
// It returns once connected; Close tears the session down.
func (b *Bot) Start(ctx context.Context) error {
	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		slog.Info("logged into discord", "user", r.User.String())
	})
	b.session.AddHandler(b.handleInteraction)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}

	for _, cmd := range commands {
		_, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, "", cmd)
		if err != nil {
			return fmt.Errorf("register command %q: %w", cmd.Name, err)
		}
	}
	slog.Info("registered slash commands", "count", len(commands))
	return nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
	defer cancel()

	data := i.ApplicationCommandData()
	slog.Info("slash command invoked", "command", data.Name)

	// all commands hit the network, so defer the response up front
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		slog.Error("failed to defer interaction", "command", data.Name, "err", err)
		return
	}

	switch data.Name {
	case "today":
		b.handleToday(ctx, s, i)
	case "compare":
		b.handleCompare(ctx, s, i, data)
	case "dbfile":
		b.handleDbFile(s, i)
	}
}

func (b *Bot) followUpText(s *discordgo.Session, i *discordgo.InteractionCreate, text string) {
	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: text,
	})
	if err != nil {
		slog.Error("failed to send follow-up", "err", err)
	}
}

func (b *Bot) followUpReport(s *discordgo.Session, i *discordgo.InteractionCreate, report Report) {
	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{reportEmbed(report)},
	})
	if err != nil {
		slog.Error("failed to send report follow-up", "err", err)
	}
}

func (b *Bot) handleToday(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	report, err := b.service.Today(ctx)
	if errors.Is(err, snapshots.ErrNotFound) {
		b.followUpText(s, i, "No snapshot from the start of the day yet.")
		return
	}
	if err != nil {
		b.followUpText(s, i, fmt.Sprintf("Failed to fetch the rating: %s", err))
		return
	}
	if len(report.Entries) == 0 {
		b.followUpText(s, i, "No rating changes since the start of the day.")
		return
	}
	b.followUpReport(s, i, report)
}

func (b *Bot) handleCompare(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	date := ""
	clock := defaultCompareTime
	for _, opt := range data.Options {
		switch opt.Name {
		case "date":
			date = opt.StringValue()
		case "time":
			clock = opt.StringValue()
		}
	}

	target, err := parseCompareTarget(date, clock, timezone.Now())
	if err != nil {
		b.followUpText(s, i, "Invalid date or time. Use DD.MM.YYYY for the date and HH:MM for the time.")
		return
	}
	if target.After(timezone.Now()) {
		b.followUpText(s, i, "Cannot compare against a future date.")
		return
	}

	report, err := b.service.CompareTo(ctx, target)
	if errors.Is(err, snapshots.ErrNotFound) {
		b.followUpText(s, i, fmt.Sprintf("No snapshot recorded at or before %s %s.", date, clock))
		return
	}
	if err != nil {
		b.followUpText(s, i, fmt.Sprintf("Failed to fetch the rating: %s", err))
		return
	}
	if len(report.Entries) == 0 {
		b.followUpText(s, i, fmt.Sprintf("No rating changes since %s %s.", date, clock))
		return
	}
	b.followUpReport(s, i, report)
}

func (b *Bot) handleDbFile(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f, err := os.Open(b.dbPath)
	if err != nil {
		b.followUpText(s, i, "Database file not found.")
		return
	}
	defer f.Close()

	_, err = s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: fmt.Sprintf("Database file: %s", filepath.Base(b.dbPath)),
		Files: []*discordgo.File{
			{
				Name:        filepath.Base(b.dbPath),
				ContentType: "application/octet-stream",
				Reader:      f,
			},
		},
	})
	if err != nil {
		slog.Error("failed to upload database file", "err", err)
	}
}

// parseCompareTarget turns "DD.MM.YYYY" (or "DD.MM", defaulting to the
// current year) plus "HH:MM" into an instant in the clan timezone.
func parseCompareTarget(date, clock string, now time.Time) (time.Time, error) {
	dateParts := strings.Split(date, ".")
	if len(dateParts) == 2 {
		dateParts = append(dateParts, strconv.Itoa(now.Year()))
	}
	if len(dateParts) != 3 {
		return time.Time{}, fmt.Errorf("malformed date %q", date)
	}
	day, err1 := strconv.Atoi(dateParts[0])
	month, err2 := strconv.Atoi(dateParts[1])
	year, err3 := strconv.Atoi(dateParts[2])

	clockParts := strings.Split(clock, ":")
	if len(clockParts) != 2 {
		return time.Time{}, fmt.Errorf("malformed time %q", clock)
	}
	hour, err4 := strconv.Atoi(clockParts[0])
	minute, err5 := strconv.Atoi(clockParts[1])

	if err := errors.Join(err1, err2, err3, err4, err5); err != nil {
		return time.Time{}, err
	}
	if month < 1 || month > 12 || day < 1 || day > 31 || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return time.Time{}, fmt.Errorf("date or time out of range: %q %q", date, clock)
	}

	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, timezone.Location), nil
}

func reportEmbed(r Report) *discordgo.MessageEmbed {
	names, ratings, changes := r.Columns()

	return &discordgo.MessageEmbed{
		Title:       r.Title(),
		Description: r.Description(),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "​", Value: "```\n" + names + "```", Inline: true},
			{Name: "​", Value: "```\n" + ratings + "```", Inline: true},
			{Name: "​", Value: "```ansi\n" + changes + "```", Inline: true},
		},
	}
}
