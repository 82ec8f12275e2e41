package warthunder

import (
	"bytes"
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"clantrack-backend/lib/restyutil"
	"clantrack-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/warthunder")

const baseUrl = "https://warthunder.com/en/community/claninfo/"

// the member grid is rendered as a flat list of cells, 6 per row, with one
// header row up front. the member name sits in the second cell of each row
// and the squadron rating in the third.
const (
	gridColumns     = 6
	firstNameCell   = 7
	firstRatingCell = 8
)

type MemberRating struct {
	Name   string
	Rating int
}

// ClanPage is the scraped state of one clan leaderboard page.
type ClanPage struct {
	TotalRating int
	// Members is sorted by rating, descending.
	Members []MemberRating
}

type Client struct {
	http *resty.Client
}

var instrumentOutput restyutil.InstrumentOutput

// SetRestyInstrumentOutput must be called before NewClient to take effect.
func SetRestyInstrumentOutput(output restyutil.InstrumentOutput) {
	instrumentOutput = output
}

func NewClient() (Client, error) {
	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return Client{}, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "scrapers/warthunder/http")
	restyutil.DumpTranscripts(client, instrumentOutput)

	return Client{http: client}, nil
}

// FetchClan scrapes the public leaderboard page of the given clan.
func (c Client) FetchClan(ctx context.Context, clanName string) (ClanPage, error) {
	ctx, span := tracer.Start(ctx, "FetchClan")
	defer span.End()

	span.SetAttributes(attribute.String("clan", clanName))

	res, err := c.http.R().
		SetContext(ctx).
		Get(baseUrl + url.PathEscape(clanName))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ClanPage{}, err
	}
	if res.StatusCode() != 200 {
		err := fmt.Errorf("unexpected status %d from claninfo page", res.StatusCode())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ClanPage{}, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ClanPage{}, err
	}

	page, err := ParseClanPage(doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ClanPage{}, err
	}
	return page, nil
}

// ParseClanPage extracts the total squadron rating and the member grid out of
// a claninfo document.
func ParseClanPage(doc *goquery.Document) (ClanPage, error) {
	counter := doc.Find("div.squadrons-counter__value").First()
	if counter.Length() == 0 {
		return ClanPage{}, fmt.Errorf("no squadron rating counter on page, markup may have changed")
	}
	total, err := strconv.Atoi(strings.TrimSpace(counter.Text()))
	if err != nil {
		return ClanPage{}, fmt.Errorf("parse total rating: %w", err)
	}

	var members []MemberRating
	var parseErr error
	pending := MemberRating{}

	doc.Find("div.squadrons-members__grid-item").EachWithBreak(func(i int, cell *goquery.Selection) bool {
		switch {
		case i >= firstNameCell && (i-firstNameCell)%gridColumns == 0:
			pending.Name = strings.TrimSpace(cell.Text())
		case i >= firstRatingCell && (i-firstRatingCell)%gridColumns == 0:
			rating, err := strconv.Atoi(strings.TrimSpace(cell.Text()))
			if err != nil {
				parseErr = fmt.Errorf("parse rating of %q: %w", pending.Name, err)
				return false
			}
			pending.Rating = rating
			members = append(members, pending)
			pending = MemberRating{}
		}
		return true
	})
	if parseErr != nil {
		return ClanPage{}, parseErr
	}

	sort.SliceStable(members, func(a, b int) bool {
		return members[a].Rating > members[b].Rating
	})

	return ClanPage{
		TotalRating: total,
		Members:     members,
	}, nil
}
