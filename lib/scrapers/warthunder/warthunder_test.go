package warthunder

import (
	"strings"
	"testing"

	_ "embed"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/claninfo.html
var claninfoFixture string

func TestParseClanPage(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(claninfoFixture))
	require.NoError(t, err)

	page, err := ParseClanPage(doc)
	require.NoError(t, err)

	require.Equal(t, 45231, page.TotalRating)
	require.Equal(t, []MemberRating{
		{Name: "Baron", Rating: 1879},
		{Name: "Falcon", Rating: 1204},
		{Name: "Count", Rating: 655},
	}, page.Members)
}

func TestParseClanPageMissingCounter(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body></body></html>"))
	require.NoError(t, err)

	_, err = ParseClanPage(doc)
	require.Error(t, err)
}

func TestParseClanPageBadRating(t *testing.T) {
	fixture := strings.Replace(claninfoFixture, ">1879<", ">n/a<", 1)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fixture))
	require.NoError(t, err)

	_, err = ParseClanPage(doc)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Baron")
}
