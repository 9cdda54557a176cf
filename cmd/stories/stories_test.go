package stories

import (
	"bytes"
	"testing"
	"time"

	"github.com/SirZenith/hnfeed/hn"
)

func TestPrintStories(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	items := []*hn.Item{
		{
			ID:          8863,
			Title:       "My YC app: Dropbox - Throw away your USB drive",
			URL:         "http://www.getdropbox.com/u/2/screencast.html",
			By:          "dhouston",
			Score:       104,
			Descendants: 71,
			Time:        now.Add(-3 * time.Hour),
		},
		{
			ID:    121003,
			Title: "Ask HN: The Arc Effect",
			By:    "tel",
			Score: 1,
			Time:  now.Add(-90 * time.Second),
		},
	}

	buffer := &bytes.Buffer{}
	printStories(buffer, items, now)

	want := "  1. My YC app: Dropbox - Throw away your USB drive (WWW.GETDROPBOX.COM)\n" +
		"     104 points • by dhouston • 3 hours ago • 71 comments • id 8863\n" +
		"  2. Ask HN: The Arc Effect\n" +
		"     1 point • by tel • 1 minute ago • No comments • id 121003\n"

	if output := buffer.String(); output != want {
		t.Errorf("output:\n\t%q\nwant:\n\t%q", output, want)
	}
}
