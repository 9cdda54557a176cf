package human_format

import (
	"fmt"
	"net/url"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var upperCaser = cases.Upper(language.Und)

// DateTime describes how long ago `t` is from `now`, in whole minutes, hours
// or days. Times in the future count as zero minutes ago.
func DateTime(t, now time.Time) string {
	duration := now.Sub(t)
	if duration < 0 {
		duration = 0
	}

	minutes := int64(duration / time.Minute)
	hours := int64(duration / time.Hour)
	days := int64(duration / (24 * time.Hour))

	switch {
	case minutes < 60:
		return plural(minutes, "minute") + " ago"
	case hours < 24:
		return plural(hours, "hour") + " ago"
	default:
		return plural(days, "day") + " ago"
	}
}

// Points returns score label, false is returned for zero score which should
// not be displayed.
func Points(n int) (string, bool) {
	if n == 0 {
		return "", false
	}
	return plural(int64(n), "point"), true
}

// URL returns upper-cased host of link, or the whole link when it has no host.
func URL(u *url.URL) string {
	if u == nil {
		return ""
	}

	host := u.Hostname()
	if host == "" {
		return u.String()
	}

	return upperCaser.String(host)
}

func CommentCount(n int) string {
	if n == 0 {
		return "No comments"
	}
	return plural(int64(n), "comment")
}

func plural(n int64, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
