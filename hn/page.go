package hn

import (
	"fmt"
	"strings"
)

// Page is one of the story list tabs.
type Page int

const (
	PageTop Page = iota
	PageNew
	PageShow
	PageAsk
	PageJobs
)

var AllPages = []Page{PageTop, PageNew, PageShow, PageAsk, PageJobs}

var pageLabels = map[Page]string{
	PageTop:  "Top",
	PageNew:  "New",
	PageShow: "Show",
	PageAsk:  "Ask",
	PageJobs: "Jobs",
}

var pageEndpoints = map[Page]string{
	PageTop:  "topstories",
	PageNew:  "newstories",
	PageShow: "showstories",
	PageAsk:  "askstories",
	PageJobs: "jobstories",
}

func (p Page) String() string {
	if label, ok := pageLabels[p]; ok {
		return label
	}
	return fmt.Sprintf("Page(%d)", int(p))
}

// Endpoint returns name of API resource listing story IDs of this page.
func (p Page) Endpoint() string {
	return pageEndpoints[p]
}

func (p Page) Valid() bool {
	_, ok := pageLabels[p]
	return ok
}

// ParsePage accepts either tab label or endpoint name, case insensitive.
func ParsePage(name string) (Page, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	for _, page := range AllPages {
		if name == strings.ToLower(page.String()) || name == page.Endpoint() {
			return page, nil
		}
	}

	return PageTop, fmt.Errorf("unknown page %q", name)
}
