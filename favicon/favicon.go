package favicon

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/SirZenith/hnfeed/network"
	"github.com/charmbracelet/log"
	"github.com/gocolly/colly/v2"
)

var ErrNoFavicon = errors.New("no favicon found")

// IconSelector matches both `icon` and `shortcut icon` link elements.
const IconSelector = "link[rel~='icon']"

// Fetcher is the part of network.Fetcher needed for favicon lookup.
type Fetcher interface {
	Get(ctx context.Context, url string) (*network.Response, error)
	OnHTML(ctx context.Context, url string, selector string, callback colly.HTMLCallback) (*network.Response, error)
}

// Icon is raw favicon data downloaded for a site.
type Icon struct {
	SiteURL     string
	URL         string
	ContentType string
	Data        []byte
}

// DefaultURL returns `/favicon.ico` URL under host of given site. Only http
// and https sites have such URL.
func DefaultURL(siteURL string) (string, bool) {
	u, err := url.Parse(siteURL)
	if err != nil {
		return "", false
	}

	switch u.Scheme {
	case "http", "https":
	default:
		return "", false
	}

	if u.Host == "" {
		return "", false
	}

	result := url.URL{
		Scheme: u.Scheme,
		User:   u.User,
		Host:   u.Host,
		Path:   "/favicon.ico",
	}

	return result.String(), true
}

// ResolveHref resolves `href` of an icon link against URL of the page it
// was found in. Absolute, scheme-relative, root-relative and relative forms
// are supported.
func ResolveHref(base string, href string) (*url.URL, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return nil, fmt.Errorf("empty href")
	}

	ref, err := url.Parse(href)
	if err != nil {
		return nil, fmt.Errorf("invalid href %q: %w", href, err)
	}

	if ref.IsAbs() {
		return ref, nil
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", base, err)
	}

	if !baseURL.IsAbs() {
		return nil, fmt.Errorf("cannot resolve %q against relative URL %q", href, base)
	}

	return baseURL.ResolveReference(ref), nil
}

// Lookup finds favicon of given site. `/favicon.ico` is tried first, then
// icon link declared in the page itself.
func Lookup(ctx context.Context, fetcher Fetcher, siteURL string) (*Icon, error) {
	if iconURL, ok := DefaultURL(siteURL); ok {
		icon, err := fetchIcon(ctx, fetcher, iconURL)
		if err == nil {
			icon.SiteURL = siteURL
			return icon, nil
		} else if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		log.Debugf("favicon.ico unavailable for %s: %s", siteURL, err)
	}

	return lookupFromHTML(ctx, fetcher, siteURL)
}

func lookupFromHTML(ctx context.Context, fetcher Fetcher, siteURL string) (*Icon, error) {
	href := ""
	found := false

	resp, err := fetcher.OnHTML(ctx, siteURL, "html", func(e *colly.HTMLElement) {
		e.DOM.Find(IconSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if value, ok := s.Attr("href"); ok && value != "" {
				href = value
				found = true
			}
			return !found
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch page %s: %w", ErrNoFavicon, siteURL, err)
	}

	if !found {
		return nil, fmt.Errorf("%w: no icon link in %s", ErrNoFavicon, siteURL)
	}

	iconURL, err := ResolveHref(resp.URL, href)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot resolve favicon href %s from %s: %w", ErrNoFavicon, href, resp.URL, err)
	}

	icon, err := fetchIcon(ctx, fetcher, iconURL.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoFavicon, err)
	}

	icon.SiteURL = siteURL

	return icon, nil
}

func fetchIcon(ctx context.Context, fetcher Fetcher, iconURL string) (*Icon, error) {
	resp, err := fetcher.Get(ctx, iconURL)
	if err != nil {
		return nil, err
	}

	contentType := resp.ContentType()
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("invalid content type %q for %s", contentType, iconURL)
	}

	if len(resp.Body) == 0 {
		return nil, fmt.Errorf("empty icon body from %s", iconURL)
	}

	return &Icon{
		URL:         resp.URL,
		ContentType: contentType,
		Data:        resp.Body,
	}, nil
}
