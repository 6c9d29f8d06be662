package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	UserAgent = "dgs-reports/1.0 (github.com/pfrederiksen/dgs-reports)"
	Timeout   = 30 * time.Second

	// DateTokenLayout formats the date token searched for in report links.
	DateTokenLayout = "20060102"
)

// Scraper locates and downloads DGS situation reports
type Scraper struct {
	client     *http.Client
	url        string
	userAgent  string
	reportsDir string
}

// Option configures a Scraper
type Option func(*Scraper)

// WithTimeout bounds every request made by the scraper
func WithTimeout(d time.Duration) Option {
	return func(s *Scraper) {
		s.client.Timeout = d
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(s *Scraper) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(s *Scraper) {
		s.client = c
	}
}

// New creates a Scraper reading the listing page at listingURL and saving
// reports under reportsDir.
func New(listingURL, reportsDir string, opts ...Option) *Scraper {
	s := &Scraper{
		client: &http.Client{
			Timeout: Timeout,
		},
		url:        listingURL,
		userAgent:  UserAgent,
		reportsDir: reportsDir,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DateToken returns the token identifying the report of day in its URL.
func DateToken(day time.Time) string {
	return day.Format(DateTokenLayout)
}

// LocateReport fetches the listing page and returns the href of the first
// anchor containing the date token of day. The href is returned as written
// in the page; use ResolveURL before downloading a relative one.
func (s *Scraper) LocateReport(ctx context.Context, day time.Time) (string, error) {
	body, err := s.get(ctx, s.url)
	if err != nil {
		return "", err
	}
	defer body.Close()

	return findReportLink(body, DateToken(day), s.url)
}

// ResolveURL resolves href against the listing page URL.
func (s *Scraper) ResolveURL(href string) (string, error) {
	base, err := url.Parse(s.url)
	if err != nil {
		return "", fmt.Errorf("parsing listing URL: %w", err)
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("parsing report href %q: %w", href, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// findReportLink scans anchors in document order for one whose href contains token
func findReportLink(r io.Reader, token, sourceURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	var found string
	doc.Find("a[href]").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if strings.Contains(href, token) {
			found = href
			return false
		}
		return true
	})

	if found == "" {
		return "", &NotFoundError{URL: sourceURL, Token: token}
	}
	return found, nil
}

// get issues a GET and returns the body of a 2xx response
func (s *Scraper) get(ctx context.Context, target string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &TransportError{URL: target, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &TransportError{URL: target, StatusCode: resp.StatusCode}
	}

	return resp.Body, nil
}
