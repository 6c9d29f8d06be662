// Package scraper locates and downloads the DGS daily situation report.
//
// The Locator fetches the public listing page from covid19.min-saude.pt and picks the
// first link whose href contains the report date as an 8-digit YYYYMMDD token. The
// Fetcher downloads the linked PDF verbatim into the reports directory, naming it
// after the final path segment of the URL.
package scraper
