package config

import "errors"

// Configuration validation errors returned by Config.Validate.
// Callers can use errors.Is to tell them apart.
var (
	// ErrNoListingURL is returned when listing_url is empty or not absolute.
	ErrNoListingURL = errors.New("listing_url must be an absolute http(s) URL")

	// ErrNoReportsDir is returned when reports_dir is empty.
	ErrNoReportsDir = errors.New("reports_dir must be set")

	// ErrNoDataset is returned when data_dir or dataset_name is empty.
	ErrNoDataset = errors.New("data_dir and dataset_name must be set")

	// ErrUnknownLayout is returned when layout_version does not name a layout.
	ErrUnknownLayout = errors.New("layout_version does not match any configured layout")

	// ErrInvalidLayout is returned when the selected layout has no page or regions,
	// or a region whose edges are inverted.
	ErrInvalidLayout = errors.New("invalid layout")

	// ErrInvalidTimeout is returned when http_timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid http_timeout: must be positive")
)
