// Package config holds the runtime configuration for dgs-reports.
//
// Configuration is layered: built-in defaults, then an optional YAML file, then an
// optional .env file, then DGS_* environment variables. The report page layout
// (page number, region coordinates, header presence) is versioned data under
// "layouts" and selected with "layout_version", so a change in the published
// report is a configuration update rather than a code change.
package config
