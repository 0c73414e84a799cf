// Package constant defines immutable application-level identifiers and configuration defaults.
package constant

const (
	// Crunchy is the canonical application identifier used for filesystem paths and CLI branding.
	Crunchy = "crunchy"

	// Version is the current application semantic version string.
	Version = "0.1.0"

	// UserAgent is the default HTTP User-Agent string used for network requests to the platform.
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// BaseURL is the public site root; the content API lives under it.
	BaseURL = "https://www.crunchyroll.com"

	// APIBase hosts the legacy session endpoints used during login.
	APIBase = "https://api.crunchyroll.com"

	// StaticBase serves auxiliary data such as intro chapter markers.
	StaticBase = "https://static.crunchyroll.com"

	// AnonClientID is the public client identifier used for anonymous token grants.
	AnonClientID = "cr_web"
)

// Build metadata, overridden at link time via -ldflags.
var (
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
	Revision = "unknown"
)
