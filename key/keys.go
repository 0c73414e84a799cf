// Package key defines the canonical identifiers for all configuration fields.
package key

const (
	// Language is the audio-language selection expression.
	Language = "language"
	// Format is the set of accepted stream-type names.
	Format = "format"
	// Hardsub is the set of accepted hardsub language codes, or "all".
	Hardsub = "hardsub"
	// Locale is the interface locale sent with every API request.
	Locale = "locale"

	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"

	CliColored          = "cli.colored"
	CliVersionCheck     = "cli.version_check"
	CliQuerySuggestions = "cli.query_suggestions"

	IconsVariant = "icons.variant"
)
