// Package resolve turns platform objects into playable results: it selects
// audio-language versions, merges them into a single result with per-format
// provenance, and expands stream catalogs into concrete formats.
package resolve

import (
	"iter"

	"github.com/crunchy-cli/crunchy/api"
)

// Format is one playable rendition of a result. When several language
// versions are merged, Overrides records the scalar fields in which the
// format's own version differs from the primary result, so selecting the
// format restores the right metadata.
type Format struct {
	ID        string
	URL       string
	Container string
	Codecs    string
	Bandwidth int64
	Width     int
	Height    int
	FrameRate float64
	Quality   int
	Language  string
	Overrides map[string]any
}

// Chapter is a named time range inside a result, such as a skippable intro.
type Chapter struct {
	Title     string
	StartTime float64
	EndTime   float64
}

// Child is one entry of a container result. TargetLangs pins down the
// audio languages already known to match, so resolving the child does not
// re-evaluate the full selection expression; Seed carries the metadata
// known without any further fetches.
type Child struct {
	ID          string
	Kind        string
	TargetLangs []string
	Seed        *Result
}

// Result is a fully resolved media object, or a container whose entries
// are enumerated lazily through Children.
type Result struct {
	ID            string
	Kind          string
	Title         string
	DisplayID     string
	Episode       string
	Description   string
	Series        string
	SeriesID      string
	Season        string
	SeasonID      string
	SeasonNumber  *int
	EpisodeNumber *float64
	Duration      float64
	Timestamp     int64
	AgeLimit      int
	Language      string
	Track         string
	Artist        string
	LikeCount     int64
	DislikeCount  int64

	Genres     []string
	Thumbnails []api.Image
	Chapters   []Chapter
	Formats    []*Format
	Subtitles  map[string][]api.Subtitle

	Children iter.Seq[*Child]
}

// scalars returns the comparable fields of the result as named values,
// omitting zero values. Season and episode numbers track their presence by
// pointer, so a legitimate zero (episode 0 exists) still participates in
// version diffing. Composite fields such as formats, thumbnails and
// children never participate.
func (r *Result) scalars() map[string]any {
	fields := map[string]any{}
	put := func(name string, value any) {
		switch v := value.(type) {
		case string:
			if v == "" {
				return
			}
		case int:
			if v == 0 {
				return
			}
		case int64:
			if v == 0 {
				return
			}
		case float64:
			if v == 0 {
				return
			}
		}
		fields[name] = value
	}

	put("id", r.ID)
	put("title", r.Title)
	put("display_id", r.DisplayID)
	put("episode", r.Episode)
	put("description", r.Description)
	put("series", r.Series)
	put("series_id", r.SeriesID)
	put("season", r.Season)
	put("season_id", r.SeasonID)
	if r.SeasonNumber != nil {
		fields["season_number"] = *r.SeasonNumber
	}
	if r.EpisodeNumber != nil {
		fields["episode_number"] = *r.EpisodeNumber
	}
	put("duration", r.Duration)
	put("timestamp", r.Timestamp)
	put("age_limit", r.AgeLimit)
	put("language", r.Language)
	put("track", r.Track)
	put("artist", r.Artist)
	put("like_count", r.LikeCount)
	put("dislike_count", r.DislikeCount)
	return fields
}

// diff returns the scalar fields of the candidate that are absent from or
// different in the baseline.
func diff(candidate, baseline *Result) map[string]any {
	base := baseline.scalars()
	overrides := map[string]any{}
	for name, value := range candidate.scalars() {
		if baseValue, ok := base[name]; !ok || baseValue != value {
			overrides[name] = value
		}
	}
	return overrides
}
