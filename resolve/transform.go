package resolve

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/crunchy-cli/crunchy/api"
	"github.com/samber/lo"
)

// ratingDigits extracts the numeric part of a maturity rating such as
// "TV-14" or "FSK-16".
var ratingDigits = regexp.MustCompile(`\d{1,2}`)

// transformEpisode maps an episode response onto a result. The title is
// composed from the season context and the episode's own name, matching
// the watch page headline.
func transformEpisode(object *api.ObjectResponse) *Result {
	meta := object.EpisodeMetadata
	if meta == nil {
		meta = &api.EpisodeMetadata{}
	}

	headline := meta.SeasonTitle
	if meta.Episode != "" {
		headline += fmt.Sprintf(" Episode %s", meta.Episode)
	}
	title := headline
	if object.Title != "" {
		if title != "" {
			title += " – " + object.Title
		} else {
			title = object.Title
		}
	}

	return &Result{
		ID:            object.ID,
		Kind:          "episode",
		Title:         title,
		Episode:       object.Title,
		Description:   normalizeDescription(object.Description),
		Series:        meta.SeriesTitle,
		SeriesID:      meta.SeriesID,
		Season:        meta.SeasonTitle,
		SeasonID:      meta.SeasonID,
		SeasonNumber:  meta.SeasonNumber,
		EpisodeNumber: meta.SequenceNumber,
		Duration:      float64(meta.DurationMS) / 1000,
		Timestamp:     parseTimestamp(meta.UploadDate),
		AgeLimit:      parseAgeLimit(meta.MaturityRatings),
		Language:      meta.AudioLocale,
		Thumbnails:    object.Images.Flatten(),
	}
}

// transformMovie maps a movie or movie listing response onto a result.
func transformMovie(object *api.ObjectResponse) *Result {
	var durationMS int64
	var ratings []string
	switch {
	case object.MovieMetadata != nil:
		durationMS = object.MovieMetadata.DurationMS
		ratings = object.MovieMetadata.MaturityRatings
	case object.MovieListingMetadata != nil:
		durationMS = object.MovieListingMetadata.DurationMS
		ratings = object.MovieListingMetadata.MaturityRatings
	}

	return &Result{
		ID:          object.ID,
		Kind:        object.Type,
		Title:       object.Title,
		Description: normalizeDescription(object.Description),
		Duration:    float64(durationMS) / 1000,
		AgeLimit:    parseAgeLimit(ratings),
		Thumbnails:  object.Images.Flatten(),
	}
}

// transformMusic maps a concert or music video response onto a result.
func transformMusic(object *api.ObjectResponse) *Result {
	return &Result{
		ID:          object.ID,
		Kind:        object.Type,
		Title:       object.Title,
		DisplayID:   object.Slug,
		Track:       object.Title,
		Artist:      object.Artist.Name,
		Description: normalizeDescription(object.Description),
		AgeLimit:    parseAgeLimit(object.MaturityRatings),
		Genres:      genreNames(object.Genres),
		Thumbnails:  object.Images.Flatten(),
	}
}

// transformArtist maps an artist response onto a container result.
func transformArtist(object *api.ObjectResponse) *Result {
	return &Result{
		ID:          object.ID,
		Kind:        "artist",
		Title:       object.Name,
		Description: normalizeDescription(object.Description),
		Genres:      genreNames(object.Genres),
		Thumbnails:  object.Images.Flatten(),
	}
}

// transformSeries maps a series response onto a container result.
func transformSeries(object *api.ObjectResponse) *Result {
	return &Result{
		ID:          object.ID,
		Kind:        "series",
		Title:       object.Title,
		Description: normalizeDescription(object.Description),
		AgeLimit:    parseAgeLimit(object.MaturityRatings),
		Thumbnails:  object.Images.Flatten(),
	}
}

// normalizeDescription rewrites the API's literal escape sequences into
// real line breaks.
func normalizeDescription(description string) string {
	return strings.ReplaceAll(description, `\r\n`, "\n")
}

// parseTimestamp parses an upload date into a unix timestamp, 0 when it is
// missing or malformed.
func parseTimestamp(date string) int64 {
	if date == "" {
		return 0
	}
	parsed, err := time.Parse(time.RFC3339, date)
	if err != nil {
		return 0
	}
	return parsed.Unix()
}

// parseAgeLimit derives an age limit from the last maturity rating, 0 when
// no rating carries a number.
func parseAgeLimit(ratings []string) int {
	if len(ratings) == 0 {
		return 0
	}
	match := ratingDigits.FindString(ratings[len(ratings)-1])
	if match == "" {
		return 0
	}
	limit, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return limit
}

// genreNames flattens genre tags to their display values.
func genreNames(genres []api.Genre) []string {
	return lo.FilterMap(genres, func(genre api.Genre, _ int) (string, bool) {
		return genre.DisplayValue, genre.DisplayValue != ""
	})
}
