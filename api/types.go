package api

import (
	"encoding/json"
	"sort"

	"github.com/crunchy-cli/crunchy/lang"
	"github.com/crunchy-cli/crunchy/util"
)

// ObjectResponse is a single item of the content API. Episodes, movies and
// movie listings share this envelope and differ only in which metadata
// pointer is populated; music objects carry their fields inline instead.
type ObjectResponse struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Slug        string `json:"slug"`
	StreamsLink string `json:"streams_link"`
	Images      Images `json:"images"`

	EpisodeMetadata      *EpisodeMetadata      `json:"episode_metadata"`
	MovieMetadata        *MovieMetadata        `json:"movie_metadata"`
	MovieListingMetadata *MovieListingMetadata `json:"movie_listing_metadata"`

	Rating *Rating `json:"rating"`

	// Music object fields. The music endpoints do not nest their metadata.
	Name            string   `json:"name"`
	Artist          Artist   `json:"artist"`
	Genres          []Genre  `json:"genres"`
	MaturityRatings []string `json:"maturity_ratings"`
	PremiumOnlyFlag bool     `json:"isPremiumOnly"`
	ConcertIDs      []string `json:"concerts"`
	VideoIDs        []string `json:"videos"`
}

// EpisodeMetadata holds the episode-specific fields of an object response.
type EpisodeMetadata struct {
	AudioLocale     string    `json:"audio_locale"`
	AudioLocales    []string  `json:"audio_locales"`
	DurationMS      int64     `json:"duration_ms"`
	Episode         string    `json:"episode"`
	SequenceNumber  *float64  `json:"sequence_number"`
	SeasonTitle     string    `json:"season_title"`
	SeasonID        string    `json:"season_id"`
	SeasonNumber    *int      `json:"season_number"`
	SeriesTitle     string    `json:"series_title"`
	SeriesID        string    `json:"series_id"`
	UploadDate      string    `json:"upload_date"`
	MaturityRatings []string  `json:"maturity_ratings"`
	IsPremiumOnly   bool      `json:"is_premium_only"`
	Versions        []Version `json:"versions"`
}

// MovieMetadata holds the movie-specific fields of an object response.
type MovieMetadata struct {
	AudioLocale     string    `json:"audio_locale"`
	AudioLocales    []string  `json:"audio_locales"`
	DurationMS      int64     `json:"duration_ms"`
	MaturityRatings []string  `json:"maturity_ratings"`
	IsPremiumOnly   bool      `json:"is_premium_only"`
	Versions        []Version `json:"versions"`
}

// MovieListingMetadata holds the fields of a movie listing, a container
// object grouping the individual movies of one release.
type MovieListingMetadata struct {
	DurationMS      int64    `json:"duration_ms"`
	MaturityRatings []string `json:"maturity_ratings"`
	IsPremiumOnly   bool     `json:"is_premium_only"`
	FirstMovieID    string   `json:"first_movie_id"`
}

// Version is one audio-language edition of an object. Every version lives
// on its own watch page reachable through its guid.
type Version struct {
	GUID         string   `json:"guid"`
	AudioLocale  string   `json:"audio_locale"`
	AudioLocales []string `json:"audio_locales"`
	Original     bool     `json:"original"`
}

// AudioLangs returns the case-folded set of audio languages of a version,
// merged from both locale fields and deduplicated in encounter order.
func (v Version) AudioLangs() []string {
	var langs []string
	seen := make(map[string]struct{})
	add := func(code string) {
		code = lang.Fold(code)
		if code == "" {
			return
		}
		if _, dup := seen[code]; dup {
			return
		}
		langs = append(langs, code)
		seen[code] = struct{}{}
	}
	for _, code := range v.AudioLocales {
		add(code)
	}
	add(v.AudioLocale)
	return langs
}

// Artist is the performing artist of a music object.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Genre is a display-oriented genre tag of a music object.
type Genre struct {
	DisplayValue string `json:"displayValue"`
}

// Images groups the artwork variants of an object. Each variant is a list
// of size groups, each group a list of concrete renditions.
type Images struct {
	Thumbnail  [][]Image `json:"thumbnail"`
	PosterTall [][]Image `json:"poster_tall"`
	PosterWide [][]Image `json:"poster_wide"`
}

// Image is a single artwork rendition.
type Image struct {
	Source string `json:"source"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Flatten returns every image of every variant, thumbnails first.
func (i Images) Flatten() []Image {
	var images []Image
	for _, variant := range [][][]Image{i.Thumbnail, i.PosterTall, i.PosterWide} {
		for _, group := range variant {
			images = append(images, group...)
		}
	}
	return images
}

// Rating carries the displayed like and dislike counters of an object.
type Rating struct {
	Up   DisplayedCount `json:"up"`
	Down DisplayedCount `json:"down"`
}

// DisplayedCount is a human-formatted counter such as {"displayed": "1.2",
// "unit": "K"}.
type DisplayedCount struct {
	Displayed string `json:"displayed"`
	Unit      string `json:"unit"`
}

// Count parses the displayed value into an absolute number, -1 if it cannot
// be parsed.
func (c DisplayedCount) Count() int64 {
	return util.ParseCount(c.Displayed + c.Unit)
}

// Versions returns the audio-language editions of the object. Only episodes
// and movies carry version lists.
func (o *ObjectResponse) Versions() []Version {
	switch o.Type {
	case "episode":
		if o.EpisodeMetadata != nil {
			return o.EpisodeMetadata.Versions
		}
	case "movie":
		if o.MovieMetadata != nil {
			return o.MovieMetadata.Versions
		}
	}
	return nil
}

// AudioLangs returns the case-folded audio languages of the object itself.
func (o *ObjectResponse) AudioLangs() []string {
	switch o.Type {
	case "episode":
		if o.EpisodeMetadata != nil {
			return Version{
				AudioLocale:  o.EpisodeMetadata.AudioLocale,
				AudioLocales: o.EpisodeMetadata.AudioLocales,
			}.AudioLangs()
		}
	case "movie":
		if o.MovieMetadata != nil {
			return Version{
				AudioLocale:  o.MovieMetadata.AudioLocale,
				AudioLocales: o.MovieMetadata.AudioLocales,
			}.AudioLangs()
		}
	}
	return nil
}

// PremiumOnly reports whether the object is gated behind a subscription.
func (o *ObjectResponse) PremiumOnly() bool {
	switch o.Type {
	case "episode":
		return o.EpisodeMetadata != nil && o.EpisodeMetadata.IsPremiumOnly
	case "movie":
		return o.MovieMetadata != nil && o.MovieMetadata.IsPremiumOnly
	case "movie_listing":
		return o.MovieListingMetadata != nil && o.MovieListingMetadata.IsPremiumOnly
	default:
		return o.PremiumOnlyFlag
	}
}

// decodeInlineObject reads a list item whose metadata fields sit at the top
// level rather than under a metadata key, as the signed listing endpoints
// return them, and normalizes it to the nested object shape.
func decodeInlineObject(raw json.RawMessage, objectType string) (*ObjectResponse, error) {
	var object ObjectResponse
	if err := json.Unmarshal(raw, &object); err != nil {
		return nil, err
	}
	if object.Type == "" {
		object.Type = objectType
	}

	switch object.Type {
	case "episode":
		if object.EpisodeMetadata == nil {
			var meta EpisodeMetadata
			if err := json.Unmarshal(raw, &meta); err != nil {
				return nil, err
			}
			object.EpisodeMetadata = &meta
		}
	case "movie":
		if object.MovieMetadata == nil {
			var meta MovieMetadata
			if err := json.Unmarshal(raw, &meta); err != nil {
				return nil, err
			}
			object.MovieMetadata = &meta
		}
	}
	return &object, nil
}

// Season is one season of a series.
type Season struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	SeasonNumber int    `json:"season_number"`
}

// Stream is one hardsub edition of a stream type inside a stream response.
type Stream struct {
	URL           string `json:"url"`
	HardsubLocale string `json:"hardsub_locale"`
}

// Subtitle is a single subtitle track.
type Subtitle struct {
	URL    string `json:"url"`
	Format string `json:"format"`
}

// streamMeta is the metadata block of a stream response.
type streamMeta struct {
	AudioLocale string              `json:"audio_locale"`
	Subtitles   map[string]Subtitle `json:"subtitles"`
}

// StreamResponse is the playback manifest catalog of one object version.
// Older responses carry the stream table at the top level, newer ones nest
// it as the first data element.
type StreamResponse struct {
	Streams     map[string]map[string]Stream   `json:"streams"`
	Data        []map[string]map[string]Stream `json:"data"`
	Meta        streamMeta                     `json:"meta"`
	AudioLocale string                         `json:"audio_locale"`
	Subtitles   map[string]Subtitle            `json:"subtitles"`
}

// ByType returns the stream table keyed by stream type, each type's streams
// ordered by their folded hardsub locale so that evaluation order does not
// depend on map iteration.
func (r *StreamResponse) ByType() map[string][]Stream {
	table := r.Streams
	if table == nil && len(r.Data) > 0 {
		table = r.Data[0]
	}

	byType := make(map[string][]Stream, len(table))
	for streamType, streams := range table {
		keys := make([]string, 0, len(streams))
		for key := range streams {
			keys = append(keys, key)
		}
		sort.Slice(keys, func(i, j int) bool {
			return lang.Fold(streams[keys[i]].HardsubLocale) < lang.Fold(streams[keys[j]].HardsubLocale)
		})
		ordered := make([]Stream, 0, len(keys))
		for _, key := range keys {
			ordered = append(ordered, streams[key])
		}
		byType[streamType] = ordered
	}
	return byType
}

// Audio returns the audio locale of the response, preferring the top-level
// field over the metadata block.
func (r *StreamResponse) Audio() string {
	if r.AudioLocale != "" {
		return r.AudioLocale
	}
	return r.Meta.AudioLocale
}

// SubtitleMap returns the subtitle tracks keyed by locale, preferring the
// top-level map over the metadata block.
func (r *StreamResponse) SubtitleMap() map[string]Subtitle {
	if len(r.Subtitles) > 0 {
		return r.Subtitles
	}
	return r.Meta.Subtitles
}

// Intro is the skippable intro chapter of an episode.
type Intro struct {
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
}

// Rendition is one concrete quality of a resolved manifest.
type Rendition struct {
	URL       string
	Container string
	Codecs    string
	Bandwidth int64
	Width     int
	Height    int
	FrameRate float64
	HasAudio  bool
}
