package resolve

import (
	"errors"
	"fmt"

	"github.com/crunchy-cli/crunchy/api"
	"github.com/crunchy-cli/crunchy/key"
	"github.com/crunchy-cli/crunchy/lang"
	"github.com/crunchy-cli/crunchy/log"
	"github.com/spf13/viper"
)

// Backend is the API surface the resolver works against. api.Client
// implements it; tests substitute a fake.
type Backend interface {
	Object(id string) (*api.ObjectResponse, error)
	Stream(streamsLink string) (*api.StreamResponse, error)
	Seasons(seriesID string) ([]api.Season, error)
	Episodes(seasonID string) ([]*api.ObjectResponse, error)
	Movies(listingID string) ([]*api.ObjectResponse, error)
	Series(id string) (*api.ObjectResponse, error)
	MusicObject(kind, id string) (*api.ObjectResponse, error)
	MusicStream(streamsLink string) (*api.StreamResponse, error)
	Artist(id string) (*api.ObjectResponse, error)
	Intro(id string) (*api.Intro, error)
	ResolveManifest(manifestURL string) ([]api.Rendition, error)
}

// Options carries the user-facing resolution settings.
type Options struct {
	// Language is the audio-language selection expression.
	Language string
	// Formats are the requested stream types in preference order.
	Formats []string
	// Hardsubs are the requested hardsub languages; "none" requests the
	// untagged stream and "all" every available hardsub.
	Hardsubs []string
	// LoggedIn marks the session as account-backed, which changes how
	// premium gating is reported.
	LoggedIn bool
}

// OptionsFromConfig reads the resolution settings from the global
// configuration.
func OptionsFromConfig(loggedIn bool) Options {
	return Options{
		Language: viper.GetString(key.Language),
		Formats:  viper.GetStringSlice(key.Format),
		Hardsubs: viper.GetStringSlice(key.Hardsub),
		LoggedIn: loggedIn,
	}
}

// Resolver resolves platform objects into results.
type Resolver struct {
	backend Backend
	opts    Options
}

// New creates a resolver over a backend.
func New(backend Backend, opts Options) *Resolver {
	return &Resolver{backend: backend, opts: opts}
}

// selector compiles the effective language selector for a resolution.
// Target languages smuggled from a playlist parent take precedence over the
// configured expression.
func (r *Resolver) selector(targetLangs []string) (*lang.Selector, error) {
	if len(targetLangs) > 0 {
		return lang.FromCodes(targetLangs), nil
	}
	return lang.Parse(r.opts.Language)
}

// Watch resolves a watch-page object: an episode, a movie, or a movie
// listing. For episodes and movies every audio-language version matching
// the selection expression is fetched and merged into one result; a movie
// listing resolves to a container enumerating its movies.
func (r *Resolver) Watch(id string, targetLangs []string) (*Result, error) {
	selector, err := r.selector(targetLangs)
	if err != nil {
		return nil, err
	}

	object, err := r.backend.Object(id)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, fmt.Errorf("no video with id %s could be found (possibly region locked?)", id)
		}
		return nil, err
	}

	switch object.Type {
	case "episode", "movie":
		ids, responses, err := r.responsesForLangs(object, selector)
		if err != nil {
			return nil, err
		}
		return r.mergeVersions(id, ids, responses)

	case "movie_listing":
		result := transformMovie(object)
		result.Children = r.movieListChildren(object.ID)
		return result, nil

	default:
		return nil, &UnknownKindError{Kind: object.Type}
	}
}

// extractWatch resolves a single version response into a result with
// formats, subtitles, chapters and rating counts attached.
func (r *Resolver) extractWatch(object *api.ObjectResponse) (*Result, error) {
	var result *Result
	switch object.Type {
	case "episode":
		result = transformEpisode(object)
	case "movie":
		result = transformMovie(object)
	default:
		return nil, &UnknownKindError{Kind: object.Type}
	}

	if object.StreamsLink == "" {
		if object.PremiumOnly() {
			return nil, &PremiumError{Kind: object.Type, LoggedIn: r.opts.LoggedIn}
		}
		return nil, fmt.Errorf("%s %s has no streams", object.Type, object.ID)
	}

	stream, err := r.backend.Stream(object.StreamsLink)
	if err != nil {
		return nil, err
	}
	result.Formats = r.extractFormats(stream)
	result.Subtitles = extractSubtitles(stream)

	// The chapter endpoint answers with an error document when no intro
	// exists, so a failure here only means there is nothing to skip.
	if intro, err := r.backend.Intro(object.ID); err == nil && intro != nil {
		result.Chapters = []Chapter{{
			Title:     "Intro",
			StartTime: intro.StartTime,
			EndTime:   intro.EndTime,
		}}
	}

	if object.Rating != nil {
		result.LikeCount = object.Rating.Up.Count()
		result.DislikeCount = object.Rating.Down.Count()
	}
	return result, nil
}

// Music resolves a concert or music video.
func (r *Resolver) Music(kind, id string) (*Result, error) {
	object, err := r.backend.MusicObject(kind, id)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, fmt.Errorf("no video with id %s could be found (possibly region locked?)", id)
		}
		return nil, err
	}

	if object.StreamsLink == "" {
		if object.PremiumOnly() {
			return nil, &PremiumError{Kind: object.Type, LoggedIn: r.opts.LoggedIn}
		}
		return nil, fmt.Errorf("%s %s has no streams", object.Type, object.ID)
	}

	result := transformMusic(object)
	stream, err := r.backend.MusicStream(object.StreamsLink)
	if err != nil {
		return nil, err
	}
	result.Formats = r.extractFormats(stream)
	return result, nil
}

// Artist resolves an artist into a container enumerating their concerts
// and music videos.
func (r *Resolver) Artist(id string) (*Result, error) {
	object, err := r.backend.Artist(id)
	if err != nil {
		return nil, err
	}

	result := transformArtist(object)
	result.Children = artistChildren(object)
	return result, nil
}

// Series resolves a series into a container enumerating the episodes whose
// audio languages match the selection expression.
func (r *Resolver) Series(id string) (*Result, error) {
	selector, err := r.selector(nil)
	if err != nil {
		return nil, err
	}

	object, err := r.backend.Series(id)
	if err != nil {
		return nil, err
	}

	result := transformSeries(object)
	result.Children = r.seriesChildren(id, selector)
	return result, nil
}

// responsesForLangs selects the version ids matching the selector and
// fetches their responses. The object's own response is reused for its own
// id; versions the API cannot find are reported once and skipped.
func (r *Resolver) responsesForLangs(object *api.ObjectResponse, selector *lang.Selector) ([]string, map[string]*api.ObjectResponse, error) {
	requestedIDs := selector.KeepTableMatches(versionTable(object))

	var ids []string
	responses := make(map[string]*api.ObjectResponse, len(requestedIDs))
	for _, versionID := range requestedIDs {
		if versionID == object.ID {
			ids = append(ids, versionID)
			responses[versionID] = object
			continue
		}

		response, err := r.backend.Object(versionID)
		if err != nil {
			if errors.Is(err, api.ErrNotFound) {
				log.WarnOnce(fmt.Sprintf(
					"Requested video version with id %s could not be found (possibly region locked?)", versionID))
				continue
			}
			return nil, nil, err
		}
		ids = append(ids, versionID)
		responses[versionID] = response
	}

	if len(ids) == 0 {
		return nil, nil, ErrNoMatchingVersion
	}
	return ids, responses, nil
}
