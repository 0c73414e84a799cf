package resolve

import (
	"fmt"
	"iter"

	"github.com/crunchy-cli/crunchy/api"
	"github.com/crunchy-cli/crunchy/lang"
	"github.com/crunchy-cli/crunchy/log"
)

// seriesChildren enumerates the episodes of a series lazily, season by
// season. No request is issued before the sequence is consumed, and
// stopping early skips the requests for the remaining seasons. Each
// episode is matched against the selector on its own audio languages; the
// matching languages travel with the child so resolving it does not
// re-evaluate the expression.
func (r *Resolver) seriesChildren(seriesID string, selector *lang.Selector) iter.Seq[*Child] {
	return func(yield func(*Child) bool) {
		seasons, err := r.backend.Seasons(seriesID)
		if err != nil {
			log.Warnf("Could not list seasons of series %s: %v", seriesID, err)
			return
		}

		for _, season := range seasons {
			episodes, err := r.backend.Episodes(season.ID)
			if err != nil {
				log.Warnf("Could not list episodes of season %s: %v", season.ID, err)
				continue
			}

			for _, episode := range episodes {
				targets := matchEpisodeLangs(selector, episode.AudioLangs())
				if len(targets) == 0 {
					continue
				}
				child := &Child{
					ID:          episode.ID,
					Kind:        "episode",
					TargetLangs: targets,
					Seed:        transformEpisode(episode),
				}
				if !yield(child) {
					return
				}
			}
		}
	}
}

// matchEpisodeLangs evaluates the selector against one episode's audio
// languages plus the always-available Default. A Default match stands in
// for any episode language, so the child only pins "~"; otherwise the
// episode's own matching languages are pinned. An empty result means the
// episode is skipped.
func matchEpisodeLangs(selector *lang.Selector, episodeLangs []string) []string {
	codes := make([]string, 0, len(episodeLangs)+2)
	codes = append(codes, episodeLangs...)
	if len(episodeLangs) == 0 {
		// An episode without language information exposes the unknown code.
		codes = append(codes, "")
	}
	codes = append(codes, lang.DefaultTag)

	matches := selector.MatchList(codes)
	if selector.HasMatch(lang.DefaultTag, matches) {
		return []string{"~"}
	}
	return selector.HasMatches(episodeLangs, matches)
}

// movieListChildren enumerates the movies of a movie listing lazily.
func (r *Resolver) movieListChildren(listingID string) iter.Seq[*Child] {
	return func(yield func(*Child) bool) {
		movies, err := r.backend.Movies(listingID)
		if err != nil {
			log.Warnf("Could not list movies of listing %s: %v", listingID, err)
			return
		}

		for _, movie := range movies {
			child := &Child{
				ID:   movie.ID,
				Kind: "movie",
				Seed: transformMovie(movie),
			}
			if !yield(child) {
				return
			}
		}
	}
}

// artistChildren enumerates the concerts and music videos of an artist.
// The ids are already part of the artist response, so no further requests
// are needed.
func artistChildren(artist *api.ObjectResponse) iter.Seq[*Child] {
	return func(yield func(*Child) bool) {
		works := []struct {
			kind string
			ids  []string
		}{
			{kind: "concert", ids: artist.ConcertIDs},
			{kind: "music_video", ids: artist.VideoIDs},
		}
		for _, group := range works {
			for _, id := range group.ids {
				if !yield(&Child{ID: id, Kind: group.kind}) {
					return
				}
			}
		}
	}
}

// FirstMovie returns the id of a movie listing's first movie, so callers
// that do not want the whole listing can resolve just that one.
func (r *Resolver) FirstMovie(listingID string) (string, error) {
	object, err := r.backend.Object(listingID)
	if err != nil {
		return "", err
	}
	if object.Type != "movie_listing" {
		return "", &UnknownKindError{Kind: object.Type}
	}
	if object.MovieListingMetadata == nil || object.MovieListingMetadata.FirstMovieID == "" {
		return "", fmt.Errorf("movie listing %s has no first movie", object.ID)
	}
	return object.MovieListingMetadata.FirstMovieID, nil
}
