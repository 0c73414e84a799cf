package resolve

import (
	"fmt"
	"testing"

	"github.com/crunchy-cli/crunchy/api"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeBackend serves canned responses and counts the requests per method.
type fakeBackend struct {
	objects    map[string]*api.ObjectResponse
	streams    map[string]*api.StreamResponse
	seasons    map[string][]api.Season
	episodes   map[string][]*api.ObjectResponse
	movies     map[string][]*api.ObjectResponse
	series     map[string]*api.ObjectResponse
	artists    map[string]*api.ObjectResponse
	music      map[string]*api.ObjectResponse
	renditions map[string][]api.Rendition
	intros     map[string]*api.Intro
	calls      map[string]int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		objects:    map[string]*api.ObjectResponse{},
		streams:    map[string]*api.StreamResponse{},
		seasons:    map[string][]api.Season{},
		episodes:   map[string][]*api.ObjectResponse{},
		movies:     map[string][]*api.ObjectResponse{},
		series:     map[string]*api.ObjectResponse{},
		artists:    map[string]*api.ObjectResponse{},
		music:      map[string]*api.ObjectResponse{},
		renditions: map[string][]api.Rendition{},
		intros:     map[string]*api.Intro{},
		calls:      map[string]int{},
	}
}

func (f *fakeBackend) Object(id string) (*api.ObjectResponse, error) {
	f.calls["Object"]++
	object, ok := f.objects[id]
	if !ok {
		return nil, fmt.Errorf("object %s: %w", id, api.ErrNotFound)
	}
	return object, nil
}

func (f *fakeBackend) Stream(streamsLink string) (*api.StreamResponse, error) {
	f.calls["Stream"]++
	stream, ok := f.streams[streamsLink]
	if !ok {
		return nil, fmt.Errorf("stream %s: %w", streamsLink, api.ErrNotFound)
	}
	return stream, nil
}

func (f *fakeBackend) Seasons(seriesID string) ([]api.Season, error) {
	f.calls["Seasons"]++
	return f.seasons[seriesID], nil
}

func (f *fakeBackend) Episodes(seasonID string) ([]*api.ObjectResponse, error) {
	f.calls["Episodes"]++
	return f.episodes[seasonID], nil
}

func (f *fakeBackend) Movies(listingID string) ([]*api.ObjectResponse, error) {
	f.calls["Movies"]++
	return f.movies[listingID], nil
}

func (f *fakeBackend) Series(id string) (*api.ObjectResponse, error) {
	f.calls["Series"]++
	series, ok := f.series[id]
	if !ok {
		return nil, fmt.Errorf("series %s: %w", id, api.ErrNotFound)
	}
	return series, nil
}

func (f *fakeBackend) MusicObject(kind, id string) (*api.ObjectResponse, error) {
	f.calls["MusicObject"]++
	object, ok := f.music[id]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", kind, id, api.ErrNotFound)
	}
	return object, nil
}

func (f *fakeBackend) MusicStream(streamsLink string) (*api.StreamResponse, error) {
	f.calls["MusicStream"]++
	stream, ok := f.streams[streamsLink]
	if !ok {
		return nil, fmt.Errorf("stream %s: %w", streamsLink, api.ErrNotFound)
	}
	return stream, nil
}

func (f *fakeBackend) Artist(id string) (*api.ObjectResponse, error) {
	f.calls["Artist"]++
	artist, ok := f.artists[id]
	if !ok {
		return nil, fmt.Errorf("artist %s: %w", id, api.ErrNotFound)
	}
	return artist, nil
}

func (f *fakeBackend) Intro(id string) (*api.Intro, error) {
	f.calls["Intro"]++
	intro, ok := f.intros[id]
	if !ok {
		return nil, api.ErrNotFound
	}
	return intro, nil
}

func (f *fakeBackend) ResolveManifest(manifestURL string) ([]api.Rendition, error) {
	f.calls["ResolveManifest"]++
	renditions, ok := f.renditions[manifestURL]
	if !ok {
		return nil, fmt.Errorf("manifest %s: %w", manifestURL, api.ErrNotFound)
	}
	return renditions, nil
}

// episodeObject builds an episode response with one fully expandable
// stream behind it.
func episodeObject(backend *fakeBackend, id, title, audioLocale string, versions []api.Version) *api.ObjectResponse {
	streamsLink := "/content/v2/cms/videos/" + id + "/streams"
	object := &api.ObjectResponse{
		ID:          id,
		Type:        "episode",
		Title:       title,
		StreamsLink: streamsLink,
		EpisodeMetadata: &api.EpisodeMetadata{
			AudioLocale: audioLocale,
			SeasonTitle: "Example Show",
			Episode:     "1",
			Versions:    versions,
		},
	}
	manifestURL := "https://cdn.example.com/" + id + ".m3u8"
	backend.objects[id] = object
	backend.streams[streamsLink] = &api.StreamResponse{
		Streams: map[string]map[string]api.Stream{
			"adaptive_hls": {"": {URL: manifestURL}},
		},
		AudioLocale: audioLocale,
	}
	backend.renditions[manifestURL] = []api.Rendition{
		{URL: manifestURL + "/1080", Container: "mp4", Bandwidth: 4_000_000, Height: 1080, HasAudio: true},
	}
	return object
}

func defaultOptions() Options {
	return Options{Formats: []string{"adaptive_hls"}, Hardsubs: []string{"none"}}
}

func TestWatch(t *testing.T) {
	Convey("Watch", t, func() {
		backend := newFakeBackend()
		versions := []api.Version{
			{GUID: "EP-JA", AudioLocale: "ja-JP"},
			{GUID: "EP-EN", AudioLocale: "en-US"},
		}
		episodeObject(backend, "EP-JA", "First Contact", "ja-JP", versions)
		episodeObject(backend, "EP-EN", "First Contact", "en-US", versions)

		Convey("A single matching version stays untouched", func() {
			opts := defaultOptions()
			opts.Language = "ja-JP"
			result, err := New(backend, opts).Watch("EP-JA", nil)

			So(err, ShouldBeNil)
			So(result.ID, ShouldEqual, "EP-JA")
			So(result.Formats, ShouldHaveLength, 1)
			So(result.Formats[0].Overrides, ShouldBeEmpty)
			// Only the requested page itself is fetched.
			So(backend.calls["Object"], ShouldEqual, 1)
		})

		Convey("Merged versions stamp their differences onto their formats", func() {
			opts := defaultOptions()
			opts.Language = "ja-JP, en-US"
			result, err := New(backend, opts).Watch("EP-JA", nil)

			So(err, ShouldBeNil)
			So(result.ID, ShouldEqual, "EP-JA")
			So(result.Formats, ShouldHaveLength, 2)
			So(result.Formats[0].Overrides, ShouldBeEmpty)
			So(result.Formats[1].Overrides["id"], ShouldEqual, "EP-EN")
			So(result.Formats[1].Overrides["language"], ShouldEqual, "en-US")
			So(result.Formats[1].Overrides, ShouldNotContainKey, "title")
		})

		Convey("A zero episode number in a merged version is stamped", func() {
			backend.objects["EP-JA"].EpisodeMetadata.SequenceNumber = lo.ToPtr(73.0)
			backend.objects["EP-EN"].EpisodeMetadata.SequenceNumber = lo.ToPtr(0.0)
			opts := defaultOptions()
			opts.Language = "ja-JP, en-US"
			result, err := New(backend, opts).Watch("EP-JA", nil)

			So(err, ShouldBeNil)
			So(result.Formats, ShouldHaveLength, 2)
			So(result.Formats[1].Overrides, ShouldContainKey, "episode_number")
			So(result.Formats[1].Overrides["episode_number"], ShouldEqual, 0.0)
		})

		Convey("The requested id stays primary even when listed later", func() {
			opts := defaultOptions()
			opts.Language = "en-US, ja-JP"
			result, err := New(backend, opts).Watch("EP-JA", nil)

			So(err, ShouldBeNil)
			So(result.ID, ShouldEqual, "EP-JA")
		})

		Convey("A missing requested version is skipped, not fatal", func() {
			delete(backend.objects, "EP-EN")
			opts := defaultOptions()
			opts.Language = "ja-JP, en-US"
			result, err := New(backend, opts).Watch("EP-JA", nil)

			So(err, ShouldBeNil)
			So(result.Formats, ShouldHaveLength, 1)
		})

		Convey("A missing requested object is fatal", func() {
			_, err := New(backend, defaultOptions()).Watch("MISSING", nil)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "region locked")
		})

		Convey("No matching version is fatal", func() {
			opts := defaultOptions()
			opts.Language = "de-DE"
			_, err := New(backend, opts).Watch("EP-JA", nil)
			So(err, ShouldEqual, ErrNoMatchingVersion)
		})

		Convey("Smuggled target languages take precedence over the expression", func() {
			opts := defaultOptions()
			opts.Language = "de-DE"
			result, err := New(backend, opts).Watch("EP-JA", []string{"~"})

			So(err, ShouldBeNil)
			So(result.ID, ShouldEqual, "EP-JA")
		})

		Convey("An unknown object type is rejected", func() {
			backend.objects["ODD"] = &api.ObjectResponse{ID: "ODD", Type: "trailer"}
			_, err := New(backend, defaultOptions()).Watch("ODD", nil)

			var unknown *UnknownKindError
			So(err, ShouldHaveSameTypeAs, unknown)
			So(err.Error(), ShouldContainSubstring, "trailer")
		})

		Convey("Premium content without streams reports the login state", func() {
			backend.objects["GOLD"] = &api.ObjectResponse{
				ID:   "GOLD",
				Type: "episode",
				EpisodeMetadata: &api.EpisodeMetadata{
					IsPremiumOnly: true,
				},
			}
			_, err := New(backend, defaultOptions()).Watch("GOLD", nil)

			var premium *PremiumError
			So(err, ShouldHaveSameTypeAs, premium)
			So(err.Error(), ShouldContainSubstring, "log in")
		})

		Convey("An intro chapter is attached when available", func() {
			backend.intros["EP-JA"] = &api.Intro{StartTime: 10, EndTime: 95}
			opts := defaultOptions()
			opts.Language = "ja-JP"
			result, err := New(backend, opts).Watch("EP-JA", nil)

			So(err, ShouldBeNil)
			So(result.Chapters, ShouldHaveLength, 1)
			So(result.Chapters[0].Title, ShouldEqual, "Intro")
			So(result.Chapters[0].EndTime, ShouldEqual, 95)
		})
	})
}

func TestMusic(t *testing.T) {
	Convey("Music", t, func() {
		backend := newFakeBackend()
		streamsLink := "/content/v2/music/streams/MV1"
		backend.music["MV1"] = &api.ObjectResponse{
			ID:          "MV1",
			Type:        "music_video",
			Title:       "Crossing Field",
			Slug:        "crossing-field",
			Artist:      api.Artist{Name: "LiSA"},
			Genres:      []api.Genre{{DisplayValue: "Anime"}},
			StreamsLink: streamsLink,
		}
		manifestURL := "https://cdn.example.com/MV1.m3u8"
		backend.streams[streamsLink] = &api.StreamResponse{
			Streams: map[string]map[string]api.Stream{
				"adaptive_hls": {"": {URL: manifestURL}},
			},
		}
		backend.renditions[manifestURL] = []api.Rendition{{URL: manifestURL + "/720", HasAudio: true}}

		Convey("Resolves a music video with track and artist", func() {
			result, err := New(backend, defaultOptions()).Music("music_video", "MV1")

			So(err, ShouldBeNil)
			So(result.Track, ShouldEqual, "Crossing Field")
			So(result.Artist, ShouldEqual, "LiSA")
			So(result.DisplayID, ShouldEqual, "crossing-field")
			So(result.Genres, ShouldResemble, []string{"Anime"})
			So(result.Formats, ShouldHaveLength, 1)
		})

		Convey("Premium music without streams is gated", func() {
			backend.music["MC1"] = &api.ObjectResponse{
				ID:              "MC1",
				Type:            "concert",
				PremiumOnlyFlag: true,
			}
			opts := defaultOptions()
			opts.LoggedIn = true
			_, err := New(backend, opts).Music("concert", "MC1")

			var premium *PremiumError
			So(err, ShouldHaveSameTypeAs, premium)
			So(err.Error(), ShouldNotContainSubstring, "log in")
		})
	})
}
