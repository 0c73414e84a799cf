package resolve

import (
	"testing"

	"github.com/crunchy-cli/crunchy/api"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTransformEpisode(t *testing.T) {
	Convey("transformEpisode", t, func() {
		object := &api.ObjectResponse{
			ID:          "EP1",
			Type:        "episode",
			Title:       "To the Future",
			Description: `First line.\r\nSecond line.`,
			EpisodeMetadata: &api.EpisodeMetadata{
				AudioLocale:     "ja-JP",
				DurationMS:      1380241,
				Episode:         "73",
				SequenceNumber:  lo.ToPtr(73.0),
				SeasonTitle:     "World Trigger",
				SeasonID:        "SE1",
				SeasonNumber:    lo.ToPtr(1),
				SeriesTitle:     "World Trigger",
				SeriesID:        "SR1",
				UploadDate:      "2016-04-02T21:30:00Z",
				MaturityRatings: []string{"TV-14"},
			},
		}
		result := transformEpisode(object)

		Convey("Composes the headline from season, episode and title", func() {
			So(result.Title, ShouldEqual, "World Trigger Episode 73 – To the Future")
			So(result.Episode, ShouldEqual, "To the Future")
		})

		Convey("Converts duration, timestamp and age limit", func() {
			So(result.Duration, ShouldAlmostEqual, 1380.241, 0.001)
			So(result.Timestamp, ShouldEqual, 1459632600)
			So(result.AgeLimit, ShouldEqual, 14)
		})

		Convey("Rewrites literal escape sequences in the description", func() {
			So(result.Description, ShouldEqual, "First line.\nSecond line.")
		})

		Convey("Carries the audio locale as the result language", func() {
			So(result.Language, ShouldEqual, "ja-JP")
		})

		Convey("Keeps the episode number presence distinct from its value", func() {
			So(*result.EpisodeNumber, ShouldEqual, 73)
			bare := transformEpisode(&api.ObjectResponse{ID: "EP2", Title: "Shelter"})
			So(bare.EpisodeNumber, ShouldBeNil)
		})

		Convey("Falls back to the plain title without season context", func() {
			bare := transformEpisode(&api.ObjectResponse{ID: "EP2", Title: "Shelter"})
			So(bare.Title, ShouldEqual, "Shelter")
		})
	})
}

func TestTransformMovie(t *testing.T) {
	Convey("transformMovie", t, func() {
		Convey("Reads movie metadata", func() {
			result := transformMovie(&api.ObjectResponse{
				ID:    "M1",
				Type:  "movie",
				Title: "Garakowa",
				MovieMetadata: &api.MovieMetadata{
					DurationMS:      3996104,
					MaturityRatings: []string{"TV-PG", "13+"},
				},
			})
			So(result.Kind, ShouldEqual, "movie")
			So(result.Duration, ShouldAlmostEqual, 3996.104, 0.001)
			So(result.AgeLimit, ShouldEqual, 13)
		})

		Convey("Falls back to listing metadata", func() {
			result := transformMovie(&api.ObjectResponse{
				ID:   "ML1",
				Type: "movie_listing",
				MovieListingMetadata: &api.MovieListingMetadata{
					DurationMS: 65138,
				},
			})
			So(result.Duration, ShouldAlmostEqual, 65.138, 0.001)
		})
	})
}

func TestParseAgeLimit(t *testing.T) {
	Convey("parseAgeLimit", t, func() {
		Convey("Uses the last rating", func() {
			So(parseAgeLimit([]string{"TV-PG", "TV-14"}), ShouldEqual, 14)
		})

		Convey("Yields zero without a numeric rating", func() {
			So(parseAgeLimit([]string{"G"}), ShouldEqual, 0)
			So(parseAgeLimit(nil), ShouldEqual, 0)
		})
	})
}

func TestDiff(t *testing.T) {
	Convey("diff", t, func() {
		baseline := &Result{ID: "A", Title: "Same", Language: "ja-JP", Duration: 100}
		candidate := &Result{ID: "B", Title: "Same", Language: "en-US", Duration: 100}

		Convey("Collects only differing scalar fields", func() {
			overrides := diff(candidate, baseline)
			So(overrides, ShouldResemble, map[string]any{
				"id":       "B",
				"language": "en-US",
			})
		})

		Convey("Is empty for identical results", func() {
			So(diff(baseline, baseline), ShouldBeEmpty)
		})

		Convey("Zero values never participate", func() {
			overrides := diff(&Result{ID: "B"}, baseline)
			So(overrides, ShouldResemble, map[string]any{"id": "B"})
		})

		Convey("A present-but-zero episode number is still a difference", func() {
			zeroth := &Result{ID: "B", Title: "Same", Language: "ja-JP", Duration: 100, EpisodeNumber: lo.ToPtr(0.0)}
			numbered := &Result{ID: "A", Title: "Same", Language: "ja-JP", Duration: 100, EpisodeNumber: lo.ToPtr(73.0)}

			overrides := diff(zeroth, numbered)
			So(overrides, ShouldContainKey, "episode_number")
			So(overrides["episode_number"], ShouldEqual, 0.0)

			Convey("But an absent number is not", func() {
				So(diff(&Result{ID: "A", Title: "Same", Language: "ja-JP", Duration: 100}, numbered), ShouldBeEmpty)
			})
		})
	})
}
