package api

import (
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestVersionAudioLangs(t *testing.T) {
	Convey("Version.AudioLangs", t, func() {
		Convey("Merges and folds both locale fields", func() {
			version := Version{
				AudioLocale:  "JA-JP",
				AudioLocales: []string{"ja-JP", "en-US"},
			}
			So(version.AudioLangs(), ShouldResemble, []string{"ja-jp", "en-us"})
		})

		Convey("Drops empty entries", func() {
			So(Version{AudioLocales: []string{""}}.AudioLangs(), ShouldBeEmpty)
		})
	})
}

func TestStreamResponse(t *testing.T) {
	Convey("StreamResponse", t, func() {
		Convey("Prefers the top-level stream table", func() {
			response := &StreamResponse{
				Streams: map[string]map[string]Stream{
					"adaptive_hls": {
						"en-US": {URL: "https://cdn.example.com/en.m3u8", HardsubLocale: "en-US"},
						"":      {URL: "https://cdn.example.com/raw.m3u8"},
					},
				},
			}
			byType := response.ByType()
			So(byType, ShouldContainKey, "adaptive_hls")
			So(byType["adaptive_hls"], ShouldHaveLength, 2)
			// Ordered by folded hardsub locale, untagged first.
			So(byType["adaptive_hls"][0].HardsubLocale, ShouldBeEmpty)
			So(byType["adaptive_hls"][1].HardsubLocale, ShouldEqual, "en-US")
		})

		Convey("Falls back to the first data element", func() {
			response := &StreamResponse{
				Data: []map[string]map[string]Stream{{
					"adaptive_dash": {"": {URL: "https://cdn.example.com/manifest.mpd"}},
				}},
			}
			So(response.ByType(), ShouldContainKey, "adaptive_dash")
		})

		Convey("Prefers top-level audio locale and subtitles over meta", func() {
			response := &StreamResponse{
				AudioLocale: "ja-JP",
				Meta:        streamMeta{AudioLocale: "en-US"},
			}
			So(response.Audio(), ShouldEqual, "ja-JP")

			response = &StreamResponse{
				Meta: streamMeta{
					AudioLocale: "en-US",
					Subtitles:   map[string]Subtitle{"de-DE": {URL: "https://cdn.example.com/de.ass", Format: "ass"}},
				},
			}
			So(response.Audio(), ShouldEqual, "en-US")
			So(response.SubtitleMap(), ShouldContainKey, "de-DE")
		})
	})
}

func TestDecodeInlineObject(t *testing.T) {
	Convey("decodeInlineObject", t, func() {
		Convey("Lifts inline episode metadata into the nested shape", func() {
			raw := json.RawMessage(`{
				"id": "EP1",
				"title": "First Contact",
				"audio_locale": "ja-JP",
				"season_title": "Season One",
				"episode": "1",
				"is_premium_only": true
			}`)
			episode, err := decodeInlineObject(raw, "episode")
			So(err, ShouldBeNil)
			So(episode.Type, ShouldEqual, "episode")
			So(episode.EpisodeMetadata, ShouldNotBeNil)
			So(episode.EpisodeMetadata.AudioLocale, ShouldEqual, "ja-JP")
			So(episode.EpisodeMetadata.SeasonTitle, ShouldEqual, "Season One")
			So(episode.PremiumOnly(), ShouldBeTrue)
		})

		Convey("Leaves nested metadata untouched", func() {
			raw := json.RawMessage(`{
				"id": "EP2",
				"type": "episode",
				"episode_metadata": {"audio_locale": "en-US"}
			}`)
			episode, err := decodeInlineObject(raw, "episode")
			So(err, ShouldBeNil)
			So(episode.EpisodeMetadata.AudioLocale, ShouldEqual, "en-US")
		})
	})
}

func TestDisplayedCount(t *testing.T) {
	Convey("DisplayedCount.Count", t, func() {
		So(DisplayedCount{Displayed: "1.2", Unit: "K"}.Count(), ShouldEqual, 1200)
		So(DisplayedCount{Displayed: "42"}.Count(), ShouldEqual, 42)
		So(DisplayedCount{Displayed: "n/a"}.Count(), ShouldEqual, -1)
	})
}
