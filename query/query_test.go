package query

import (
	"testing"

	"github.com/crunchy-cli/crunchy/filesystem"
	"github.com/crunchy-cli/crunchy/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
	viper.Set(key.CliQuerySuggestions, true)
}

func TestQuery(t *testing.T) {
	Convey("Given resolved address history", t, func() {
		watch := "https://www.crunchyroll.com/watch/gy2p1q98y"
		series := "https://www.crunchyroll.com/series/gy19nq2qr"

		Convey("When remembering addresses", func() {
			So(Remember(watch, 1), ShouldBeNil)
			So(Remember(series, 10), ShouldBeNil)

			Convey("Then suggestions are sorted by rank", func() {
				// Drop the in-memory layer to force a read from the cache file.
				suggestionCache = make(map[string][]*record)

				suggestions := SuggestMany("series")
				So(len(suggestions), ShouldBeGreaterThanOrEqualTo, 1)
				So(suggestions[0], ShouldEqual, series)
			})

			Convey("It sanitizes input", func() {
				So(sanitize("  WATCH/GY2P1Q98Y  "), ShouldEqual, "watch/gy2p1q98y")
			})
		})
	})
}
