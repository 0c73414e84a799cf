package util

import (
	"regexp"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSanitizeFilename(t *testing.T) {
	Convey("SanitizeFilename", t, func() {
		Convey("Should replace invalid chars", func() {
			So(SanitizeFilename("file:name?.txt"), ShouldEqual, "file_name_.txt")
		})
		Convey("Should collapse underscores", func() {
			So(SanitizeFilename("file__name.txt"), ShouldEqual, "file_name.txt")
		})
		Convey("Should trim separators", func() {
			So(SanitizeFilename("-file-name-"), ShouldEqual, "file-name")
		})
	})
}

func TestQuantify(t *testing.T) {
	Convey("Quantify", t, func() {
		So(Quantify(1, "format", "formats"), ShouldEqual, "1 format")
		So(Quantify(2, "format", "formats"), ShouldEqual, "2 formats")
	})
}

func TestCapitalize(t *testing.T) {
	Convey("Capitalize", t, func() {
		So(Capitalize("episode"), ShouldEqual, "Episode")
		So(Capitalize(""), ShouldEqual, "")
	})
}

func TestReGroups(t *testing.T) {
	Convey("ReGroups", t, func() {
		re := regexp.MustCompile(`watch/(?P<id>\w+)`)
		groups := ReGroups(re, "https://example.com/watch/GY2P1Q98Y")
		So(groups["id"], ShouldEqual, "GY2P1Q98Y")
	})

	Convey("ReGroups without match", t, func() {
		re := regexp.MustCompile(`series/(?P<id>\w+)`)
		groups := ReGroups(re, "https://example.com/watch/GY2P1Q98Y")
		So(groups, ShouldBeEmpty)
	})
}

func TestJoinNonEmpty(t *testing.T) {
	Convey("JoinNonEmpty", t, func() {
		So(JoinNonEmpty("-", "adaptive_hls", "hardsub-en-US"), ShouldEqual, "adaptive_hls-hardsub-en-US")
		So(JoinNonEmpty("-", "adaptive_hls", ""), ShouldEqual, "adaptive_hls")
		So(JoinNonEmpty("-"), ShouldEqual, "")
	})
}

func TestParseCount(t *testing.T) {
	Convey("ParseCount", t, func() {
		So(ParseCount("834"), ShouldEqual, 834)
		So(ParseCount("1.2K"), ShouldEqual, 1200)
		So(ParseCount("3M"), ShouldEqual, 3000000)
		So(ParseCount("12,345"), ShouldEqual, 12345)
		So(ParseCount(""), ShouldEqual, -1)
		So(ParseCount("n/a"), ShouldEqual, -1)
	})
}

func TestMinMax(t *testing.T) {
	Convey("Min and Max", t, func() {
		So(Min(80, 100), ShouldEqual, 80)
		So(Max(24, 40), ShouldEqual, 40)
		So(Max[int](), ShouldEqual, 0)
	})
}

func TestFileStem(t *testing.T) {
	Convey("FileStem", t, func() {
		So(FileStem("path/to/file.txt"), ShouldEqual, "file")
		So(FileStem("file"), ShouldEqual, "file")
	})
}
