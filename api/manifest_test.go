package api

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

const masterPlaylist = `#EXTM3U
#EXT-X-STREAM-INF:BANDWIDTH=4100000,RESOLUTION=1920x1080,CODECS="avc1.64001f,mp4a.40.2",FRAME-RATE=23.976
1080/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=1600000,RESOLUTION=1280x720,CODECS="avc1.4d401f"
720/index.m3u8
`

const mediaPlaylist = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:6
#EXTINF:6.000,
segment0.ts
#EXT-X-ENDLIST
`

const mpdDocument = `<?xml version="1.0" encoding="UTF-8"?>
<MPD xmlns="urn:mpeg:dash:schema:mpd:2011" type="static">
  <Period>
    <AdaptationSet mimeType="video/mp4">
      <Representation id="v1" bandwidth="4100000" width="1920" height="1080" frameRate="24000/1001" codecs="avc1.64001f">
        <BaseURL>https://cdn.example.com/v1.mp4</BaseURL>
      </Representation>
      <Representation id="v2" bandwidth="1600000" width="1280" height="720" frameRate="30" codecs="avc1.4d401f">
        <BaseURL>https://cdn.example.com/v2.mp4</BaseURL>
      </Representation>
    </AdaptationSet>
    <AdaptationSet mimeType="audio/mp4" contentType="audio">
      <Representation id="a1" bandwidth="128000" codecs="mp4a.40.2">
        <BaseURL>https://cdn.example.com/a1.mp4</BaseURL>
      </Representation>
    </AdaptationSet>
  </Period>
</MPD>
`

func TestParseHLSManifest(t *testing.T) {
	Convey("parseHLSManifest", t, func() {
		Convey("Expands a master playlist into one rendition per variant", func() {
			renditions, err := parseHLSManifest("https://cdn.example.com/hls/master.m3u8", []byte(masterPlaylist))
			So(err, ShouldBeNil)
			So(renditions, ShouldHaveLength, 2)

			So(renditions[0].URL, ShouldEqual, "https://cdn.example.com/hls/1080/index.m3u8")
			So(renditions[0].Width, ShouldEqual, 1920)
			So(renditions[0].Height, ShouldEqual, 1080)
			So(renditions[0].Bandwidth, ShouldEqual, 4100000)
			So(renditions[0].HasAudio, ShouldBeTrue)

			So(renditions[1].URL, ShouldEqual, "https://cdn.example.com/hls/720/index.m3u8")
			So(renditions[1].HasAudio, ShouldBeFalse)
		})

		Convey("Yields a single rendition for a media playlist", func() {
			renditions, err := parseHLSManifest("https://cdn.example.com/hls/index.m3u8", []byte(mediaPlaylist))
			So(err, ShouldBeNil)
			So(renditions, ShouldHaveLength, 1)
			So(renditions[0].URL, ShouldEqual, "https://cdn.example.com/hls/index.m3u8")
			So(renditions[0].HasAudio, ShouldBeTrue)
		})
	})
}

func TestExpandManifest(t *testing.T) {
	Convey("expandManifest", t, func() {
		Convey("Sniffs HLS behind a UTF-8 BOM and leading whitespace", func() {
			body := append([]byte("\uFEFF\r\n  "), masterPlaylist...)
			renditions, err := expandManifest("https://cdn.example.com/hls/master.m3u8", body)

			So(err, ShouldBeNil)
			So(renditions, ShouldHaveLength, 2)
			So(renditions[0].URL, ShouldEqual, "https://cdn.example.com/hls/1080/index.m3u8")
		})

		Convey("Sniffs a DASH document behind an XML prolog", func() {
			renditions, err := expandManifest("https://cdn.example.com/dash/index.mpd", []byte(mpdDocument))

			So(err, ShouldBeNil)
			So(renditions, ShouldHaveLength, 2)
		})

		Convey("Rejects unrecognized content", func() {
			_, err := expandManifest("https://cdn.example.com/odd", []byte("not a manifest"))
			So(err, ShouldNotBeNil)
		})
	})
}

func TestParseDASHManifest(t *testing.T) {
	Convey("parseDASHManifest", t, func() {
		renditions, err := parseDASHManifest([]byte(mpdDocument))
		So(err, ShouldBeNil)

		Convey("Skips audio-only adaptation sets", func() {
			So(renditions, ShouldHaveLength, 2)
		})

		Convey("Parses representation attributes", func() {
			So(renditions[0].URL, ShouldEqual, "https://cdn.example.com/v1.mp4")
			So(renditions[0].Container, ShouldEqual, "mp4")
			So(renditions[0].Bandwidth, ShouldEqual, 4100000)
			So(renditions[0].FrameRate, ShouldAlmostEqual, 23.976, 0.001)
			So(renditions[1].FrameRate, ShouldEqual, 30)
		})
	})
}

func TestCarriesAudio(t *testing.T) {
	Convey("carriesAudio", t, func() {
		Convey("Treats an empty codec list as muxed", func() {
			So(carriesAudio(""), ShouldBeTrue)
		})

		Convey("Detects audio codecs in a combined list", func() {
			So(carriesAudio("avc1.64001f,mp4a.40.2"), ShouldBeTrue)
			So(carriesAudio("ec-3"), ShouldBeTrue)
		})

		Convey("Rejects video-only lists", func() {
			So(carriesAudio("avc1.4d401f"), ShouldBeFalse)
		})
	})
}
