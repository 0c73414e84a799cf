package api

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/crunchy-cli/crunchy/constant"
	"github.com/crunchy-cli/crunchy/network"
	"github.com/grafov/m3u8"
)

// audioCodecPrefixes identify codec strings that carry audio. A rendition
// whose codec list names none of them is video-only.
var audioCodecPrefixes = []string{"mp4a", "aac", "ac-3", "ec-3", "opus", "mp3"}

// ResolveManifest downloads a playback manifest and expands it into its
// individual renditions. HLS master playlists and DASH MPD documents are
// supported; an HLS media playlist yields a single rendition pointing at
// the manifest itself.
func (c *Client) ResolveManifest(manifestURL string) ([]Rendition, error) {
	req, err := http.NewRequest(http.MethodGet, manifestURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", constant.UserAgent)

	resp, err := network.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download manifest: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download manifest: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	return expandManifest(manifestURL, body)
}

// expandManifest sniffs the manifest format and dispatches to the matching
// parser. Leading whitespace and a UTF-8 BOM are tolerated before the
// format marker.
func expandManifest(manifestURL string, body []byte) ([]Rendition, error) {
	trimmed := bytes.TrimLeft(body, " \t\r\n\uFEFF")
	switch {
	case bytes.HasPrefix(trimmed, []byte("#EXTM3U")):
		return parseHLSManifest(manifestURL, trimmed)
	case bytes.Contains(trimmed, []byte("<MPD")):
		return parseDASHManifest(trimmed)
	default:
		return nil, fmt.Errorf("unrecognized manifest format at %s", manifestURL)
	}
}

// parseHLSManifest expands an HLS playlist into renditions, one per master
// variant.
func parseHLSManifest(manifestURL string, body []byte) ([]Rendition, error) {
	playlist, listType, err := m3u8.DecodeFrom(bytes.NewReader(body), true)
	if err != nil {
		return nil, fmt.Errorf("parse HLS manifest: %w", err)
	}

	if listType != m3u8.MASTER {
		// A media playlist has exactly one quality.
		return []Rendition{{URL: manifestURL, Container: "mp4", HasAudio: true}}, nil
	}

	base, err := url.Parse(manifestURL)
	if err != nil {
		return nil, fmt.Errorf("parse manifest url: %w", err)
	}

	master := playlist.(*m3u8.MasterPlaylist)
	renditions := make([]Rendition, 0, len(master.Variants))
	for _, variant := range master.Variants {
		if variant == nil || variant.URI == "" {
			continue
		}
		reference, err := url.Parse(variant.URI)
		if err != nil {
			continue
		}

		width, height := parseResolution(variant.Resolution)
		renditions = append(renditions, Rendition{
			URL:       base.ResolveReference(reference).String(),
			Container: "mp4",
			Codecs:    variant.Codecs,
			Bandwidth: int64(variant.Bandwidth),
			Width:     width,
			Height:    height,
			FrameRate: variant.FrameRate,
			HasAudio:  variant.Audio != "" || carriesAudio(variant.Codecs),
		})
	}
	return renditions, nil
}

// mpd mirrors the parts of a DASH manifest needed to enumerate renditions.
type mpd struct {
	XMLName xml.Name    `xml:"MPD"`
	Periods []mpdPeriod `xml:"Period"`
}

type mpdPeriod struct {
	AdaptationSets []mpdAdaptationSet `xml:"AdaptationSet"`
}

type mpdAdaptationSet struct {
	MimeType        string              `xml:"mimeType,attr"`
	ContentType     string              `xml:"contentType,attr"`
	Representations []mpdRepresentation `xml:"Representation"`
}

type mpdRepresentation struct {
	ID        string `xml:"id,attr"`
	Bandwidth int64  `xml:"bandwidth,attr"`
	Width     int    `xml:"width,attr"`
	Height    int    `xml:"height,attr"`
	FrameRate string `xml:"frameRate,attr"`
	Codecs    string `xml:"codecs,attr"`
	MimeType  string `xml:"mimeType,attr"`
	BaseURL   string `xml:"BaseURL"`
}

// parseDASHManifest expands an MPD document into renditions, one per video
// representation. Audio-only adaptation sets are skipped since the combined
// renditions are what playback selection operates on.
func parseDASHManifest(body []byte) ([]Rendition, error) {
	var manifest mpd
	if err := xml.Unmarshal(body, &manifest); err != nil {
		return nil, fmt.Errorf("parse DASH manifest: %w", err)
	}

	var renditions []Rendition
	for _, period := range manifest.Periods {
		for _, set := range period.AdaptationSets {
			if strings.HasPrefix(set.MimeType, "audio/") || set.ContentType == "audio" {
				continue
			}
			for _, rep := range set.Representations {
				mimeType := rep.MimeType
				if mimeType == "" {
					mimeType = set.MimeType
				}
				renditions = append(renditions, Rendition{
					URL:       strings.TrimSpace(rep.BaseURL),
					Container: containerFromMime(mimeType),
					Codecs:    rep.Codecs,
					Bandwidth: rep.Bandwidth,
					Width:     rep.Width,
					Height:    rep.Height,
					FrameRate: parseFrameRate(rep.FrameRate),
					HasAudio:  carriesAudio(rep.Codecs),
				})
			}
		}
	}
	return renditions, nil
}

// containerFromMime derives the container name from a MIME type such as
// "video/mp4".
func containerFromMime(mimeType string) string {
	if _, subtype, found := strings.Cut(mimeType, "/"); found && subtype != "" {
		return subtype
	}
	return "mp4"
}

// carriesAudio reports whether a codec list names an audio codec. An empty
// list is treated as muxed audio and video.
func carriesAudio(codecs string) bool {
	if codecs == "" {
		return true
	}
	for _, codec := range strings.Split(codecs, ",") {
		codec = strings.ToLower(strings.TrimSpace(codec))
		for _, prefix := range audioCodecPrefixes {
			if strings.HasPrefix(codec, prefix) {
				return true
			}
		}
	}
	return false
}

// parseResolution splits a "WxH" attribute into its dimensions.
func parseResolution(resolution string) (width, height int) {
	parts := strings.SplitN(strings.ToLower(resolution), "x", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	width, _ = strconv.Atoi(parts[0])
	height, _ = strconv.Atoi(parts[1])
	return width, height
}

// parseFrameRate parses a DASH frame rate, either a plain number or a
// "numerator/denominator" fraction.
func parseFrameRate(rate string) float64 {
	if rate == "" {
		return 0
	}
	if numerator, denominator, found := strings.Cut(rate, "/"); found {
		n, errN := strconv.ParseFloat(numerator, 64)
		d, errD := strconv.ParseFloat(denominator, 64)
		if errN != nil || errD != nil || d == 0 {
			return 0
		}
		return n / d
	}
	parsed, err := strconv.ParseFloat(rate, 64)
	if err != nil {
		return 0
	}
	return parsed
}
