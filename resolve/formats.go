package resolve

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/crunchy-cli/crunchy/api"
	"github.com/crunchy-cli/crunchy/lang"
	"github.com/crunchy-cli/crunchy/log"
	"github.com/crunchy-cli/crunchy/util"
)

// hardsubKey identifies one stream inside the available-stream table.
type hardsubKey struct {
	lang       string
	streamType string
}

// availableStream is one candidate stream of the catalog before expansion.
type availableStream struct {
	streamType string
	formatID   string
	hardsub    string
	url        string
}

// extractFormats expands a stream catalog into concrete formats. Only the
// requested stream types participate; within a type a later stream for the
// same hardsub language replaces the earlier one in place. Hardsub
// languages that were not explicitly requested are kept as a single coarse
// format instead of a fully expanded manifest, unless no untagged stream
// exists or every hardsub was requested.
func (r *Resolver) extractFormats(stream *api.StreamResponse) []*Format {
	requestedTypes := r.opts.Formats
	if len(requestedTypes) == 0 {
		requestedTypes = []string{"adaptive_hls"}
	}

	byType := stream.ByType()
	index := make(map[hardsubKey]int)
	var available []availableStream
	for _, streamType := range requestedTypes {
		for _, candidate := range byType[streamType] {
			if candidate.URL == "" {
				continue
			}
			entry := availableStream{
				streamType: streamType,
				formatID: util.JoinNonEmpty("-", streamType,
					formatField(candidate.HardsubLocale, "hardsub-%s")),
				hardsub: candidate.HardsubLocale,
				url:     candidate.URL,
			}

			key := hardsubKey{lang: lang.Fold(candidate.HardsubLocale), streamType: streamType}
			if at, exists := index[key]; exists {
				available[at] = entry
				continue
			}
			index[key] = len(available)
			available = append(available, entry)
		}
	}

	requestedHardsubs := make([]string, 0, len(r.opts.Hardsubs))
	for _, hardsub := range r.opts.Hardsubs {
		if hardsub == "none" {
			hardsub = ""
		}
		requestedHardsubs = append(requestedHardsubs, lang.Fold(hardsub))
	}
	if len(requestedHardsubs) == 0 {
		requestedHardsubs = []string{""}
	}

	hasUntagged := firstUntaggedType(available) != ""
	fullFormatLangs := make(map[string]struct{})
	if hasUntagged && !contains(requestedHardsubs, "all") {
		for _, hardsub := range requestedHardsubs {
			fullFormatLangs[hardsub] = struct{}{}
		}
		log.InfoOnce(
			"To get all formats of a hardsub language, add its code (or 'all') to the hardsub setting")
	} else {
		for _, entry := range available {
			fullFormatLangs[lang.Fold(entry.hardsub)] = struct{}{}
		}
	}

	audioLocale := stream.Audio()
	rank := hardsubRank(requestedHardsubs)

	var formats []*Format
	for _, entry := range available {
		hardsub := lang.Fold(entry.hardsub)

		var renditions []api.Rendition
		switch {
		case strings.HasSuffix(entry.streamType, "hls"):
			if _, full := fullFormatLangs[hardsub]; full {
				expanded, err := r.backend.ResolveManifest(entry.url)
				if err != nil {
					log.Warnf("Could not resolve %s manifest: %v", entry.formatID, err)
					continue
				}
				renditions = expanded
			} else {
				// Unrequested hardsub languages stay coarse: one format
				// pointing at the manifest itself.
				renditions = []api.Rendition{{URL: entry.url, Container: "mp4", HasAudio: true}}
			}

		case strings.HasSuffix(entry.streamType, "dash"):
			expanded, err := r.backend.ResolveManifest(entry.url)
			if err != nil {
				log.Warnf("Could not resolve %s manifest: %v", entry.formatID, err)
				continue
			}
			renditions = expanded

		default:
			log.WarnOnce(fmt.Sprintf("Encountered unknown stream type: %q", entry.streamType))
			continue
		}

		for _, rendition := range renditions {
			format := &Format{
				ID:        formatIDFor(entry.formatID, rendition),
				URL:       rendition.URL,
				Container: rendition.Container,
				Codecs:    rendition.Codecs,
				Bandwidth: rendition.Bandwidth,
				Width:     rendition.Width,
				Height:    rendition.Height,
				FrameRate: rendition.FrameRate,
				Quality:   rank(hardsub),
			}
			if rendition.HasAudio {
				format.Language = audioLocale
			}
			formats = append(formats, format)
		}
	}
	return formats
}

// extractSubtitles maps the subtitle tracks of a stream catalog by locale.
func extractSubtitles(stream *api.StreamResponse) map[string][]api.Subtitle {
	tracks := stream.SubtitleMap()
	if len(tracks) == 0 {
		return nil
	}

	subtitles := make(map[string][]api.Subtitle, len(tracks))
	for locale, track := range tracks {
		subtitles[locale] = []api.Subtitle{track}
	}
	return subtitles
}

// hardsubRank ranks hardsub languages by their position in the requested
// list: the first requested language ranks highest, unrequested ones rank
// -1.
func hardsubRank(requested []string) func(string) int {
	// Rank by index in the reversed list so earlier requests score higher.
	ranks := make(map[string]int, len(requested))
	for i := len(requested) - 1; i >= 0; i-- {
		ranks[requested[i]] = len(requested) - 1 - i
	}
	return func(hardsub string) int {
		if rank, ok := ranks[hardsub]; ok {
			return rank
		}
		return -1
	}
}

// formatIDFor derives a distinct id for one rendition of a stream.
func formatIDFor(base string, rendition api.Rendition) string {
	if rendition.Bandwidth > 0 {
		return base + "-" + strconv.FormatInt(rendition.Bandwidth, 10)
	}
	return base
}

// formatField renders a template with a value, empty when the value is
// empty.
func formatField(value, template string) string {
	if value == "" {
		return ""
	}
	return fmt.Sprintf(template, value)
}

// firstUntaggedType returns the stream type of the first untagged stream,
// empty if none exists.
func firstUntaggedType(available []availableStream) string {
	for _, entry := range available {
		if lang.Fold(entry.hardsub) == "" {
			return entry.streamType
		}
	}
	return ""
}

func contains(values []string, wanted string) bool {
	for _, value := range values {
		if value == wanted {
			return true
		}
	}
	return false
}
