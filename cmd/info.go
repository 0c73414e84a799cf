// Package cmd implements the command-line interface for crunchy.
package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/crunchy-cli/crunchy/api"
	"github.com/crunchy-cli/crunchy/color"
	"github.com/crunchy-cli/crunchy/icon"
	"github.com/crunchy-cli/crunchy/key"
	"github.com/crunchy-cli/crunchy/query"
	"github.com/crunchy-cli/crunchy/resolve"
	"github.com/crunchy-cli/crunchy/style"
	"github.com/crunchy-cli/crunchy/util"
	"github.com/muesli/reflow/wordwrap"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Address patterns of the public site. Music pages share the watch prefix,
// so they are routed before the generic watch pattern.
var (
	musicURL  = regexp.MustCompile(`^https?://(?:beta\.|www\.)?crunchyroll\.com/(?:(?P<lang>\w{2}(?:-\w{2})?)/)?watch/(?P<type>concert|musicvideo)/(?P<id>\w+)`)
	artistURL = regexp.MustCompile(`^https?://(?:beta\.|www\.)?crunchyroll\.com/(?:(?P<lang>\w{2}(?:-\w{2})?)/)?artist/(?P<id>\w+)`)
	seriesURL = regexp.MustCompile(`^https?://(?:beta\.|www\.)?crunchyroll\.com/(?:(?P<lang>\w{2}(?:-\w{2})?)/)?series/(?P<id>\w+)`)
	watchURL  = regexp.MustCompile(`^https?://(?:beta\.|www\.)?crunchyroll\.com/(?:(?P<lang>\w{2}(?:-\w{2})?)/)?watch/(?P<id>\w+)`)
)

// route maps a media address onto the object kind and id it refers to.
func route(address string) (kind, id string, err error) {
	if groups := util.ReGroups(musicURL, address); groups["id"] != "" {
		kind = "concert"
		if groups["type"] == "musicvideo" {
			kind = "music_video"
		}
		return kind, groups["id"], nil
	}
	if groups := util.ReGroups(artistURL, address); groups["id"] != "" {
		return "artist", groups["id"], nil
	}
	if groups := util.ReGroups(seriesURL, address); groups["id"] != "" {
		return "series", groups["id"], nil
	}
	if groups := util.ReGroups(watchURL, address); groups["id"] != "" {
		return "watch", groups["id"], nil
	}
	// A bare id is treated as a watch page.
	if !strings.Contains(address, "/") && address != "" {
		return "watch", address, nil
	}

	message := fmt.Sprintf("unsupported address %s", style.Fg(color.Red)(address))
	if suggestion, ok := query.Suggest(address).Get(); ok {
		message += fmt.Sprintf(", did you mean %s?", style.Fg(color.Yellow)(suggestion))
	}
	return "", "", errors.New(message)
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().BoolP("json", "j", false, "Format the output as a JSON string")
	infoCmd.Flags().IntP("limit", "n", 0, "Maximum number of playlist entries to enumerate (0 for all)")
	infoCmd.Flags().Bool("no-playlist", false, "Resolve only the first movie of a movie listing")
	infoCmd.SetOut(os.Stdout)
}

// infoCmd resolves a media address into its versions, formats and entries.
var infoCmd = &cobra.Command{
	Use:   "info [address]",
	Short: "Resolve a watch, series, artist or music address into formats and playlist entries",
	Long: `Resolve a media address into playable formats and metadata.

Watch pages resolve every audio-language version matching the configured
language expression and merge them into a single result; series and artist
pages resolve into lazily enumerated playlists.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var (
			asJson     = lo.Must(cmd.Flags().GetBool("json"))
			limit      = lo.Must(cmd.Flags().GetInt("limit"))
			noPlaylist = lo.Must(cmd.Flags().GetBool("no-playlist"))
		)

		kind, id, err := route(args[0])
		handleErr(err)

		session := api.NewSession(viper.GetString(key.Locale))
		client := api.NewClient(session)
		resolver := resolve.New(client, resolve.OptionsFromConfig(session.LoggedIn()))

		var result *resolve.Result
		switch kind {
		case "watch":
			result, err = resolver.Watch(id, nil)
			if err == nil && noPlaylist && result.Kind == "movie_listing" {
				var firstID string
				firstID, err = resolver.FirstMovie(id)
				if err == nil {
					result, err = resolver.Watch(firstID, nil)
				}
			}
		case "series":
			result, err = resolver.Series(id)
		case "artist":
			result, err = resolver.Artist(id)
		default:
			result, err = resolver.Music(kind, id)
		}

		var premium *resolve.PremiumError
		if errors.As(err, &premium) && !premium.LoggedIn {
			handleErr(fmt.Errorf("%s %s (run %s first)",
				icon.Get(icon.Lock), premium.Error(), style.Bold("crunchy login")))
		}
		handleErr(err)

		_ = query.Remember(args[0], 1)

		if asJson {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			handleErr(encoder.Encode(printableResult(result, limit)))
			return
		}
		printResult(cmd, result, limit)
	},
}

// printableChild is the JSON shape of one playlist entry.
type printableChild struct {
	ID          string   `json:"id"`
	Kind        string   `json:"kind"`
	Title       string   `json:"title,omitempty"`
	TargetLangs []string `json:"target_langs,omitempty"`
}

// printable is the JSON shape of a resolved result.
type printable struct {
	ID           string                     `json:"id"`
	Kind         string                     `json:"kind"`
	Title        string                     `json:"title,omitempty"`
	Description  string                     `json:"description,omitempty"`
	Series       string                     `json:"series,omitempty"`
	Season       string                     `json:"season,omitempty"`
	Episode      string                     `json:"episode,omitempty"`
	Artist       string                     `json:"artist,omitempty"`
	Duration     float64                    `json:"duration,omitempty"`
	AgeLimit     int                        `json:"age_limit,omitempty"`
	Language     string                     `json:"language,omitempty"`
	Genres       []string                   `json:"genres,omitempty"`
	LikeCount    int64                      `json:"like_count,omitempty"`
	DislikeCount int64                      `json:"dislike_count,omitempty"`
	Chapters     []resolve.Chapter          `json:"chapters,omitempty"`
	Formats      []printableFormat          `json:"formats,omitempty"`
	Subtitles    map[string][]api.Subtitle  `json:"subtitles,omitempty"`
	Entries      []printableChild           `json:"entries,omitempty"`
}

// printableFormat is the JSON shape of one format.
type printableFormat struct {
	ID        string         `json:"id"`
	URL       string         `json:"url"`
	Container string         `json:"container,omitempty"`
	Codecs    string         `json:"codecs,omitempty"`
	Bandwidth int64          `json:"bandwidth,omitempty"`
	Width     int            `json:"width,omitempty"`
	Height    int            `json:"height,omitempty"`
	Quality   int            `json:"quality"`
	Language  string         `json:"language,omitempty"`
	Overrides map[string]any `json:"overrides,omitempty"`
}

// printableResult flattens a result for serialization, consuming at most
// limit playlist entries.
func printableResult(result *resolve.Result, limit int) printable {
	out := printable{
		ID:           result.ID,
		Kind:         result.Kind,
		Title:        result.Title,
		Description:  result.Description,
		Series:       result.Series,
		Season:       result.Season,
		Episode:      result.Episode,
		Artist:       result.Artist,
		Duration:     result.Duration,
		AgeLimit:     result.AgeLimit,
		Language:     result.Language,
		Genres:       result.Genres,
		LikeCount:    result.LikeCount,
		DislikeCount: result.DislikeCount,
		Chapters:     result.Chapters,
		Subtitles:    result.Subtitles,
	}
	for _, format := range result.Formats {
		out.Formats = append(out.Formats, printableFormat{
			ID:        format.ID,
			URL:       format.URL,
			Container: format.Container,
			Codecs:    format.Codecs,
			Bandwidth: format.Bandwidth,
			Width:     format.Width,
			Height:    format.Height,
			Quality:   format.Quality,
			Language:  format.Language,
			Overrides: format.Overrides,
		})
	}
	for _, child := range collectChildren(result, limit) {
		entry := printableChild{ID: child.ID, Kind: child.Kind, TargetLangs: child.TargetLangs}
		if child.Seed != nil {
			entry.Title = child.Seed.Title
		}
		out.Entries = append(out.Entries, entry)
	}
	return out
}

// collectChildren consumes at most limit entries of a container result.
func collectChildren(result *resolve.Result, limit int) []*resolve.Child {
	if result.Children == nil {
		return nil
	}
	var children []*resolve.Child
	for child := range result.Children {
		children = append(children, child)
		if limit > 0 && len(children) >= limit {
			break
		}
	}
	return children
}

// printResult renders a result for the terminal.
func printResult(cmd *cobra.Command, result *resolve.Result, limit int) {
	width, _, err := util.TerminalSize()
	if err != nil || width <= 0 {
		width = 80
	}
	width = util.Max(width, 40)

	cmd.Println(style.Title(result.Title))
	cmd.Printf("%s %s\n", style.Faint("id"), result.ID)
	if result.Language != "" {
		cmd.Printf("%s %s\n", style.Faint("language"), result.Language)
	}
	if result.Series != "" {
		cmd.Printf("%s %s\n", style.Faint("series"), result.Series)
	}
	if result.Artist != "" {
		cmd.Printf("%s %s\n", style.Faint("artist"), result.Artist)
	}
	if result.Duration > 0 {
		cmd.Printf("%s %.0fs\n", style.Faint("duration"), result.Duration)
	}
	if result.AgeLimit > 0 {
		cmd.Printf("%s %d+\n", style.Faint("age limit"), result.AgeLimit)
	}
	if result.Description != "" {
		cmd.Println()
		cmd.Println(wordwrap.String(result.Description, util.Min(width, 100)))
	}

	if len(result.Formats) > 0 {
		cmd.Println()
		cmd.Println(style.Bold(util.Quantify(len(result.Formats), "format", "formats")))
		for _, format := range result.Formats {
			line := format.ID
			if format.Height > 0 {
				line += fmt.Sprintf(" %dx%d", format.Width, format.Height)
			}
			if format.Language != "" {
				line += " " + style.Fg(color.Yellow)(format.Language)
			}
			if len(format.Overrides) > 0 {
				line += " " + style.Faint(fmt.Sprintf("(overrides %d fields)", len(format.Overrides)))
			}
			cmd.Printf("  %s\n", line)
		}
	}

	if len(result.Subtitles) > 0 {
		locales := lo.Keys(result.Subtitles)
		cmd.Println()
		cmd.Printf("%s %s\n", icon.Get(icon.Subtitle), strings.Join(locales, ", "))
	}

	if result.Children != nil {
		children := collectChildren(result, limit)
		cmd.Println()
		cmd.Println(style.Bold(util.Quantify(len(children), "entry", "entries")))
		kindTag := style.Tag(color.New("230"), color.Orange)
		for _, child := range children {
			title := child.ID
			if child.Seed != nil && child.Seed.Title != "" {
				title = child.Seed.Title
			}
			cmd.Printf("  %s %s\n", kindTag(child.Kind), style.Truncate(width-20)(title))
		}
	}
}
