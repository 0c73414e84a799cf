package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/crunchy-cli/crunchy/constant"
	"github.com/crunchy-cli/crunchy/log"
	"github.com/crunchy-cli/crunchy/network"
)

// Client talks to the content and music APIs on behalf of one session. The
// signed playback policy is cached and renewed lazily, mirroring the access
// token handling of the session itself.
type Client struct {
	Session *Session

	mu     sync.Mutex
	policy cmsPolicy
}

// cmsPolicy is the signed query trio authorizing calls against the playback
// CDN, together with the bucket it is scoped to.
type cmsPolicy struct {
	Bucket    string
	Policy    string
	Signature string
	KeyPairID string
	expiresAt time.Time
}

// NewClient creates an API client bound to a session.
func NewClient(session *Session) *Client {
	return &Client{Session: session}
}

// get performs an authenticated GET against the www host and decodes the
// JSON body into out. A 404 maps to ErrNotFound.
func (c *Client) get(path string, query url.Values, out any) error {
	headers, err := c.Session.AccessHeaders()
	if err != nil {
		return err
	}

	merged := c.Session.Query()
	for name, values := range query {
		merged[name] = values
	}

	requestURL := constant.BaseURL + path
	if len(merged) > 0 {
		separator := "?"
		if strings.Contains(path, "?") {
			separator = "&"
		}
		requestURL += separator + merged.Encode()
	}

	req, err := http.NewRequest(http.MethodGet, requestURL, nil)
	if err != nil {
		return err
	}
	req.Header = headers

	log.Debugf("Calling API: %s", path)
	resp, err := network.Client.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("call %s: %w", path, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("call %s: unexpected status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// getSigned performs a GET against the playback CDN using the signed policy
// query, renewing the policy first when it is missing or expired.
func (c *Client) getSigned(path string, out any) error {
	policy, err := c.signedPolicy()
	if err != nil {
		return err
	}

	if !strings.HasPrefix(path, "/cms/v2") {
		path = "/cms/v2" + policy.Bucket + "/" + strings.TrimPrefix(path, "/")
	}

	query := url.Values{
		"Policy":      {policy.Policy},
		"Signature":   {policy.Signature},
		"Key-Pair-Id": {policy.KeyPairID},
	}
	return c.get(path, query, out)
}

// indexResponse is the body of the signed policy endpoint.
type indexResponse struct {
	CmsWeb struct {
		Bucket    string `json:"bucket"`
		Policy    string `json:"policy"`
		Signature string `json:"signature"`
		KeyPairID string `json:"key_pair_id"`
		Expires   string `json:"expires"`
	} `json:"cms_web"`
}

// signedPolicy returns a currently valid signed policy.
func (c *Client) signedPolicy() (cmsPolicy, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.policy.Policy != "" && time.Now().Before(c.policy.expiresAt) {
		return c.policy, nil
	}

	log.Debug("Retrieving signed policy")
	var index indexResponse
	if err := c.get("/index/v2", nil, &index); err != nil {
		return cmsPolicy{}, err
	}
	if index.CmsWeb.Policy == "" {
		return cmsPolicy{}, fmt.Errorf("signed policy response is empty")
	}

	expiresAt := time.Now().Add(5 * time.Minute)
	if parsed, err := time.Parse(time.RFC3339, index.CmsWeb.Expires); err == nil {
		expiresAt = parsed.Add(-tokenMargin)
	}
	c.policy = cmsPolicy{
		Bucket:    index.CmsWeb.Bucket,
		Policy:    index.CmsWeb.Policy,
		Signature: index.CmsWeb.Signature,
		KeyPairID: index.CmsWeb.KeyPairID,
		expiresAt: expiresAt,
	}
	return c.policy, nil
}

// dataResponse is the common list envelope of the content API.
type dataResponse struct {
	Data []json.RawMessage `json:"data"`
}

// itemsResponse is the common list envelope of the signed playback CDN.
type itemsResponse struct {
	Items []json.RawMessage `json:"items"`
}

// firstData decodes the first element of a data envelope, returning
// ErrNotFound for an empty list.
func firstData(data []json.RawMessage, out any) error {
	if len(data) == 0 {
		return ErrNotFound
	}
	return json.Unmarshal(data[0], out)
}

// Object fetches a content object with its ratings attached. Episodes,
// movies and movie listings all resolve through this endpoint.
func (c *Client) Object(id string) (*ObjectResponse, error) {
	var envelope dataResponse
	query := url.Values{"ratings": {"true"}}
	if err := c.get("/content/v2/cms/objects/"+id, query, &envelope); err != nil {
		return nil, err
	}

	var object ObjectResponse
	if err := firstData(envelope.Data, &object); err != nil {
		return nil, fmt.Errorf("object %s: %w", id, err)
	}
	return &object, nil
}

// Stream fetches the stream catalog behind an object's streams link through
// the signed playback CDN.
func (c *Client) Stream(streamsLink string) (*StreamResponse, error) {
	path := strings.TrimPrefix(streamsLink, "/content/v2/cms/")

	var stream StreamResponse
	if err := c.getSigned(path, &stream); err != nil {
		return nil, err
	}
	return &stream, nil
}

// Seasons lists the seasons of a series.
func (c *Client) Seasons(seriesID string) ([]Season, error) {
	var envelope struct {
		Items []Season `json:"items"`
	}
	if err := c.getSigned("seasons?series_id="+seriesID, &envelope); err != nil {
		return nil, err
	}
	return envelope.Items, nil
}

// Episodes lists the episodes of a season. The listing endpoint inlines the
// episode metadata, so each item is normalized to the nested object shape.
func (c *Client) Episodes(seasonID string) ([]*ObjectResponse, error) {
	var envelope itemsResponse
	if err := c.getSigned("episodes?season_id="+seasonID, &envelope); err != nil {
		return nil, err
	}

	episodes := make([]*ObjectResponse, 0, len(envelope.Items))
	for _, item := range envelope.Items {
		episode, err := decodeInlineObject(item, "episode")
		if err != nil {
			return nil, fmt.Errorf("decode episode of season %s: %w", seasonID, err)
		}
		if episode.ID == "" {
			continue
		}
		episodes = append(episodes, episode)
	}
	return episodes, nil
}

// Movies lists the movies of a movie listing.
func (c *Client) Movies(listingID string) ([]*ObjectResponse, error) {
	var envelope dataResponse
	if err := c.get("/content/v2/cms/movie_listings/"+listingID+"/movies", nil, &envelope); err != nil {
		return nil, err
	}

	movies := make([]*ObjectResponse, 0, len(envelope.Data))
	for _, item := range envelope.Data {
		movie, err := decodeInlineObject(item, "movie")
		if err != nil {
			return nil, fmt.Errorf("decode movie of listing %s: %w", listingID, err)
		}
		movies = append(movies, movie)
	}
	return movies, nil
}

// Series fetches the descriptive metadata of a series.
func (c *Client) Series(id string) (*ObjectResponse, error) {
	var envelope dataResponse
	if err := c.get("/content/v2/cms/series/"+id, nil, &envelope); err != nil {
		return nil, err
	}

	var series ObjectResponse
	if err := firstData(envelope.Data, &series); err != nil {
		return nil, fmt.Errorf("series %s: %w", id, err)
	}
	if series.Type == "" {
		series.Type = "series"
	}
	return &series, nil
}

// musicPaths maps a music object kind to its API collection.
var musicPaths = map[string]string{
	"concert":     "concerts",
	"music_video": "music_videos",
}

// MusicObject fetches a concert or music video.
func (c *Client) MusicObject(kind, id string) (*ObjectResponse, error) {
	collection, ok := musicPaths[kind]
	if !ok {
		return nil, fmt.Errorf("unknown music object kind %q", kind)
	}

	var envelope dataResponse
	if err := c.get("/content/v2/music/"+collection+"/"+id, nil, &envelope); err != nil {
		return nil, err
	}

	var object ObjectResponse
	if err := firstData(envelope.Data, &object); err != nil {
		return nil, fmt.Errorf("%s %s: %w", kind, id, err)
	}
	if object.Type == "" {
		object.Type = kind
	}
	return &object, nil
}

// MusicStream fetches the stream catalog behind a music object's streams
// link. Music streams are served unsigned.
func (c *Client) MusicStream(streamsLink string) (*StreamResponse, error) {
	var stream StreamResponse
	if err := c.get(streamsLink, nil, &stream); err != nil {
		return nil, err
	}
	return &stream, nil
}

// Artist fetches an artist with their concert and music video ids.
func (c *Client) Artist(id string) (*ObjectResponse, error) {
	var envelope dataResponse
	if err := c.get("/content/v2/music/artists/"+id, nil, &envelope); err != nil {
		return nil, err
	}

	var artist ObjectResponse
	if err := firstData(envelope.Data, &artist); err != nil {
		return nil, fmt.Errorf("artist %s: %w", id, err)
	}
	if artist.Type == "" {
		artist.Type = "artist"
	}
	return &artist, nil
}

// Intro fetches the intro chapter of an episode. The endpoint answers with
// an unusable error document when no chapter exists, so any failure is
// reported as ErrNotFound.
func (c *Client) Intro(id string) (*Intro, error) {
	req, err := http.NewRequest(
		http.MethodGet,
		constant.StaticBase+"/datalab-intro-v2/"+id+".json",
		nil,
	)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", constant.UserAgent)

	resp, err := network.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chapter info for %s: %w", id, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chapter info for %s: %w", id, ErrNotFound)
	}

	var intro Intro
	if err := json.NewDecoder(resp.Body).Decode(&intro); err != nil {
		return nil, fmt.Errorf("chapter info for %s: %w", id, ErrNotFound)
	}
	return &intro, nil
}
