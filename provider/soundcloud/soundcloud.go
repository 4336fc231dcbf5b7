// Package soundcloud resolves soundcloud.com track, set, and user URLs.
//
// Track metadata comes from the public API, usually via the resolve endpoint: the canonical page URL
// is not itself the data source, it is mapped to a metadata document by one indirection layer.
// Downloadable tracks get a single templated download link; everything else goes through the streams
// endpoint, with the document's stream_url as a last resort so a track never resolves to zero
// formats.
package soundcloud

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	media_archiver "github.com/alanbriolat/media-archiver"
	"github.com/alanbriolat/media-archiver/format"
	"github.com/alanbriolat/media-archiver/util"
)

const (
	// defaultClientID authenticates resolve, download, and pagination requests.
	defaultClientID = "b45b1aa10f1ac2941910a7f0d10f8e28"
	// defaultMobileClientID authenticates the streams endpoint, which only answers to the
	// mobile-scoped credential.
	defaultMobileClientID = "376f225bf427445fc4bfb6b99b72e0bf"

	defaultPageSize = 50
	defaultMaxPages = 500
)

var (
	trackURLPattern  = regexp.MustCompile(`^(?:https?://)?(?:www\.)?soundcloud\.com/([\w-]+)/([\w-]+)/?(?:\?.*)?$`)
	apiURLPattern    = regexp.MustCompile(`^(?:https?://)?api\.soundcloud\.com/tracks/(\d+)`)
	widgetURLPattern = regexp.MustCompile(`^(?:https?://)?w\.soundcloud\.com/player/?.*?url=.+`)
	setURLPattern    = regexp.MustCompile(`^(?:https?://)?(?:www\.)?soundcloud\.com/([\w-]+)/sets/([\w-]+)/?(?:\?.*)?$`)
	userURLPattern   = regexp.MustCompile(`^(?:https?://)?(?:www\.)?soundcloud\.com/([^/?]+)/?(?:tracks/?)?(?:\?.*)?$`)
)

// Config carries the static client credentials, the pagination constants, and the injected
// collaborators. Values are fixed at construction; the engine has no runtime-mutable state.
type Config struct {
	ClientID       string
	MobileClientID string
	// PageSize is how many items each user-tracks page is asked for; a page shorter than this ends
	// pagination.
	PageSize int
	// MaxPages guards against an endpoint that never returns a short page.
	MaxPages int
	Fetcher  media_archiver.Fetcher
	Reporter media_archiver.Reporter
}

func NewConfig() Config {
	return Config{
		ClientID:       defaultClientID,
		MobileClientID: defaultMobileClientID,
		PageSize:       defaultPageSize,
		MaxPages:       defaultMaxPages,
		Fetcher:        media_archiver.NewHTTPFetcher(),
		Reporter:       media_archiver.NopReporter{},
	}
}

// MatchTrack classifies single-track URLs: the api.soundcloud.com numeric form, the widget
// passthrough form, and the canonical handle/slug page.
func (c *Config) MatchTrack(s string) (media_archiver.Source, error) {
	if m := apiURLPattern.FindStringSubmatch(s); m != nil {
		return &trackSource{
			config: c,
			locator: media_archiver.Locator{
				Kind:   media_archiver.KindTrack,
				IDs:    map[string]string{"track_id": m[1]},
				RawURL: s,
			},
		}, nil
	}
	if widgetURLPattern.MatchString(s) {
		embedded, err := util.EmbeddedURL(s, "url")
		if err != nil {
			return nil, err
		}
		return &widgetSource{
			rawURL:   s,
			embedded: embedded,
		}, nil
	}
	if m := trackURLPattern.FindStringSubmatch(s); m != nil {
		return &trackSource{
			config: c,
			locator: media_archiver.Locator{
				Kind:   media_archiver.KindTrack,
				IDs:    map[string]string{"uploader": m[1], "slug": m[2]},
				RawURL: s,
			},
		}, nil
	}
	return nil, fmt.Errorf("not a soundcloud track URL")
}

// MatchSet classifies playlist URLs (handle/sets/slug).
func (c *Config) MatchSet(s string) (media_archiver.Source, error) {
	m := setURLPattern.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("not a soundcloud set URL")
	}
	return &setSource{
		config: c,
		locator: media_archiver.Locator{
			Kind:   media_archiver.KindSet,
			IDs:    map[string]string{"uploader": m[1], "slug": m[2]},
			RawURL: s,
		},
	}, nil
}

// MatchUser classifies bare publisher URLs (handle, optionally /tracks).
func (c *Config) MatchUser(s string) (media_archiver.Source, error) {
	m := userURLPattern.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("not a soundcloud user URL")
	}
	return &userSource{
		config: c,
		locator: media_archiver.Locator{
			Kind:   media_archiver.KindUser,
			IDs:    map[string]string{"uploader": m[1]},
			RawURL: s,
		},
	}, nil
}

// Providers returns the track, set, and user providers backed by this Config. The user matcher is
// greedy about single-segment paths, so it runs at the lowest priority.
func (c *Config) Providers() []media_archiver.Provider {
	return []media_archiver.Provider{
		{Name: "soundcloud:set", Match: c.MatchSet},
		{Name: "soundcloud", Match: c.MatchTrack},
		{Name: "soundcloud:user", Match: c.MatchUser, Priority: media_archiver.PriorityLowest},
	}
}

func (c *Config) fetcher() media_archiver.Fetcher {
	if c.Fetcher != nil {
		return c.Fetcher
	}
	return media_archiver.NewHTTPFetcher()
}

func (c *Config) reporter() media_archiver.Reporter {
	if c.Reporter != nil {
		return c.Reporter
	}
	return media_archiver.NopReporter{}
}

// resolveURL builds the resolve-indirection endpoint for a canonical page URL.
func (c *Config) resolveURL(pageURL string) string {
	return "https://api.soundcloud.com/resolve.json?url=" + url.QueryEscape(pageURL) + "&client_id=" + c.ClientID
}

// trackDocument is the raw per-track metadata document. Only ID and Title are required; the
// remaining fields default when absent.
type trackDocument struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	ArtworkURL     string `json:"artwork_url"`
	CreatedAt      string `json:"created_at"`
	OriginalFormat string `json:"original_format"`
	Downloadable   bool   `json:"downloadable"`
	StreamURL      string `json:"stream_url"`
	Duration       int    `json:"duration"` // milliseconds
	User           struct {
		Username string `json:"username"`
	} `json:"user"`
}

type widgetSource struct {
	rawURL   string
	embedded string
}

func (s *widgetSource) URL() string {
	return s.rawURL
}

func (s *widgetSource) String() string {
	return s.URL()
}

func (s *widgetSource) Locator() media_archiver.Locator {
	return media_archiver.Locator{
		Kind:   media_archiver.KindRedirect,
		IDs:    map[string]string{"url": s.embedded},
		RawURL: s.rawURL,
	}
}

func (s *widgetSource) Recon(_ context.Context) (media_archiver.Result, error) {
	return &media_archiver.Redirect{URL: s.embedded}, nil
}

type trackSource struct {
	config  *Config
	locator media_archiver.Locator
}

func (s *trackSource) URL() string {
	if id := s.locator.ID("track_id"); id != "" {
		return "https://api.soundcloud.com/tracks/" + id
	}
	return fmt.Sprintf("https://soundcloud.com/%s/%s", s.locator.ID("uploader"), s.locator.ID("slug"))
}

func (s *trackSource) String() string {
	return s.URL()
}

func (s *trackSource) Locator() media_archiver.Locator {
	return s.locator
}

func (s *trackSource) Recon(ctx context.Context) (media_archiver.Result, error) {
	c := s.config
	var infoURL, fullTitle string
	if id := s.locator.ID("track_id"); id != "" {
		infoURL = "https://api.soundcloud.com/tracks/" + id + ".json?client_id=" + c.ClientID
		fullTitle = id
	} else {
		fullTitle = s.locator.ID("uploader") + "/" + s.locator.ID("slug")
		c.reporter().Progress(fullTitle, "resolving id")
		infoURL = c.resolveURL(s.URL())
	}
	body, err := c.fetcher().Fetch(ctx, infoURL, fullTitle, "downloading info JSON")
	if err != nil {
		return nil, err
	}
	var doc trackDocument
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", media_archiver.ErrMalformedDocument, err)
	}
	return c.resolveTrack(ctx, &doc, fullTitle, false)
}

// resolveTrack turns one raw track document into an ItemRecord with ranked formats. quiet suppresses
// progress reporting, for use during collection expansion.
func (c *Config) resolveTrack(ctx context.Context, doc *trackDocument, label string, quiet bool) (*media_archiver.ItemRecord, error) {
	if doc.ID == 0 {
		return nil, fmt.Errorf("%w: missing track id", media_archiver.ErrMalformedDocument)
	}
	if doc.Title == "" {
		return nil, fmt.Errorf("%w: missing track title", media_archiver.ErrMalformedDocument)
	}
	trackID := strconv.FormatInt(doc.ID, 10)
	if label == "" {
		label = trackID
	}
	if !quiet {
		c.reporter().Progress(label, "extracting information")
	}

	thumbnail := doc.ArtworkURL
	if thumbnail != "" {
		// Request the higher-resolution artwork variant.
		thumbnail = strings.ReplaceAll(thumbnail, "-large", "-t500x500")
	}
	ext := doc.OriginalFormat
	if ext == "" {
		ext = "mp3"
	}
	record := &media_archiver.ItemRecord{
		ID:          trackID,
		Title:       doc.Title,
		Uploader:    doc.User.Username,
		Description: doc.Description,
		Thumbnail:   thumbnail,
		UploadDate:  util.UnifiedStrdate(doc.CreatedAt),
		Duration:    doc.Duration / 1000,
	}

	if doc.Downloadable {
		// A direct link to the original upload.
		record.Formats = []format.Candidate{{
			FormatID:  "download",
			URL:       fmt.Sprintf("https://api.soundcloud.com/tracks/%s/download?client_id=%s", trackID, c.ClientID),
			Ext:       ext,
			Protocol:  "http",
			Available: true,
			Supported: true,
		}}
		return record, nil
	}

	candidates, err := c.resolveStreams(ctx, trackID, ext, label)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		// Fall back to the stream_url from the original document. Not always usable (it can 404), but
		// it keeps the format list non-empty.
		if doc.StreamURL == "" {
			return nil, fmt.Errorf("%w: no streams and no stream_url", media_archiver.ErrMalformedDocument)
		}
		candidates = []format.Candidate{{
			FormatID:  "fallback",
			URL:       util.AppendQuery(doc.StreamURL, "client_id", c.ClientID),
			Ext:       ext,
			Protocol:  "http",
			Available: true,
			Supported: true,
		}}
	}
	record.Formats = format.RankCoarse(candidates)
	return record, nil
}

// resolveStreams fetches the streams endpoint for a track and converts each protocol-keyed entry to
// a candidate. RTMP-style values embed the play path after a marker and are split in two, since the
// transport needs connection URL and play path independently.
func (c *Config) resolveStreams(ctx context.Context, trackID string, ext string, label string) ([]format.Candidate, error) {
	streamsURL := fmt.Sprintf("https://api.soundcloud.com/i1/tracks/%s/streams?client_id=%s", trackID, c.MobileClientID)
	body, err := c.fetcher().Fetch(ctx, streamsURL, label, "downloading track url")
	if err != nil {
		return nil, err
	}
	var streams map[string]string
	if err := json.Unmarshal([]byte(body), &streams); err != nil {
		return nil, fmt.Errorf("%w: %v", media_archiver.ErrMalformedDocument, err)
	}
	// Iterate in sorted key order so the pre-ranking candidate order is deterministic.
	keys := make([]string, 0, len(streams))
	for key := range streams {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var candidates []format.Candidate
	for _, key := range keys {
		streamURL := streams[key]
		switch {
		case strings.HasPrefix(key, "http"):
			candidates = append(candidates, format.Candidate{
				FormatID:  key,
				URL:       streamURL,
				Ext:       ext,
				Protocol:  "http",
				Available: true,
				Supported: true,
			})
		case strings.HasPrefix(key, "rtmp"):
			connURL, playPath, _ := format.SplitPlayPath(streamURL)
			candidates = append(candidates, format.Candidate{
				FormatID:  key,
				URL:       connURL,
				PlayPath:  playPath,
				Ext:       ext,
				Protocol:  "rtmp",
				Available: true,
				Supported: true,
			})
		}
	}
	return candidates, nil
}

func init() {
	config := NewConfig()
	for _, provider := range config.Providers() {
		media_archiver.DefaultProviderRegistry.MustAdd(provider)
	}
}
