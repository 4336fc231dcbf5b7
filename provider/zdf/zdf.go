// Package zdf resolves ZDF mediathek video URLs.
//
// The XML metadata service returns every format variant with structured codec/protocol/quality
// fields, so candidates go through the full format.Rank ordering rather than the coarse one.
package zdf

import (
	"context"
	"encoding/xml"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	media_archiver "github.com/alanbriolat/media-archiver"
	"github.com/alanbriolat/media-archiver/format"
	"github.com/alanbriolat/media-archiver/util"
)

var (
	urlPattern = regexp.MustCompile(`^https?://www\.zdf\.de/ZDFmediathek#?/(?:.*beitrag/video/)([^/?]+)`)
	// basetype encodes vcodec_acodec_container_proto_index_indexproto in one attribute.
	basetypePattern = regexp.MustCompile(`^([^_]+)_([^_]+)_([^_]+)_([^_]+)_([^_]+)_([^_]+)$`)
	durationPattern = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2})(?:\.\d+)?`)
	// The metafilegenerator host serves placeholder URLs, not real streams.
	placeholderURLPrefix = "http://www.metafilegenerator"
)

type Config struct {
	Fetcher  media_archiver.Fetcher
	Reporter media_archiver.Reporter
}

func NewConfig() Config {
	return Config{
		Fetcher:  media_archiver.NewHTTPFetcher(),
		Reporter: media_archiver.NopReporter{},
	}
}

func (c *Config) Match(s string) (media_archiver.Source, error) {
	m := urlPattern.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("not a ZDF mediathek URL")
	}
	return &videoSource{
		config: c,
		locator: media_archiver.Locator{
			Kind:   media_archiver.KindTrack,
			IDs:    map[string]string{"video_id": m[1]},
			RawURL: s,
		},
	}, nil
}

func (c Config) Provider() media_archiver.Provider {
	return media_archiver.Provider{
		Name:  "zdf",
		Match: c.Match,
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

// document is the relevant subset of the beitragsDetails XML service response.
type document struct {
	Title              string      `xml:"video>information>title"`
	Detail             string      `xml:"video>information>detail"`
	OriginChannelTitle string      `xml:"video>details>originChannelTitle"`
	Length             string      `xml:"video>details>length"`
	Airtime            string      `xml:"video>details>airtime"`
	Formitaeten        []formitaet `xml:"video>formitaeten>formitaet"`
}

type formitaet struct {
	Basetype     string `xml:"basetype,attr"`
	URL          string `xml:"url"`
	Quality      string `xml:"quality"`
	AudioBitrate int    `xml:"audioBitrate"`
	VideoBitrate int    `xml:"videoBitrate"`
	Width        int    `xml:"width"`
	Height       int    `xml:"height"`
	Filesize     int64  `xml:"filesize"`
}

type videoSource struct {
	config  *Config
	locator media_archiver.Locator
}

func (s *videoSource) URL() string {
	return s.locator.RawURL
}

func (s *videoSource) String() string {
	return s.URL()
}

func (s *videoSource) Locator() media_archiver.Locator {
	return s.locator
}

func (s *videoSource) Recon(ctx context.Context) (media_archiver.Result, error) {
	c := s.config
	videoID := s.locator.ID("video_id")
	xmlURL := fmt.Sprintf("http://www.zdf.de/ZDFmediathek/xmlservice/web/beitragsDetails?ak=web&id=%s", videoID)
	body, err := c.fetcher().Fetch(ctx, xmlURL, videoID, "downloading video info")
	if err != nil {
		return nil, err
	}
	var doc document
	if err := xml.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", media_archiver.ErrMalformedDocument, err)
	}
	if doc.Title == "" {
		return nil, fmt.Errorf("%w: missing video title", media_archiver.ErrMalformedDocument)
	}
	c.reporter().Progress(videoID, "extracting information")

	candidates := make([]format.Candidate, 0, len(doc.Formitaeten))
	for _, node := range doc.Formitaeten {
		candidate, err := nodeToCandidate(&node)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, candidate)
	}

	return &media_archiver.ItemRecord{
		ID:          videoID,
		Title:       doc.Title,
		Uploader:    doc.OriginChannelTitle,
		Description: doc.Detail,
		UploadDate:  util.UnifiedStrdate(doc.Airtime),
		Duration:    parseDuration(doc.Length),
		Formats:     format.Rank(candidates),
	}, nil
}

func nodeToCandidate(node *formitaet) (format.Candidate, error) {
	m := basetypePattern.FindStringSubmatch(node.Basetype)
	if m == nil {
		return format.Candidate{}, fmt.Errorf("%w: unparsable basetype %q", media_archiver.ErrMalformedDocument, node.Basetype)
	}
	if node.URL == "" {
		return format.Candidate{}, fmt.Errorf("%w: formitaet %q has no url", media_archiver.ErrMalformedDocument, node.Basetype)
	}
	if node.Quality == "" {
		return format.Candidate{}, fmt.Errorf("%w: formitaet %q has no quality", media_archiver.ErrMalformedDocument, node.Basetype)
	}
	vcodec, acodec, container, proto := m[1], m[2], m[3], m[4]
	return format.Candidate{
		FormatID:  node.Basetype + "-" + node.Quality,
		URL:       node.URL,
		Ext:       container,
		ACodec:    acodec,
		VCodec:    vcodec,
		ABR:       node.AudioBitrate / 1000,
		VBR:       node.VideoBitrate / 1000,
		Width:     node.Width,
		Height:    node.Height,
		Filesize:  node.Filesize,
		Protocol:  proto,
		Quality:   node.Quality,
		Available: !strings.Contains(node.URL, placeholderURLPrefix),
		Supported: format.SupportedContainer(container),
	}, nil
}

func parseDuration(length string) int {
	m := durationPattern.FindStringSubmatch(length)
	if m == nil {
		return 0
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])
	return hours*3600 + minutes*60 + seconds
}

func init() {
	config := NewConfig()
	media_archiver.DefaultProviderRegistry.MustAdd(config.Provider())
}
