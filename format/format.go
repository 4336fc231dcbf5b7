// Package format models concrete playable/downloadable locations for a media item and the
// deterministic preference order over them.
package format

import (
	"sort"
	"strings"

	"github.com/alanbriolat/media-archiver/generic"
)

// A Candidate is one concrete location for an item's media, with whatever protocol/codec/quality
// metadata the source exposed. Zero-valued fields mean "unknown". Available and Supported should be
// left true unless the source marks the candidate as a placeholder or an unplayable container.
type Candidate struct {
	FormatID string `json:"format_id"`
	URL      string `json:"url"`
	Ext      string `json:"ext,omitempty"`
	ACodec   string `json:"acodec,omitempty"`
	VCodec   string `json:"vcodec,omitempty"`
	ABR      int    `json:"abr,omitempty"` // kbit/s
	VBR      int    `json:"vbr,omitempty"` // kbit/s
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Filesize int64  `json:"filesize,omitempty"`
	// PlayPath is the transport-specific sub-identifier some streaming protocols need in addition to
	// the connection URL.
	PlayPath  string `json:"play_path,omitempty"`
	Protocol  string `json:"protocol,omitempty"`
	Quality   string `json:"quality,omitempty"`
	Note      string `json:"note,omitempty"`
	Available bool   `json:"available"`
	Supported bool   `json:"supported"`
}

// protocolOrder is the transport preference, most preferred first; unrecognised protocols sort last.
var protocolOrder = []string{"http", "rtmp", "rtsp"}

// qualityOrder is the named quality-tier vocabulary, most preferred first; unrecognised tiers sort
// last.
var qualityOrder = []string{"veryhigh", "300", "high", "med", "low"}

// unsupportedContainers is the denylist of containers considered non-playable. These candidates are
// kept but annotated, not dropped.
var unsupportedContainers = generic.NewSet("f4f")

// SupportedContainer reports whether the container/extension is playable.
func SupportedContainer(ext string) bool {
	return !unsupportedContainers.Contains(ext)
}

func vocabRank(vocab []string, value string) int {
	for i, v := range vocab {
		if v == value {
			return i
		}
	}
	return len(vocab)
}

// Rank computes the total preference order over candidates for sources that expose structured
// per-format metadata. Candidates with Available == false are dropped entirely; unsupported
// candidates are kept last-ish with a "(unsupported)" note. The sort is stable, so ties keep document
// order, and the comparison keys are, in order: supportedness, transport protocol, named quality
// tier, video bitrate, audio bitrate.
func Rank(candidates []Candidate) []Candidate {
	ranked := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !c.Available {
			continue
		}
		if !c.Supported && c.Note == "" {
			c.Note = "(unsupported)"
		}
		ranked = append(ranked, c)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return preferred(&ranked[i], &ranked[j])
	})
	return ranked
}

func preferred(a, b *Candidate) bool {
	if a.Supported != b.Supported {
		return a.Supported
	}
	if ap, bp := vocabRank(protocolOrder, a.Protocol), vocabRank(protocolOrder, b.Protocol); ap != bp {
		return ap < bp
	}
	if aq, bq := vocabRank(qualityOrder, a.Quality), vocabRank(qualityOrder, b.Quality); aq != bq {
		return aq < bq
	}
	if a.VBR != b.VBR {
		return a.VBR > b.VBR
	}
	if a.ABR != b.ABR {
		return a.ABR > b.ABR
	}
	return false
}

// RankCoarse orders candidates by transport family alone: HTTP ahead of RTMP ahead of anything else.
// Used by sources whose format keys are opaque strings with no per-field quality metadata. Stable.
func RankCoarse(candidates []Candidate) []Candidate {
	ranked := append([]Candidate(nil), candidates...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return coarseRank(&ranked[i]) > coarseRank(&ranked[j])
	})
	return ranked
}

func coarseRank(c *Candidate) int {
	key := c.Protocol
	if key == "" {
		key = c.FormatID
	}
	switch {
	case strings.HasPrefix(key, "http"):
		return 2
	case strings.HasPrefix(key, "rtmp"):
		return 1
	default:
		return 0
	}
}

// playPathMarker separates the connection URL from the playable path in RTMP-style stream values.
const playPathMarker = "mp3:"

// SplitPlayPath splits an RTMP-style stream value at the first play-path marker, returning the
// connection URL and the marker-prefixed play path. ok is false when the value has no marker, in
// which case url is the whole value.
func SplitPlayPath(value string) (url string, playPath string, ok bool) {
	i := strings.Index(value, playPathMarker)
	if i < 0 {
		return value, "", false
	}
	return strings.TrimSpace(value[:i]), playPathMarker + value[i+len(playPathMarker):], true
}
