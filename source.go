package media_archiver

import (
	"context"
)

// LocatorKind is the classified intent of an input URL.
type LocatorKind int

const (
	// KindTrack identifies a single media item.
	KindTrack LocatorKind = iota
	// KindSet identifies a curated collection resolved in one document.
	KindSet
	// KindUser identifies a publisher whose items are enumerated by pagination.
	KindUser
	// KindRedirect identifies an indirect reference embedding another URL, e.g. an embedded player widget.
	KindRedirect
)

func (k LocatorKind) String() string {
	switch k {
	case KindTrack:
		return "track"
	case KindSet:
		return "set"
	case KindUser:
		return "user"
	case KindRedirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// A Locator is the structured result of classifying an input URL: the intent plus the identifiers the
// matching pattern captured. Immutable once created.
type Locator struct {
	Kind   LocatorKind
	IDs    map[string]string
	RawURL string
}

// ID returns the named captured identifier, or "" if the pattern didn't capture it.
func (l Locator) ID(name string) string {
	return l.IDs[name]
}

type Source interface {
	// URL should return the canonical URL for this source. It is assumed that the Provider.Match that created the
	// Source would successfully match this canonical URL.
	URL() string
	// Locator should return the classified intent and captured identifiers for this source.
	Locator() Locator
	// Recon should fetch whatever metadata is needed to fully describe the source, returning an
	// ItemRecord, a CollectionRecord, or a Redirect to restart resolution on another URL.
	Recon(context.Context) (Result, error)
}
