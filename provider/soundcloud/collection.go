package soundcloud

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	media_archiver "github.com/alanbriolat/media-archiver"
)

// setDocument is the raw set metadata document; one resolve call embeds every member track. A
// non-empty Errors list means the remote refused the set.
type setDocument struct {
	ID     int64             `json:"id"`
	Title  string            `json:"title"`
	Tracks []json.RawMessage `json:"tracks"`
	Errors []struct {
		ErrorMessage string `json:"error_message"`
	} `json:"errors"`
}

type setSource struct {
	config  *Config
	locator media_archiver.Locator
}

func (s *setSource) URL() string {
	return fmt.Sprintf("https://soundcloud.com/%s/sets/%s", s.locator.ID("uploader"), s.locator.ID("slug"))
}

func (s *setSource) String() string {
	return s.URL()
}

func (s *setSource) Locator() media_archiver.Locator {
	return s.locator
}

func (s *setSource) Recon(ctx context.Context) (media_archiver.Result, error) {
	c := s.config
	fullTitle := fmt.Sprintf("%s/sets/%s", s.locator.ID("uploader"), s.locator.ID("slug"))
	c.reporter().Progress(fullTitle, "resolving id")
	body, err := c.fetcher().Fetch(ctx, c.resolveURL(s.URL()), fullTitle, "downloading info JSON")
	if err != nil {
		return nil, err
	}
	var doc setDocument
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", media_archiver.ErrMalformedDocument, err)
	}
	if len(doc.Errors) > 0 {
		// Data-level failure, not a transport failure: report each entry and yield no record.
		remoteErr := &media_archiver.RemoteError{}
		for _, e := range doc.Errors {
			c.reporter().Error(fmt.Sprintf("unable to resolve set %s: %s", fullTitle, e.ErrorMessage))
			remoteErr.Messages = append(remoteErr.Messages, e.ErrorMessage)
		}
		return nil, remoteErr
	}
	if doc.ID == 0 {
		return nil, fmt.Errorf("%w: missing set id", media_archiver.ErrMalformedDocument)
	}
	c.reporter().Progress(fullTitle, "extracting information")
	entries := make([]*media_archiver.ItemRecord, 0, len(doc.Tracks))
	for i, raw := range doc.Tracks {
		record, err := c.resolveRawTrack(ctx, raw, fullTitle)
		if err != nil {
			// One bad track shouldn't discard an otherwise resolvable set.
			c.reporter().Error(fmt.Sprintf("skipping entry %d of %s: %v", i+1, fullTitle, err))
			continue
		}
		entries = append(entries, record)
	}
	return &media_archiver.CollectionRecord{
		ID:      strconv.FormatInt(doc.ID, 10),
		Title:   doc.Title,
		Entries: entries,
	}, nil
}

// userDocument is the publisher descriptor returned by the resolve endpoint for a user URL.
type userDocument struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type userSource struct {
	config  *Config
	locator media_archiver.Locator
}

func (s *userSource) URL() string {
	return fmt.Sprintf("https://soundcloud.com/%s/", s.locator.ID("uploader"))
}

func (s *userSource) String() string {
	return s.URL()
}

func (s *userSource) Locator() media_archiver.Locator {
	return s.locator
}

func (s *userSource) Recon(ctx context.Context) (media_archiver.Result, error) {
	c := s.config
	uploader := s.locator.ID("uploader")
	c.reporter().Progress(uploader, "resolving id")
	body, err := c.fetcher().Fetch(ctx, c.resolveURL(s.URL()), uploader, "downloading user info")
	if err != nil {
		return nil, err
	}
	var doc userDocument
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", media_archiver.ErrMalformedDocument, err)
	}
	if doc.ID == 0 {
		return nil, fmt.Errorf("%w: missing user id", media_archiver.ErrMalformedDocument)
	}
	entries, err := c.paginateUser(ctx, strconv.FormatInt(doc.ID, 10), uploader)
	if err != nil {
		return nil, err
	}
	return &media_archiver.CollectionRecord{
		ID:      strconv.FormatInt(doc.ID, 10),
		Title:   doc.Username,
		Entries: entries,
	}, nil
}

// paginateUser fetches sequential pages of a publisher's tracks until a page comes back shorter than
// the page size. A page count cap guards against an endpoint that never does. Entries keep fetch
// order; a transport failure mid-pagination aborts the whole enumeration.
func (c *Config) paginateUser(ctx context.Context, userID string, label string) ([]*media_archiver.ItemRecord, error) {
	pageSize := c.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	maxPages := c.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	var entries []*media_archiver.ItemRecord
	for page := 0; ; page++ {
		if page >= maxPages {
			return nil, fmt.Errorf("%w: gave up after %d pages", media_archiver.ErrTooManyPages, page)
		}
		query := url.Values{
			"offset":    {strconv.Itoa(page * pageSize)},
			"client_id": {c.ClientID},
		}
		pageURL := fmt.Sprintf("https://api.soundcloud.com/users/%s/tracks.json?%s", userID, query.Encode())
		c.reporter().Progress(label, fmt.Sprintf("downloading tracks page %d", page+1))
		body, err := c.fetcher().Fetch(ctx, pageURL, label, "downloading tracks page")
		if err != nil {
			return nil, err
		}
		var rawTracks []json.RawMessage
		if err := json.Unmarshal([]byte(body), &rawTracks); err != nil {
			return nil, fmt.Errorf("%w: %v", media_archiver.ErrMalformedDocument, err)
		}
		for i, raw := range rawTracks {
			record, err := c.resolveRawTrack(ctx, raw, label)
			if err != nil {
				c.reporter().Error(fmt.Sprintf("skipping track %d of %s page %d: %v", i+1, label, page+1, err))
				continue
			}
			entries = append(entries, record)
		}
		if len(rawTracks) < pageSize {
			break
		}
	}
	return entries, nil
}

// resolveRawTrack resolves one embedded track sub-document quietly, so collection expansion doesn't
// emit per-item progress noise.
func (c *Config) resolveRawTrack(ctx context.Context, raw json.RawMessage, label string) (*media_archiver.ItemRecord, error) {
	var doc trackDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", media_archiver.ErrMalformedDocument, err)
	}
	return c.resolveTrack(ctx, &doc, label, true)
}
