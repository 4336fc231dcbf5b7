package soundcloud

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"testing"

	assert_ "github.com/stretchr/testify/assert"

	media_archiver "github.com/alanbriolat/media-archiver"
)

func trackJSON(id int) string {
	return fmt.Sprintf(`{"id": %d, "title": "Track %d", "downloadable": true}`, id, id)
}

// pageJSON builds one user-tracks page of downloadable tracks with sequential ids starting at start.
func pageJSON(start int, n int) string {
	tracks := make([]string, 0, n)
	for i := 0; i < n; i++ {
		tracks = append(tracks, trackJSON(start+i))
	}
	return "[" + strings.Join(tracks, ",") + "]"
}

func pageURL(config *Config, userID string, page int) string {
	query := url.Values{
		"offset":    {strconv.Itoa(page * config.PageSize)},
		"client_id": {config.ClientID},
	}
	return fmt.Sprintf("https://api.soundcloud.com/users/%s/tracks.json?%s", userID, query.Encode())
}

func countPageFetches(fetcher *fakeFetcher) int {
	count := 0
	for _, call := range fetcher.calls {
		if strings.Contains(call, "/tracks.json?") {
			count++
		}
	}
	return count
}

func TestReconSet(t *testing.T) {
	assert := assert_.New(t)
	fetcher := &fakeFetcher{responses: map[string]string{}}
	reporter := &fakeReporter{}
	config := newTestConfig(fetcher, reporter)

	doc := fmt.Sprintf(`{
		"id": 134951,
		"title": "The Royal Concept EP",
		"tracks": [%s, {"title": "no id"}, %s]
	}`, trackJSON(1), trackJSON(2))
	fetcher.responses[config.resolveURL("https://soundcloud.com/the-concept-band/sets/the-royal-concept-ep")] = doc

	source, err := config.MatchSet("https://soundcloud.com/the-concept-band/sets/the-royal-concept-ep")
	assert.NoError(err)
	result, err := source.Recon(context.Background())
	assert.NoError(err)

	record, ok := result.(*media_archiver.CollectionRecord)
	assert.True(ok)
	assert.Equal("134951", record.ID)
	assert.Equal("The Royal Concept EP", record.Title)
	// The malformed entry is skipped and reported; the rest survive in document order.
	assert.Len(record.Entries, 2)
	assert.Equal("Track 1", record.Entries[0].Title)
	assert.Equal("Track 2", record.Entries[1].Title)
	assert.Len(reporter.errors, 1)
	assert.Contains(reporter.errors[0], "skipping entry 2")
}

func TestReconSetRemoteErrors(t *testing.T) {
	assert := assert_.New(t)
	fetcher := &fakeFetcher{responses: map[string]string{}}
	reporter := &fakeReporter{}
	config := newTestConfig(fetcher, reporter)

	doc := `{"errors": [{"error_message": "not found"}, {"error_message": "gone away"}]}`
	fetcher.responses[config.resolveURL("https://soundcloud.com/alice/sets/missing")] = doc

	source, err := config.MatchSet("https://soundcloud.com/alice/sets/missing")
	assert.NoError(err)
	result, err := source.Recon(context.Background())
	assert.Nil(result)
	assert.ErrorIs(err, media_archiver.ErrRemoteReported)
	// One reported error per payload entry, and no record at all.
	assert.Len(reporter.errors, 2)
	assert.Contains(reporter.errors[0], "not found")
	assert.Contains(reporter.errors[1], "gone away")
}

func TestReconUserPagination(t *testing.T) {
	assert := assert_.New(t)
	fetcher := &fakeFetcher{responses: map[string]string{}}
	config := newTestConfig(fetcher, &fakeReporter{})
	config.PageSize = 3

	fetcher.responses[config.resolveURL("https://soundcloud.com/alice/")] = `{"id": 777, "username": "Alice"}`
	fetcher.responses[pageURL(config, "777", 0)] = pageJSON(1, 3)
	fetcher.responses[pageURL(config, "777", 1)] = pageJSON(4, 3)
	fetcher.responses[pageURL(config, "777", 2)] = pageJSON(7, 2)

	source, err := config.MatchUser("https://soundcloud.com/alice")
	assert.NoError(err)
	result, err := source.Recon(context.Background())
	assert.NoError(err)

	record := result.(*media_archiver.CollectionRecord)
	assert.Equal("777", record.ID)
	assert.Equal("Alice", record.Title)
	// A short page ends pagination; entries keep fetch order across pages.
	assert.Len(record.Entries, 8)
	assert.Equal("1", record.Entries[0].ID)
	assert.Equal("8", record.Entries[7].ID)
	assert.Equal(3, countPageFetches(fetcher))
}

func TestReconUserPaginationEmptyFinalPage(t *testing.T) {
	assert := assert_.New(t)
	fetcher := &fakeFetcher{responses: map[string]string{}}
	config := newTestConfig(fetcher, &fakeReporter{})
	config.PageSize = 3

	fetcher.responses[config.resolveURL("https://soundcloud.com/alice/")] = `{"id": 777, "username": "Alice"}`
	fetcher.responses[pageURL(config, "777", 0)] = pageJSON(1, 3)
	fetcher.responses[pageURL(config, "777", 1)] = pageJSON(4, 3)
	fetcher.responses[pageURL(config, "777", 2)] = `[]`

	source, err := config.MatchUser("https://soundcloud.com/alice")
	assert.NoError(err)
	result, err := source.Recon(context.Background())
	assert.NoError(err)

	record := result.(*media_archiver.CollectionRecord)
	// An exactly-full page can't prove the enumeration is over, so the empty page costs one more
	// request.
	assert.Len(record.Entries, 6)
	assert.Equal(3, countPageFetches(fetcher))
}

func TestReconUserPaginationCap(t *testing.T) {
	assert := assert_.New(t)
	fetcher := &fakeFetcher{responses: map[string]string{}}
	config := newTestConfig(fetcher, &fakeReporter{})
	config.PageSize = 2
	config.MaxPages = 3

	fetcher.responses[config.resolveURL("https://soundcloud.com/alice/")] = `{"id": 777, "username": "Alice"}`
	for page := 0; page < 4; page++ {
		fetcher.responses[pageURL(config, "777", page)] = pageJSON(page*2+1, 2)
	}

	source, err := config.MatchUser("https://soundcloud.com/alice")
	assert.NoError(err)
	_, err = source.Recon(context.Background())
	assert.ErrorIs(err, media_archiver.ErrTooManyPages)
	assert.Equal(3, countPageFetches(fetcher))
}

func TestReconUserTransportFailureAborts(t *testing.T) {
	assert := assert_.New(t)
	fetcher := &fakeFetcher{
		responses: map[string]string{},
		failures:  map[string]error{},
	}
	config := newTestConfig(fetcher, &fakeReporter{})
	config.PageSize = 2

	fetcher.responses[config.resolveURL("https://soundcloud.com/alice/")] = `{"id": 777, "username": "Alice"}`
	fetcher.responses[pageURL(config, "777", 0)] = pageJSON(1, 2)
	fetcher.failures[pageURL(config, "777", 1)] = fmt.Errorf("connection reset")

	source, err := config.MatchUser("https://soundcloud.com/alice")
	assert.NoError(err)
	result, err := source.Recon(context.Background())
	assert.Nil(result)
	assert.ErrorContains(err, "connection reset")
}
