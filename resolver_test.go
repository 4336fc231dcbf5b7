package media_archiver

import (
	"context"
	"fmt"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func newResolverTestRegistry() *ProviderRegistry {
	registry := &ProviderRegistry{}
	registry.MustCreate("track", prefixMatcher("track:", &ItemRecord{ID: "1", Title: "Song"}))
	registry.MustCreate("widget", prefixMatcher("widget:", &Redirect{URL: "track://song"}))
	registry.MustCreate("loop", prefixMatcher("loop:", &Redirect{URL: "loop://again"}))
	return registry
}

func TestResolverFollowsRedirect(t *testing.T) {
	assert := assert_.New(t)
	resolver := &Resolver{Registry: newResolverTestRegistry()}

	result, err := resolver.Resolve(context.Background(), "widget://embed?url=track%3A%2F%2Fsong")
	assert.NoError(err)
	record, ok := result.(*ItemRecord)
	assert.True(ok)
	assert.Equal("Song", record.Title)
}

func TestResolverRedirectLimit(t *testing.T) {
	assert := assert_.New(t)
	resolver := &Resolver{Registry: newResolverTestRegistry()}

	_, err := resolver.Resolve(context.Background(), "loop://start")
	assert.ErrorIs(err, ErrTooManyRedirects)

	resolver.MaxRedirects = 2
	_, err = resolver.Resolve(context.Background(), "loop://start")
	assert.ErrorIs(err, ErrTooManyRedirects)
}

func TestResolverNoMatch(t *testing.T) {
	assert := assert_.New(t)
	resolver := &Resolver{Registry: newResolverTestRegistry()}

	_, err := resolver.Resolve(context.Background(), "nothing://here")
	assert.ErrorIs(err, ErrNoMatch)
}

func TestResolverReconError(t *testing.T) {
	assert := assert_.New(t)
	registry := newResolverTestRegistry()
	reconErr := fmt.Errorf("remote service down")
	registry.MustCreate("broken", func(s string) (Source, error) {
		return &stubSource{url: s, err: reconErr}, nil
	})
	resolver := &Resolver{Registry: registry}

	_, err := resolver.Resolve(context.Background(), "broken://thing")
	assert.ErrorIs(err, reconErr)
}

func TestResolveWith(t *testing.T) {
	assert := assert_.New(t)
	resolver := &Resolver{Registry: newResolverTestRegistry()}

	result, err := resolver.ResolveWith(context.Background(), "track", "track://song")
	assert.NoError(err)
	assert.IsType(&ItemRecord{}, result)

	// The named provider makes the first match; redirects re-enter the whole registry.
	result, err = resolver.ResolveWith(context.Background(), "widget", "widget://embed")
	assert.NoError(err)
	assert.IsType(&ItemRecord{}, result)

	_, err = resolver.ResolveWith(context.Background(), "track", "widget://embed")
	assert.ErrorIs(err, ErrNoMatch)
	_, err = resolver.ResolveWith(context.Background(), "missing", "track://song")
	assert.ErrorIs(err, ErrUnknownProvider)
}
