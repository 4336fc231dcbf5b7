package media_archiver

import (
	"context"
	"fmt"
	"strings"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

// stubSource is a canned Source for registry and resolver tests.
type stubSource struct {
	url    string
	result Result
	err    error
}

func (s *stubSource) URL() string {
	return s.url
}

func (s *stubSource) Locator() Locator {
	return Locator{Kind: KindTrack, RawURL: s.url}
}

func (s *stubSource) Recon(_ context.Context) (Result, error) {
	return s.result, s.err
}

// prefixMatcher matches any URL with the given prefix.
func prefixMatcher(prefix string, result Result) MatchFunc {
	return func(s string) (Source, error) {
		if !strings.HasPrefix(s, prefix) {
			return nil, fmt.Errorf("no %v prefix", prefix)
		}
		return &stubSource{url: s, result: result}, nil
	}
}

func TestProviderRegistryAdd(t *testing.T) {
	assert := assert_.New(t)
	registry := &ProviderRegistry{}

	assert.ErrorIs(registry.Add(Provider{Name: "", Match: prefixMatcher("a:", nil)}), ErrInvalidProvider)
	assert.ErrorIs(registry.Add(Provider{Name: "a", Match: nil}), ErrInvalidProvider)
	assert.NoError(registry.Add(Provider{Name: "a", Match: prefixMatcher("a:", nil)}))
	assert.ErrorIs(registry.Add(Provider{Name: "a", Match: prefixMatcher("a:", nil)}), ErrDuplicateProvider)
}

func TestProviderRegistryPriority(t *testing.T) {
	assert := assert_.New(t)
	registry := &ProviderRegistry{}

	registry.MustCreate("middle", prefixMatcher("m:", nil))
	registry.MustCreatePriority("last", prefixMatcher("l:", nil), PriorityLowest)
	registry.MustCreatePriority("first", prefixMatcher("f:", nil), PriorityHighest)
	assert.Equal([]string{"first", "middle", "last"}, registry.List())

	priority, err := registry.GetPriority("last")
	assert.NoError(err)
	assert.Equal(PriorityLowest, priority)
	_, err = registry.GetPriority("missing")
	assert.ErrorIs(err, ErrUnknownProvider)

	assert.NoError(registry.SetPriority("last", PriorityHighest))
	assert.Equal("last", registry.List()[0])
	assert.ErrorIs(registry.SetPriority("missing", 1), ErrUnknownProvider)
}

func TestProviderRegistryMatch(t *testing.T) {
	assert := assert_.New(t)
	registry := &ProviderRegistry{}
	registry.MustCreate("a", prefixMatcher("a:", nil))
	registry.MustCreate("b", prefixMatcher("b:", nil))

	match, err := registry.Match("b://thing")
	assert.NoError(err)
	assert.Equal("b", match.ProviderName)
	assert.Equal("b://thing", match.Source.URL())

	// Failure aggregates every provider's refusal around ErrNoMatch.
	_, err = registry.Match("c://thing")
	assert.ErrorIs(err, ErrNoMatch)
	assert.Contains(err.Error(), "[a]")
	assert.Contains(err.Error(), "[b]")
}

func TestProviderRegistryMatchPriorityOrder(t *testing.T) {
	assert := assert_.New(t)
	registry := &ProviderRegistry{}
	// Both match everything; the higher-priority one must win.
	registry.MustCreatePriority("greedy", prefixMatcher("", nil), PriorityLowest)
	registry.MustCreate("specific", prefixMatcher("", nil))

	match, err := registry.Match("anything")
	assert.NoError(err)
	assert.Equal("specific", match.ProviderName)
}

func TestProviderRegistryMatchWith(t *testing.T) {
	assert := assert_.New(t)
	registry := &ProviderRegistry{}
	registry.MustCreate("a", prefixMatcher("a:", nil))

	match, err := registry.MatchWith("a", "a://thing")
	assert.NoError(err)
	assert.Equal("a", match.ProviderName)

	_, err = registry.MatchWith("a", "b://thing")
	assert.ErrorIs(err, ErrNoMatch)
	_, err = registry.MatchWith("missing", "a://thing")
	assert.ErrorIs(err, ErrUnknownProvider)
}
