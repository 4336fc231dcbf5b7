package media_archiver

import (
	"context"
	"fmt"
)

// DefaultMaxRedirects bounds how many indirect references a single Resolve call will follow.
const DefaultMaxRedirects = 5

// A Resolver drives the whole pipeline for one URL: match it against the registry, recon the matched
// source, and re-enter on Redirect results until a record is produced.
type Resolver struct {
	Registry *ProviderRegistry
	// MaxRedirects guards against cyclic passthrough URLs; <= 0 means DefaultMaxRedirects.
	MaxRedirects int
}

func NewResolver() *Resolver {
	return &Resolver{
		Registry:     &DefaultProviderRegistry,
		MaxRedirects: DefaultMaxRedirects,
	}
}

// Resolve classifies and resolves a URL to an ItemRecord or CollectionRecord.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (Result, error) {
	maxRedirects := r.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = DefaultMaxRedirects
	}
	log := Logger(ctx).Sugar()
	target := rawURL
	for depth := 0; ; depth++ {
		match, err := r.Registry.Match(target)
		if err != nil {
			return nil, err
		}
		result, err := match.Source.Recon(ctx)
		if err != nil {
			return nil, err
		}
		redirect, ok := result.(*Redirect)
		if !ok {
			return result, nil
		}
		if depth+1 >= maxRedirects {
			return nil, fmt.Errorf("%w: stopped at %v", ErrTooManyRedirects, redirect.URL)
		}
		log.Debugf("following redirect from %v to %v", target, redirect.URL)
		target = redirect.URL
	}
}

// ResolveWith is like Resolve but only considers the named provider for the initial match; redirects
// are still matched against the whole registry.
func (r *Resolver) ResolveWith(ctx context.Context, name string, rawURL string) (Result, error) {
	match, err := r.Registry.MatchWith(name, rawURL)
	if err != nil {
		return nil, err
	}
	result, err := match.Source.Recon(ctx)
	if err != nil {
		return nil, err
	}
	if redirect, ok := result.(*Redirect); ok {
		return r.Resolve(ctx, redirect.URL)
	}
	return result, nil
}
