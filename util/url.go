package util

import (
	"errors"
	"net/url"
)

var (
	ErrNoEmbeddedURL = errors.New("no embedded URL in query string")
)

// AppendQuery returns rawURL with key=value added to its query string, preserving any existing
// parameters. Falls back to naive concatenation if rawURL doesn't parse.
func AppendQuery(rawURL string, key string, value string) string {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		sep := "?"
		for _, c := range rawURL {
			if c == '?' {
				sep = "&"
				break
			}
		}
		return rawURL + sep + key + "=" + url.QueryEscape(value)
	}
	query := parsedURL.Query()
	query.Set(key, value)
	parsedURL.RawQuery = query.Encode()
	return parsedURL.String()
}

// EmbeddedURL extracts a fully-qualified URL carried in the named query parameter of rawURL, as used
// by embedded-player widget URLs.
func EmbeddedURL(rawURL string, param string) (string, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	embedded := parsedURL.Query().Get(param)
	if embedded == "" {
		return "", ErrNoEmbeddedURL
	}
	return embedded, nil
}
