package media_archiver

import (
	"errors"
	"strings"
)

var (
	// ErrMalformedDocument means a fetched metadata document was missing a required field or could not
	// be parsed. Fatal for the item it describes.
	ErrMalformedDocument = errors.New("malformed metadata document")
	// ErrRemoteReported means the fetched document itself carried an error payload. The entries are
	// reported through the Reporter; resolution yields no record.
	ErrRemoteReported = errors.New("remote reported errors")
	// ErrTooManyRedirects means resolution followed more indirect references than Resolver.MaxRedirects
	// allows, most likely a cycle of passthrough URLs.
	ErrTooManyRedirects = errors.New("too many redirects")
	// ErrTooManyPages means pagination hit the safety cap without the endpoint ever returning a short
	// page.
	ErrTooManyPages = errors.New("too many pages")
)

// A RemoteError carries the messages of a document-level error payload. errors.Is(err,
// ErrRemoteReported) distinguishes it from transport failures.
type RemoteError struct {
	Messages []string
}

func (e *RemoteError) Error() string {
	return "remote reported errors: " + strings.Join(e.Messages, "; ")
}

func (e *RemoteError) Is(target error) bool {
	return target == ErrRemoteReported
}
