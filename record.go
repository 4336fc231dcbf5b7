package media_archiver

import (
	"fmt"

	"github.com/alanbriolat/media-archiver/format"
)

// A Result is what Source.Recon produces: exactly one of ItemRecord, CollectionRecord, or Redirect.
type Result interface {
	isResult()
}

// An ItemRecord is one fully-resolved media item: fixed metadata plus a ranked list of format
// candidates. Optional string fields are "" when the source document didn't carry them; Duration is 0
// when unknown. Immutable after ranking.
type ItemRecord struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Uploader    string             `json:"uploader,omitempty"`
	Description string             `json:"description,omitempty"`
	Thumbnail   string             `json:"thumbnail,omitempty"`
	UploadDate  string             `json:"upload_date,omitempty"` // YYYYMMDD
	Duration    int                `json:"duration,omitempty"`    // seconds
	Formats     []format.Candidate `json:"formats"`
}

func (r *ItemRecord) isResult() {}

func (r *ItemRecord) String() string {
	return fmt.Sprintf("%s [%s]", r.Title, r.ID)
}

// A CollectionRecord aggregates the items of a set or a publisher. Entries keep fetch order.
type CollectionRecord struct {
	ID      string        `json:"id"`
	Title   string        `json:"title"`
	Entries []*ItemRecord `json:"entries"`
}

func (r *CollectionRecord) isResult() {}

func (r *CollectionRecord) String() string {
	return fmt.Sprintf("%s [%s] (%d entries)", r.Title, r.ID, len(r.Entries))
}

// A Redirect asks the caller to restart resolution on another URL. Produced for indirect references
// such as embedded-player widgets that wrap a canonical URL in a query parameter.
type Redirect struct {
	URL string `json:"url"`
}

func (r *Redirect) isResult() {}

func (r *Redirect) String() string {
	return fmt.Sprintf("redirect to %s", r.URL)
}
