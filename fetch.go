package media_archiver

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// A Fetcher is the single transport capability the resolution core consumes: a blocking text fetch.
// label identifies the item being worked on, note describes the purpose of the fetch; both are
// observational only. Retry, timeout, and authentication policy all live behind this interface.
type Fetcher interface {
	Fetch(ctx context.Context, url string, label string, note string) (string, error)
}

// A Reporter receives non-fatal per-entry failures and progress notes. It has no behavioural effect on
// resolution.
type Reporter interface {
	Error(msg string)
	Progress(label string, stage string)
}

// NopReporter discards everything.
type NopReporter struct{}

func (NopReporter) Error(string)            {}
func (NopReporter) Progress(string, string) {}

// A LogReporter forwards reports to a zap logger.
type LogReporter struct {
	Log *zap.SugaredLogger
}

func NewLogReporter() *LogReporter {
	return &LogReporter{Log: zap.S().Named("resolve")}
}

func (r *LogReporter) Error(msg string) {
	r.Log.Error(msg)
}

func (r *LogReporter) Progress(label string, stage string) {
	r.Log.Infof("%s: %s", label, stage)
}

// An HTTPFetcher is the default Fetcher: one GET per call, no retries, body read aborted when the
// context is cancelled.
type HTTPFetcher struct {
	Client *http.Client
}

func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{Client: &http.Client{}}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string, label string, note string) (string, error) {
	Logger(ctx).Sugar().Debugf("%s: %s (%s)", label, note, url)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	client := f.Client
	if client == nil {
		client = &http.Client{}
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch failed: unexpected status %v", resp.Status)
	}
	body, err := io.ReadAll(&readerContext{ctx: ctx, r: resp.Body})
	if err != nil {
		return "", fmt.Errorf("fetch failed: %w", err)
	}
	return string(body), nil
}

// A context-aware io.Reader wrapper.
type readerContext struct {
	ctx context.Context
	r   io.Reader
}

func (r *readerContext) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
