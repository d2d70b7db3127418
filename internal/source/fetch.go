package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	appLog "scheduler/internal/log"
	"scheduler/internal/model"
)

// maxBodyBytes caps the inspection-request payload.
const maxBodyBytes = 16 << 20

// FetchError reports a failure to obtain the initial records. It is recovered
// locally: the caller logs it and starts with an empty collection.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", redactURL(e.URL), e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher performs the one-shot GET of inspection requests.
type Fetcher struct {
	client *http.Client
	url    string
}

// NewFetcher creates a Fetcher for url. A non-positive timeout disables the
// client-side timeout; cancellation then only comes from the context.
func NewFetcher(url string, timeout time.Duration) *Fetcher {
	client := &http.Client{}
	if timeout > 0 {
		client.Timeout = timeout
	}
	return &Fetcher{
		client: client,
		url:    url,
	}
}

// Fetch issues a single request and decodes the JSON array of records.
// There is no retry.
func (f *Fetcher) Fetch(ctx context.Context) ([]model.Record, error) {
	if f.url == "" {
		return nil, &FetchError{URL: f.url, Err: errors.New("source URL is empty")}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, &FetchError{URL: f.url, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	appLog.Info("source fetch start", "url", redactURL(f.url))

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: f.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: f.url, Err: errors.New(resp.Status)}
	}

	var records []model.Record
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes))
	if err := dec.Decode(&records); err != nil {
		return nil, &FetchError{URL: f.url, Err: fmt.Errorf("decode records: %w", err)}
	}

	appLog.Info("source fetch success", "url", redactURL(f.url), "status", resp.StatusCode, "record_count", len(records))
	return records, nil
}

// redactURL hides paths and query strings of the source URL for logging.
//
//	http://192.168.1.42:5000/api/inspection-requests?token=abcd
//	-> http://192.168.1.42:5000/...(redacted)
func redactURL(u string) string {
	const redactedSuffix = "/...(redacted)"

	// Find scheme separator.
	i := -1
	for idx := 0; idx+2 < len(u); idx++ {
		if u[idx:idx+3] == "://" {
			i = idx + 3
			break
		}
	}
	if i == -1 {
		return "source://...(redacted)"
	}

	// Find next slash after host.
	j := i
	for j < len(u) && u[j] != '/' {
		j++
	}

	return u[:j] + redactedSuffix
}
