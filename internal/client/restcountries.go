package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/grzegorczykanna/UBSWebAPI/internal/domain"
)

const (
	defaultBaseURL = "https://restcountries.com/v3.1"
	clientTimeout  = 10 * time.Second
)

var (
	// ErrNotFound matches every non-success upstream response.
	ErrNotFound = errors.New("partition not found upstream")
	// ErrMalformedPayload is returned when the upstream body is not a JSON array.
	ErrMalformedPayload = errors.New("malformed upstream payload")
)

// UpstreamError carries the status of a non-success upstream response.
type UpstreamError struct {
	Kind       domain.PartitionKind
	Key        string
	StatusCode int
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s %q not found: upstream returned status %d", e.Kind, e.Key, e.StatusCode)
}

// Is makes errors.Is(err, ErrNotFound) hold for any UpstreamError.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrNotFound
}

// RawCountry is one upstream country document. Its schema belongs to the
// provider; only the fields Normalize needs are ever read.
type RawCountry struct {
	doc gjson.Result
}

// NewRawCountry wraps a single JSON document.
func NewRawCountry(raw string) RawCountry {
	return RawCountry{doc: gjson.Parse(raw)}
}

// Raw returns the document as received.
func (c RawCountry) Raw() string {
	return c.doc.Raw
}

// RestCountriesClient interacts with the REST Countries API.
type RestCountriesClient struct {
	client  *http.Client
	BaseURL string
}

// NewRestCountriesClient creates a new client for the REST Countries API.
// A zero timeout keeps the package default.
func NewRestCountriesClient(baseURL string, timeout time.Duration) *RestCountriesClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = clientTimeout
	}
	return &RestCountriesClient{
		client:  &http.Client{Timeout: timeout},
		BaseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Fetch returns the countries of one region or subregion.
func (c *RestCountriesClient) Fetch(ctx context.Context, kind domain.PartitionKind, key string) ([]RawCountry, error) {
	body, err := c.FetchRaw(ctx, kind, key)
	if err != nil {
		return nil, err
	}
	return ParseCountries(body)
}

// FetchRaw performs the upstream call and returns the undecoded body.
func (c *RestCountriesClient) FetchRaw(ctx context.Context, kind domain.PartitionKind, key string) ([]byte, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown partition kind %q", kind)
	}
	endpoint := fmt.Sprintf("%s/%s/%s", c.BaseURL, kind, url.PathEscape(key))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{Kind: kind, Key: key, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// ParseCountries splits an upstream array body into documents.
func ParseCountries(body []byte) ([]RawCountry, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedPayload)
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsArray() {
		return nil, fmt.Errorf("%w: expected array, got %s", ErrMalformedPayload, doc.Type)
	}

	items := doc.Array()
	out := make([]RawCountry, 0, len(items))
	for _, item := range items {
		out = append(out, RawCountry{doc: item})
	}
	return out, nil
}
