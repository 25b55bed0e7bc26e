// Package datasf queries the San Francisco open data portal (Socrata) and the
// planning department geocoder. Every lookup returns a Result whose Status
// says whether records were found; transport and decode failures are logged
// and folded into the Result rather than returned.
package datasf

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sfproperty/internal/logging"
	"sfproperty/internal/soql"
)

// DefaultTimeout bounds every dataset request.
const DefaultTimeout = 10 * time.Second

// maxErrorBody is how much of a failed response body is kept for logs.
const maxErrorBody = 512

// APIError is a non-200 response from a dataset endpoint.
type APIError struct {
	Dataset    string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("dataset %s: HTTP %d: %s", e.Dataset, e.StatusCode, e.Body)
}

// DecodeError is a 200 response whose body was not the expected JSON.
type DecodeError struct {
	Dataset string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("dataset %s: decode response: %v", e.Dataset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Client issues dataset queries. It is safe for concurrent use.
type Client struct {
	http       *http.Client
	baseURL    string
	suggestURL string
	appToken   string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default client, e.g. with one that has a
// different timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithAppToken sends a Socrata application token, which raises the
// anonymous rate limit.
func WithAppToken(token string) Option {
	return func(c *Client) { c.appToken = token }
}

// WithSuggestURL points address suggestions at another geocoder endpoint.
func WithSuggestURL(u string) Option {
	return func(c *Client) { c.suggestURL = u }
}

// New returns a client for the resource endpoint at baseURL, e.g.
// https://data.sfgov.org/resource.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		http:       &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		suggestURL: "https://sfplanninggis.org/arcgiswa/rest/services/Geocoder_V2/MapServer/0/query",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get runs one query against a dataset and returns the raw rows.
func (c *Client) get(ctx context.Context, dataset string, q *soql.Query) ([]json.RawMessage, error) {
	vals, err := q.Values()
	if err != nil {
		return nil, err
	}
	url := c.baseURL + "/" + dataset + ".json?" + vals.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: build request: %w", dataset, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.appToken != "" {
		req.Header.Set("X-App-Token", c.appToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", dataset, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{Dataset: dataset, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var rows []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, &DecodeError{Dataset: dataset, Err: err}
	}
	return rows, nil
}

// Status is the outcome of a lookup.
type Status int

const (
	NotFound Status = iota
	Found
	TransportError
	Rejected // the input could not be turned into a safe query
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	case TransportError:
		return "transport_error"
	case Rejected:
		return "rejected"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Attempt records one strategy tried while matching.
type Attempt struct {
	Strategy string            `json:"strategy"`
	Params   map[string]string `json:"params,omitempty"`
	Status   Status            `json:"status"`
	Rows     int               `json:"rows"`
	Error    string            `json:"error,omitempty"`
}

// Result is what a dataset lookup produced.
type Result[T any] struct {
	Status   Status
	Records  []T
	Raw      []json.RawMessage
	Attempts []Attempt
	Err      error // last failure, set for TransportError and Rejected
}

// Found reports whether at least one record matched.
func (r Result[T]) Found() bool { return r.Status == Found }

// First returns the first record, newest first where the dataset is ordered.
func (r Result[T]) First() (T, bool) {
	if len(r.Records) == 0 {
		var zero T
		return zero, false
	}
	return r.Records[0], true
}

// Params returns the parameters of the attempt that decided the result.
func (r Result[T]) Params() map[string]string {
	if len(r.Attempts) == 0 {
		return nil
	}
	return r.Attempts[len(r.Attempts)-1].Params
}

// strategy is one rung of a match ladder.
type strategy struct {
	name  string
	query *soql.Query
}

type rawSetter[T any] interface {
	*T
	SetRaw(json.RawMessage)
}

// fetch tries each strategy in order and stops at the first that returns
// rows. A failing strategy does not stop the ladder; the final status is
// TransportError when any attempt failed in transport and nothing matched.
func fetch[T any, PT rawSetter[T]](ctx context.Context, c *Client, dataset string, ladder []strategy) Result[T] {
	log := logging.FromContext(ctx)
	var res Result[T]
	var transportErr, rejectErr error
	for _, s := range ladder {
		params, _ := s.query.Params()
		att := Attempt{Strategy: s.name, Params: params}

		rows, err := c.get(ctx, dataset, s.query)
		switch {
		case errors.Is(err, soql.ErrUnsafeValue):
			att.Status, att.Error = Rejected, err.Error()
			rejectErr = err
			log.Warn().Str("dataset", dataset).Str("strategy", s.name).Err(err).Msg("query rejected")
		case err != nil:
			att.Status, att.Error = TransportError, err.Error()
			transportErr = err
			log.Warn().Str("dataset", dataset).Str("strategy", s.name).Err(err).Msg("dataset query failed")
		default:
			att.Rows = len(rows)
			recs, raws, derr := decodeRows[T, PT](dataset, rows)
			if derr != nil {
				att.Status, att.Error = TransportError, derr.Error()
				transportErr = derr
				log.Warn().Str("dataset", dataset).Str("strategy", s.name).Err(derr).Msg("dataset query failed")
				break
			}
			if len(recs) > 0 {
				att.Status = Found
				res.Attempts = append(res.Attempts, att)
				res.Status, res.Records, res.Raw = Found, recs, raws
				log.Debug().Str("dataset", dataset).Str("strategy", s.name).Int("rows", len(recs)).Msg("matched")
				return res
			}
			att.Status = NotFound
		}
		res.Attempts = append(res.Attempts, att)
		if ctx.Err() != nil {
			transportErr = ctx.Err()
			break
		}
	}
	switch {
	case transportErr != nil:
		res.Status, res.Err = TransportError, transportErr
	case rejectErr != nil && allRejected(res.Attempts):
		res.Status, res.Err = Rejected, rejectErr
	default:
		res.Status = NotFound
	}
	log.Debug().Str("dataset", dataset).Stringer("status", res.Status).Int("attempts", len(res.Attempts)).Msg("no match")
	return res
}

func allRejected(atts []Attempt) bool {
	for _, a := range atts {
		if a.Status != Rejected {
			return false
		}
	}
	return len(atts) > 0
}

func decodeRows[T any, PT rawSetter[T]](dataset string, rows []json.RawMessage) ([]T, []json.RawMessage, error) {
	recs := make([]T, 0, len(rows))
	for _, row := range rows {
		var rec T
		if err := json.Unmarshal(row, &rec); err != nil {
			return nil, nil, &DecodeError{Dataset: dataset, Err: err}
		}
		PT(&rec).SetRaw(row)
		recs = append(recs, rec)
	}
	return recs, rows, nil
}
