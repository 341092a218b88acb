// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index retrieves the DailyMed SPL index and filters its records
// by drug name.
package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/pdiddy/dailymed/internal/httputil"
	"github.com/pdiddy/dailymed/pkg/types"
)

// ErrMissingData is wrapped by a ParseError when the index response has no
// "data" field.
var ErrMissingData = errors.New("unexpected response structure: missing 'data' field")

// FetchError reports an index request that did not yield a 200 response.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetching index %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetching index %s: HTTP %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports an index body that does not have the expected shape.
// Entry is -1 when the problem is with the envelope rather than a single
// entry.
type ParseError struct {
	Entry int
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Entry < 0 {
		return fmt.Sprintf("parsing index: %v", e.Err)
	}
	return fmt.Sprintf("parsing index entry %d: field %q: %v", e.Entry, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var (
	errFieldMissing = errors.New("missing")
	errNotString    = errors.New("not a string")
)

// Fetch issues a single GET to cfg.IndexURL and parses the response into
// records in server order. The request carries no timeout of its own; ctx
// bounds it. Any failure is fatal for the run: a non-200 response is a
// *FetchError and a malformed body is a *ParseError.
func Fetch(ctx context.Context, client *httputil.Client, cfg types.DownloadConfig) ([]types.Record, error) {
	resp, err := client.Get(ctx, cfg.IndexURL, cfg.UserAgent)
	if err != nil {
		return nil, &FetchError{URL: cfg.IndexURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: cfg.IndexURL, StatusCode: resp.StatusCode}
	}

	var envelope struct {
		Data *[]map[string]json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, &ParseError{Entry: -1, Err: err}
	}
	if envelope.Data == nil {
		return nil, &ParseError{Entry: -1, Field: "data", Err: ErrMissingData}
	}

	entries := *envelope.Data
	records := make([]types.Record, 0, len(entries))
	for i, entry := range entries {
		rec, err := parseEntry(i, entry)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// parseEntry builds a Record from one index entry. DailyMed names the
// identifier "setid"; "id" is accepted when setid is absent.
func parseEntry(i int, entry map[string]json.RawMessage) (types.Record, error) {
	idField := "setid"
	if _, ok := entry[idField]; !ok {
		idField = "id"
	}
	id, err := stringField(entry, idField)
	if err != nil {
		return types.Record{}, &ParseError{Entry: i, Field: idField, Err: err}
	}
	title, err := stringField(entry, "title")
	if err != nil {
		return types.Record{}, &ParseError{Entry: i, Field: "title", Err: err}
	}

	rec, err := types.NewRecord(id, title)
	if err != nil {
		return types.Record{}, &ParseError{Entry: i, Field: idField, Err: err}
	}
	return rec, nil
}

func stringField(entry map[string]json.RawMessage, name string) (string, error) {
	raw, ok := entry[name]
	if !ok {
		return "", errFieldMissing
	}
	var s string
	if string(raw) == "null" {
		return "", errNotString
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", errNotString
	}
	return s, nil
}
